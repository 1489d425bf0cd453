// Copyright 2024 The xbox360-dumpcarve Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	dumpcarve "github.com/saferwall/xbox360-dumpcarve"
	"github.com/saferwall/xbox360-dumpcarve/internal/xlog"
)

var (
	output     string
	types      []string
	convertDDX bool
	maxFiles   int
	verbose    bool
)

func carveFile(cmd *cobra.Command, args []string) error {
	input := args[0]

	opts := dumpcarve.DefaultOptions()
	opts.OutputDir = output
	opts.Types = types
	opts.ConvertDDX = convertDDX
	opts.MaxFiles = maxFiles
	opts.Log = xlog.New(verbose)

	res, err := dumpcarve.File(context.Background(), input, opts)
	if err != nil {
		return fmt.Errorf("carving %s: %w", input, err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "file type\tcount\n")
	counts := map[string]int{}
	for _, e := range res.Manifest {
		counts[e.FileType]++
	}
	for fileType, n := range counts {
		fmt.Fprintf(w, "%s\t%d\n", fileType, n)
	}
	w.Flush()

	fmt.Printf("\n%d files carved to %s (ddx converted=%d failed=%d)\n",
		len(res.Manifest), res.OutputDir, res.DDXConverted, res.DDXFailed)
	return nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "dumpcarve <input>",
		Short: "Carve Xbox 360 minidump captures into recovered asset files",
		Long:  "dumpcarve scans an Xbox 360 minidump, recovers modules and per-format assets (textures, audio, models, scripts, plugins, and more), and writes them alongside a JSON manifest.",
		Args:  cobra.ExactArgs(1),
		RunE:  carveFile,
	}

	rootCmd.Flags().StringVarP(&output, "output", "o", ".", "output directory the per-dump tree is created under")
	rootCmd.Flags().StringSliceVar(&types, "types", nil, "restrict scanning to these file-type ids (default: all)")
	rootCmd.Flags().BoolVar(&convertDDX, "convert-ddx", true, "convert recovered DDX textures to standard DDS")
	rootCmd.Flags().IntVar(&maxFiles, "max-files", 0, "cap on total files carved (0 = unlimited)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("dumpcarve 0.1.0")
		},
	}
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
