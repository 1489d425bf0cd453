// Copyright 2024 The xbox360-dumpcarve Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package formats

// Magic-only signatures (§4.3): recognized by their fixed header bytes with
// no further structural validation, sized at max_size or the remaining
// buffer, whichever is smaller.

func xexSignature() Signature {
	return Signature{
		ID:             "xex",
		Magic:          []byte("XEX2"),
		Description:    "Xbox 360 executable",
		MinSize:        4,
		MaxSize:        64 * 1024 * 1024,
		OutputFolder:   "executables",
		Extension:      ".xex",
		EnabledForScan: true,
	}
}

func xdbfSignature() Signature {
	return Signature{
		ID:             "xdbf",
		Magic:          []byte("XDBF"),
		Description:    "Xbox dashboard resource database",
		MinSize:        4,
		MaxSize:        16 * 1024 * 1024,
		OutputFolder:   "xbox",
		Extension:      ".xdbf",
		EnabledForScan: true,
	}
}

func xuisSignature() Signature {
	return Signature{
		ID:             "xuis",
		Magic:          []byte("XUIS"),
		Description:    "Xbox UI scene",
		MinSize:        4,
		MaxSize:        8 * 1024 * 1024,
		OutputFolder:   "xui",
		Extension:      ".xuis",
		EnabledForScan: true,
	}
}

func xuibSignature() Signature {
	return Signature{
		ID:             "xuib",
		Magic:          []byte("XUIB"),
		Description:    "Xbox UI binary",
		MinSize:        4,
		MaxSize:        8 * 1024 * 1024,
		OutputFolder:   "xui",
		Extension:      ".xuib",
		EnabledForScan: true,
	}
}

func lipSignature() Signature {
	return Signature{
		ID:             "lip",
		Magic:          []byte("LIP "),
		Description:    "Lip-sync animation data",
		MinSize:        4,
		MaxSize:        4 * 1024 * 1024,
		OutputFolder:   "lipsync",
		Extension:      ".lip",
		EnabledForScan: true,
	}
}

func esmSignature() Signature {
	return Signature{
		ID:             "esm",
		Magic:          []byte("TES4"),
		Description:    "Elder Scrolls / Fallout plugin (ESM/ESP)",
		MinSize:        24,
		MaxSize:        256 * 1024 * 1024,
		OutputFolder:   "plugins",
		Extension:      ".esp",
		EnabledForScan: true,
	}
}
