package bitstream

var h264Profiles = map[int]string{
	44:  "CAVLC 4:4:4 Intra",
	66:  "Baseline",
	77:  "Main",
	88:  "Extended",
	100: "High",
	110: "High 10",
	118: "Multiview High",
	122: "High 4:2:2",
	128: "Stereo High",
	244: "High 4:4:4 Predictive",
}

// Profiles that carry chroma_format_idc and bit depths in the SPS.
var h264HighProfiles = map[int]bool{
	100: true, 110: true, 122: true, 244: true, 44: true, 83: true, 86: true,
	118: true, 128: true, 138: true, 139: true, 134: true, 135: true,
}

var hevcProfiles = map[int]string{
	1: "Main",
	2: "Main 10",
	3: "Main Still Picture",
	4: "Rext",
	5: "High Throughput",
	9: "Screen Content",
}

var av1Profiles = map[int]string{
	0: "Main",
	1: "High",
	2: "Professional",
}

var vp9Profiles = map[int]string{
	0: "Profile 0",
	1: "Profile 1",
	2: "Profile 2",
	3: "Profile 3",
}

var chromaLocations = map[int]string{
	0: "left",
	1: "center",
	2: "topleft",
	3: "top",
	4: "bottomleft",
	5: "bottom",
}

var av1ChromaLocations = map[int]string{
	0: "unspecified",
	1: "topleft",
	2: "left",
}

var transferNames = map[int]string{
	1:  "bt709",
	4:  "bt470m",
	5:  "bt470bg",
	6:  "smpte170m",
	14: "smpte428",
	16: "smpte2084",
	18: "arib-std-b67",
}

var primariesNames = map[int]string{
	1:  "bt709",
	5:  "smpte170m",
	9:  "bt2020",
	10: "smpte428",
	11: "smpte428",
	12: "smpte431",
	13: "smpte432",
}

var matrixNames = map[int]string{
	0:  "gbr",
	1:  "bt709",
	5:  "bt470bg",
	6:  "smpte170m",
	9:  "bt2020nc",
	10: "bt2020c",
	14: "bt2020nc",
	15: "bt2020nc",
}

// PrimariesName names a colour_primaries code; unknown codes are rendered in decimal.
func PrimariesName(code int) string { return lookup(primariesNames, code) }

// TransferName names a transfer_characteristics code.
func TransferName(code int) string { return lookup(transferNames, code) }

// MatrixName names a matrix_coefficients code.
func MatrixName(code int) string { return lookup(matrixNames, code) }
