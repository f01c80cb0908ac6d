package bitstream

import (
	"encoding/binary"
	"fmt"

	"github.com/deepch/vdk/codec/h265parser"

	bin "github.com/simonhull/metaspector/internal/binary"
)

const hevcNALSPS = 33

// ParseHVCC parses an HEVCDecoderConfigurationRecord (the hvcC payload).
//
// The fixed 22-byte header ends with lengthSizeMinusOne in the low bits of
// byte 21; byte 22 counts the NAL unit arrays that follow.
func ParseHVCC(payload []byte) (Params, error) {
	p := newParams()
	if len(payload) < 23 {
		return p, bin.ErrOutOfData
	}
	p.NALLengthSize = int(payload[21]&0x03) + 1

	sps, err := hevcSPS(payload)
	if err != nil {
		return p, err
	}

	p.Width, p.Height = hevcDimensions(payload)

	err = parseHEVCSPS(sps, &p)
	p.finish()
	return p, err
}

// hevcSPS returns the first SPS NAL unit listed in the record.
func hevcSPS(payload []byte) ([]byte, error) {
	numArrays := int(payload[22])
	pos := 23
	for i := 0; i < numArrays; i++ {
		if pos+3 > len(payload) {
			return nil, bin.ErrOutOfData
		}
		nalType := payload[pos] & 0x3F
		numNALUs := int(binary.BigEndian.Uint16(payload[pos+1:]))
		pos += 3
		for j := 0; j < numNALUs; j++ {
			if pos+2 > len(payload) {
				return nil, bin.ErrOutOfData
			}
			n := int(binary.BigEndian.Uint16(payload[pos:]))
			pos += 2
			if pos+n > len(payload) {
				return nil, bin.ErrOutOfData
			}
			if nalType == hevcNALSPS {
				return payload[pos : pos+n], nil
			}
			pos += n
		}
	}
	return nil, ErrNoParameterSet
}

func hevcDimensions(record []byte) (width, height int) {
	defer func() {
		if recover() != nil {
			width, height = 0, 0
		}
	}()
	codec, err := h265parser.NewCodecDataFromAVCDecoderConfRecord(record)
	if err != nil {
		return 0, 0
	}
	return codec.Width(), codec.Height()
}

// parseHEVCSPS reads an HEVC SPS NAL unit (including its two-byte header).
//
// Parsing stops with ErrUnsupportedRefPicSet when a short-term reference
// picture set uses inter prediction; everything before it is kept.
func parseHEVCSPS(nal []byte, p *Params) error {
	r := newReader(bin.Unescape(nal))

	r.skip(16) // NAL unit header
	r.skip(4)  // sps_video_parameter_set_id
	maxSubLayersMinus1 := int(r.bits(3))
	r.skip(1) // sps_temporal_id_nesting_flag

	// profile_tier_level
	r.skip(2) // general_profile_space
	r.skip(1) // general_tier_flag
	profileIdc := int(r.bits(5))
	r.skip(32) // general_profile_compatibility_flags
	r.skip(48) // constraint flags
	levelIdc := int(r.bits(8))
	if r.err != nil {
		return r.err
	}

	p.Profile = lookup(hevcProfiles, profileIdc)
	if levelIdc > 0 {
		p.ProfileLevel = fmt.Sprintf("%.1f", float64(levelIdc)/30)
	}

	if maxSubLayersMinus1 > 0 {
		profilePresent := make([]bool, maxSubLayersMinus1)
		levelPresent := make([]bool, maxSubLayersMinus1)
		for i := 0; i < maxSubLayersMinus1; i++ {
			profilePresent[i] = r.flag()
			levelPresent[i] = r.flag()
		}
		for i := maxSubLayersMinus1; i < 8; i++ {
			r.skip(2) // reserved_zero_2bits
		}
		for i := 0; i < maxSubLayersMinus1; i++ {
			if profilePresent[i] {
				r.skip(88)
			}
			if levelPresent[i] {
				r.skip(8)
			}
		}
	}

	r.ue() // sps_seq_parameter_set_id
	chromaFormat := int(r.ue())
	if chromaFormat == 3 {
		r.skip(1) // separate_colour_plane_flag
	}
	r.ue() // pic_width_in_luma_samples
	r.ue() // pic_height_in_luma_samples
	if r.flag() { // conformance_window_flag
		r.ue()
		r.ue()
		r.ue()
		r.ue()
	}
	bitDepth := int(r.ue()) + 8
	if r.err != nil {
		return r.err
	}
	p.ChromaFormat = chromaFormat
	p.BitDepth = bitDepth

	r.ue() // bit_depth_chroma_minus8
	log2MaxPocLsb := int(r.ue()) + 4

	start := maxSubLayersMinus1
	if r.flag() { // sps_sub_layer_ordering_info_present_flag
		start = 0
	}
	for i := start; i <= maxSubLayersMinus1 && r.err == nil; i++ {
		r.ue()
		r.ue()
		r.ue()
	}

	for i := 0; i < 6; i++ {
		r.ue() // log2 block sizes and transform depths
	}

	if r.flag() { // scaling_list_enabled_flag
		if r.flag() { // sps_scaling_list_data_present_flag
			skipHEVCScalingListData(r)
		}
	}
	r.skip(1) // amp_enabled_flag
	r.skip(1) // sample_adaptive_offset_enabled_flag

	if r.flag() { // pcm_enabled_flag
		r.skip(8)
		r.ue()
		r.ue()
		r.skip(1)
	}

	numShortTermSets := int(r.ue())
	for i := 0; i < numShortTermSets && r.err == nil; i++ {
		if i != 0 && r.flag() {
			return ErrUnsupportedRefPicSet
		}
		negative := r.ue()
		positive := r.ue()
		for j := uint64(0); j < negative && r.err == nil; j++ {
			r.ue()
			r.skip(1)
		}
		for j := uint64(0); j < positive && r.err == nil; j++ {
			r.ue()
			r.skip(1)
		}
	}

	if r.flag() { // long_term_ref_pics_present_flag
		n := r.ue()
		for i := uint64(0); i < n && r.err == nil; i++ {
			r.skip(log2MaxPocLsb)
			r.skip(1)
		}
	}

	r.skip(1) // sps_temporal_mvp_enabled_flag
	r.skip(1) // strong_intra_smoothing_enabled_flag

	if r.flag() { // vui_parameters_present_flag
		parseVUI(r, p)
	}
	return r.err
}

func skipHEVCScalingListData(r *reader) {
	for sizeID := 0; sizeID < 4; sizeID++ {
		matrices := 6
		if sizeID == 3 {
			matrices = 2
		}
		for m := 0; m < matrices && r.err == nil; m++ {
			if !r.flag() { // scaling_list_pred_mode_flag
				r.ue()
				continue
			}
			coefs := 1 << (4 + (sizeID << 1))
			if coefs > 64 {
				coefs = 64
			}
			if sizeID > 1 {
				r.se() // scaling_list_dc_coef_minus8
			}
			for k := 0; k < coefs && r.err == nil; k++ {
				r.se()
			}
		}
	}
}
