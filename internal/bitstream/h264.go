package bitstream

import (
	"encoding/binary"
	"fmt"

	"github.com/deepch/vdk/codec/h264parser"

	bin "github.com/simonhull/metaspector/internal/binary"
)

// ParseAVCC parses an AVCDecoderConfigurationRecord (the avcC payload).
//
// Layout:
//
//	[1] configurationVersion
//	[1] AVCProfileIndication
//	[1] profile_compatibility
//	[1] AVCLevelIndication
//	[1] 111111 + lengthSizeMinusOne(2)
//	[1] 111 + numOfSequenceParameterSets(5)
//	[2] sequenceParameterSetLength, then the SPS NAL unit
func ParseAVCC(payload []byte) (Params, error) {
	p := newParams()
	if len(payload) < 8 {
		return p, bin.ErrOutOfData
	}
	p.NALLengthSize = int(payload[4]&0x03) + 1

	if payload[5]&0x1F == 0 {
		return p, ErrNoParameterSet
	}
	spsLen := int(binary.BigEndian.Uint16(payload[6:8]))
	if spsLen == 0 {
		return p, ErrNoParameterSet
	}
	if 8+spsLen > len(payload) {
		return p, bin.ErrOutOfData
	}

	p.Width, p.Height = avcDimensions(payload)

	err := parseH264SPS(payload[8:8+spsLen], &p)
	p.finish()
	return p, err
}

// avcDimensions reads the coded size through the vdk record decoder.
func avcDimensions(record []byte) (width, height int) {
	defer func() {
		if recover() != nil {
			width, height = 0, 0
		}
	}()
	codec, err := h264parser.NewCodecDataFromAVCDecoderConfRecord(record)
	if err != nil {
		return 0, 0
	}
	return codec.Width(), codec.Height()
}

// parseH264SPS reads profile, level, chroma format, bit depth and VUI colour
// from an H.264 SPS NAL unit (including its one-byte header).
func parseH264SPS(nal []byte, p *Params) error {
	r := newReader(bin.Unescape(nal))

	r.skip(8) // NAL unit header
	profileIdc := int(r.bits(8))
	r.skip(8) // constraint_set flags
	levelIdc := int(r.bits(8))
	if r.err != nil {
		return r.err
	}

	p.Profile = lookup(h264Profiles, profileIdc)
	if levelIdc > 0 {
		p.ProfileLevel = fmt.Sprintf("%.1f", float64(levelIdc)/10)
	}

	r.ue() // seq_parameter_set_id

	chromaFormat, bitDepth := 1, 8
	if h264HighProfiles[profileIdc] {
		chromaFormat = int(r.ue())
		if chromaFormat == 3 {
			r.skip(1) // separate_colour_plane_flag
		}
		bitDepth = int(r.ue()) + 8
		r.ue()    // bit_depth_chroma_minus8
		r.skip(1) // qpprime_y_zero_transform_bypass_flag
		if r.flag() {
			lists := 8
			if chromaFormat == 3 {
				lists = 12
			}
			for i := 0; i < lists; i++ {
				if r.flag() {
					size := 16
					if i >= 6 {
						size = 64
					}
					skipH264ScalingList(r, size)
				}
			}
		}
	}
	if r.err != nil {
		return r.err
	}
	p.ChromaFormat = chromaFormat
	p.BitDepth = bitDepth

	r.ue() // log2_max_frame_num_minus4
	switch r.ue() {
	case 0:
		r.ue() // log2_max_pic_order_cnt_lsb_minus4
	case 1:
		r.skip(1)
		r.se()
		r.se()
		n := r.ue()
		for i := uint64(0); i < n && r.err == nil; i++ {
			r.se()
		}
	}

	r.ue()    // max_num_ref_frames
	r.skip(1) // gaps_in_frame_num_value_allowed_flag
	r.ue()    // pic_width_in_mbs_minus1
	r.ue()    // pic_height_in_map_units_minus1
	if !r.flag() {
		r.skip(1) // mb_adaptive_frame_field_flag
	}
	r.skip(1) // direct_8x8_inference_flag
	if r.flag() {
		r.ue()
		r.ue()
		r.ue()
		r.ue()
	}

	if r.flag() {
		parseVUI(r, p)
	}
	return r.err
}

func skipH264ScalingList(r *reader, size int) {
	last, next := int64(8), int64(8)
	for j := 0; j < size && r.err == nil; j++ {
		if next != 0 {
			delta := r.se()
			next = (last + delta + 256) % 256
		}
		if next != 0 {
			last = next
		}
	}
}

// parseVUI reads the leading VUI fields shared by H.264 and HEVC up to the
// chroma sample location.
func parseVUI(r *reader, p *Params) {
	if r.flag() { // aspect_ratio_info_present_flag
		if r.bits(8) == 255 {
			r.skip(32) // sar_width, sar_height
		}
	}
	if r.flag() { // overscan_info_present_flag
		r.skip(1)
	}
	if r.flag() { // video_signal_type_present_flag
		r.skip(3) // video_format
		fullRange := r.flag()
		if r.flag() { // colour_description_present_flag
			c := &Colour{
				Primaries: int(r.bits(8)),
				Transfer:  int(r.bits(8)),
				Matrix:    int(r.bits(8)),
				FullRange: fullRange,
				HasRange:  true,
			}
			if r.err == nil {
				p.Colour = c
			}
		}
	}
	if r.flag() { // chroma_loc_info_present_flag
		top := int(r.ue())
		bottom := int(r.ue())
		if r.err == nil {
			if top == bottom {
				p.ChromaLocation = lookup(chromaLocations, top)
			} else {
				p.ChromaLocation = lookup(chromaLocations, top) + "/" + lookup(chromaLocations, bottom)
			}
		}
	}
}
