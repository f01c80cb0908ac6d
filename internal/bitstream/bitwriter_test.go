package bitstream

// bitWriter builds MSB-first bit strings for test fixtures.
type bitWriter struct {
	buf  []byte
	nbit int
}

func (w *bitWriter) bit(b uint64) {
	if w.nbit%8 == 0 {
		w.buf = append(w.buf, 0)
	}
	if b&1 == 1 {
		w.buf[len(w.buf)-1] |= 1 << (7 - uint(w.nbit%8))
	}
	w.nbit++
}

func (w *bitWriter) bits(n int, v uint64) {
	for i := n - 1; i >= 0; i-- {
		w.bit(v >> uint(i))
	}
}

func (w *bitWriter) ue(v uint64) {
	v++
	n := 0
	for t := v; t > 1; t >>= 1 {
		n++
	}
	w.bits(n, 0)
	w.bits(n+1, v)
}

// rbsp appends the stop bit and pads to a byte boundary.
func (w *bitWriter) rbsp() []byte {
	w.bit(1)
	for w.nbit%8 != 0 {
		w.bit(0)
	}
	return w.buf
}

// escape inserts emulation prevention bytes.
func escape(rbsp []byte) []byte {
	out := make([]byte, 0, len(rbsp)+8)
	zeros := 0
	for _, b := range rbsp {
		if zeros >= 2 && b <= 3 {
			out = append(out, 0x03)
			zeros = 0
		}
		out = append(out, b)
		if b == 0 {
			zeros++
		} else {
			zeros = 0
		}
	}
	return out
}

// h264SPS builds a Baseline 3.0 320x240 SPS with a BT.709 VUI colour description.
func h264SPS() []byte {
	w := &bitWriter{}
	w.bits(8, 0x67) // NAL header
	w.bits(8, 66)   // profile_idc
	w.bits(8, 0xC0) // constraint flags
	w.bits(8, 30)   // level_idc
	w.ue(0)         // sps id
	w.ue(0)         // log2_max_frame_num_minus4
	w.ue(0)         // pic_order_cnt_type
	w.ue(0)         // log2_max_pic_order_cnt_lsb_minus4
	w.ue(1)         // max_num_ref_frames
	w.bit(0)        // gaps
	w.ue(19)        // width in mbs - 1
	w.ue(14)        // height in map units - 1
	w.bit(1)        // frame_mbs_only
	w.bit(1)        // direct_8x8_inference
	w.bit(0)        // cropping
	w.bit(1)        // vui present
	w.bit(0)        // aspect ratio
	w.bit(0)        // overscan
	w.bit(1)        // video signal type
	w.bits(3, 5)    // video_format
	w.bit(0)        // full range
	w.bit(1)        // colour description
	w.bits(8, 1)
	w.bits(8, 1)
	w.bits(8, 1)
	w.bit(0) // chroma loc
	w.bit(0) // timing info
	w.bit(0) // nal hrd
	w.bit(0) // vcl hrd
	w.bit(0) // pic_struct
	w.bit(0) // bitstream restriction
	return escape(w.rbsp())
}

// avcC wraps an SPS into an AVCDecoderConfigurationRecord with 4-byte lengths.
func avcC(sps []byte) []byte {
	rec := []byte{1, sps[1], sps[2], sps[3], 0xFF, 0xE1, byte(len(sps) >> 8), byte(len(sps))}
	rec = append(rec, sps...)
	return append(rec, 0x01, 0x00, 0x02, 0x68, 0xCE) // one PPS
}

// hevcSPSBits builds a Main 10 level 4.0 2160p SPS. With interRefPicSet set, the
// second short-term reference picture set uses inter prediction.
func hevcSPSBits(interRefPicSet bool) []byte {
	w := &bitWriter{}
	w.bits(16, 0x4201) // NAL header, type 33
	w.bits(4, 0)       // vps id
	w.bits(3, 0)       // max_sub_layers_minus1
	w.bit(1)           // temporal_id_nesting
	w.bits(2, 0)       // profile_space
	w.bit(0)           // tier
	w.bits(5, 2)       // profile_idc
	w.bits(32, 0x20000000)
	w.bits(48, 0x900000000000)
	w.bits(8, 120) // level_idc
	w.ue(0)        // sps id
	w.ue(1)        // chroma_format_idc
	w.ue(3840)
	w.ue(2160)
	w.bit(0) // conformance window
	w.ue(2)  // bit_depth_luma_minus8
	w.ue(2)  // bit_depth_chroma_minus8
	w.ue(4)  // log2_max_pic_order_cnt_lsb_minus4
	w.bit(1) // sub layer ordering info
	w.ue(4)
	w.ue(0)
	w.ue(0)
	for i := 0; i < 6; i++ {
		w.ue(0)
	}
	w.bit(0) // scaling list
	w.bit(0) // amp
	w.bit(0) // sao
	w.bit(0) // pcm

	if interRefPicSet {
		w.ue(2)
	} else {
		w.ue(1)
	}
	w.ue(1) // num_negative_pics
	w.ue(0) // num_positive_pics
	w.ue(0) // delta_poc_s0_minus1
	w.bit(1)
	if interRefPicSet {
		w.bit(1) // inter_ref_pic_set_prediction_flag
	}

	w.bit(0) // long term refs
	w.bit(1) // temporal mvp
	w.bit(1) // strong intra smoothing
	w.bit(1) // vui present
	w.bit(0) // aspect ratio
	w.bit(0) // overscan
	w.bit(1) // video signal type
	w.bits(3, 5)
	w.bit(0) // full range
	w.bit(1) // colour description
	w.bits(8, 9)
	w.bits(8, 16)
	w.bits(8, 9)
	w.bit(0) // chroma loc
	return escape(w.rbsp())
}

// hvcC wraps an SPS into an HEVCDecoderConfigurationRecord with 4-byte lengths.
func hvcC(sps []byte) []byte {
	rec := make([]byte, 23)
	rec[0] = 1
	rec[1] = 0x02
	rec[12] = 120
	rec[21] = 0x0F // lengthSizeMinusOne = 3
	rec[22] = 1    // one array
	rec = append(rec, 0x80|33, 0x00, 0x01, byte(len(sps)>>8), byte(len(sps)))
	return append(rec, sps...)
}
