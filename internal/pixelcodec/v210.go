package pixelcodec

import "encoding/binary"

// V210BlockSize is the byte size of one V210 block, carrying 36 UYVY16
// samples (18 pixels).
const V210BlockSize = 48

// clip10 saturates a 10-bit luma/chroma sample to the active range
// [4,1019].
func clip10(v uint16) uint16 {
	if v < 4 {
		return 4
	}
	if v > 1019 {
		return 1019
	}
	return v
}

func writeV210Word(dst []byte, a, b, c uint16) {
	val := uint32(clip10(a)) | uint32(clip10(b))<<10 | uint32(clip10(c))<<20
	binary.LittleEndian.PutUint32(dst, val)
}

func readV210Word(src []byte) (a, b, c uint16) {
	val := binary.LittleEndian.Uint32(src)
	a = uint16(val & 0x3ff)
	b = uint16((val >> 10) & 0x3ff)
	c = uint16((val >> 20) & 0x3ff)
	return
}

// UYVYToV210 packs UYVY16 samples (in U,Y,V,Y macropixel order) into V210
// blocks, 12 samples -> 16 bytes at a time. Ported structurally from
// original_source/lib/upipe-v210/v210enc.c upipe_planar_to_v210_10_c,
// adapted from separate planar inputs to a single interleaved UYVY source.
func UYVYToV210(uyvy []uint16, dst []byte) {
	di := 0
	for i := 0; i+11 < len(uyvy); i += 12 {
		u0, y0, v0, y1 := uyvy[i+0], uyvy[i+1], uyvy[i+2], uyvy[i+3]
		u1, y2, v1, y3 := uyvy[i+4], uyvy[i+5], uyvy[i+6], uyvy[i+7]
		u2, y4, v2, y5 := uyvy[i+8], uyvy[i+9], uyvy[i+10], uyvy[i+11]

		writeV210Word(dst[di+0:], u0, y0, v0)
		writeV210Word(dst[di+4:], y1, u1, y2)
		writeV210Word(dst[di+8:], v1, y3, u2)
		writeV210Word(dst[di+12:], y4, v2, y5)
		di += 16
	}
}

// V210ToUYVY is the inverse of UYVYToV210.
func V210ToUYVY(src []byte, uyvy []uint16) {
	ui := 0
	for i := 0; i+15 < len(src) && ui+11 < len(uyvy); i += 16 {
		u0, y0, v0 := readV210Word(src[i+0:])
		y1, u1, y2 := readV210Word(src[i+4:])
		v1, y3, u2 := readV210Word(src[i+8:])
		y4, v2, y5 := readV210Word(src[i+12:])

		uyvy[ui+0], uyvy[ui+1], uyvy[ui+2], uyvy[ui+3] = u0, y0, v0, y1
		uyvy[ui+4], uyvy[ui+5], uyvy[ui+6], uyvy[ui+7] = u1, y2, v1, y3
		uyvy[ui+8], uyvy[ui+9], uyvy[ui+10], uyvy[ui+11] = u2, y4, v2, y5
		ui += 12
	}
}
