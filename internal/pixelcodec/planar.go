package pixelcodec

// clip8 saturates an 8-bit sample to the active range [1,254].
func clip8(v uint8) uint8 {
	if v < 1 {
		return 1
	}
	if v > 254 {
		return 254
	}
	return v
}

// UYVYToPlanar8 deinterleaves UYVY16 (U,Y,V,Y macropixel order) samples
// into 8-bit planar Y/U/V, each Y sample and chroma sample saturated to
// [1,254]. Ported structurally from
// original_source/lib/upipe-hbrmt/sdidec.h upipe_uyvy_to_planar_8_c (which
// takes the same interleaved source and produces 3 separate plane outputs).
func UYVYToPlanar8(uyvy []uint16, y, u, v []uint8) {
	yi, ci := 0, 0
	for i := 0; i+3 < len(uyvy); i += 4 {
		u[ci] = clip8(uint8(uyvy[i+0] >> 2))
		y[yi] = clip8(uint8(uyvy[i+1] >> 2))
		v[ci] = clip8(uint8(uyvy[i+2] >> 2))
		y[yi+1] = clip8(uint8(uyvy[i+3] >> 2))
		yi += 2
		ci++
	}
}

// Planar8ToUYVY is the inverse of UYVYToPlanar8, widening 8-bit samples to
// 10-bit by a 2-bit left shift.
func Planar8ToUYVY(y, u, v []uint8, uyvy []uint16) {
	yi, ci := 0, 0
	for i := 0; i+3 < len(uyvy); i += 4 {
		uyvy[i+0] = uint16(u[ci]) << 2
		uyvy[i+1] = uint16(y[yi]) << 2
		uyvy[i+2] = uint16(v[ci]) << 2
		uyvy[i+3] = uint16(y[yi+1]) << 2
		yi += 2
		ci++
	}
}

// UYVYToPlanar10 deinterleaves UYVY16 samples into 10-bit planar Y/U/V,
// saturated to [4,1019].
func UYVYToPlanar10(uyvy []uint16, y, u, v []uint16) {
	yi, ci := 0, 0
	for i := 0; i+3 < len(uyvy); i += 4 {
		u[ci] = clip10(uyvy[i+0])
		y[yi] = clip10(uyvy[i+1])
		v[ci] = clip10(uyvy[i+2])
		y[yi+1] = clip10(uyvy[i+3])
		yi += 2
		ci++
	}
}

// Planar10ToUYVY is the inverse of UYVYToPlanar10.
func Planar10ToUYVY(y, u, v []uint16, uyvy []uint16) {
	yi, ci := 0, 0
	for i := 0; i+3 < len(uyvy); i += 4 {
		uyvy[i+0] = u[ci]
		uyvy[i+1] = y[yi]
		uyvy[i+2] = v[ci]
		uyvy[i+3] = y[yi+1]
		yi += 2
		ci++
	}
}

// SDI10ToPlanar8 and SDI10ToPlanar10 compose SDI10ToUYVY with the
// planar deinterleave, used on the RFC 4175 receive path.
func SDI10ToPlanar8(src []byte, y, u, v []uint8, scratch []uint16) {
	SDI10ToUYVY(src, scratch)
	UYVYToPlanar8(scratch, y, u, v)
}

func SDI10ToPlanar10(src []byte, y, u, v []uint16, scratch []uint16) {
	SDI10ToUYVY(src, scratch)
	UYVYToPlanar10(scratch, y, u, v)
}

// SDI10ToV210 composes SDI10ToUYVY with the V210 pack, used on the RFC
// 4175 receive path.
func SDI10ToV210(src []byte, dst []byte, scratch []uint16) {
	SDI10ToUYVY(src, scratch)
	UYVYToV210(scratch, dst)
}
