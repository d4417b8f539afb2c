// Package pixelcodec implements the total, side-effect-free pixel
// conversions between wire and memory pixel formats: SDI10<->UYVY16,
// V210<->UYVY16, Planar8/10<->UYVY16, plus the SDI CRC (crc.go).
//
// Every conversion has a scalar reference here, dispatched through a
// SIMD-selectable function table (see dispatch.go); no assembly kernel
// exists in the example pack to ground a Go equivalent of, so only the
// scalar path is registered — see DESIGN.md.
package pixelcodec

// SDI10ToUYVY unpacks a byte-packed 10-bit SDI buffer into 16-bit
// little-endian UYVY samples: every group of 5 bytes decodes to 4 10-bit
// samples. Ported from
// original_source/lib/upipe-hbrmt/sdidec.c upipe_sdi_unpack_c.
func SDI10ToUYVY(src []byte, dst []uint16) {
	pixels := len(src) * 8 / 10
	if pixels > len(dst) {
		pixels = len(dst)
	}
	si := 0
	for i := 0; i+3 < pixels; i += 4 {
		a := src[si+0]
		b := src[si+1]
		c := src[si+2]
		d := src[si+3]
		e := src[si+4]
		si += 5

		dst[i+0] = uint16(a)<<2 | uint16(b>>6)&0x03
		dst[i+1] = uint16(b&0x3f)<<4 | uint16(c>>4)&0x0f
		dst[i+2] = uint16(c&0x0f)<<6 | uint16(d>>2)&0x3f
		dst[i+3] = uint16(d&0x03)<<8 | uint16(e)
	}
}

// UYVYToSDI10 packs 16-bit UYVY (10 bits significant) samples into
// byte-packed transport order: the exact inverse of SDI10ToUYVY.
func UYVYToSDI10(src []uint16, dst []byte) {
	di := 0
	for i := 0; i+3 < len(src); i += 4 {
		y0 := src[i+0] & 0x3ff
		y1 := src[i+1] & 0x3ff
		y2 := src[i+2] & 0x3ff
		y3 := src[i+3] & 0x3ff

		a := byte(y0 >> 2)
		b := byte((y0&0x3)<<6 | y1>>4)
		c := byte((y1&0xf)<<4 | y2>>6)
		d := byte((y2&0x3f)<<2 | y3>>8)
		e := byte(y3 & 0xff)

		dst[di+0], dst[di+1], dst[di+2], dst[di+3], dst[di+4] = a, b, c, d, e
		di += 5
	}
}

// UYVYToSDI10Dual packs src into dst1 and then copies the packed bytes
// into dst2, for a sender writing identical payload to both NICs of a
// redundant pair.
func UYVYToSDI10Dual(src []uint16, dst1, dst2 []byte) {
	UYVYToSDI10(src, dst1)
	copy(dst2, dst1[:len(dst1)])
}
