// Package sdiline implements per-line SDI assembly: EAV/SAV markers and
// HANC/VANC ancillary-data packets.
package sdiline

// Field/VBI F/V/H control words, ported from
// original_source/lib/upipe-hbrmt/upipe_sdi_enc.c:
//
//	sav_fvh_cword[field][vbi], eav_fvh_cword[field][vbi]
var (
	savFVH = [2][2]uint16{{0x200, 0x2ac}, {0x31c, 0x3b0}}
	eavFVH = [2][2]uint16{{0x274, 0x2d8}, {0x368, 0x3c4}}
)

// SAVWord returns the SAV F/V/H control word for the given field (0 or 1)
// and blanking state.
func SAVWord(field int, vbi bool) uint16 {
	return savFVH[field][boolIdx(vbi)]
}

// EAVWord returns the EAV F/V/H control word for the given field (0 or 1)
// and blanking state.
func EAVWord(field int, vbi bool) uint16 {
	return eavFVH[field][boolIdx(vbi)]
}

func boolIdx(b bool) int {
	if b {
		return 1
	}
	return 0
}

// FVHField decodes which field an observed EAV/SAV control word belongs to;
// ok is false if the word matches no table entry.
func FVHField(word uint16) (field int, vbi bool, isEAV bool, ok bool) {
	for f := 0; f < 2; f++ {
		for v := 0; v < 2; v++ {
			if savFVH[f][v] == word {
				return f, v == 1, false, true
			}
			if eavFVH[f][v] == word {
				return f, v == 1, true, true
			}
		}
	}
	return 0, false, false, false
}

// WriteEAV writes the 4-sample (SD) or 8-sample (HD) EAV sequence at
// dst[0:]: 0x3ff,[0x3ff,]0x000,0x000,[0x000,0x000,]fvh[,fvh]
func WriteEAV(dst []uint16, hd bool, field int, vbi bool) {
	writeSAVEAV(dst, hd, EAVWord(field, vbi))
}

// WriteSAV writes the SAV sequence analogous to WriteEAV.
func WriteSAV(dst []uint16, hd bool, field int, vbi bool) {
	writeSAVEAV(dst, hd, SAVWord(field, vbi))
}

func writeSAVEAV(dst []uint16, hd bool, fvh uint16) {
	if hd {
		dst[0], dst[1] = 0x3ff, 0x3ff
		dst[2], dst[3] = 0x000, 0x000
		dst[4], dst[5] = 0x000, 0x000
		dst[6], dst[7] = fvh, fvh
	} else {
		dst[0] = 0x3ff
		dst[1] = 0x000
		dst[2] = 0x000
		dst[3] = fvh
	}
}

// MarkerLen returns the EAV/SAV marker length in samples for the given
// raster (HD: 8 samples incl. doubled CRC-adjacent words; SD: 4 samples).
func MarkerLen(hd bool) int {
	if hd {
		return 8
	}
	return 4
}
