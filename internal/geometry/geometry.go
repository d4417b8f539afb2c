// Package geometry holds the immutable SDI line-layout table: for every
// supported (width, height, frame rate) combination it gives the active/VBI
// line ranges, switching line, payload-ID line, and SMPTE 352 frame-rate
// code.
//
// Ported from original_source/lib/upipe-hbrmt/upipe_hbrmt_common.h
// (sdi_get_offsets, pict_fmts, fmts_data): the original keys the table on
// (fps, active width, active height) and returns a pointer into a static
// array. This package does the same lookup over a Go slice of value types;
// the table itself is a package-level var populated once and never mutated.
package geometry

import "fmt"

// LineRange is an inclusive [Start,End] line range (1-indexed, matching
// the wire numbering SMPTE uses).
type LineRange struct {
	Start, End int
}

// Rational is a frame-rate fraction, e.g. {30000, 1001}.
type Rational struct {
	Num, Den int64
}

func (r Rational) Cmp(o Rational) bool {
	return r.Num == o.Num && r.Den == o.Den
}

// PictureFormat describes one field/frame line layout, shared by every
// frame rate that uses it (e.g. the 25i and 30000/1001i HD formats share
// the 1125-line interlaced layout at different rates).
type PictureFormat struct {
	SD bool

	ActiveWidth, ActiveHeight int

	// FieldOffset is the field-2 start line offset (0 for progressive).
	FieldOffset int

	SwitchingLine int
	PayloadIDLine int

	VBIF1Part1 LineRange
	ActiveF1   LineRange
	VBIF1Part2 LineRange

	VBIF2Part1 LineRange
	ActiveF2   LineRange
	VBIF2Part2 LineRange
}

// Format is one complete (dimensions, rate) geometry record.
type Format struct {
	// Full line width (samples, luma+chroma pair count) and line count.
	Width, Height int

	// ActiveOffset is the sample count between EAV and start of active data.
	ActiveOffset int

	Picture *PictureFormat

	// PSFIdent: 0x0 interlaced, 0x1 segmented frame, 0x3 progressive.
	PSFIdent uint8

	// FrameRateCode is the SMPTE 352 payload-identifier frame-rate code.
	FrameRateCode uint8

	FPS Rational
}

// HD returns whether this format is a high-definition raster.
func (f *Format) HD() bool { return !f.Picture.SD }

var (
	pict1125Interlaced = PictureFormat{
		SD: false, ActiveWidth: 1920, ActiveHeight: 1080, FieldOffset: 562,
		SwitchingLine: 7, PayloadIDLine: 10,
		VBIF1Part1: LineRange{1, 20}, ActiveF1: LineRange{21, 560}, VBIF1Part2: LineRange{561, 563},
		VBIF2Part1: LineRange{564, 583}, ActiveF2: LineRange{584, 1123}, VBIF2Part2: LineRange{1124, 1125},
	}
	pict1125Progressive = PictureFormat{
		SD: false, ActiveWidth: 1920, ActiveHeight: 1080, FieldOffset: 0,
		SwitchingLine: 7, PayloadIDLine: 10,
		VBIF1Part1: LineRange{1, 41}, ActiveF1: LineRange{42, 1121}, VBIF1Part2: LineRange{1122, 1125},
	}
	pictPAL = PictureFormat{
		SD: true, ActiveWidth: 720, ActiveHeight: 576, FieldOffset: 313,
		SwitchingLine: 6, PayloadIDLine: 9,
		VBIF1Part1: LineRange{1, 22}, ActiveF1: LineRange{23, 310}, VBIF1Part2: LineRange{311, 312},
		VBIF2Part1: LineRange{313, 335}, ActiveF2: LineRange{336, 623}, VBIF2Part2: LineRange{624, 625},
	}
)

// Table is the full set of supported SDI geometries, ordered the same way
// original_source's fmts_data is (HD interlaced/progressive pairs by rate,
// then SD).
var Table = []Format{
	{Width: 2640, Height: 1125, ActiveOffset: 720, Picture: &pict1125Interlaced, PSFIdent: 0x0, FrameRateCode: 0x5, FPS: Rational{25, 1}},
	{Width: 2640, Height: 1125, ActiveOffset: 720, Picture: &pict1125Progressive, PSFIdent: 0x3, FrameRateCode: 0x9, FPS: Rational{50, 1}},

	{Width: 2200, Height: 1125, ActiveOffset: 280, Picture: &pict1125Interlaced, PSFIdent: 0x0, FrameRateCode: 0x6, FPS: Rational{30000, 1001}},
	{Width: 2200, Height: 1125, ActiveOffset: 280, Picture: &pict1125Progressive, PSFIdent: 0x3, FrameRateCode: 0xA, FPS: Rational{60000, 1001}},

	{Width: 2750, Height: 1125, ActiveOffset: 830, Picture: &pict1125Interlaced, PSFIdent: 0x3, FrameRateCode: 0x2, FPS: Rational{24000, 1001}},
	{Width: 2750, Height: 1125, ActiveOffset: 830, Picture: &pict1125Interlaced, PSFIdent: 0x3, FrameRateCode: 0x3, FPS: Rational{24, 1}},

	{Width: 864, Height: 625, ActiveOffset: 144, Picture: &pictPAL, PSFIdent: 0x0, FrameRateCode: 0x5, FPS: Rational{25, 1}},
}

// Lookup finds the geometry record matching (activeWidth, activeHeight,
// fps), mirroring original_source's sdi_get_offsets matching order:
// fps first, then active dimensions.
func Lookup(activeWidth, activeHeight int, fps Rational) (*Format, error) {
	for i := range Table {
		f := &Table[i]
		if !f.FPS.Cmp(fps) {
			continue
		}
		if f.Picture.ActiveWidth == activeWidth && f.Picture.ActiveHeight == activeHeight {
			return f, nil
		}
	}
	return nil, fmt.Errorf("geometry: no format for %dx%d @ %d/%d", activeWidth, activeHeight, fps.Num, fps.Den)
}

// LookupByFrateCode finds the geometry record whose SMPTE 352
// FrameRateCode equals frate, together with an interlaced/progressive
// hint. The HBRMT depacketizer does not call it; it maps the wire FRATE
// through frateToFPS and Lookup.
func LookupByFrateCode(frate uint8, progressive bool) (*Format, error) {
	for i := range Table {
		f := &Table[i]
		if f.FrameRateCode != frate {
			continue
		}
		isProg := f.PSFIdent == 0x3
		if isProg == progressive {
			return f, nil
		}
	}
	return nil, fmt.Errorf("geometry: no format for frate code 0x%x progressive=%v", frate, progressive)
}
