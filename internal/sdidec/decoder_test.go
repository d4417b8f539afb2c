package sdidec

import (
	"testing"

	"github.com/mediabridge/sdiip/internal/geometry"
	"github.com/mediabridge/sdiip/internal/sdiline"
)

// buildBlankFrame synthesizes a minimal valid HD frame: every line carries
// EAV, line-number words and SAV matching its position (no CRC words are
// written), active lines carry a flat mid-gray payload, and no ANC packets
// are present.
func buildBlankFrame(t *testing.T, f *geometry.Format) []byte {
	t.Helper()
	raw := make([]uint16, f.Height*f.Width*2)
	lineWords := f.Width * 2

	for ln := 1; ln <= f.Height; ln++ {
		line := raw[(ln-1)*lineWords : ln*lineWords]
		field, vbi := lineField(f, ln)

		sdiline.WriteSAV(line[f.ActiveOffset*2-sdiline.MarkerLen(true):f.ActiveOffset*2], true, field, vbi)

		eav := line[:sdiline.MarkerLen(true)]
		sdiline.WriteEAV(eav, true, field, vbi)

		w0, w1 := sdiline.EncodeLineNumber(uint16(ln))
		line[sdiline.MarkerLen(true)] = w0
		line[sdiline.MarkerLen(true)+1] = w1

		if !vbi {
			start := f.ActiveOffset * 2
			for i := start; i < start+f.Picture.ActiveWidth*2; i += 2 {
				line[i] = 0x200
				line[i+1] = 0x040
			}
		}
	}

	out := make([]byte, len(raw)*2)
	for i, w := range raw {
		out[i*2] = byte(w)
		out[i*2+1] = byte(w >> 8)
	}
	return out
}

func lineField(f *geometry.Format, ln int) (field int, vbi bool) {
	p := f.Picture
	switch {
	case ln >= p.VBIF1Part1.Start && ln <= p.VBIF1Part1.End:
		return 0, true
	case ln >= p.ActiveF1.Start && ln <= p.ActiveF1.End:
		return 0, false
	case ln >= p.VBIF1Part2.Start && ln <= p.VBIF1Part2.End:
		return 0, true
	case ln >= p.VBIF2Part1.Start && ln <= p.VBIF2Part1.End:
		return 1, true
	case ln >= p.ActiveF2.Start && ln <= p.ActiveF2.End:
		return 1, false
	default:
		return 1, true
	}
}

func TestDecodeFrameProducesFullActivePicture(t *testing.T) {
	f, err := geometry.Lookup(1920, 1080, geometry.Rational{25, 1})
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	raw := buildBlankFrame(t, f)

	dec := NewDecoder(f, OutputPlanar8, nil)
	res, err := dec.DecodeFrame(raw)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if res.Picture == nil {
		t.Fatal("expected a picture FrameUnit")
	}
	wantLen := f.Picture.ActiveWidth * f.Picture.ActiveHeight
	if len(res.Picture.Planes) == 0 || len(res.Picture.Planes[0].Data) != wantLen {
		t.Fatalf("Y plane size = %d, want %d", len(res.Picture.Planes[0].Data), wantLen)
	}
	for _, b := range res.Picture.Planes[0].Data {
		if b != 0x10 { // 0x040 >> 2
			t.Fatalf("expected flat luma plane, got byte %#x", b)
		}
	}
}

func TestDecodeFrameRejectsShortInput(t *testing.T) {
	f, _ := geometry.Lookup(1920, 1080, geometry.Rational{25, 1})
	dec := NewDecoder(f, OutputV210, nil)
	if _, err := dec.DecodeFrame(make([]byte, 4)); err == nil {
		t.Fatal("expected error on short input")
	}
}
