package rfc4175

import (
	"testing"

	"github.com/mediabridge/sdiip/internal/geometry"
	"github.com/mediabridge/sdiip/internal/media"
)

func flatPlanar8Picture(w, h int) *media.FrameUnit {
	y := make([]byte, w*h)
	u := make([]byte, w*h/2)
	v := make([]byte, w*h/2)
	for i := range y {
		y[i] = 0x22
	}
	for i := range u {
		u[i], v[i] = 0x80, 0x80
	}
	return media.NewPicture([]media.Plane{{Data: y, Stride: w}, {Data: u, Stride: w / 2}, {Data: v, Stride: w / 2}})
}

func TestPacketizeThenDepacketizeRoundTripsPicture(t *testing.T) {
	f, err := geometry.Lookup(1920, 1080, geometry.Rational{Num: 25, Den: 1})
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}

	pic := flatPlanar8Picture(f.Picture.ActiveWidth, f.Picture.ActiveHeight)
	p := NewPacketizer(f, InputPlanar8, 0xabcd)
	pkts := p.PacketizeFrame(pic)
	if len(pkts) == 0 {
		t.Fatal("expected at least one packet")
	}

	d := NewDepacketizer(f, OutputPlanar8, nil)
	var result *Result
	for _, pkt := range pkts {
		res, err := d.PushPacket(pkt)
		if err != nil {
			t.Fatalf("PushPacket: %v", err)
		}
		if res != nil {
			result = res
		}
	}
	if result == nil {
		t.Fatal("expected a completed picture on the last packet")
	}
	for i, b := range result.Picture.Planes[0].Data {
		if b != 0x22 {
			t.Fatalf("luma[%d] = %#x, want 0x22", i, b)
		}
	}
}

func TestDepacketizerRejectsMisalignedLineLength(t *testing.T) {
	f, err := geometry.Lookup(1920, 1080, geometry.Rational{Num: 25, Den: 1})
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	d := NewDepacketizer(f, OutputPlanar8, nil)

	pkt := make([]byte, rtpHeaderLen+extSeqLen+lineHeaderLen+16)
	lh := lineHeader{Length: 16, Field: 0, LineNumber: 1, Offset: 0}
	lh.encode(pkt[rtpHeaderLen+extSeqLen:])

	if _, err := d.PushPacket(pkt); err == nil {
		t.Fatal("expected an error for a non-pgroup-aligned line length")
	}
}
