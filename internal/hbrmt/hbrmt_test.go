package hbrmt

import (
	"bytes"
	"testing"

	"github.com/mediabridge/sdiip/internal/geometry"
)

func TestPacketizeThenDepacketizeRoundTripsFrame(t *testing.T) {
	f, err := geometry.Lookup(1920, 1080, geometry.Rational{Num: 25, Den: 1})
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}

	payload := make([]byte, frameByteLen(f))
	for i := range payload {
		payload[i] = byte(i)
	}

	p := NewPacketizer(f, 0x1234)
	pkts, err := p.PacketizeFrame(payload)
	if err != nil {
		t.Fatalf("PacketizeFrame: %v", err)
	}
	if len(pkts) == 0 {
		t.Fatal("expected at least one packet")
	}
	for i, pkt := range pkts {
		wantMarker := i == len(pkts)-1
		rh := decodeRTPHeader(pkt)
		if rh.Marker != wantMarker {
			t.Fatalf("packet %d marker = %v, want %v", i, rh.Marker, wantMarker)
		}
		if rh.Sequence != uint16(i) {
			t.Fatalf("packet %d sequence = %d, want %d", i, rh.Sequence, i)
		}
	}

	d := NewDepacketizer(nil)
	var gotFrame []byte
	var gotFlow bool
	for _, pkt := range pkts {
		res, err := d.PushPacket(pkt)
		if err != nil {
			t.Fatalf("PushPacket: %v", err)
		}
		if res.Flow != nil {
			gotFlow = true
		}
		if res.Frame != nil {
			gotFrame = res.Frame.Block
		}
	}
	if !gotFlow {
		t.Fatal("expected a flow definition on first packet")
	}
	if gotFrame == nil {
		t.Fatal("expected a completed frame on the marker packet")
	}
	if !bytes.Equal(gotFrame, payload) {
		t.Fatal("reassembled frame payload does not match input")
	}
}

func TestDepacketizerRejectsShortPacket(t *testing.T) {
	d := NewDepacketizer(nil)
	if _, err := d.PushPacket(make([]byte, 4)); err == nil {
		t.Fatal("expected an error for an undersized packet")
	}
}

func TestDepacketizerResyncsAfterSequenceGap(t *testing.T) {
	f, err := geometry.Lookup(1920, 1080, geometry.Rational{Num: 25, Den: 1})
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	payload := make([]byte, frameByteLen(f))

	p := NewPacketizer(f, 1)
	frame1, _ := p.PacketizeFrame(payload)
	frame2, _ := p.PacketizeFrame(payload)
	if len(frame2) < 2 {
		t.Fatalf("expected frame2 to need more than one packet, got %d", len(frame2))
	}

	d := NewDepacketizer(nil)
	for _, pkt := range frame1 {
		if _, err := d.PushPacket(pkt); err != nil {
			t.Fatalf("PushPacket: %v", err)
		}
	}

	// Drop frame2's first packet to force a sequence gap, then feed the
	// rest: every packet up to and including the marker must be dropped
	// silently (no frame), and the marker clears the discontinuity so the
	// next frame reassembles cleanly.
	for i, pkt := range frame2 {
		if i == 0 {
			continue
		}
		res, err := d.PushPacket(pkt)
		if err != nil {
			t.Fatalf("PushPacket: %v", err)
		}
		if res.Frame != nil {
			t.Fatalf("packet %d: expected no completed frame during resync", i)
		}
	}
	if d.discontinuity {
		t.Fatal("expected discontinuity to clear on frame2's marker packet")
	}

	frame3, _ := p.PacketizeFrame(payload)
	var gotFrame []byte
	for _, pkt := range frame3 {
		res, err := d.PushPacket(pkt)
		if err != nil {
			t.Fatalf("PushPacket: %v", err)
		}
		if res.Frame != nil {
			gotFrame = res.Frame.Block
		}
	}
	if !bytes.Equal(gotFrame, payload) {
		t.Fatal("expected frame3 to reassemble cleanly after resync")
	}
}
