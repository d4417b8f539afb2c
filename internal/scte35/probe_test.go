package scte35

import "testing"

func TestProbeClassifiesExpiredEventsByCommandType(t *testing.T) {
	m := NewMerger()
	p := NewProbe(m)

	m.Push(&SpliceInfoSection{SpliceCommand: &SpliceNull{}}, EventTiming{PTSSys: 100, HasSys: true})
	m.Push(&SpliceInfoSection{SpliceCommand: &SpliceInsert{SpliceEventID: 1}}, EventTiming{PTSSys: 100, HasSys: true})
	pts := uint64(900000)
	m.Push(&SpliceInfoSection{SpliceCommand: &TimeSignal{SpliceTime: SpliceTime{PTSTime: &pts}}}, EventTiming{PTSOrig: 900000, PTSSys: 100, HasSys: true})

	events := p.Observe(200)
	if len(events) != 3 {
		t.Fatalf("expected 3 expired events, got %d", len(events))
	}

	seen := map[EventKind]int{}
	for _, ev := range events {
		seen[ev.Kind]++
	}
	if seen[EventNull] != 1 || seen[EventSplice] != 1 || seen[EventSignal] != 1 {
		t.Fatalf("expected one of each event kind, got %v", seen)
	}
}

func TestProbeReportsNothingBeforeExpiry(t *testing.T) {
	m := NewMerger()
	p := NewProbe(m)
	m.Push(&SpliceInfoSection{SpliceCommand: &SpliceInsert{SpliceEventID: 1}}, EventTiming{PTSSys: 1000, HasSys: true})

	if events := p.Observe(0); len(events) != 0 {
		t.Fatalf("expected no events before the presentation time passes, got %d", len(events))
	}
}

func TestProbeReportsAutoReturnBreakStartThenBackCover(t *testing.T) {
	m := NewMerger()
	p := NewProbe(m)

	si := &SpliceInsert{
		SpliceEventID:         5,
		OutOfNetworkIndicator: true,
		BreakDuration:         &BreakDuration{AutoReturn: true, Duration: 90 * 90000},
	}
	m.Push(&SpliceInfoSection{SpliceCommand: si}, EventTiming{PTSSys: 1000, HasSys: true})

	first := p.Observe(2000)
	if len(first) != 1 || first[0].Kind != EventSplice {
		t.Fatalf("expected one splice event, got %+v", first)
	}
	if !first[0].Section.SpliceCommand.(*SpliceInsert).OutOfNetworkIndicator {
		t.Fatal("expected the break-start polarity on the first expiry")
	}

	rearmTick := int64(2000) + int64(90*90000)*27_000_000/90000
	second := p.Observe(rearmTick + 1)
	if len(second) != 1 || second[0].Kind != EventSplice {
		t.Fatalf("expected the rearmed back cover to expire next, got %+v", second)
	}
	if second[0].Section.SpliceCommand.(*SpliceInsert).OutOfNetworkIndicator {
		t.Fatal("expected the back cover's polarity flipped to false")
	}
}
