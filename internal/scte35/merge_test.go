package scte35

import "testing"

func TestMergerPushReplacesSameSpliceInsertEvent(t *testing.T) {
	m := NewMerger()

	first := &SpliceInfoSection{SpliceCommand: &SpliceInsert{SpliceEventID: 42, OutOfNetworkIndicator: true}}
	if prev := m.Push(first, EventTiming{}); prev != nil {
		t.Fatalf("expected no previous event, got %v", prev)
	}

	second := &SpliceInfoSection{SpliceCommand: &SpliceInsert{SpliceEventID: 42, OutOfNetworkIndicator: false}}
	prev := m.Push(second, EventTiming{})
	if prev != first {
		t.Fatalf("expected the first section back, got %v", prev)
	}
	if len(m.events) != 1 {
		t.Fatalf("expected exactly one tracked event, got %d", len(m.events))
	}
}

func TestMergerPushMatchesTimeSignalsBySharedPTSOrig(t *testing.T) {
	m := NewMerger()

	a := &SpliceInfoSection{SpliceCommand: &TimeSignal{}}
	m.Push(a, EventTiming{PTSOrig: 900000})

	b := &SpliceInfoSection{SpliceCommand: &TimeSignal{}}
	prev := m.Push(b, EventTiming{PTSOrig: 900000})
	if prev != a {
		t.Fatalf("expected time signals sharing PTSOrig to match, got %v", prev)
	}

	c := &SpliceInfoSection{SpliceCommand: &TimeSignal{}}
	if prev := m.Push(c, EventTiming{PTSOrig: 1800000}); prev != nil {
		t.Fatalf("expected a distinct PTSOrig to start a new event, got %v", prev)
	}
	if len(m.events) != 2 {
		t.Fatalf("expected 2 tracked events, got %d", len(m.events))
	}
}

func TestMergerPushNeverMatchesSpliceNull(t *testing.T) {
	m := NewMerger()
	m.Push(&SpliceInfoSection{SpliceCommand: &SpliceNull{}}, EventTiming{})
	prev := m.Push(&SpliceInfoSection{SpliceCommand: &SpliceNull{}}, EventTiming{})
	if prev != nil {
		t.Fatalf("expected splice_null never to match a previous event, got %v", prev)
	}
	if len(m.events) != 2 {
		t.Fatalf("expected both nulls tracked independently, got %d", len(m.events))
	}
}

func TestMergerSweepDropsExpiredEventsWithoutAutoReturn(t *testing.T) {
	m := NewMerger()
	sis := &SpliceInfoSection{SpliceCommand: &SpliceInsert{SpliceEventID: 1, OutOfNetworkIndicator: true}}
	m.Push(sis, EventTiming{PTSSys: 1000, HasSys: true})

	expired := m.Sweep(2000)
	if len(expired) != 1 || expired[0] != sis {
		t.Fatalf("expected the event to expire, got %v", expired)
	}
	if len(m.events) != 0 {
		t.Fatalf("expected no events left after expiry, got %d", len(m.events))
	}
}

func TestMergerSweepRearmsAutoReturnEvents(t *testing.T) {
	m := NewMerger()
	si := &SpliceInsert{
		SpliceEventID:         7,
		OutOfNetworkIndicator: true,
		BreakDuration:         &BreakDuration{AutoReturn: true, Duration: 90 * 90000},
	}
	sis := &SpliceInfoSection{SpliceCommand: si}
	m.Push(sis, EventTiming{PTSSys: 1000, HasSys: true})

	expired := m.Sweep(2000)
	if len(expired) != 1 {
		t.Fatalf("expected one expiry, got %d", len(expired))
	}
	if expired[0].SpliceCommand.(*SpliceInsert).OutOfNetworkIndicator != true {
		t.Fatal("expected the expired section to report the original (break-start) polarity")
	}

	if len(m.events) != 1 {
		t.Fatalf("expected the auto_return event to be rearmed rather than dropped, got %d events", len(m.events))
	}
	rearmed := m.events[0].Section.SpliceCommand.(*SpliceInsert)
	if rearmed.OutOfNetworkIndicator != false {
		t.Fatal("expected the rearmed event's polarity to flip for the back cover")
	}
	if rearmed.BreakDuration != nil {
		t.Fatal("expected the rearmed event to carry no further break_duration")
	}
}

func TestMergerNextExpiry(t *testing.T) {
	m := NewMerger()
	if _, ok := m.NextExpiry(); ok {
		t.Fatal("expected no pending expiry on an empty merger")
	}

	m.Push(&SpliceInfoSection{SpliceCommand: &SpliceInsert{SpliceEventID: 1}}, EventTiming{PTSSys: 5000, HasSys: true})
	m.Push(&SpliceInfoSection{SpliceCommand: &SpliceInsert{SpliceEventID: 2}}, EventTiming{PTSSys: 1000, HasSys: true})
	m.Push(&SpliceInfoSection{SpliceCommand: &SpliceInsert{SpliceEventID: 3}}, EventTiming{})

	ts, ok := m.NextExpiry()
	if !ok || ts != 1000 {
		t.Fatalf("expected earliest expiry 1000, got %d (ok=%v)", ts, ok)
	}
}
