package scte35

import "github.com/mediabridge/sdiip/internal/media"

// EventTiming carries the presentation/system timestamps associated with a
// splice_info_section as it flows through the merge stage, in 27MHz ticks.
type EventTiming struct {
	PTSOrig int64
	PTSSys  int64
	HasSys  bool
}

// mergedEvent is one splice command tracked by Merger, keyed by command
// type plus either its splice_event_id (SpliceInsert) or its PTSOrig
// (TimeSignal).
type mergedEvent struct {
	Section *SpliceInfoSection
	Timing  EventTiming
}

func eventKey(cmdType uint32, sis *SpliceInfoSection, timing EventTiming) (uint64, bool) {
	switch cmdType {
	case SpliceInsertType:
		si, ok := sis.SpliceCommand.(*SpliceInsert)
		if !ok {
			return 0, false
		}
		return uint64(si.SpliceEventID), true
	case TimeSignalType:
		return uint64(timing.PTSOrig), true
	default:
		return 0, false
	}
}

// Merger tracks the set of live SCTE-35 events seen on an input, merging
// updates to the same event and expiring them once their presentation
// time has passed.
//
// Grounded on upipe_ts_scte35_merge.c: Push mirrors
// upipe_ts_scte35m_input/upipe_ts_scte35m_find_event, Sweep mirrors
// upipe_ts_scte35m_update's auto_return rearm-or-drop logic.
type Merger struct {
	events []*mergedEvent
}

func NewMerger() *Merger {
	return &Merger{}
}

// Push records a newly received splice_info_section, returning the
// previous section for the same event if one exists. SpliceNull commands
// are never matched against prior state — each push is independent,
// matching find_event's switch, which has no SCTE35_NULL_COMMAND case.
func (m *Merger) Push(sis *SpliceInfoSection, timing EventTiming) (prev *SpliceInfoSection) {
	if sis == nil || sis.SpliceCommand == nil {
		return nil
	}
	cmdType := sis.SpliceCommand.Type()
	key, matchable := eventKey(cmdType, sis, timing)

	if matchable {
		for i, ev := range m.events {
			if ev.Section.SpliceCommand == nil || ev.Section.SpliceCommand.Type() != cmdType {
				continue
			}
			evKey, ok := eventKey(cmdType, ev.Section, ev.Timing)
			if !ok || evKey != key {
				continue
			}
			prev = ev.Section
			if len(sis.SpliceDescriptors) == 0 {
				sis.SpliceDescriptors = ev.Section.SpliceDescriptors
			}
			m.events[i] = &mergedEvent{Section: sis, Timing: timing}
			return prev
		}
	}

	m.events = append(m.events, &mergedEvent{Section: sis, Timing: timing})
	return nil
}

// Sweep removes every event whose presentation time has passed as of now
// (27MHz ticks) and returns their final sections. A SpliceInsert command
// with a break_duration carrying auto_return is not dropped: its
// out_of_network polarity is flipped and it is rearmed for
// break_duration ticks, matching the "back cover" splice upipe emits
// automatically at the end of a break.
func (m *Merger) Sweep(now int64) []*SpliceInfoSection {
	var expired []*SpliceInfoSection
	kept := m.events[:0]
	for _, ev := range m.events {
		if !ev.Timing.HasSys || ev.Timing.PTSSys >= now {
			kept = append(kept, ev)
			continue
		}

		expired = append(expired, ev.Section)

		si, ok := ev.Section.SpliceCommand.(*SpliceInsert)
		if ok && si.BreakDuration != nil && si.BreakDuration.AutoReturn {
			flipped := *si
			flipped.OutOfNetworkIndicator = !si.OutOfNetworkIndicator
			flipped.BreakDuration = nil
			rearmed := *ev.Section
			rearmed.SpliceCommand = &flipped
			ev.Section = &rearmed
			ev.Timing.PTSSys = now + int64(si.BreakDuration.Duration)*media.UClockFreq/90000
			kept = append(kept, ev)
		}
	}
	m.events = kept
	return expired
}

// NextExpiry returns the 27MHz tick of the earliest pending expiry and
// true, or false if no tracked event carries one.
func (m *Merger) NextExpiry() (int64, bool) {
	var earliest int64
	found := false
	for _, ev := range m.events {
		if !ev.Timing.HasSys {
			continue
		}
		if !found || ev.Timing.PTSSys < earliest {
			earliest = ev.Timing.PTSSys
			found = true
		}
	}
	return earliest, found
}
