package scte35

// generatorKey identifies one aggregated message within a Generator: a
// SpliceInsert is keyed by its event id, a TimeSignal's segmentation
// descriptor by its own event id (so several descriptors sharing one
// presentation time still aggregate into a single emitted section).
type generatorKey struct {
	cmdType uint32
	id      uint64
}

type generatorMessage struct {
	key     generatorKey
	section *SpliceInfoSection
	ptsProg int64
	hasPTS  bool
	crSys   int64
	sent    bool
}

// Generator aggregates splice commands supplied via Input into
// splice_info_sections emitted at a bounded rate, merging TimeSignal
// messages that share a presentation time into one section's descriptor
// list and falling back to a cached SpliceNull keepalive when nothing
// else is due.
//
// Grounded on upipe_ts_scte35_generator.c: Input mirrors
// upipe_ts_scte35g_input_{splice_insert,time_signal}, Prepare mirrors
// upipe_ts_scte35g_prepare.
type Generator struct {
	// Interval is the minimum gap, in 27MHz ticks, between generated
	// sections. Zero disables generation altogether: Prepare then returns
	// nil and only drops messages whose deadline has passed, so they
	// expire unsent.
	Interval int64

	lastCRSys   int64
	nullSection *SpliceInfoSection
	messages    []*generatorMessage
}

func NewGenerator(interval int64) *Generator {
	return &Generator{
		Interval:    interval,
		nullSection: &SpliceInfoSection{SpliceCommand: &SpliceNull{}},
	}
}

func (g *Generator) find(key generatorKey) *generatorMessage {
	for _, m := range g.messages {
		if m.key == key {
			return m
		}
	}
	return nil
}

// Input records one arriving splice command for later aggregation. crSys
// is the deadline, in 27MHz ticks, past which the message is dropped
// once sent. With a nonzero Interval, a message still unsent at its
// deadline is sent once by the next Prepare and then dropped; with a zero
// Interval it is dropped unsent.
func (g *Generator) Input(sis *SpliceInfoSection, crSys int64) {
	if sis == nil || sis.SpliceCommand == nil {
		return
	}
	switch cmd := sis.SpliceCommand.(type) {
	case *SpliceNull:
		// Null sections are generated internally as a keepalive fallback.
	case *SpliceInsert:
		key := generatorKey{SpliceInsertType, uint64(cmd.SpliceEventID)}
		g.upsert(key, sis, 0, false, crSys)
	case *TimeSignal:
		var pts int64
		if cmd.SpliceTime.PTSTime != nil {
			pts = int64(*cmd.SpliceTime.PTSTime)
		}
		for _, desc := range sis.SpliceDescriptors {
			sd, ok := desc.(*SegmentationDescriptor)
			if !ok {
				continue
			}
			key := generatorKey{TimeSignalType, uint64(sd.SegmentationEventID)}
			single := *sis
			single.SpliceDescriptors = SpliceDescriptors{sd}
			g.upsert(key, &single, pts, true, crSys)
		}
	}
}

func (g *Generator) upsert(key generatorKey, sis *SpliceInfoSection, pts int64, hasPTS bool, crSys int64) {
	if existing := g.find(key); existing != nil {
		existing.section = sis
		existing.ptsProg = pts
		existing.hasPTS = hasPTS
		existing.crSys = crSys
		existing.sent = false
		g.lastCRSys = 0 // force sending on the next Prepare
		return
	}
	g.messages = append(g.messages, &generatorMessage{
		key: key, section: sis, ptsProg: pts, hasPTS: hasPTS, crSys: crSys,
	})
	g.lastCRSys = 0
}

// Prepare returns the sections due to be emitted as of now (27MHz ticks).
// It should be called once per output opportunity. TimeSignal messages
// sharing a presentation time are merged into a single returned section;
// if nothing is due, the cached SpliceNull keepalive is returned instead
// so the output never falls silent for longer than Interval.
func (g *Generator) Prepare(now int64) []*SpliceInfoSection {
	if g.Interval == 0 {
		g.dropExpired(now)
		return nil
	}
	if g.lastCRSys+g.Interval > now {
		return nil
	}

	var out []*SpliceInfoSection
	aggregated := make(map[int]bool, len(g.messages))

	for i, m := range g.messages {
		if aggregated[i] {
			continue
		}
		if m.crSys < now && m.sent {
			continue
		}

		sis := *m.section
		m.sent = true

		if m.key.cmdType == TimeSignalType {
			descs := append(SpliceDescriptors{}, sis.SpliceDescriptors...)
			for j := i + 1; j < len(g.messages); j++ {
				other := g.messages[j]
				if other.key.cmdType != TimeSignalType || !other.hasPTS || other.ptsProg != m.ptsProg {
					continue
				}
				aggregated[j] = true
				if other.crSys < now && other.sent {
					continue
				}
				descs = append(descs, other.section.SpliceDescriptors...)
				other.sent = true
			}
			sis.SpliceDescriptors = descs
		}

		out = append(out, &sis)
	}

	g.dropExpired(now)

	if len(out) == 0 {
		out = append(out, g.nullSection)
	}
	g.lastCRSys = now
	return out
}

func (g *Generator) dropExpired(now int64) {
	kept := g.messages[:0]
	for _, m := range g.messages {
		if m.crSys >= now {
			kept = append(kept, m)
		}
	}
	g.messages = kept
}
