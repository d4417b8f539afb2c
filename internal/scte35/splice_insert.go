package scte35

// SpliceInsert signals a splice point — the start or return point of a
// commercial break — in the stream.
type SpliceInsert struct {
	SpliceEventID              uint32
	SpliceEventCancelIndicator bool
	OutOfNetworkIndicator      bool
	SpliceImmediateFlag        bool
	BreakDuration              *BreakDuration
	UniqueProgramID            uint32
	AvailNum                   uint32
	AvailsExpected             uint32
}

func (cmd *SpliceInsert) Type() uint32 { return SpliceInsertType }

func (cmd *SpliceInsert) decode(data []byte) error {
	c := newBitCursor(data)
	cmd.SpliceEventID = c.readUint32(32)
	cmd.SpliceEventCancelIndicator = c.readBit()
	c.skip(7) // reserved

	if cmd.SpliceEventCancelIndicator {
		return nil
	}

	cmd.OutOfNetworkIndicator = c.readBit()
	programSpliceFlag := c.readBit()
	durationFlag := c.readBit()
	cmd.SpliceImmediateFlag = c.readBit()
	c.skip(4) // reserved

	if programSpliceFlag {
		cmd.skipSpliceTime(c)
	} else {
		cmd.skipComponents(c)
	}

	if durationFlag {
		cmd.BreakDuration = &BreakDuration{
			AutoReturn: c.readBit(),
		}
		c.skip(6) // reserved
		cmd.BreakDuration.Duration = c.readUint64(33)
	}

	cmd.UniqueProgramID = c.readUint32(16)
	cmd.AvailNum = c.readUint32(8)
	cmd.AvailsExpected = c.readUint32(8)
	return nil
}

// skipSpliceTime consumes the single optional splice_time() for the
// whole-program splice case; the PTS value it carries isn't retained,
// since AvailNum/UniqueProgramID are what downstream matching keys on.
func (cmd *SpliceInsert) skipSpliceTime(c *bitCursor) {
	if cmd.SpliceImmediateFlag {
		return
	}
	if c.readBit() { // time_specified_flag
		c.skip(6)  // reserved
		c.skip(33) // pts_time
	} else {
		c.skip(7) // reserved
	}
}

// skipComponents consumes a component-splice-mode component loop, one
// splice_time() per component tag.
func (cmd *SpliceInsert) skipComponents(c *bitCursor) {
	count := int(c.readUint32(8))
	for i := 0; i < count; i++ {
		c.skip(8) // component_tag
		cmd.skipSpliceTime(c)
	}
}

func (cmd *SpliceInsert) encode() ([]byte, error) {
	a := newBitAssembler(cmd.commandLength())

	a.putUint32(32, cmd.SpliceEventID)
	a.putBit(cmd.SpliceEventCancelIndicator)
	a.putUint32(7, 0x7F) // reserved

	if cmd.SpliceEventCancelIndicator {
		return a.bytes(), nil
	}

	a.putBit(cmd.OutOfNetworkIndicator)
	a.putBit(false) // program_splice_flag: this encoder always emits component_count=0
	a.putBit(cmd.BreakDuration != nil)
	a.putBit(cmd.SpliceImmediateFlag)
	a.putUint32(4, 0x0F) // reserved

	a.putUint32(8, 0) // component_count

	if cmd.BreakDuration != nil {
		a.putBit(cmd.BreakDuration.AutoReturn)
		a.putUint32(6, 0x3F) // reserved
		a.putUint64(33, cmd.BreakDuration.Duration)
	}
	a.putUint32(16, cmd.UniqueProgramID)
	a.putUint32(8, cmd.AvailNum)
	a.putUint32(8, cmd.AvailsExpected)

	return a.bytes(), nil
}

func (cmd *SpliceInsert) commandLength() int {
	bits := 32 + 1 + 7 // event_id, cancel_indicator, reserved
	if cmd.SpliceEventCancelIndicator {
		return bits / 8
	}

	bits += 1 + 1 + 1 + 1 + 4 // out_of_network, program_splice, duration_flag, immediate, reserved
	bits += 8                 // component_count

	if cmd.BreakDuration != nil {
		bits += 1 + 6 + 33
	}
	bits += 16 + 8 + 8 // unique_program_id, avail_num, avails_expected
	return bits / 8
}
