package scte35

// TimeSignal carries a single splice_time() used to anchor segmentation
// descriptors to a PTS value without also carrying a splice_insert.
type TimeSignal struct {
	SpliceTime SpliceTime
}

func (cmd *TimeSignal) Type() uint32 { return TimeSignalType }

func (cmd *TimeSignal) decode(data []byte) error {
	c := newBitCursor(data)
	if !c.readBit() { // time_specified_flag
		c.skip(7) // reserved
		return nil
	}
	c.skip(6) // reserved
	pts := c.readUint64(33)
	cmd.SpliceTime.PTSTime = &pts
	return nil
}

func (cmd *TimeSignal) encode() ([]byte, error) {
	a := newBitAssembler(cmd.commandLength())
	pts := cmd.SpliceTime.PTSTime
	if pts == nil {
		a.putBit(false)
		a.putUint32(7, 0x7F) // reserved
		return a.bytes(), nil
	}
	a.putBit(true)
	a.putUint32(6, 0x3F) // reserved
	a.putUint64(33, *pts)
	return a.bytes(), nil
}

func (cmd *TimeSignal) commandLength() int {
	if cmd.SpliceTime.PTSTime != nil {
		return 5
	}
	return 1
}
