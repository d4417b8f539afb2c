package scte35

// SpliceNull carries no data; senders emit it on a steady interval so
// receivers can tell the SCTE-35 path is alive between real events.
type SpliceNull struct{}

func (cmd *SpliceNull) Type() uint32 { return SpliceNullType }

func (cmd *SpliceNull) decode([]byte) error { return nil }

func (cmd *SpliceNull) encode() ([]byte, error) { return nil, nil }

func (cmd *SpliceNull) commandLength() int { return 0 }
