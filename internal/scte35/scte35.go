// Package scte35 implements the wire format of SCTE-35 splice_info_section
// messages — the command types and descriptor this gateway needs to carry
// end to end: SpliceNull (heartbeat), SpliceInsert, TimeSignal, and the
// segmentation descriptor. Higher-level event timing and generation live in
// merge.go, generator.go, and probe.go; this file and its siblings only
// know how to turn bytes into a SpliceInfoSection and back.
package scte35

import "fmt"

const (
	spliceInfoTableID = 0xFC

	SpliceNullType   uint32 = 0x00
	SpliceInsertType uint32 = 0x05
	TimeSignalType   uint32 = 0x06
)

// SpliceCommand is satisfied by every splice_command payload this package
// understands.
type SpliceCommand interface {
	Type() uint32
	decode([]byte) error
	encode() ([]byte, error)
	commandLength() int
}

// SpliceDescriptor is satisfied by every splice_descriptor payload this
// package understands.
type SpliceDescriptor interface {
	Tag() uint32
	decode([]byte) error
	encode() ([]byte, error)
	descriptorLength() int
}

// SpliceDescriptors is an ordered list of splice descriptors attached to a
// SpliceInfoSection.
type SpliceDescriptors []SpliceDescriptor

// SpliceTime carries an optional PTS time; a nil PTSTime means the time is
// unspecified (splice immediately, or relative to a component's own PTS).
type SpliceTime struct {
	PTSTime *uint64
}

// BreakDuration gives the length of a commercial break following a splice.
type BreakDuration struct {
	AutoReturn bool
	Duration   uint64
}

// SpliceInfoSection is the decoded form of one splice_info_section.
type SpliceInfoSection struct {
	SAPType           uint32
	PTSAdjustment     uint64
	Tier              uint32
	SpliceCommand     SpliceCommand
	SpliceDescriptors SpliceDescriptors
}

// DecodeBytes parses a binary splice_info_section, including its trailing
// CRC32.
func DecodeBytes(data []byte) (*SpliceInfoSection, error) {
	sis := &SpliceInfoSection{}
	if err := sis.decode(data); err != nil {
		return sis, err
	}
	return sis, nil
}

// sectionHeader holds the fixed fields common to every splice_info_section,
// read before the variable-length command and descriptor loop.
type sectionHeader struct {
	sapType           uint32
	sectionLength     int
	ptsAdjustment     uint64
	tier              uint32
	commandLength     int
	commandType       uint32
}

func decodeSectionHeader(c *bitCursor) sectionHeader {
	var h sectionHeader
	c.skip(8) // table_id
	c.skip(1) // section_syntax_indicator
	c.skip(1) // private_indicator
	h.sapType = c.readUint32(2)
	h.sectionLength = int(c.readUint32(12))

	c.skip(8) // protocol_version
	c.skip(1) // encrypted_packet
	c.skip(6) // encryption_algorithm
	h.ptsAdjustment = c.readUint64(33)
	c.skip(8) // cw_index
	h.tier = c.readUint32(12)

	h.commandLength = int(c.readUint32(12))
	h.commandType = c.readUint32(8)
	return h
}

func (sis *SpliceInfoSection) decode(data []byte) error {
	if err := checkTrailingCRC32(data); err != nil {
		return err
	}

	c := newBitCursor(data)
	h := decodeSectionHeader(c)
	sis.SAPType = h.sapType
	sis.PTSAdjustment = h.ptsAdjustment
	sis.Tier = h.tier

	if h.commandLength == 0xFFF {
		return sis.decodeLegacyLength(c, h)
	}

	cmdData := c.readBytes(h.commandLength)
	cmd, err := parseSpliceCommand(h.commandType, cmdData)
	if err != nil {
		return fmt.Errorf("scte35: decoding command type 0x%02X: %w", h.commandType, err)
	}
	sis.SpliceCommand = cmd

	descLoopLen := int(c.readUint32(16))
	if descLoopLen == 0 {
		return nil
	}
	descs, err := parseDescriptorLoop(c.readBytes(descLoopLen))
	if err != nil {
		return err
	}
	sis.SpliceDescriptors = descs
	return nil
}

// decodeLegacyLength handles a pre-2016 encoder's splice_command_length =
// 0xFFF escape value: the command's true length has to be discovered from
// parsing the command itself, with the descriptor loop filling whatever
// section_length says is left over.
func (sis *SpliceInfoSection) decodeLegacyLength(c *bitCursor, h sectionHeader) error {
	// section_length counts everything from protocol_version through the
	// CRC; 11 bytes of that are the fixed fields already consumed above.
	remaining := h.sectionLength - 11
	rest := c.readBytes(remaining - 4) // minus the trailing CRC32

	cmd, err := parseSpliceCommand(h.commandType, rest)
	if err != nil {
		return fmt.Errorf("scte35: decoding command type 0x%02X: %w", h.commandType, err)
	}
	sis.SpliceCommand = cmd

	cmdLen := cmd.commandLength()
	if cmdLen+2 > len(rest) {
		return nil
	}
	descLoopLen := int(rest[cmdLen])<<8 | int(rest[cmdLen+1])
	descData := rest[cmdLen+2:]
	if descLoopLen <= 0 || descLoopLen > len(descData) {
		return nil
	}
	descs, err := parseDescriptorLoop(descData[:descLoopLen])
	if err != nil {
		return err
	}
	sis.SpliceDescriptors = descs
	return nil
}

// Encode serializes the section, computing and appending its trailing
// CRC32.
func (sis *SpliceInfoSection) Encode() ([]byte, error) {
	totalLen := 3 + sis.sectionLength() // table_id + flags/sap/length + body
	a := newBitAssembler(totalLen)

	a.putUint32(8, spliceInfoTableID)
	a.putBit(false) // section_syntax_indicator
	a.putBit(false) // private_indicator
	a.putUint32(2, sis.SAPType)
	a.putUint32(12, uint32(sis.sectionLength()))

	a.putUint32(8, 0) // protocol_version
	a.putBit(false)   // encrypted_packet
	a.putUint32(6, 0) // encryption_algorithm
	a.putUint64(33, sis.PTSAdjustment)
	a.putUint32(8, 0) // cw_index
	a.putUint32(12, sis.Tier)

	cmd := sis.SpliceCommand
	if cmd == nil {
		cmd = &SpliceNull{}
	}
	a.putUint32(12, uint32(cmd.commandLength()))
	a.putUint32(8, cmd.Type())
	cmdBytes, err := cmd.encode()
	if err != nil {
		return nil, err
	}
	a.putBytes(cmdBytes)

	a.putUint32(16, uint32(sis.descriptorLoopLength()))
	for _, desc := range sis.SpliceDescriptors {
		descBytes, err := desc.encode()
		if err != nil {
			return nil, err
		}
		a.putBytes(descBytes)
	}

	crc := crcMPEG2(a.bytes()[:totalLen-4])
	a.putUint32(32, crc)
	return a.bytes(), nil
}

func (sis *SpliceInfoSection) sectionLength() int {
	bits := 8 + 1 + 6 + 33 + 8 + 12 // protocol_version..tier
	bits += 12 + 8                  // splice_command_length + splice_command_type

	cmd := sis.SpliceCommand
	if cmd != nil {
		bits += cmd.commandLength() * 8
	}

	bits += 16 // descriptor_loop_length
	bits += sis.descriptorLoopLength() * 8
	bits += 32 // CRC_32
	return bits / 8
}

func (sis *SpliceInfoSection) descriptorLoopLength() int {
	length := 0
	for _, d := range sis.SpliceDescriptors {
		length += 2 + d.descriptorLength() // tag(1) + length(1) + body
	}
	return length
}

func parseSpliceCommand(cmdType uint32, data []byte) (SpliceCommand, error) {
	var cmd SpliceCommand
	switch cmdType {
	case SpliceNullType:
		cmd = &SpliceNull{}
	case SpliceInsertType:
		cmd = &SpliceInsert{}
	case TimeSignalType:
		cmd = &TimeSignal{}
	default:
		// An encoder on this wire that emits a command type this package
		// doesn't model yet; treat it as an inert null rather than
		// failing the whole section.
		return &SpliceNull{}, nil
	}
	if err := cmd.decode(data); err != nil {
		return cmd, err
	}
	return cmd, nil
}

// parseDescriptorLoop walks a splice_descriptor loop, keeping only the
// CUEI-identified segmentation descriptors this package models and
// skipping anything else by length.
func parseDescriptorLoop(data []byte) ([]SpliceDescriptor, error) {
	var descs []SpliceDescriptor
	offset := 0
	for offset+2 <= len(data) {
		tag := uint32(data[offset])
		length := int(data[offset+1])
		end := offset + 2 + length
		if end > len(data) {
			break
		}

		if length >= 4 {
			identifier := uint32(data[offset+2])<<24 | uint32(data[offset+3])<<16 |
				uint32(data[offset+4])<<8 | uint32(data[offset+5])
			if tag == SegmentationDescriptorTag && identifier == CUEIdentifier {
				sd := &SegmentationDescriptor{}
				if err := sd.decode(data[offset:end]); err != nil {
					return descs, err
				}
				descs = append(descs, sd)
			}
		}
		offset = end
	}
	return descs, nil
}
