package pipeline

import (
	"encoding/binary"
	"log/slog"

	"github.com/mediabridge/sdiip/internal/framer"
	"github.com/mediabridge/sdiip/internal/hbrmt"
	"github.com/mediabridge/sdiip/internal/media"
	"github.com/mediabridge/sdiip/internal/pixelcodec"
	"github.com/mediabridge/sdiip/internal/scte35"
	"github.com/mediabridge/sdiip/internal/sdidec"
	"github.com/mediabridge/sdiip/internal/sdienc"
)

// FramerStage wraps internal/framer.Framer as a Stage: every pushed
// block FrameUnit is treated as a chunk of the raw SDI byte stream, and
// each whole frame the Framer emits is pushed on to Sink.
type FramerStage struct {
	log  *slog.Logger
	f    *framer.Framer
	Sink Sink
}

// NewFramerStage creates a FramerStage for the given full line width and
// line count (samples), pushing completed frames into sink.
func NewFramerStage(width, height int, sink Sink, log *slog.Logger) *FramerStage {
	if log == nil {
		log = slog.Default()
	}
	return &FramerStage{log: log, f: framer.New(width, height), Sink: sink}
}

func (s *FramerStage) SetInputFormat(flow *media.FlowDefinition) error {
	// A byte-stream framer has no format of its own to negotiate; any
	// block flow is accepted and forwarded.
	return nil
}

func (s *FramerStage) PushFrame(frame *media.FrameUnit) error {
	if frame.Kind != media.KindBlock {
		return nil
	}
	for _, out := range s.f.Push(frame.Block) {
		out.TS = frame.TS
		if err := s.Sink.PushFrame(out); err != nil {
			return err
		}
	}
	return nil
}

func (s *FramerStage) PullControl(query ControlQuery) (ControlResult, error) {
	if _, ok := query.(string); ok && query.(string) == "resync" {
		s.f.Reset()
		return nil, nil
	}
	return nil, ErrUnsupportedControl
}

func (s *FramerStage) AttachClock(clock *media.Clock) {}

// SDIDecodeStage wraps internal/sdidec.Decoder as a Stage: every pushed
// whole-frame block FrameUnit is decoded, and the resulting
// picture/VANC/VBI/audio FrameUnits are each pushed to their own Sink.
type SDIDecodeStage struct {
	log *slog.Logger
	dec *sdidec.Decoder

	PictureSink Sink
	VANCSink    Sink
	VBISink     Sink
	AudioSink   Sink
}

// NewSDIDecodeStage creates an SDIDecodeStage around dec, fanning its
// four result FrameUnits out to the given sinks. A nil sink silently
// discards that stream (e.g. VBISink for an HD-only flow).
func NewSDIDecodeStage(dec *sdidec.Decoder, pictureSink, vancSink, vbiSink, audioSink Sink, log *slog.Logger) *SDIDecodeStage {
	if log == nil {
		log = slog.Default()
	}
	return &SDIDecodeStage{log: log, dec: dec, PictureSink: pictureSink, VANCSink: vancSink, VBISink: vbiSink, AudioSink: audioSink}
}

func (s *SDIDecodeStage) SetInputFormat(flow *media.FlowDefinition) error {
	return nil
}

func (s *SDIDecodeStage) PushFrame(frame *media.FrameUnit) error {
	if frame.Kind != media.KindBlock {
		return nil
	}
	result, err := s.dec.DecodeFrame(frame.Block)
	if err != nil {
		s.log.Warn("pipeline: sdi decode failed", "error", err)
		return nil // protocol parse failure: log and continue
	}

	type pair struct {
		frame *media.FrameUnit
		sink  Sink
	}
	for _, p := range []pair{
		{result.Picture, s.PictureSink},
		{result.VANC, s.VANCSink},
		{result.VBI, s.VBISink},
		{result.Audio, s.AudioSink},
	} {
		if p.frame == nil || p.sink == nil {
			continue
		}
		p.frame.TS = frame.TS
		p.frame.Discontinuity = result.Discontinuity
		if err := p.sink.PushFrame(p.frame); err != nil {
			return err
		}
	}
	return nil
}

func (s *SDIDecodeStage) PullControl(query ControlQuery) (ControlResult, error) {
	return nil, ErrUnsupportedControl
}

func (s *SDIDecodeStage) AttachClock(clock *media.Clock) {}

// SCTE35Stage composes the merge/generator/probe triad (internal/scte35)
// into one Stage: pushed sections are merged, and a "tick" PullControl
// query (carrying the current 27MHz time as its payload) drives the
// generator and probe, pushing whatever sections/events are due to Sink.
type SCTE35Stage struct {
	log       *slog.Logger
	merger    *scte35.Merger
	generator *scte35.Generator
	probe     *scte35.Probe

	Sink Sink
}

// NewSCTE35Stage wires a fresh Merger/Generator/Probe set, with the
// generator's periodic interval in 27MHz ticks.
func NewSCTE35Stage(intervalTicks int64, sink Sink, log *slog.Logger) *SCTE35Stage {
	if log == nil {
		log = slog.Default()
	}
	merger := scte35.NewMerger()
	return &SCTE35Stage{
		log:       log,
		merger:    merger,
		generator: scte35.NewGenerator(intervalTicks),
		probe:     scte35.NewProbe(merger),
		Sink:      sink,
	}
}

func (s *SCTE35Stage) SetInputFormat(flow *media.FlowDefinition) error { return nil }

// PushFrame treats the incoming FrameUnit's attribute "scte35.section" as
// a *scte35.SpliceInfoSection to merge, and "scte35.timing" as its
// EventTiming; a frame lacking either attribute is ignored.
func (s *SCTE35Stage) PushFrame(frame *media.FrameUnit) error {
	sis, ok := media.Attr[*scte35.SpliceInfoSection](frame, "scte35.section")
	if !ok {
		return nil
	}
	timing, _ := media.Attr[scte35.EventTiming](frame, "scte35.timing")

	s.merger.Push(sis, timing)
	s.generator.Input(sis, timing.PTSSys)
	return nil
}

// PullControl expects a "tick" query carrying the current 27MHz time as
// an int64; it drives the generator's periodic emission and the probe's
// expiry sweep, pushing every resulting section onward as a block
// FrameUnit tagged "scte35.section"/"scte35.event".
func (s *SCTE35Stage) PullControl(query ControlQuery) (ControlResult, error) {
	now, ok := query.(int64)
	if !ok {
		return nil, ErrUnsupportedControl
	}

	for _, sis := range s.generator.Prepare(now) {
		f := media.NewBlock(nil)
		f.SetAttr("scte35.section", sis)
		if err := s.Sink.PushFrame(f); err != nil {
			return nil, err
		}
	}

	for _, ev := range s.probe.Observe(now) {
		f := media.NewBlock(nil)
		f.SetAttr("scte35.event", ev)
		if err := s.Sink.PushFrame(f); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func (s *SCTE35Stage) AttachClock(clock *media.Clock) {}

// SDIEncodeStage wraps internal/sdienc.Encoder as a Stage: a picture
// FrameUnit triggers one EncodeFrame call, combined with whatever
// audio/VANC/VBI FrameUnits arrived alongside it. Audio is sticky (carried
// forward to the next picture) since it is not guaranteed to be pushed on
// every frame boundary; VANC/VBI are consumed once and cleared.
type SDIEncodeStage struct {
	log *slog.Logger
	enc *sdienc.Encoder

	audio, vanc, vbi *media.FrameUnit

	Sink Sink
}

// NewSDIEncodeStage creates an SDIEncodeStage around enc, pushing each
// rendered frame byte stream as a block FrameUnit to sink.
func NewSDIEncodeStage(enc *sdienc.Encoder, sink Sink, log *slog.Logger) *SDIEncodeStage {
	if log == nil {
		log = slog.Default()
	}
	return &SDIEncodeStage{log: log, enc: enc, Sink: sink}
}

func (s *SDIEncodeStage) SetInputFormat(flow *media.FlowDefinition) error { return nil }

func (s *SDIEncodeStage) PushFrame(frame *media.FrameUnit) error {
	switch {
	case frame.Kind == media.KindPicture:
		out := media.NewBlock(s.enc.EncodeFrame(sdienc.Input{
			Picture: frame,
			Audio:   s.audio,
			VANC:    s.vanc,
			VBI:     s.vbi,
		}))
		out.TS = frame.TS
		s.vanc, s.vbi = nil, nil
		return s.Sink.PushFrame(out)
	default:
		if kind, _ := media.Attr[string](frame, "sdienc.sibling"); kind == "vanc" {
			s.vanc = frame
		} else if kind == "vbi" {
			s.vbi = frame
		} else {
			s.audio = frame
		}
		return nil
	}
}

func (s *SDIEncodeStage) PullControl(query ControlQuery) (ControlResult, error) {
	return nil, ErrUnsupportedControl
}

func (s *SDIEncodeStage) AttachClock(clock *media.Clock) {}

// HBRMTPacketizeStage wraps internal/hbrmt.Packetizer as a Stage: every
// pushed whole-frame block FrameUnit is cut into wire packets, each pushed
// onward as its own block FrameUnit.
type HBRMTPacketizeStage struct {
	log  *slog.Logger
	pkt  *hbrmt.Packetizer
	Sink Sink
}

// NewHBRMTPacketizeStage creates an HBRMTPacketizeStage around pkt.
func NewHBRMTPacketizeStage(pkt *hbrmt.Packetizer, sink Sink, log *slog.Logger) *HBRMTPacketizeStage {
	if log == nil {
		log = slog.Default()
	}
	return &HBRMTPacketizeStage{log: log, pkt: pkt, Sink: sink}
}

func (s *HBRMTPacketizeStage) SetInputFormat(flow *media.FlowDefinition) error { return nil }

func (s *HBRMTPacketizeStage) PushFrame(frame *media.FrameUnit) error {
	if frame.Kind != media.KindBlock {
		return nil
	}
	pkts, err := s.pkt.PacketizeFrame(frame.Block)
	if err != nil {
		return &StageError{Kind: ErrFlowMismatch, Stage: "hbrmt-packetize", Err: err}
	}
	for _, p := range pkts {
		out := media.NewBlock(p)
		out.TS = frame.TS
		if err := s.Sink.PushFrame(out); err != nil {
			return err
		}
	}
	return nil
}

func (s *HBRMTPacketizeStage) PullControl(query ControlQuery) (ControlResult, error) {
	return nil, ErrUnsupportedControl
}

func (s *HBRMTPacketizeStage) AttachClock(clock *media.Clock) {}

// HBRMTDepacketizeStage wraps internal/hbrmt.Depacketizer as a Stage:
// every pushed wire packet is fed in, and whatever flow change / completed
// frame it produces is pushed onward.
type HBRMTDepacketizeStage struct {
	log  *slog.Logger
	dpkt *hbrmt.Depacketizer
	Sink Sink
}

// NewHBRMTDepacketizeStage creates an HBRMTDepacketizeStage around dpkt.
func NewHBRMTDepacketizeStage(dpkt *hbrmt.Depacketizer, sink Sink, log *slog.Logger) *HBRMTDepacketizeStage {
	if log == nil {
		log = slog.Default()
	}
	return &HBRMTDepacketizeStage{log: log, dpkt: dpkt, Sink: sink}
}

func (s *HBRMTDepacketizeStage) SetInputFormat(flow *media.FlowDefinition) error { return nil }

func (s *HBRMTDepacketizeStage) PushFrame(frame *media.FrameUnit) error {
	if frame.Kind != media.KindBlock {
		return nil
	}
	result, err := s.dpkt.PushPacket(frame.Block)
	if err != nil {
		s.log.Warn("pipeline: hbrmt depacketize failed", "error", err)
		return nil // malformed wire packet: log and continue
	}
	if result.Flow != nil {
		if err := s.Sink.PushFrame(media.NewFlowChange(result.Flow)); err != nil {
			return err
		}
	}
	if result.Frame != nil {
		result.Frame.TS = frame.TS
		if err := s.Sink.PushFrame(result.Frame); err != nil {
			return err
		}
	}
	return nil
}

func (s *HBRMTDepacketizeStage) PullControl(query ControlQuery) (ControlResult, error) {
	return nil, ErrUnsupportedControl
}

func (s *HBRMTDepacketizeStage) AttachClock(clock *media.Clock) {}

// Pack10Stage repacks a raw 16-bit-little-endian SDI line buffer (the
// framer's output: sync words, ANC, and active picture samples alike,
// each sample significant to 10 bits) into the byte-packed 10-bit
// transport format internal/hbrmt.Packetizer expects as its payload.
type Pack10Stage struct {
	Sink Sink
}

// NewPack10Stage creates a Pack10Stage pushing packed frames to sink.
func NewPack10Stage(sink Sink) *Pack10Stage { return &Pack10Stage{Sink: sink} }

func (s *Pack10Stage) SetInputFormat(flow *media.FlowDefinition) error { return nil }

func (s *Pack10Stage) PushFrame(frame *media.FrameUnit) error {
	if frame.Kind != media.KindBlock {
		return nil
	}
	samples := make([]uint16, len(frame.Block)/2)
	for i := range samples {
		samples[i] = binary.LittleEndian.Uint16(frame.Block[i*2:])
	}
	packed := make([]byte, len(samples)/4*5)
	pixelcodec.UYVYToSDI10(samples, packed)

	out := media.NewBlock(packed)
	out.TS = frame.TS
	return s.Sink.PushFrame(out)
}

func (s *Pack10Stage) PullControl(query ControlQuery) (ControlResult, error) {
	return nil, ErrUnsupportedControl
}

func (s *Pack10Stage) AttachClock(clock *media.Clock) {}

// Unpack10Stage is the dual of Pack10Stage: it expands a byte-packed
// 10-bit SDI frame back into the 16-bit-little-endian sample stream the
// rest of the pipeline (and an SDI output device) expects.
type Unpack10Stage struct {
	Sink Sink
}

// NewUnpack10Stage creates an Unpack10Stage pushing unpacked frames to sink.
func NewUnpack10Stage(sink Sink) *Unpack10Stage { return &Unpack10Stage{Sink: sink} }

func (s *Unpack10Stage) SetInputFormat(flow *media.FlowDefinition) error { return nil }

func (s *Unpack10Stage) PushFrame(frame *media.FrameUnit) error {
	if frame.Kind != media.KindBlock {
		return nil
	}
	samples := make([]uint16, len(frame.Block)*8/10)
	pixelcodec.SDI10ToUYVY(frame.Block, samples)

	out := make([]byte, len(samples)*2)
	for i, w := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], w)
	}
	block := media.NewBlock(out)
	block.TS = frame.TS
	return s.Sink.PushFrame(block)
}

func (s *Unpack10Stage) PullControl(query ControlQuery) (ControlResult, error) {
	return nil, ErrUnsupportedControl
}

func (s *Unpack10Stage) AttachClock(clock *media.Clock) {}
