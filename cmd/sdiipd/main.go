// Command sdiipd is the SDI-over-IP gateway daemon: in "tx" mode it reads
// a raw SDI byte stream from stdin and sends it redundantly over two NICs
// as HBRMT/RTP; in "rx" mode it merges the redundant RTP stream back into
// an SDI byte stream written to stdout.
package main

import (
	"context"
	"encoding/binary"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mediabridge/sdiip/internal/config"
	"github.com/mediabridge/sdiip/internal/geometry"
	"github.com/mediabridge/sdiip/internal/hbrmt"
	"github.com/mediabridge/sdiip/internal/media"
	"github.com/mediabridge/sdiip/internal/metrics"
	"github.com/mediabridge/sdiip/internal/pipeline"
	"github.com/mediabridge/sdiip/internal/rtpbond"
)

func main() {
	cfg := config.FromEnv()

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	mode := envOr("MODE", "tx")
	format, err := geometry.Lookup(1920, 1080, geometry.Rational{Num: 25, Den: 1})
	if err != nil {
		slog.Error("failed to resolve SDI geometry", "error", err)
		os.Exit(1)
	}

	m := metrics.New()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("metrics server listening", "addr", cfg.MetricsAddr)
		return m.Serve(cfg.MetricsAddr)
	})

	clock := media.NewClock()

	switch mode {
	case "tx":
		g.Go(func() error { return runTX(ctx, cfg, format, clock, m) })
	case "rx":
		g.Go(func() error { return runRX(ctx, cfg, clock, m) })
	default:
		slog.Error("unknown MODE", "mode", mode)
		os.Exit(1)
	}

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		slog.Error("sdiipd exited with error", "error", err)
		os.Exit(1)
	}
}

// senderSink batches HBRMTPacketizeStage's per-packet output by frame
// timestamp and hands each complete batch to the redundant sender in one
// call, since Sender.SendFrame pre-rolls and paces a whole frame's worth
// of packets together.
type senderSink struct {
	sender *rtpbond.Sender
	log    *slog.Logger

	haveTS bool
	ts     int64
	batch  [][]byte
}

func (s *senderSink) PushFrame(frame *media.FrameUnit) error {
	if s.haveTS && frame.TS.PTSProg != s.ts {
		if err := s.flush(); err != nil {
			return err
		}
	}
	s.ts = frame.TS.PTSProg
	s.haveTS = true
	s.batch = append(s.batch, frame.Block)
	return nil
}

func (s *senderSink) flush() error {
	if len(s.batch) == 0 {
		return nil
	}
	batch := s.batch
	s.batch = nil
	if err := s.sender.SendFrame(context.Background(), batch, s.ts); err != nil {
		if rtpbond.IsDroppedLate(err) {
			s.log.Warn("dropped a late frame past pre-roll")
			return nil
		}
		return err
	}
	return nil
}

// discardSink drops every frame; used for taps whose only purpose is to
// drive a stage's internal state (e.g. SCTE-35 section merging) rather
// than to forward anything further downstream.
type discardSink struct{}

func (discardSink) PushFrame(frame *media.FrameUnit) error { return nil }

func runTX(ctx context.Context, cfg config.Config, format *geometry.Format, clock *media.Clock, m *metrics.Metrics) error {
	txNICs, err := dialTxNICs(cfg)
	if err != nil {
		return err
	}
	sender := rtpbond.NewSender(slog.Default().With("component", "rtpbond-tx"), txNICs, clock)
	if err := sender.SetFlow(&media.FlowDefinition{
		IsPicture: true,
		Pic:       media.PicFlow{FPS: media.Rational{Num: format.FPS.Num, Den: format.FPS.Den}},
	}, cfg.PacketSize, cfg.PacketsPerFrame); err != nil {
		return err
	}

	graph := pipeline.NewGraph(slog.Default(), clock)

	sink := &senderSink{sender: sender, log: slog.Default().With("component", "sender-sink")}
	pktStage := pipeline.NewHBRMTPacketizeStage(hbrmt.NewPacketizer(format, 0x53444900), sink, nil)
	pktNode := graph.AddNode("hbrmt-packetize", pktStage, cfg.QueueBound, pipeline.DropOldest)

	pack10Stage := pipeline.NewPack10Stage(pktNode.Queue)
	pack10Node := graph.AddNode("pack10", pack10Stage, cfg.QueueBound, pipeline.DropOldest)
	graph.Connect(pack10Node, pktNode)

	// scteNode runs the splice-event generator/probe on the periodic tick
	// below; it has no upstream PushFrame source yet (no component in
	// this tree turns a decoded VANC packet into a SpliceInfoSection), so
	// it only ever surfaces locally-originated and timed-out sections.
	scteStage := pipeline.NewSCTE35Stage(cfg.SCTE35IntervalTicks, discardSink{}, nil)
	scteNode := graph.AddNode("scte35", scteStage, cfg.QueueBound, pipeline.FatalOnOverflow)

	framerStage := pipeline.NewFramerStage(format.Width, format.Height, pack10Node.Queue, nil)
	framerNode := graph.AddNode("framer", framerStage, cfg.QueueBound, pipeline.DropOldest)
	graph.Connect(framerNode, pack10Node)

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error { return graph.Run(ctx) })
	eg.Go(func() error { return readStdinInto(ctx, framerNode.Queue, m) })
	eg.Go(func() error { return tickSCTE35(ctx, scteNode.Stage, clock) })
	return eg.Wait()
}

func runRX(ctx context.Context, cfg config.Config, clock *media.Clock, m *metrics.Metrics) error {
	rxNICs, err := dialRxNICs(cfg)
	if err != nil {
		return err
	}

	graph := pipeline.NewGraph(slog.Default(), clock)

	unpackStage := pipeline.NewUnpack10Stage(&stdoutSink{m: m})
	unpackNode := graph.AddNode("unpack10", unpackStage, cfg.QueueBound, pipeline.DropOldest)

	dpktStage := pipeline.NewHBRMTDepacketizeStage(hbrmt.NewDepacketizer(nil), unpackNode.Queue, nil)
	dpktNode := graph.AddNode("hbrmt-depacketize", dpktStage, cfg.QueueBound, pipeline.DropOldest)
	graph.Connect(dpktNode, unpackNode)

	receiver := rtpbond.NewReceiver(slog.Default().With("component", "rtpbond-rx"), rxNICs,
		func(pkt rtpbond.Packet) {
			raw := rebuildRTPPacket(pkt)
			if err := dpktNode.Queue.PushFrame(media.NewBlock(raw)); err != nil {
				slog.Error("failed to enqueue received packet", "error", err)
			}
		},
		func() {
			m.Discontinuities.WithLabelValues("rtpbond-rx").Inc()
		},
	)

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error { return graph.Run(ctx) })
	eg.Go(func() error { return receiver.Run(ctx) })
	return eg.Wait()
}

// tickSCTE35 drives the SCTE-35 stage's periodic generator/probe sweep
// once a second, independent of the frame stream.
func tickSCTE35(ctx context.Context, stage pipeline.Stage, clock *media.Clock) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := stage.PullControl(clock.Now()); err != nil {
				return err
			}
		}
	}
}

// rebuildRTPPacket reconstructs a minimal 12-byte RTP header in front of
// the already-dedup'd payload, since internal/hbrmt.Depacketizer expects
// the wire format (RTP header + HBRMT header + chunk) rather than the
// stripped Payload rtpbond.Receiver exposes for its own gap tracking.
func rebuildRTPPacket(pkt rtpbond.Packet) []byte {
	out := make([]byte, 12+len(pkt.Payload))
	out[0] = 0x80 // version 2, no padding/extension/CSRC
	if pkt.Marker {
		out[1] = 0x80
	}
	binary.BigEndian.PutUint16(out[2:4], pkt.Seq)
	binary.BigEndian.PutUint32(out[4:8], pkt.TS)
	copy(out[12:], pkt.Payload)
	return out
}

// stdoutSink writes every reassembled SDI frame to stdout, counting flow
// changes and discontinuities into metrics.
type stdoutSink struct {
	m *metrics.Metrics
}

func (s *stdoutSink) PushFrame(frame *media.FrameUnit) error {
	if frame.Kind == media.KindFlowChange {
		slog.Info("rx: resolved flow", "flow", frame.Flow)
		return nil
	}
	s.m.FramesOut.WithLabelValues("sdiipd-rx").Inc()
	_, err := os.Stdout.Write(frame.Block)
	return err
}

func readStdinInto(ctx context.Context, sink pipeline.Sink, m *metrics.Metrics) error {
	buf := make([]byte, 256*1024)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		n, err := os.Stdin.Read(buf)
		if n > 0 {
			m.FramesIn.WithLabelValues("sdiipd-tx").Inc()
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			if pushErr := sink.PushFrame(media.NewBlock(chunk)); pushErr != nil {
				return pushErr
			}
		}
		if err != nil {
			return err
		}
	}
}

func dialTxNICs(cfg config.Config) ([2]rtpbond.NIC, error) {
	var nics [2]rtpbond.NIC
	var err error
	nics[0], err = rtpbond.NewUDPTxNIC(cfg.TxNIC0Addr)
	if err != nil {
		return nics, err
	}
	nics[1], err = rtpbond.NewUDPTxNIC(cfg.TxNIC1Addr)
	return nics, err
}

func dialRxNICs(cfg config.Config) ([2]rtpbond.NIC, error) {
	var nics [2]rtpbond.NIC
	var err error
	nics[0], err = rtpbond.NewUDPRxNIC(cfg.RxNIC0Addr)
	if err != nil {
		return nics, err
	}
	nics[1], err = rtpbond.NewUDPRxNIC(cfg.RxNIC1Addr)
	return nics, err
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
