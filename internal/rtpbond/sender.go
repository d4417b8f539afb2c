package rtpbond

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/time/rate"

	"github.com/mediabridge/sdiip/internal/media"
)

// FixedPreRoll is the extra margin held before a flow's declared latency
// elapses, both for delaying the first sent frame and for the deadline
// past which a late frame is dropped instead of sent.
const FixedPreRoll = media.UClockFreq / 25

// padPacketLen is the Ethernet-header-plus-zero-payload pad packet size
// netmap_sink.c inserts to smooth pacing and to keep two rings aligned
// while one resynchronizes after a link flap.
const padPacketLen = 1438

// coarseResyncPackets bounds the first resync pass: a NIC coming back UP
// is padded to within this many packets of its peer before the exact
// pass closes the remaining gap one packet at a time.
const coarseResyncPackets = 400

// Sender fans one RTP packet stream out over two independently paced
// NICs. Each NIC's real packets are paced by a rate.Limiter, and a NIC
// that transitions DOWN→UP is resynchronized — coarse pass then exact —
// to its peer's packet position before it is allowed to carry live data
// again, so the two paths never drift apart once both are up. Pad packets
// are sent only during that resynchronization; none are inserted between
// real packets or between frames, and no bits-sent rate estimate is kept.
//
// Grounded on upipe_netmap_sink.c's worker loop: the per-NIC up/down
// edge detection and upipe_resync_queues' two-pass coarse-then-exact
// realignment.
type Sender struct {
	log   *slog.Logger
	nics  [2]NIC
	clock *media.Clock

	limiters [2]*rate.Limiter

	mu        sync.Mutex
	up        [2]bool
	resyncing [2]bool
	sent      [2]uint64

	latency int64 // 27MHz ticks, carried from the flow definition
	preroll bool
}

func NewSender(log *slog.Logger, nics [2]NIC, clock *media.Clock) *Sender {
	if log == nil {
		log = slog.Default()
	}
	s := &Sender{log: log, nics: nics, clock: clock, preroll: true}
	for i, n := range nics {
		if n != nil {
			s.up[i] = n.Up()
		}
	}
	return s
}

// SetFlow configures the per-packet target rate from the flow's frame
// rate and packet geometry, matching netmap_sink's
// `8 × (packet_size+4) × packets_per_frame × fps` target, and pushes it
// down to each NIC's queue via SetMaxRate.
func (s *Sender) SetFlow(fd *media.FlowDefinition, packetSize, packetsPerFrame int) error {
	fps := fd.FrameRate()
	if fps.Num == 0 {
		return fmt.Errorf("rtpbond: flow definition carries no frame rate")
	}
	bitsPerSec := uint64(8*(packetSize+4)*packetsPerFrame) * uint64(fps.Num) / uint64(fps.Den)

	s.mu.Lock()
	s.latency = fd.Latency()
	s.preroll = true
	s.mu.Unlock()

	for i, n := range s.nics {
		if n == nil {
			continue
		}
		burst := packetSize * 2
		if burst < 1 {
			burst = 1
		}
		s.limiters[i] = rate.NewLimiter(rate.Limit(float64(bitsPerSec)/8), burst)
		if err := n.SetMaxRate(bitsPerSec); err != nil {
			return fmt.Errorf("rtpbond: set max rate on NIC %d: %w", i, err)
		}
	}
	return nil
}

// errDroppedLate is returned by SendFrame when a frame's send deadline
// has already passed.
var errDroppedLate = fmt.Errorf("rtpbond: frame dropped past its deadline")

// IsDroppedLate reports whether err is the sentinel SendFrame returns for
// a frame dropped by the pre-roll/drop policy.
func IsDroppedLate(err error) bool { return err == errDroppedLate }

// SendFrame transmits one frame's packets over both NICs, applying the
// pre-roll delay on the very first frame and the late-frame drop policy
// on every frame after: the caller should treat errDroppedLate as
// advancing past the frame (not a fatal error).
func (s *Sender) SendFrame(ctx context.Context, pkts [][]byte, ptsSys int64) error {
	now := s.clock.Now()
	deadline := ptsSys + s.latency + FixedPreRoll

	s.mu.Lock()
	preroll := s.preroll
	s.mu.Unlock()

	if preroll {
		if now < deadline {
			return nil // hold the frame; caller retries once time advances
		}
		s.mu.Lock()
		s.preroll = false
		s.mu.Unlock()
	} else if deadline < now {
		s.log.Warn("rtpbond: dropping late frame", "pts_sys", ptsSys, "now", now)
		return errDroppedLate
	}

	for i, n := range s.nics {
		if n == nil {
			continue
		}
		s.pollLink(i, n)

		s.mu.Lock()
		up, resyncing := s.up[i], s.resyncing[i]
		s.mu.Unlock()
		if !up || resyncing {
			continue
		}

		for _, pkt := range pkts {
			if lim := s.limiters[i]; lim != nil {
				if err := lim.WaitN(ctx, len(pkt)); err != nil {
					return fmt.Errorf("rtpbond: pacing NIC %d: %w", i, err)
				}
			}
			if err := n.Send(pkt); err != nil {
				return fmt.Errorf("rtpbond: send on NIC %d: %w", i, err)
			}
			s.mu.Lock()
			s.sent[i]++
			s.mu.Unlock()
		}
	}
	return nil
}

// pollLink observes NIC i's link flag and drives the resync state
// machine on a DOWN→UP transition.
func (s *Sender) pollLink(i int, n NIC) {
	up := n.Up()

	s.mu.Lock()
	wasUp := s.up[i]
	s.up[i] = up
	peer := 1 - i
	s.mu.Unlock()

	if up && !wasUp {
		s.mu.Lock()
		s.resyncing[i] = true
		behind := s.sent[peer] - s.sent[i]
		s.mu.Unlock()

		// Coarse pass: pad to within coarseResyncPackets of the peer.
		if behind > coarseResyncPackets {
			s.padUntilWithin(i, n, coarseResyncPackets)
		}
		// Exact pass: close the remaining gap precisely.
		s.padUntilWithin(i, n, 0)

		s.mu.Lock()
		s.resyncing[i] = false
		s.mu.Unlock()
		s.log.Info("rtpbond: NIC resynchronized", "nic", i)
	} else if !up && wasUp {
		s.log.Warn("rtpbond: NIC went down", "nic", i)
	}
}

func (s *Sender) padUntilWithin(i int, n NIC, slack uint64) {
	pad := make([]byte, padPacketLen)
	for {
		s.mu.Lock()
		behind := s.sent[1-i] - s.sent[i]
		s.mu.Unlock()
		if behind <= slack {
			return
		}
		if err := n.Send(pad); err != nil {
			s.log.Warn("rtpbond: pad send failed during resync", "nic", i, "error", err)
			return
		}
		s.mu.Lock()
		s.sent[i]++
		s.mu.Unlock()
	}
}
