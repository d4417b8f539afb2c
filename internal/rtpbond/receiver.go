package rtpbond

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync"
)

// maxBufferedGap bounds how far ahead of the expected sequence number a
// ring is allowed to buffer packets before the gap is declared a
// discontinuity rather than an ordinary reorder: a real loss (both NICs
// missing the same packet) must eventually give up waiting for it.
const maxBufferedGap = 64

// Packet is one parsed RTP packet handed to a Receiver.
type Packet struct {
	Seq     uint16
	TS      uint32
	Marker  bool
	Payload []byte
}

// ParsePacket extracts the fields a Receiver needs from a raw RTP
// datagram: the 12-byte fixed header's sequence number, timestamp, and
// marker bit, with the payload left as the remainder (CSRC/extension
// headers are not in use on this transport and are rejected).
func ParsePacket(buf []byte) (Packet, error) {
	if len(buf) < 12 {
		return Packet{}, fmt.Errorf("rtpbond: packet too short for an RTP header: %d bytes", len(buf))
	}
	return Packet{
		Marker:  buf[1]&0x80 != 0,
		Seq:     binary.BigEndian.Uint16(buf[2:4]),
		TS:      binary.BigEndian.Uint32(buf[4:8]),
		Payload: buf[12:],
	}, nil
}

// Receiver merges RTP packets arriving redundantly over two NICs into a
// single in-order stream, using the sequence-number/timestamp rule from
// upipe_netmap_source.c's dup-ring handling: accept on exact sequence
// match, drop late duplicates, buffer genuine reordering while checking
// the other ring for the missing packet, drop stale ahead-of-window
// packets, and declare a discontinuity when neither ring can produce the
// packet the stream is waiting on.
type Receiver struct {
	log  *slog.Logger
	nics [2]NIC

	// OnPacket is called, in order, for every accepted packet.
	OnPacket func(Packet)
	// OnDiscontinuity is called when neither ring can provide the
	// expected sequence number and the receiver has to resynchronize.
	OnDiscontinuity func()

	mu           sync.Mutex
	rings        [2]map[uint16]Packet
	expected     uint16
	haveExpected bool
	lastTS       uint32
}

func NewReceiver(log *slog.Logger, nics [2]NIC, onPacket func(Packet), onDiscontinuity func()) *Receiver {
	if log == nil {
		log = slog.Default()
	}
	return &Receiver{
		log:             log,
		nics:            nics,
		OnPacket:        onPacket,
		OnDiscontinuity: onDiscontinuity,
		rings:           [2]map[uint16]Packet{{}, {}},
	}
}

// taggedPacket pairs a raw datagram with the ring index (0 or 1) of the
// NIC it arrived on.
type taggedPacket struct {
	ring int
	buf  []byte
	err  error
}

// Run reads both NICs concurrently but feeds every packet through a
// single channel into one serial consumer, matching the single-threaded
// cooperative event-loop model the rest of the pipeline uses: only the
// two NIC-read goroutines below are concurrent with the processing loop,
// and they do nothing but read and hand off.
func (r *Receiver) Run(ctx context.Context) error {
	ch := make(chan taggedPacket, 64)
	var wg sync.WaitGroup

	for i, n := range r.nics {
		if n == nil {
			continue
		}
		wg.Add(1)
		go func(ring int, nic NIC) {
			defer wg.Done()
			buf := make([]byte, 65536)
			for {
				n, err := nic.Recv(buf)
				if err != nil {
					select {
					case ch <- taggedPacket{ring: ring, err: err}:
					case <-ctx.Done():
					}
					return
				}
				cp := make([]byte, n)
				copy(cp, buf[:n])
				select {
				case ch <- taggedPacket{ring: ring, buf: cp}:
				case <-ctx.Done():
					return
				}
			}
		}(i, n)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case tp, ok := <-ch:
			if !ok {
				return nil
			}
			if tp.err != nil {
				r.log.Warn("rtpbond: NIC read error", "ring", tp.ring, "error", tp.err)
				continue
			}
			pkt, err := ParsePacket(tp.buf)
			if err != nil {
				r.log.Warn("rtpbond: dropping unparseable packet", "ring", tp.ring, "error", err)
				continue
			}
			r.handle(tp.ring, pkt)
		}
	}
}

// handle applies the sequence-gap condition table to one incoming
// packet. Run calls it from one consumer loop that both reader goroutines
// feed, and it holds r.mu while it runs; the accept/deliver logic is the
// single decision point the rest of the receiver pipeline depends on.
func (r *Receiver) handle(ring int, pkt Packet) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.haveExpected {
		r.expected = pkt.Seq
		r.haveExpected = true
		r.lastTS = pkt.TS
	}

	diff := int16(pkt.Seq - r.expected)
	switch {
	case diff == 0:
		r.deliverLocked(pkt)
		r.drainLocked()

	case diff < 0:
		// Late duplicate of a sequence number already passed; drop.

	default:
		if pkt.TS-r.lastTS < 1<<31 {
			// Plausible reorder: buffer it and see whether the other
			// ring already has the packet we're actually waiting on.
			r.rings[ring][pkt.Seq] = pkt
			if len(r.rings[ring]) > maxBufferedGap {
				r.discontinuityLocked(pkt)
				return
			}
			if !r.drainLocked() {
				// Neither ring could produce the expected sequence
				// number on this pass; a short gap is normal reordering
				// and will resolve on a later packet, so only declare
				// a discontinuity once the buffered backlog is large
				// enough that the loss looks permanent.
				if len(r.rings[0])+len(r.rings[1]) > maxBufferedGap {
					r.discontinuityLocked(pkt)
				}
			}
		}
		// else: far enough ahead in timestamp terms to be stale data
		// from a previous, already-abandoned sequence window; drop.
	}
}

// drainLocked delivers the expected sequence number and everything
// contiguous after it, pulling from whichever ring has each one, in
// ring-0-first order when both carry it. Returns true if at least one
// packet was delivered.
func (r *Receiver) drainLocked() bool {
	delivered := false
	for {
		pkt, ok := r.rings[0][r.expected]
		if !ok {
			pkt, ok = r.rings[1][r.expected]
		}
		if !ok {
			return delivered
		}
		delete(r.rings[0], r.expected)
		delete(r.rings[1], r.expected)
		r.deliverLocked(pkt)
		delivered = true
	}
}

func (r *Receiver) deliverLocked(pkt Packet) {
	r.expected = pkt.Seq + 1
	r.lastTS = pkt.TS
	if r.OnPacket != nil {
		r.OnPacket(pkt)
	}
}

// discontinuityLocked gives up on the current expected sequence number,
// drops any in-flight reassembly state, and resynchronizes to pkt as the
// start of a fresh run.
func (r *Receiver) discontinuityLocked(pkt Packet) {
	r.log.Warn("rtpbond: sequence discontinuity", "expected", r.expected, "got", pkt.Seq)
	r.rings[0] = map[uint16]Packet{}
	r.rings[1] = map[uint16]Packet{}
	r.haveExpected = false
	if r.OnDiscontinuity != nil {
		r.OnDiscontinuity()
	}
	r.expected = pkt.Seq
	r.haveExpected = true
	r.lastTS = pkt.TS
}
