package rtpbond

import (
	"errors"
	"sync"
)

var errClosed = errors.New("rtpbond: fake NIC closed")

// fakeNIC is an in-memory NIC used by tests to simulate link flaps and
// packet flow without real sockets. Recv blocks until a packet is
// delivered or the NIC is closed, mirroring a real blocking socket read.
type fakeNIC struct {
	mu      sync.Mutex
	cond    *sync.Cond
	up      bool
	sent    [][]byte
	inbox   [][]byte
	maxRate uint64
	closed  bool
}

func newFakeNIC() *fakeNIC {
	n := &fakeNIC{up: true}
	n.cond = sync.NewCond(&n.mu)
	return n
}

func (n *fakeNIC) Send(pkt []byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	cp := make([]byte, len(pkt))
	copy(cp, pkt)
	n.sent = append(n.sent, cp)
	return nil
}

func (n *fakeNIC) Recv(buf []byte) (int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for len(n.inbox) == 0 && !n.closed {
		n.cond.Wait()
	}
	if len(n.inbox) == 0 && n.closed {
		return 0, errClosed
	}
	pkt := n.inbox[0]
	n.inbox = n.inbox[1:]
	return copy(buf, pkt), nil
}

func (n *fakeNIC) deliver(pkt []byte) {
	n.mu.Lock()
	defer n.mu.Unlock()
	cp := make([]byte, len(pkt))
	copy(cp, pkt)
	n.inbox = append(n.inbox, cp)
	n.cond.Signal()
}

func (n *fakeNIC) Up() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.up
}

func (n *fakeNIC) setUp(up bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.up = up
}

func (n *fakeNIC) SetMaxRate(bitsPerSec uint64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.maxRate = bitsPerSec
	return nil
}

func (n *fakeNIC) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	n.cond.Broadcast()
	return nil
}

func (n *fakeNIC) sentCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}
