package rtpbond

import (
	"fmt"
	"net"
)

// NIC abstracts one leg of a redundant transmit or receive path: sending
// or receiving raw RTP datagrams, reporting link state, and accepting a
// target output rate for the kernel queue discipline underneath.
type NIC interface {
	Send(pkt []byte) error
	Recv(buf []byte) (int, error)
	Up() bool
	SetMaxRate(bitsPerSec uint64) error
	Close() error
}

// udpNIC is a NIC backed by a UDP socket. Up always reports true: a plain
// UDP socket carries no link-state signal of its own. A real deployment
// observes link state via the interface's carrier flag (e.g. reading
// /sys/class/net/<if>/carrier) and should wrap that read into the Up
// closure; this constructor defaults to "always up" so unit tests and
// loopback use don't require privileged interface access.
type udpNIC struct {
	conn *net.UDPConn
	up   func() bool
}

// NewUDPTxNIC dials a UDP socket used as a transmit-only NIC.
func NewUDPTxNIC(raddr string) (NIC, error) {
	addr, err := net.ResolveUDPAddr("udp", raddr)
	if err != nil {
		return nil, fmt.Errorf("rtpbond: resolve %q: %w", raddr, err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("rtpbond: dial %q: %w", raddr, err)
	}
	return &udpNIC{conn: conn, up: func() bool { return true }}, nil
}

// NewUDPRxNIC listens on a UDP socket used as a receive-only NIC.
func NewUDPRxNIC(laddr string) (NIC, error) {
	addr, err := net.ResolveUDPAddr("udp", laddr)
	if err != nil {
		return nil, fmt.Errorf("rtpbond: resolve %q: %w", laddr, err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("rtpbond: listen %q: %w", laddr, err)
	}
	return &udpNIC{conn: conn, up: func() bool { return true }}, nil
}

func (n *udpNIC) Send(pkt []byte) error {
	_, err := n.conn.Write(pkt)
	return err
}

func (n *udpNIC) Recv(buf []byte) (int, error) {
	return n.conn.Read(buf)
}

func (n *udpNIC) Up() bool { return n.up() }

// SetMaxRate is a soft no-op: tuning a queue's tx_maxrate sysctl requires
// CAP_NET_ADMIN and a real NIC queue, neither available behind a plain
// UDP socket, so pacing here relies entirely on the sender's own rate
// limiter rather than kernel-side shaping.
func (n *udpNIC) SetMaxRate(bitsPerSec uint64) error { return nil }

func (n *udpNIC) Close() error { return n.conn.Close() }
