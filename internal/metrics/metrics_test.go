package metrics

import "testing"

func TestNewRegistersAllMetrics(t *testing.T) {
	m := New()
	if m.FramesIn == nil || m.FramesOut == nil {
		t.Fatal("expected frame counters initialized")
	}
	if m.SCTE35Events == nil {
		t.Fatal("expected SCTE-35 event counter initialized")
	}
	if m.NICLinkUp == nil || m.NICPacketsTx == nil || m.NICPadsTx == nil || m.NICResyncs == nil {
		t.Fatal("expected NIC metrics initialized")
	}

	// Exercise each metric once to confirm the label sets are wired
	// correctly (wrong arity panics at the client_golang layer).
	m.FramesIn.WithLabelValues("framer").Inc()
	m.Discontinuities.WithLabelValues("rtpbond-rx").Inc()
	m.BackpressureDrops.WithLabelValues("scte35").Inc()
	m.QueueDepth.WithLabelValues("framer").Set(3)
	m.SCTE35Events.WithLabelValues("signal").Inc()
	m.NICLinkUp.WithLabelValues("nic0").Set(1)
	m.NICPacketsTx.WithLabelValues("nic0").Inc()
	m.NICPadsTx.WithLabelValues("nic0").Inc()
	m.NICResyncs.WithLabelValues("nic0").Inc()
}
