// Package config centralizes environment-variable configuration using an
// envOr fallback-default pattern, built once into a typed Config at
// startup rather than read ad hoc throughout the program.
package config

import (
	"os"
	"strconv"
)

// Config holds every tunable the engine reads from the environment.
type Config struct {
	// Debug enables slog.LevelDebug.
	Debug bool

	// NIC device/address pairs for the redundant sender and receiver.
	// These are UDP remote/local addresses in this software-NIC build
	// (see internal/rtpbond.NIC), not interface names, since there is no
	// netmap/PACKET_MMAP binding in this environment.
	TxNIC0Addr string
	TxNIC1Addr string
	RxNIC0Addr string
	RxNIC1Addr string

	// BitrateBPS is the target RTP send rate in bits/sec. The sender does
	// not read it: its pacing limiters are sized from PacketSize,
	// PacketsPerFrame and the frame rate.
	BitrateBPS uint64

	// PacketSize and PacketsPerFrame feed that pacing computation.
	PacketSize      int
	PacketsPerFrame int

	// SCTE35IntervalTicks is the generator's periodic send interval in
	// 27MHz ticks.
	SCTE35IntervalTicks int64

	// QueueBound is the default bounded-queue depth for stage
	// backpressure.
	QueueBound int

	// MetricsAddr is the address the Prometheus HTTP handler listens on.
	MetricsAddr string
}

// FromEnv builds a Config from the process environment, applying a
// fallback default to every unset variable.
func FromEnv() Config {
	return Config{
		Debug:               os.Getenv("DEBUG") != "",
		TxNIC0Addr:          envOr("TX_NIC0_ADDR", "127.0.0.1:5000"),
		TxNIC1Addr:          envOr("TX_NIC1_ADDR", "127.0.0.1:5001"),
		RxNIC0Addr:          envOr("RX_NIC0_ADDR", ":5000"),
		RxNIC1Addr:          envOr("RX_NIC1_ADDR", ":5001"),
		BitrateBPS:          envOrUint64("BITRATE_BPS", 1_485_000_000), // ~1080i25 HBRMT
		PacketSize:          envOrInt("PACKET_SIZE", 1380),
		PacketsPerFrame:     envOrInt("PACKETS_PER_FRAME", 4000),
		SCTE35IntervalTicks: envOrInt64("SCTE35_INTERVAL_TICKS", 27_000_000), // 1s
		QueueBound:          envOrInt("QUEUE_BOUND", 8),
		MetricsAddr:         envOr("METRICS_ADDR", ":9090"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envOrInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envOrUint64(key string, fallback uint64) uint64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}
