package capture

import (
	"testing"
	"time"
)

func tcpPacket(ts time.Time, length int, flags TCPFlags) DecodedPacket {
	return DecodedPacket{
		Timestamp: ts,
		Length:    length,
		TCP:       &TCPLayer{SrcPort: 40000, DstPort: 80, Flags: flags},
	}
}

func TestSummarizeEmptyTrace(t *testing.T) {
	stats := Summarize(nil)

	if stats.PacketCount != 0 {
		t.Fatalf("packet count = %d, want 0", stats.PacketCount)
	}
	if stats.Duration != DurationUnavailable {
		t.Fatalf("duration = %q, want %q", stats.Duration, DurationUnavailable)
	}
	for proto, n := range stats.ProtocolCounts {
		if n != 0 {
			t.Fatalf("protocol %s count = %d, want 0", proto, n)
		}
	}
	if len(stats.Timeline) != 0 {
		t.Fatalf("timeline length = %d, want 0", len(stats.Timeline))
	}
	if stats.SuspiciousCount != 0 {
		t.Fatalf("suspicious = %d, want 0", stats.SuspiciousCount)
	}
}

func TestSummarizeProtocolCountsSumToPacketCount(t *testing.T) {
	base := time.Unix(1700000000, 0)
	packets := []DecodedPacket{
		tcpPacket(base, 60, FlagSYN|FlagACK),
		{Timestamp: base.Add(time.Second), Length: 90, UDP: &UDPLayer{SrcPort: 1234, DstPort: 4567}},
		{Timestamp: base.Add(2 * time.Second), Length: 80, DNS: true},
		{Timestamp: base.Add(3 * time.Second), Length: 40},
	}

	stats := Summarize(packets)

	sum := 0
	for _, n := range stats.ProtocolCounts {
		sum += n
	}
	if sum != stats.PacketCount {
		t.Fatalf("protocol counts sum %d != packet count %d", sum, stats.PacketCount)
	}
	for proto, want := range map[string]int{"TCP": 1, "UDP": 1, "DNS": 1, "Other": 1} {
		if stats.ProtocolCounts[proto] != want {
			t.Fatalf("protocol %s = %d, want %d", proto, stats.ProtocolCounts[proto], want)
		}
	}
}

func TestSummarizeFirstMatchWins(t *testing.T) {
	// DNS over TCP carries both layers and counts once, under TCP
	pkt := tcpPacket(time.Unix(1700000000, 0), 70, FlagACK)
	pkt.DNS = true

	stats := Summarize([]DecodedPacket{pkt})
	if stats.ProtocolCounts["TCP"] != 1 || stats.ProtocolCounts["DNS"] != 0 {
		t.Fatalf("protocol counts = %v, want TCP=1 DNS=0", stats.ProtocolCounts)
	}
}

func TestSummarizeSynOnlyHeuristic(t *testing.T) {
	base := time.Unix(1700000000, 0)
	packets := []DecodedPacket{
		tcpPacket(base, 60, FlagSYN),          // counted
		tcpPacket(base, 60, FlagSYN|FlagACK),  // handshake reply, not counted
		tcpPacket(base, 60, FlagACK),          // not counted
		tcpPacket(base, 60, FlagSYN),          // counted
		{Timestamp: base, Length: 60, UDP: &UDPLayer{}}, // not TCP
	}

	stats := Summarize(packets)
	if stats.SuspiciousCount != 2 {
		t.Fatalf("suspicious = %d, want 2", stats.SuspiciousCount)
	}
}

func TestSummarizeTimelineIsBounded(t *testing.T) {
	base := time.Unix(1700000000, 0)
	packets := make([]DecodedPacket, 250)
	for i := range packets {
		packets[i] = tcpPacket(base.Add(time.Duration(i)*time.Millisecond), 64+i, FlagACK)
	}

	stats := Summarize(packets)
	if stats.PacketCount != 250 {
		t.Fatalf("packet count = %d, want 250", stats.PacketCount)
	}
	if len(stats.Timeline) != 100 {
		t.Fatalf("timeline length = %d, want 100", len(stats.Timeline))
	}
	if stats.Timeline[0].Length != 64 {
		t.Fatalf("first sample length = %d, want 64", stats.Timeline[0].Length)
	}
}

func TestSummarizeDuration(t *testing.T) {
	base := time.Unix(1700000000, 0)
	packets := []DecodedPacket{
		tcpPacket(base, 60, FlagACK),
		tcpPacket(base.Add(5*time.Second+500*time.Millisecond), 60, FlagACK),
	}

	stats := Summarize(packets)
	if stats.Duration != "5.50s" {
		t.Fatalf("duration = %q, want 5.50s", stats.Duration)
	}

	single := Summarize(packets[:1])
	if single.Duration != DurationUnavailable {
		t.Fatalf("single-packet duration = %q, want %q", single.Duration, DurationUnavailable)
	}
}

func TestChartSeriesSkipsZeroProtocols(t *testing.T) {
	base := time.Unix(1700000000, 0)
	stats := Summarize([]DecodedPacket{
		tcpPacket(base, 60, FlagACK),
		tcpPacket(base, 61, FlagACK),
	})

	chart := ChartSeries(stats)
	if len(chart) != 1 {
		t.Fatalf("chart length = %d, want 1", len(chart))
	}
	if chart[0].Name != "TCP" || chart[0].Value != 2 {
		t.Fatalf("chart[0] = %+v, want {TCP 2}", chart[0])
	}
}
