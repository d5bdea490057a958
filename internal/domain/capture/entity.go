package capture

import "time"

// TCPFlags is the flag byte of a TCP segment.
type TCPFlags uint8

const (
	FlagFIN TCPFlags = 1 << iota
	FlagSYN
	FlagRST
	FlagPSH
	FlagACK
	FlagURG
)

// TCPLayer carries the transport fields the summarizer cares about.
type TCPLayer struct {
	SrcPort uint16
	DstPort uint16
	Flags   TCPFlags
}

// UDPLayer carries UDP transport fields.
type UDPLayer struct {
	SrcPort uint16
	DstPort uint16
}

// DecodedPacket is one packet from a capture trace with its decoded layers.
// A layer pointer is nil when the packet does not carry that layer.
type DecodedPacket struct {
	Timestamp time.Time
	Length    int
	SrcIP     string
	DstIP     string
	TCP       *TCPLayer
	UDP       *UDPLayer
	DNS       bool
}

// TimelineSample is one point of the bounded trace timeline.
type TimelineSample struct {
	Time   int64 `json:"time"`
	Length int   `json:"len"`
}

// PacketStats is the aggregate result of one trace analysis.
// The protocol counts sum to PacketCount; the timeline never exceeds
// 100 samples regardless of trace size.
type PacketStats struct {
	PacketCount     int              `json:"packets"`
	Duration        string           `json:"duration"`
	ProtocolCounts  map[string]int   `json:"protocols"`
	SuspiciousCount int              `json:"suspicious"`
	Timeline        []TimelineSample `json:"timeline"`
}

// ChartPoint is a protocol histogram entry shaped for the dashboard chart.
type ChartPoint struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}
