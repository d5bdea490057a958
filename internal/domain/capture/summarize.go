package capture

import "fmt"

const timelineCap = 100

// DurationUnavailable is reported when fewer than 2 packets exist.
const DurationUnavailable = "unavailable"

// Summarize runs a single forward pass over a decoded packet sequence and
// produces protocol counts, the scan heuristic tally, and a bounded timeline.
// Classification is first-match-wins across TCP, UDP, DNS; a packet carrying
// several classified layers is counted once under the first.
func Summarize(packets []DecodedPacket) PacketStats {
	stats := PacketStats{
		PacketCount: len(packets),
		Duration:    DurationUnavailable,
		ProtocolCounts: map[string]int{
			"TCP":   0,
			"UDP":   0,
			"DNS":   0,
			"Other": 0,
		},
		Timeline: []TimelineSample{},
	}

	for _, p := range packets {
		switch {
		case p.TCP != nil:
			stats.ProtocolCounts["TCP"]++
		case p.UDP != nil:
			stats.ProtocolCounts["UDP"]++
		case p.DNS:
			stats.ProtocolCounts["DNS"]++
		default:
			stats.ProtocolCounts["Other"]++
		}

		// SYN with no other flag set is the naive port-scan signal
		if p.TCP != nil && p.TCP.Flags == FlagSYN {
			stats.SuspiciousCount++
		}

		if len(stats.Timeline) < timelineCap {
			stats.Timeline = append(stats.Timeline, TimelineSample{
				Time:   p.Timestamp.Unix(),
				Length: p.Length,
			})
		}
	}

	if len(packets) > 1 {
		d := packets[len(packets)-1].Timestamp.Sub(packets[0].Timestamp).Seconds()
		stats.Duration = fmt.Sprintf("%.2fs", d)
	}

	return stats
}

// ChartSeries reshapes non-zero protocol counts for the frontend pie chart.
func ChartSeries(stats PacketStats) []ChartPoint {
	// fixed order so the chart legend does not jump between uploads
	names := []string{"TCP", "UDP", "DNS", "Other"}
	out := []ChartPoint{}
	for _, name := range names {
		if v := stats.ProtocolCounts[name]; v > 0 {
			out = append(out, ChartPoint{Name: name, Value: v})
		}
	}
	return out
}
