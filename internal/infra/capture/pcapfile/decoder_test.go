package pcapfile

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	capture "github.com/renuka1112/cyberspy/internal/domain/capture"
)

// writePcap builds a classic little-endian microsecond pcap with the given
// raw frames and returns the file path.
func writePcap(t *testing.T, linkType uint32, frames [][]byte, times []uint32) string {
	t.Helper()

	var buf bytes.Buffer
	header := make([]byte, 24)
	binary.LittleEndian.PutUint32(header[0:4], magicUsec)
	binary.LittleEndian.PutUint16(header[4:6], 2)
	binary.LittleEndian.PutUint16(header[6:8], 4)
	binary.LittleEndian.PutUint32(header[16:20], 65535)
	binary.LittleEndian.PutUint32(header[20:24], linkType)
	buf.Write(header)

	for i, frame := range frames {
		rec := make([]byte, 16)
		binary.LittleEndian.PutUint32(rec[0:4], times[i])
		binary.LittleEndian.PutUint32(rec[4:8], 0)
		binary.LittleEndian.PutUint32(rec[8:12], uint32(len(frame)))
		binary.LittleEndian.PutUint32(rec[12:16], uint32(len(frame)))
		buf.Write(rec)
		buf.Write(frame)
	}

	path := filepath.Join(t.TempDir(), "test.pcap")
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatalf("write pcap: %v", err)
	}
	return path
}

func ethernetIPv4(proto byte, transport []byte) []byte {
	frame := make([]byte, 14)
	binary.BigEndian.PutUint16(frame[12:14], etherTypeIPv4)

	ip := make([]byte, 20)
	ip[0] = 0x45 // version 4, IHL 5
	ip[9] = proto
	copy(ip[12:16], []byte{10, 0, 0, 1})
	copy(ip[16:20], []byte{10, 0, 0, 2})

	return append(append(frame, ip...), transport...)
}

func tcpSegment(srcPort, dstPort uint16, flags byte) []byte {
	seg := make([]byte, 20)
	binary.BigEndian.PutUint16(seg[0:2], srcPort)
	binary.BigEndian.PutUint16(seg[2:4], dstPort)
	seg[12] = 0x50 // data offset 5
	seg[13] = flags
	return seg
}

func udpDatagram(srcPort, dstPort uint16) []byte {
	dg := make([]byte, 8)
	binary.BigEndian.PutUint16(dg[0:2], srcPort)
	binary.BigEndian.PutUint16(dg[2:4], dstPort)
	binary.BigEndian.PutUint16(dg[4:6], 8)
	return dg
}

func TestDecodeEthernetTrace(t *testing.T) {
	frames := [][]byte{
		ethernetIPv4(protoTCP, tcpSegment(40000, 80, 0x02)), // SYN
		ethernetIPv4(protoUDP, udpDatagram(5353, 53)),       // DNS query
		ethernetIPv4(protoTCP, tcpSegment(40000, 80, 0x10)), // ACK
	}
	path := writePcap(t, linkEthernet, frames, []uint32{100, 101, 105})

	packets, err := New().Decode(path)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(packets) != 3 {
		t.Fatalf("packet count = %d, want 3", len(packets))
	}

	first := packets[0]
	if first.TCP == nil {
		t.Fatal("first packet missing TCP layer")
	}
	if first.TCP.Flags != capture.FlagSYN {
		t.Fatalf("first packet flags = %v, want SYN only", first.TCP.Flags)
	}
	if first.SrcIP != "10.0.0.1" || first.DstIP != "10.0.0.2" {
		t.Fatalf("addresses = %s -> %s", first.SrcIP, first.DstIP)
	}
	if first.Timestamp.Unix() != 100 {
		t.Fatalf("timestamp = %d, want 100", first.Timestamp.Unix())
	}

	second := packets[1]
	if second.UDP == nil || !second.DNS {
		t.Fatalf("second packet should be UDP+DNS, got %+v", second)
	}
	if second.UDP.DstPort != 53 {
		t.Fatalf("dst port = %d, want 53", second.UDP.DstPort)
	}

	third := packets[2]
	if third.TCP == nil || third.TCP.Flags != capture.FlagACK {
		t.Fatalf("third packet should be plain ACK, got %+v", third.TCP)
	}
}

func TestDecodeFeedsSummarizer(t *testing.T) {
	frames := [][]byte{
		ethernetIPv4(protoTCP, tcpSegment(1, 80, 0x02)),
		ethernetIPv4(protoTCP, tcpSegment(2, 80, 0x02)),
		ethernetIPv4(protoUDP, udpDatagram(9999, 53)),
	}
	path := writePcap(t, linkEthernet, frames, []uint32{10, 11, 14})

	packets, err := New().Decode(path)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	stats := capture.Summarize(packets)
	if stats.SuspiciousCount != 2 {
		t.Fatalf("suspicious = %d, want 2", stats.SuspiciousCount)
	}
	if stats.ProtocolCounts["TCP"] != 2 || stats.ProtocolCounts["UDP"] != 1 {
		t.Fatalf("protocol counts = %v", stats.ProtocolCounts)
	}
	if stats.Duration != "4.00s" {
		t.Fatalf("duration = %q, want 4.00s", stats.Duration)
	}
}

func TestDecodeRawLinkType(t *testing.T) {
	ip := append([]byte{}, ethernetIPv4(protoUDP, udpDatagram(53, 33000))[14:]...)
	path := writePcap(t, linkRaw, [][]byte{ip}, []uint32{1})

	packets, err := New().Decode(path)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(packets) != 1 || packets[0].UDP == nil || !packets[0].DNS {
		t.Fatalf("raw link decode wrong: %+v", packets)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.bin")
	if err := os.WriteFile(path, []byte("this is definitely not a capture file"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := New().Decode(path); err == nil {
		t.Fatal("expected error for non-pcap input")
	}
}

func TestDecodeUnknownEtherTypeKeptUnclassified(t *testing.T) {
	frame := make([]byte, 14)
	binary.BigEndian.PutUint16(frame[12:14], 0x0806) // ARP
	path := writePcap(t, linkEthernet, [][]byte{frame}, []uint32{1})

	packets, err := New().Decode(path)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(packets) != 1 {
		t.Fatalf("packet count = %d, want 1 (unclassified packets still count)", len(packets))
	}
	p := packets[0]
	if p.TCP != nil || p.UDP != nil || p.DNS {
		t.Fatalf("ARP frame should carry no decoded layers: %+v", p)
	}
}
