package pcapfile

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	capture "github.com/renuka1112/cyberspy/internal/domain/capture"
)

// Classic libpcap file magics, both byte orders, usec and nsec variants.
const (
	magicUsec        = 0xa1b2c3d4
	magicUsecSwapped = 0xd4c3b2a1
	magicNsec        = 0xa1b23c4d
	magicNsecSwapped = 0x4d3cb2a1
)

// Link-layer header types this decoder understands.
const (
	linkNull     = 0
	linkEthernet = 1
	linkRaw      = 101
)

const (
	etherTypeIPv4 = 0x0800
	etherTypeIPv6 = 0x86dd
	etherTypeVLAN = 0x8100
	etherTypeQinQ = 0x88a8

	protoTCP = 6
	protoUDP = 17

	dnsPort = 53
)

// Decoder reads classic libpcap capture files and yields decoded packets.
// Unparseable link or network payloads are kept as packets with no decoded
// layers rather than dropped, so counts still match the trace.
type Decoder struct{}

func New() *Decoder { return &Decoder{} }

// Decode reads the capture file at path and returns its packets in order.
func (d *Decoder) Decode(path string) ([]capture.DecodedPacket, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return d.decode(bufio.NewReader(f))
}

func (d *Decoder) decode(r io.Reader) ([]capture.DecodedPacket, error) {
	var header [24]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("read pcap header: %w", err)
	}

	magic := binary.LittleEndian.Uint32(header[0:4])
	var order binary.ByteOrder = binary.LittleEndian
	nanos := false
	switch magic {
	case magicUsec:
	case magicNsec:
		nanos = true
	case magicUsecSwapped:
		order = binary.BigEndian
	case magicNsecSwapped:
		order = binary.BigEndian
		nanos = true
	default:
		return nil, fmt.Errorf("not a pcap file (magic %#x)", magic)
	}

	linkType := order.Uint32(header[20:24])

	var packets []capture.DecodedPacket
	var rec [16]byte
	for {
		if _, err := io.ReadFull(r, rec[:]); err != nil {
			if err == io.EOF {
				return packets, nil
			}
			return nil, fmt.Errorf("read record header: %w", err)
		}

		sec := order.Uint32(rec[0:4])
		sub := order.Uint32(rec[4:8])
		inclLen := order.Uint32(rec[8:12])
		origLen := order.Uint32(rec[12:16])

		if inclLen > 1<<26 {
			return nil, fmt.Errorf("record length %d exceeds sanity limit", inclLen)
		}
		data := make([]byte, inclLen)
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, fmt.Errorf("read packet data: %w", err)
		}

		ts := time.Unix(int64(sec), subToNanos(sub, nanos)).UTC()
		pkt := capture.DecodedPacket{
			Timestamp: ts,
			Length:    int(origLen),
		}
		decodeLayers(&pkt, linkType, data)
		packets = append(packets, pkt)
	}
}

func subToNanos(sub uint32, nanos bool) int64 {
	if nanos {
		return int64(sub)
	}
	return int64(sub) * 1000
}

func decodeLayers(pkt *capture.DecodedPacket, linkType uint32, data []byte) {
	var payload []byte
	var isV6 bool

	switch linkType {
	case linkEthernet:
		if len(data) < 14 {
			return
		}
		etherType := binary.BigEndian.Uint16(data[12:14])
		offset := 14
		// single VLAN tag is enough for demo traces
		if etherType == etherTypeVLAN || etherType == etherTypeQinQ {
			if len(data) < 18 {
				return
			}
			etherType = binary.BigEndian.Uint16(data[16:18])
			offset = 18
		}
		switch etherType {
		case etherTypeIPv4:
			payload = data[offset:]
		case etherTypeIPv6:
			payload = data[offset:]
			isV6 = true
		default:
			return
		}
	case linkRaw:
		payload = data
		if len(data) > 0 && data[0]>>4 == 6 {
			isV6 = true
		}
	case linkNull:
		if len(data) < 4 {
			return
		}
		payload = data[4:]
		if len(payload) > 0 && payload[0]>>4 == 6 {
			isV6 = true
		}
	default:
		return
	}

	if isV6 {
		decodeIPv6(pkt, payload)
	} else {
		decodeIPv4(pkt, payload)
	}
}

func decodeIPv4(pkt *capture.DecodedPacket, b []byte) {
	if len(b) < 20 || b[0]>>4 != 4 {
		return
	}
	ihl := int(b[0]&0x0f) * 4
	if ihl < 20 || len(b) < ihl {
		return
	}
	pkt.SrcIP = net.IP(b[12:16]).String()
	pkt.DstIP = net.IP(b[16:20]).String()
	decodeTransport(pkt, b[9], b[ihl:])
}

func decodeIPv6(pkt *capture.DecodedPacket, b []byte) {
	if len(b) < 40 || b[0]>>4 != 6 {
		return
	}
	pkt.SrcIP = net.IP(b[8:24]).String()
	pkt.DstIP = net.IP(b[24:40]).String()
	// extension headers are not walked; plain TCP/UDP next-header only
	decodeTransport(pkt, b[6], b[40:])
}

func decodeTransport(pkt *capture.DecodedPacket, proto byte, b []byte) {
	switch proto {
	case protoTCP:
		if len(b) < 14 {
			return
		}
		tcp := &capture.TCPLayer{
			SrcPort: binary.BigEndian.Uint16(b[0:2]),
			DstPort: binary.BigEndian.Uint16(b[2:4]),
			Flags:   capture.TCPFlags(b[13] & 0x3f),
		}
		pkt.TCP = tcp
		pkt.DNS = tcp.SrcPort == dnsPort || tcp.DstPort == dnsPort
	case protoUDP:
		if len(b) < 8 {
			return
		}
		udp := &capture.UDPLayer{
			SrcPort: binary.BigEndian.Uint16(b[0:2]),
			DstPort: binary.BigEndian.Uint16(b[2:4]),
		}
		pkt.UDP = udp
		pkt.DNS = udp.SrcPort == dnsPort || udp.DstPort == dnsPort
	}
}
