package capture

// Decoder port (interface untuk trace decoding collaborator)
type Decoder interface {
	// Decode reads a capture file and returns its packets in trace order.
	Decode(path string) ([]DecodedPacket, error)
}
