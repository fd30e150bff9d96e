// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"probe/internal/transport"
)

/*
UDP Packet Structure (BigEndian)

+-----------------------------------------------------------------------------+
| Field             | Data Type      | Size (Bytes) | Description             |
|-------------------|----------------|--------------|-------------------------|
| Sequence Number   | uint32         | 4            | Monotonically increasing|
| Timestamp         | int64          | 8            | Nanoseconds since epoch |
| Sample Count      | uint16         | 2            | Number of samples (N)   |
| Samples           | N * (u32, f32) | N * 8        | Block index, value      |
+-----------------------------------------------------------------------------+
*/
const (
	headerSize          = 4 + 8 + 2
	sampleSize          = 4 + 4
	maxPayload          = 1400 // Stay under a typical Ethernet MTU
	MaxSamplesPerPacket = (maxPayload - headerSize) / sampleSize
)

// ErrShortPacket is returned by DecodePacket for truncated datagrams.
var ErrShortPacket = errors.New("udp: short packet")

// Packet is a decoded datagram.
type Packet struct {
	Sequence  uint32
	Timestamp time.Time
	Samples   []transport.Sample
}

// Publisher packs drained samples into datagrams and sends them through a
// UDPSender. It implements transport.Transport and is driven by the drainer,
// so it never sees concurrent Send calls.
type Publisher struct {
	sender      *UDPSender
	sequenceNum uint32
	now         func() time.Time

	packetBuffer *bytes.Buffer // Reused for every datagram
}

// NewPublisher wraps sender.
func NewPublisher(sender *UDPSender) (*Publisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("udp publisher: sender cannot be nil")
	}
	return &Publisher{
		sender:       sender,
		now:          time.Now,
		packetBuffer: bytes.NewBuffer(make([]byte, 0, maxPayload)),
	}, nil
}

// Send splits batch into packets of at most MaxSamplesPerPacket samples.
func (p *Publisher) Send(batch []transport.Sample) error {
	for len(batch) > 0 {
		n := min(len(batch), MaxSamplesPerPacket)
		p.sequenceNum++
		p.packetBuffer.Reset()
		encodePacket(p.packetBuffer, p.sequenceNum, p.now(), batch[:n])
		if err := p.sender.Send(p.packetBuffer.Bytes()); err != nil {
			return err
		}
		batch = batch[n:]
	}
	return nil
}

// Close closes the underlying sender.
func (p *Publisher) Close() error {
	return p.sender.Close()
}

func encodePacket(buf *bytes.Buffer, seq uint32, ts time.Time, samples []transport.Sample) {
	var scratch [headerSize]byte
	binary.BigEndian.PutUint32(scratch[0:4], seq)
	binary.BigEndian.PutUint64(scratch[4:12], uint64(ts.UnixNano()))
	binary.BigEndian.PutUint16(scratch[12:14], uint16(len(samples)))
	buf.Write(scratch[:])

	var pair [sampleSize]byte
	for _, s := range samples {
		binary.BigEndian.PutUint32(pair[0:4], uint32(s.Index))
		binary.BigEndian.PutUint32(pair[4:8], math.Float32bits(s.Value))
		buf.Write(pair[:])
	}
}

// DecodePacket parses one datagram produced by Publisher.
func DecodePacket(data []byte) (Packet, error) {
	if len(data) < headerSize {
		return Packet{}, ErrShortPacket
	}
	count := int(binary.BigEndian.Uint16(data[12:14]))
	if len(data) < headerSize+count*sampleSize {
		return Packet{}, fmt.Errorf("%w: header says %d samples, have %d bytes", ErrShortPacket, count, len(data))
	}

	pkt := Packet{
		Sequence:  binary.BigEndian.Uint32(data[0:4]),
		Timestamp: time.Unix(0, int64(binary.BigEndian.Uint64(data[4:12]))),
		Samples:   make([]transport.Sample, count),
	}
	body := data[headerSize:]
	for i := range count {
		off := i * sampleSize
		pkt.Samples[i] = transport.Sample{
			Index: int(binary.BigEndian.Uint32(body[off : off+4])),
			Value: math.Float32frombits(binary.BigEndian.Uint32(body[off+4 : off+8])),
		}
	}
	return pkt, nil
}

var _ transport.Transport = (*Publisher)(nil)
