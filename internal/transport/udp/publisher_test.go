// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"errors"
	"net"
	"testing"
	"time"

	"probe/internal/transport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacketRoundTrip(t *testing.T) {
	ts := time.Unix(1700000000, 42)
	samples := []transport.Sample{{Index: 0, Value: 0.5}, {Index: 1, Value: -0.25}, {Index: 2, Value: 1}}

	var buf bytes.Buffer
	encodePacket(&buf, 7, ts, samples)
	assert.Equal(t, headerSize+3*sampleSize, buf.Len())

	pkt, err := DecodePacket(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, uint32(7), pkt.Sequence)
	assert.True(t, pkt.Timestamp.Equal(ts))
	assert.Equal(t, samples, pkt.Samples)
}

func TestDecodePacketShort(t *testing.T) {
	_, err := DecodePacket([]byte{1, 2, 3})
	assert.True(t, errors.Is(err, ErrShortPacket))

	var buf bytes.Buffer
	encodePacket(&buf, 1, time.Now(), []transport.Sample{{Index: 0, Value: 1}, {Index: 1, Value: 2}})
	_, err = DecodePacket(buf.Bytes()[:buf.Len()-1])
	assert.True(t, errors.Is(err, ErrShortPacket))
}

func TestPublisherSplitsBatches(t *testing.T) {
	listener, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer listener.Close()

	sender, err := NewUDPSender(listener.LocalAddr().String())
	require.NoError(t, err)
	pub, err := NewPublisher(sender)
	require.NoError(t, err)
	defer pub.Close()

	total := MaxSamplesPerPacket + 10
	batch := make([]transport.Sample, total)
	for i := range batch {
		batch[i] = transport.Sample{Index: i, Value: float32(i) / 100}
	}
	require.NoError(t, pub.Send(batch))

	var got []transport.Sample
	var seqs []uint32
	buf := make([]byte, 2048)
	for len(got) < total {
		require.NoError(t, listener.SetReadDeadline(time.Now().Add(2*time.Second)))
		n, _, err := listener.ReadFromUDP(buf)
		require.NoError(t, err)
		pkt, err := DecodePacket(buf[:n])
		require.NoError(t, err)
		assert.LessOrEqual(t, n, maxPayload)
		seqs = append(seqs, pkt.Sequence)
		got = append(got, pkt.Samples...)
	}

	assert.Equal(t, []uint32{1, 2}, seqs)
	assert.Equal(t, batch, got)
}

func TestNewPublisherNilSender(t *testing.T) {
	_, err := NewPublisher(nil)
	assert.Error(t, err)
}

func TestSenderClosed(t *testing.T) {
	sender, err := NewUDPSender("127.0.0.1:9")
	require.NoError(t, err)
	require.NoError(t, sender.Close())
	assert.NoError(t, sender.Close())
	assert.ErrorIs(t, sender.Send([]byte{1}), transport.ErrClosed)
}
