// SPDX-License-Identifier: MIT
package transport

import (
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestWebSocketBroadcast(t *testing.T) {
	defer goleak.VerifyNone(t)

	wst, err := NewWebSocketTransport("127.0.0.1:0", "sess-1", "mic:capture_1")
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+wst.Addr()+"/ws", nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return wst.ClientCount() == 1 },
		2*time.Second, 5*time.Millisecond, "client never registered")

	require.NoError(t, wst.Send([]Sample{{0, 0.5}, {1, -0.25}}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg WSMessage
	require.NoError(t, conn.ReadJSON(&msg))

	assert.Equal(t, "sess-1", msg.Session)
	assert.Equal(t, "mic:capture_1", msg.Port)
	require.Len(t, msg.Samples, 2)
	assert.Equal(t, 1, msg.Samples[1].Index)
	assert.InDelta(t, -0.25, msg.Samples[1].Value, 1e-6)

	require.NoError(t, conn.Close())
	require.NoError(t, wst.Close())
	assert.ErrorIs(t, wst.Send([]Sample{{0, 1}}), ErrClosed)
}

func TestWebSocketSendWithoutClients(t *testing.T) {
	defer goleak.VerifyNone(t)

	wst, err := NewWebSocketTransport("127.0.0.1:0", "sess-2", "p")
	require.NoError(t, err)

	// Nobody listening: messages are consumed and discarded, never blocking.
	for range 1000 {
		require.NoError(t, wst.Send([]Sample{{0, 1}}))
	}
	assert.NoError(t, wst.Send(nil))
	require.NoError(t, wst.Close())
	assert.NoError(t, wst.Close(), "second Close is a no-op")
}

func TestWebSocketClientMessagesDoNotHideDisconnect(t *testing.T) {
	defer goleak.VerifyNone(t)

	wst, err := NewWebSocketTransport("127.0.0.1:0", "sess-3", "p")
	require.NoError(t, err)
	defer wst.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+wst.Addr()+"/ws", nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return wst.ClientCount() == 1 },
		2*time.Second, 5*time.Millisecond, "client never registered")

	// Clients may talk; the server keeps reading and still sees the close.
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hello")))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("again")))
	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool { return wst.ClientCount() == 0 },
		2*time.Second, 5*time.Millisecond, "disconnect not noticed after client messages")
}
