// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer

import (
	"io"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.True(t, cond(), "condition not met within %s", timeout)
}

func TestManagerAcceptAndSendData(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	_, portStr, err := net.SplitHostPort(listener.Addr().String())
	require.NoError(t, err)
	require.NoError(t, listener.Close())

	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	m := New("")
	var mu sync.Mutex
	var received [][]byte
	m.SetReceiveCallback(func(ip string, data []byte) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, data)
	})
	require.NoError(t, m.Start(uint16(port)))
	defer m.Stop()

	require.NoError(t, m.ConnectToPeer("127.0.0.1", uint16(port)))

	waitFor(t, time.Second, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		return len(m.sessions) == 1 // inbound and outbound both key on "127.0.0.1"
	})

	require.True(t, m.SendData("127.0.0.1", []byte("hello")))

	waitFor(t, time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1
	})

	mu.Lock()
	require.Equal(t, []byte("hello"), received[0])
	mu.Unlock()
}

func TestManagerSendDataUnknownPeer(t *testing.T) {
	m := New("")
	require.False(t, m.SendData("10.0.0.9", []byte("x")))
}

func TestManagerBroadcastReachesAllSessions(t *testing.T) {
	aLocal, aRemote := net.Pipe()
	bLocal, bRemote := net.Pipe()
	m := New("")
	m.installSession("peer-a", aLocal)
	m.installSession("peer-b", bLocal)

	readFrom := func(c net.Conn) <-chan []byte {
		ch := make(chan []byte, 1)
		go func() {
			buf := make([]byte, 3)
			n, _ := io.ReadFull(c, buf)
			ch <- buf[:n]
		}()
		return ch
	}
	gotA := readFrom(aRemote)
	gotB := readFrom(bRemote)

	m.BroadcastData([]byte("hey"))
	for name, ch := range map[string]<-chan []byte{"peer-a": gotA, "peer-b": gotB} {
		select {
		case got := <-ch:
			require.Equal(t, []byte("hey"), got)
		case <-time.After(time.Second):
			t.Fatalf("broadcast did not reach %s", name)
		}
	}
}

