// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer

import (
	"net"
	"sync"
)

// session is one peer connection: a socket, the peer's IP, and a FIFO
// of outbound byte buffers awaiting write. It has no notion of
// framing; bytes go over the wire exactly as enqueued.
type session struct {
	ip   string
	conn net.Conn

	mu      sync.Mutex
	pending [][]byte
	writing bool
}

func newSession(ip string, conn net.Conn) *session {
	return &session{ip: ip, conn: conn}
}

// enqueue appends data to the outbound FIFO. If no write is currently
// in flight, it starts one immediately on the calling goroutine's
// behalf by spawning the drain loop; otherwise data is appended and
// drained once the in-flight write completes.
//
// A session whose drain loop has already exited after a write error
// never resets writing back to false (see §9 design note 6: peer
// sessions that error are not removed from the map), so further
// enqueues on a dead session simply accumulate in pending forever
// rather than failing. That is the literal, preserved behavior, not
// an oversight here.
func (s *session) enqueue(data []byte) {
	s.mu.Lock()
	if s.writing {
		s.pending = append(s.pending, data)
		s.mu.Unlock()
		return
	}
	s.writing = true
	s.mu.Unlock()
	go s.drain(data)
}

// drain writes first, then continues popping and writing from pending
// until it is empty. On any write error the socket is closed and the
// loop exits without clearing writing, so the session is left unable
// to ever flush again.
func (s *session) drain(first []byte) {
	buf := first
	for {
		if _, err := s.conn.Write(buf); err != nil {
			log.Errorf("peer: write to %s: %v", s.ip, err)
			s.conn.Close()
			return
		}
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.writing = false
			s.mu.Unlock()
			return
		}
		buf = s.pending[0]
		s.pending = s.pending[1:]
		s.mu.Unlock()
	}
}

// readLoop blocks reading from the socket, delivering every nonempty
// read directly to deliver with no framing applied. It returns once
// the socket errors or is closed; per §9 design note 6 the caller does
// not remove the session from the manager's map on return.
func (s *session) readLoop(deliver func(ip string, data []byte)) {
	buf := make([]byte, 64*1024)
	for {
		n, err := s.conn.Read(buf)
		if n > 0 && deliver != nil {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			deliver(s.ip, chunk)
		}
		if err != nil {
			log.Warnf("peer: read from %s: %v", s.ip, err)
			s.conn.Close()
			return
		}
	}
}
