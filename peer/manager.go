// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package peer owns the TCP transport: a listener that accepts
// inbound connections, an outbound dialler (optionally through a
// SOCKS5 proxy), and per-peer sessions with their own write FIFO.
//
// It has no notion of message framing or chain semantics — it only
// ever moves raw bytes. The node package is the one that reassembles
// those bytes into length-prefixed messages and dispatches them; that
// split keeps "the inbound callback should deliver bytes, not
// messages" (design note §9) intact.
package peer

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/btcsuite/go-socks/socks"
)

// ReceiveCallback is invoked once per inbound read, with exactly the
// bytes read from that peer. There is no framing guarantee across
// calls.
type ReceiveCallback func(ip string, data []byte)

// Manager is the peer-to-peer transport: one TCP listener, a map of
// connected sessions keyed by peer IP, and the single receive sink
// every session's read loop feeds into.
type Manager struct {
	proxyAddr string

	mu       sync.Mutex
	sessions map[string]*session
	receive  ReceiveCallback

	listener net.Listener
	quit     chan struct{}
	wg       sync.WaitGroup
}

// New constructs a Manager. proxyAddr, if non-empty, routes
// ConnectToPeer dials through a SOCKS5 proxy at that address.
func New(proxyAddr string) *Manager {
	return &Manager{
		proxyAddr: proxyAddr,
		sessions:  make(map[string]*session),
		quit:      make(chan struct{}),
	}
}

// SetReceiveCallback installs the sink invoked on every inbound read
// from any session. It must be called before Start to avoid a race
// against early inbound connections.
func (m *Manager) SetReceiveCallback(cb ReceiveCallback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.receive = cb
}

func (m *Manager) deliver(ip string, data []byte) {
	m.mu.Lock()
	cb := m.receive
	m.mu.Unlock()
	if cb != nil {
		cb(ip, data)
	}
}

// Start binds a TCP listener on port and spawns the accept loop on its
// own goroutine, the "I/O event loop" of §4.7 — reinterpreted in Go as
// one goroutine per connection rather than a single polling thread,
// since that is the idiomatic shape for blocking reads/writes here.
func (m *Manager) Start(port uint16) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("peer: listen on port %d: %w", port, err)
	}
	m.listener = ln

	m.wg.Add(1)
	go m.acceptLoop()
	log.Infof("peer: listening on %s", ln.Addr())
	return nil
}

func (m *Manager) acceptLoop() {
	defer m.wg.Done()
	for {
		conn, err := m.listener.Accept()
		if err != nil {
			select {
			case <-m.quit:
				return
			default:
			}
			log.Errorf("peer: accept: %v", err)
			return
		}
		ip := hostOf(conn.RemoteAddr())
		m.installSession(ip, conn)
		log.Infof("peer: accepted inbound connection from %s", ip)
	}
}

// Stop halts the accept loop and closes the listener and every
// connected session's socket, then joins the accept-loop goroutine. It
// does not join per-session read/write goroutines individually: those
// exit on their own once their socket closes.
func (m *Manager) Stop() {
	close(m.quit)
	if m.listener != nil {
		m.listener.Close()
	}

	m.mu.Lock()
	for _, s := range m.sessions {
		s.conn.Close()
	}
	m.mu.Unlock()

	m.wg.Wait()
}

// ConnectToPeer dials ip:port, through the configured SOCKS5 proxy if
// one was given to New, and installs the resulting connection as a
// session under ip.
func (m *Manager) ConnectToPeer(ip string, port uint16) error {
	addr := net.JoinHostPort(ip, fmt.Sprintf("%d", port))

	var (
		conn net.Conn
		err  error
	)
	if m.proxyAddr != "" {
		proxy := &socks.Proxy{Addr: m.proxyAddr}
		conn, err = proxy.Dial("tcp", addr)
	} else {
		conn, err = net.DialTimeout("tcp", addr, 10*time.Second)
	}
	if err != nil {
		return fmt.Errorf("peer: connect to %s: %w", addr, err)
	}

	m.installSession(ip, conn)
	log.Infof("peer: connected to %s", addr)
	return nil
}

func (m *Manager) installSession(ip string, conn net.Conn) {
	s := newSession(ip, conn)

	m.mu.Lock()
	m.sessions[ip] = s
	m.mu.Unlock()

	go s.readLoop(m.deliver)
}

// SendData enqueues data on ip's outbound FIFO. It reports false if no
// session for ip exists; it never inspects whether a prior write on
// that session has failed (§9 design note 6).
func (m *Manager) SendData(ip string, data []byte) bool {
	m.mu.Lock()
	s, ok := m.sessions[ip]
	m.mu.Unlock()
	if !ok {
		return false
	}
	s.enqueue(data)
	return true
}

// BroadcastData enqueues data on every currently-connected session.
func (m *Manager) BroadcastData(data []byte) {
	m.mu.Lock()
	sessions := make([]*session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.enqueue(data)
	}
}

func hostOf(addr net.Addr) string {
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}
