// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package node wires the two chains' stores, views and consensus
// engines to a peer.Manager, performs the length-prefixed wire framing
// and dispatch described in §4.8, and runs the TimeChain/ValueChain
// production loops on their own goroutines.
//
// Framing deliberately lives here rather than in peer: peer.Manager's
// receive callback hands node raw, unframed bytes exactly as read off
// the socket (design note §9: "the inbound callback should deliver
// bytes, not messages, to cleanly separate framing from consensus").
package node

import (
	"fmt"
	"net"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/toole-brendan/duonode/config"
	"github.com/toole-brendan/duonode/crypto"
	"github.com/toole-brendan/duonode/genesis"
	"github.com/toole-brendan/duonode/peer"
	"github.com/toole-brendan/duonode/store"
	"github.com/toole-brendan/duonode/timechain"
	"github.com/toole-brendan/duonode/valuechain"
	"github.com/toole-brendan/duonode/wire"
)

const (
	timeChainSubdir  = "time_chain"
	valueChainSubdir = "value_chain"

	timeProductionInterval  = 1 * time.Second
	valueProductionInterval = 5 * time.Second

	peerDialMaxAttempts = 5
	peerDialRetryDelay  = 2 * time.Second
)

// Node owns every long-lived subsystem of one duonode process: both
// chains' stores and consensus engines, the peer transport, the
// per-peer reassembly state, and the production goroutines.
type Node struct {
	cfg        *config.Config
	privateKey crypto.PrivateKey
	publicKey  crypto.PublicKey

	timeStore  *store.ByteStore
	valueStore *store.ByteStore

	timeChain  *timechain.Chain
	valueChain *valuechain.Chain

	timeConsensus  *timechain.Consensus
	valueConsensus *valuechain.Consensus

	peers *peer.Manager

	reassemblyMu sync.Mutex
	decoders     map[string]*wire.Decoder

	stopping atomic.Bool
	wg       sync.WaitGroup
}

// New constructs a Node from cfg and a freshly-generated or
// operator-supplied key pair, initializing both on-disk stores and
// seeding each chain's genesis block if empty. It does not yet bind a
// listener or dial peers; call Start for that.
func New(cfg *config.Config, priv crypto.PrivateKey) (*Node, error) {
	pub, err := crypto.DerivePublicKey(priv)
	if err != nil {
		return nil, fmt.Errorf("node: derive public key: %w", err)
	}

	timeStore := store.New(filepath.Join(cfg.DataDir, timeChainSubdir))
	if err := timeStore.Init(); err != nil {
		return nil, fmt.Errorf("node: init time chain store: %w", err)
	}
	valueStore := store.New(filepath.Join(cfg.DataDir, valueChainSubdir))
	if err := valueStore.Init(); err != nil {
		timeStore.Close()
		return nil, fmt.Errorf("node: init value chain store: %w", err)
	}

	timeChainView := timechain.NewChain(timeStore)
	valueChainView := valuechain.NewChain(valueStore)

	timeConsensus := timechain.NewConsensus(timeChainView, priv, pub)
	if err := timeConsensus.Initialize(); err != nil {
		timeStore.Close()
		valueStore.Close()
		return nil, fmt.Errorf("node: initialize time chain: %w", err)
	}

	valuePool := valuechain.NewPool()
	valueConsensus := valuechain.NewConsensus(valueChainView, valuePool, timeChainView, priv, pub)
	if err := valueConsensus.Initialize(genesis.ValueGenesisBytes, genesis.ValueGenesisHash); err != nil {
		timeStore.Close()
		valueStore.Close()
		return nil, fmt.Errorf("node: initialize value chain: %w", err)
	}

	n := &Node{
		cfg:            cfg,
		privateKey:     priv,
		publicKey:      pub,
		timeStore:      timeStore,
		valueStore:     valueStore,
		timeChain:      timeChainView,
		valueChain:     valueChainView,
		timeConsensus:  timeConsensus,
		valueConsensus: valueConsensus,
		peers:          peer.New(cfg.Proxy),
		decoders:       make(map[string]*wire.Decoder),
	}
	n.peers.SetReceiveCallback(n.handleInbound)
	return n, nil
}

// PublicKey returns the node's proposer public key.
func (n *Node) PublicKey() crypto.PublicKey { return n.publicKey }

// ValueConsensus exposes the ValueChain engine so external callers
// (RPC, test harnesses) can inject transactions via AddTransaction.
func (n *Node) ValueConsensus() *valuechain.Consensus { return n.valueConsensus }

// Start binds the peer listener, dials every statically-configured
// peer in the background, and launches the production goroutines the
// configured role calls for.
func (n *Node) Start() error {
	if err := n.peers.Start(n.cfg.Port); err != nil {
		return fmt.Errorf("node: start peer manager: %w", err)
	}

	for _, addr := range n.cfg.Peers {
		go n.connectWithRetry(addr)
	}

	if n.cfg.Role.RunsTime() {
		n.wg.Add(1)
		go n.runTimeProductionLoop()
	}
	if n.cfg.Role.RunsValue() {
		n.wg.Add(1)
		go n.runValueProductionLoop()
	}
	return nil
}

// Stop flips the shutdown flag, waits for both production loops to
// finish their current iteration and return, then stops the peer
// manager and closes both stores.
func (n *Node) Stop() {
	n.stopping.Store(true)
	n.wg.Wait()
	n.peers.Stop()
	n.timeStore.Close()
	n.valueStore.Close()
}

// connectWithRetry dials addr up to peerDialMaxAttempts times, sleeping
// peerDialRetryDelay between failures, per §4.8's startup sequencing.
func (n *Node) connectWithRetry(addr string) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		log.Errorf("node: invalid peer address %q: %v", addr, err)
		return
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		log.Errorf("node: invalid peer port in %q: %v", addr, err)
		return
	}

	for attempt := 1; attempt <= peerDialMaxAttempts; attempt++ {
		if err := n.peers.ConnectToPeer(host, uint16(port)); err != nil {
			log.Warnf("node: connect to %s attempt %d/%d: %v", addr, attempt, peerDialMaxAttempts, err)
			time.Sleep(peerDialRetryDelay)
			continue
		}
		return
	}
	log.Errorf("node: giving up on peer %s after %d attempts", addr, peerDialMaxAttempts)
}

// runTimeProductionLoop calls ProduceBlock once per tick and
// broadcasts whatever it returns, framed as a TimeBlock announcement.
// It checks the shutdown flag once per tick rather than mid-iteration:
// no in-flight production is cancelled partway through.
func (n *Node) runTimeProductionLoop() {
	defer n.wg.Done()
	ticker := time.NewTicker(timeProductionInterval)
	defer ticker.Stop()

	for range ticker.C {
		if n.stopping.Load() {
			return
		}
		b, err := n.timeConsensus.ProduceBlock()
		if err != nil {
			log.Errorf("node: time chain produce: %v", err)
			continue
		}
		if b == nil {
			continue
		}
		n.broadcastTimeBlock(b)
	}
}

// runValueProductionLoop generates and broadcasts a transaction from
// this node to a random recipient, then attempts block production, once
// per tick.
func (n *Node) runValueProductionLoop() {
	defer n.wg.Done()
	ticker := time.NewTicker(valueProductionInterval)
	defer ticker.Stop()

	for range ticker.C {
		if n.stopping.Load() {
			return
		}
		tx, err := n.valueConsensus.GenerateAndBroadcastTransaction()
		if err != nil {
			log.Errorf("node: value chain generate transaction: %v", err)
		} else {
			n.broadcastTransaction(tx)
		}

		b, err := n.valueConsensus.ProduceBlock()
		if err != nil {
			log.Errorf("node: value chain produce: %v", err)
			continue
		}
		if b == nil {
			continue
		}
		n.broadcastValueBlock(b)
	}
}

func (n *Node) broadcastTimeBlock(b *wire.TimeBlock) {
	payload := make([]byte, 0, crypto.PublicKeySize+wire.TimeBlockSize)
	payload = append(payload, n.publicKey[:]...)
	payload = append(payload, b.Serialize()...)
	n.peers.BroadcastData(wire.EncodeMessage(wire.MsgTypeTimeBlock, payload))
}

func (n *Node) broadcastValueBlock(b *wire.ValueBlock) {
	serialized := b.Serialize()
	payload := make([]byte, 0, crypto.PublicKeySize+len(serialized))
	payload = append(payload, n.publicKey[:]...)
	payload = append(payload, serialized...)
	n.peers.BroadcastData(wire.EncodeMessage(wire.MsgTypeValueBlock, payload))
}

func (n *Node) broadcastTransaction(tx *wire.Transaction) {
	n.peers.BroadcastData(wire.EncodeMessage(wire.MsgTypeTransaction, tx.Serialize()))
}

// handleInbound is the peer.Manager receive callback: it feeds data
// into ip's reassembly buffer under the shared reassembly mutex, then
// dispatches whatever complete frames come out, outside the lock.
func (n *Node) handleInbound(ip string, data []byte) {
	n.reassemblyMu.Lock()
	dec, ok := n.decoders[ip]
	if !ok {
		dec = &wire.Decoder{}
		n.decoders[ip] = dec
	}
	frames := dec.Feed(data)
	n.reassemblyMu.Unlock()

	for _, f := range frames {
		n.dispatch(ip, f)
	}
}

// minTransactionWireSize rejects gossiped transactions too short to be
// valid without attempting to parse them, per §4.8.
const minTransactionWireSize = wire.TransactionFixedSize

func (n *Node) dispatch(ip string, f wire.Frame) {
	switch f.Type {
	case wire.MsgTypeTimeBlock:
		if len(f.Payload) < crypto.PublicKeySize {
			log.Warnf("node: time block from %s too short to carry a sender key: %d bytes", ip, len(f.Payload))
			return
		}
		b, err := wire.DeserializeTimeBlock(f.Payload[crypto.PublicKeySize:])
		if err != nil {
			log.Warnf("node: decode time block from %s: %v", ip, err)
			return
		}
		n.timeConsensus.HandleBlock(b)

	case wire.MsgTypeValueBlock:
		if len(f.Payload) < crypto.PublicKeySize {
			log.Warnf("node: value block from %s too short to carry a sender key: %d bytes", ip, len(f.Payload))
			return
		}
		b, err := wire.DeserializeValueBlock(f.Payload[crypto.PublicKeySize:])
		if err != nil {
			log.Warnf("node: decode value block from %s: %v", ip, err)
			return
		}
		n.valueConsensus.HandleBlock(b)

	case wire.MsgTypeTransaction:
		if len(f.Payload) < minTransactionWireSize {
			log.Warnf("node: transaction from %s below minimum size %d: %d bytes", ip, minTransactionWireSize, len(f.Payload))
			return
		}
		tx, err := wire.DeserializeTransaction(f.Payload)
		if err != nil {
			log.Warnf("node: decode transaction from %s: %v", ip, err)
			return
		}
		n.valueConsensus.AddTransaction(tx)

	default:
		log.Warnf("node: unknown message type %#x from %s, dropping", byte(f.Type), ip)
	}
}
