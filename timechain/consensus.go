// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package timechain

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/toole-brendan/duonode/crypto"
	"github.com/toole-brendan/duonode/genesis"
	"github.com/toole-brendan/duonode/wire"
)

// eligibilityThreshold is ~10% of the uint64 range: a uniform draw
// below it marks this node eligible to attempt production this tick.
// This is a purely local gate, not a Sybil defense.
const eligibilityThreshold = math.MaxUint64 / 10

// Consensus runs the TimeChain block-production and validation state
// machine over a Chain view.
type Consensus struct {
	chain      *Chain
	privateKey crypto.PrivateKey
	publicKey  crypto.PublicKey
	rng        *rand.Rand
}

// NewConsensus constructs a Consensus that proposes blocks under the
// given key pair.
func NewConsensus(chain *Chain, priv crypto.PrivateKey, pub crypto.PublicKey) *Consensus {
	return &Consensus{
		chain:      chain,
		privateKey: priv,
		publicKey:  pub,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Initialize seeds the chain with the embedded genesis block if the
// store is empty. Besides read, decode and store errors, it fails if
// the genesis blob's recomputed hash does not match the hash the blob
// carries or the embedded expected hash — a startup-fatal condition
// per the error handling design.
func (c *Consensus) Initialize() error {
	_, ok, err := c.chain.GetLatestBlock()
	if err != nil {
		return fmt.Errorf("timechain: initialize: %w", err)
	}
	if ok {
		return nil
	}

	b, err := wire.DeserializeTimeBlock(genesis.TimeGenesisBytes)
	if err != nil {
		return fmt.Errorf("timechain: decode genesis blob: %w", err)
	}
	want := b.Hash
	b.ComputeHash()
	if b.Hash != want {
		return fmt.Errorf("timechain: genesis hash mismatch: blob recomputes to %s, claims %s", b.Hash, want)
	}
	if b.Hash != genesis.TimeGenesisHash {
		return fmt.Errorf("timechain: embedded genesis hash %s does not match blob %s", genesis.TimeGenesisHash, b.Hash)
	}
	if err := c.chain.store.StoreBlock(b.Hash, genesis.TimeGenesisBytes); err != nil {
		return fmt.Errorf("timechain: store genesis: %w", err)
	}
	log.Infof("timechain: initialized genesis block %s", b.Hash)
	return nil
}

// ValidateBlock checks b's time monotonicity against the local tip and
// its signature, per §4.5.
func (c *Consensus) ValidateBlock(b *wire.TimeBlock) error {
	tip, ok, err := c.chain.GetLatestBlock()
	if err != nil {
		return fmt.Errorf("timechain: validate: read tip: %w", err)
	}
	if ok && b.Time <= tip.Time {
		return fmt.Errorf("timechain: validate: time %d not after tip time %d", b.Time, tip.Time)
	}
	if !crypto.Verify(b.DataToSign(), b.Signature, b.PublicKey) {
		return fmt.Errorf("timechain: validate: signature does not verify")
	}
	return nil
}

// IsEligibleToProduceBlock draws a uniform u64 and reports whether it
// falls under eligibilityThreshold (~10%).
func (c *Consensus) IsEligibleToProduceBlock() bool {
	return c.rng.Uint64() < eligibilityThreshold
}

// ProduceBlock attempts to produce and store a new TimeBlock. It
// returns nil if this node is not eligible this tick. A produced block
// bypasses ValidateBlock entirely (design note §9 item 4: preserved
// literally from the original).
func (c *Consensus) ProduceBlock() (*wire.TimeBlock, error) {
	if !c.IsEligibleToProduceBlock() {
		return nil, nil
	}

	prevHash, err := c.chain.GetLatestBlockHash()
	if err != nil {
		return nil, fmt.Errorf("timechain: produce: read tip hash: %w", err)
	}

	b := &wire.TimeBlock{
		PreviousHash: prevHash,
		Time:         wire.TimePoint(time.Now().UnixNano()),
		PublicKey:    c.publicKey,
	}
	sig, err := crypto.Sign(b.DataToSign(), c.privateKey)
	if err != nil {
		return nil, fmt.Errorf("timechain: produce: sign: %w", err)
	}
	b.Signature = sig
	b.ComputeHash()

	if err := c.chain.store.StoreBlock(b.Hash, b.Serialize()); err != nil {
		return nil, fmt.Errorf("timechain: produce: store: %w", err)
	}
	return b, nil
}

// HandleBlock validates and, if valid, stores a received TimeBlock.
// Validation failures are logged and the block dropped; no error
// escapes to the caller.
func (c *Consensus) HandleBlock(b *wire.TimeBlock) {
	if err := c.ValidateBlock(b); err != nil {
		log.Warnf("timechain: dropping invalid block %s: %v", b.Hash, err)
		return
	}
	if err := c.chain.store.StoreBlock(b.Hash, b.Serialize()); err != nil {
		log.Errorf("timechain: failed to store block %s: %v", b.Hash, err)
		return
	}
}
