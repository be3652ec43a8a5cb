// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package valuechain

import (
	cryptorand "crypto/rand"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/toole-brendan/duonode/crypto"
	"github.com/toole-brendan/duonode/timechain"
	"github.com/toole-brendan/duonode/wire"
)

// baseEligibilityThreshold is ~1% of the uint64 range, before the
// time-based drift described in design note §9 item 1 is applied.
const baseEligibilityThreshold = math.MaxUint64 / 100

// coinbaseAmount is the fixed, unconditional mint amount. There is no
// halving schedule (design note §9 item 3: preserved as-is).
const coinbaseAmount = 50

// Consensus runs the ValueChain block-production and validation state
// machine, anchoring every produced block to a TimeChain view.
type Consensus struct {
	chain      *Chain
	pool       *Pool
	timeChain  *timechain.Chain
	privateKey crypto.PrivateKey
	publicKey  crypto.PublicKey
	rng        *rand.Rand
}

// NewConsensus constructs a Consensus that proposes blocks under the
// given key pair, reading TimeChain anchors from timeChain.
func NewConsensus(chain *Chain, pool *Pool, timeChain *timechain.Chain, priv crypto.PrivateKey, pub crypto.PublicKey) *Consensus {
	return &Consensus{
		chain:      chain,
		pool:       pool,
		timeChain:  timeChain,
		privateKey: priv,
		publicKey:  pub,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano() + 1)),
	}
}

// Pool returns the transaction pool this engine drains on production
// and prunes on received-block acceptance.
func (c *Consensus) Pool() *Pool { return c.pool }

// AddTransaction appends tx to the pool. No validation is performed at
// insertion time.
func (c *Consensus) AddTransaction(tx *wire.Transaction) {
	c.pool.Add(tx)
}

// Initialize seeds the chain with the embedded genesis block if the
// store is empty.
func (c *Consensus) Initialize(genesisBytes []byte, expectedHash [32]byte) error {
	_, ok, err := c.chain.GetLatestBlock()
	if err != nil {
		return fmt.Errorf("valuechain: initialize: %w", err)
	}
	if ok {
		return nil
	}

	b, err := wire.DeserializeValueBlock(genesisBytes)
	if err != nil {
		return fmt.Errorf("valuechain: decode genesis blob: %w", err)
	}
	claimed := b.Hash
	b.ComputeHash()
	if b.Hash != claimed {
		return fmt.Errorf("valuechain: genesis blob internally inconsistent: recomputes to %s, claims %s", b.Hash, claimed)
	}
	if [32]byte(b.Hash) != expectedHash {
		return fmt.Errorf("valuechain: genesis hash mismatch: blob hashes to %s", b.Hash)
	}
	if err := c.chain.store.StoreBlock(b.Hash, genesisBytes); err != nil {
		return fmt.Errorf("valuechain: store genesis: %w", err)
	}
	log.Infof("valuechain: initialized genesis block %s", b.Hash)
	return nil
}

// isEligibleToProduceBlockOnce draws a single uniform u64 and compares
// it against the drifted threshold described in design note §9 item 1:
// threshold + (current_time % threshold). The sum is plain unsigned
// addition with no clamp; with a ~1% base it always stays below twice
// the base (~2% of the uint64 range), so it never wraps. current_time is the TimeChain
// tip's time, matching get_current_time() in the original and the same
// value ValidateBlock's future-time check and ProduceBlock's block
// time are already read from; an empty TimeChain falls back to 0.
func (c *Consensus) isEligibleToProduceBlockOnce() bool {
	now := uint64(c.currentTime())
	threshold := baseEligibilityThreshold + (now % baseEligibilityThreshold)
	return c.rng.Uint64() < threshold
}

// currentTime returns the TimeChain tip's time, or 0 if the chain is
// empty or unreadable.
func (c *Consensus) currentTime() wire.TimePoint {
	t, ok, err := c.timeChain.GetLatestBlockTime()
	if err != nil || !ok {
		return 0
	}
	return t
}

// IsEligibleToProduceBlock draws a single uniform u64 against the
// drifted ~1% threshold. ProduceBlock additionally draws twice,
// preserving the source's double call (design note §9 item 2).
func (c *Consensus) IsEligibleToProduceBlock() bool {
	return c.isEligibleToProduceBlockOnce()
}

// ValidateBlock checks b against the local TimeChain anchor, every
// transaction's signature, and b's own signature, per §4.6.
func (c *Consensus) ValidateBlock(b *wire.ValueBlock) error {
	if !c.timeChain.BlockExists(b.TimeBlockHash) {
		return fmt.Errorf("valuechain: validate: unknown time_block_hash %s", b.TimeBlockHash)
	}
	tipTime, ok, err := c.timeChain.GetLatestBlockTime()
	if err != nil {
		return fmt.Errorf("valuechain: validate: read TimeChain tip: %w", err)
	}
	if ok && b.Time > tipTime {
		return fmt.Errorf("valuechain: validate: time %d after TimeChain tip time %d", b.Time, tipTime)
	}
	for i, tx := range b.Transactions {
		if err := verifyTransaction(tx); err != nil {
			return fmt.Errorf("valuechain: validate: transaction %d: %w", i, err)
		}
	}
	if !crypto.Verify(b.DataToSign(), b.Signature, b.PublicKey) {
		return fmt.Errorf("valuechain: validate: block signature does not verify")
	}
	return nil
}

// verifyTransaction checks tx's signature, bypassing the check
// entirely for a coinbase transaction.
func verifyTransaction(tx *wire.Transaction) error {
	if tx.IsCoinbase() {
		return nil
	}
	if !crypto.Verify(tx.DataToSign(), tx.Signature, tx.Sender) {
		return fmt.Errorf("signature does not verify under sender %x", tx.Sender[:6])
	}
	return nil
}

// ProduceBlock attempts to produce and store a new ValueBlock. It
// returns nil if ineligible or if the pool is empty. Eligibility is
// drawn twice and ANDed, preserving the original's double call
// (design note §9 item 2) rather than silently collapsing it to one.
func (c *Consensus) ProduceBlock() (*wire.ValueBlock, error) {
	eligible := c.IsEligibleToProduceBlock() && c.IsEligibleToProduceBlock()
	if !eligible {
		return nil, nil
	}
	if c.pool.Len() == 0 {
		return nil, nil
	}

	drained := c.pool.drain()

	coinbase := &wire.Transaction{
		Recipient: c.publicKey,
		Amount:    coinbaseAmount,
	}
	sig, err := crypto.Sign(coinbase.DataToSign(), c.privateKey)
	if err != nil {
		return nil, fmt.Errorf("valuechain: produce: sign coinbase: %w", err)
	}
	coinbase.Signature = sig
	coinbase.ComputeHash()

	txs := make([]*wire.Transaction, 0, len(drained)+1)
	txs = append(txs, coinbase)
	txs = append(txs, drained...)

	prevHash, err := c.chain.GetLatestBlockHash()
	if err != nil {
		return nil, fmt.Errorf("valuechain: produce: read tip hash: %w", err)
	}

	timeBlockHash, err := c.timeChain.GetLatestBlockHash()
	if err != nil {
		return nil, fmt.Errorf("valuechain: produce: read TimeChain tip hash: %w", err)
	}
	blockTime, ok, err := c.timeChain.GetLatestBlockTime()
	if err != nil {
		return nil, fmt.Errorf("valuechain: produce: read TimeChain tip time: %w", err)
	}
	if !ok {
		log.Errorf("valuechain: produce: TimeChain is empty, falling back to time=0")
		blockTime = 0
	}

	b := &wire.ValueBlock{
		PreviousHash:  prevHash,
		TimeBlockHash: timeBlockHash,
		Time:          blockTime,
		Transactions:  txs,
		PublicKey:     c.publicKey,
	}
	sig, err = crypto.Sign(b.DataToSign(), c.privateKey)
	if err != nil {
		return nil, fmt.Errorf("valuechain: produce: sign block: %w", err)
	}
	b.Signature = sig
	b.ComputeHash()

	if err := c.chain.store.StoreBlock(b.Hash, b.Serialize()); err != nil {
		return nil, fmt.Errorf("valuechain: produce: store: %w", err)
	}
	return b, nil
}

// GenerateAndBroadcastTransaction builds a self-to-random-recipient
// transfer of amount 10, signs it, and adds it to the local pool. The
// caller (node orchestrator) is responsible for framing and
// broadcasting the returned transaction.
func (c *Consensus) GenerateAndBroadcastTransaction() (*wire.Transaction, error) {
	var recipient crypto.PublicKey
	if _, err := cryptorand.Read(recipient[:]); err != nil {
		return nil, fmt.Errorf("valuechain: generate transaction: random recipient: %w", err)
	}

	tx := &wire.Transaction{
		Sender:    c.publicKey,
		Recipient: recipient,
		Amount:    10,
	}
	sig, err := crypto.Sign(tx.DataToSign(), c.privateKey)
	if err != nil {
		return nil, fmt.Errorf("valuechain: generate transaction: sign: %w", err)
	}
	tx.Signature = sig
	tx.ComputeHash()

	c.pool.Add(tx)
	return tx, nil
}

// HandleBlock validates and, if valid, stores a received ValueBlock,
// then prunes every included transaction from the local pool.
// Validation failures are logged and the block dropped.
func (c *Consensus) HandleBlock(b *wire.ValueBlock) {
	if err := c.ValidateBlock(b); err != nil {
		log.Warnf("valuechain: dropping invalid block %s: %v", b.Hash, err)
		return
	}
	if err := c.chain.store.StoreBlock(b.Hash, b.Serialize()); err != nil {
		log.Errorf("valuechain: failed to store block %s: %v", b.Hash, err)
		return
	}
	c.pool.remove(b.Transactions)
}
