// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package timechain implements the heartbeat chain: a read-only Chain
// view over a content-addressed store, and the Consensus engine that
// produces and validates TimeBlocks.
package timechain

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/toole-brendan/duonode/store"
	"github.com/toole-brendan/duonode/wire"
)

// Chain is a thin, read-only façade over a store.ByteStore that knows
// how to decode TimeBlocks. Mutation flows only through Consensus.
type Chain struct {
	store *store.ByteStore
}

// NewChain wraps byteStore as a TimeChain view.
func NewChain(byteStore *store.ByteStore) *Chain {
	return &Chain{store: byteStore}
}

// GetLatestBlock returns the current tip, if the chain is non-empty.
func (c *Chain) GetLatestBlock() (*wire.TimeBlock, bool, error) {
	data, ok, err := c.store.GetLatest()
	if err != nil {
		return nil, false, fmt.Errorf("timechain: get latest: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	b, err := wire.DeserializeTimeBlock(data)
	if err != nil {
		return nil, false, fmt.Errorf("timechain: decode latest: %w", err)
	}
	return b, true, nil
}

// GetLatestBlockHash returns the tip's hash, or the zero Hash if the
// chain is empty.
func (c *Chain) GetLatestBlockHash() (chainhash.Hash, error) {
	b, ok, err := c.GetLatestBlock()
	if err != nil {
		return chainhash.Hash{}, err
	}
	if !ok {
		return chainhash.Hash{}, nil
	}
	return b.Hash, nil
}

// GetLatestBlockTime returns the tip's time, or 0 if the chain is
// empty, which callers must treat as an error condition (there is no
// valid TimeChain tip to anchor against).
func (c *Chain) GetLatestBlockTime() (wire.TimePoint, bool, error) {
	b, ok, err := c.GetLatestBlock()
	if err != nil {
		return 0, false, err
	}
	if !ok {
		return 0, false, nil
	}
	return b.Time, true, nil
}

// BlockExists reports whether a TimeBlock with the given hash is stored.
func (c *Chain) BlockExists(hash chainhash.Hash) bool {
	return c.store.BlockExists(hash)
}
