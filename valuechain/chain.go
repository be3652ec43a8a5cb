// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package valuechain implements the transaction-bearing chain: a
// read-only Chain view, the transaction Pool, and the Consensus engine
// that produces and validates ValueBlocks anchored to a TimeChain tip.
package valuechain

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/toole-brendan/duonode/store"
	"github.com/toole-brendan/duonode/wire"
)

// Chain is a thin, read-only façade over a store.ByteStore that knows
// how to decode ValueBlocks. Mutation flows only through Consensus.
type Chain struct {
	store *store.ByteStore
}

// NewChain wraps byteStore as a ValueChain view.
func NewChain(byteStore *store.ByteStore) *Chain {
	return &Chain{store: byteStore}
}

// GetLatestBlock returns the current tip, if the chain is non-empty.
func (c *Chain) GetLatestBlock() (*wire.ValueBlock, bool, error) {
	data, ok, err := c.store.GetLatest()
	if err != nil {
		return nil, false, fmt.Errorf("valuechain: get latest: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	b, err := wire.DeserializeValueBlock(data)
	if err != nil {
		return nil, false, fmt.Errorf("valuechain: decode latest: %w", err)
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

// GetBlock returns the ValueBlock stored under hash, if any.
func (c *Chain) GetBlock(hash chainhash.Hash) (*wire.ValueBlock, bool, error) {
	data, ok, err := c.store.GetBlock(hash)
	if err != nil {
		return nil, false, fmt.Errorf("valuechain: get block %s: %w", hash, err)
	}
	if !ok {
		return nil, false, nil
	}
	b, err := wire.DeserializeValueBlock(data)
	if err != nil {
		return nil, false, fmt.Errorf("valuechain: decode block %s: %w", hash, err)
	}
	return b, true, nil
}

// BlockExists reports whether a ValueBlock with the given hash is stored.
func (c *Chain) BlockExists(hash chainhash.Hash) bool {
	return c.store.BlockExists(hash)
}
