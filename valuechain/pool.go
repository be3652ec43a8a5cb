// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package valuechain

import (
	"sync"

	"github.com/toole-brendan/duonode/wire"
)

// Pool is the ValueChain's mutex-protected, ordered transaction queue.
// Unlike a UTXO-aware mempool it performs no validation at insertion
// and tolerates duplicates: acceptance is entirely the job of
// Consensus.ValidateBlock once a transaction is included in a block.
type Pool struct {
	mtx sync.Mutex
	txs []*wire.Transaction
}

// NewPool returns an empty transaction pool.
func NewPool() *Pool {
	return &Pool{}
}

// Add appends tx to the pool under lock. No validation is performed.
func (p *Pool) Add(tx *wire.Transaction) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	p.txs = append(p.txs, tx)
}

// Len reports the number of transactions currently queued.
func (p *Pool) Len() int {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return len(p.txs)
}

// drain empties the pool and returns its former contents in insertion
// order. Callers hold no further claim on the pool's prior state.
func (p *Pool) drain() []*wire.Transaction {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	drained := p.txs
	p.txs = nil
	return drained
}

// remove deletes every queued transaction equal to one in included,
// used after a received ValueBlock is accepted.
func (p *Pool) remove(included []*wire.Transaction) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	if len(p.txs) == 0 || len(included) == 0 {
		return
	}
	remaining := p.txs[:0:0]
	for _, queued := range p.txs {
		keep := true
		for _, done := range included {
			if queued.Equal(done) {
				keep = false
				break
			}
		}
		if keep {
			remaining = append(remaining, queued)
		}
	}
	p.txs = remaining
}
