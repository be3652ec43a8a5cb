// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package valuechain

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/toole-brendan/duonode/crypto"
	"github.com/toole-brendan/duonode/store"
	"github.com/toole-brendan/duonode/timechain"
	"github.com/toole-brendan/duonode/wire"
)

// newTestConsensus wires a fresh ValueChain Consensus against a fresh,
// already-initialized TimeChain, so eligibility's drift term has a real
// tip time to read.
func newTestConsensus(t *testing.T) (*Consensus, *Chain, *timechain.Chain) {
	t.Helper()

	timeStore := store.New(t.TempDir())
	require.NoError(t, timeStore.Init())
	t.Cleanup(func() { timeStore.Close() })
	timeChain := timechain.NewChain(timeStore)

	priv, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	pub, err := crypto.DerivePublicKey(priv)
	require.NoError(t, err)

	timeConsensus := timechain.NewConsensus(timeChain, priv, pub)
	require.NoError(t, timeConsensus.Initialize())

	valueStore := store.New(t.TempDir())
	require.NoError(t, valueStore.Init())
	t.Cleanup(func() { valueStore.Close() })
	chain := NewChain(valueStore)

	pool := NewPool()
	c := NewConsensus(chain, pool, timeChain, priv, pub)
	return c, chain, timeChain
}

func genesisBlob(t *testing.T, timeChain *timechain.Chain, priv crypto.PrivateKey, pub crypto.PublicKey) ([]byte, [32]byte) {
	t.Helper()
	tip, ok, err := timeChain.GetLatestBlock()
	require.NoError(t, err)
	require.True(t, ok)

	coinbase := &wire.Transaction{Recipient: pub, Amount: 50, Data: []byte("genesis")}
	sig, err := crypto.Sign(coinbase.DataToSign(), priv)
	require.NoError(t, err)
	coinbase.Signature = sig
	coinbase.ComputeHash()

	b := &wire.ValueBlock{
		TimeBlockHash: tip.Hash,
		Time:          tip.Time,
		Transactions:  []*wire.Transaction{coinbase},
		PublicKey:     pub,
	}
	sig, err = crypto.Sign(b.DataToSign(), priv)
	require.NoError(t, err)
	b.Signature = sig
	b.ComputeHash()

	return b.Serialize(), [32]byte(b.Hash)
}

func TestInitializeSeedsGenesisOnce(t *testing.T) {
	c, chain, timeChain := newTestConsensus(t)
	blob, hash := genesisBlob(t, timeChain, c.privateKey, c.publicKey)

	require.NoError(t, c.Initialize(blob, hash))

	b, ok, err := chain.GetLatestBlock()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, hash, [32]byte(b.Hash))

	// A second call is a no-op: the tip is unchanged.
	require.NoError(t, c.Initialize(blob, hash))
	b2, _, err := chain.GetLatestBlock()
	require.NoError(t, err)
	require.Equal(t, b.Hash, b2.Hash)
}

func TestInitializeRejectsHashMismatch(t *testing.T) {
	c, _, timeChain := newTestConsensus(t)
	blob, _ := genesisBlob(t, timeChain, c.privateKey, c.publicKey)

	var wrongHash [32]byte
	err := c.Initialize(blob, wrongHash)
	require.Error(t, err)
}

func TestProduceBlockChainsToPriorTipAndAnchorsTimeChain(t *testing.T) {
	c, chain, timeChain := newTestConsensus(t)
	blob, hash := genesisBlob(t, timeChain, c.privateKey, c.publicKey)
	require.NoError(t, c.Initialize(blob, hash))

	tip, _, err := chain.GetLatestBlock()
	require.NoError(t, err)

	c.AddTransaction(&wire.Transaction{Recipient: c.publicKey, Amount: 1})

	var produced *wire.ValueBlock
	for i := 0; i < 20000 && produced == nil; i++ {
		// Re-add since a failed eligibility draw never drains the pool,
		// but a prior successful draw in this loop would have.
		if c.pool.Len() == 0 {
			c.AddTransaction(&wire.Transaction{Recipient: c.publicKey, Amount: 1})
		}
		produced, err = c.ProduceBlock()
		require.NoError(t, err)
	}
	require.NotNil(t, produced, "expected at least one eligible draw in 20000 attempts")
	require.Equal(t, tip.Hash, produced.PreviousHash)

	timeTip, ok, err := timeChain.GetLatestBlock()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, timeTip.Hash, produced.TimeBlockHash)
	require.Equal(t, timeTip.Time, produced.Time)
}

// TestIsEligibleToProduceBlockDrawsFromTimeChainTip confirms the
// drift term comes from the TimeChain tip rather than wall clock: with
// the TimeChain store empty, currentTime() must fall back to 0 without
// panicking or blocking, and a draw must still complete.
func TestIsEligibleToProduceBlockDrawsFromTimeChainTip(t *testing.T) {
	timeStore := store.New(t.TempDir())
	require.NoError(t, timeStore.Init())
	t.Cleanup(func() { timeStore.Close() })
	emptyTimeChain := timechain.NewChain(timeStore)

	priv, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	pub, err := crypto.DerivePublicKey(priv)
	require.NoError(t, err)

	valueStore := store.New(t.TempDir())
	require.NoError(t, valueStore.Init())
	t.Cleanup(func() { valueStore.Close() })
	chain := NewChain(valueStore)

	c := NewConsensus(chain, NewPool(), emptyTimeChain, priv, pub)
	require.Equal(t, wire.TimePoint(0), c.currentTime())

	// Must not panic or hang against an empty TimeChain.
	_ = c.IsEligibleToProduceBlock()
}
