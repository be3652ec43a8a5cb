// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package genesis

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/toole-brendan/duonode/crypto"
	"github.com/toole-brendan/duonode/wire"
)

func TestTimeGenesisIsDeterministic(t *testing.T) {
	again, err := BuildTimeGenesis()
	require.NoError(t, err)
	require.Equal(t, TimeGenesisBlock, again)
	require.Equal(t, TimeGenesisHash, again.Hash)
}

func TestTimeGenesisVerifies(t *testing.T) {
	require.True(t, crypto.Verify(TimeGenesisBlock.DataToSign(), TimeGenesisBlock.Signature, TimeGenesisBlock.PublicKey))
}

func TestValueGenesisAnchorsTimeGenesis(t *testing.T) {
	require.Equal(t, TimeGenesisHash, ValueGenesisBlock.TimeBlockHash)
	require.Len(t, ValueGenesisBlock.Transactions, 1)
	require.True(t, ValueGenesisBlock.Transactions[0].IsCoinbase())
	require.Equal(t, uint64(50), ValueGenesisBlock.Transactions[0].Amount)
	require.Equal(t, ValueGenesisReference, string(ValueGenesisBlock.Transactions[0].Data))
}

func TestGenesisBytesRoundTrip(t *testing.T) {
	tb, err := wire.DeserializeTimeBlock(TimeGenesisBytes)
	require.NoError(t, err)
	require.Equal(t, TimeGenesisHash, tb.Hash)

	vb, err := wire.DeserializeValueBlock(ValueGenesisBytes)
	require.NoError(t, err)
	require.Equal(t, ValueGenesisHash, vb.Hash)
}
