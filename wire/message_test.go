// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/toole-brendan/duonode/crypto"
)

func signedTimeBlock(t *testing.T, priv crypto.PrivateKey, prev chainhash.Hash, when TimePoint) *TimeBlock {
	t.Helper()
	pub, err := crypto.DerivePublicKey(priv)
	require.NoError(t, err)
	b := &TimeBlock{PreviousHash: prev, Time: when, PublicKey: pub}
	sig, err := crypto.Sign(b.DataToSign(), priv)
	require.NoError(t, err)
	b.Signature = sig
	b.ComputeHash()
	return b
}

func TestTimeBlockRoundTrip(t *testing.T) {
	priv, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	b := signedTimeBlock(t, priv, chainhash.Hash{}, 42)

	data := b.Serialize()
	require.Len(t, data, TimeBlockSize)

	got, err := DeserializeTimeBlock(data)
	require.NoError(t, err)
	require.Equal(t, b, got)
	require.True(t, crypto.Verify(got.DataToSign(), got.Signature, got.PublicKey))
}

func TestTimeBlockDeserializeRejectsWrongSize(t *testing.T) {
	_, err := DeserializeTimeBlock(make([]byte, TimeBlockSize-1))
	require.Error(t, err)
}

func TestTransactionRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		priv, err := crypto.GeneratePrivateKey()
		require.NoError(rt, err)
		pub, err := crypto.DerivePublicKey(priv)
		require.NoError(rt, err)

		var recipient crypto.PublicKey
		copy(recipient[:], rapid.SliceOfN(rapid.Byte(), 32, 32).Draw(rt, "recipient"))

		data := rapid.SliceOfN(rapid.Byte(), 0, 64).Draw(rt, "data")
		tx := &Transaction{
			Sender:    pub,
			Recipient: recipient,
			Amount:    rapid.Uint64().Draw(rt, "amount"),
			Data:      data,
		}
		sig, err := crypto.Sign(tx.DataToSign(), priv)
		require.NoError(rt, err)
		tx.Signature = sig
		tx.ComputeHash()

		ser := tx.Serialize()
		require.Len(rt, ser, TransactionFixedSize+len(data))

		got, err := DeserializeTransaction(ser)
		require.NoError(rt, err)
		require.True(rt, tx.Equal(got))
	})
}

func TestTransactionRejectsTrailingBytes(t *testing.T) {
	priv, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	pub, err := crypto.DerivePublicKey(priv)
	require.NoError(t, err)

	tx := &Transaction{Sender: pub, Amount: 7}
	sig, err := crypto.Sign(tx.DataToSign(), priv)
	require.NoError(t, err)
	tx.Signature = sig
	tx.ComputeHash()

	ser := append(tx.Serialize(), 0xff)
	_, err = DeserializeTransaction(ser)
	require.Error(t, err)
}

func TestTransactionDeadbeefFixture(t *testing.T) {
	priv, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	pub, err := crypto.DerivePublicKey(priv)
	require.NoError(t, err)

	tx := &Transaction{Sender: pub, Amount: 1, Data: []byte{0xDE, 0xAD, 0xBE, 0xEF}}
	sig, err := crypto.Sign(tx.DataToSign(), priv)
	require.NoError(t, err)
	tx.Signature = sig
	tx.ComputeHash()

	ser := tx.Serialize()
	require.Len(t, ser, 180)

	got, err := DeserializeTransaction(ser)
	require.NoError(t, err)
	require.True(t, tx.Equal(got))
	require.Equal(t, tx.Hash, got.Hash)
}

func TestValueBlockSerializedLength(t *testing.T) {
	priv, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	pub, err := crypto.DerivePublicKey(priv)
	require.NoError(t, err)

	txs := make([]*Transaction, 0, 3)
	dataLens := []int{0, 4, 10}
	for _, dl := range dataLens {
		tx := &Transaction{Sender: pub, Amount: 1, Data: make([]byte, dl)}
		sig, err := crypto.Sign(tx.DataToSign(), priv)
		require.NoError(t, err)
		tx.Signature = sig
		tx.ComputeHash()
		txs = append(txs, tx)
	}

	v := &ValueBlock{Transactions: txs, PublicKey: pub}
	sig, err := crypto.Sign(v.DataToSign(), priv)
	require.NoError(t, err)
	v.Signature = sig
	v.ComputeHash()

	want := 32 + 32 + 8 + 8
	for _, dl := range dataLens {
		want += 8 + 176 + dl
	}
	want += 32 + 64 + 32

	require.Len(t, v.Serialize(), want)

	got, err := DeserializeValueBlock(v.Serialize())
	require.NoError(t, err)
	require.Len(t, got.Transactions, len(txs))
	for i := range txs {
		require.True(t, txs[i].Equal(got.Transactions[i]))
	}
	require.Equal(t, v.Hash, got.Hash)
}
