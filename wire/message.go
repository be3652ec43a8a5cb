// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package wire defines the on-the-wire and on-disk formats shared by
// both chains: TimeBlock, Transaction and ValueBlock, their
// fixed-layout serialization, and the length-prefixed peer framing
// used to carry them over TCP.
//
// Multi-byte integers inside a block or transaction body are encoded
// little-endian throughout (binary.LittleEndian); the outer message
// length prefix used by the framing in framing.go is big-endian. The
// two conventions are independently fixed and must not be unified.
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/toole-brendan/duonode/crypto"
)

// TimePoint is a count of nanoseconds since the Unix epoch.
type TimePoint uint64

// fixed field widths, named for readability at call sites.
const (
	hashSize      = chainhash.HashSize
	pubKeySize    = crypto.PublicKeySize
	sigSize       = crypto.SignatureSize
	timePointSize = 8
	u64Size       = 8
)

// TimeBlockSize is the exact serialized length of a TimeBlock:
// previous_hash(32) + time(8) + public_key(32) + signature(64) + hash(32).
const TimeBlockSize = hashSize + timePointSize + pubKeySize + sigSize + hashSize

// TransactionFixedSize is the serialized size of a Transaction with no
// data payload: sender(32) + recipient(32) + amount(8) + data_len(8) +
// signature(64) + hash(32).
const TransactionFixedSize = pubKeySize + pubKeySize + u64Size + u64Size + sigSize + hashSize

// TimeBlock is a bare heartbeat block establishing shared logical time.
type TimeBlock struct {
	PreviousHash chainhash.Hash
	Time         TimePoint
	PublicKey    crypto.PublicKey
	Signature    crypto.Signature
	Hash         chainhash.Hash
}

// DataToSign returns the canonical byte prefix covered by Signature:
// previous_hash ‖ time ‖ public_key.
func (b *TimeBlock) DataToSign() []byte {
	buf := make([]byte, 0, hashSize+timePointSize+pubKeySize)
	buf = append(buf, b.PreviousHash[:]...)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(b.Time))
	buf = append(buf, b.PublicKey[:]...)
	return buf
}

// ComputeHash recomputes and stores Hash from the current field values,
// including whatever Signature currently holds. Callers must set
// Signature before calling ComputeHash if the final hash is to reflect
// a real signature.
func (b *TimeBlock) ComputeHash() {
	data := append(b.DataToSign(), b.Signature[:]...)
	b.Hash = crypto.Sha256(data)
}

// Serialize returns the fixed TimeBlockSize-byte wire encoding of b.
func (b *TimeBlock) Serialize() []byte {
	buf := make([]byte, 0, TimeBlockSize)
	buf = append(buf, b.PreviousHash[:]...)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(b.Time))
	buf = append(buf, b.PublicKey[:]...)
	buf = append(buf, b.Signature[:]...)
	buf = append(buf, b.Hash[:]...)
	return buf
}

// DeserializeTimeBlock parses data into a TimeBlock. It fails unless
// len(data) is exactly TimeBlockSize.
func DeserializeTimeBlock(data []byte) (*TimeBlock, error) {
	if len(data) != TimeBlockSize {
		return nil, fmt.Errorf("wire: time block size %d, want %d", len(data), TimeBlockSize)
	}
	b := &TimeBlock{}
	off := 0
	copy(b.PreviousHash[:], data[off:off+hashSize])
	off += hashSize
	b.Time = TimePoint(binary.LittleEndian.Uint64(data[off : off+timePointSize]))
	off += timePointSize
	copy(b.PublicKey[:], data[off:off+pubKeySize])
	off += pubKeySize
	copy(b.Signature[:], data[off:off+sigSize])
	off += sigSize
	copy(b.Hash[:], data[off:off+hashSize])
	return b, nil
}

// Transaction is a single value transfer, or a coinbase mint when
// Sender is the all-zero PublicKey.
type Transaction struct {
	Sender    crypto.PublicKey
	Recipient crypto.PublicKey
	Amount    uint64
	Data      []byte
	Signature crypto.Signature
	Hash      chainhash.Hash
}

// IsCoinbase reports whether t is a coinbase mint transaction.
func (t *Transaction) IsCoinbase() bool {
	return t.Sender.IsZero()
}

// DataToSign returns sender ‖ recipient ‖ amount ‖ data_len ‖ data.
func (t *Transaction) DataToSign() []byte {
	buf := make([]byte, 0, TransactionFixedSize-sigSize-hashSize+len(t.Data))
	buf = append(buf, t.Sender[:]...)
	buf = append(buf, t.Recipient[:]...)
	buf = binary.LittleEndian.AppendUint64(buf, t.Amount)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(t.Data)))
	buf = append(buf, t.Data...)
	return buf
}

// ComputeHash recomputes and stores Hash from the current field values.
func (t *Transaction) ComputeHash() {
	data := append(t.DataToSign(), t.Signature[:]...)
	t.Hash = crypto.Sha256(data)
}

// Serialize returns the 176+len(data)-byte wire encoding of t.
func (t *Transaction) Serialize() []byte {
	buf := make([]byte, 0, TransactionFixedSize+len(t.Data))
	buf = append(buf, t.DataToSign()...)
	buf = append(buf, t.Signature[:]...)
	buf = append(buf, t.Hash[:]...)
	return buf
}

// DeserializeTransaction parses data into a Transaction. It fails if
// data is shorter than the fixed prefix, or if its length does not
// exactly match 176+data_len once data_len is known (trailing or
// missing bytes are both rejected).
func DeserializeTransaction(data []byte) (*Transaction, error) {
	const prefixSize = pubKeySize + pubKeySize + u64Size + u64Size
	if len(data) < prefixSize {
		return nil, fmt.Errorf("wire: transaction too short: %d bytes", len(data))
	}
	t := &Transaction{}
	off := 0
	copy(t.Sender[:], data[off:off+pubKeySize])
	off += pubKeySize
	copy(t.Recipient[:], data[off:off+pubKeySize])
	off += pubKeySize
	t.Amount = binary.LittleEndian.Uint64(data[off : off+u64Size])
	off += u64Size
	dataLen := binary.LittleEndian.Uint64(data[off : off+u64Size])
	off += u64Size

	if dataLen > uint64(len(data)) {
		return nil, fmt.Errorf("wire: transaction data_len %d exceeds %d available bytes", dataLen, len(data))
	}
	want := prefixSize + int(dataLen) + sigSize + hashSize
	if len(data) != want {
		return nil, fmt.Errorf("wire: transaction size %d, want %d", len(data), want)
	}

	t.Data = append([]byte(nil), data[off:off+int(dataLen)]...)
	off += int(dataLen)
	copy(t.Signature[:], data[off:off+sigSize])
	off += sigSize
	copy(t.Hash[:], data[off:off+hashSize])
	return t, nil
}

// Equal reports whether t and other carry identical field values,
// including Signature and Hash.
func (t *Transaction) Equal(other *Transaction) bool {
	if other == nil {
		return false
	}
	return t.Sender == other.Sender &&
		t.Recipient == other.Recipient &&
		t.Amount == other.Amount &&
		bytes.Equal(t.Data, other.Data) &&
		t.Signature == other.Signature &&
		t.Hash == other.Hash
}

// ValueBlock groups signed transactions and anchors them to a TimeChain block.
type ValueBlock struct {
	PreviousHash  chainhash.Hash
	TimeBlockHash chainhash.Hash
	Time          TimePoint
	Transactions  []*Transaction
	PublicKey     crypto.PublicKey
	Signature     crypto.Signature
	Hash          chainhash.Hash
}

// DataToSign returns previous_hash ‖ time_block_hash ‖ time ‖ tx_count ‖
// (tx_size ‖ tx)* ‖ public_key.
func (v *ValueBlock) DataToSign() []byte {
	buf := make([]byte, 0, hashSize*2+timePointSize+u64Size+pubKeySize)
	buf = append(buf, v.PreviousHash[:]...)
	buf = append(buf, v.TimeBlockHash[:]...)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(v.Time))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(v.Transactions)))
	for _, tx := range v.Transactions {
		txBytes := tx.Serialize()
		buf = binary.LittleEndian.AppendUint64(buf, uint64(len(txBytes)))
		buf = append(buf, txBytes...)
	}
	buf = append(buf, v.PublicKey[:]...)
	return buf
}

// ComputeHash recomputes and stores Hash from the current field values.
func (v *ValueBlock) ComputeHash() {
	data := append(v.DataToSign(), v.Signature[:]...)
	v.Hash = crypto.Sha256(data)
}

// Serialize returns the full wire encoding of v.
func (v *ValueBlock) Serialize() []byte {
	buf := append([]byte(nil), v.DataToSign()...)
	buf = append(buf, v.Signature[:]...)
	buf = append(buf, v.Hash[:]...)
	return buf
}

// DeserializeValueBlock parses data into a ValueBlock.
func DeserializeValueBlock(data []byte) (*ValueBlock, error) {
	const headerSize = hashSize + hashSize + timePointSize + u64Size
	if len(data) < headerSize {
		return nil, fmt.Errorf("wire: value block too short: %d bytes", len(data))
	}
	v := &ValueBlock{}
	off := 0
	copy(v.PreviousHash[:], data[off:off+hashSize])
	off += hashSize
	copy(v.TimeBlockHash[:], data[off:off+hashSize])
	off += hashSize
	v.Time = TimePoint(binary.LittleEndian.Uint64(data[off : off+timePointSize]))
	off += timePointSize
	txCount := binary.LittleEndian.Uint64(data[off : off+u64Size])
	off += u64Size

	capHint := txCount
	if maxTxs := uint64(len(data)-off) / (u64Size + TransactionFixedSize); capHint > maxTxs {
		capHint = maxTxs
	}
	v.Transactions = make([]*Transaction, 0, capHint)
	for i := uint64(0); i < txCount; i++ {
		if len(data)-off < u64Size {
			return nil, fmt.Errorf("wire: value block truncated reading tx %d size", i)
		}
		txSize := binary.LittleEndian.Uint64(data[off : off+u64Size])
		off += u64Size
		if uint64(len(data)-off) < txSize {
			return nil, fmt.Errorf("wire: value block truncated reading tx %d body", i)
		}
		tx, err := DeserializeTransaction(data[off : off+int(txSize)])
		if err != nil {
			return nil, fmt.Errorf("wire: value block tx %d: %w", i, err)
		}
		v.Transactions = append(v.Transactions, tx)
		off += int(txSize)
	}

	if len(data)-off != pubKeySize+sigSize+hashSize {
		return nil, fmt.Errorf("wire: value block trailer size mismatch: %d bytes remain", len(data)-off)
	}
	copy(v.PublicKey[:], data[off:off+pubKeySize])
	off += pubKeySize
	copy(v.Signature[:], data[off:off+sigSize])
	off += sigSize
	copy(v.Hash[:], data[off:off+hashSize])
	return v, nil
}
