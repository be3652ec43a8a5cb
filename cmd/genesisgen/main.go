// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Command genesisgen signs a fresh TimeChain genesis TimeBlock at
// genesis.GenesisTime and a ValueChain genesis ValueBlock anchored to
// it, then prints Go source for the four embedded arrays package
// genesis ships: TimeGenesisBytes, TimeGenesisHash, ValueGenesisBytes
// and ValueGenesisHash.
//
// package genesis itself derives these same four values deterministically
// from a fixed seed at init time, so an operator never strictly needs
// to run this tool; it exists for operators who want to freeze the
// result into literal array source instead of recomputing it at
// package init, and as the spec-mandated offline generator for a
// custom --seed.
package main

import (
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"fmt"
	"os"

	"github.com/toole-brendan/duonode/crypto"
	"github.com/toole-brendan/duonode/genesis"
	"github.com/toole-brendan/duonode/wire"
)

func main() {
	seed := flag.String("seed", "", "seed material to derive the genesis proposer key from; a fresh random key is used if empty")
	flag.Parse()

	priv, pub, err := proposerKey(*seed)
	if err != nil {
		fmt.Fprintln(os.Stderr, "genesisgen:", err)
		os.Exit(1)
	}

	timeBlock := &wire.TimeBlock{Time: genesis.GenesisTime, PublicKey: pub}
	if err := signTimeBlock(timeBlock, priv); err != nil {
		fmt.Fprintln(os.Stderr, "genesisgen: sign time block:", err)
		os.Exit(1)
	}

	coinbase := &wire.Transaction{
		Recipient: pub,
		Amount:    50,
		Data:      []byte(genesis.ValueGenesisReference),
	}
	if err := signTransaction(coinbase, priv); err != nil {
		fmt.Fprintln(os.Stderr, "genesisgen: sign coinbase:", err)
		os.Exit(1)
	}

	valueBlock := &wire.ValueBlock{
		TimeBlockHash: timeBlock.Hash,
		Time:          genesis.GenesisTime,
		Transactions:  []*wire.Transaction{coinbase},
		PublicKey:     pub,
	}
	if err := signValueBlock(valueBlock, priv); err != nil {
		fmt.Fprintln(os.Stderr, "genesisgen: sign value block:", err)
		os.Exit(1)
	}

	printGoSource(timeBlock, valueBlock)
}

func proposerKey(seed string) (crypto.PrivateKey, crypto.PublicKey, error) {
	var priv crypto.PrivateKey
	var err error
	if seed == "" {
		priv, err = crypto.GeneratePrivateKey()
		if err != nil {
			return priv, crypto.PublicKey{}, err
		}
	} else {
		priv = crypto.PrivateKey(sha256.Sum256([]byte(seed)))
	}
	pub, err := crypto.DerivePublicKey(priv)
	return priv, pub, err
}

func signTimeBlock(b *wire.TimeBlock, priv crypto.PrivateKey) error {
	sig, err := crypto.Sign(b.DataToSign(), priv)
	if err != nil {
		return err
	}
	b.Signature = sig
	b.ComputeHash()
	return nil
}

func signTransaction(tx *wire.Transaction, priv crypto.PrivateKey) error {
	sig, err := crypto.Sign(tx.DataToSign(), priv)
	if err != nil {
		return err
	}
	tx.Signature = sig
	tx.ComputeHash()
	return nil
}

func signValueBlock(b *wire.ValueBlock, priv crypto.PrivateKey) error {
	sig, err := crypto.Sign(b.DataToSign(), priv)
	if err != nil {
		return err
	}
	b.Signature = sig
	b.ComputeHash()
	return nil
}

func printGoSource(tb *wire.TimeBlock, vb *wire.ValueBlock) {
	fmt.Println("// Generated by cmd/genesisgen. Paste into genesis/genesis.go")
	fmt.Println("// in place of the init-time derivation if a frozen constant is preferred.")
	fmt.Println()
	printByteArray("TimeGenesisBytes", tb.Serialize())
	printHashVar("TimeGenesisHash", tb.Hash[:])
	printByteArray("ValueGenesisBytes", vb.Serialize())
	printHashVar("ValueGenesisHash", vb.Hash[:])
}

func printByteArray(name string, data []byte) {
	fmt.Printf("var %s = []byte{\n", name)
	for i, b := range data {
		if i%12 == 0 {
			fmt.Print("\t")
		}
		fmt.Printf("0x%02x, ", b)
		if i%12 == 11 {
			fmt.Println()
		}
	}
	fmt.Println("\n}")
	fmt.Println()
}

func printHashVar(name string, data []byte) {
	fmt.Printf("// %s\n", hex.EncodeToString(data))
	fmt.Printf("var %s = chainhash.Hash{", name)
	for i, b := range data {
		if i%12 == 0 {
			fmt.Print("\n\t")
		}
		fmt.Printf("0x%02x, ", b)
	}
	fmt.Println("\n}")
	fmt.Println()
}
