// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Command keygen is the offline helper that generates a fresh
// secp256k1 key pair for a duonode proposer identity and prints both
// halves hex-encoded, grounded on the original project's
// tools/keygen/keygen.cpp.
package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/toole-brendan/duonode/crypto"
)

func main() {
	priv, err := crypto.GeneratePrivateKey()
	if err != nil {
		fmt.Fprintln(os.Stderr, "keygen: generate private key:", err)
		os.Exit(1)
	}
	pub, err := crypto.DerivePublicKey(priv)
	if err != nil {
		fmt.Fprintln(os.Stderr, "keygen: derive public key:", err)
		os.Exit(1)
	}

	fmt.Printf("private_key: %s\n", hex.EncodeToString(priv[:]))
	fmt.Printf("public_key:  %s\n", hex.EncodeToString(pub[:]))
}
