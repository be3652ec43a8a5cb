// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package crypto provides the primitives the duonode consensus engines
// build on: SHA-256 digests and Schnorr signatures over secp256k1 with
// 32-byte x-only public keys (BIP-340 style).
//
// btcec/v2 is a pure-Go curve implementation, so unlike the original
// C++ node there is no process-wide secp256k1 context to construct:
// every function here is safe to call concurrently from any goroutine
// without shared setup.
package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// PrivateKeySize, PublicKeySize and SignatureSize are the fixed wire
// widths specified for key material and Schnorr signatures.
const (
	PrivateKeySize = 32
	PublicKeySize  = 32
	SignatureSize  = 64
)

// PrivateKey is a 32-byte secp256k1 scalar.
type PrivateKey [PrivateKeySize]byte

// PublicKey is a 32-byte x-only secp256k1 point.
type PublicKey [PublicKeySize]byte

// Signature is a 64-byte BIP-340 Schnorr signature.
type Signature [SignatureSize]byte

// ZeroPublicKey is the all-zero key used to mark a coinbase transaction.
var ZeroPublicKey PublicKey

// IsZero reports whether pk is the all-zero coinbase marker.
func (pk PublicKey) IsZero() bool {
	return pk == ZeroPublicKey
}

// Sha256 returns the SHA-256 digest of data as a chainhash.Hash.
func Sha256(data []byte) chainhash.Hash {
	return chainhash.Hash(sha256.Sum256(data))
}

// GeneratePrivateKey draws a fresh secp256k1 scalar from the system CSPRNG.
func GeneratePrivateKey() (PrivateKey, error) {
	var out PrivateKey
	for {
		if _, err := rand.Read(out[:]); err != nil {
			return out, fmt.Errorf("crypto: generate private key: %w", err)
		}
		// Reject the vanishingly unlikely case of a scalar outside
		// the valid range rather than silently reducing it mod n.
		var s btcec.ModNScalar
		if overflow := s.SetByteSlice(out[:]); !overflow && !s.IsZero() {
			return out, nil
		}
	}
}

// DerivePublicKey computes the x-only public key for priv.
func DerivePublicKey(priv PrivateKey) (PublicKey, error) {
	p, _ := btcec.PrivKeyFromBytes(priv[:])
	if p == nil {
		return PublicKey{}, fmt.Errorf("crypto: invalid private key")
	}
	var pub PublicKey
	copy(pub[:], schnorr.SerializePubKey(p.PubKey()))
	return pub, nil
}

// Sign produces a Schnorr signature over the SHA-256 digest of msg under priv.
func Sign(msg []byte, priv PrivateKey) (Signature, error) {
	p, _ := btcec.PrivKeyFromBytes(priv[:])
	if p == nil {
		return Signature{}, fmt.Errorf("crypto: invalid private key")
	}
	digest := sha256.Sum256(msg)
	sig, err := schnorr.Sign(p, digest[:])
	if err != nil {
		return Signature{}, fmt.Errorf("crypto: sign: %w", err)
	}
	var out Signature
	copy(out[:], sig.Serialize())
	return out, nil
}

// Verify reports whether sig is a valid Schnorr signature over the
// SHA-256 digest of msg under pub. An all-zero pub (the coinbase
// marker) is never itself a valid point; callers must bypass Verify
// for coinbase transactions rather than call it.
func Verify(msg []byte, sig Signature, pub PublicKey) bool {
	parsedSig, err := schnorr.ParseSignature(sig[:])
	if err != nil {
		return false
	}
	parsedPub, err := schnorr.ParsePubKey(pub[:])
	if err != nil {
		return false
	}
	digest := sha256.Sum256(msg)
	return parsedSig.Verify(digest[:], parsedPub)
}
