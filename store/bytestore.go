// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package store implements the content-addressed, mutex-protected file
// store shared by both chains. The block-type-specific codec lives one
// layer up, in timechain and valuechain: ByteStore only ever sees raw
// hash-keyed byte slices, which is what lets one implementation serve
// two otherwise-unrelated block formats ("two parallel concrete
// pipelines plus a shared codec capability set"). ByteStore itself
// never deserializes a block, so it has no notion of "the latest
// hash" beyond whatever key the caller last stored under; the
// chain-specific façade recovers the tip's hash from the typed block
// it decodes out of GetLatest's bytes.
package store

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"golang.org/x/sys/unix"
)

const latestFileName = "latest.block"

// ByteStore is a single-directory, one-file-per-hash block store with a
// "latest.block" tip pointer. All operations serialize through mu; the
// on-disk layout is authoritative and holds no index beyond the
// filesystem itself.
type ByteStore struct {
	mu     sync.Mutex
	dir    string
	lockFd int
}

// New constructs a ByteStore rooted at dir. Init must be called before use.
func New(dir string) *ByteStore {
	return &ByteStore{dir: dir, lockFd: -1}
}

// Init creates dir if absent and takes an advisory exclusive flock on a
// LOCK file inside it, so two processes cannot share one data
// directory. This is a Linux/Darwin-only simplification: Windows
// advisory locking needs a different primitive and is out of scope.
func (s *ByteStore) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("store: create %s: %w", s.dir, err)
	}

	lockPath := filepath.Join(s.dir, "LOCK")
	fd, err := unix.Open(lockPath, unix.O_CREAT|unix.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("store: open lock file: %w", err)
	}
	if err := unix.Flock(fd, unix.LOCK_EX|unix.LOCK_NB); err != nil {
		unix.Close(fd)
		return fmt.Errorf("store: %s already in use by another process: %w", s.dir, err)
	}
	s.lockFd = fd
	return nil
}

func blockPath(dir string, hash chainhash.Hash) string {
	return filepath.Join(dir, hex.EncodeToString(hash[:])+".block")
}

// StoreBlock writes data under its content-addressed filename and
// overwrites the latest.block pointer to it. There is no fork logic:
// callers must invoke StoreBlock only for the block they intend to
// become the new tip.
func (s *ByteStore) StoreBlock(hash chainhash.Hash, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := blockPath(s.dir, hash)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("store: write block %s: %w", hash, err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, latestFileName), data, 0o644); err != nil {
		return fmt.Errorf("store: update latest pointer: %w", err)
	}
	return nil
}

// GetBlock reads back the bytes stored under hash, if any.
func (s *ByteStore) GetBlock(hash chainhash.Hash) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(blockPath(s.dir, hash))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("store: read block %s: %w", hash, err)
	}
	return data, true, nil
}

// GetLatest returns the bytes of the current tip block, and whether the
// chain has one yet (absent latest.block means an empty chain).
func (s *ByteStore) GetLatest() ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(s.dir, latestFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("store: read latest pointer: %w", err)
	}
	return data, true, nil
}

// BlockExists reports whether a block with the given hash is stored.
func (s *ByteStore) BlockExists(hash chainhash.Hash) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := os.Stat(blockPath(s.dir, hash))
	return err == nil
}

// Close releases the advisory directory lock.
func (s *ByteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lockFd >= 0 {
		unix.Close(s.lockFd)
		s.lockFd = -1
	}
	return nil
}
