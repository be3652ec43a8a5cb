// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/require"
)

func TestByteStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	require.NoError(t, s.Init())
	defer s.Close()

	_, ok, err := s.GetLatest()
	require.NoError(t, err)
	require.False(t, ok)

	data := []byte("a serialized block")
	hash := chainhash.HashH(data)

	require.NoError(t, s.StoreBlock(hash, data))

	got, ok, err := s.GetBlock(hash)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, data, got)

	latest, ok, err := s.GetLatest()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, data, latest)

	require.True(t, s.BlockExists(hash))
	require.False(t, s.BlockExists(chainhash.Hash{}))
}

func TestByteStoreSecondInitFailsWhileLocked(t *testing.T) {
	dir := t.TempDir()
	s1 := New(dir)
	require.NoError(t, s1.Init())
	defer s1.Close()

	s2 := New(dir)
	require.Error(t, s2.Init())
}

func TestByteStoreOverwritesLatestPointer(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	require.NoError(t, s.Init())
	defer s.Close()

	first := []byte("first")
	second := []byte("second")
	require.NoError(t, s.StoreBlock(chainhash.HashH(first), first))
	require.NoError(t, s.StoreBlock(chainhash.HashH(second), second))

	latest, ok, err := s.GetLatest()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, second, latest)

	// Both blocks remain individually addressable even though the
	// pointer only ever tracks the most recent write.
	gotFirst, ok, err := s.GetBlock(chainhash.HashH(first))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, first, gotFirst)
}
