// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Command duonoded runs a peer-to-peer duonode: a TimeChain heartbeat
// chain and a ValueChain transaction chain, replicated to a
// statically-configured set of peers over TCP.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/toole-brendan/duonode/config"
	"github.com/toole-brendan/duonode/crypto"
	"github.com/toole-brendan/duonode/node"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code: 0 on clean shutdown, 1 on any
// configuration, initialization, or startup failure (§7).
func run() int {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if err := initLogRotator(filepath.Join(cfg.DataDir, "logs", "duonoded.log")); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := setLogLevels(cfg.DebugLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	log := mainLogger()

	priv, err := loadOrGenerateKey(cfg.DataDir)
	if err != nil {
		log.Errorf("load node key: %v", err)
		return 1
	}

	n, err := node.New(cfg, priv)
	if err != nil {
		log.Errorf("construct node: %v", err)
		return 1
	}

	if err := n.Start(); err != nil {
		log.Errorf("start node: %v", err)
		return 1
	}
	log.Infof("duonoded started: port=%d role=%s pubkey=%x", cfg.Port, cfg.Role, n.PublicKey())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Infof("shutting down")
	n.Stop()
	log.Infof("shutdown complete")
	return 0
}

// loadOrGenerateKey reads a persisted private key from
// <datadir>/node.key, or generates and persists a fresh one if absent.
// This is a thin convenience over cmd/keygen: it lets a bare
// duonoded invocation work without an operator running the offline
// tool first, while still honoring a key the operator installed.
func loadOrGenerateKey(dataDir string) (crypto.PrivateKey, error) {
	keyPath := filepath.Join(dataDir, "node.key")

	if data, err := os.ReadFile(keyPath); err == nil {
		var priv crypto.PrivateKey
		if len(data) != crypto.PrivateKeySize {
			return priv, fmt.Errorf("node key file %s has %d bytes, want %d", keyPath, len(data), crypto.PrivateKeySize)
		}
		copy(priv[:], data)
		return priv, nil
	} else if !os.IsNotExist(err) {
		return crypto.PrivateKey{}, fmt.Errorf("read node key: %w", err)
	}

	priv, err := crypto.GeneratePrivateKey()
	if err != nil {
		return priv, fmt.Errorf("generate node key: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return priv, fmt.Errorf("create data directory: %w", err)
	}
	if err := os.WriteFile(keyPath, priv[:], 0o600); err != nil {
		return priv, fmt.Errorf("persist node key: %w", err)
	}
	return priv, nil
}
