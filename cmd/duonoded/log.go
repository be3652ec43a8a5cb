// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"

	"github.com/toole-brendan/duonode/crypto"
	"github.com/toole-brendan/duonode/node"
	"github.com/toole-brendan/duonode/peer"
	"github.com/toole-brendan/duonode/store"
	"github.com/toole-brendan/duonode/timechain"
	"github.com/toole-brendan/duonode/valuechain"
	"github.com/toole-brendan/duonode/wire"
)

// logRotator is the size-rolled file under <datadir>/logs; logWriter
// writes every log line to both stdout and it, exactly as btcd's own
// daemon logging does it.
var logRotator *rotator.Rotator

type logWriter struct{}

func (logWriter) Write(p []byte) (int, error) {
	os.Stdout.Write(p)
	if logRotator != nil {
		logRotator.Write(p)
	}
	return len(p), nil
}

var backendLog = btclog.NewBackend(logWriter{})

// subsystemLoggers maps each package's logging subsystem tag to the
// UseLogger setter it exposes, so setLogLevels can hand every package
// its own btclog.Logger at the configured level.
var subsystemLoggers = map[string]func(btclog.Logger){
	"CRYP": crypto.UseLogger,
	"WIRE": wire.UseLogger,
	"STOR": store.UseLogger,
	"TIMC": timechain.UseLogger,
	"VALC": valuechain.UseLogger,
	"PEER": peer.UseLogger,
	"NODE": node.UseLogger,
}

// initLogRotator creates logFile's parent directory and opens a
// rotator over it, called once before any subsystem logs.
func initLogRotator(logFile string) error {
	logDir := filepath.Dir(logFile)
	if err := os.MkdirAll(logDir, 0o700); err != nil {
		return fmt.Errorf("create log directory %s: %w", logDir, err)
	}
	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		return fmt.Errorf("create log rotator: %w", err)
	}
	logRotator = r
	return nil
}

// setLogLevels parses levelStr and installs a backendLog-backed
// logger at that level into every subsystem.
func setLogLevels(levelStr string) error {
	level, ok := btclog.LevelFromString(levelStr)
	if !ok {
		return fmt.Errorf("unknown log level %q", levelStr)
	}
	for tag, use := range subsystemLoggers {
		logger := backendLog.Logger(tag)
		logger.SetLevel(level)
		use(logger)
	}
	return nil
}

// mainLogger returns the MAIN-tagged logger main.go logs startup and
// shutdown events through, distinct from any package's own logger.
func mainLogger() btclog.Logger {
	l := backendLog.Logger("MAIN")
	l.SetLevel(btclog.LevelInfo)
	return l
}

