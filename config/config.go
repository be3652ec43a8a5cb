// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package config parses duonoded's command-line flags into a single,
// fully-resolved Config value. There is no package-level mutable
// config singleton: Load returns a value handed once into the
// construction graph, per design note §9's guidance to lift
// process-wide singletons into explicit construction.
package config

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/jessevdk/go-flags"
)

// Role selects which chain(s) a node runs consensus loops for.
type Role string

// The three roles accepted by --role.
const (
	RoleTime  Role = "time"
	RoleValue Role = "value"
	RoleDual  Role = "dual"
)

// RunsTime reports whether r includes the TimeChain production loop.
func (r Role) RunsTime() bool { return r == RoleTime || r == RoleDual }

// RunsValue reports whether r includes the ValueChain production loop.
func (r Role) RunsValue() bool { return r == RoleValue || r == RoleDual }

const defaultAppName = "duonode"

// defaultDataDir resolves to the OS-appropriate application data
// directory for defaultAppName, mirroring btcd's config.go.
var defaultDataDir = btcutil.AppDataDir(defaultAppName, false)

// options is the go-flags struct Load parses, trimmed to this node's
// surface from the shape of a btcd-style config.go.
type options struct {
	Port       uint16   `long:"port" description:"TCP port to listen and dial peers on" default:"8001"`
	Role       string   `long:"role" description:"which consensus loops to run: time, value, or dual" default:"dual"`
	Peers      []string `long:"peer" description:"host:port of a peer to connect to at startup; may be given multiple times"`
	DataDir    string   `long:"datadir" description:"directory to store both chains' data under"`
	Proxy      string   `long:"proxy" description:"host:port of a SOCKS5 proxy to dial outbound peers through"`
	DebugLevel string   `long:"debuglevel" description:"logging level: trace, debug, info, warn, error, critical" default:"info"`
}

// Config is the fully-resolved, immutable configuration for one
// duonode process.
type Config struct {
	Port       uint16
	Role       Role
	Peers      []string
	DataDir    string
	Proxy      string
	DebugLevel string
}

// Load parses args (typically os.Args[1:]) into a Config. An unknown
// flag or malformed value is a configuration error per §7 and returns
// a non-nil error; the caller exits 1 without further action.
func Load(args []string) (*Config, error) {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	role := Role(opts.Role)
	switch role {
	case RoleTime, RoleValue, RoleDual:
	default:
		return nil, fmt.Errorf("config: invalid --role %q: want time, value, or dual", opts.Role)
	}

	dataDir := opts.DataDir
	if dataDir == "" {
		dataDir = defaultDataDir
	}

	return &Config{
		Port:       opts.Port,
		Role:       role,
		Peers:      opts.Peers,
		DataDir:    dataDir,
		Proxy:      opts.Proxy,
		DebugLevel: opts.DebugLevel,
	}, nil
}
