// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)
	require.Equal(t, uint16(8001), cfg.Port)
	require.Equal(t, RoleDual, cfg.Role)
	require.Equal(t, "info", cfg.DebugLevel)
	require.Equal(t, defaultDataDir, cfg.DataDir)
}

func TestLoadOverridesAndRepeatablePeer(t *testing.T) {
	cfg, err := Load([]string{
		"--port", "9001",
		"--role", "time",
		"--peer", "10.0.0.1:8001",
		"--peer", "10.0.0.2:8001",
		"--datadir", "/tmp/duonode-test",
		"--debuglevel", "debug",
	})
	require.NoError(t, err)
	require.Equal(t, uint16(9001), cfg.Port)
	require.Equal(t, RoleTime, cfg.Role)
	require.Equal(t, []string{"10.0.0.1:8001", "10.0.0.2:8001"}, cfg.Peers)
	require.Equal(t, "/tmp/duonode-test", cfg.DataDir)
	require.Equal(t, "debug", cfg.DebugLevel)
	require.True(t, cfg.Role.RunsTime())
	require.False(t, cfg.Role.RunsValue())
}

func TestLoadRejectsUnknownFlag(t *testing.T) {
	_, err := Load([]string{"--bogus", "x"})
	require.Error(t, err)
}

func TestLoadRejectsInvalidRole(t *testing.T) {
	_, err := Load([]string{"--role", "nonsense"})
	require.Error(t, err)
}
