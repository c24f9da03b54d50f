package config

import "errors"

// HTTPConfig configures the REST and WebSocket API.
type HTTPConfig struct {
	// Addr is the listen address. Empty disables the API.
	Addr string `json:"addr"`
	// Token, when set, is required as a Bearer token on write endpoints.
	Token string `json:"token"`
	// SnapshotMS is the interval between snapshots pushed to stream clients.
	SnapshotMS int `json:"snapshot_ms"`
}

func (c *HTTPConfig) SetDefaults() {
	if c.SnapshotMS <= 0 {
		c.SnapshotMS = 100
	}
}

func (c HTTPConfig) Validate() error {
	if c.SnapshotMS < 10 {
		return errors.New("snapshot_ms must be at least 10")
	}
	return nil
}
