// Package fleetdb exposes a stable API for third-party packages and
// tooling to access the fleet store directly, without going through the
// push hub.
package fleetdb

import (
	"fleetwatch/internal/store"
)

// Client wraps an open store.
type Client struct {
	s *store.Store
}

// Open opens (creating if needed) the SQLite store at path.
func Open(path string) (*Client, error) {
	s, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	return &Client{s: s}, nil
}

// Close closes the underlying store.
func (c *Client) Close() error { return c.s.Close() }
