// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"sync"
	"time"
)

// Blacklist is a concurrency-safe set of revoked nonces. Each entry
// remembers the token's natural expiry so Cleanup can drop it once
// Verify would reject the token anyway.
type Blacklist struct {
	mu      sync.RWMutex
	entries map[string]time.Time
}

func NewBlacklist() *Blacklist {
	return &Blacklist{entries: make(map[string]time.Time)}
}

// Revoke adds nonce until expiresAt.
func (b *Blacklist) Revoke(nonce string, expiresAt time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[nonce] = expiresAt
}

func (b *Blacklist) IsRevoked(nonce string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, exists := b.entries[nonce]
	return exists
}

// Cleanup removes entries whose expiry is at or before now and
// returns how many were removed.
func (b *Blacklist) Cleanup(now time.Time) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	removed := 0
	for nonce, expiresAt := range b.entries {
		if !now.Before(expiresAt) {
			delete(b.entries, nonce)
			removed++
		}
	}
	return removed
}

func (b *Blacklist) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}
