package auth

import (
	"sync"
	"time"
)

// Blacklist tracks issued tokens and revocations in memory. Revoked tokens
// stay listed until their natural expiry, after which the janitor drops them.
// All maps share one mutex so user-level revocation is atomic.
type Blacklist struct {
	mu         sync.Mutex
	revoked    map[string]time.Time          // token -> expiry
	tokenUser  map[string]string             // token -> email
	userTokens map[string]map[string]struct{} // email -> live tokens
}

func NewBlacklist() *Blacklist {
	return &Blacklist{
		revoked:    make(map[string]time.Time),
		tokenUser:  make(map[string]string),
		userTokens: make(map[string]map[string]struct{}),
	}
}

// Track records a freshly issued token so it can be revoked later.
func (b *Blacklist) Track(token, email string, expiry time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokenUser[token] = email
	set, ok := b.userTokens[email]
	if !ok {
		set = make(map[string]struct{})
		b.userTokens[email] = set
	}
	set[token] = struct{}{}
}

// Revoke blacklists one token until expiry and stops tracking it.
func (b *Blacklist) Revoke(token string, expiry time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revoked[token] = expiry
	b.untrack(token)
}

// RevokeUser blacklists every tracked token of one user. Called when an
// account is deactivated.
func (b *Blacklist) RevokeUser(email string, expiry time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for token := range b.userTokens[email] {
		b.revoked[token] = expiry
		delete(b.tokenUser, token)
	}
	delete(b.userTokens, email)
}

// IsRevoked reports whether a token has been blacklisted and is still within
// its lifetime.
func (b *Blacklist) IsRevoked(token string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	expiry, ok := b.revoked[token]
	if !ok {
		return false
	}
	if time.Now().After(expiry) {
		delete(b.revoked, token)
		return false
	}
	return true
}

// untrack removes one token from the issue-tracking maps. Caller holds the
// lock.
func (b *Blacklist) untrack(token string) {
	email, ok := b.tokenUser[token]
	if !ok {
		return
	}
	delete(b.tokenUser, token)
	if set := b.userTokens[email]; set != nil {
		delete(set, token)
		if len(set) == 0 {
			delete(b.userTokens, email)
		}
	}
}

// Sweep drops expired entries from both the revocation and tracking maps.
func (b *Blacklist) Sweep(now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for token, expiry := range b.revoked {
		if now.After(expiry) {
			delete(b.revoked, token)
		}
	}
}

// Janitor sweeps the blacklist at a fixed period until stop is closed.
func (b *Blacklist) Janitor(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			b.Sweep(now)
		}
	}
}
