package core

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// TokenSet is the set of integer tokens that authorize mutations.
// Membership is the only check; tokens never expire.
type TokenSet struct {
	mu     sync.RWMutex
	tokens map[int64]struct{}
}

// NewTokenSet returns a set holding tokens.
func NewTokenSet(tokens ...int64) *TokenSet {
	s := &TokenSet{tokens: make(map[int64]struct{}, len(tokens))}
	for _, t := range tokens {
		s.tokens[t] = struct{}{}
	}
	return s
}

// Add registers token.
func (s *TokenSet) Add(token int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = struct{}{}
}

// Check reports whether token is registered.
func (s *TokenSet) Check(token int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tokens[token]
	return ok
}

// Len returns the number of registered tokens.
func (s *TokenSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}

// Seed adds every token listed by src.
func (s *TokenSet) Seed(ctx context.Context, src TokenSource) (int, error) {
	tokens, err := src.Tokens(ctx)
	if err != nil {
		return 0, fmt.Errorf("load tokens: %w", err)
	}
	for _, t := range tokens {
		s.Add(t)
	}
	return len(tokens), nil
}

// Credential is the token supplied with a mutating call. A credential that
// was never sent is distinct from one that was sent but is wrong.
type Credential struct {
	raw     string
	present bool
}

// NoCredential is the credential of a call that sent no token.
func NoCredential() Credential { return Credential{} }

// TokenCredential wraps a token exactly as it was received.
func TokenCredential(raw string) Credential {
	return Credential{raw: raw, present: true}
}

// Present reports whether a token was sent at all.
func (c Credential) Present() bool { return c.present }

// authorize checks presence first, then membership.
func (s *TokenSet) authorize(c Credential) error {
	if !c.present {
		return ErrMissingCredential
	}
	token, err := strconv.ParseInt(strings.TrimSpace(c.raw), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: not an integer", ErrInvalidCredential)
	}
	if !s.Check(token) {
		return ErrInvalidCredential
	}
	return nil
}
