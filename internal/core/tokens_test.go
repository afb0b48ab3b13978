package core

import (
	"context"
	"errors"
	"testing"
)

type staticTokens []int64

func (s staticTokens) Tokens(context.Context) ([]int64, error) { return s, nil }

type failingTokens struct{}

func (failingTokens) Tokens(context.Context) ([]int64, error) {
	return nil, errors.New("connection refused")
}

func TestTokenSet_AddCheck(t *testing.T) {
	s := NewTokenSet(1)
	if !s.Check(1) {
		t.Error("seeded token not found")
	}
	if s.Check(2) {
		t.Error("unregistered token found")
	}

	s.Add(2)
	s.Add(2)
	if !s.Check(2) {
		t.Error("added token not found")
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}

func TestTokenSet_Seed(t *testing.T) {
	s := NewTokenSet()
	n, err := s.Seed(context.Background(), staticTokens{7, 8})
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if n != 2 || !s.Check(7) || !s.Check(8) {
		t.Errorf("Seed loaded %d tokens, set has %d", n, s.Len())
	}

	if _, err := s.Seed(context.Background(), failingTokens{}); err == nil {
		t.Error("expected error from failing source")
	}
}

func TestTokenSet_Authorize(t *testing.T) {
	s := NewTokenSet(42)

	tests := []struct {
		name string
		cred Credential
		want error
	}{
		{name: "absent", cred: NoCredential(), want: ErrMissingCredential},
		{name: "empty value is present but invalid", cred: TokenCredential(""), want: ErrInvalidCredential},
		{name: "not an integer", cred: TokenCredential("abc"), want: ErrInvalidCredential},
		{name: "unregistered", cred: TokenCredential("41"), want: ErrInvalidCredential},
		{name: "registered", cred: TokenCredential("42"), want: nil},
		{name: "registered with spaces", cred: TokenCredential(" 42 "), want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.authorize(tt.cred)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("authorize() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("authorize() = %v, want %v", err, tt.want)
			}
		})
	}
}
