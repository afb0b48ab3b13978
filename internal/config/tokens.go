package config

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// TokenFile is the YAML layout of AUTH_TOKENS_FILE:
//
//	tokens:
//	  - 42
//	  - 1001
type TokenFile struct {
	Tokens []int64 `yaml:"tokens"`
}

// LoadTokenFile reads a token file. An empty path yields no tokens.
func LoadTokenFile(path string) ([]int64, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read token file: %w", err)
	}
	var tf TokenFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parse token file %s: %w", path, err)
	}
	return tf.Tokens, nil
}

// SeedTokens returns AUTH_TOKENS merged with the tokens file, sorted and
// without duplicates.
func (c *Config) SeedTokens() ([]int64, error) {
	fromFile, err := LoadTokenFile(c.Security.AuthTokensFile)
	if err != nil {
		return nil, err
	}
	tokens := append(slices.Clone(c.Security.AuthTokens), fromFile...)
	slices.Sort(tokens)
	return slices.Compact(tokens), nil
}
