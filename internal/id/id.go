// Package id generates the prefixed surrogate keys used by every catalog
// entity. Keys double as search document IDs, so the prefix names the kind.
package id

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// alphabet leaves out '-' so the prefix separator is unambiguous.
const (
	alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	size     = 21
)

// Generate creates a key of the form prefix-nanoid (e.g. "ebook-V1StGXR8Z5jdHi6BmyTaq").
func Generate(prefix string) (string, error) {
	if prefix == "" || strings.Contains(prefix, "-") {
		return "", fmt.Errorf("invalid id prefix %q", prefix)
	}
	n, err := gonanoid.Generate(alphabet, size)
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + n, nil
}

// MustGenerate is like Generate but panics on failure.
func MustGenerate(prefix string) string {
	v, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return v
}

// Prefix returns the kind prefix of a key, or "" when the key has none.
func Prefix(key string) string {
	p, _, ok := strings.Cut(key, "-")
	if !ok {
		return ""
	}
	return p
}
