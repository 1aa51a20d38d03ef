package auth

import (
	"slices"

	"github.com/adamwoolhether/gdata/uri"
)

// Store is an insertion-ordered collection of tokens. Find returns the
// first added token that covers a target, not the most specific one.
//
// A Store is not safe for concurrent mutation; clients configure it up
// front and only read it per request.
type Store struct {
	tokens []Token
}

// NewStore returns a store holding tokens in order.
func NewStore(tokens ...Token) *Store {
	return &Store{tokens: slices.Clone(tokens)}
}

// Add appends t.
func (s *Store) Add(t Token) {
	s.tokens = append(s.tokens, t)
}

// Remove drops t, compared by identity, and reports whether it was held.
func (s *Store) Remove(t Token) bool {
	i := slices.IndexFunc(s.tokens, func(held Token) bool { return held == t })
	if i < 0 {
		return false
	}

	s.tokens = slices.Delete(s.tokens, i, i+1)
	return true
}

// Replace swaps old for replacement in place, or appends replacement when
// old is not held.
func (s *Store) Replace(old, replacement Token) {
	i := slices.IndexFunc(s.tokens, func(held Token) bool { return held == old })
	if i < 0 {
		s.Add(replacement)
		return
	}

	s.tokens[i] = replacement
}

// Find returns the first token covering target, or Anonymous.
func (s *Store) Find(target *uri.URI) Token {
	if s == nil {
		return Anonymous
	}

	for _, t := range s.tokens {
		if t != nil && t.Covers(target) {
			return t
		}
	}

	return Anonymous
}

// Tokens returns the held tokens in insertion order.
func (s *Store) Tokens() []Token {
	return slices.Clone(s.tokens)
}

// Len returns the number of held tokens.
func (s *Store) Len() int {
	return len(s.tokens)
}
