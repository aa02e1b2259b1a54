package ident

import (
	"strconv"

	"github.com/google/uuid"
)

// Generator produces unique ids for connections and chat messages.
type Generator interface {
	NewID() string
}

// UUID is the default Generator backed by random UUIDs.
type UUID struct{}

func New() UUID { return UUID{} }

func (UUID) NewID() string { return uuid.NewString() }

// Sequence is a deterministic Generator for tests.
type Sequence struct {
	Prefix string
	n      int
}

func (s *Sequence) NewID() string {
	s.n++
	return s.Prefix + strconv.Itoa(s.n)
}
