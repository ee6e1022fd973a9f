// Package callsign generates human-readable identifiers for battle runs and
// player pilots, adapted from the teacher's internal/names package.
package callsign

import (
	"errors"
	"fmt"
	"sync"

	"github.com/xyproto/randomstring"
)

// ErrNoMoreCallsigns is returned when all available callsigns have been used.
var ErrNoMoreCallsigns = errors.New("no more callsigns available")

// DefaultCallsigns is the pilot-callsign pool cmd/battle draws from when
// labeling player tanks, assigned in player-index order.
var DefaultCallsigns = []string{
	"Viper", "Ghost", "Falcon", "Rattler", "Maverick", "Havoc",
	"Reaper", "Cobra", "Nomad", "Banshee", "Widow", "Jackal",
}

// Generator assigns callsigns to players sequentially from a provided list.
// It is thread-safe and tracks which callsigns have been used.
type Generator struct {
	callsigns []string
	counter   int
	mu        sync.Mutex
}

// NewGenerator creates a new callsign generator with the provided list.
// Returns an error if the list is empty.
func NewGenerator(callsigns []string) (*Generator, error) {
	if len(callsigns) == 0 {
		return nil, errors.New("callsign list must not be empty")
	}
	return &Generator{callsigns: callsigns}, nil
}

// Next returns the next available callsign, or ErrNoMoreCallsigns once the
// list is exhausted.
func (g *Generator) Next() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.counter >= len(g.callsigns) {
		return "", ErrNoMoreCallsigns
	}
	name := g.callsigns[g.counter]
	g.counter++
	return name, nil
}

// Reset allows callsigns to be reused; primarily for testing.
func (g *Generator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter = 0
}

// Remaining returns the number of unused callsigns.
func (g *Generator) Remaining() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.callsigns) - g.counter
}

// NewRunID creates a random battle run identifier with the given prefix,
// used to key trace lines on the Kafka sink and to label log output.
func NewRunID(prefix string) string {
	const suffixLength = 6
	return fmt.Sprintf("%s-%s", prefix, randomstring.String(suffixLength))
}
