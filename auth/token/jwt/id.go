package jwt

import (
	"strconv"
	"sync/atomic"

	"github.com/gofrs/uuid"
)

// IDGenerator generates unique token IDs.
//
// Implementations must be safe for concurrent use.
type IDGenerator interface {
	GenerateID() (string, error)
}

// UUIDGenerator generates random (version 4) UUIDs.
type UUIDGenerator struct{}

// GenerateID implements IDGenerator.
func (UUIDGenerator) GenerateID() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

// CounterGenerator generates sequential IDs with a fixed prefix.
// IDs are only unique within a single process.
type CounterGenerator struct {
	prefix  string
	counter atomic.Uint64
}

// NewCounterGenerator returns a new CounterGenerator.
func NewCounterGenerator(prefix string) *CounterGenerator {
	return &CounterGenerator{
		prefix: prefix,
	}
}

// GenerateID implements IDGenerator.
func (g *CounterGenerator) GenerateID() (string, error) {
	return g.prefix + strconv.FormatUint(g.counter.Add(1), 10), nil
}
