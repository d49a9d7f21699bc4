package storage

import (
	"errors"
	"fmt"
	"sync"

	"github.com/eugenenazirov/coffeeshop-env/internal/environment"
)

var (
	// ErrUnknownVariant indicates the requested variant is not registered.
	ErrUnknownVariant = errors.New("unknown environment variant")
)

// Storage provides access to the environment variants served to the frontend.
type Storage interface {
	Get(name string) (environment.Environment, error)
	Names() []string
	Active() (string, environment.Environment)
	SetActive(name string) error
}

// MemoryStorage keeps the registered records in-memory and guards the active
// selection with a RWMutex. Records are held by value and never modified.
type MemoryStorage struct {
	mu      sync.RWMutex
	records map[string]environment.Environment
	names   []string
	active  string
}

// NewMemoryStorage initialises storage with every known variant and selects
// the one bundled into the binary.
func NewMemoryStorage() *MemoryStorage {
	names := environment.Variants()
	records := make(map[string]environment.Environment, len(names))
	for _, name := range names {
		env, _ := environment.Lookup(name)
		records[name] = env
	}

	return &MemoryStorage{
		records: records,
		names:   names,
		active:  environment.BuildMode,
	}
}

// Get returns a copy of the record registered under name.
func (s *MemoryStorage) Get(name string) (environment.Environment, error) {
	env, ok := s.records[environment.Canonical(name)]
	if !ok {
		return environment.Environment{}, fmt.Errorf("%w: %q", ErrUnknownVariant, name)
	}
	return env, nil
}

// Names returns the registered variant names in sorted order.
func (s *MemoryStorage) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Active returns the selected variant name and its record.
func (s *MemoryStorage) Active() (string, environment.Environment) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.active, s.records[s.active]
}

// SetActive switches the selected variant.
func (s *MemoryStorage) SetActive(name string) error {
	canonical := environment.Canonical(name)
	if _, ok := s.records[canonical]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownVariant, name)
	}

	s.mu.Lock()
	s.active = canonical
	s.mu.Unlock()

	return nil
}
