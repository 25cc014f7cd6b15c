package nui

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// MockRegistry holds canned fetch responses used when no host resource exists.
type MockRegistry struct {
	mu    sync.RWMutex
	mocks map[string]any
}

// NewMockRegistry creates an empty MockRegistry.
func NewMockRegistry() *MockRegistry {
	return &MockRegistry{mocks: make(map[string]any)}
}

// Set registers the response for event.
func (r *MockRegistry) Set(event string, response any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mocks[event] = response
}

// Get returns the response registered for event.
func (r *MockRegistry) Get(event string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	response, ok := r.mocks[event]
	return response, ok
}

// Delete removes the response for event.
func (r *MockRegistry) Delete(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.mocks, event)
}

// Events returns the registered event names, sorted.
func (r *MockRegistry) Events() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := make([]string, 0, len(r.mocks))
	for event := range r.mocks {
		events = append(events, event)
	}
	sort.Strings(events)
	return events
}

// LoadFile merges mocks from a YAML file mapping event names to responses.
// Existing entries with the same name are replaced.
func (r *MockRegistry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read mocks file: %w", err)
	}
	return r.Load(data)
}

// Load merges mocks from YAML data.
func (r *MockRegistry) Load(data []byte) error {
	var mocks map[string]any
	if err := yaml.Unmarshal(data, &mocks); err != nil {
		return fmt.Errorf("failed to parse mocks: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for event, response := range mocks {
		r.mocks[event] = response
	}
	return nil
}
