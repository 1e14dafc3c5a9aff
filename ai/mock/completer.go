package mock

import (
	"context"
	"fmt"
	"sync"
)

// MockCompleter is a test double for ai.Completer.
// It allows custom behavior injection via function fields.
// Safe for concurrent use, matching the ai.Completer contract.
type MockCompleter struct {
	// CompleteFunc is called by Complete if set.
	// If nil, uses default deterministic behavior.
	CompleteFunc func(ctx context.Context, system, user string) (string, error)

	mu        sync.Mutex
	callCount int

	// LastSystem and LastUser record the prompts of the most recent call,
	// letting tests assert on prompt construction. Read them only after
	// the call under test has returned.
	LastSystem string
	LastUser   string
}

// NewMockCompleter creates a mock completer with default deterministic behavior.
// Note: Returns concrete type to allow test assertions via GetMockCompleter().
func NewMockCompleter() *MockCompleter {
	return &MockCompleter{}
}

// Complete returns a deterministic canned answer that echoes the question.
func (m *MockCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.LastSystem = system
	m.LastUser = user
	fn := m.CompleteFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, system, user)
	}

	return fmt.Sprintf("mock answer to: %s", user), nil
}

// CallCount returns the number of times Complete was called.
func (m *MockCompleter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count, recorded prompts, and any injected behavior.
func (m *MockCompleter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.LastSystem = ""
	m.LastUser = ""
	m.CompleteFunc = nil
}
