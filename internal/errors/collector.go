package errors

import (
	"sync"
)

// ErrorCollector aggregates errors from operations that continue past
// individual failures, such as a multi-page audit.
type ErrorCollector struct {
	mu     sync.RWMutex
	errors []*LucidError
}

// NewErrorCollector creates an empty collector.
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{}
}

// Add records an error. Non-LucidError values are wrapped as internal
// errors so every collected entry carries a type and code.
func (c *ErrorCollector) Add(err error) {
	if err == nil {
		return
	}

	le, ok := err.(*LucidError)
	if !ok {
		le = NewInternalError(ErrCodeInternalError, err.Error(), err)
	}

	c.mu.Lock()
	c.errors = append(c.errors, le)
	c.mu.Unlock()
}

// Errors returns a copy of the collected errors.
func (c *ErrorCollector) Errors() []*LucidError {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*LucidError, len(c.errors))
	copy(out, c.errors)

	return out
}

// HasErrors reports whether anything was collected.
func (c *ErrorCollector) HasErrors() bool {
	return c.Count() > 0
}

// Count returns the number of collected errors.
func (c *ErrorCollector) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.errors)
}

// Clear drops all collected errors.
func (c *ErrorCollector) Clear() {
	c.mu.Lock()
	c.errors = nil
	c.mu.Unlock()
}
