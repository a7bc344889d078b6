// Package nav is the navigation collaborator: an in-memory history stack
// the screens and completion handlers push to.
package nav

import (
	"sync"

	"github.com/intakehq/intake/internal/log"
)

// Navigator moves between screens.
type Navigator interface {
	Push(path string)
	Replace(path string)
}

// History is a Navigator backed by a stack of paths.
type History struct {
	mu       sync.Mutex
	stack    []string
	onChange func(path string)
}

// NewHistory starts at initial.
func NewHistory(initial string) *History {
	return &History{stack: []string{initial}}
}

// OnChange registers fn to run after every change, outside the lock.
func (h *History) OnChange(fn func(path string)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onChange = fn
}

// Push adds path on top of the stack.
func (h *History) Push(path string) {
	h.mu.Lock()
	h.stack = append(h.stack, path)
	fn := h.onChange
	h.mu.Unlock()

	log.Debug(log.CatNav, "push", "path", path)
	if fn != nil {
		fn(path)
	}
}

// Replace swaps the top of the stack for path.
func (h *History) Replace(path string) {
	h.mu.Lock()
	h.stack[len(h.stack)-1] = path
	fn := h.onChange
	h.mu.Unlock()

	log.Debug(log.CatNav, "replace", "path", path)
	if fn != nil {
		fn(path)
	}
}

// Back pops the top entry. It reports false at the root.
func (h *History) Back() bool {
	h.mu.Lock()
	if len(h.stack) < 2 {
		h.mu.Unlock()
		return false
	}
	h.stack = h.stack[:len(h.stack)-1]
	path := h.stack[len(h.stack)-1]
	fn := h.onChange
	h.mu.Unlock()

	log.Debug(log.CatNav, "back", "path", path)
	if fn != nil {
		fn(path)
	}
	return true
}

// Current returns the top of the stack.
func (h *History) Current() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stack[len(h.stack)-1]
}

// Len returns the stack depth.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.stack)
}
