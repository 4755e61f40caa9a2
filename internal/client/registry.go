// Package client keeps track of the script clients loaded into the engine.
//
// The registry is an ordered list of client names. Order is load order and
// is the canonical order used for broadcasting events; a client's index is
// its 0-based position in that list.
package client

import (
	"strings"
	"sync"
)

// Registry is the ordered set of loaded client names.
type Registry struct {
	mu     sync.RWMutex
	names  []string
	sealed bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		names: make([]string, 0),
	}
}

// Register appends name to the registry.
// It fails with ErrDuplicateClient if name is already registered and with
// ErrRegistrationClosed once the registry has been sealed.
func (r *Registry) Register(name string) error {
	if strings.TrimSpace(name) == "" {
		return &Error{Op: "register", Name: name, Err: ErrInvalidName}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return &Error{Op: "register", Name: name, Err: ErrRegistrationClosed}
	}
	if r.indexOf(name) >= 0 {
		return &Error{Op: "register", Name: name, Err: ErrDuplicateClient}
	}

	r.names = append(r.names, name)
	return nil
}

// IndexOf returns the 0-based insertion position of name.
func (r *Registry) IndexOf(name string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx := r.indexOf(name)
	if idx < 0 {
		return -1, &Error{Op: "index", Name: name, Err: ErrUnknownClient}
	}
	return idx, nil
}

// indexOf is a linear scan; client counts stay in the low tens.
func (r *Registry) indexOf(name string) int {
	for i, n := range r.names {
		if n == name {
			return i
		}
	}
	return -1
}

// Contains reports whether name is registered.
func (r *Registry) Contains(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.indexOf(name) >= 0
}

// Names returns the registered names in load order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string{}, r.names...)
}

// Len returns the number of registered clients.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}

// Seal closes the registry for further registration. The dispatcher seals
// the registry before it starts polling.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
}

// Sealed reports whether registration is closed.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}
