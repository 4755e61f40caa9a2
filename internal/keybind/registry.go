package keybind

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/dshills/scriptbridge/internal/host"
)

// FirstID is the id handed to the first binding of a registry.
const FirstID = 1

// Registry holds one client's bindings and its script-message table.
//
// Bindings are declared during the client's initialization and never
// removed. The mutex makes reads from the dispatcher goroutine safe even
// though mutation is expected to finish before polling starts.
type Registry struct {
	mu sync.RWMutex

	client string
	nextID int

	// reserved holds every name handed out by Add, bound or not.
	reserved map[string]int

	// bindings is keyed by binding name.
	bindings map[string]*Binding

	// messages is the script-message dispatch table keyed by name.
	messages map[string]Callback

	// dirty is set when bindings changed since the last flush.
	dirty bool
}

// NewRegistry creates a registry for the named client.
func NewRegistry(client string) *Registry {
	return &Registry{
		client:   client,
		nextID:   FirstID,
		reserved: make(map[string]int),
		bindings: make(map[string]*Binding),
		messages: make(map[string]Callback),
	}
}

// Client returns the owning client's name.
func (r *Registry) Client() string {
	return r.client
}

// Handle is a declared binding waiting for its callback.
type Handle struct {
	reg     *Registry
	binding *Binding
	bound   bool
}

// ID returns the binding id.
func (h *Handle) ID() int {
	return h.binding.ID
}

// Name returns the binding name (synthesized when none was given).
func (h *Handle) Name() string {
	return h.binding.Name
}

// Bind attaches the callback and registers the binding. The callback is
// stored in the script-message table and the binding in the bindings table,
// both keyed by name.
func (h *Handle) Bind(cb Callback) error {
	if cb == nil {
		return &Error{Client: h.reg.client, Binding: h.binding.Name, Err: ErrNilCallback}
	}

	r := h.reg
	r.mu.Lock()
	defer r.mu.Unlock()

	if h.bound {
		return &Error{Client: r.client, Binding: h.binding.Name, Err: ErrAlreadyBound}
	}
	h.bound = true
	h.binding.Callback = cb
	r.messages[h.binding.Name] = cb
	r.bindings[h.binding.Name] = h.binding
	r.dirty = true
	return nil
}

// Add declares a binding. keySpec may be empty for a callback-only binding;
// name may be empty, in which case "__keybinding<id>" is used; caller names
// may not start with that prefix, so generated names never collide. Every
// call consumes an id, even when it fails validation of the name.
func (r *Registry) Add(keySpec, name string, opts Options) (*Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++

	if name == "" {
		name = SyntheticName(id)
	} else if strings.HasPrefix(name, SyntheticPrefix) {
		return nil, &Error{
			Client:  r.client,
			Binding: name,
			Err:     fmt.Errorf("%w: prefix %s is reserved", ErrInvalidBindingName, SyntheticPrefix),
		}
	}
	if err := validateName(name); err != nil {
		return nil, &Error{Client: r.client, Binding: name, Err: err}
	}
	if err := validateKeySpec(keySpec); err != nil {
		return nil, &Error{Client: r.client, Binding: name, Err: err}
	}
	if prev, exists := r.reserved[name]; exists {
		return nil, &Error{
			Client:  r.client,
			Binding: name,
			Err:     fmt.Errorf("%w (first declared with id %d)", ErrDuplicateBindingName, prev),
		}
	}
	r.reserved[name] = id

	return &Handle{
		reg: r,
		binding: &Binding{
			ID:      id,
			Client:  r.client,
			KeySpec: keySpec,
			Name:    name,
			Options: opts,
		},
	}, nil
}

// AddFunc declares and binds in one step.
func (r *Registry) AddFunc(keySpec, name string, opts Options, cb Callback) (*Binding, error) {
	h, err := r.Add(keySpec, name, opts)
	if err != nil {
		return nil, err
	}
	if err := h.Bind(cb); err != nil {
		return nil, err
	}
	return h.binding, nil
}

func validateName(name string) error {
	if strings.ContainsFunc(name, unicode.IsSpace) || strings.Contains(name, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidBindingName, name)
	}
	return nil
}

func validateKeySpec(key string) error {
	if strings.ContainsFunc(key, unicode.IsSpace) {
		return fmt.Errorf("%w: %q", ErrInvalidKeySpec, key)
	}
	return nil
}

// Lookup returns a bound binding by name.
func (r *Registry) Lookup(name string) (*Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bindings[name]
	return b, ok
}

// Bindings returns the bound bindings ordered by id.
func (r *Registry) Bindings() []*Binding {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedLocked()
}

func (r *Registry) sortedLocked() []*Binding {
	out := make([]*Binding, 0, len(r.bindings))
	for _, b := range r.bindings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}

// Len returns the number of bound bindings.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bindings)
}

// Dirty reports whether bindings were added since the last flush.
func (r *Registry) Dirty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dirty
}

// Sections compiles the normal and forced sections.
func (r *Registry) Sections() (normal, forced Section) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return compile(r.client, r.sortedLocked())
}

// Commands returns the four engine commands Flush issues, in order.
func (r *Registry) Commands() [][]string {
	normal, forced := r.Sections()
	return append(normal.Commands(), forced.Commands()...)
}

// Flush registers both sections with the engine: define and enable the
// normal section, then define and enable the forced section. It stops at
// the first failing command.
func (r *Registry) Flush(ctx context.Context, cmd host.Commander) error {
	for _, args := range r.Commands() {
		if err := cmd.Commandv(ctx, args...); err != nil {
			return fmt.Errorf("flush %s %s: %w", args[0], args[1], err)
		}
	}

	r.mu.Lock()
	r.dirty = false
	r.mu.Unlock()
	return nil
}

// Dispatch handles a key state change for the named binding. It reports
// whether the callback ran.
func (r *Registry) Dispatch(name, state string) (bool, error) {
	b, ok := r.Lookup(name)
	if !ok {
		return false, &Error{Client: r.client, Binding: name, Err: ErrUnknownBinding}
	}

	st, err := ParseState(state)
	if err != nil {
		return false, &Error{Client: r.client, Binding: name, Err: err}
	}
	if !st.ShouldFire(b.Options.Repeatable) {
		return false, nil
	}

	b.Callback(Event{Name: name, State: state})
	return true, nil
}

// Message invokes the script-message handler registered under name.
// It reports whether a handler exists.
func (r *Registry) Message(name string, args []string) bool {
	r.mu.RLock()
	cb, ok := r.messages[name]
	r.mu.RUnlock()
	if !ok {
		return false
	}

	cb(Event{Name: name, Args: args})
	return true
}

// RegisterMessage installs a script-message handler that is not tied to a
// key. A later registration under the same name replaces the earlier one.
func (r *Registry) RegisterMessage(name string, cb Callback) error {
	if cb == nil {
		return &Error{Client: r.client, Binding: name, Err: ErrNilCallback}
	}
	if err := validateName(name); err != nil {
		return &Error{Client: r.client, Binding: name, Err: err}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[name] = cb
	return nil
}
