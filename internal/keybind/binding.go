package keybind

import (
	"maps"
	"strconv"
)

// Options configures a binding.
type Options struct {
	// Repeatable makes the callback fire on press and key-repeat states.
	Repeatable bool

	// Forced puts the binding in the forced section.
	Forced bool

	// Complex asks for every key state to be reported to the callback.
	// It is passed through to the engine untouched.
	Complex bool

	// Extra holds further boolean modifiers passed opaquely to the engine.
	Extra map[string]bool
}

// WithRepeatable returns a copy with Repeatable set.
func (o Options) WithRepeatable(v bool) Options {
	o.Repeatable = v
	return o
}

// WithForced returns a copy with Forced set.
func (o Options) WithForced(v bool) Options {
	o.Forced = v
	return o
}

// WithComplex returns a copy with Complex set.
func (o Options) WithComplex(v bool) Options {
	o.Complex = v
	return o
}

// WithFlag returns a copy with an extra modifier set.
func (o Options) WithFlag(name string, v bool) Options {
	extra := make(map[string]bool, len(o.Extra)+1)
	maps.Copy(extra, o.Extra)
	extra[name] = v
	o.Extra = extra
	return o
}

// Flag returns the value of an extra modifier.
func (o Options) Flag(name string) bool {
	return o.Extra[name]
}

// Event describes why a callback runs.
type Event struct {
	// Name is the binding name.
	Name string

	// State is the raw key state code. It is empty when the callback runs
	// because of a script message.
	State string

	// Args are the script message arguments following the name.
	Args []string
}

// Callback is the action bound to a key.
type Callback func(Event)

// Binding is a declared association between an optional key and a callback.
type Binding struct {
	// ID is assigned by the registry, strictly increasing per client.
	ID int

	// Client is the owning client's name.
	Client string

	// KeySpec is the engine key name. Empty means callback-only.
	KeySpec string

	// Name is unique within the client.
	Name string

	Options  Options
	Callback Callback
}

// Forced reports whether the binding belongs to the forced section.
func (b *Binding) Forced() bool {
	return b.Options.Forced
}

// HasKey reports whether the binding maps an engine key.
func (b *Binding) HasKey() bool {
	return b.KeySpec != ""
}

// Input returns the input line for the binding's section, or "" for
// callback-only bindings.
func (b *Binding) Input() string {
	if !b.HasKey() {
		return ""
	}
	return b.KeySpec + " script-binding " + b.Client + "/" + b.Name
}

// SyntheticPrefix starts every generated binding name. Callers may not use
// it for their own names.
const SyntheticPrefix = "__keybinding"

// SyntheticName returns the generated name for a binding declared without one.
func SyntheticName(id int) string {
	return SyntheticPrefix + strconv.Itoa(id)
}
