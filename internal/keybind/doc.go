// Package keybind collects a script client's key bindings and compiles them
// into input sections the engine can register.
//
// Each client owns one Registry. Declaring a binding is a two-step builder:
// Add reserves an id and a name and returns a Handle; Handle.Bind attaches
// the callback and makes the binding visible.
//
//	reg := keybind.NewRegistry("osc")
//	h, err := reg.Add("ctrl+p", "", keybind.Options{}.WithRepeatable(true))
//	if err != nil {
//	    return err
//	}
//	if err := h.Bind(func(ev keybind.Event) { togglePlaylist() }); err != nil {
//	    return err
//	}
//	err = reg.Flush(ctx, engine)
//
// # Sections
//
// Bindings with a key are compiled into two sections per client:
//
//	input_<client>         priority "default"  (normal bindings)
//	input_forced_<client>  priority "forced"   (forced bindings)
//
// A section's text is the lexicographically sorted list of input lines
//
//	<key> script-binding <client>/<name>
//
// joined with newlines, so the text only depends on the set of bindings and
// never on registration order. Bindings without a key are callback-only:
// they are reachable through script messages and never appear in a section.
//
// # Key states
//
// When a bound key changes state the engine sends a state code such as "d",
// "u", "um", "p" or "r". See KeyState.ShouldFire for the firing policy.
package keybind
