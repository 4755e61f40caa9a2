package keybind

import (
	"sort"
	"strings"
)

// Section naming and registration constants understood by the engine.
const (
	SectionPrefix       = "input_"
	ForcedSectionPrefix = "input_forced_"

	PriorityDefault = "default"
	PriorityForced  = "forced"

	// EnableFlags is passed to every enable-section command.
	EnableFlags = "allow-hide-cursor+allow-vo-dragging"
)

// Section is one compiled input section.
type Section struct {
	Name     string
	Priority string
	Text     string
}

// Lines returns the section's input lines.
func (s Section) Lines() []string {
	if s.Text == "" {
		return nil
	}
	return strings.Split(s.Text, "\n")
}

// Commands returns the define-section and enable-section commands that
// register the section.
func (s Section) Commands() [][]string {
	return [][]string{
		{"define-section", s.Name, s.Text, s.Priority},
		{"enable-section", s.Name, EnableFlags},
	}
}

// NormalSectionName returns the name of a client's normal section.
func NormalSectionName(client string) string {
	return SectionPrefix + client
}

// ForcedSectionName returns the name of a client's forced section.
func ForcedSectionName(client string) string {
	return ForcedSectionPrefix + client
}

// compile builds a client's two sections from a set of bindings.
func compile(client string, bindings []*Binding) (normal, forced Section) {
	var normalLines, forcedLines []string
	for _, b := range bindings {
		if !b.HasKey() {
			continue
		}
		if b.Forced() {
			forcedLines = append(forcedLines, b.Input())
		} else {
			normalLines = append(normalLines, b.Input())
		}
	}
	sort.Strings(normalLines)
	sort.Strings(forcedLines)

	normal = Section{
		Name:     NormalSectionName(client),
		Priority: PriorityDefault,
		Text:     strings.Join(normalLines, "\n"),
	}
	forced = Section{
		Name:     ForcedSectionName(client),
		Priority: PriorityForced,
		Text:     strings.Join(forcedLines, "\n"),
	}
	return normal, forced
}
