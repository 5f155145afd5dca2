package layout

import (
	"slices"

	"github.com/matzehuels/pathwaygraph/pkg/pathway"
)

// Expansion tracks which nodes have their detail panel open.
//
// Click semantics:
//   - Start never toggles; clicking it only records it as last selected.
//   - Clicking the last selected node again flips it.
//   - Clicking any other node expands it if it was collapsed (an already
//     expanded node stays expanded) and records it as last selected.
//
// Only the last selected node can be collapsed by a click.
//
// The zero value is not usable; call [NewExpansion]. Expansion is not safe
// for concurrent use.
type Expansion struct {
	expanded     map[string]bool
	lastSelected string
}

// NewExpansion returns a state with every node collapsed.
func NewExpansion() *Expansion {
	return &Expansion{expanded: make(map[string]bool)}
}

// RestoreExpansion rebuilds a state saved with [Expansion.State] and
// [Expansion.LastSelected].
func RestoreExpansion(expanded map[string]bool, lastSelected string) *Expansion {
	e := NewExpansion()
	for k, v := range expanded {
		if v && k != pathway.StartKey {
			e.expanded[k] = true
		}
	}
	e.lastSelected = lastSelected
	return e
}

// Click applies a click on key. It always returns true: every click
// invalidates the current layout because the node's measured height is about
// to change.
func (e *Expansion) Click(key string) bool {
	if key == pathway.StartKey {
		e.lastSelected = key
		return true
	}
	if key == e.lastSelected {
		e.setExpanded(key, !e.expanded[key])
	} else if !e.expanded[key] {
		e.setExpanded(key, true)
	}
	e.lastSelected = key
	return true
}

func (e *Expansion) setExpanded(key string, v bool) {
	if v {
		e.expanded[key] = true
	} else {
		delete(e.expanded, key)
	}
}

// IsExpanded reports whether key's detail panel is open. A nil Expansion
// reports every node collapsed.
func (e *Expansion) IsExpanded(key string) bool {
	if e == nil {
		return false
	}
	return e.expanded[key]
}

// LastSelected returns the key of the most recently clicked node.
func (e *Expansion) LastSelected() string {
	if e == nil {
		return ""
	}
	return e.lastSelected
}

// State returns a copy of the expanded flags, holding only expanded nodes.
func (e *Expansion) State() map[string]bool {
	out := make(map[string]bool)
	if e == nil {
		return out
	}
	for k, v := range e.expanded {
		if v {
			out[k] = true
		}
	}
	return out
}

// Expanded returns the expanded keys in sorted order.
func (e *Expansion) Expanded() []string {
	if e == nil {
		return nil
	}
	keys := make([]string, 0, len(e.expanded))
	for k, v := range e.expanded {
		if v {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}

// Clone returns an independent copy of e.
func (e *Expansion) Clone() *Expansion {
	return RestoreExpansion(e.State(), e.LastSelected())
}
