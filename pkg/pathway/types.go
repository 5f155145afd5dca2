package pathway

import (
	"fmt"
	"slices"
)

// StartKey is the key of the node every pathway is laid out from.
const StartKey = "Start"

// =============================================================================
// Kind - Node Variant
// =============================================================================

// Kind identifies which variant of pathway step a node is.
// The zero value is KindOther.
type Kind int

// Node kinds.
const (
	KindOther Kind = iota
	KindStart
	KindAction
	KindBranch
	KindReference
)

var kindNames = map[Kind]string{
	KindOther:     "other",
	KindStart:     "start",
	KindAction:    "action",
	KindBranch:    "branch",
	KindReference: "reference",
}

// String returns the lowercase wire name of the kind.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind converts a wire name into a Kind.
// The empty string parses as KindOther.
func ParseKind(s string) (Kind, error) {
	if s == "" {
		return KindOther, nil
	}
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return KindOther, fmt.Errorf("unknown node kind %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kindNames[k]; !ok {
		return nil, fmt.Errorf("unknown node kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// =============================================================================
// Node and Transition
// =============================================================================

// Transition is a directed link from the owning node to Target.
// It carries no geometry.
type Transition struct {
	ID     string `json:"id,omitempty" yaml:"id,omitempty"`
	Target string `json:"target" yaml:"target"`
	Label  string `json:"label,omitempty" yaml:"label,omitempty"` // empty means unlabeled
}

// Node is one step of a pathway.
type Node struct {
	Key         string       `json:"key,omitempty" yaml:"key,omitempty"`
	Label       string       `json:"label,omitempty" yaml:"label,omitempty"`
	Kind        Kind         `json:"kind" yaml:"kind"`
	Transitions []Transition `json:"transitions,omitempty" yaml:"transitions,omitempty"`
	Details     []string     `json:"details,omitempty" yaml:"details,omitempty"` // detail panel lines
}

// DisplayLabel returns the label if set, otherwise the key.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.Key
}

// IsBranch reports whether the node is a branch step.
func (n *Node) IsBranch() bool { return n.Kind == KindBranch }

// =============================================================================
// Graph
// =============================================================================

// Graph is a pathway: node key to node. It is read-only to everything in
// this module; only the loader builds one.
type Graph struct {
	ID    string           `json:"id,omitempty" yaml:"id,omitempty"`
	Name  string           `json:"name,omitempty" yaml:"name,omitempty"`
	Nodes map[string]*Node `json:"nodes" yaml:"nodes"`
}

// EdgeRef is one transition resolved to its endpoints.
type EdgeRef struct {
	From       string
	To         string
	Transition Transition
}

// New creates a graph from nodes, keyed by Node.Key.
func New(nodes ...*Node) *Graph {
	g := &Graph{Nodes: make(map[string]*Node, len(nodes))}
	for _, n := range nodes {
		g.Nodes[n.Key] = n
	}
	return g
}

// Node returns the node with the given key.
func (g *Graph) Node(key string) (*Node, bool) {
	if g == nil {
		return nil, false
	}
	n, ok := g.Nodes[key]
	return n, ok
}

// Keys returns every node key in sorted order.
func (g *Graph) Keys() []string {
	if g == nil {
		return nil
	}
	keys := make([]string, 0, len(g.Nodes))
	for k := range g.Nodes {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Edges returns every transition as an EdgeRef. Sources are visited in
// sorted key order and each source's transitions in declaration order, so
// the result is deterministic.
func (g *Graph) Edges() []EdgeRef {
	var out []EdgeRef
	for _, k := range g.Keys() {
		for _, t := range g.Nodes[k].Transitions {
			out = append(out, EdgeRef{From: k, To: t.Target, Transition: t})
		}
	}
	return out
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	if g == nil {
		return 0
	}
	return len(g.Nodes)
}

// EdgeCount returns the number of transitions.
func (g *Graph) EdgeCount() int {
	n := 0
	if g == nil {
		return n
	}
	for _, node := range g.Nodes {
		n += len(node.Transitions)
	}
	return n
}
