package pathway

import (
	"github.com/matzehuels/pathwaygraph/pkg/errors"
)

// Validate checks the structural invariants the layout core relies on:
// a Start node exists, every key is usable, and every transition target
// exists. It does not judge business semantics (unreachable steps, cycles
// and empty branches are all accepted).
func (g *Graph) Validate() error {
	if g == nil || len(g.Nodes) == 0 {
		return errors.New(errors.ErrCodeMissingStart, "pathway has no nodes")
	}
	if _, ok := g.Nodes[StartKey]; !ok {
		return errors.New(errors.ErrCodeMissingStart, "pathway has no %q node", StartKey)
	}

	for _, key := range g.Keys() {
		if err := errors.ValidateNodeKey(key); err != nil {
			return err
		}
		n := g.Nodes[key]
		if n == nil {
			return errors.New(errors.ErrCodeInvalidInput, "node %q is empty", key)
		}
		for _, t := range n.Transitions {
			if _, ok := g.Nodes[t.Target]; !ok {
				return errors.New(errors.ErrCodeDanglingTransition,
					"transition from %q references unknown node %q", key, t.Target)
			}
		}
	}
	return nil
}
