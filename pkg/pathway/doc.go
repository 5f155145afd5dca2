// Package pathway defines the clinical-pathway graph consumed by the layout
// engine.
//
// A [Graph] maps node keys to [Node] values. Every node has a [Kind]
// (start, action, branch, reference or other) and an ordered list of
// [Transition] values pointing at other nodes. Transitions carry no
// geometry; coordinates are produced by package layout.
//
// # File Format
//
// Pathways are read from JSON or YAML. Nodes are keyed by their map key:
//
//	{
//	  "id": "chest-pain",
//	  "nodes": {
//	    "Start":  {"kind": "start", "transitions": [{"target": "Assess"}]},
//	    "Assess": {"kind": "branch", "label": "Assess risk",
//	               "transitions": [{"target": "ECG", "label": "high"}]},
//	    "ECG":    {"kind": "action", "details": ["12-lead ECG within 10 minutes"]}
//	  }
//	}
//
// [Read] and [ReadFile] validate the structural invariants with
// [Graph.Validate]: the "Start" node must exist and every transition target
// must be a known key. Violations are structural errors
// (MISSING_START, DANGLING_TRANSITION) from package errors.
//
// # Ownership
//
// The pathway-editing system owns graphs. Nothing in this module mutates a
// Graph after it has been loaded.
package pathway
