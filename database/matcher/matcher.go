// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package matcher

import (
	"github.com/ainblockchain/worldstate/database/statetree"
)

// Kind describes one of the parallel config trees.
type Kind struct {
	// Name of the kind, used in diagnostics.
	Name string
	// ConfigLabel is the label under which config values are stored.
	ConfigLabel string
	// InheritFromAncestors enables the resolution of configs of the closest
	// ancestor if the matched node has none.
	InheritFromAncestors bool
	// IsConfig decides whether a stored config value is effective. If nil,
	// every non-null value is effective.
	IsConfig func(config any) bool
}

func (k Kind) isConfig(config any) bool {
	if config == nil {
		return false
	}
	if k.IsConfig == nil {
		return true
	}
	return k.IsConfig(config)
}

// MatchedPath describes how a path was matched against a config tree.
type MatchedPath struct {
	// TargetPath is the matched path, using the variable labels of the
	// config tree where segments were captured.
	TargetPath string `json:"target_path"`
	// RefPath is the concrete path that was matched.
	RefPath string `json:"ref_path"`
	// PathVars maps variable labels to the captured segments.
	PathVars map[string]string `json:"path_vars"`
}

// MatchedConfig is a config value found in a config tree.
type MatchedConfig struct {
	Config any    `json:"config"`
	Path   string `json:"path"`
}

// Match is the result of matching a path against a config tree.
type Match struct {
	MatchedPath    MatchedPath     `json:"matched_path"`
	MatchedConfig  MatchedConfig   `json:"matched_config"`
	SubtreeConfigs []MatchedConfig `json:"subtree_configs"`

	// Labels is the matched path in labels of the config tree.
	Labels []Label `json:"-"`
	// Complete is set if every segment of the path was matched by the tree.
	Complete bool `json:"-"`
}

// HasConfig reports whether an effective config was found.
func (m *Match) HasConfig() bool {
	return m.MatchedConfig.Config != nil
}

// Vars returns the captured path variables keyed by their names without the
// variable prefix.
func (m *Match) Vars() map[string]any {
	res := make(map[string]any, len(m.MatchedPath.PathVars))
	for label, value := range m.MatchedPath.PathVars {
		res[label[len(statetree.VariablePrefix):]] = value
	}
	return res
}

// MatchConfig matches a path against a config tree rooted by the given node,
// which may be NoNode for empty trees. At every level, a literal child equal
// to the path segment is preferred over a variable child. Among several
// variable children, the lexicographically smallest one is used.
//
// The resulting match contains the config of the matched node or, if the
// kind inherits configs, of its closest ancestor carrying one. Effective
// configs strictly below a completely matched path are reported as subtree
// configs with paths relative to the matched node.
func MatchConfig(forest *statetree.Forest, root statetree.NodeId, path statetree.Path, kind Kind) *Match {
	labels := make([]Label, 0, len(path))
	nodes := make([]statetree.NodeId, 0, len(path)+1)
	vars := map[string]string{}

	cur := root
	if cur.IsValid() {
		nodes = append(nodes, cur)
	}
	for _, segment := range path {
		if !cur.IsValid() {
			labels = append(labels, Literal(segment))
			continue
		}
		next, label := matchChild(forest, cur, segment, kind)
		labels = append(labels, label)
		if label.Variable {
			vars[label.String()] = segment
		}
		if next.IsValid() {
			nodes = append(nodes, next)
		}
		cur = next
	}

	res := &Match{
		MatchedPath: MatchedPath{
			TargetPath: formatLabels(labels),
			RefPath:    path.String(),
			PathVars:   vars,
		},
		MatchedConfig:  MatchedConfig{Path: formatLabels(labels)},
		SubtreeConfigs: []MatchedConfig{},
		Labels:         labels,
		Complete:       len(nodes) == len(path)+1,
	}

	// nodes[i] is the node matched by the first i labels
	for i := len(nodes) - 1; i >= 0; i-- {
		if !kind.InheritFromAncestors && i != len(path) {
			break
		}
		if config, found := getConfig(forest, nodes[i], kind); found {
			res.MatchedConfig = MatchedConfig{Config: config, Path: formatLabels(labels[:i])}
			break
		}
	}

	if res.Complete {
		collectSubtreeConfigs(forest, nodes[len(nodes)-1], statetree.Path{}, kind, &res.SubtreeConfigs)
	}
	return res
}

func matchChild(forest *statetree.Forest, parent statetree.NodeId, segment string, kind Kind) (statetree.NodeId, Label) {
	if forest.IsLeaf(parent) {
		return statetree.NoNode, Literal(segment)
	}
	if segment != kind.ConfigLabel {
		if child, found := forest.GetChild(parent, segment); found {
			return child, Literal(segment)
		}
	}
	for _, label := range forest.ChildLabels(parent) {
		if statetree.IsVariableLabel(label) {
			child, _ := forest.GetChild(parent, label)
			return child, ParseLabel(label)
		}
	}
	return statetree.NoNode, Literal(segment)
}

func getConfig(forest *statetree.Forest, id statetree.NodeId, kind Kind) (any, bool) {
	child, found := forest.GetChild(id, kind.ConfigLabel)
	if !found {
		return nil, false
	}
	config := forest.ToSnapshot(child)
	if !kind.isConfig(config) {
		return nil, false
	}
	return config, true
}

func collectSubtreeConfigs(forest *statetree.Forest, id statetree.NodeId, path statetree.Path, kind Kind, res *[]MatchedConfig) {
	if forest.IsLeaf(id) {
		return
	}
	for _, label := range forest.ChildLabels(id) {
		if label == kind.ConfigLabel {
			continue
		}
		child, _ := forest.GetChild(id, label)
		childPath := path.Child(label)
		if config, found := getConfig(forest, child, kind); found {
			*res = append(*res, MatchedConfig{Config: config, Path: childPath.String()})
		}
		collectSubtreeConfigs(forest, child, childPath, kind, res)
	}
}
