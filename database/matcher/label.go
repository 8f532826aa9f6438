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
	"strings"

	"github.com/ainblockchain/worldstate/database/statetree"
)

// Label is a label of a config tree. Literal labels match a path segment of
// equal value; variable labels match any segment and capture it.
type Label struct {
	Name     string
	Variable bool
}

func Literal(name string) Label {
	return Label{Name: name}
}

func Variable(name string) Label {
	return Label{Name: name, Variable: true}
}

// ParseLabel interprets a label of a config tree.
func ParseLabel(label string) Label {
	if statetree.IsVariableLabel(label) {
		return Variable(label[len(statetree.VariablePrefix):])
	}
	return Literal(label)
}

func (l Label) String() string {
	if l.Variable {
		return statetree.VariablePrefix + l.Name
	}
	return l.Name
}

// Matches reports whether the label accepts the given path segment.
func (l Label) Matches(segment string) bool {
	return l.Variable || l.Name == segment
}

func formatLabels(labels []Label) string {
	parts := make([]string, len(labels))
	for i, label := range labels {
		parts[i] = label.String()
	}
	return statetree.PathDelimiter + strings.Join(parts, statetree.PathDelimiter)
}
