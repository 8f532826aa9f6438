// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package statetree

import (
	"fmt"
	"strings"

	"github.com/ainblockchain/worldstate/common"
)

const (
	// PathDelimiter separates labels in textual paths.
	PathDelimiter = "/"
	// VariablePrefix marks labels of config trees matching any segment.
	VariablePrefix = "$"
	// ConfigPrefix marks labels holding config values, like ".rule".
	ConfigPrefix = "."
	// Wildcard is the label used for catch-all entries, like owners "*".
	Wildcard = "*"
)

// isReservedChar reports whether a character may not be used in plain labels.
func isReservedChar(c byte) bool {
	switch c {
	case '/', '.', '*', '$', '#', '{', '}', '[', ']':
		return true
	}
	return c <= 0x1F || c == 0x7F
}

func hasReservedChar(label string) bool {
	for i := 0; i < len(label); i++ {
		if isReservedChar(label[i]) {
			return true
		}
	}
	return false
}

// IsValidLabel reports whether the given label may be used in a state path.
// Plain labels must be non-empty and free of reserved characters. The only
// exceptions are the wildcard "*" and "$name" or ".name" labels where name
// is a non-empty plain label.
func IsValidLabel(label string) bool {
	if label == "" {
		return false
	}
	if !hasReservedChar(label) {
		return true
	}
	if label == Wildcard {
		return true
	}
	if strings.HasPrefix(label, VariablePrefix) || strings.HasPrefix(label, ConfigPrefix) {
		rest := label[1:]
		return rest != "" && !hasReservedChar(rest)
	}
	return false
}

// IsVariableLabel reports whether the label is a capturing wildcard of a
// config tree.
func IsVariableLabel(label string) bool {
	return len(label) > 1 && strings.HasPrefix(label, VariablePrefix)
}

// Path is an ordered list of labels addressing a node relative to a root.
type Path []string

// ParsePath splits a textual path like "/a/b/c" into its labels. Empty
// segments are ignored, making "/", "" and "//" all denote the root.
func ParsePath(path string) Path {
	res := Path{}
	for _, label := range strings.Split(path, PathDelimiter) {
		if label != "" {
			res = append(res, label)
		}
	}
	return res
}

// ParseValidPath parses the path and checks that every label is valid.
func ParseValidPath(path string) (Path, error) {
	res := ParsePath(path)
	if err := res.Validate(); err != nil {
		return nil, err
	}
	return res, nil
}

// Validate checks that all labels of the path are valid.
func (p Path) Validate() error {
	for _, label := range p {
		if !IsValidLabel(label) {
			return fmt.Errorf("%w: %s", common.InvalidPath, p)
		}
	}
	return nil
}

func (p Path) String() string {
	return PathDelimiter + strings.Join(p, PathDelimiter)
}

// Child creates a new path extended by the given labels. The receiver is
// never modified.
func (p Path) Child(labels ...string) Path {
	res := make(Path, 0, len(p)+len(labels))
	res = append(res, p...)
	return append(res, labels...)
}

// Parent is the path without its last label. The parent of the root is the
// root.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return p
	}
	return p[:len(p)-1]
}

// Last is the final label of the path, or "" for the root.
func (p Path) Last() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}
