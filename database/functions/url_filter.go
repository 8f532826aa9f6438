// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package functions

import (
	"net/url"
	"regexp"
	"strings"
)

// UrlFilter restricts the URLs REST functions may be triggered for. A
// pattern may contain '*' wildcards matching any sequence of characters.
// A URL passes if a pattern matches either the full URL or its origin.
// An empty filter lets every URL pass.
type UrlFilter struct {
	patterns []*regexp.Regexp
}

func NewUrlFilter(patterns []string) UrlFilter {
	res := UrlFilter{}
	for _, pattern := range patterns {
		parts := strings.Split(pattern, "*")
		for i, part := range parts {
			parts[i] = regexp.QuoteMeta(part)
		}
		res.patterns = append(res.patterns, regexp.MustCompile("^"+strings.Join(parts, ".*")+"$"))
	}
	return res
}

// Allows reports whether REST functions may be triggered for the given URL.
func (f UrlFilter) Allows(rawUrl string) bool {
	if rawUrl == "" {
		return false
	}
	if len(f.patterns) == 0 {
		return true
	}
	origin := ""
	if parsed, err := url.Parse(rawUrl); err == nil && parsed.Scheme != "" && parsed.Host != "" {
		origin = parsed.Scheme + "://" + parsed.Host
	}
	for _, pattern := range f.patterns {
		if pattern.MatchString(rawUrl) || (origin != "" && pattern.MatchString(origin)) {
			return true
		}
	}
	return false
}
