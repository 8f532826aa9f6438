// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package rules

// Auth identifies the author of a write. Writes issued by triggered
// functions carry the id of the function in Fid and the chain of function
// ids leading to the write in Fids.
type Auth struct {
	Addr string   `json:"addr,omitempty" yaml:"addr,omitempty"`
	Fid  string   `json:"fid,omitempty" yaml:"fid,omitempty"`
	Fids []string `json:"fids,omitempty" yaml:"fids,omitempty"`
}

// toObject converts the auth into the object visible to rule expressions.
func (a Auth) toObject() map[string]any {
	res := map[string]any{}
	if a.Addr != "" {
		res["addr"] = a.Addr
	}
	if a.Fid != "" {
		res["fid"] = a.Fid
	}
	if len(a.Fids) > 0 {
		fids := make([]any, len(a.Fids))
		for i, fid := range a.Fids {
			fids[i] = fid
		}
		res["fids"] = fids
	}
	return res
}
