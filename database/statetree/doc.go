// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package statetree implements the copy-on-write state tree of the world
// state. All versions of a state share the nodes of a single Forest, an
// arena of nodes addressed by integer ids. Nodes track the number of edges
// pointing to them; a node referenced more than once, or last written by a
// different version, is cloned before it is modified. Every node caches a
// Merkle-style proof hash as well as metrics of its subtree, both of which
// are maintained incrementally along written paths.
package statetree
