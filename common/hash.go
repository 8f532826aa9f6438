// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package common

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/crypto/sha3"
)

// HashSize is the number of bytes of a proof hash.
const HashSize = 32

// Hash is a Keccak256 digest used as the proof hash of state nodes.
type Hash [HashSize]byte

// Hex renders the hash in its 0x-prefixed lower case hex form. This is the
// form in which hashes are exposed to clients and fed into parent hashes.
func (h Hash) Hex() string {
	return hexutil.Encode(h[:])
}

func (h Hash) String() string {
	return h.Hex()
}

func (h Hash) IsZero() bool {
	return h == Hash{}
}

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.Hex()), nil
}

func (h *Hash) UnmarshalText(text []byte) error {
	res, err := ParseHash(string(text))
	if err != nil {
		return err
	}
	*h = res
	return nil
}

// ParseHash decodes a 0x-prefixed hex string into a hash.
func ParseHash(str string) (Hash, error) {
	var res Hash
	data, err := hexutil.Decode(str)
	if err != nil {
		return res, fmt.Errorf("invalid hash %q: %w", str, err)
	}
	if len(data) != HashSize {
		return res, fmt.Errorf("invalid hash length of %q, got %d bytes, wanted %d", str, len(data), HashSize)
	}
	copy(res[:], data)
	return res, nil
}

var keccakHasherPool = sync.Pool{New: func() any { return sha3.NewLegacyKeccak256() }}

type keccakHasher interface {
	Reset()
	Write(in []byte) (int, error)
	Read(out []byte) (int, error)
}

// Keccak256 computes the legacy (Ethereum) Keccak256 digest of the given data.
func Keccak256(data []byte) Hash {
	hasher := keccakHasherPool.Get().(keccakHasher)
	hasher.Reset()
	hasher.Write(data)
	var res Hash
	hasher.Read(res[:])
	keccakHasherPool.Put(hasher)
	return res
}

// Keccak256String is a convenience wrapper hashing the bytes of a string.
func Keccak256String(str string) Hash {
	return Keccak256([]byte(str))
}
