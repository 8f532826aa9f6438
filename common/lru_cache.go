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

import "unsafe"

// LruCache is a fixed capacity cache evicting the least recently used entry
// when full. It is not thread safe.
type LruCache[K comparable, V any] struct {
	entries  map[K]*lruEntry[K, V]
	capacity int
	head     *lruEntry[K, V] // most recently used
	tail     *lruEntry[K, V] // least recently used
}

type lruEntry[K comparable, V any] struct {
	key        K
	value      V
	prev, next *lruEntry[K, V]
}

// NewLruCache creates a cache holding at most capacity entries. The
// capacity must be positive.
func NewLruCache[K comparable, V any](capacity int) *LruCache[K, V] {
	if capacity <= 0 {
		capacity = 1
	}
	return &LruCache[K, V]{
		entries:  make(map[K]*lruEntry[K, V], capacity),
		capacity: capacity,
	}
}

// Get looks up a value and marks it as recently used.
func (c *LruCache[K, V]) Get(key K) (V, bool) {
	entry, found := c.entries[key]
	if !found {
		var zero V
		return zero, false
	}
	c.moveToFront(entry)
	return entry.value, true
}

// Set adds or updates an entry. If the cache is full, the least recently
// used entry is evicted and reported.
func (c *LruCache[K, V]) Set(key K, value V) (evictedKey K, evictedValue V, evicted bool) {
	if entry, found := c.entries[key]; found {
		entry.value = value
		c.moveToFront(entry)
		return
	}
	if len(c.entries) >= c.capacity {
		last := c.tail
		c.unlink(last)
		delete(c.entries, last.key)
		evictedKey, evictedValue, evicted = last.key, last.value, true
	}
	entry := &lruEntry[K, V]{key: key, value: value}
	c.entries[key] = entry
	c.pushFront(entry)
	return
}

// Remove drops an entry from the cache.
func (c *LruCache[K, V]) Remove(key K) bool {
	entry, found := c.entries[key]
	if !found {
		return false
	}
	c.unlink(entry)
	delete(c.entries, key)
	return true
}

func (c *LruCache[K, V]) Len() int {
	return len(c.entries)
}

// Clear removes all entries.
func (c *LruCache[K, V]) Clear() {
	c.entries = make(map[K]*lruEntry[K, V], c.capacity)
	c.head, c.tail = nil, nil
}

func (c *LruCache[K, V]) moveToFront(entry *lruEntry[K, V]) {
	if c.head == entry {
		return
	}
	c.unlink(entry)
	c.pushFront(entry)
}

func (c *LruCache[K, V]) pushFront(entry *lruEntry[K, V]) {
	entry.prev = nil
	entry.next = c.head
	if c.head != nil {
		c.head.prev = entry
	}
	c.head = entry
	if c.tail == nil {
		c.tail = entry
	}
}

func (c *LruCache[K, V]) unlink(entry *lruEntry[K, V]) {
	if entry.prev != nil {
		entry.prev.next = entry.next
	} else {
		c.head = entry.next
	}
	if entry.next != nil {
		entry.next.prev = entry.prev
	} else {
		c.tail = entry.prev
	}
	entry.prev, entry.next = nil, nil
}

// GetMemoryFootprint estimates the memory used by the cache structure,
// excluding memory referenced by keys and values.
func (c *LruCache[K, V]) GetMemoryFootprint() *MemoryFootprint {
	entrySize := unsafe.Sizeof(lruEntry[K, V]{})
	return NewMemoryFootprint(unsafe.Sizeof(*c) + uintptr(c.capacity)*entrySize)
}
