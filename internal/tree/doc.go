// Package tree holds the value types the application state is built from and
// the pure helpers that compose them.
//
// # Values
//
// A state tree is a Tree (a string-keyed record) whose leaves are primitives,
// slices, nested Trees, or one of the two container types:
//
//   - Set: an insertion-ordered set of strings
//   - OrderedMap: a string-keyed map that remembers insertion order
//
// Containers are immutable once built. Every "mutating" method (With, Without)
// returns a fresh instance and leaves the receiver untouched, so a snapshot
// held by one caller can never change under it.
//
// # Merge
//
// Merge(prev, partial) builds the next tree:
//
//	for every key in partial:
//	  Set / OrderedMap  -> fresh container with the same elements
//	  Tree (record)     -> Merge(prev[key], partial[key])
//	  anything else     -> replaced wholesale (slices, primitives, structs)
//
// Keys absent from partial are carried over by reference, which gives
// structural sharing: unchanged subtrees are the same maps in both snapshots.
//
// # Equality
//
// ShallowEqual compares two values one level deep. Records are equal when
// they have the same keys and every value is identical; identity for maps,
// slices and containers means "same instance".
package tree
