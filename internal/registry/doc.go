// Package registry tracks the nested versioned entities owned by a parent.
//
// Each child is held by reference under an id, with an explicit position and
// a TypeKey. The registry produces the children part of the parent's Snapshot
// and reconciles live children against an incoming one: ids that disappeared
// are detached, ids that reappeared are reattached or rebuilt from the type
// table, and every child's history is merged with the serialized one.
//
// The registry never records into the parent's journal itself. Callers record
// after Add, Remove and Move.
package registry
