// Package dag holds the stateful dependency graph for a single editing or
// import session, plus the cycle detector and topological ordering used to
// produce a safe deployment sequence.
//
// A resource id is in exactly one of three states: absent, deferred, or
// present. Strict insertion (Add) requires every dependency to be present
// already; lenient insertion (AddLenient) parks the resource in a FIFO
// deferred queue until its dependencies arrive, and promotes transitively
// as they do. The present subgraph is kept acyclic by admission order, with
// a defensive check at ordering time.
//
// The graph is purely in-memory and single-writer: one session owns one
// Graph, and no internal locking is provided.
package dag
