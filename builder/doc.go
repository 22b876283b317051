// Package builder binds a dependency graph to a whole document: it loads
// every resource through the graph's lenient path, settles the deferred
// queue to a fixed point, and can cross-check a graph's state against what
// the document implies.
//
// Loading tolerates resources arriving in any order; the end state is a
// function of the document alone.
package builder
