package dag

import (
	"errors"
	"fmt"
	"strings"
)

// MissingDependencyError is returned by strict insertion when a declared
// dependency is not yet present in the graph.
type MissingDependencyError struct {
	// Resource is the id of the resource being inserted.
	Resource string
	// Missing is the first declared dependency id that is not present.
	Missing string
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("resource %q depends on missing resource %q", e.Resource, e.Missing)
}

// DuplicateResourceError is returned when an id is re-submitted while it is
// already present or deferred.
type DuplicateResourceError struct {
	ID string
}

func (e *DuplicateResourceError) Error() string {
	return fmt.Sprintf("resource %q is already in the graph", e.ID)
}

// SelfDependencyError is returned when a resource declares itself as one of
// its own dependencies.
type SelfDependencyError struct {
	ID string
}

func (e *SelfDependencyError) Error() string {
	return fmt.Sprintf("resource %q declares a dependency on itself", e.ID)
}

// CycleError reports a dependency cycle. Path holds the cycle's member ids
// in dependency order, without repeating the first id at the end.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return "Circular dependency detected: " + FormatCycle(e.Path)
}

// AsCycleError returns err as a *CycleError if there is one in its chain,
// or nil otherwise.
func AsCycleError(err error) *CycleError {
	var cycleErr *CycleError
	if errors.As(err, &cycleErr) {
		return cycleErr
	}
	return nil
}

// FormatCycle renders a cycle path as "A -> B -> C -> A", closing the loop
// back to the first id.
func FormatCycle(path []string) string {
	if len(path) == 0 {
		return ""
	}
	closed := make([]string, 0, len(path)+1)
	closed = append(closed, path...)
	closed = append(closed, path[0])
	return strings.Join(closed, " -> ")
}
