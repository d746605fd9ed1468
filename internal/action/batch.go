// Package action defines ActionBatch, the plan of per-path exclude/include
// operations produced by a diff and applied against the filesystem.
package action

import (
	"fmt"
	"strings"

	"github.com/excludewatch/excludewatch/internal/attr"
)

// Batch is a plan of paths to add to (exclude from backups) and remove
// from (include in backups) the backup-excluded set. It is a plain value
// type: Merge concatenates, it never deduplicates.
type Batch struct {
	Add    []string
	Remove []string
}

// IsEmpty reports whether the batch has no work to do.
func (b Batch) IsEmpty() bool {
	return len(b.Add) == 0 && len(b.Remove) == 0
}

// Count returns the total number of actions in the batch.
func (b Batch) Count() int {
	return len(b.Add) + len(b.Remove)
}

// Merge concatenates two batches. It performs no deduplication: callers
// that rely on idempotence get it from Diff, not from Merge.
func (b Batch) Merge(other Batch) Batch {
	return Batch{
		Add:    append(append([]string{}, b.Add...), other.Add...),
		Remove: append(append([]string{}, b.Remove...), other.Remove...),
	}
}

// FilterByMode drops the Remove half of the batch when noInclude is true,
// since in that mode paths are never un-excluded once a rule has applied.
func (b Batch) FilterByMode(noInclude bool) Batch {
	if !noInclude {
		return b
	}
	return Batch{Add: b.Add}
}

// ApplyError aggregates per-path failures encountered while applying a
// Batch. A partial failure never aborts the remaining actions.
type ApplyError struct {
	Errors map[string]error
}

func (e *ApplyError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "action: %d path(s) failed to apply", len(e.Errors))
	for path, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  %s: %v", path, err)
	}
	return sb.String()
}

// Apply performs every Add/Remove action against attrs, aggregating errors
// rather than stopping at the first one. Returns nil if every action
// succeeded.
func (b Batch) Apply(attrs *attr.Attributes) error {
	failures := map[string]error{}
	for _, path := range b.Add {
		if err := attrs.SetExcluded(path, true); err != nil {
			failures[path] = err
		}
	}
	for _, path := range b.Remove {
		if err := attrs.SetExcluded(path, false); err != nil {
			failures[path] = err
		}
	}
	if len(failures) == 0 {
		return nil
	}
	return &ApplyError{Errors: failures}
}

// ContainsAdd reports whether path appears in Add.
func (b Batch) ContainsAdd(path string) bool {
	for _, p := range b.Add {
		if p == path {
			return true
		}
	}
	return false
}

// ContainsRemove reports whether path appears in Remove.
func (b Batch) ContainsRemove(path string) bool {
	for _, p := range b.Remove {
		if p == path {
			return true
		}
	}
	return false
}
