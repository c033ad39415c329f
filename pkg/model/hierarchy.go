// Package model holds the beads issue records shown in the tree and the
// parent-child relation the tree is inferred from.
package model

import (
	"cmp"
	"strings"
)

// Equal reports whether two issues are the same bead. Only the ID and source
// repo count: a reloaded issue with a new title or status is the same node.
func (i Issue) Equal(other Issue) bool {
	return i.ID == other.ID && i.SourceRepo == other.SourceRepo
}

// IsChildOf reports whether i declares a parent-child dependency on parent.
// Dependencies never cross repos. An issue with several parents lands under
// whichever of them the tree reaches first.
func (i Issue) IsChildOf(parent Issue) bool {
	if parent.ID == "" || parent.SourceRepo != i.SourceRepo || i.Equal(parent) {
		return false
	}
	for _, dep := range i.Dependencies {
		if dep != nil && dep.Type == DepParentChild && dep.DependsOnID == parent.ID {
			return true
		}
	}
	return false
}

// Compare orders siblings: priority (P0 first), then type
// (epic, feature, task, bug, chore, anything else), then creation time, then ID.
func (i Issue) Compare(other Issue) int {
	if c := cmp.Compare(i.Priority, other.Priority); c != 0 {
		return c
	}
	if c := cmp.Compare(TypeOrder(i.IssueType), TypeOrder(other.IssueType)); c != 0 {
		return c
	}
	if c := i.CreatedAt.Compare(other.CreatedAt); c != 0 {
		return c
	}
	return strings.Compare(i.ID, other.ID)
}

// TypeOrder returns the sort rank of an issue type. Unknown types sort last.
func TypeOrder(t IssueType) int {
	switch t {
	case TypeEpic:
		return 0
	case TypeFeature:
		return 1
	case TypeTask:
		return 2
	case TypeBug:
		return 3
	case TypeChore:
		return 4
	default:
		return 5
	}
}

// ParentIDs returns the IDs of every parent-child dependency, in declaration
// order.
func (i Issue) ParentIDs() []string {
	var ids []string
	for _, dep := range i.Dependencies {
		if dep != nil && dep.Type == DepParentChild && dep.DependsOnID != "" {
			ids = append(ids, dep.DependsOnID)
		}
	}
	return ids
}

// Key identifies an issue for maps and clipboard copies.
func (i Issue) Key() string {
	if i.SourceRepo == "" {
		return i.ID
	}
	return i.SourceRepo + ":" + i.ID
}
