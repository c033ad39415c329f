package ui

import (
	"time"

	"github.com/vanderheijden86/beadtree/pkg/analysis"
	"github.com/vanderheijden86/beadtree/pkg/model"
)

// DataSnapshot is an immutable view of one load. The UI reconciles its tree
// against Issues; nothing in a snapshot is modified after Build.
type DataSnapshot struct {
	Issues   []model.Issue
	Stats    analysis.Stats
	Cycles   [][]string // parent-child cycles, by issue key
	Dangling []string   // keys of issues whose parents are missing
	DataHash string
	LoadedAt time.Time
}

// SnapshotBuilder analyzes a load into a DataSnapshot.
type SnapshotBuilder struct {
	issues []model.Issue
}

// NewSnapshotBuilder creates a builder for issues.
func NewSnapshotBuilder(issues []model.Issue) *SnapshotBuilder {
	return &SnapshotBuilder{issues: issues}
}

// Build runs the hierarchy analysis and returns the snapshot.
func (b *SnapshotBuilder) Build() *DataSnapshot {
	h := analysis.NewHierarchyGraph(b.issues)
	return &DataSnapshot{
		Issues:   b.issues,
		Stats:    h.Stats(),
		Cycles:   h.Cycles(),
		Dangling: h.Dangling(),
		LoadedAt: time.Now(),
	}
}
