package model

import (
	"errors"
	"fmt"
	"time"
)

// Issue is one bead as it appears in the JSONL log. Fields the tree never
// reads are left out and ignored on decode.
type Issue struct {
	ID                 string        `json:"id"`
	Title              string        `json:"title"`
	Description        string        `json:"description"`
	Design             string        `json:"design,omitempty"`
	AcceptanceCriteria string        `json:"acceptance_criteria,omitempty"`
	Notes              string        `json:"notes,omitempty"`
	Status             Status        `json:"status"`
	Priority           int           `json:"priority"`
	IssueType          IssueType     `json:"issue_type"`
	Assignee           string        `json:"assignee,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
	Labels             []string      `json:"labels,omitempty"`
	Dependencies       []*Dependency `json:"dependencies,omitempty"`
	Comments           []*Comment    `json:"comments,omitempty"`

	// SourceRepo is set by the loader in multi-repo mode.
	SourceRepo string `json:"source_repo,omitempty"`
}

var (
	errNoID    = errors.New("missing id")
	errNoTitle = errors.New("missing title")
	errNoType  = errors.New("missing issue_type")
)

// Validate rejects records the tree cannot show.
func (i *Issue) Validate() error {
	switch {
	case i.ID == "":
		return errNoID
	case i.Title == "":
		return errNoTitle
	case !i.Status.IsValid():
		return fmt.Errorf("unknown status %q", i.Status)
	case !i.IssueType.IsValid():
		return errNoType
	case !i.UpdatedAt.IsZero() && !i.CreatedAt.IsZero() && i.UpdatedAt.Before(i.CreatedAt):
		return fmt.Errorf("updated_at %s is before created_at %s",
			i.UpdatedAt.Format(time.RFC3339), i.CreatedAt.Format(time.RFC3339))
	}
	return nil
}

// Status is the workflow state of an issue.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusBlocked    Status = "blocked"
	StatusDeferred   Status = "deferred"
	StatusPinned     Status = "pinned"
	StatusHooked     Status = "hooked"
	StatusReview     Status = "review"
	StatusClosed     Status = "closed"
	StatusTombstone  Status = "tombstone" // deleted; the loader drops these
)

// IsValid reports whether bd can write s.
func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusBlocked, StatusDeferred,
		StatusPinned, StatusHooked, StatusReview, StatusClosed, StatusTombstone:
		return true
	}
	return false
}

func (s Status) IsTombstone() bool {
	return s == StatusTombstone
}

// IssueType is free-form; these are the types with their own icon and rank.
type IssueType string

const (
	TypeBug     IssueType = "bug"
	TypeFeature IssueType = "feature"
	TypeTask    IssueType = "task"
	TypeEpic    IssueType = "epic"
	TypeChore   IssueType = "chore"
)

// IsValid accepts any non-empty type so custom types still load.
func (t IssueType) IsValid() bool {
	return t != ""
}

// Dependency links IssueID to DependsOnID. Only parent-child links shape the
// tree.
type Dependency struct {
	IssueID     string         `json:"issue_id"`
	DependsOnID string         `json:"depends_on_id"`
	Type        DependencyType `json:"type"`
	CreatedAt   time.Time      `json:"created_at"`
	CreatedBy   string         `json:"created_by"`
}

type DependencyType string

const (
	DepBlocks         DependencyType = "blocks"
	DepRelated        DependencyType = "related"
	DepParentChild    DependencyType = "parent-child"
	DepDiscoveredFrom DependencyType = "discovered-from"
)

// Comment is shown in the detail pane.
type Comment struct {
	ID        int64     `json:"id"`
	IssueID   string    `json:"issue_id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
