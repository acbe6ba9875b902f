package models

import "time"

type DeliverableState string

const (
	DeliverableDraft  DeliverableState = "DRAFT"
	DeliverableReview DeliverableState = "REVIEW"
	DeliverableFinal  DeliverableState = "FINAL"
)

// Deliverable is one versioned piece of work inside a project. PreviewKey
// points at the watermarked copy, FinalKey at the clean file; both are
// object-storage keys and may be empty until uploaded.
type Deliverable struct {
	ID         string
	ProjectID  string
	Title      string
	Version    int
	State      DeliverableState
	PreviewKey string
	FinalKey   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type FeedbackType string

const (
	FeedbackApprove       FeedbackType = "APPROVE"
	FeedbackApproveMinor  FeedbackType = "APPROVE_MINOR"
	FeedbackNeedsRevision FeedbackType = "NEEDS_REVISION"
)

func (t FeedbackType) Valid() bool {
	switch t {
	case FeedbackApprove, FeedbackApproveMinor, FeedbackNeedsRevision:
		return true
	}
	return false
}

// IsApproval reports whether the feedback approves the deliverable.
func (t FeedbackType) IsApproval() bool {
	return t == FeedbackApprove || t == FeedbackApproveMinor
}

type Feedback struct {
	ID                string
	ProjectID         string
	DeliverableID     string
	Type              FeedbackType
	Notes             string
	SubmittedByName   string
	SubmittedByEmail  string
	SubmittedByUserID string
	CreatedAt         time.Time
}

const SignoffActionRelease = "RELEASE"

// Signoff is the immutable audit record written by a release.
type Signoff struct {
	ID             string
	ProjectID      string
	DeliverableID  string
	SignedByName   string
	SignedByEmail  string
	SignedByUserID string
	Action         string
	CreatedAt      time.Time
}
