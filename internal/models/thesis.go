package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ThesisStatus enumerates the thesis workflow states.
type ThesisStatus string

const (
	StatusDraft                  ThesisStatus = "draft"
	StatusPendingApproval        ThesisStatus = "pending_approval"
	StatusApproved               ThesisStatus = "approved"
	StatusUnderReview            ThesisStatus = "under_review"
	StatusReturnedForCorrections ThesisStatus = "returned_for_corrections"
	StatusAccepted               ThesisStatus = "accepted"
	StatusRejected               ThesisStatus = "rejected"
	StatusSubmittedForDefense    ThesisStatus = "submitted_for_defense"
	StatusDefended               ThesisStatus = "defended"
)

// Valid reports whether the status is one of the nine enumerated values.
func (s ThesisStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPendingApproval, StatusApproved, StatusUnderReview,
		StatusReturnedForCorrections, StatusAccepted, StatusRejected,
		StatusSubmittedForDefense, StatusDefended:
		return true
	}
	return false
}

// Label returns the display name for the status.
func (s ThesisStatus) Label() string {
	switch s {
	case StatusDraft:
		return "Draft"
	case StatusPendingApproval:
		return "Pending Approval"
	case StatusApproved:
		return "Approved"
	case StatusUnderReview:
		return "Under Review"
	case StatusReturnedForCorrections:
		return "Returned for Corrections"
	case StatusAccepted:
		return "Accepted"
	case StatusRejected:
		return "Rejected"
	case StatusSubmittedForDefense:
		return "Submitted for Defense"
	case StatusDefended:
		return "Defended"
	}
	return "Unknown"
}

// ThesisType enumerates the supported degree levels.
type ThesisType string

const (
	TypeBachelor ThesisType = "bachelor"
	TypeMaster   ThesisType = "master"
)

// Valid reports whether the type is a known degree level.
func (t ThesisType) Valid() bool {
	return t == TypeBachelor || t == TypeMaster
}

// Keywords is an ordered keyword list persisted as a JSON column.
type Keywords []string

// Value implements driver.Valuer.
func (k Keywords) Value() (driver.Value, error) {
	if k == nil {
		return "[]", nil
	}
	raw, err := json.Marshal(k)
	if err != nil {
		return nil, fmt.Errorf("marshal keywords: %w", err)
	}
	return string(raw), nil
}

// Scan implements sql.Scanner.
func (k *Keywords) Scan(src interface{}) error {
	if src == nil {
		*k = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported keywords source %T", src)
	}
	if len(raw) == 0 {
		*k = nil
		return nil
	}
	return json.Unmarshal(raw, k)
}

// Thesis is the central workflow record tracking a student's academic work
// from draft through defense. Status moves only through the transition
// functions in the workflow package.
type Thesis struct {
	ID              string       `db:"id" json:"id"`
	StudentID       string       `db:"student_id" json:"student_id"`
	SupervisorID    string       `db:"supervisor_id" json:"supervisor_id"`
	Title           string       `db:"title" json:"title"`
	Type            ThesisType   `db:"type" json:"type"`
	FieldOfStudy    string       `db:"field_of_study" json:"field_of_study"`
	Specialization  string       `db:"specialization" json:"specialization"`
	Abstract        string       `db:"abstract" json:"abstract"`
	Outline         string       `db:"outline" json:"outline"`
	Keywords        Keywords     `db:"keywords" json:"keywords"`
	Status          ThesisStatus `db:"status" json:"status"`
	SubmissionDate  *time.Time   `db:"submission_date" json:"submission_date,omitempty"`
	DefenseDate     *time.Time   `db:"defense_date" json:"defense_date,omitempty"`
	AcademicYear    string       `db:"academic_year" json:"academic_year"`
	SupervisorNotes string       `db:"supervisor_notes" json:"supervisor_notes"`
	ApprovedAt      *time.Time   `db:"approved_at" json:"approved_at,omitempty"`
	SubmittedAt     *time.Time   `db:"submitted_at" json:"submitted_at,omitempty"`
	DeletedAt       *time.Time   `db:"deleted_at" json:"deleted_at,omitempty"`
	CreatedAt       time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time    `db:"updated_at" json:"updated_at"`
}

// IsDraft reports whether the thesis has not been submitted yet.
func (t *Thesis) IsDraft() bool {
	return t.Status == StatusDraft
}

// IsPendingApproval reports whether the thesis awaits supervisor approval.
func (t *Thesis) IsPendingApproval() bool {
	return t.Status == StatusPendingApproval
}

// ThesisDetail carries a thesis with its participant names for list views.
type ThesisDetail struct {
	Thesis
	StudentName     string `db:"student_name" json:"student_name"`
	StudentEmail    string `db:"student_email" json:"student_email"`
	SupervisorName  string `db:"supervisor_name" json:"supervisor_name"`
	SupervisorEmail string `db:"supervisor_email" json:"supervisor_email"`
}

// ThesisFilter encapsulates allowed search parameters for listing theses.
type ThesisFilter struct {
	Status       *ThesisStatus
	StudentID    string
	SupervisorID string
	Search       string
	Page         int
	PageSize     int
}
