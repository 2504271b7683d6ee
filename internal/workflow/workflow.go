// Package workflow implements the thesis status state machine as pure
// transition functions. Each transition takes the acting user, the current
// thesis value and a timestamp, and returns the updated thesis value together
// with the notification command to emit. Persistence applies the pair
// atomically; nothing in this package touches storage.
package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/thesisflow/thesisflow-api/internal/models"
	appErrors "github.com/thesisflow/thesisflow-api/pkg/errors"
)

// Command describes the notification a transition emits. The repository
// inserts it in the same transaction as the thesis update so the pair either
// both commit or neither does.
type Command struct {
	RecipientID string
	Type        string
	Title       string
	Message     string
	Icon        string
	Color       string
	ActionURL   string
	ThesisID    string
}

// Submit moves a draft thesis to pending approval. Only the owning student
// may submit, and only from draft.
func Submit(actor models.Actor, thesis models.Thesis, now time.Time) (models.Thesis, Command, error) {
	if actor.ID != thesis.StudentID {
		return thesis, Command{}, appErrors.Clone(appErrors.ErrForbidden, "only the owning student can submit a thesis")
	}
	if !thesis.IsDraft() {
		return thesis, Command{}, appErrors.Precondition("only draft theses can be submitted")
	}

	thesis.Status = models.StatusPendingApproval
	submittedAt := now
	thesis.SubmittedAt = &submittedAt

	cmd := Command{
		RecipientID: thesis.SupervisorID,
		Type:        models.NotificationThesisSubmitted,
		Title:       "New Thesis Submitted",
		Message:     fmt.Sprintf("%s submitted %q for approval", actor.Name, thesis.Title),
		Icon:        "📝",
		Color:       "yellow",
		ActionURL:   thesisURL(thesis.ID),
		ThesisID:    thesis.ID,
	}
	return thesis, cmd, nil
}

// Approve moves a pending thesis to approved. Only the assigned supervisor
// may approve, and only from pending approval.
func Approve(actor models.Actor, thesis models.Thesis, now time.Time) (models.Thesis, Command, error) {
	if err := requireAssignedSupervisor(actor, thesis); err != nil {
		return thesis, Command{}, err
	}
	if !thesis.IsPendingApproval() {
		return thesis, Command{}, appErrors.Precondition("only pending theses can be approved")
	}

	thesis.Status = models.StatusApproved
	approvedAt := now
	thesis.ApprovedAt = &approvedAt

	cmd := Command{
		RecipientID: thesis.StudentID,
		Type:        models.NotificationThesisApproved,
		Title:       "Thesis Approved",
		Message:     fmt.Sprintf("Your thesis %q has been approved!", thesis.Title),
		Icon:        "✅",
		Color:       "green",
		ActionURL:   thesisURL(thesis.ID),
		ThesisID:    thesis.ID,
	}
	return thesis, cmd, nil
}

// Reject moves a thesis to rejected. Only the assigned supervisor may
// reject; deliberately not gated on the current status. Notes are optional.
func Reject(actor models.Actor, thesis models.Thesis, notes string, now time.Time) (models.Thesis, Command, error) {
	if err := requireAssignedSupervisor(actor, thesis); err != nil {
		return thesis, Command{}, err
	}

	thesis.Status = models.StatusRejected
	if strings.TrimSpace(notes) != "" {
		thesis.SupervisorNotes = notes
	}

	cmd := Command{
		RecipientID: thesis.StudentID,
		Type:        models.NotificationThesisRejected,
		Title:       "Thesis Rejected",
		Message:     fmt.Sprintf("Your thesis %q has been rejected. Check supervisor notes.", thesis.Title),
		Icon:        "❌",
		Color:       "red",
		ActionURL:   thesisURL(thesis.ID),
		ThesisID:    thesis.ID,
	}
	return thesis, cmd, nil
}

// ReturnForCorrections sends a thesis back to the student with mandatory
// notes. Only the assigned supervisor may return; deliberately not gated on
// the current status.
func ReturnForCorrections(actor models.Actor, thesis models.Thesis, notes string, now time.Time) (models.Thesis, Command, error) {
	if err := requireAssignedSupervisor(actor, thesis); err != nil {
		return thesis, Command{}, err
	}
	if strings.TrimSpace(notes) == "" {
		return thesis, Command{}, appErrors.Validation("supervisor notes are required", map[string]string{
			"notes": "notes must not be empty",
		})
	}

	thesis.Status = models.StatusReturnedForCorrections
	thesis.SupervisorNotes = notes

	cmd := Command{
		RecipientID: thesis.StudentID,
		Type:        models.NotificationThesisReturned,
		Title:       "Thesis Returned for Corrections",
		Message:     fmt.Sprintf("Your thesis %q has been returned. Please review supervisor notes.", thesis.Title),
		Icon:        "🔄",
		Color:       "orange",
		ActionURL:   thesisURL(thesis.ID),
		ThesisID:    thesis.ID,
	}
	return thesis, cmd, nil
}

func requireAssignedSupervisor(actor models.Actor, thesis models.Thesis) error {
	if actor.Role != models.RoleSupervisor || actor.ID != thesis.SupervisorID {
		return appErrors.Clone(appErrors.ErrForbidden, "only the assigned supervisor can perform this action")
	}
	return nil
}

func thesisURL(id string) string {
	return "/theses/" + id
}
