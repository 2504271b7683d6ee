// Package policy holds the pure authorization predicates gating thesis
// access. Functions decide on (actor, thesis) alone; they perform no I/O and
// never read the current user from ambient context.
package policy

import "github.com/thesisflow/thesisflow-api/internal/models"

// CanView allows admins, the owning student and the assigned supervisor.
func CanView(actor models.Actor, thesis models.Thesis) bool {
	if actor.Role == models.RoleAdmin {
		return true
	}
	if actor.Role == models.RoleStudent && actor.ID == thesis.StudentID {
		return true
	}
	if actor.Role == models.RoleSupervisor && actor.ID == thesis.SupervisorID {
		return true
	}
	return false
}

// CanCreate allows students only; thesis creation is student-initiated.
func CanCreate(actor models.Actor) bool {
	return actor.Role == models.RoleStudent
}

// CanUpdate allows admins unconditionally, and the owning student while the
// thesis is editable (draft or returned for corrections). Supervisors never
// pass generic update; their mutations go through the workflow transitions,
// which apply their own actor checks.
func CanUpdate(actor models.Actor, thesis models.Thesis) bool {
	if actor.Role == models.RoleAdmin {
		return true
	}
	if actor.Role == models.RoleStudent && actor.ID == thesis.StudentID {
		return thesis.Status == models.StatusDraft || thesis.Status == models.StatusReturnedForCorrections
	}
	return false
}

// CanDelete allows admins in any state, and the owning student while the
// thesis is still a draft.
func CanDelete(actor models.Actor, thesis models.Thesis) bool {
	if actor.Role == models.RoleAdmin {
		return true
	}
	if actor.Role == models.RoleStudent && actor.ID == thesis.StudentID && thesis.Status == models.StatusDraft {
		return true
	}
	return false
}

// CanRestore allows admins only.
func CanRestore(actor models.Actor) bool {
	return actor.Role == models.RoleAdmin
}

// CanForceDelete allows admins only.
func CanForceDelete(actor models.Actor) bool {
	return actor.Role == models.RoleAdmin
}
