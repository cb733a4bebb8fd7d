package jobboard

import (
	"github.com/google/uuid"
)

// Action is one of the closed set of operations the authorizer rules on.
type Action string

const (
	ActionUpdateCompany     Action = "company.update"
	ActionDeleteCompany     Action = "company.delete"
	ActionManageHRs         Action = "company.manage_hrs"
	ActionBanCompany        Action = "company.ban"
	ActionUnbanCompany      Action = "company.unban"
	ActionApproveCompany    Action = "company.approve"
	ActionCreateJob         Action = "job.create"
	ActionUpdateJob         Action = "job.update"
	ActionDeleteJob         Action = "job.delete"
	ActionCloseJob          Action = "job.close"
	ActionViewApplications  Action = "application.list"
	ActionUpdateApplication Action = "application.update_status"
	ActionApplyToJob        Action = "application.create"
	ActionUpdateProfile     Action = "self.update"
	ActionChangePassword    Action = "self.change_password"
	ActionDeleteAccount     Action = "self.delete"
	ActionBanUser           Action = "user.ban"
	ActionUnbanUser         Action = "user.unban"
)

// Relation is the strongest link found between an actor and a resource.
type Relation string

const (
	RelationAdmin Relation = "admin"
	RelationOwner Relation = "owner"
	RelationHR    Relation = "hr"
	RelationSelf  Relation = "self"
	RelationNone  Relation = "none"
)

// Resource is the closed set of authorization targets. Each variant
// carries the loaded state the rules need; the authorizer never hits
// the database.
type Resource interface {
	relationTo(actorID uuid.UUID) Relation
	isInactive() bool
}

// CompanyResource wraps a loaded company, HR set included.
type CompanyResource struct {
	Company *Company
}

func (r CompanyResource) relationTo(actorID uuid.UUID) Relation {
	if r.Company == nil {
		return RelationNone
	}
	if r.Company.CreatedBy != nil && *r.Company.CreatedBy == actorID {
		return RelationOwner
	}
	for _, hr := range r.Company.HRs {
		if hr == actorID {
			return RelationHR
		}
	}
	return RelationNone
}

func (r CompanyResource) isInactive() bool {
	return r.Company == nil || !r.Company.IsActive()
}

// JobResource wraps a job together with its parent company. Ancestor
// state is authoritative: a live job row under a banned company is
// still inactive.
type JobResource struct {
	Job     *Job
	Company *Company
}

func (r JobResource) relationTo(actorID uuid.UUID) Relation {
	return CompanyResource{Company: r.Company}.relationTo(actorID)
}

func (r JobResource) isInactive() bool {
	if r.Job == nil || r.Job.DeletedAt != nil {
		return true
	}
	return CompanyResource{Company: r.Company}.isInactive()
}

// ApplicationResource wraps an application with its job and the job's
// parent company.
type ApplicationResource struct {
	Application *Application
	Job         *Job
	Company     *Company
}

func (r ApplicationResource) relationTo(actorID uuid.UUID) Relation {
	if r.Application != nil && r.Application.UserID == actorID {
		return RelationSelf
	}
	return CompanyResource{Company: r.Company}.relationTo(actorID)
}

func (r ApplicationResource) isInactive() bool {
	return r.Application == nil
}

// SelfResource is a user acting on their own account.
type SelfResource struct {
	User *User
}

func (r SelfResource) relationTo(actorID uuid.UUID) Relation {
	if r.User != nil && r.User.ID == actorID {
		return RelationSelf
	}
	return RelationNone
}

func (r SelfResource) isInactive() bool {
	return r.User == nil || !r.User.IsActive()
}

// CanAct decides whether the actor may perform the action on the loaded
// resource. Pure function of its arguments; useful both for the live
// request path and for table-driven tests.
//
// Rules apply first-match:
//  1. admins may do anything except ban themselves
//  2. a banned or deleted resource denies all non-admin mutation
//  3. company mutation needs owner or HR membership
//  4. job and application-status mutation inherit the company rule
//  5. applying needs role User, a live job, and SubmitApplication
//     enforces the one-per-(job,user) constraint separately
//  6. self actions need actor.id == resource owner id
func CanAct(actor *User, action Action, resource Resource) bool {
	if actor == nil {
		return false
	}

	if actor.Role == RoleAdmin {
		if action == ActionBanUser {
			if self, ok := resource.(SelfResource); ok && self.User != nil && self.User.ID == actor.ID {
				return false
			}
		}
		return true
	}

	switch action {
	case ActionBanUser, ActionUnbanUser, ActionBanCompany, ActionUnbanCompany, ActionApproveCompany:
		// admin-only, handled above
		return false
	}

	if resource.isInactive() {
		return false
	}

	relation := resource.relationTo(actor.ID)

	switch action {
	case ActionManageHRs:
		// HRs do not get to reshape the HR roster, only the owner does
		return relation == RelationOwner

	case ActionUpdateCompany, ActionDeleteCompany,
		ActionCreateJob, ActionUpdateJob, ActionDeleteJob, ActionCloseJob,
		ActionViewApplications:
		return relation == RelationOwner || relation == RelationHR

	case ActionUpdateApplication:
		// applicants may not move their own status
		return relation == RelationOwner || relation == RelationHR

	case ActionApplyToJob:
		if actor.Role != RoleUser {
			return false
		}
		job, ok := resource.(JobResource)
		if !ok || job.Job == nil {
			return false
		}
		return job.Job.AcceptsApplications() && !job.isInactive()

	case ActionUpdateProfile, ActionChangePassword, ActionDeleteAccount:
		return relation == RelationSelf
	}

	return false
}

// RelationOf exposes the relation computation for callers that need to
// log or branch on the strongest relation found.
func RelationOf(actor *User, resource Resource) Relation {
	if actor == nil || resource == nil {
		return RelationNone
	}
	if actor.Role == RoleAdmin {
		return RelationAdmin
	}
	return resource.relationTo(actor.ID)
}
