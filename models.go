package jobboard

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Role is the platform-wide user role
type Role = string

const (
	// RoleUser is a regular account (applies to jobs, may own companies)
	RoleUser Role = "User"
	// RoleAdmin is a platform administrator
	RoleAdmin Role = "Admin"
)

// Provider identifies how the account was created
type Provider = string

const (
	// ProviderSystem is a password-based signup
	ProviderSystem Provider = "system"
	// ProviderGoogle is a Google OAuth signup
	ProviderGoogle Provider = "google"
)

// OTPPurpose tags a one-time code with the action it proves
type OTPPurpose = string

const (
	// PurposeConfirmEmail confirms control of the signup email
	PurposeConfirmEmail OTPPurpose = "confirmEmail"
	// PurposeForgetPassword authorizes a password reset
	PurposeForgetPassword OTPPurpose = "forgetPassword"
)

// ApplicationStatus is the applicant-visible state of an Application
type ApplicationStatus = string

const (
	StatusPending         ApplicationStatus = "pending"
	StatusViewed          ApplicationStatus = "viewed"
	StatusInConsideration ApplicationStatus = "in consideration"
	StatusAccepted        ApplicationStatus = "accepted"
	StatusRejected        ApplicationStatus = "rejected"
)

// IsTerminalStatus reports whether a status is conventionally terminal.
// An explicit authorized update may still leave a terminal state; cascades
// only sweep non-terminal rows.
func IsTerminalStatus(s ApplicationStatus) bool {
	return s == StatusAccepted || s == StatusRejected
}

// JobLocation is the job's working location arrangement
type JobLocation = string

const (
	LocationOnsite JobLocation = "onsite"
	LocationRemote JobLocation = "remotely"
	LocationHybrid JobLocation = "hybrid"
)

// WorkingTime is the job's time commitment
type WorkingTime = string

const (
	WorkingPartTime WorkingTime = "part-time"
	WorkingFullTime WorkingTime = "full-time"
)

// SeniorityLevel is the job's required experience level
type SeniorityLevel = string

const (
	SeniorityFresh    SeniorityLevel = "fresh"
	SeniorityJunior   SeniorityLevel = "Junior"
	SeniorityMid      SeniorityLevel = "Mid-Level"
	SenioritySenior   SeniorityLevel = "Senior"
	SeniorityTeamLead SeniorityLevel = "Team-Lead"
	SeniorityCTO      SeniorityLevel = "CTO"
)

// Attachment references an asset held by the external file storage
type Attachment struct {
	URL string `bun:"url" json:"url,omitempty"`
	ID  string `bun:"id" json:"id,omitempty"`
}

// User is the identity and credential record
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	ID                 uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	FirstName          string     `bun:"first_name,notnull" json:"first_name,omitempty"`
	LastName           string     `bun:"last_name,notnull" json:"last_name,omitempty"`
	Email              string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash       string     `bun:"password_hash" json:"-"`
	Provider           Provider   `bun:"provider,notnull,default:'system'" json:"provider,omitempty"`
	Role               Role       `bun:"user_role,notnull,default:'User'" json:"user_role,omitempty"`
	MobileNumber       string     `bun:"mobile_number" json:"-"` // encrypted, iv:ciphertext hex
	Confirmed          bool       `bun:"is_confirmed" json:"is_confirmed,omitempty"`
	ProfilePic         Attachment `bun:"embed:profile_pic_" json:"profile_pic,omitempty"`
	CoverPic           Attachment `bun:"embed:cover_pic_" json:"cover_pic,omitempty"`
	LoginAttempts      int        `bun:"login_attempts" json:"-"`
	LoginAttemptAt     *time.Time `bun:"login_attempt_at" json:"-"`
	ChangeCredentialAt time.Time  `bun:"change_credential_at,notnull,default:current_timestamp" json:"-"`
	BannedAt           *time.Time `bun:"banned_at,nullzero" json:"banned_at,omitempty"`
	DeletedAt          *time.Time `bun:"deleted_at,nullzero" json:"deleted_at,omitempty"`
	CreatedAt          *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt          *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Username is the display handle derived from the name parts
func (u *User) Username() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// IsActive reports whether the account may act on the platform
func (u *User) IsActive() bool {
	return u.DeletedAt == nil && u.BannedAt == nil
}

// OTPCredential is a hashed one-time code pending verification.
// Multiple outstanding codes of the same purpose may coexist; reissuing
// does not invalidate prior codes.
type OTPCredential struct {
	bun.BaseModel `bun:"table:user_otps,alias:otp"`

	ID        uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID    uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	CodeHash  string     `bun:"code_hash,notnull" json:"-"`
	Purpose   OTPPurpose `bun:"purpose,notnull" json:"purpose,omitempty"`
	ExpiresAt time.Time  `bun:"expires_at,notnull" json:"expires_at,omitempty"`
	CreatedAt *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Expired reports whether the code is past its expiry at the given instant
func (o *OTPCredential) Expired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}

// Company is an employer profile owned by a user
type Company struct {
	bun.BaseModel `bun:"table:companies,alias:cmp"`

	ID                uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name              string     `bun:"company_name,notnull,unique" json:"company_name,omitempty"`
	Description       string     `bun:"description" json:"description,omitempty"`
	Industry          string     `bun:"industry" json:"industry,omitempty"`
	Address           string     `bun:"address" json:"address,omitempty"`
	NumberOfEmployees string     `bun:"number_of_employees" json:"number_of_employees,omitempty"`
	Email             string     `bun:"company_email,notnull,unique" json:"company_email,omitempty"`
	CreatedBy         *uuid.UUID `bun:"created_by,type:uuid" json:"created_by,omitempty"`
	Logo              Attachment `bun:"embed:logo_" json:"logo,omitempty"`
	CoverPic          Attachment `bun:"embed:cover_pic_" json:"cover_pic,omitempty"`
	LegalAttachment   Attachment `bun:"embed:legal_attachment_" json:"legal_attachment,omitempty"`
	Approved          bool       `bun:"approved_by_admin" json:"approved_by_admin,omitempty"`
	BannedAt          *time.Time `bun:"banned_at,nullzero" json:"banned_at,omitempty"`
	DeletedAt         *time.Time `bun:"deleted_at,nullzero" json:"deleted_at,omitempty"`
	CreatedAt         *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt         *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`

	// HRs is the management membership, loaded from company_hrs.
	// The owner is always a member of this set.
	HRs []uuid.UUID `bun:"-" json:"hrs,omitempty"`
}

// IsActive reports whether the company may own live jobs
func (c *Company) IsActive() bool {
	return c.BannedAt == nil && c.DeletedAt == nil
}

// IsManagedBy reports whether the given user manages this company,
// either as the owner or as an HR member
func (c *Company) IsManagedBy(userID uuid.UUID) bool {
	if c.CreatedBy != nil && *c.CreatedBy == userID {
		return true
	}
	for _, hr := range c.HRs {
		if hr == userID {
			return true
		}
	}
	return false
}

// CompanyHR is a row in the company -> HR membership set.
// The membership list is owned by the company; users are only referenced.
type CompanyHR struct {
	bun.BaseModel `bun:"table:company_hrs,alias:chr"`

	CompanyID uuid.UUID `bun:"company_id,pk,type:uuid" json:"company_id"`
	UserID    uuid.UUID `bun:"user_id,pk,type:uuid" json:"user_id"`
}

// Job is a posting owned by a company
type Job struct {
	bun.BaseModel `bun:"table:jobs,alias:job"`

	ID              uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	CompanyID       uuid.UUID      `bun:"company_id,notnull,type:uuid" json:"company_id,omitempty"`
	Title           string         `bun:"job_title,notnull" json:"job_title,omitempty"`
	Location        JobLocation    `bun:"job_location,notnull" json:"job_location,omitempty"`
	WorkingTime     WorkingTime    `bun:"working_time,notnull" json:"working_time,omitempty"`
	Seniority       SeniorityLevel `bun:"seniority_level,notnull" json:"seniority_level,omitempty"`
	Description     string         `bun:"job_description" json:"job_description,omitempty"`
	TechnicalSkills []string       `bun:"technical_skills" json:"technical_skills,omitempty"`
	SoftSkills      []string       `bun:"soft_skills" json:"soft_skills,omitempty"`
	AddedBy         *uuid.UUID     `bun:"added_by,type:uuid" json:"added_by,omitempty"`
	UpdatedBy       *uuid.UUID     `bun:"updated_by,type:uuid" json:"updated_by,omitempty"`
	Closed          bool           `bun:"closed" json:"closed,omitempty"`
	DeletedAt       *time.Time     `bun:"deleted_at,nullzero" json:"deleted_at,omitempty"`
	CreatedAt       *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt       *time.Time     `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// AcceptsApplications reports whether the job row itself allows new
// applications. Callers must also check the parent company: the company's
// own flags are authoritative even when the job row was not swept yet.
func (j *Job) AcceptsApplications() bool {
	return j.DeletedAt == nil && !j.Closed
}

// Application is a user's submission against a job.
// At most one application may exist per (job, user) pair; the
// applications table carries a unique index on that pair.
type Application struct {
	bun.BaseModel `bun:"table:applications,alias:app"`

	ID        uuid.UUID         `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	JobID     uuid.UUID         `bun:"job_id,notnull,type:uuid" json:"job_id,omitempty"`
	UserID    uuid.UUID         `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	CV        Attachment        `bun:"embed:cv_" json:"cv,omitempty"`
	Status    ApplicationStatus `bun:"status,notnull,default:'pending'" json:"status,omitempty"`
	CreatedAt *time.Time        `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt *time.Time        `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Conversation is a chat channel between a company-side user and an applicant
type Conversation struct {
	bun.BaseModel `bun:"table:conversations,alias:cnv"`

	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	InitiatorID   uuid.UUID  `bun:"initiator_id,notnull,type:uuid" json:"initiator_id,omitempty"`
	ParticipantID uuid.UUID  `bun:"participant_id,notnull,type:uuid" json:"participant_id,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// HasParticipant reports whether the user belongs to the conversation
func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	return c.InitiatorID == userID || c.ParticipantID == userID
}

// ChatMessage is one append-only entry in a conversation log
type ChatMessage struct {
	bun.BaseModel `bun:"table:chat_messages,alias:msg"`

	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	ConversationID uuid.UUID  `bun:"conversation_id,notnull,type:uuid" json:"conversation_id,omitempty"`
	SenderID       uuid.UUID  `bun:"sender_id,notnull,type:uuid" json:"sender_id,omitempty"`
	Body           string     `bun:"body,notnull" json:"body,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}
