package jobboard

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes surfaced alongside structured errors so API clients can
// branch without string matching.
const (
	TextCodeInvalidCreds       = "INVALID_CREDENTIALS"
	TextCodeTooManyAttempts    = "TOO_MANY_LOGIN_ATTEMPTS"
	TextCodeTokenExpired       = "TOKEN_EXPIRED"
	TextCodeTokenMalformed     = "TOKEN_MALFORMED"
	TextCodeStaleCredential    = "STALE_CREDENTIAL"
	TextCodeAccountDeleted     = "ACCOUNT_DELETED"
	TextCodeAccountBanned      = "ACCOUNT_BANNED"
	TextCodeEmptyPassword      = "EMPTY_PASSWORD"
	TextCodeForbidden          = "FORBIDDEN"
	TextCodeInactiveCompany    = "COMPANY_INACTIVE"
	TextCodeJobClosed          = "JOB_NOT_ACCEPTING"
	TextCodeDuplicateApply     = "DUPLICATE_APPLICATION"
	TextCodeInvalidOTP         = "INVALID_OR_EXPIRED_OTP"
	TextCodeNotBanned          = "NOT_BANNED"
	TextCodeAlreadyBanned      = "ALREADY_BANNED"
	TextCodeAlreadyApproved    = "ALREADY_APPROVED"
	TextCodeNotParticipant     = "NOT_A_PARTICIPANT"
	TextCodeChatNotPermitted   = "CHAT_NOT_PERMITTED"
	TextCodeSessionDecodeError = "SESSION_DECODE_ERROR"
	TextCodeNotFound           = "NOT_FOUND"
)

// ErrIdentityNotFound is returned when a user cannot be located
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrMismatchedHashAndPassword is the generic bad-credentials error
var ErrMismatchedHashAndPassword = goerrors.New("the credentials provided are invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(goerrors.CodeUnauthorized)

// ErrTooManyLoginAttempts signals login throttling is in effect
var ErrTooManyLoginAttempts = goerrors.New("too many login attempts, retry later", goerrors.CategoryRateLimit).
	WithTextCode(TextCodeTooManyAttempts)

// ErrTokenExpired is returned for tokens past their expiry
var ErrTokenExpired = goerrors.New("authentication token has expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens that fail parsing or signature checks
var ErrTokenMalformed = goerrors.New("authentication token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrStaleCredential rejects tokens issued before the user's last
// credential-changing event. This is the sole revocation mechanism;
// there is no token blacklist.
var ErrStaleCredential = goerrors.New("token was issued before the last credential change", goerrors.CategoryAuth).
	WithTextCode(TextCodeStaleCredential).
	WithCode(goerrors.CodeUnauthorized)

// ErrAccountDeleted rejects any action by a soft-deleted account
var ErrAccountDeleted = goerrors.New("account has been deleted", goerrors.CategoryAuth).
	WithTextCode(TextCodeAccountDeleted).
	WithCode(goerrors.CodeForbidden)

// ErrAccountBanned rejects any action by a banned account
var ErrAccountBanned = goerrors.New("account has been banned", goerrors.CategoryAuth).
	WithTextCode(TextCodeAccountBanned).
	WithCode(goerrors.CodeForbidden)

// ErrNoEmptyString rejects empty passwords before hashing
var ErrNoEmptyString = goerrors.New("value must not be empty", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword)

// ErrForbidden is the uniform authorization denial. It is distinct from
// ErrIdentityNotFound / record-not-found errors: a located resource the
// actor may not touch answers 403, a missing resource answers 404, and
// the two are never conflated.
var ErrForbidden = goerrors.New("not authorized to perform this action", goerrors.CategoryAuth).
	WithTextCode(TextCodeForbidden).
	WithCode(goerrors.CodeForbidden)

// ErrCompanyInactive gates mutations under a banned, deleted, or
// unapproved company
var ErrCompanyInactive = goerrors.New("company is banned, deleted, or not approved", goerrors.CategoryValidation).
	WithTextCode(TextCodeInactiveCompany).
	WithCode(goerrors.CodeBadRequest)

// ErrJobNotAccepting rejects applications against closed or deleted jobs
var ErrJobNotAccepting = goerrors.New("this job is no longer accepting applications", goerrors.CategoryValidation).
	WithTextCode(TextCodeJobClosed).
	WithCode(goerrors.CodeBadRequest)

// ErrDuplicateApplication enforces at most one application per (job, user)
var ErrDuplicateApplication = goerrors.New("an application for this job already exists", goerrors.CategoryConflict).
	WithTextCode(TextCodeDuplicateApply).
	WithCode(goerrors.CodeConflict)

// ErrInvalidOrExpiredOTP covers both wrong and expired codes; callers
// cannot distinguish the two on purpose.
var ErrInvalidOrExpiredOTP = goerrors.New("invalid or expired OTP", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidOTP).
	WithCode(goerrors.CodeBadRequest)

// ErrNotBanned is returned when unbanning an account that is not banned
var ErrNotBanned = goerrors.New("target is not banned", goerrors.CategoryValidation).
	WithTextCode(TextCodeNotBanned).
	WithCode(goerrors.CodeBadRequest)

// ErrAlreadyBanned is returned when banning an already banned account
var ErrAlreadyBanned = goerrors.New("target is already banned", goerrors.CategoryValidation).
	WithTextCode(TextCodeAlreadyBanned).
	WithCode(goerrors.CodeBadRequest)

// ErrAlreadyApproved is returned when approving an approved company
var ErrAlreadyApproved = goerrors.New("company is already approved", goerrors.CategoryValidation).
	WithTextCode(TextCodeAlreadyApproved).
	WithCode(goerrors.CodeBadRequest)

// ErrNotParticipant rejects messages from users outside a conversation
var ErrNotParticipant = goerrors.New("sender is not a conversation participant", goerrors.CategoryAuth).
	WithTextCode(TextCodeNotParticipant).
	WithCode(goerrors.CodeForbidden)

// ErrChatNotPermitted gates conversation initiation to company HR/owners
var ErrChatNotPermitted = goerrors.New("cannot initiate chat with this user", goerrors.CategoryAuth).
	WithTextCode(TextCodeChatNotPermitted).
	WithCode(goerrors.CodeForbidden)

// ErrUnableToDecodeSession covers claims that fail to map after parsing
var ErrUnableToDecodeSession = goerrors.New("unable to decode session claims", goerrors.CategoryAuth).
	WithTextCode(TextCodeSessionDecodeError).
	WithCode(goerrors.CodeUnauthorized)

// IsTokenExpiredError checks for expired tokens, including legacy
// string-wrapped errors from the JWT library.
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if goerrors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError checks for malformed-token errors
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if goerrors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// recordNotFound wraps a missed lookup so callers can branch on
// goerrors.IsNotFound without caring which driver reported the miss.
func recordNotFound(kind string, meta map[string]any) *goerrors.Error {
	return goerrors.New(kind+" not found", goerrors.CategoryNotFound).
		WithTextCode(TextCodeNotFound).
		WithCode(goerrors.CodeNotFound).
		WithMetadata(meta)
}
