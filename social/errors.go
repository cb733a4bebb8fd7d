package social

import (
	goerrors "github.com/goliatone/go-errors"
)

// ErrInvalidState rejects forged or garbled OAuth state values.
var ErrInvalidState = goerrors.New("invalid OAuth state", goerrors.CategoryAuth).
	WithTextCode("INVALID_OAUTH_STATE").
	WithCode(goerrors.CodeUnauthorized)

// ErrStateExpired rejects state values past their TTL.
var ErrStateExpired = goerrors.New("OAuth state has expired", goerrors.CategoryAuth).
	WithTextCode("OAUTH_STATE_EXPIRED").
	WithCode(goerrors.CodeUnauthorized)

// ErrUnknownProvider is returned for provider names nothing was
// registered under.
var ErrUnknownProvider = goerrors.New("unknown social provider", goerrors.CategoryBadInput).
	WithTextCode("UNKNOWN_PROVIDER").
	WithCode(goerrors.CodeBadRequest)

// ErrEmailNotVerified refuses to provision accounts from unverified
// provider emails.
var ErrEmailNotVerified = goerrors.New("provider email is not verified", goerrors.CategoryAuth).
	WithTextCode("EMAIL_NOT_VERIFIED").
	WithCode(goerrors.CodeForbidden)
