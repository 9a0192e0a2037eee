package service

import (
	"errors"
	"fmt"

	"github.com/82deutschmark/MagicalFarmStories/internal/adapter/assistants"
	"github.com/82deutschmark/MagicalFarmStories/internal/repository"
	"github.com/82deutschmark/MagicalFarmStories/internal/runflow"
)

// ErrNotFound is returned when a referenced character or story does not exist.
var ErrNotFound = repository.ErrNotFound

// ValidationError reports a malformed request.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// PolicyError reports a request rejected by the story policy.
type PolicyError struct {
	Reason string
}

func (e *PolicyError) Error() string {
	if e.Reason == "" {
		return "request blocked by story policy"
	}
	return "request blocked by story policy: " + e.Reason
}

// Error codes reported to API clients and stored on failed attempts.
const (
	CodeInvalidRequest      = "invalid_request"
	CodePolicyBlocked       = "policy_blocked"
	CodeNotFound            = "not_found"
	CodeRunFailed           = "run_failed"
	CodeRunTimeout          = "run_timeout"
	CodeNoAssistantResponse = "no_assistant_response"
	CodeUpstreamError       = "upstream_error"
	CodeInternal            = "internal_error"
)

// ErrorCode classifies err into one of the API error codes.
func ErrorCode(err error) string {
	var validationErr *ValidationError
	var policyErr *PolicyError
	var runFailed *runflow.RunFailedError
	var runTimeout *runflow.RunTimeoutError
	var requestErr *assistants.RequestError

	switch {
	case err == nil:
		return ""
	case errors.As(err, &validationErr):
		return CodeInvalidRequest
	case errors.As(err, &policyErr):
		return CodePolicyBlocked
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.As(err, &runFailed):
		return CodeRunFailed
	case errors.As(err, &runTimeout):
		return CodeRunTimeout
	case errors.Is(err, runflow.ErrNoAssistantResponse):
		return CodeNoAssistantResponse
	case errors.As(err, &requestErr), errors.Is(err, assistants.ErrMalformedResponse):
		return CodeUpstreamError
	default:
		return CodeInternal
	}
}
