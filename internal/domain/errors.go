package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the app layer unwraps to one of these,
// which is what the transport layer maps to a status code.
var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("authentication failed")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
)

var (
	// ErrInvalidCredentials is returned when an email/password pair does not match an active user.
	ErrInvalidCredentials = kindError(ErrUnauthenticated, "incorrect credentials")
	// ErrInvalidToken covers malformed, expired and revoked tokens.
	ErrInvalidToken = kindError(ErrUnauthenticated, "token is invalid or expired")
	// ErrInactiveUser is returned when a disabled account presents a valid token.
	ErrInactiveUser = kindError(ErrUnauthenticated, "account is inactive")

	ErrTeacherOnly      = kindError(ErrForbidden, "only teachers can perform this action")
	ErrStudentOnly      = kindError(ErrForbidden, "only students can perform this action")
	ErrNotClassOwner    = kindError(ErrForbidden, "you do not own this class")
	ErrNotClassMember   = kindError(ErrForbidden, "you are not a member of this class")
	ErrNotQuizCreator   = kindError(ErrForbidden, "you did not create this quiz")
	ErrNotAssigned      = kindError(ErrForbidden, "you are not enrolled in this quiz's class")
	ErrQuizNotPublished = kindError(ErrForbidden, "this quiz is not published yet")
	ErrQuizUnavailable  = kindError(ErrForbidden, "this quiz is not available right now")
	ErrNotAttemptOwner  = kindError(ErrForbidden, "not authorized to act on this attempt")
	ErrResultsHidden    = kindError(ErrForbidden, "results for this quiz are not shown to students")

	ErrUserNotFound           = kindError(ErrNotFound, "user not found")
	ErrClassNotFound          = kindError(ErrNotFound, "class not found")
	ErrQuizNotFound           = kindError(ErrNotFound, "quiz not found")
	ErrSessionNotFound        = kindError(ErrNotFound, "session not found")
	ErrQuestionNotFound       = kindError(ErrNotFound, "question not found")
	ErrOptionNotFound         = kindError(ErrNotFound, "option not found")
	ErrAttemptNotFound        = kindError(ErrNotFound, "attempt not found")
	ErrSessionAttemptNotFound = kindError(ErrNotFound, "no answers recorded for this session")

	ErrEmailTaken              = kindError(ErrConflict, "a user with this email already exists")
	ErrClassCodeTaken          = kindError(ErrConflict, "class code already in use")
	ErrAlreadyMember           = kindError(ErrConflict, "student is already a member of this class")
	ErrNotMember               = kindError(ErrConflict, "student is not in this class")
	ErrAttemptInProgress       = kindError(ErrConflict, "an attempt for this quiz is already in progress")
	ErrQuizAlreadyCompleted    = kindError(ErrConflict, "you have already completed this quiz")
	ErrAttemptSealed           = kindError(ErrConflict, "this attempt has already been completed")
	ErrSessionAlreadyCompleted = kindError(ErrConflict, "this session has already been completed")

	ErrQuizNotStarted  = kindError(ErrValidation, "quiz has not started yet")
	ErrQuizEnded       = kindError(ErrValidation, "quiz has ended")
	ErrInvalidJoinCode = kindError(ErrValidation, "join code does not match this class")
)

type classified struct {
	kind error
	msg  string
}

func (e *classified) Error() string { return e.msg }
func (e *classified) Unwrap() error { return e.kind }

func kindError(kind error, msg string) error {
	return &classified{kind: kind, msg: msg}
}

// Invalid builds an ad-hoc validation error.
func Invalid(format string, args ...any) error {
	return kindError(ErrValidation, fmt.Sprintf(format, args...))
}

// IsKind reports whether err belongs to one of the known error kinds.
func IsKind(err error) bool {
	for _, kind := range []error{ErrValidation, ErrUnauthenticated, ErrForbidden, ErrNotFound, ErrConflict} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
