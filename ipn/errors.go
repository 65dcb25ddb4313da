package ipn

import (
	"errors"
	"fmt"
	"strings"
)

// Stage is a step of notification authentication.
type Stage int

const (
	Received Stage = iota
	HeaderValidated
	CertificateFetched
	SubjectValidated
	SignatureVerified
	Rejected
)

func (s Stage) String() string {
	switch s {
	case Received:
		return "Received"
	case HeaderValidated:
		return "HeaderValidated"
	case CertificateFetched:
		return "CertificateFetched"
	case SubjectValidated:
		return "SubjectValidated"
	case SignatureVerified:
		return "SignatureVerified"
	case Rejected:
		return "Rejected"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// ErrNotAuthentic matches every *AuthenticationError.
var ErrNotAuthentic = errors.New("notification is not authentic")

// AuthenticationError rejects a notification. Stage is the last stage the
// notification passed before it was rejected.
type AuthenticationError struct {
	Stage  Stage
	Reason string

	URL      string
	Expected string
	Actual   string

	Err error
}

func (e *AuthenticationError) Error() string {
	var b strings.Builder
	b.WriteString(e.Reason)
	if e.URL != "" {
		b.WriteString(": " + e.URL)
	}
	if e.Expected != "" || e.Actual != "" {
		fmt.Fprintf(&b, " (expected %q, got %q)", e.Expected, e.Actual)
	}
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *AuthenticationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrNotAuthentic}
	}
	return []error{ErrNotAuthentic, e.Err}
}

func reject(stage Stage, reason string, err error) *AuthenticationError {
	return &AuthenticationError{Stage: stage, Reason: reason, Err: err}
}
