package prompt

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidInput marks any allow-list validation failure. Handlers match it
// with errors.Is to produce a 400 without touching the store or upstream.
var ErrInvalidInput = errors.New("prompt: invalid input")

const (
	// PostSecondary is the grade-level tag with no numeric grade.
	PostSecondary = "post-secondary"

	maxMessageLen  = 4000
	maxSubjectLen  = 100
	minDurationMin = 1
	maxDurationMin = 480
)

var (
	messagePattern    = regexp.MustCompile(`^[a-zA-Z0-9\s.,!?'"()&%$#@*+=:;/_-]+$`)
	gradeLevelPattern = regexp.MustCompile(`^(post-secondary|1[0-2]|[1-9])$`)
	subjectPattern    = regexp.MustCompile(`^[a-zA-Z0-9 &'/-]+$`)
)

// Input is one validated composition request. DurationMinutes of zero means
// the duration fragment is omitted; an empty Subject omits the subject
// fragment.
type Input struct {
	Message         string
	GradeLevel      string
	Subject         string
	DurationMinutes int
}

// Validate applies the allow-list rules. Compose must only ever be called
// with an Input that passed here.
func Validate(in Input) error {
	if in.Message == "" {
		return fmt.Errorf("%w: message is required", ErrInvalidInput)
	}
	if len(in.Message) > maxMessageLen {
		return fmt.Errorf("%w: message exceeds %d characters", ErrInvalidInput, maxMessageLen)
	}
	if !messagePattern.MatchString(in.Message) {
		return fmt.Errorf("%w: message contains disallowed characters", ErrInvalidInput)
	}
	if in.GradeLevel == "" {
		return fmt.Errorf("%w: gradeLevel is required", ErrInvalidInput)
	}
	if !gradeLevelPattern.MatchString(in.GradeLevel) {
		return fmt.Errorf("%w: gradeLevel must be 1-12 or %q", ErrInvalidInput, PostSecondary)
	}
	if in.Subject != "" {
		if len(in.Subject) > maxSubjectLen || !subjectPattern.MatchString(in.Subject) {
			return fmt.Errorf("%w: subject contains disallowed characters", ErrInvalidInput)
		}
	}
	if in.DurationMinutes != 0 {
		if in.DurationMinutes < minDurationMin || in.DurationMinutes > maxDurationMin {
			return fmt.Errorf("%w: durationMinutes must be between %d and %d", ErrInvalidInput, minDurationMin, maxDurationMin)
		}
	}
	return nil
}
