package intake

import (
	"fmt"
	"strings"

	"eventsPipeline/internal/models/domain"
)

// Violation is one broken field rule.
type Violation struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError carries every violated rule of a submission.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		fields = append(fields, v.Field+":"+v.Rule)
	}
	return fmt.Sprintf("invalid submission (%s)", strings.Join(fields, ", "))
}

// DuplicateError reports that a non-deleted event already uses the source URL.
type DuplicateError struct {
	Existing domain.EventRef
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("event with this source url already exists: %s (%s)", e.Existing.ID, e.Existing.Status)
}
