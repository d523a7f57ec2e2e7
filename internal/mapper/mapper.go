// Package mapper translates platform identity references into MongoDB
// principal names.
package mapper

import (
	"fmt"
	"strings"
)

// userPrefix marks the only identity reference kind this adapter maps.
const userPrefix = "user:"

// MappingError is a per-subject, recoverable mapping failure. It is
// aggregated into batch results, never propagated as a fault.
type MappingError struct {
	Subject string
	Reason  string
}

func (e *MappingError) Error() string { return e.Reason }

// Result is the outcome of mapping a single subject: either a principal
// name or the error that failed it.
type Result struct {
	Principal string
	Err       *MappingError
}

// PrincipalMapper maps platform subjects to MongoDB principal names. It is
// stateless and deterministic: a subject always maps to the same principal.
type PrincipalMapper struct{}

// New creates a PrincipalMapper.
func New() *PrincipalMapper {
	return &PrincipalMapper{}
}

// Map translates every subject independently. The returned map has exactly
// one entry per distinct input subject; a bad subject yields a failed
// Result for that subject and never aborts the batch.
func (m *PrincipalMapper) Map(subjects []string) map[string]Result {
	results := make(map[string]Result, len(subjects))
	for _, ref := range subjects {
		if principal, err := m.mapSubject(ref); err != nil {
			results[ref] = Result{Err: err}
		} else {
			results[ref] = Result{Principal: principal}
		}
	}
	return results
}

// MapOne translates a single subject.
func (m *PrincipalMapper) MapOne(subject string) (string, *MappingError) {
	return m.mapSubject(subject)
}

func (m *PrincipalMapper) mapSubject(ref string) (string, *MappingError) {
	if !strings.HasPrefix(ref, userPrefix) {
		return "", &MappingError{
			Subject: ref,
			Reason:  fmt.Sprintf("The subject '%s' isn't a Witboost user.", ref),
		}
	}
	return mapUser(strings.TrimPrefix(ref, userPrefix)), nil
}

// mapUser rebuilds the mail-shaped principal from a flattened handle. The
// last underscore separates localpart from domain; handles without an
// underscore are already principal names.
func mapUser(handle string) string {
	i := strings.LastIndex(handle, "_")
	if i == -1 {
		return handle
	}
	return handle[:i] + "@" + handle[i+1:]
}
