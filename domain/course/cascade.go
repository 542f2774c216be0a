package course

import (
	"edusync/domain/result"
)

// Cascade is the fully materialized dependency set of a course:
// the course, its assessments, and every result of those assessments.
type Cascade struct {
	Course  *Course
	Results []*result.Result
}

// AssessmentIDs lists the ids of the course's assessments.
func (c *Cascade) AssessmentIDs() []string {
	as := c.Course.Assessments()
	ids := make([]string, 0, len(as))
	for _, a := range as {
		ids = append(ids, a.ID())
	}
	return ids
}

// ResultIDs lists the ids of all dependent results.
func (c *Cascade) ResultIDs() []string {
	ids := make([]string, 0, len(c.Results))
	for _, r := range c.Results {
		ids = append(ids, r.ID())
	}
	return ids
}
