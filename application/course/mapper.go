package course

import (
	"edusync/domain/course"
)

func toCourseResponse(c *course.Course, instructorName string) *CourseResponse {
	resp := &CourseResponse{
		ID:             c.ID(),
		Title:          c.Title(),
		Description:    c.Description(),
		InstructorID:   c.InstructorID(),
		InstructorName: instructorName,
		MediaURL:       c.MediaURL(),
		CreatedAt:      c.CreatedAt(),
		UpdatedAt:      c.UpdatedAt(),
	}
	for _, a := range c.Assessments() {
		resp.Assessments = append(resp.Assessments, *toAssessmentResponse(a))
	}
	return resp
}

func toAssessmentResponse(a *course.Assessment) *AssessmentResponse {
	return &AssessmentResponse{
		ID:       a.ID(),
		CourseID: a.CourseID(),
		Title:    a.Title(),
		MaxScore: a.MaxScore(),
	}
}
