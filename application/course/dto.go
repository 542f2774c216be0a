package course

import "time"

// CreateCourseRequest 创建课程入参，讲师 ID 总是取自调用方。
type CreateCourseRequest struct {
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description"`
	MediaURL    string `json:"media_url" binding:"omitempty,url"`
}

// UpdateCourseRequest 更新课程入参。
type UpdateCourseRequest struct {
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description"`
	MediaURL    string `json:"media_url" binding:"omitempty,url"`
}

// CourseResponse 课程返回模型。
type CourseResponse struct {
	ID             string               `json:"id"`
	Title          string               `json:"title"`
	Description    string               `json:"description"`
	InstructorID   string               `json:"instructor_id"`
	InstructorName string               `json:"instructor_name,omitempty"`
	MediaURL       string               `json:"media_url,omitempty"`
	Assessments    []AssessmentResponse `json:"assessments,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// CreateAssessmentRequest 创建测验入参。
type CreateAssessmentRequest struct {
	CourseID string `json:"course_id" binding:"required"`
	Title    string `json:"title" binding:"required,max=200"`
	MaxScore int    `json:"max_score" binding:"required,min=1"`
}

// AssessmentResponse 测验返回模型。
type AssessmentResponse struct {
	ID       string `json:"id"`
	CourseID string `json:"course_id"`
	Title    string `json:"title"`
	MaxScore int    `json:"max_score"`
}
