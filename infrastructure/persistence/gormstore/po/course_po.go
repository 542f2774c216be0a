package po

import (
	"time"

	"edusync/domain/course"
)

// CoursePO courses 表
// 外键均为 RESTRICT：删除顺序由协调器决定，数据库不做级联
type CoursePO struct {
	ID           string    `gorm:"primaryKey;size:36"`
	Title        string    `gorm:"size:200;not null"`
	Description  string    `gorm:"type:text"`
	InstructorID string    `gorm:"size:36;index;not null"`
	MediaURL     string    `gorm:"size:1024"`
	Version      int       `gorm:"default:0;not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`

	Assessments []AssessmentPO `gorm:"foreignKey:CourseID;constraint:OnDelete:RESTRICT"`
}

func (CoursePO) TableName() string {
	return "courses"
}

// AssessmentPO assessments 表
type AssessmentPO struct {
	ID       string `gorm:"primaryKey;size:36"`
	CourseID string `gorm:"size:36;index;not null"`
	Title    string `gorm:"size:200;not null"`
	MaxScore int    `gorm:"not null"`

	Results []ResultPO `gorm:"foreignKey:AssessmentID;constraint:OnDelete:RESTRICT"`
}

func (AssessmentPO) TableName() string {
	return "assessments"
}

func FromCourseDomain(c *course.Course) *CoursePO {
	return &CoursePO{
		ID:           c.ID(),
		Title:        c.Title(),
		Description:  c.Description(),
		InstructorID: c.InstructorID(),
		MediaURL:     c.MediaURL(),
		Version:      c.Version(),
		CreatedAt:    c.CreatedAt(),
		UpdatedAt:    c.UpdatedAt(),
	}
}

// ToDomain rebuilds the aggregate with whatever assessments were preloaded.
func (p *CoursePO) ToDomain() *course.Course {
	dto := course.ReconstructionDTO{
		ID:           p.ID,
		Title:        p.Title,
		Description:  p.Description,
		InstructorID: p.InstructorID,
		MediaURL:     p.MediaURL,
		Version:      p.Version,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	for _, a := range p.Assessments {
		dto.Assessments = append(dto.Assessments, a.toDTO())
	}
	return course.RebuildFromDTO(dto)
}

func FromAssessmentDomain(a *course.Assessment) *AssessmentPO {
	return &AssessmentPO{
		ID:       a.ID(),
		CourseID: a.CourseID(),
		Title:    a.Title(),
		MaxScore: a.MaxScore(),
	}
}

func (p *AssessmentPO) ToDomain() *course.Assessment {
	return course.RebuildAssessment(p.toDTO())
}

func (p *AssessmentPO) toDTO() course.AssessmentDTO {
	return course.AssessmentDTO{ID: p.ID, CourseID: p.CourseID, Title: p.Title, MaxScore: p.MaxScore}
}
