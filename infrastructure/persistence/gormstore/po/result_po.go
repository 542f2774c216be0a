package po

import (
	"time"

	"edusync/domain/result"
)

// ResultPO results 表
type ResultPO struct {
	ID           string    `gorm:"primaryKey;size:36"`
	AssessmentID string    `gorm:"size:36;index;not null"`
	UserID       string    `gorm:"size:36;index;not null"`
	Score        int       `gorm:"not null"`
	AttemptDate  time.Time `gorm:"not null"`
	Version      int       `gorm:"default:0;not null"`
}

func (ResultPO) TableName() string {
	return "results"
}

func FromResultDomain(r *result.Result) *ResultPO {
	return &ResultPO{
		ID:           r.ID(),
		AssessmentID: r.AssessmentID(),
		UserID:       r.UserID(),
		Score:        r.Score(),
		AttemptDate:  r.AttemptDate(),
		Version:      r.Version(),
	}
}

func (p *ResultPO) ToDomain() *result.Result {
	return result.RebuildFromDTO(result.ReconstructionDTO{
		ID:           p.ID,
		AssessmentID: p.AssessmentID,
		UserID:       p.UserID,
		Score:        p.Score,
		AttemptDate:  p.AttemptDate.UTC(),
		Version:      p.Version,
	})
}
