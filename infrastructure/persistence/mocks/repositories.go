package mocks

import (
	"context"
	"sort"

	"edusync/domain/course"
	"edusync/domain/result"
	"edusync/domain/user"
)

// CourseRepository in-memory course.Repository
type CourseRepository struct{ s *Store }

func (s *Store) Courses() *CourseRepository { return &CourseRepository{s: s} }

func (r *CourseRepository) FindByID(ctx context.Context, id string) (*course.Course, error) {
	var out *course.Course
	err := r.s.run(ctx, "courses.FindByID", false, func() error {
		c, ok := r.s.buildCourse(id)
		if !ok {
			return course.NewCourseNotFoundError(id)
		}
		out = c
		return nil
	})
	return out, err
}

func (r *CourseRepository) List(ctx context.Context) ([]*course.Course, error) {
	var out []*course.Course
	err := r.s.run(ctx, "courses.List", false, func() error {
		for _, row := range r.s.data.courses {
			out = append(out, course.RebuildFromDTO(row.dto))
		}
		sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().After(out[j].CreatedAt()) })
		return nil
	})
	return out, err
}

func (r *CourseRepository) LoadCascade(ctx context.Context, id string) (*course.Cascade, error) {
	var out *course.Cascade
	err := r.s.run(ctx, "courses.LoadCascade", false, func() error {
		c, ok := r.s.buildCourse(id)
		if !ok {
			return course.NewCourseNotFoundError(id)
		}
		out = &course.Cascade{Course: c}
		ids := map[string]bool{}
		for _, a := range c.Assessments() {
			ids[a.ID()] = true
		}
		for _, dto := range r.s.sortedResults() {
			if ids[dto.AssessmentID] {
				out.Results = append(out.Results, result.RebuildFromDTO(dto))
			}
		}
		return nil
	})
	return out, err
}

func (r *CourseRepository) Add(ctx context.Context, c *course.Course) error {
	return r.s.run(ctx, "courses.Add", true, func() error {
		r.s.data.courses[c.ID()] = courseRow{dto: courseDTO(c)}
		return nil
	})
}

func (r *CourseRepository) Update(ctx context.Context, c *course.Course) error {
	return r.s.run(ctx, "courses.Update", true, func() error {
		row, ok := r.s.data.courses[c.ID()]
		if !ok {
			return course.NewCourseNotFoundError(c.ID())
		}
		if row.dto.Version != c.Version() {
			return course.NewConcurrentModificationError(c.ID())
		}
		dto := courseDTO(c)
		dto.Version++
		r.s.data.courses[c.ID()] = courseRow{dto: dto}
		c.IncrementVersionForSave()
		return nil
	})
}

// Remove follows the same FK rule as the relational store: a course with
// assessments still present cannot be deleted.
func (r *CourseRepository) Remove(ctx context.Context, id string, expectedVersion int) error {
	return r.s.run(ctx, "courses.Remove", true, func() error {
		row, ok := r.s.data.courses[id]
		if !ok {
			return course.NewCourseNotFoundError(id)
		}
		if row.dto.Version != expectedVersion {
			return course.NewConcurrentModificationError(id)
		}
		if len(r.s.assessmentsOf(id)) > 0 {
			return errForeignKey("courses", id)
		}
		delete(r.s.data.courses, id)
		return nil
	})
}

func (r *CourseRepository) Exists(ctx context.Context, id string) (bool, error) {
	var ok bool
	err := r.s.run(ctx, "courses.Exists", false, func() error {
		_, ok = r.s.data.courses[id]
		return nil
	})
	return ok, err
}

var _ course.Repository = (*CourseRepository)(nil)

// AssessmentRepository in-memory course.AssessmentRepository
type AssessmentRepository struct{ s *Store }

func (s *Store) Assessments() *AssessmentRepository { return &AssessmentRepository{s: s} }

func (r *AssessmentRepository) FindByID(ctx context.Context, id string) (*course.Assessment, error) {
	var out *course.Assessment
	err := r.s.run(ctx, "assessments.FindByID", false, func() error {
		dto, ok := r.s.data.assessments[id]
		if !ok {
			return course.NewAssessmentNotFoundError(id)
		}
		out = course.RebuildAssessment(dto)
		return nil
	})
	return out, err
}

func (r *AssessmentRepository) FindByCourseID(ctx context.Context, courseID string) ([]*course.Assessment, error) {
	var out []*course.Assessment
	err := r.s.run(ctx, "assessments.FindByCourseID", false, func() error {
		for _, dto := range r.s.assessmentsOf(courseID) {
			out = append(out, course.RebuildAssessment(dto))
		}
		return nil
	})
	return out, err
}

func (r *AssessmentRepository) Add(ctx context.Context, a *course.Assessment) error {
	return r.s.run(ctx, "assessments.Add", true, func() error {
		if _, ok := r.s.data.courses[a.CourseID()]; !ok {
			return errForeignKey("assessments", a.ID())
		}
		r.s.data.assessments[a.ID()] = assessmentDTO(a)
		return nil
	})
}

func (r *AssessmentRepository) RemoveMany(ctx context.Context, ids []string) (int64, error) {
	var n int64
	err := r.s.run(ctx, "assessments.RemoveMany", true, func() error {
		for _, id := range ids {
			if _, ok := r.s.data.assessments[id]; !ok {
				continue
			}
			for _, res := range r.s.data.results {
				if res.AssessmentID == id {
					return errForeignKey("assessments", id)
				}
			}
		}
		for _, id := range ids {
			if _, ok := r.s.data.assessments[id]; ok {
				delete(r.s.data.assessments, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *AssessmentRepository) Exists(ctx context.Context, id string) (bool, error) {
	var ok bool
	err := r.s.run(ctx, "assessments.Exists", false, func() error {
		_, ok = r.s.data.assessments[id]
		return nil
	})
	return ok, err
}

var _ course.AssessmentRepository = (*AssessmentRepository)(nil)

// ResultRepository in-memory result.Repository
type ResultRepository struct{ s *Store }

func (s *Store) Results() *ResultRepository { return &ResultRepository{s: s} }

func (s *Store) sortedResults() []result.ReconstructionDTO {
	out := make([]result.ReconstructionDTO, 0, len(s.data.results))
	for _, r := range s.data.results {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *ResultRepository) FindByID(ctx context.Context, id string) (*result.Result, error) {
	var out *result.Result
	err := r.s.run(ctx, "results.FindByID", false, func() error {
		dto, ok := r.s.data.results[id]
		if !ok {
			return result.NewResultNotFoundError(id)
		}
		out = result.RebuildFromDTO(dto)
		return nil
	})
	return out, err
}

func (r *ResultRepository) List(ctx context.Context) ([]*result.Result, error) {
	var out []*result.Result
	err := r.s.run(ctx, "results.List", false, func() error {
		for _, dto := range r.s.sortedResults() {
			out = append(out, result.RebuildFromDTO(dto))
		}
		return nil
	})
	return out, err
}

func (r *ResultRepository) FindByAssessmentIDs(ctx context.Context, assessmentIDs []string) ([]*result.Result, error) {
	want := map[string]bool{}
	for _, id := range assessmentIDs {
		want[id] = true
	}
	var out []*result.Result
	err := r.s.run(ctx, "results.FindByAssessmentIDs", false, func() error {
		for _, dto := range r.s.sortedResults() {
			if want[dto.AssessmentID] {
				out = append(out, result.RebuildFromDTO(dto))
			}
		}
		return nil
	})
	return out, err
}

func (r *ResultRepository) Add(ctx context.Context, res *result.Result) error {
	return r.s.run(ctx, "results.Add", true, func() error {
		if _, ok := r.s.data.assessments[res.AssessmentID()]; !ok {
			return errForeignKey("results", res.ID())
		}
		r.s.data.results[res.ID()] = resultDTO(res)
		return nil
	})
}

func (r *ResultRepository) Update(ctx context.Context, res *result.Result) error {
	return r.s.run(ctx, "results.Update", true, func() error {
		row, ok := r.s.data.results[res.ID()]
		if !ok || row.Version != res.Version() {
			return result.NewConcurrentModificationError(res.ID())
		}
		dto := resultDTO(res)
		dto.Version++
		r.s.data.results[res.ID()] = dto
		res.IncrementVersionForSave()
		return nil
	})
}

func (r *ResultRepository) Remove(ctx context.Context, id string) error {
	return r.s.run(ctx, "results.Remove", true, func() error {
		if _, ok := r.s.data.results[id]; !ok {
			return result.NewResultNotFoundError(id)
		}
		delete(r.s.data.results, id)
		return nil
	})
}

func (r *ResultRepository) RemoveMany(ctx context.Context, ids []string) (int64, error) {
	var n int64
	err := r.s.run(ctx, "results.RemoveMany", true, func() error {
		for _, id := range ids {
			if _, ok := r.s.data.results[id]; ok {
				delete(r.s.data.results, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *ResultRepository) RemoveByAssessmentIDs(ctx context.Context, assessmentIDs []string) (int64, error) {
	want := map[string]bool{}
	for _, id := range assessmentIDs {
		want[id] = true
	}
	var n int64
	err := r.s.run(ctx, "results.RemoveByAssessmentIDs", true, func() error {
		for id, dto := range r.s.data.results {
			if want[dto.AssessmentID] {
				delete(r.s.data.results, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *ResultRepository) Exists(ctx context.Context, id string) (bool, error) {
	var ok bool
	err := r.s.run(ctx, "results.Exists", false, func() error {
		_, ok = r.s.data.results[id]
		return nil
	})
	return ok, err
}

var _ result.Repository = (*ResultRepository)(nil)

// UserDirectory in-memory user.Directory
type UserDirectory struct{ s *Store }

func (s *Store) Users() *UserDirectory { return &UserDirectory{s: s} }

func (d *UserDirectory) FindByID(ctx context.Context, id string) (*user.User, error) {
	var out *user.User
	err := d.s.run(ctx, "users.FindByID", false, func() error {
		u, ok := d.s.users[id]
		if !ok {
			return user.NewUserNotFoundError(id)
		}
		cp := *u
		out = &cp
		return nil
	})
	return out, err
}

var _ user.Directory = (*UserDirectory)(nil)
