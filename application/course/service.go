/*
Package course Application Layer - course and assessment orchestration

Course deletion is not here: it belongs to the lifecycle coordinator, which
owns the cascade and the media cleanup.
*/
package course

import (
	"context"
	"errors"

	"edusync/domain/course"
	"edusync/domain/identity"
	"edusync/domain/shared"
	"edusync/domain/user"
	"edusync/pkg/logger"

	"go.uber.org/zap"
)

// ApplicationService course application service
type ApplicationService struct {
	courses     course.Repository
	assessments course.AssessmentRepository
	users       user.Directory
	uow         shared.UnitOfWork
}

func NewApplicationService(
	courses course.Repository,
	assessments course.AssessmentRepository,
	users user.Directory,
	uow shared.UnitOfWork,
) *ApplicationService {
	return &ApplicationService{
		courses:     courses,
		assessments: assessments,
		users:       users,
		uow:         uow,
	}
}

// ListCourses is open to every authenticated role.
func (s *ApplicationService) ListCourses(ctx context.Context, caller identity.Identity) ([]*CourseResponse, error) {
	if err := caller.Require(identity.RoleInstructor, identity.RoleStudent); err != nil {
		return nil, err
	}
	courses, err := s.courses.List(ctx)
	if err != nil {
		return nil, err
	}

	names := map[string]string{}
	out := make([]*CourseResponse, len(courses))
	for i, c := range courses {
		name, ok := names[c.InstructorID()]
		if !ok {
			name = s.instructorName(ctx, c.InstructorID())
			names[c.InstructorID()] = name
		}
		out[i] = toCourseResponse(c, name)
	}
	return out, nil
}

func (s *ApplicationService) GetCourse(ctx context.Context, id string, caller identity.Identity) (*CourseResponse, error) {
	if err := caller.Require(identity.RoleInstructor, identity.RoleStudent); err != nil {
		return nil, err
	}
	c, err := s.courses.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toCourseResponse(c, s.instructorName(ctx, c.InstructorID())), nil
}

// CreateCourse 讲师 ID 始终取自调用方，且调用方必须是目录中的讲师
func (s *ApplicationService) CreateCourse(ctx context.Context, req CreateCourseRequest, caller identity.Identity) (*CourseResponse, error) {
	if err := caller.Require(identity.RoleInstructor); err != nil {
		return nil, err
	}
	instructor, err := s.requireInstructor(ctx, caller)
	if err != nil {
		return nil, err
	}

	c, err := course.NewCourse(course.PostOptions{
		Title:        req.Title,
		Description:  req.Description,
		InstructorID: caller.UserID,
		MediaURL:     req.MediaURL,
	})
	if err != nil {
		return nil, err
	}

	if err := s.uow.Execute(ctx, func(ctx context.Context) error {
		return s.courses.Add(ctx, c)
	}); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("Course created",
		zap.String("course_id", c.ID()),
		zap.String("instructor_id", c.InstructorID()))
	return toCourseResponse(c, instructor.Name), nil
}

// UpdateCourse replaces title, description and media URL. A version
// conflict on a course that no longer exists is reported as NotFound.
func (s *ApplicationService) UpdateCourse(ctx context.Context, id string, req UpdateCourseRequest, caller identity.Identity) error {
	if err := caller.Require(identity.RoleInstructor); err != nil {
		return err
	}
	if _, err := s.requireInstructor(ctx, caller); err != nil {
		return err
	}

	err := s.uow.Execute(ctx, func(ctx context.Context) error {
		c, err := s.courses.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := c.AssertOwnedBy(caller.UserID); err != nil {
			return err
		}
		if err := c.Update(course.UpdateOptions{
			Title:       req.Title,
			Description: req.Description,
			MediaURL:    req.MediaURL,
		}); err != nil {
			return err
		}
		return s.courses.Update(ctx, c)
	})
	if errors.Is(err, shared.ErrConflict) {
		ok, existsErr := s.courses.Exists(ctx, id)
		if existsErr != nil {
			return existsErr
		}
		if !ok {
			return course.NewCourseNotFoundError(id)
		}
	}
	return err
}

// CreateAssessment adds an assessment to a course owned by the caller.
func (s *ApplicationService) CreateAssessment(ctx context.Context, req CreateAssessmentRequest, caller identity.Identity) (*AssessmentResponse, error) {
	if err := caller.Require(identity.RoleInstructor); err != nil {
		return nil, err
	}

	var created *course.Assessment
	err := s.uow.Execute(ctx, func(ctx context.Context) error {
		c, err := s.courses.FindByID(ctx, req.CourseID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return course.NewInvalidAssessmentError("course_id", "course does not exist: "+req.CourseID)
			}
			return err
		}
		if err := c.AssertOwnedBy(caller.UserID); err != nil {
			return err
		}
		a, err := course.NewAssessment(c.ID(), req.Title, req.MaxScore)
		if err != nil {
			return err
		}
		if err := s.assessments.Add(ctx, a); err != nil {
			return err
		}
		created = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toAssessmentResponse(created), nil
}

func (s *ApplicationService) GetAssessment(ctx context.Context, id string, caller identity.Identity) (*AssessmentResponse, error) {
	if err := caller.Require(identity.RoleInstructor, identity.RoleStudent); err != nil {
		return nil, err
	}
	a, err := s.assessments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toAssessmentResponse(a), nil
}

// ============================================================================
// helpers
// ============================================================================

func (s *ApplicationService) requireInstructor(ctx context.Context, caller identity.Identity) (*user.User, error) {
	u, err := s.users.FindByID(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewForbiddenError("course", "only users with Instructor role can manage courses",
				map[string]string{"caller_id": caller.UserID})
		}
		return nil, err
	}
	if role, ok := identity.ParseRole(u.Role); !ok || role != identity.RoleInstructor {
		return nil, shared.NewForbiddenError("course", "only users with Instructor role can manage courses",
			map[string]string{"caller_id": caller.UserID, "directory_role": u.Role})
	}
	return u, nil
}

// instructorName is best effort; the directory may not know every instructor.
func (s *ApplicationService) instructorName(ctx context.Context, id string) string {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			logger.FromContext(ctx).Warn("Instructor lookup failed", zap.String("instructor_id", id), zap.Error(err))
		}
		return ""
	}
	return u.Name
}
