/*
Package mocks 内存版存储网关，用于协调器与 API 测试。

Store 用一把事务锁串行化所有访问：事务内的调用通过 ctx 标记跳过加锁，
事务失败时按快照整体恢复，行为上等价于可串行化隔离级别。
*/
package mocks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"edusync/domain/course"
	"edusync/domain/result"
	"edusync/domain/shared"
	"edusync/domain/user"
)

type inTxKey struct{}

type courseRow struct {
	dto course.ReconstructionDTO
}

type state struct {
	courses     map[string]courseRow
	assessments map[string]course.AssessmentDTO
	results     map[string]result.ReconstructionDTO
}

func (s state) clone() state {
	c := state{
		courses:     make(map[string]courseRow, len(s.courses)),
		assessments: make(map[string]course.AssessmentDTO, len(s.assessments)),
		results:     make(map[string]result.ReconstructionDTO, len(s.results)),
	}
	for k, v := range s.courses {
		c.courses[k] = v
	}
	for k, v := range s.assessments {
		c.assessments[k] = v
	}
	for k, v := range s.results {
		c.results[k] = v
	}
	return c
}

// Store in-memory relational store
type Store struct {
	txMu  sync.Mutex
	data  state
	users map[string]*user.User

	failures map[string]error

	writes    int
	commits   int
	rollbacks int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		data: state{
			courses:     map[string]courseRow{},
			assessments: map[string]course.AssessmentDTO{},
			results:     map[string]result.ReconstructionDTO{},
		},
		users:    map[string]*user.User{},
		failures: map[string]error{},
	}
}

// FailOn makes the next call of op return err. op names look like
// "results.RemoveByAssessmentIDs" or "courses.Remove".
func (s *Store) FailOn(op string, err error) {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.failures[op] = err
}

// Writes counts mutating calls, including ones later rolled back.
func (s *Store) Writes() int { return s.locked(func() int { return s.writes }) }

// Commits counts successful Execute calls.
func (s *Store) Commits() int { return s.locked(func() int { return s.commits }) }

// Rollbacks counts failed Execute calls.
func (s *Store) Rollbacks() int { return s.locked(func() int { return s.rollbacks }) }

// Counts returns committed row counts of courses, assessments and results.
func (s *Store) Counts() (courses, assessments, results int) {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return len(s.data.courses), len(s.data.assessments), len(s.data.results)
}

func (s *Store) locked(f func() int) int {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return f()
}

// run executes op under the store lock unless ctx already holds it.
func (s *Store) run(ctx context.Context, op string, write bool, f func() error) error {
	if ctx.Value(inTxKey{}) == nil {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	if err, ok := s.failures[op]; ok {
		delete(s.failures, op)
		return err
	}
	if write {
		s.writes++
	}
	return f()
}

// UnitOfWork snapshot/restore transaction over a Store
type UnitOfWork struct {
	store *Store
}

func NewUnitOfWork(store *Store) *UnitOfWork {
	return &UnitOfWork{store: store}
}

// Execute holds the store lock for the whole fn and restores the snapshot
// when fn fails or panics.
func (u *UnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(inTxKey{}) != nil {
		return fn(ctx)
	}

	s := u.store
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if ferr, ok := s.failures["uow.Begin"]; ok {
		delete(s.failures, "uow.Begin")
		return fmt.Errorf("failed to begin transaction: %w", ferr)
	}

	snapshot := s.data.clone()
	defer func() {
		if p := recover(); p != nil {
			s.data = snapshot
			s.rollbacks++
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, inTxKey{}, true)); err != nil {
		s.data = snapshot
		s.rollbacks++
		return err
	}
	if ferr, ok := s.failures["uow.Commit"]; ok {
		delete(s.failures, "uow.Commit")
		s.data = snapshot
		s.rollbacks++
		return fmt.Errorf("failed to commit transaction: %w", ferr)
	}
	s.commits++
	return nil
}

var _ shared.UnitOfWork = (*UnitOfWork)(nil)

// ============================================================================
// Seeding
// ============================================================================

// AddUser registers a user in the directory.
func (s *Store) AddUser(u *user.User) {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	cp := *u
	s.users[u.ID] = &cp
}

// Seed inserts a course with its assessments and results directly, bypassing
// the write counter.
func (s *Store) Seed(c *course.Course, results ...*result.Result) {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.data.courses[c.ID()] = courseRow{dto: courseDTO(c)}
	for _, a := range c.Assessments() {
		s.data.assessments[a.ID()] = assessmentDTO(a)
	}
	for _, r := range results {
		s.data.results[r.ID()] = resultDTO(r)
	}
}

func courseDTO(c *course.Course) course.ReconstructionDTO {
	return course.ReconstructionDTO{
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

func assessmentDTO(a *course.Assessment) course.AssessmentDTO {
	return course.AssessmentDTO{ID: a.ID(), CourseID: a.CourseID(), Title: a.Title(), MaxScore: a.MaxScore()}
}

func resultDTO(r *result.Result) result.ReconstructionDTO {
	return result.ReconstructionDTO{
		ID:           r.ID(),
		AssessmentID: r.AssessmentID(),
		UserID:       r.UserID(),
		Score:        r.Score(),
		AttemptDate:  r.AttemptDate(),
		Version:      r.Version(),
	}
}

func (s *Store) assessmentsOf(courseID string) []course.AssessmentDTO {
	var out []course.AssessmentDTO
	for _, a := range s.data.assessments {
		if a.CourseID == courseID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) buildCourse(id string) (*course.Course, bool) {
	row, ok := s.data.courses[id]
	if !ok {
		return nil, false
	}
	dto := row.dto
	dto.Assessments = s.assessmentsOf(id)
	return course.RebuildFromDTO(dto), true
}

// ErrInjected is a ready-made failure for FailOn.
var ErrInjected = errors.New("injected storage failure")

// errForeignKey mirrors a RESTRICT violation of the relational store.
func errForeignKey(table, id string) error {
	return fmt.Errorf("FOREIGN KEY constraint failed: %s %s still referenced", table, id)
}
