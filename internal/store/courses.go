package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CourseSummary is a course as seen by one member.
type CourseSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
	Role        string `json:"role"`
	ModuleCount int64  `json:"moduleCount"`
}

// NormalizeCode trims and upper-cases a join code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CreateCourse creates a course and makes its creator a teacher.
func (s *Store) CreateCourse(ctx context.Context, userID, name, code, description string) (*CourseSummary, error) {
	name = strings.TrimSpace(name)
	code = NormalizeCode(code)
	if name == "" || code == "" {
		return nil, fmt.Errorf("%w: name and code are required", ErrInvalidInput)
	}

	c := &Course{Name: name, Code: code, Description: strings.TrimSpace(description), CreatedByID: userID}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&Course{}).Where("code = ?", code).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrCourseCodeUsed
		}
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		return tx.Create(&CourseMember{CourseID: c.ID, UserID: userID, Role: RoleTeacher}).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		err = ErrCourseCodeUsed
	}
	if err != nil {
		return nil, err
	}
	s.log.Info("course created", "courseID", c.ID, "userID", userID)
	return &CourseSummary{ID: c.ID, Name: c.Name, Code: c.Code, Description: c.Description, Role: RoleTeacher}, nil
}

// JoinCourse adds the user to the course with the given code as a student.
// An existing membership keeps its role.
func (s *Store) JoinCourse(ctx context.Context, userID, code string) (*CourseSummary, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, fmt.Errorf("%w: code is required", ErrInvalidInput)
	}

	var c Course
	if err := s.db.WithContext(ctx).First(&c, "code = ?", code).Error; err != nil {
		return nil, notFound(err)
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&CourseMember{CourseID: c.ID, UserID: userID, Role: RoleStudent}).Error
	if err != nil {
		return nil, err
	}

	role, err := s.Membership(ctx, c.ID, userID)
	if err != nil {
		return nil, err
	}
	count, err := s.moduleCount(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	return &CourseSummary{ID: c.ID, Name: c.Name, Code: c.Code, Description: c.Description, Role: role, ModuleCount: count}, nil
}

// ListCourses returns every course the user belongs to, newest first.
func (s *Store) ListCourses(ctx context.Context, userID string) ([]CourseSummary, error) {
	var rows []CourseSummary
	err := s.db.WithContext(ctx).
		Table("courses").
		Select("courses.id, courses.name, courses.code, courses.description, course_members.role").
		Joins("JOIN course_members ON course_members.course_id = courses.id").
		Where("course_members.user_id = ?", userID).
		Order("courses.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []CourseSummary{}, nil
	}

	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	var counts []struct {
		CourseID string
		N        int64
	}
	err = s.db.WithContext(ctx).
		Model(&Module{}).
		Select("course_id, COUNT(*) AS n").
		Where("course_id IN ?", ids).
		Group("course_id").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	byCourse := make(map[string]int64, len(counts))
	for _, c := range counts {
		byCourse[c.CourseID] = c.N
	}
	for i := range rows {
		rows[i].ModuleCount = byCourse[rows[i].ID]
	}
	return rows, nil
}

// GetCourse returns the course with the caller's role in it.
func (s *Store) GetCourse(ctx context.Context, courseID, userID string) (*CourseSummary, error) {
	role, err := s.Membership(ctx, courseID, userID)
	if err != nil {
		return nil, err
	}
	var c Course
	if err := s.db.WithContext(ctx).First(&c, "id = ?", courseID).Error; err != nil {
		return nil, notFound(err)
	}
	count, err := s.moduleCount(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	return &CourseSummary{ID: c.ID, Name: c.Name, Code: c.Code, Description: c.Description, Role: role, ModuleCount: count}, nil
}

// Membership returns the user's role in the course, or ErrNotMember.
func (s *Store) Membership(ctx context.Context, courseID, userID string) (string, error) {
	var m CourseMember
	err := s.db.WithContext(ctx).First(&m, "course_id = ? AND user_id = ?", courseID, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotMember
	}
	if err != nil {
		return "", err
	}
	return m.Role, nil
}

func (s *Store) moduleCount(ctx context.Context, courseID string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&Module{}).Where("course_id = ?", courseID).Count(&n).Error
	return n, err
}
