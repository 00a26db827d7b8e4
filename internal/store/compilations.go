package store

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/datatypes"

	"github.com/alnah/go-textbook"
)

// OrderItem is one requested order line. A nil Include means true.
type OrderItem struct {
	ModuleID string `json:"moduleId"`
	Include  *bool  `json:"include,omitempty"`
}

// CompilationInput creates a compilation, or updates one when ID is set.
type CompilationInput struct {
	ID          string      `json:"id,omitempty"`
	CourseID    string      `json:"courseId"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	ModuleOrder []OrderItem `json:"moduleOrder"`
}

// SaveCompilation validates and stores a compilation.
func (s *Store) SaveCompilation(ctx context.Context, userID string, in CompilationInput) (*Compilation, error) {
	if strings.TrimSpace(in.CourseID) == "" {
		return nil, fmt.Errorf("%w: courseId is required", ErrInvalidInput)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if _, err := s.Membership(ctx, in.CourseID, userID); err != nil {
		return nil, err
	}

	order := make([]textbook.OrderEntry, len(in.ModuleOrder))
	for i, item := range in.ModuleOrder {
		order[i] = textbook.OrderEntry{ModuleID: item.ModuleID, Include: item.Include == nil || *item.Include}
	}
	if err := s.checkModules(ctx, in.CourseID, order); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	if in.ID == "" {
		c := &Compilation{
			CourseID:    in.CourseID,
			Name:        name,
			Description: strings.TrimSpace(in.Description),
			ModuleOrder: datatypes.JSONSlice[textbook.OrderEntry](order),
			CreatedByID: userID,
		}
		if err := db.Create(c).Error; err != nil {
			return nil, err
		}
		s.log.Info("compilation created", "compilationID", c.ID, "courseID", c.CourseID)
		return c, nil
	}

	var c Compilation
	if err := db.First(&c, "id = ? AND course_id = ?", in.ID, in.CourseID).Error; err != nil {
		return nil, notFound(err)
	}
	c.Name = name
	c.Description = strings.TrimSpace(in.Description)
	c.ModuleOrder = datatypes.JSONSlice[textbook.OrderEntry](order)
	if err := db.Save(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCompilations returns the course's compilations, newest first.
func (s *Store) ListCompilations(ctx context.Context, courseID, userID string) ([]Compilation, error) {
	if _, err := s.Membership(ctx, courseID, userID); err != nil {
		return nil, err
	}
	var out []Compilation
	err := s.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetCompilation returns a compilation the user can see.
func (s *Store) GetCompilation(ctx context.Context, id, userID string) (*Compilation, error) {
	var c Compilation
	if err := s.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	if _, err := s.Membership(ctx, c.CourseID, userID); err != nil {
		return nil, err
	}
	return &c, nil
}

// GetCourseName returns just the course name, for title blocks.
func (s *Store) GetCourseName(ctx context.Context, courseID string) (string, error) {
	var c Course
	if err := s.db.WithContext(ctx).Select("name").First(&c, "id = ?", courseID).Error; err != nil {
		return "", notFound(err)
	}
	return c.Name, nil
}

// checkModules fails unless every referenced module belongs to the course.
// Repeated ids are checked once.
func (s *Store) checkModules(ctx context.Context, courseID string, order []textbook.OrderEntry) error {
	seen := make(map[string]bool, len(order))
	ids := make([]string, 0, len(order))
	for _, e := range order {
		if e.ModuleID == "" {
			return ErrInvalidModules
		}
		if !seen[e.ModuleID] {
			seen[e.ModuleID] = true
			ids = append(ids, e.ModuleID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	var n int64
	err := s.db.WithContext(ctx).
		Model(&Module{}).
		Where("course_id = ? AND id IN ?", courseID, ids).
		Count(&n).Error
	if err != nil {
		return err
	}
	if int(n) != len(ids) {
		return ErrInvalidModules
	}
	return nil
}
