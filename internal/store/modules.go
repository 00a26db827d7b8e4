package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/alnah/go-textbook"
)

// ModuleInput carries the editable fields of a module. On update, empty
// Title and Type keep the stored values and nil Tags keeps the stored tags.
type ModuleInput struct {
	Title   string   `json:"title"`
	Type    string   `json:"type"`
	Content string   `json:"contentMarkdown"`
	Tags    []string `json:"tags"`
}

type ModuleSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Type      string    `json:"type"`
	UpdatedAt time.Time `json:"updatedAt"`
	Tags      []string  `json:"tags"`
}

type ModuleDetail struct {
	ModuleSummary
	CourseID        string `json:"courseId"`
	ContentMarkdown string `json:"contentMarkdown"`
	VersionNumber   int    `json:"versionNumber"`
	CreatedByID     string `json:"createdById"`
}

type VersionAuthor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type VersionEntry struct {
	ID              string        `json:"id"`
	VersionNumber   int           `json:"versionNumber"`
	CreatedAt       time.Time     `json:"createdAt"`
	CreatedBy       VersionAuthor `json:"createdBy"`
	ContentMarkdown string        `json:"contentMarkdown"`
}

// TypeAll disables the type filter of ListModules.
const TypeAll = "all"

// CreateModule adds a module with its first version.
func (s *Store) CreateModule(ctx context.Context, courseID, userID string, in ModuleInput) (*ModuleDetail, error) {
	if _, err := s.Membership(ctx, courseID, userID); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	content := strings.TrimSpace(in.Content)
	if title == "" || content == "" {
		return nil, fmt.Errorf("%w: title and content are required", ErrInvalidInput)
	}
	typ, err := moduleType(in.Type, string(textbook.TypeNotes))
	if err != nil {
		return nil, err
	}

	m := &Module{CourseID: courseID, Title: title, Type: typ, CreatedByID: userID}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		v := &ModuleVersion{ModuleID: m.ID, VersionNumber: 1, ContentMarkdown: content, CreatedByID: userID}
		if err := tx.Create(v).Error; err != nil {
			return err
		}
		if err := tx.Model(m).UpdateColumn("current_version_id", v.ID).Error; err != nil {
			return err
		}
		return replaceTags(tx, m.ID, in.Tags)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("module created", "moduleID", m.ID, "courseID", courseID)
	return s.moduleDetail(ctx, m.ID)
}

// UpdateModule stores content as a new version and bumps the version number.
func (s *Store) UpdateModule(ctx context.Context, moduleID, userID string, in ModuleInput) (*ModuleDetail, error) {
	m, err := s.memberModule(ctx, moduleID, userID)
	if err != nil {
		return nil, err
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}
	typ, err := moduleType(in.Type, m.Type)
	if err != nil {
		return nil, err
	}
	if title := strings.TrimSpace(in.Title); title != "" {
		m.Title = title
	}
	m.Type = typ

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := addVersion(tx, m, content, userID); err != nil {
			return err
		}
		if in.Tags == nil {
			return nil
		}
		return replaceTags(tx, m.ID, in.Tags)
	})
	if err != nil {
		return nil, err
	}
	return s.moduleDetail(ctx, m.ID)
}

// RestoreVersion makes a copy of an old version the newest one.
func (s *Store) RestoreVersion(ctx context.Context, moduleID, versionID, userID string) (*ModuleDetail, error) {
	m, err := s.memberModule(ctx, moduleID, userID)
	if err != nil {
		return nil, err
	}
	var old ModuleVersion
	err = s.db.WithContext(ctx).First(&old, "id = ? AND module_id = ?", versionID, moduleID).Error
	if err != nil {
		return nil, notFound(err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return addVersion(tx, m, old.ContentMarkdown, userID)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("module version restored", "moduleID", moduleID, "fromVersion", old.VersionNumber)
	return s.moduleDetail(ctx, m.ID)
}

// DeleteModule removes a module with its history. Only course teachers and
// the module's author may delete.
func (s *Store) DeleteModule(ctx context.Context, moduleID, userID string) error {
	var m Module
	if err := s.db.WithContext(ctx).First(&m, "id = ?", moduleID).Error; err != nil {
		return notFound(err)
	}
	role, err := s.Membership(ctx, m.CourseID, userID)
	if err != nil {
		return err
	}
	if role != RoleTeacher && m.CreatedByID != userID {
		return ErrForbidden
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("module_id = ?", moduleID).Delete(&ModuleTag{}).Error; err != nil {
			return err
		}
		if err := tx.Where("module_id = ?", moduleID).Delete(&ModuleVersion{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Module{}, "id = ?", moduleID).Error
	})
	if err != nil {
		return err
	}
	s.log.Info("module deleted", "moduleID", moduleID, "userID", userID)
	return nil
}

// GetModule returns the module with its current content.
func (s *Store) GetModule(ctx context.Context, moduleID, userID string) (*ModuleDetail, error) {
	if _, err := s.memberModule(ctx, moduleID, userID); err != nil {
		return nil, err
	}
	return s.moduleDetail(ctx, moduleID)
}

// ListModules returns the course's modules, most recently updated first.
// search matches the title or any tag, case-insensitively. typ filters by
// module type unless it is empty or TypeAll.
func (s *Store) ListModules(ctx context.Context, courseID, userID, search, typ string) ([]ModuleSummary, error) {
	if _, err := s.Membership(ctx, courseID, userID); err != nil {
		return nil, err
	}

	q := s.db.WithContext(ctx).Where("course_id = ?", courseID)
	if typ = strings.ToLower(strings.TrimSpace(typ)); typ != "" && typ != TypeAll {
		q = q.Where("type = ?", typ)
	}
	if search = strings.ToLower(strings.TrimSpace(search)); search != "" {
		like := "%" + search + "%"
		tagged := s.db.Model(&ModuleTag{}).Select("module_id").Where("LOWER(value) LIKE ?", like)
		q = q.Where(s.db.Where("LOWER(title) LIKE ?", like).Or("id IN (?)", tagged))
	}

	var mods []Module
	if err := q.Order("updated_at DESC").Find(&mods).Error; err != nil {
		return nil, err
	}
	tags, err := s.tagsFor(ctx, moduleIDs(mods))
	if err != nil {
		return nil, err
	}

	out := make([]ModuleSummary, len(mods))
	for i, m := range mods {
		out[i] = summary(m, tags[m.ID])
	}
	return out, nil
}

// ListVersions returns the module's history, newest first.
func (s *Store) ListVersions(ctx context.Context, moduleID, userID string) ([]VersionEntry, error) {
	if _, err := s.memberModule(ctx, moduleID, userID); err != nil {
		return nil, err
	}

	var versions []ModuleVersion
	err := s.db.WithContext(ctx).
		Where("module_id = ?", moduleID).
		Order("version_number DESC").
		Find(&versions).Error
	if err != nil {
		return nil, err
	}

	authorIDs := make([]string, 0, len(versions))
	for _, v := range versions {
		authorIDs = append(authorIDs, v.CreatedByID)
	}
	var users []User
	if err := s.db.WithContext(ctx).Where("id IN ?", authorIDs).Find(&users).Error; err != nil {
		return nil, err
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}

	out := make([]VersionEntry, len(versions))
	for i, v := range versions {
		out[i] = VersionEntry{
			ID:              v.ID,
			VersionNumber:   v.VersionNumber,
			CreatedAt:       v.CreatedAt,
			CreatedBy:       VersionAuthor{ID: v.CreatedByID, Name: names[v.CreatedByID]},
			ContentMarkdown: v.ContentMarkdown,
		}
	}
	return out, nil
}

// CourseModules loads every module of a course with its current body, most
// recently updated first, ready for textbook.ComputeOrder.
func (s *Store) CourseModules(ctx context.Context, courseID string) ([]textbook.Module, error) {
	var mods []Module
	err := s.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("updated_at DESC").
		Find(&mods).Error
	if err != nil {
		return nil, err
	}

	versionIDs := make([]string, 0, len(mods))
	for _, m := range mods {
		if m.CurrentVersionID != nil {
			versionIDs = append(versionIDs, *m.CurrentVersionID)
		}
	}
	bodies := make(map[string]string, len(versionIDs))
	if len(versionIDs) > 0 {
		var versions []ModuleVersion
		if err := s.db.WithContext(ctx).Where("id IN ?", versionIDs).Find(&versions).Error; err != nil {
			return nil, err
		}
		for _, v := range versions {
			bodies[v.ID] = v.ContentMarkdown
		}
	}

	out := make([]textbook.Module, len(mods))
	for i, m := range mods {
		out[i] = textbook.Module{ID: m.ID, Title: m.Title, Type: textbook.ModuleType(m.Type)}
		if m.CurrentVersionID != nil {
			if body, ok := bodies[*m.CurrentVersionID]; ok {
				out[i].Body = &body
			}
		}
	}
	return out, nil
}

// memberModule loads a module and checks the user belongs to its course.
func (s *Store) memberModule(ctx context.Context, moduleID, userID string) (*Module, error) {
	var m Module
	if err := s.db.WithContext(ctx).First(&m, "id = ?", moduleID).Error; err != nil {
		return nil, notFound(err)
	}
	if _, err := s.Membership(ctx, m.CourseID, userID); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) moduleDetail(ctx context.Context, moduleID string) (*ModuleDetail, error) {
	var m Module
	if err := s.db.WithContext(ctx).First(&m, "id = ?", moduleID).Error; err != nil {
		return nil, notFound(err)
	}
	tags, err := s.tagsFor(ctx, []string{m.ID})
	if err != nil {
		return nil, err
	}
	d := &ModuleDetail{ModuleSummary: summary(m, tags[m.ID]), CourseID: m.CourseID, CreatedByID: m.CreatedByID}
	if m.CurrentVersionID != nil {
		var v ModuleVersion
		err := s.db.WithContext(ctx).First(&v, "id = ?", *m.CurrentVersionID).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		d.ContentMarkdown = v.ContentMarkdown
		d.VersionNumber = v.VersionNumber
	}
	return d, nil
}

func (s *Store) tagsFor(ctx context.Context, ids []string) (map[string][]string, error) {
	out := make(map[string][]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var tags []ModuleTag
	err := s.db.WithContext(ctx).Where("module_id IN ?", ids).Order("value").Find(&tags).Error
	if err != nil {
		return nil, err
	}
	for _, t := range tags {
		out[t.ModuleID] = append(out[t.ModuleID], t.Value)
	}
	return out, nil
}

// addVersion appends a version after the highest existing number, points the
// module at it and saves the module, which bumps updated_at.
func addVersion(tx *gorm.DB, m *Module, content, userID string) error {
	var latest int
	err := tx.Model(&ModuleVersion{}).
		Where("module_id = ?", m.ID).
		Select("COALESCE(MAX(version_number), 0)").
		Scan(&latest).Error
	if err != nil {
		return err
	}
	v := &ModuleVersion{ModuleID: m.ID, VersionNumber: latest + 1, ContentMarkdown: content, CreatedByID: userID}
	if err := tx.Create(v).Error; err != nil {
		return err
	}
	m.CurrentVersionID = &v.ID
	return tx.Save(m).Error
}

func replaceTags(tx *gorm.DB, moduleID string, values []string) error {
	if err := tx.Where("module_id = ?", moduleID).Delete(&ModuleTag{}).Error; err != nil {
		return err
	}
	tags := NormalizeTags(values)
	if len(tags) == 0 {
		return nil
	}
	rows := make([]ModuleTag, len(tags))
	for i, t := range tags {
		rows[i] = ModuleTag{ModuleID: moduleID, Value: t}
	}
	return tx.Create(&rows).Error
}

// NormalizeTags trims tags and drops empties and duplicates, keeping order.
func NormalizeTags(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// moduleType validates raw, falling back to def when raw is blank.
func moduleType(raw, def string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return def, nil
	}
	t, err := textbook.ParseModuleType(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return string(t), nil
}

func summary(m Module, tags []string) ModuleSummary {
	if tags == nil {
		tags = []string{}
	}
	return ModuleSummary{ID: m.ID, Title: m.Title, Type: m.Type, UpdatedAt: m.UpdatedAt, Tags: tags}
}

func moduleIDs(mods []Module) []string {
	ids := make([]string, len(mods))
	for i, m := range mods {
		ids[i] = m.ID
	}
	return ids
}
