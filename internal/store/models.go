package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/alnah/go-textbook"
)

// Course roles.
const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// IDs are UUID strings generated in Go so sqlite and postgres behave alike.
func newID() string {
	return uuid.NewString()
}

type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null;size:64" json:"username"`
	Name         string    `gorm:"not null;size:100" json:"name"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = newID()
	}
	return nil
}

type Course struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Name        string    `gorm:"not null;size:200" json:"name"`
	Code        string    `gorm:"uniqueIndex;not null;size:32" json:"code"`
	Description string    `json:"description,omitempty"`
	CreatedByID string    `gorm:"size:36;index" json:"createdById"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Course) TableName() string { return "courses" }

func (c *Course) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = newID()
	}
	return nil
}

type CourseMember struct {
	CourseID  string    `gorm:"primaryKey;size:36"`
	UserID    string    `gorm:"primaryKey;size:36;index"`
	Role      string    `gorm:"not null;size:16"`
	CreatedAt time.Time
}

func (CourseMember) TableName() string { return "course_members" }

type Module struct {
	ID               string    `gorm:"primaryKey;size:36" json:"id"`
	CourseID         string    `gorm:"size:36;index;not null" json:"courseId"`
	Title            string    `gorm:"not null;size:200" json:"title"`
	Type             string    `gorm:"not null;size:32" json:"type"`
	CreatedByID      string    `gorm:"size:36" json:"createdById"`
	CurrentVersionID *string   `gorm:"size:36" json:"-"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `gorm:"index" json:"updatedAt"`
}

func (Module) TableName() string { return "modules" }

func (m *Module) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = newID()
	}
	return nil
}

type ModuleVersion struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	ModuleID        string    `gorm:"size:36;not null;uniqueIndex:idx_module_version" json:"moduleId"`
	VersionNumber   int       `gorm:"not null;uniqueIndex:idx_module_version" json:"versionNumber"`
	ContentMarkdown string    `gorm:"type:text;not null" json:"contentMarkdown"`
	CreatedByID     string    `gorm:"size:36" json:"createdById"`
	CreatedAt       time.Time `json:"createdAt"`
}

func (ModuleVersion) TableName() string { return "module_versions" }

func (v *ModuleVersion) BeforeCreate(*gorm.DB) error {
	if v.ID == "" {
		v.ID = newID()
	}
	return nil
}

type ModuleTag struct {
	ModuleID string `gorm:"primaryKey;size:36"`
	Value    string `gorm:"primaryKey;size:64"`
}

func (ModuleTag) TableName() string { return "module_tags" }

// Compilation is a saved, named module order for a course.
type Compilation struct {
	ID          string                                   `gorm:"primaryKey;size:36" json:"id"`
	CourseID    string                                   `gorm:"size:36;index;not null" json:"courseId"`
	Name        string                                   `gorm:"not null;size:200" json:"name"`
	Description string                                   `json:"description,omitempty"`
	ModuleOrder datatypes.JSONSlice[textbook.OrderEntry] `json:"moduleOrder"`
	CreatedByID string                                   `gorm:"size:36" json:"createdById"`
	CreatedAt   time.Time                                `json:"createdAt"`
	UpdatedAt   time.Time                                `json:"updatedAt"`
}

func (Compilation) TableName() string { return "compilations" }

func (c *Compilation) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = newID()
	}
	return nil
}

// allModels is migrated in this order.
var allModels = []any{
	&User{}, &Course{}, &CourseMember{}, &Module{}, &ModuleVersion{}, &ModuleTag{}, &Compilation{},
}
