package models

import (
	"time"
)

// Case status constants
const (
	CaseStatusOpen     = "open"
	CaseStatusClosed   = "closed"
	CaseStatusPaused   = "paused"
	CaseStatusArchived = "archived"
)

// AllowedCaseStatuses is the closed set of valid case lifecycle states.
var AllowedCaseStatuses = map[string]bool{
	CaseStatusOpen:     true,
	CaseStatusClosed:   true,
	CaseStatusPaused:   true,
	CaseStatusArchived: true,
}

// Case is one investigation. Deleting a case cascades to its subjects and
// artifacts through the foreign keys declared on those models.
type Case struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Title       string  `gorm:"not null" json:"title"`
	Description *string `gorm:"type:text" json:"description,omitempty"`
	AssignedTo  *string `json:"assignedTo,omitempty"`
	Status      string  `gorm:"not null;default:open;index" json:"status"`

	Subjects  []Subject  `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE" json:"subjects,omitempty"`
	Artifacts []Artifact `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE" json:"artifacts,omitempty"`
}

// Subject is a named subject-of-investigation inside a case.
type Subject struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	CaseID   uint    `gorm:"not null;index" json:"caseId"`
	Name     string  `gorm:"not null" json:"name"`
	Platform *string `json:"platform,omitempty"`
	Handle   *string `json:"handle,omitempty"`
	URL      *string `json:"url,omitempty"`
	Notes    *string `gorm:"type:text" json:"notes,omitempty"`
}
