package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Application publication status. Derived from the newest published
// version, maintained inside the same transaction as review decisions.
const (
	AppStatusDraft         = "draft"
	AppStatusPendingReview = "pending_review"
	AppStatusPublished     = "published"
	AppStatusSuspended     = "suspended"
	AppStatusRetired       = "retired"
)

type App struct {
	ID              string                      `gorm:"type:varchar(100);primaryKey" json:"id"`
	Name            string                      `gorm:"type:varchar(255);not null" json:"name"`
	Description     string                      `gorm:"type:text" json:"description"`
	LongDescription string                      `gorm:"type:text" json:"long_description"`
	AuthorID        uuid.UUID                   `gorm:"type:uuid;index;not null" json:"author_id"`
	Category        string                      `gorm:"type:varchar(50);index" json:"category"`
	Tags            datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"tags"`
	IconURL         string                      `gorm:"type:varchar(500)" json:"icon_url"`
	Manifest        datatypes.JSON              `gorm:"type:jsonb" json:"manifest"`
	Status          string                      `gorm:"type:varchar(20);index;not null;default:draft" json:"status"`

	// LatestVersion is the version pointer: the identifier of the most
	// recently approved version. Advances only monotonically.
	LatestVersion string `gorm:"type:varchar(20)" json:"latest_version"`

	InstallCount int64 `gorm:"not null;default:0" json:"install_count"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (App) TableName() string {
	return "apps"
}

// Installable reports whether the application may accept new installs.
func (a *App) Installable() bool {
	return a != nil && a.Status == AppStatusPublished
}
