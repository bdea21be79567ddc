package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Review status of a submitted version. Approved and rejected are
// terminal; re-review requires a new version.
const (
	VersionStatusPendingReview = "pending_review"
	VersionStatusApproved      = "approved"
	VersionStatusRejected      = "rejected"
)

type AppVersion struct {
	ID      uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	AppID   string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_app_version" json:"app_id"`
	Version string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_app_version" json:"version"`

	// ArtifactRef and DeclaredPermissions are immutable once created; no
	// update path exists for them anywhere in the repo.
	ArtifactRef         string                      `gorm:"type:varchar(500);not null" json:"artifact_ref"`
	Changelog           string                      `gorm:"type:text" json:"changelog"`
	DeclaredPermissions datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"declared_permissions"`

	Status string `gorm:"type:varchar(20);index;not null;default:pending_review" json:"status"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (AppVersion) TableName() string {
	return "app_versions"
}

// Declared returns the declared permission set in normalized form.
func (v *AppVersion) Declared() PermissionSet {
	return NormalizePermissions(v.DeclaredPermissions)
}

// Terminal reports whether the version's review status accepts no further
// transitions.
func (v *AppVersion) Terminal() bool {
	return v.Status == VersionStatusApproved || v.Status == VersionStatusRejected
}
