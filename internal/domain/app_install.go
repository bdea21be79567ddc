package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Install lifecycle. A user holds at most one active install per app;
// installing a new version supersedes the prior record instead of
// deleting it.
const (
	InstallStatusActive      = "active"
	InstallStatusSuperseded  = "superseded"
	InstallStatusUninstalled = "uninstalled"
)

type AppInstall struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;index:idx_install_user_app;not null" json:"user_id"`
	AppID     string    `gorm:"type:varchar(100);index:idx_install_user_app;not null" json:"app_id"`
	VersionID uuid.UUID `gorm:"type:uuid;index;not null" json:"version_id"`

	// ConsentedPermissions is fixed at install time; consent changes are
	// expressed by superseding the record, never by mutating it.
	ConsentedPermissions datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"consented_permissions"`

	Status      string    `gorm:"type:varchar(20);index;not null;default:active" json:"status"`
	InstalledAt time.Time `gorm:"not null;default:now()" json:"installed_at"`
	CreatedAt   time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (AppInstall) TableName() string {
	return "app_installs"
}

// Consented returns the consented permission set in normalized form.
func (i *AppInstall) Consented() PermissionSet {
	return NormalizePermissions(i.ConsentedPermissions)
}
