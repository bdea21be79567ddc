package domain

import (
	"time"

	"github.com/google/uuid"
)

type AppScreenshot struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	AppID     string    `gorm:"type:varchar(100);index;not null" json:"app_id"`
	URL       string    `gorm:"type:varchar(500);not null" json:"url"`
	SortOrder int       `gorm:"type:smallint;not null;default:0" json:"sort_order"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (AppScreenshot) TableName() string {
	return "app_screenshots"
}
