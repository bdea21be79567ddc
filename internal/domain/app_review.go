package domain

import (
	"time"

	"github.com/google/uuid"
)

// Rating bounds for user reviews.
const (
	RatingMin = 1
	RatingMax = 5
)

type AppReview struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	AppID     string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_review_app_user" json:"app_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_review_app_user" json:"user_id"`
	Rating    int       `gorm:"type:smallint;not null" json:"rating"`
	Title     string    `gorm:"type:varchar(200)" json:"title"`
	Comment   string    `gorm:"type:text" json:"comment"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (AppReview) TableName() string {
	return "app_reviews"
}
