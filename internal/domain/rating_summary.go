package domain

import "time"

// RatingSummary is a derived index over app_reviews: always recomputable
// from the surviving review set, maintained incrementally on the hot path.
type RatingSummary struct {
	AppID       string    `gorm:"type:varchar(100);primaryKey" json:"app_id"`
	ReviewCount int64     `gorm:"not null;default:0" json:"review_count"`
	RatingSum   int64     `gorm:"not null;default:0" json:"rating_sum"`
	UpdatedAt   time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (RatingSummary) TableName() string {
	return "rating_summaries"
}

// Mean returns the average rating, or 0 when no ratings exist.
func (s *RatingSummary) Mean() float64 {
	if s == nil || s.ReviewCount == 0 {
		return 0
	}
	return float64(s.RatingSum) / float64(s.ReviewCount)
}

// HasRatings distinguishes "mean 0 because empty" from a real aggregate.
func (s *RatingSummary) HasRatings() bool {
	return s != nil && s.ReviewCount > 0
}
