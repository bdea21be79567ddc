package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	ReviewDecisionApprove = "approve"
	ReviewDecisionReject  = "reject"
)

// ReviewRecord is the append-only audit trail of review decisions. Rows
// are never mutated or deleted.
type ReviewRecord struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	VersionID  uuid.UUID `gorm:"type:uuid;index;not null" json:"version_id"`
	ReviewerID uuid.UUID `gorm:"type:uuid;not null" json:"reviewer_id"`
	Decision   string    `gorm:"type:varchar(20);not null" json:"decision"`
	Reason     string    `gorm:"type:text" json:"reason"`
	CreatedAt  time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (ReviewRecord) TableName() string {
	return "review_records"
}
