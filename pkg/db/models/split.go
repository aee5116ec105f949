package models

import (
	"time"

	"github.com/google/uuid"
)

// Split is the saved allocation of one receipt's items among participants.
// A receipt has at most one split; saving again replaces the old rows.
type Split struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ReceiptID    uuid.UUID          `gorm:"column:receipt_id;type:uuid;not null;uniqueIndex"`
	Participants []SplitParticipant `gorm:"foreignKey:SplitID"`
	Assignments  []SplitAssignment  `gorm:"foreignKey:SplitID"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// SplitParticipant is one person on a saved split. The id is assigned by the
// server at save time; clients reference participants positionally in the
// save payload and adopt these ids afterwards.
type SplitParticipant struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SplitID      uuid.UUID `gorm:"column:split_id;type:uuid;not null;index"`
	Name         string    `gorm:"column:name;not null"`
	ColorToken   string    `gorm:"column:color_token;not null"`
	IsSelf       bool      `gorm:"column:is_self;not null;default:false"`
	DisplayOrder int       `gorm:"column:display_order;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

// SplitAssignment records that a participant shares the item identified by
// ItemKey (a receipt item id, or "local-item-N" for items without one).
type SplitAssignment struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SplitID       uuid.UUID `gorm:"column:split_id;type:uuid;not null;index"`
	ItemKey       string    `gorm:"column:item_key;not null"`
	ParticipantID uuid.UUID `gorm:"column:participant_id;type:uuid;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}
