package models

import (
	"time"

	"gorm.io/datatypes"
)

// SessionRecord is the database row backing one persisted delivery
// session. State holds the binary session stream; Metadata carries
// searchable delivery facts so monitoring queries never have to decode
// the blob.
type SessionRecord struct {
	SessionID      string         `gorm:"primaryKey;size:64" json:"session_id"`
	TestIdentifier string         `gorm:"size:255;not null;index" json:"test_identifier"`
	CandidateID    string         `gorm:"size:255;index" json:"candidate_id"`
	State          []byte         `gorm:"type:bytea;not null" json:"-"`
	Metadata       datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// TableName overrides the default table name
func (SessionRecord) TableName() string {
	return "delivery_sessions"
}
