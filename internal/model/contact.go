package model

import "time"

// ContactSource tells which Freshservice stream a contact came from. Agent and
// requester ids are separate id spaces, so deletion is scoped per source.
type ContactSource string

const (
	SourceAgent     ContactSource = "agent"
	SourceRequester ContactSource = "requester"
	SourceManual    ContactSource = "manual"
)

type ContactPerson struct {
	ID         string        `gorm:"primaryKey;size:36" json:"id"`
	ExternalID *string       `gorm:"size:64;uniqueIndex:idx_contact_source_external" json:"external_id"`
	Source     ContactSource `gorm:"size:16;not null;default:manual;uniqueIndex:idx_contact_source_external" json:"source"`
	CustomerID string        `gorm:"size:36;not null;index:idx_contact_customer" json:"customer_id"`
	Customer   *Customer     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Name       string        `gorm:"size:255;not null" json:"name"`
	Email      string        `gorm:"size:255" json:"email"`
	Phone      string        `gorm:"size:64" json:"phone"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}
