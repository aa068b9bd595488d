package model

import "time"

// Customer mirrors a Freshservice department. Rows without ExternalID were
// created through the UI and are never touched by the sync.
type Customer struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	ExternalID     *string   `gorm:"size:64;uniqueIndex:idx_customer_external" json:"external_id"`
	Name           string    `gorm:"size:255;not null" json:"name"`
	Address        string    `gorm:"size:255" json:"address"`
	City           string    `gorm:"size:128" json:"city"`
	PostalCode     string    `gorm:"size:32" json:"postal_code"`
	Country        string    `gorm:"size:128" json:"country"`
	Email          string    `gorm:"size:255" json:"email"`
	Phone          string    `gorm:"size:64" json:"phone"`
	Website        string    `gorm:"size:255" json:"website"`
	Category       string    `gorm:"size:128" json:"category"`
	BillingCode    string    `gorm:"size:128" json:"billing_code"`
	ServiceManager string    `gorm:"size:255" json:"service_manager"`
	SLA            bool      `gorm:"not null;default:false" json:"sla"`
	Abbreviation   string    `gorm:"size:64;not null;uniqueIndex:idx_customer_abbreviation" json:"abbreviation"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
