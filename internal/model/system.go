package model

import (
	"time"

	"gorm.io/datatypes"
)

// System mirrors a Freshservice server asset owned by a Customer.
type System struct {
	ID                    string                      `gorm:"primaryKey;size:36" json:"id"`
	ExternalID            *string                     `gorm:"size:64;uniqueIndex:idx_system_external" json:"external_id"`
	CustomerID            string                      `gorm:"size:36;not null;index:idx_system_customer" json:"customer_id"`
	Customer              *Customer                   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Hostname              string                      `gorm:"size:255;not null" json:"hostname"`
	Description           string                      `gorm:"type:text" json:"description"`
	IPAddress             string                      `gorm:"size:64" json:"ip_address"`
	HardwareType          HardwareType                `gorm:"size:16;not null" json:"hardware_type"`
	OperatingSystem       OperatingSystem             `gorm:"size:32;not null" json:"operating_system"`
	ServerApplicationType ServerApplicationType       `gorm:"size:16;not null" json:"server_application_type"`
	MaintenanceInterval   MaintenanceInterval         `gorm:"size:16;not null" json:"maintenance_interval"`
	InstalledSoftware     datatypes.JSONSlice[string] `json:"installed_software"`
	CreatedAt             time.Time                   `json:"created_at"`
	UpdatedAt             time.Time                   `json:"updated_at"`
}
