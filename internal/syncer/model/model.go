package model

import (
	"context"
	"time"
)

// Department is a Freshservice department, the source of a local Customer.
type Department struct {
	ID             string
	Name           string
	UpdatedAt      time.Time
	Address        string
	City           string
	PostalCode     string
	Country        string
	Email          string
	Phone          string
	Website        string
	ShortCode      string
	Category       string
	BillingCode    string
	ServiceManager string
	SLA            bool
}

type Agent struct {
	ID            string
	FirstName     string
	LastName      string
	Email         string
	WorkPhone     string
	MobilePhone   string
	DepartmentIDs []string
	Active        bool
	UpdatedAt     time.Time
}

type Requester struct {
	ID              string
	FirstName       string
	LastName        string
	Email           string
	SecondaryEmails []string
	WorkPhone       string
	MobilePhone     string
	DepartmentIDs   []string
	DepartmentNames []string
	// IsContactPerson is the "ansprechpartner" custom field.
	IsContactPerson bool
	UpdatedAt       time.Time
}

// Asset is a Freshservice asset with its type fields already extracted.
type Asset struct {
	ID               string
	DisplayID        string
	Name             string
	Description      string
	AssetTypeID      string
	DepartmentID     string
	UpdatedAt        time.Time
	IPAddress        string
	OSLabel          string
	RoleLabel        string
	MaintenanceLabel string
	ComputeType      string
}

type AssetType struct {
	ID       string
	Name     string
	ParentID string
}

type Application struct {
	ID     string
	Name   string
	Status string
}

// Installation points at the asset (by display id) an application is installed on.
type Installation struct {
	ID        string
	MachineID string
}

// SourceClient reads the system of record. Every list call returns the full
// set across all pages.
type SourceClient interface {
	ListDepartments(ctx context.Context) ([]Department, error)
	ListAgents(ctx context.Context) ([]Agent, error)
	ListRequesters(ctx context.Context) ([]Requester, error)
	ListAssets(ctx context.Context) ([]Asset, error)
	ListAssetTypes(ctx context.Context) ([]AssetType, error)
	ListApplications(ctx context.Context) ([]Application, error)
	ListApplicationInstallations(ctx context.Context, applicationID string) ([]Installation, error)
}
