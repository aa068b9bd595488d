package freshservice

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	migmodel "github.com/maintainly/fssync/internal/syncer/model"
)

// flexID accepts ids sent as JSON numbers or strings; null decodes to "".
type flexID string

func (id *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = flexID(n.String())
	return nil
}

func idStrings(ids []flexID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			out = append(out, string(id))
		}
	}
	return out
}

type rawDepartment struct {
	ID           flexID          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	CustomFields migmodel.Fields `json:"custom_fields"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Custom field names vary per Freshservice account; each list holds the
// spellings in use, English first.
func (r rawDepartment) toDepartment() migmodel.Department {
	f := r.CustomFields
	return migmodel.Department{
		ID:             string(r.ID),
		Name:           strings.TrimSpace(r.Name),
		UpdatedAt:      r.UpdatedAt,
		Address:        f.String("address", "adresse", "strasse", "street"),
		City:           f.String("city", "ort", "stadt"),
		PostalCode:     f.String("postal_code", "zip", "plz", "postleitzahl"),
		Country:        f.String("country", "land"),
		Email:          f.String("email", "e_mail"),
		Phone:          f.String("phone", "telefon", "telefonnummer"),
		Website:        f.String("website", "webseite", "homepage"),
		ShortCode:      f.String("short_code", "kuerzel", "kurzel", "abbreviation"),
		Category:       f.String("category", "kategorie", "kundenkategorie"),
		BillingCode:    f.String("billing_code", "abrechnungscode", "abrechnung"),
		ServiceManager: f.String("service_manager", "servicemanager"),
		SLA:            f.Bool("sla", "sla_vertrag"),
	}
}

type rawAgent struct {
	ID            flexID    `json:"id"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Email         string    `json:"email"`
	WorkPhone     string    `json:"work_phone_number"`
	MobilePhone   string    `json:"mobile_phone_number"`
	DepartmentIDs []flexID  `json:"department_ids"`
	Active        bool      `json:"active"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (r rawAgent) toAgent() migmodel.Agent {
	return migmodel.Agent{
		ID:            string(r.ID),
		FirstName:     strings.TrimSpace(r.FirstName),
		LastName:      strings.TrimSpace(r.LastName),
		Email:         strings.TrimSpace(r.Email),
		WorkPhone:     strings.TrimSpace(r.WorkPhone),
		MobilePhone:   strings.TrimSpace(r.MobilePhone),
		DepartmentIDs: idStrings(r.DepartmentIDs),
		Active:        r.Active,
		UpdatedAt:     r.UpdatedAt,
	}
}

type rawRequester struct {
	ID              flexID          `json:"id"`
	FirstName       string          `json:"first_name"`
	LastName        string          `json:"last_name"`
	PrimaryEmail    string          `json:"primary_email"`
	SecondaryEmails []string        `json:"secondary_emails"`
	WorkPhone       string          `json:"work_phone_number"`
	MobilePhone     string          `json:"mobile_phone_number"`
	DepartmentIDs   []flexID        `json:"department_ids"`
	DepartmentNames []string        `json:"department_names"`
	CustomFields    migmodel.Fields `json:"custom_fields"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (r rawRequester) toRequester() migmodel.Requester {
	return migmodel.Requester{
		ID:              string(r.ID),
		FirstName:       strings.TrimSpace(r.FirstName),
		LastName:        strings.TrimSpace(r.LastName),
		Email:           strings.TrimSpace(r.PrimaryEmail),
		SecondaryEmails: r.SecondaryEmails,
		WorkPhone:       strings.TrimSpace(r.WorkPhone),
		MobilePhone:     strings.TrimSpace(r.MobilePhone),
		DepartmentIDs:   idStrings(r.DepartmentIDs),
		DepartmentNames: r.DepartmentNames,
		IsContactPerson: r.CustomFields.Bool("ansprechpartner", "contact_person"),
		UpdatedAt:       r.UpdatedAt,
	}
}

type rawAsset struct {
	ID           flexID          `json:"id"`
	DisplayID    flexID          `json:"display_id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	AssetTypeID  flexID          `json:"asset_type_id"`
	DepartmentID flexID          `json:"department_id"`
	TypeFields   migmodel.Fields `json:"type_fields"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (r rawAsset) toAsset() migmodel.Asset {
	f := r.TypeFields
	return migmodel.Asset{
		ID:               string(r.ID),
		DisplayID:        string(r.DisplayID),
		Name:             strings.TrimSpace(r.Name),
		Description:      strings.TrimSpace(r.Description),
		AssetTypeID:      string(r.AssetTypeID),
		DepartmentID:     string(r.DepartmentID),
		UpdatedAt:        r.UpdatedAt,
		IPAddress:        f.String("ip_address", "ip", "ip_adresse"),
		OSLabel:          f.String("os", "operating_system", "betriebssystem"),
		RoleLabel:        f.String("server_role", "serverrolle", "server_type"),
		MaintenanceLabel: f.String("maintenance_interval", "wartungsintervall"),
		ComputeType:      f.String("compute_type", "virtual", "virtualisiert", "is_virtual"),
	}
}

type rawAssetType struct {
	ID       flexID `json:"id"`
	Name     string `json:"name"`
	ParentID flexID `json:"parent_asset_type_id"`
}

type rawApplication struct {
	ID     flexID `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

type rawInstallation struct {
	ID        flexID `json:"id"`
	MachineID flexID `json:"installation_machine_id"`
}
