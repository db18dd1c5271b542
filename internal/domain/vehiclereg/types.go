package vehiclereg

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// IDType identifies the kind of identity document the applicant holds.
// Business Reg. No marks the applicant as an organization; the other types
// mark a natural person.
type IDType string

const (
	IDTypeTrafficRegister IDType = "Traffic Register Number"
	IDTypeNamibiaID       IDType = "Namibia ID-doc"
	IDTypeBusinessRegNo   IDType = "Business Reg. No"
)

// IsValid checks if the value is a known IDType
func (t IDType) IsValid() bool {
	switch t {
	case IDTypeTrafficRegister, IDTypeNamibiaID, IDTypeBusinessRegNo:
		return true
	}
	return false
}

// IsBusiness reports whether the ID type belongs to an organization
func (t IDType) IsBusiness() bool {
	return t == IDTypeBusinessRegNo
}

// PersonType further classifies the applicant
type PersonType string

const (
	PersonTypeMale              PersonType = "male"
	PersonTypeFemale            PersonType = "female"
	PersonTypeOneManBusiness    PersonType = "one-man business"
	PersonTypePrivateCompany    PersonType = "Private company"
	PersonTypeClosedCorporation PersonType = "closed corporation"
	PersonTypeOther             PersonType = "other"
)

// DrivenType describes how the vehicle is propelled or drawn
type DrivenType string

const (
	DrivenTypeSelfPropelled         DrivenType = "self-propelled"
	DrivenTypeTrailer               DrivenType = "trailer"
	DrivenTypeSemiTrailer           DrivenType = "semi-trailer"
	DrivenTypeTrailerDrawnByTractor DrivenType = "trailer drawn by tractor"
)

// FuelType is the vehicle fuel type; "other" requires an elaboration
type FuelType string

const (
	FuelTypePetrol FuelType = "petrol"
	FuelTypeDiesel FuelType = "diesel"
	FuelTypeOther  FuelType = "other"
)

// TransmissionType is the vehicle transmission type
type TransmissionType string

const (
	TransmissionManual        TransmissionType = "manual"
	TransmissionSemiAutomatic TransmissionType = "semi-automatic"
	TransmissionAutomatic     TransmissionType = "automatic"
)

// MainColour is the vehicle primary colour; "other" requires an elaboration
type MainColour string

const (
	MainColourWhite MainColour = "white"
	MainColourRed   MainColour = "red"
	MainColourBlue  MainColour = "blue"
	MainColourOther MainColour = "other"
)

// OwnershipType describes who owns the vehicle
type OwnershipType string

const (
	OwnershipPrivate     OwnershipType = "private"
	OwnershipBusiness    OwnershipType = "business"
	OwnershipMotorDealer OwnershipType = "motor dealer"
)

// DeclarationRole is the capacity in which the declaration was signed
type DeclarationRole string

const (
	DeclarationRoleOwner          DeclarationRole = "owner"
	DeclarationRoleProxy          DeclarationRole = "proxy"
	DeclarationRoleRepresentative DeclarationRole = "representative"
)

// Priority is the admin-assigned processing priority
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// String returns the string representation of Priority
func (p Priority) String() string {
	return string(p)
}

// IsValid checks if the value is a known Priority
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Address is a three-line postal or physical address. Only line 1 is
// mandatory. Stored as a JSONB document.
type Address struct {
	Line1 string `json:"line1"`
	Line2 string `json:"line2,omitempty"`
	Line3 string `json:"line3,omitempty"`
}

// Value implements driver.Valuer for JSONB storage
func (a Address) Value() (driver.Value, error) {
	return json.Marshal(a)
}

// Scan implements sql.Scanner for JSONB storage
func (a *Address) Scan(src interface{}) error {
	return scanJSON(src, a)
}

// PhoneNumber is a dialing code plus subscriber number
type PhoneNumber struct {
	Code   string `json:"code"`
	Number string `json:"number"`
}

// Value implements driver.Valuer for JSONB storage
func (p PhoneNumber) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner for JSONB storage
func (p *PhoneNumber) Scan(src interface{}) error {
	return scanJSON(src, p)
}

// StatusHistoryEntry is one record in the append-only audit trail. Entries
// are never edited or removed once appended.
type StatusHistoryEntry struct {
	Status    Status    `json:"status"`
	ChangedBy string    `json:"changedBy"`
	Timestamp time.Time `json:"timestamp"`
	Comment   string    `json:"comment,omitempty"`
}

// StatusHistory is the ordered audit trail of status transitions. Stored as
// a JSONB array in the same row as the status so both are written in one
// statement.
type StatusHistory []StatusHistoryEntry

// Value implements driver.Valuer for JSONB storage
func (h StatusHistory) Value() (driver.Value, error) {
	if h == nil {
		h = StatusHistory{}
	}
	return json.Marshal(h)
}

// Scan implements sql.Scanner for JSONB storage
func (h *StatusHistory) Scan(src interface{}) error {
	return scanJSON(src, h)
}

func scanJSON(src, dst interface{}) error {
	if src == nil {
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported scan source %T", src)
	}
}
