package vehiclereg

import (
	"time"

	"github.com/roads-authority/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Application represents a vehicle registration application aggregate root.
// It is created by a validated submission and mutated only through the
// lifecycle methods below; every accepted transition appends exactly one
// status-history entry. Applications are never physically deleted - the
// terminal statuses represent end-of-life.
type Application struct {
	shared.BaseAggregateRoot

	ReferenceCode string `gorm:"uniqueIndex;not null"`
	TrackingPin   string `gorm:"not null"`

	// Section A - owner particulars. Exactly one of the business or
	// personal name groups is populated, determined by IDType.
	IDType               IDType       `gorm:"not null"`
	IdentificationNumber string       `gorm:"not null;index"`
	PersonType           PersonType
	Surname              string
	Initials             string
	BusinessName         string
	PostalAddress        Address      `gorm:"type:jsonb"`
	StreetAddress        Address      `gorm:"type:jsonb"`
	TelephoneDay         *PhoneNumber `gorm:"type:jsonb"`

	// Section B - organization's proxy (optional)
	HasProxy      bool
	ProxyIDType   IDType
	ProxyIDNumber string
	ProxySurname  string
	ProxyInitials string

	// Section C - organization's representative (optional)
	HasRepresentative      bool
	RepresentativeIDType   IDType
	RepresentativeIDNumber string
	RepresentativeSurname  string
	RepresentativeInitials string

	// Section D - declaration
	DeclarationAccepted bool            `gorm:"not null"`
	DeclarationDate     time.Time
	DeclarationPlace    string
	DeclarationRole     DeclarationRole

	// Section E - vehicle particulars
	RegistrationNumber        string
	Make                      string           `gorm:"not null;index"`
	SeriesName                string           `gorm:"not null"`
	VehicleCategory           string
	DrivenType                DrivenType       `gorm:"not null"`
	VehicleDescription        string
	NetPower                  string
	EngineCapacity            string
	FuelType                  FuelType         `gorm:"not null"`
	FuelTypeOther             string
	TotalMass                 string
	GrossVehicleMass          string
	MaxPermissibleVehicleMass string
	MaxPermissibleDrawingMass string
	Transmission              TransmissionType `gorm:"not null"`
	MainColour                MainColour       `gorm:"not null"`
	MainColourOther           string
	UsedForTransportation     string
	EconomicSector            string
	OdometerReading           string
	OdometerReadingKm         string
	VehicleStreetAddress      *Address         `gorm:"type:jsonb"`
	OwnershipType             OwnershipType    `gorm:"not null"`
	UsedOnPublicRoad          bool

	// Section F - office use
	ChassisNumber string `gorm:"index"`
	EngineNumber  string

	// Payment
	PaymentAmount    decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	PaymentMethod    string
	PaymentReference string          `gorm:"not null"`

	// Document and workflow state
	DocumentURL   string        `gorm:"not null"`
	Status        Status        `gorm:"not null;index"`
	StatusHistory StatusHistory `gorm:"type:jsonb;not null"`

	PaymentDeadline            *time.Time `gorm:"index"`
	PaymentReceivedAt          *time.Time
	RegistrationDate           *time.Time
	RegistrationNumberAssigned string

	// Admin workspace fields
	AdminComments string
	AssignedTo    string
	Priority      Priority `gorm:"not null;default:NORMAL"`
}

// TableName returns the table name for GORM
func (Application) TableName() string {
	return "vehicle_reg_applications"
}

// SystemActor is recorded in the initial history entry written at creation
const SystemActor = "System"

// NewApplicationParams carries the validated field set for a new application
type NewApplicationParams struct {
	ReferenceCode string
	TrackingPin   string

	IDType               IDType
	IdentificationNumber string
	PersonType           PersonType
	Surname              string
	Initials             string
	BusinessName         string
	PostalAddress        Address
	StreetAddress        Address
	TelephoneDay         *PhoneNumber

	HasProxy      bool
	ProxyIDType   IDType
	ProxyIDNumber string
	ProxySurname  string
	ProxyInitials string

	HasRepresentative      bool
	RepresentativeIDType   IDType
	RepresentativeIDNumber string
	RepresentativeSurname  string
	RepresentativeInitials string

	DeclarationPlace string
	DeclarationRole  DeclarationRole

	RegistrationNumber        string
	Make                      string
	SeriesName                string
	ChassisNumber             string
	EngineNumber              string
	VehicleCategory           string
	DrivenType                DrivenType
	VehicleDescription        string
	NetPower                  string
	EngineCapacity            string
	FuelType                  FuelType
	FuelTypeOther             string
	TotalMass                 string
	GrossVehicleMass          string
	MaxPermissibleVehicleMass string
	MaxPermissibleDrawingMass string
	Transmission              TransmissionType
	MainColour                MainColour
	MainColourOther           string
	UsedForTransportation     string
	EconomicSector            string
	OdometerReading           string
	OdometerReadingKm         string
	VehicleStreetAddress      *Address
	OwnershipType             OwnershipType
	UsedOnPublicRoad          bool

	PaymentAmount    decimal.Decimal
	PaymentMethod    string
	PaymentReference string

	DocumentURL string
}

// NewApplication creates a new application in the SUBMITTED state with its
// initial history entry. Callers are expected to have run the validation
// engine first; the invariants re-checked here guard the aggregate itself.
func NewApplication(p NewApplicationParams) (*Application, error) {
	if p.ReferenceCode == "" {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Reference code cannot be empty")
	}
	if !p.IDType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ID_TYPE", "Unknown identity document type")
	}
	if p.IDType.IsBusiness() {
		if p.BusinessName == "" {
			return nil, shared.NewDomainError("INVALID_IDENTITY", "Business applications require a business name")
		}
		if p.Surname != "" || p.Initials != "" {
			return nil, shared.NewDomainError("INVALID_IDENTITY", "Business applications cannot carry personal name fields")
		}
	} else {
		if p.Surname == "" || p.Initials == "" {
			return nil, shared.NewDomainError("INVALID_IDENTITY", "Personal applications require surname and initials")
		}
		if p.BusinessName != "" {
			return nil, shared.NewDomainError("INVALID_IDENTITY", "Personal applications cannot carry a business name")
		}
	}
	if p.DocumentURL == "" {
		return nil, shared.NewDomainError("INVALID_DOCUMENT", "Document URL cannot be empty")
	}

	now := time.Now()
	role := p.DeclarationRole
	if role == "" {
		role = DeclarationRoleOwner
	}

	app := &Application{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),

		ReferenceCode: p.ReferenceCode,
		TrackingPin:   p.TrackingPin,

		IDType:               p.IDType,
		IdentificationNumber: p.IdentificationNumber,
		PersonType:           p.PersonType,
		Surname:              p.Surname,
		Initials:             p.Initials,
		BusinessName:         p.BusinessName,
		PostalAddress:        p.PostalAddress,
		StreetAddress:        p.StreetAddress,
		TelephoneDay:         p.TelephoneDay,

		HasProxy:      p.HasProxy,
		ProxyIDType:   p.ProxyIDType,
		ProxyIDNumber: p.ProxyIDNumber,
		ProxySurname:  p.ProxySurname,
		ProxyInitials: p.ProxyInitials,

		HasRepresentative:      p.HasRepresentative,
		RepresentativeIDType:   p.RepresentativeIDType,
		RepresentativeIDNumber: p.RepresentativeIDNumber,
		RepresentativeSurname:  p.RepresentativeSurname,
		RepresentativeInitials: p.RepresentativeInitials,

		DeclarationAccepted: true,
		DeclarationDate:     now,
		DeclarationPlace:    p.DeclarationPlace,
		DeclarationRole:     role,

		RegistrationNumber:        p.RegistrationNumber,
		Make:                      p.Make,
		SeriesName:                p.SeriesName,
		ChassisNumber:             p.ChassisNumber,
		EngineNumber:              p.EngineNumber,
		VehicleCategory:           p.VehicleCategory,
		DrivenType:                p.DrivenType,
		VehicleDescription:        p.VehicleDescription,
		NetPower:                  p.NetPower,
		EngineCapacity:            p.EngineCapacity,
		FuelType:                  p.FuelType,
		FuelTypeOther:             p.FuelTypeOther,
		TotalMass:                 p.TotalMass,
		GrossVehicleMass:          p.GrossVehicleMass,
		MaxPermissibleVehicleMass: p.MaxPermissibleVehicleMass,
		MaxPermissibleDrawingMass: p.MaxPermissibleDrawingMass,
		Transmission:              p.Transmission,
		MainColour:                p.MainColour,
		MainColourOther:           p.MainColourOther,
		UsedForTransportation:     p.UsedForTransportation,
		EconomicSector:            p.EconomicSector,
		OdometerReading:           p.OdometerReading,
		OdometerReadingKm:         p.OdometerReadingKm,
		VehicleStreetAddress:      p.VehicleStreetAddress,
		OwnershipType:             p.OwnershipType,
		UsedOnPublicRoad:          p.UsedOnPublicRoad,

		PaymentAmount:    p.PaymentAmount,
		PaymentMethod:    p.PaymentMethod,
		PaymentReference: p.PaymentReference,

		DocumentURL: p.DocumentURL,
		Status:      StatusSubmitted,
		Priority:    PriorityNormal,
	}
	app.StatusHistory = StatusHistory{{
		Status:    StatusSubmitted,
		ChangedBy: SystemActor,
		Timestamp: now,
		Comment:   "Application submitted",
	}}
	return app, nil
}

// appendHistory records an accepted transition. History is append-only.
func (a *Application) appendHistory(status Status, actor, comment string, at time.Time) {
	a.StatusHistory = append(a.StatusHistory, StatusHistoryEntry{
		Status:    status,
		ChangedBy: actor,
		Timestamp: at,
		Comment:   comment,
	})
}

// ApplyStatusChange handles the generic admin status update. Only the
// restricted target set is accepted. A target of APPROVED is overridden to
// PAYMENT_PENDING and starts the 21-day payment window; the history entry
// records the overridden status, not the requested one.
func (a *Application) ApplyStatusChange(target Status, actor, comment string, now time.Time) error {
	if !target.IsAdminTransitionTarget() {
		return shared.NewValidationError("Valid status is required (SUBMITTED, UNDER_REVIEW, APPROVED, DECLINED)")
	}
	if a.Status.IsTerminal() {
		return shared.ErrInvalidState
	}

	effective := target
	if target == StatusApproved {
		effective = StatusPaymentPending
		deadline := PaymentDeadlineFrom(now)
		a.PaymentDeadline = &deadline
	}

	a.Status = effective
	a.appendHistory(effective, actor, comment, now)
	a.Touch()
	return nil
}

// MarkPaymentReceived unconditionally moves the application to PAID and
// stamps the receipt time. The prior status is deliberately not checked;
// this mirrors the admin-override semantics of the paper process.
func (a *Application) MarkPaymentReceived(actor string, now time.Time) {
	a.Status = StatusPaid
	a.PaymentReceivedAt = &now
	a.appendHistory(StatusPaid, actor, "Payment received", now)
	a.Touch()
}

// MarkRegistered moves the application to REGISTERED, stamps the
// registration date and optionally records the assigned registration number.
func (a *Application) MarkRegistered(actor, registrationNumber string, now time.Time) {
	a.Status = StatusRegistered
	a.RegistrationDate = &now
	if registrationNumber != "" {
		a.RegistrationNumberAssigned = registrationNumber
	}
	a.appendHistory(StatusRegistered, actor, "Vehicle registered", now)
	a.Touch()
}

// SetAdminComments replaces the admin comments and records the review
// activity in the history trail.
func (a *Application) SetAdminComments(comments, actor string, now time.Time) {
	a.AdminComments = comments
	a.appendHistory(StatusUnderReview, actor, "Admin comments updated", now)
	a.Touch()
}

// AssignTo hands the application to a named admin
func (a *Application) AssignTo(adminName string) {
	a.AssignedTo = adminName
	a.Touch()
}

// SetPriority sets the processing priority
func (a *Application) SetPriority(p Priority) error {
	if !p.IsValid() {
		return shared.NewValidationError("Valid priority is required (LOW, NORMAL, HIGH, URGENT)")
	}
	a.Priority = p
	a.Touch()
	return nil
}

// FullName returns the display name for the applicant
func (a *Application) FullName() string {
	if a.BusinessName != "" {
		return a.BusinessName
	}
	if a.Initials == "" {
		return a.Surname
	}
	return a.Surname + " " + a.Initials
}
