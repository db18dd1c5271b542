package vehiclereg

import (
	"time"

	"github.com/google/uuid"
	"github.com/roads-authority/backend/internal/domain/vehiclereg"
	"github.com/shopspring/decimal"
)

// ==================== Submission DTOs ====================

// SubmitApplicationCommand carries a decoded submission. The HTTP layer is
// responsible for multipart decoding; field-level validation happens in
// ValidateSubmission, in form order, first failure wins.
type SubmitApplicationCommand struct {
	// Section A - owner
	IDType               vehiclereg.IDType
	IdentificationNumber string
	PersonType           vehiclereg.PersonType
	Surname              string
	Initials             string
	BusinessName         string
	PostalAddress        vehiclereg.Address
	StreetAddress        vehiclereg.Address
	TelephoneDay         *vehiclereg.PhoneNumber

	// Section B - proxy
	HasProxy      bool
	ProxyIDType   vehiclereg.IDType
	ProxyIDNumber string
	ProxySurname  string
	ProxyInitials string

	// Section C - representative
	HasRepresentative      bool
	RepresentativeIDType   vehiclereg.IDType
	RepresentativeIDNumber string
	RepresentativeSurname  string
	RepresentativeInitials string

	// Section D - declaration
	DeclarationAccepted bool
	DeclarationPlace    string
	DeclarationRole     vehiclereg.DeclarationRole

	// Section E - vehicle
	RegistrationNumber        string
	Make                      string
	SeriesName                string
	ChassisNumber             string
	EngineNumber              string
	VehicleCategory           string
	DrivenType                vehiclereg.DrivenType
	VehicleDescription        string
	NetPower                  string
	EngineCapacity            string
	FuelType                  vehiclereg.FuelType
	FuelTypeOther             string
	TotalMass                 string
	GrossVehicleMass          string
	MaxPermissibleVehicleMass string
	MaxPermissibleDrawingMass string
	Transmission              vehiclereg.TransmissionType
	MainColour                vehiclereg.MainColour
	MainColourOther           string
	UsedForTransportation     string
	EconomicSector            string
	OdometerReading           string
	OdometerReadingKm         string
	VehicleStreetAddress      *vehiclereg.Address
	OwnershipType             vehiclereg.OwnershipType
	UsedOnPublicRoad          bool

	// Payment
	PaymentAmount    *decimal.Decimal
	PaymentMethod    string
	PaymentReference string

	// Certified ID document
	Document *DocumentUpload
}

// SubmitReceipt is returned to the applicant after a successful submission
type SubmitReceipt struct {
	ID            uuid.UUID `json:"id"`
	ReferenceCode string    `json:"referenceId"`
	TrackingPin   string    `json:"trackingPin"`
	FullName      string    `json:"fullName"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ==================== Admin request DTOs ====================

// UpdateStatusRequest is the generic admin status update
type UpdateStatusRequest struct {
	Status    vehiclereg.Status `json:"status" binding:"required"`
	Comment   string            `json:"comment"`
	ChangedBy string            `json:"changedBy"`
}

// UpdateAdminCommentsRequest replaces the admin comments on an application
type UpdateAdminCommentsRequest struct {
	AdminComments string `json:"adminComments" binding:"required"`
	ChangedBy     string `json:"changedBy"`
}

// AssignRequest hands an application to a named admin
type AssignRequest struct {
	AssignedTo string `json:"assignedTo" binding:"required"`
}

// SetPriorityRequest sets the processing priority
type SetPriorityRequest struct {
	Priority vehiclereg.Priority `json:"priority" binding:"required"`
}

// MarkRegisteredRequest completes registration, optionally recording the
// assigned registration number
type MarkRegisteredRequest struct {
	RegistrationNumber string `json:"registrationNumber"`
	ChangedBy          string `json:"changedBy"`
}

// MarkPaymentReceivedRequest records receipt of the application fee
type MarkPaymentReceivedRequest struct {
	ChangedBy string `json:"changedBy"`
}

// ListFilterRequest represents filter options for the admin listing
type ListFilterRequest struct {
	Search     string  `form:"search"`
	Status     *string `form:"status"`
	Priority   *string `form:"priority"`
	AssignedTo string  `form:"assignedTo"`
	StartDate  string  `form:"startDate"` // YYYY-MM-DD, inclusive
	EndDate    string  `form:"endDate"`   // YYYY-MM-DD, inclusive
	Page       int     `form:"page"`
	PageSize   int     `form:"pageSize"`
	OrderBy    string  `form:"orderBy"`
	OrderDir   string  `form:"orderDir" binding:"omitempty,oneof=asc desc"`
}

// ==================== Response DTOs ====================

// StatusHistoryEntryResponse is one audit-trail entry in API responses
type StatusHistoryEntryResponse struct {
	Status    string    `json:"status"`
	ChangedBy string    `json:"changedBy"`
	Timestamp time.Time `json:"timestamp"`
	Comment   string    `json:"comment,omitempty"`
}

// TrackingResponse is the public projection returned to applicants. It
// deliberately omits identity numbers, addresses and office-use fields.
type TrackingResponse struct {
	ID                uuid.UUID                    `json:"id"`
	ReferenceCode     string                       `json:"referenceId"`
	FullName          string                       `json:"fullName"`
	Status            string                       `json:"status"`
	Make              string                       `json:"make"`
	SeriesName        string                       `json:"seriesName"`
	StatusHistory     []StatusHistoryEntryResponse `json:"statusHistory"`
	PaymentDeadline   *time.Time                   `json:"paymentDeadline,omitempty"`
	PaymentReceivedAt *time.Time                   `json:"paymentReceivedAt,omitempty"`
	AdminComments     string                       `json:"adminComments,omitempty"`
	CreatedAt         time.Time                    `json:"createdAt"`
	UpdatedAt         time.Time                    `json:"updatedAt"`
}

// ApplicationResponse is the full admin projection of an application
type ApplicationResponse struct {
	ID            uuid.UUID `json:"id"`
	ReferenceCode string    `json:"referenceId"`

	IDType               string                  `json:"idType"`
	IdentificationNumber string                  `json:"identificationNumber"`
	PersonType           string                  `json:"personType,omitempty"`
	Surname              string                  `json:"surname,omitempty"`
	Initials             string                  `json:"initials,omitempty"`
	BusinessName         string                  `json:"businessName,omitempty"`
	FullName             string                  `json:"fullName"`
	PostalAddress        vehiclereg.Address      `json:"postalAddress"`
	StreetAddress        vehiclereg.Address      `json:"streetAddress"`
	TelephoneDay         *vehiclereg.PhoneNumber `json:"telephoneDay,omitempty"`

	HasProxy      bool   `json:"hasProxy"`
	ProxyIDType   string `json:"proxyIdType,omitempty"`
	ProxyIDNumber string `json:"proxyIdNumber,omitempty"`
	ProxySurname  string `json:"proxySurname,omitempty"`
	ProxyInitials string `json:"proxyInitials,omitempty"`

	HasRepresentative      bool   `json:"hasRepresentative"`
	RepresentativeIDType   string `json:"representativeIdType,omitempty"`
	RepresentativeIDNumber string `json:"representativeIdNumber,omitempty"`
	RepresentativeSurname  string `json:"representativeSurname,omitempty"`
	RepresentativeInitials string `json:"representativeInitials,omitempty"`

	DeclarationAccepted bool      `json:"declarationAccepted"`
	DeclarationDate     time.Time `json:"declarationDate"`
	DeclarationPlace    string    `json:"declarationPlace"`
	DeclarationRole     string    `json:"declarationRole"`

	RegistrationNumber        string              `json:"registrationNumber,omitempty"`
	Make                      string              `json:"make"`
	SeriesName                string              `json:"seriesName"`
	VehicleCategory           string              `json:"vehicleCategory,omitempty"`
	DrivenType                string              `json:"drivenType"`
	VehicleDescription        string              `json:"vehicleDescription,omitempty"`
	NetPower                  string              `json:"netPower,omitempty"`
	EngineCapacity            string              `json:"engineCapacity,omitempty"`
	FuelType                  string              `json:"fuelType"`
	FuelTypeOther             string              `json:"fuelTypeOther,omitempty"`
	TotalMass                 string              `json:"totalMass,omitempty"`
	GrossVehicleMass          string              `json:"grossVehicleMass,omitempty"`
	MaxPermissibleVehicleMass string              `json:"maxPermissibleVehicleMass,omitempty"`
	MaxPermissibleDrawingMass string              `json:"maxPermissibleDrawingMass,omitempty"`
	Transmission              string              `json:"transmission"`
	MainColour                string              `json:"mainColour"`
	MainColourOther           string              `json:"mainColourOther,omitempty"`
	UsedForTransportation     string              `json:"usedForTransportation,omitempty"`
	EconomicSector            string              `json:"economicSector,omitempty"`
	OdometerReading           string              `json:"odometerReading,omitempty"`
	OdometerReadingKm         string              `json:"odometerReadingKm,omitempty"`
	VehicleStreetAddress      *vehiclereg.Address `json:"vehicleStreetAddress,omitempty"`
	OwnershipType             string              `json:"ownershipType"`
	UsedOnPublicRoad          bool                `json:"usedOnPublicRoad"`

	ChassisNumber string `json:"chassisNumber,omitempty"`
	EngineNumber  string `json:"engineNumber,omitempty"`

	PaymentAmount    decimal.Decimal `json:"paymentAmount"`
	PaymentMethod    string          `json:"paymentMethod,omitempty"`
	PaymentReference string          `json:"paymentReference"`

	DocumentURL   string                       `json:"documentUrl"`
	Status        string                       `json:"status"`
	StatusHistory []StatusHistoryEntryResponse `json:"statusHistory"`

	PaymentDeadline            *time.Time `json:"paymentDeadline,omitempty"`
	PaymentReceivedAt          *time.Time `json:"paymentReceivedAt,omitempty"`
	RegistrationDate           *time.Time `json:"registrationDate,omitempty"`
	RegistrationNumberAssigned string     `json:"registrationNumberAssigned,omitempty"`

	AdminComments string `json:"adminComments,omitempty"`
	AssignedTo    string `json:"assignedTo,omitempty"`
	Priority      string `json:"priority"`

	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ApplicationListItem is the condensed admin listing row
type ApplicationListItem struct {
	ID              uuid.UUID  `json:"id"`
	ReferenceCode   string     `json:"referenceId"`
	FullName        string     `json:"fullName"`
	IDType          string     `json:"idType"`
	Make            string     `json:"make"`
	SeriesName      string     `json:"seriesName"`
	Status          string     `json:"status"`
	Priority        string     `json:"priority"`
	AssignedTo      string     `json:"assignedTo,omitempty"`
	PaymentDeadline *time.Time `json:"paymentDeadline,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// ==================== Mappers ====================

func toHistoryResponses(history vehiclereg.StatusHistory) []StatusHistoryEntryResponse {
	out := make([]StatusHistoryEntryResponse, 0, len(history))
	for _, e := range history {
		out = append(out, StatusHistoryEntryResponse{
			Status:    e.Status.String(),
			ChangedBy: e.ChangedBy,
			Timestamp: e.Timestamp,
			Comment:   e.Comment,
		})
	}
	return out
}

// ToSubmitReceipt maps a freshly created application to its receipt
func ToSubmitReceipt(app *vehiclereg.Application) SubmitReceipt {
	return SubmitReceipt{
		ID:            app.ID,
		ReferenceCode: app.ReferenceCode,
		TrackingPin:   app.TrackingPin,
		FullName:      app.FullName(),
		Status:        app.Status.String(),
		CreatedAt:     app.CreatedAt,
	}
}

// ToTrackingResponse maps an application to its public projection
func ToTrackingResponse(app *vehiclereg.Application) TrackingResponse {
	return TrackingResponse{
		ID:                app.ID,
		ReferenceCode:     app.ReferenceCode,
		FullName:          app.FullName(),
		Status:            app.Status.String(),
		Make:              app.Make,
		SeriesName:        app.SeriesName,
		StatusHistory:     toHistoryResponses(app.StatusHistory),
		PaymentDeadline:   app.PaymentDeadline,
		PaymentReceivedAt: app.PaymentReceivedAt,
		AdminComments:     app.AdminComments,
		CreatedAt:         app.CreatedAt,
		UpdatedAt:         app.UpdatedAt,
	}
}

// ToApplicationResponse maps an application to the full admin projection
func ToApplicationResponse(app *vehiclereg.Application) ApplicationResponse {
	return ApplicationResponse{
		ID:            app.ID,
		ReferenceCode: app.ReferenceCode,

		IDType:               string(app.IDType),
		IdentificationNumber: app.IdentificationNumber,
		PersonType:           string(app.PersonType),
		Surname:              app.Surname,
		Initials:             app.Initials,
		BusinessName:         app.BusinessName,
		FullName:             app.FullName(),
		PostalAddress:        app.PostalAddress,
		StreetAddress:        app.StreetAddress,
		TelephoneDay:         app.TelephoneDay,

		HasProxy:      app.HasProxy,
		ProxyIDType:   string(app.ProxyIDType),
		ProxyIDNumber: app.ProxyIDNumber,
		ProxySurname:  app.ProxySurname,
		ProxyInitials: app.ProxyInitials,

		HasRepresentative:      app.HasRepresentative,
		RepresentativeIDType:   string(app.RepresentativeIDType),
		RepresentativeIDNumber: app.RepresentativeIDNumber,
		RepresentativeSurname:  app.RepresentativeSurname,
		RepresentativeInitials: app.RepresentativeInitials,

		DeclarationAccepted: app.DeclarationAccepted,
		DeclarationDate:     app.DeclarationDate,
		DeclarationPlace:    app.DeclarationPlace,
		DeclarationRole:     string(app.DeclarationRole),

		RegistrationNumber:        app.RegistrationNumber,
		Make:                      app.Make,
		SeriesName:                app.SeriesName,
		VehicleCategory:           app.VehicleCategory,
		DrivenType:                string(app.DrivenType),
		VehicleDescription:        app.VehicleDescription,
		NetPower:                  app.NetPower,
		EngineCapacity:            app.EngineCapacity,
		FuelType:                  string(app.FuelType),
		FuelTypeOther:             app.FuelTypeOther,
		TotalMass:                 app.TotalMass,
		GrossVehicleMass:          app.GrossVehicleMass,
		MaxPermissibleVehicleMass: app.MaxPermissibleVehicleMass,
		MaxPermissibleDrawingMass: app.MaxPermissibleDrawingMass,
		Transmission:              string(app.Transmission),
		MainColour:                string(app.MainColour),
		MainColourOther:           app.MainColourOther,
		UsedForTransportation:     app.UsedForTransportation,
		EconomicSector:            app.EconomicSector,
		OdometerReading:           app.OdometerReading,
		OdometerReadingKm:         app.OdometerReadingKm,
		VehicleStreetAddress:      app.VehicleStreetAddress,
		OwnershipType:             string(app.OwnershipType),
		UsedOnPublicRoad:          app.UsedOnPublicRoad,

		ChassisNumber: app.ChassisNumber,
		EngineNumber:  app.EngineNumber,

		PaymentAmount:    app.PaymentAmount,
		PaymentMethod:    app.PaymentMethod,
		PaymentReference: app.PaymentReference,

		DocumentURL:   app.DocumentURL,
		Status:        app.Status.String(),
		StatusHistory: toHistoryResponses(app.StatusHistory),

		PaymentDeadline:            app.PaymentDeadline,
		PaymentReceivedAt:          app.PaymentReceivedAt,
		RegistrationDate:           app.RegistrationDate,
		RegistrationNumberAssigned: app.RegistrationNumberAssigned,

		AdminComments: app.AdminComments,
		AssignedTo:    app.AssignedTo,
		Priority:      app.Priority.String(),

		Version:   app.GetVersion(),
		CreatedAt: app.CreatedAt,
		UpdatedAt: app.UpdatedAt,
	}
}

// ToApplicationListItem maps an application to the condensed listing row
func ToApplicationListItem(app *vehiclereg.Application) ApplicationListItem {
	return ApplicationListItem{
		ID:              app.ID,
		ReferenceCode:   app.ReferenceCode,
		FullName:        app.FullName(),
		IDType:          string(app.IDType),
		Make:            app.Make,
		SeriesName:      app.SeriesName,
		Status:          app.Status.String(),
		Priority:        app.Priority.String(),
		AssignedTo:      app.AssignedTo,
		PaymentDeadline: app.PaymentDeadline,
		CreatedAt:       app.CreatedAt,
		UpdatedAt:       app.UpdatedAt,
	}
}
