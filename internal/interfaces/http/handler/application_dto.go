package handler

import (
	vehicleregapp "github.com/roads-authority/backend/internal/application/vehiclereg"
	"github.com/roads-authority/backend/internal/domain/vehiclereg"
	"github.com/shopspring/decimal"
)

// SubmitApplicationRequest is the JSON part of a public submission. Field
// checks run in the application layer in form order, so nothing here carries
// binding tags; the wire shape only has to decode.
type SubmitApplicationRequest struct {
	// Section A - owner
	IDType               vehiclereg.IDType       `json:"idType"`
	IdentificationNumber string                  `json:"identificationNumber"`
	PersonType           vehiclereg.PersonType   `json:"personType"`
	Surname              string                  `json:"surname"`
	Initials             string                  `json:"initials"`
	BusinessName         string                  `json:"businessName"`
	PostalAddress        vehiclereg.Address      `json:"postalAddress"`
	StreetAddress        vehiclereg.Address      `json:"streetAddress"`
	TelephoneDay         *vehiclereg.PhoneNumber `json:"telephoneDay"`

	// Section B - proxy
	HasProxy      bool              `json:"hasProxy"`
	ProxyIDType   vehiclereg.IDType `json:"proxyIdType"`
	ProxyIDNumber string            `json:"proxyIdNumber"`
	ProxySurname  string            `json:"proxySurname"`
	ProxyInitials string            `json:"proxyInitials"`

	// Section C - representative
	HasRepresentative      bool              `json:"hasRepresentative"`
	RepresentativeIDType   vehiclereg.IDType `json:"representativeIdType"`
	RepresentativeIDNumber string            `json:"representativeIdNumber"`
	RepresentativeSurname  string            `json:"representativeSurname"`
	RepresentativeInitials string            `json:"representativeInitials"`

	// Section D - declaration
	DeclarationAccepted bool                       `json:"declarationAccepted"`
	DeclarationPlace    string                     `json:"declarationPlace"`
	DeclarationRole     vehiclereg.DeclarationRole `json:"declarationRole"`

	// Section E - vehicle
	RegistrationNumber        string                      `json:"registrationNumber"`
	Make                      string                      `json:"make"`
	SeriesName                string                      `json:"seriesName"`
	ChassisNumber             string                      `json:"chassisNumber"`
	EngineNumber              string                      `json:"engineNumber"`
	VehicleCategory           string                      `json:"vehicleCategory"`
	DrivenType                vehiclereg.DrivenType       `json:"drivenType"`
	VehicleDescription        string                      `json:"vehicleDescription"`
	NetPower                  string                      `json:"netPower"`
	EngineCapacity            string                      `json:"engineCapacity"`
	FuelType                  vehiclereg.FuelType         `json:"fuelType"`
	FuelTypeOther             string                      `json:"fuelTypeOther"`
	TotalMass                 string                      `json:"totalMass"`
	GrossVehicleMass          string                      `json:"grossVehicleMass"`
	MaxPermissibleVehicleMass string                      `json:"maxPermissibleVehicleMass"`
	MaxPermissibleDrawingMass string                      `json:"maxPermissibleDrawingMass"`
	Transmission              vehiclereg.TransmissionType `json:"transmission"`
	MainColour                vehiclereg.MainColour       `json:"mainColour"`
	MainColourOther           string                      `json:"mainColourOther"`
	UsedForTransportation     string                      `json:"usedForTransportation"`
	EconomicSector            string                      `json:"economicSector"`
	OdometerReading           string                      `json:"odometerReading"`
	OdometerReadingKm         string                      `json:"odometerReadingKm"`
	VehicleStreetAddress      *vehiclereg.Address         `json:"vehicleStreetAddress"`
	OwnershipType             vehiclereg.OwnershipType    `json:"ownershipType"`
	// pointer so an omitted field can default to true
	UsedOnPublicRoad          *bool                       `json:"usedOnPublicRoad"`

	// Payment
	PaymentAmount    *decimal.Decimal `json:"paymentAmount"`
	PaymentMethod    string           `json:"paymentMethod"`
	PaymentReference string           `json:"paymentReference"`
}

// toCommand maps the wire shape onto the application command. The document
// part is attached by the handler after multipart extraction.
func (r *SubmitApplicationRequest) toCommand() *vehicleregapp.SubmitApplicationCommand {
	// the paper form treats road use as the norm; only an explicit false
	// opts out
	usedOnPublicRoad := true
	if r.UsedOnPublicRoad != nil {
		usedOnPublicRoad = *r.UsedOnPublicRoad
	}
	return &vehicleregapp.SubmitApplicationCommand{
		IDType:               r.IDType,
		IdentificationNumber: r.IdentificationNumber,
		PersonType:           r.PersonType,
		Surname:              r.Surname,
		Initials:             r.Initials,
		BusinessName:         r.BusinessName,
		PostalAddress:        r.PostalAddress,
		StreetAddress:        r.StreetAddress,
		TelephoneDay:         r.TelephoneDay,

		HasProxy:      r.HasProxy,
		ProxyIDType:   r.ProxyIDType,
		ProxyIDNumber: r.ProxyIDNumber,
		ProxySurname:  r.ProxySurname,
		ProxyInitials: r.ProxyInitials,

		HasRepresentative:      r.HasRepresentative,
		RepresentativeIDType:   r.RepresentativeIDType,
		RepresentativeIDNumber: r.RepresentativeIDNumber,
		RepresentativeSurname:  r.RepresentativeSurname,
		RepresentativeInitials: r.RepresentativeInitials,

		DeclarationAccepted: r.DeclarationAccepted,
		DeclarationPlace:    r.DeclarationPlace,
		DeclarationRole:     r.DeclarationRole,

		RegistrationNumber:        r.RegistrationNumber,
		Make:                      r.Make,
		SeriesName:                r.SeriesName,
		ChassisNumber:             r.ChassisNumber,
		EngineNumber:              r.EngineNumber,
		VehicleCategory:           r.VehicleCategory,
		DrivenType:                r.DrivenType,
		VehicleDescription:        r.VehicleDescription,
		NetPower:                  r.NetPower,
		EngineCapacity:            r.EngineCapacity,
		FuelType:                  r.FuelType,
		FuelTypeOther:             r.FuelTypeOther,
		TotalMass:                 r.TotalMass,
		GrossVehicleMass:          r.GrossVehicleMass,
		MaxPermissibleVehicleMass: r.MaxPermissibleVehicleMass,
		MaxPermissibleDrawingMass: r.MaxPermissibleDrawingMass,
		Transmission:              r.Transmission,
		MainColour:                r.MainColour,
		MainColourOther:           r.MainColourOther,
		UsedForTransportation:     r.UsedForTransportation,
		EconomicSector:            r.EconomicSector,
		OdometerReading:           r.OdometerReading,
		OdometerReadingKm:         r.OdometerReadingKm,
		VehicleStreetAddress:      r.VehicleStreetAddress,
		OwnershipType:             r.OwnershipType,
		UsedOnPublicRoad:          usedOnPublicRoad,

		PaymentAmount:    r.PaymentAmount,
		PaymentMethod:    r.PaymentMethod,
		PaymentReference: r.PaymentReference,
	}
}
