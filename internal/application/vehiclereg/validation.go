package vehiclereg

import (
	"strings"

	"github.com/roads-authority/backend/internal/domain/shared"
	"github.com/roads-authority/backend/internal/domain/vehiclereg"
	"github.com/shopspring/decimal"
)

// ApplicationFee is the flat registration fee in Namibian dollars
var ApplicationFee = decimal.NewFromInt(150)

// ValidateSubmission runs the field checks in form order and stops at the
// first failure, so applicants fix one thing at a time. Every failure is a
// VALIDATION_ERROR carrying a field-specific message.
func ValidateSubmission(cmd *SubmitApplicationCommand) error {
	if cmd.IDType == "" {
		return shared.NewValidationError("ID type is required")
	}
	if !cmd.IDType.IsValid() {
		return shared.NewValidationError("ID type is invalid")
	}
	if strings.TrimSpace(cmd.IdentificationNumber) == "" {
		return shared.NewValidationError("Identification number is required")
	}

	if cmd.IDType.IsBusiness() {
		if strings.TrimSpace(cmd.BusinessName) == "" {
			return shared.NewValidationError("Business name is required for business registrations")
		}
	} else {
		if strings.TrimSpace(cmd.Surname) == "" {
			return shared.NewValidationError("Surname is required")
		}
		if strings.TrimSpace(cmd.Initials) == "" {
			return shared.NewValidationError("Initials are required")
		}
	}

	if strings.TrimSpace(cmd.PostalAddress.Line1) == "" {
		return shared.NewValidationError("Postal address line 1 is required")
	}
	if strings.TrimSpace(cmd.StreetAddress.Line1) == "" {
		return shared.NewValidationError("Street address line 1 is required")
	}

	if strings.TrimSpace(cmd.Make) == "" {
		return shared.NewValidationError("Vehicle make is required")
	}
	if strings.TrimSpace(cmd.SeriesName) == "" {
		return shared.NewValidationError("Series name is required")
	}
	if cmd.DrivenType == "" {
		return shared.NewValidationError("Driven type is required")
	}
	if cmd.FuelType == "" {
		return shared.NewValidationError("Fuel type is required")
	}
	if cmd.Transmission == "" {
		return shared.NewValidationError("Transmission is required")
	}
	if cmd.MainColour == "" {
		return shared.NewValidationError("Main colour is required")
	}
	if cmd.OwnershipType == "" {
		return shared.NewValidationError("Ownership type is required")
	}
	if cmd.FuelType == vehiclereg.FuelTypeOther && strings.TrimSpace(cmd.FuelTypeOther) == "" {
		return shared.NewValidationError("Fuel type description is required when fuel type is 'other'")
	}
	if cmd.MainColour == vehiclereg.MainColourOther && strings.TrimSpace(cmd.MainColourOther) == "" {
		return shared.NewValidationError("Main colour description is required when main colour is 'other'")
	}

	if cmd.PaymentAmount == nil {
		return shared.NewValidationError("Payment amount is required")
	}
	if !cmd.PaymentAmount.Equal(ApplicationFee) {
		return shared.NewValidationError("Application fee must be exactly NAD 150")
	}
	if strings.TrimSpace(cmd.PaymentReference) == "" {
		return shared.NewValidationError("Payment reference is required")
	}

	if !cmd.DeclarationAccepted {
		return shared.NewValidationError("Declaration must be accepted")
	}
	if strings.TrimSpace(cmd.DeclarationPlace) == "" {
		return shared.NewValidationError("Declaration place is required")
	}

	if cmd.Document == nil {
		return shared.NewValidationError("Certified ID document is required")
	}
	if !cmd.Document.IsAccepted() {
		return shared.NewValidationError("Document must be a PDF or image file")
	}

	return nil
}

// toNewApplicationParams maps a validated command onto aggregate
// constructor parameters
func toNewApplicationParams(cmd *SubmitApplicationCommand, referenceCode, documentURL string) vehiclereg.NewApplicationParams {
	role := cmd.DeclarationRole
	if role == "" {
		role = vehiclereg.DeclarationRoleOwner
	}
	return vehiclereg.NewApplicationParams{
		ReferenceCode: referenceCode,
		TrackingPin:   vehiclereg.TrackingPIN,

		IDType:               cmd.IDType,
		IdentificationNumber: strings.TrimSpace(cmd.IdentificationNumber),
		PersonType:           cmd.PersonType,
		Surname:              strings.TrimSpace(cmd.Surname),
		Initials:             strings.TrimSpace(cmd.Initials),
		BusinessName:         strings.TrimSpace(cmd.BusinessName),
		PostalAddress:        cmd.PostalAddress,
		StreetAddress:        cmd.StreetAddress,
		TelephoneDay:         cmd.TelephoneDay,

		HasProxy:      cmd.HasProxy,
		ProxyIDType:   cmd.ProxyIDType,
		ProxyIDNumber: cmd.ProxyIDNumber,
		ProxySurname:  cmd.ProxySurname,
		ProxyInitials: cmd.ProxyInitials,

		HasRepresentative:      cmd.HasRepresentative,
		RepresentativeIDType:   cmd.RepresentativeIDType,
		RepresentativeIDNumber: cmd.RepresentativeIDNumber,
		RepresentativeSurname:  cmd.RepresentativeSurname,
		RepresentativeInitials: cmd.RepresentativeInitials,

		DeclarationPlace: strings.TrimSpace(cmd.DeclarationPlace),
		DeclarationRole:  role,

		RegistrationNumber:        cmd.RegistrationNumber,
		Make:                      strings.TrimSpace(cmd.Make),
		SeriesName:                strings.TrimSpace(cmd.SeriesName),
		ChassisNumber:             strings.TrimSpace(cmd.ChassisNumber),
		EngineNumber:              strings.TrimSpace(cmd.EngineNumber),
		VehicleCategory:           cmd.VehicleCategory,
		DrivenType:                cmd.DrivenType,
		VehicleDescription:        cmd.VehicleDescription,
		NetPower:                  cmd.NetPower,
		EngineCapacity:            cmd.EngineCapacity,
		FuelType:                  cmd.FuelType,
		FuelTypeOther:             cmd.FuelTypeOther,
		TotalMass:                 cmd.TotalMass,
		GrossVehicleMass:          cmd.GrossVehicleMass,
		MaxPermissibleVehicleMass: cmd.MaxPermissibleVehicleMass,
		MaxPermissibleDrawingMass: cmd.MaxPermissibleDrawingMass,
		Transmission:              cmd.Transmission,
		MainColour:                cmd.MainColour,
		MainColourOther:           cmd.MainColourOther,
		UsedForTransportation:     cmd.UsedForTransportation,
		EconomicSector:            cmd.EconomicSector,
		OdometerReading:           cmd.OdometerReading,
		OdometerReadingKm:         cmd.OdometerReadingKm,
		VehicleStreetAddress:      cmd.VehicleStreetAddress,
		OwnershipType:             cmd.OwnershipType,
		UsedOnPublicRoad:          cmd.UsedOnPublicRoad,

		PaymentAmount:    *cmd.PaymentAmount,
		PaymentMethod:    cmd.PaymentMethod,
		PaymentReference: strings.TrimSpace(cmd.PaymentReference),

		DocumentURL: documentURL,
	}
}
