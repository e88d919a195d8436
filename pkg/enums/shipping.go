package enums

import (
	"fmt"
	"strings"
)

// Carrier identifies the shipping carriers the platform rates against.
type Carrier string

const (
	CarrierCanadaPost Carrier = "Canada Post"
	CarrierUPS        Carrier = "UPS"
	CarrierFedEx      Carrier = "FedEx"
)

var validCarriers = []Carrier{CarrierCanadaPost, CarrierUPS, CarrierFedEx}

// IsValid reports whether the value is a known Carrier.
func (c Carrier) IsValid() bool {
	for _, candidate := range validCarriers {
		if candidate == c {
			return true
		}
	}
	return false
}

// ShippingService is the service tier a shipping method belongs to.
type ShippingService string

const (
	ShippingServiceStandard  ShippingService = "standard"
	ShippingServiceExpress   ShippingService = "express"
	ShippingServiceOvernight ShippingService = "overnight"
)

var validShippingServices = []ShippingService{
	ShippingServiceStandard,
	ShippingServiceExpress,
	ShippingServiceOvernight,
}

// String implements fmt.Stringer.
func (s ShippingService) String() string {
	return string(s)
}

// Label returns the human-readable display name.
func (s ShippingService) Label() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// IsValid reports whether the value is a known ShippingService.
func (s ShippingService) IsValid() bool {
	for _, candidate := range validShippingServices {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseShippingService converts raw input into a ShippingService.
// Matching is case-insensitive because the storefront sends lowercase slugs.
func ParseShippingService(value string) (ShippingService, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validShippingServices {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shipping service %q", value)
}

// ShipmentStatus tracks carrier-side progress of a shipment.
type ShipmentStatus string

const (
	ShipmentStatusPending        ShipmentStatus = "PENDING"
	ShipmentStatusInTransit      ShipmentStatus = "IN_TRANSIT"
	ShipmentStatusOutForDelivery ShipmentStatus = "OUT_FOR_DELIVERY"
	ShipmentStatusDelivered      ShipmentStatus = "DELIVERED"
	ShipmentStatusFailed         ShipmentStatus = "FAILED"
	ShipmentStatusReturned       ShipmentStatus = "RETURNED"
)

var validShipmentStatuses = []ShipmentStatus{
	ShipmentStatusPending,
	ShipmentStatusInTransit,
	ShipmentStatusOutForDelivery,
	ShipmentStatusDelivered,
	ShipmentStatusFailed,
	ShipmentStatusReturned,
}

// IsValid reports whether the value is a known ShipmentStatus.
func (s ShipmentStatus) IsValid() bool {
	for _, candidate := range validShipmentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}
