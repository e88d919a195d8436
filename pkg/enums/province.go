package enums

import (
	"fmt"
	"strings"
)

// Province is a two-letter Canadian province or territory code.
type Province string

const (
	ProvinceAB Province = "AB"
	ProvinceBC Province = "BC"
	ProvinceMB Province = "MB"
	ProvinceNB Province = "NB"
	ProvinceNL Province = "NL"
	ProvinceNS Province = "NS"
	ProvinceNT Province = "NT"
	ProvinceNU Province = "NU"
	ProvinceON Province = "ON"
	ProvincePE Province = "PE"
	ProvinceQC Province = "QC"
	ProvinceSK Province = "SK"
	ProvinceYT Province = "YT"
)

var provinceNames = map[Province]string{
	ProvinceAB: "Alberta",
	ProvinceBC: "British Columbia",
	ProvinceMB: "Manitoba",
	ProvinceNB: "New Brunswick",
	ProvinceNL: "Newfoundland and Labrador",
	ProvinceNS: "Nova Scotia",
	ProvinceNT: "Northwest Territories",
	ProvinceNU: "Nunavut",
	ProvinceON: "Ontario",
	ProvincePE: "Prince Edward Island",
	ProvinceQC: "Quebec",
	ProvinceSK: "Saskatchewan",
	ProvinceYT: "Yukon",
}

// Provinces lists every province/territory code in alphabetical order.
var Provinces = []Province{
	ProvinceAB, ProvinceBC, ProvinceMB, ProvinceNB, ProvinceNL, ProvinceNS,
	ProvinceNT, ProvinceNU, ProvinceON, ProvincePE, ProvinceQC, ProvinceSK,
	ProvinceYT,
}

// String implements fmt.Stringer.
func (p Province) String() string {
	return string(p)
}

// Name returns the full province name.
func (p Province) Name() string {
	return provinceNames[p]
}

// IsValid reports whether the value is a known province code.
func (p Province) IsValid() bool {
	_, ok := provinceNames[p]
	return ok
}

// ParseProvince converts raw input into a Province, uppercasing first.
func ParseProvince(value string) (Province, error) {
	candidate := Province(strings.ToUpper(strings.TrimSpace(value)))
	if !candidate.IsValid() {
		return "", fmt.Errorf("invalid province code %q", value)
	}
	return candidate, nil
}
