package model

import (
	"fmt"
	"strings"
)

// Country is an ISO 3166 country.
type Country struct {
	Alpha2 string `json:"alpha2"`
	Alpha3 string `json:"alpha3"`
	Name   string `json:"name"`
	// TelephoneCode is the international dialling prefix without "+".
	TelephoneCode string `json:"telephone_code,omitempty"`
}

// Countries lists the countries known to this module, keyed by alpha-2 code.
var Countries = map[string]Country{
	"AT": {Alpha2: "AT", Alpha3: "AUT", Name: "Austria", TelephoneCode: "43"},
	"BE": {Alpha2: "BE", Alpha3: "BEL", Name: "Belgium", TelephoneCode: "32"},
	"CH": {Alpha2: "CH", Alpha3: "CHE", Name: "Switzerland", TelephoneCode: "41"},
	"DE": {Alpha2: "DE", Alpha3: "DEU", Name: "Germany", TelephoneCode: "49"},
	"DK": {Alpha2: "DK", Alpha3: "DNK", Name: "Denmark", TelephoneCode: "45"},
	"ES": {Alpha2: "ES", Alpha3: "ESP", Name: "Spain", TelephoneCode: "34"},
	"FR": {Alpha2: "FR", Alpha3: "FRA", Name: "France", TelephoneCode: "33"},
	"GB": {Alpha2: "GB", Alpha3: "GBR", Name: "United Kingdom", TelephoneCode: "44"},
	"IT": {Alpha2: "IT", Alpha3: "ITA", Name: "Italy", TelephoneCode: "39"},
	"LU": {Alpha2: "LU", Alpha3: "LUX", Name: "Luxembourg", TelephoneCode: "352"},
	"NL": {Alpha2: "NL", Alpha3: "NLD", Name: "Netherlands", TelephoneCode: "31"},
	"NO": {Alpha2: "NO", Alpha3: "NOR", Name: "Norway", TelephoneCode: "47"},
	"PL": {Alpha2: "PL", Alpha3: "POL", Name: "Poland", TelephoneCode: "48"},
	"SE": {Alpha2: "SE", Alpha3: "SWE", Name: "Sweden", TelephoneCode: "46"},
	"US": {Alpha2: "US", Alpha3: "USA", Name: "United States", TelephoneCode: "1"},
}

// LookupCountry returns the country for an alpha-2 code.
func LookupCountry(alpha2 string) (Country, bool) {
	c, ok := Countries[strings.ToUpper(alpha2)]
	return c, ok
}

// ParseCountry resolves an alpha-2 or alpha-3 code.
func ParseCountry(code string) (Country, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if c, ok := Countries[code]; ok {
		return c, nil
	}
	for _, c := range Countries {
		if c.Alpha3 == code {
			return c, nil
		}
	}
	return Country{}, fmt.Errorf("unknown country %q", code)
}

func (c Country) String() string { return c.Alpha2 }
