package model

// Address is a postal address.
type Address struct {
	Street      string     `json:"street,omitempty"`
	HouseNumber string     `json:"house_number,omitempty"`
	FloorLevel  string     `json:"floor_level,omitempty"`
	PostalCode  string     `json:"postal_code,omitempty"`
	City        I18NString `json:"city,omitempty"`
	CountryCode string     `json:"country,omitempty"`
	TimeZone    string     `json:"time_zone,omitempty"`
	Comment     I18NString `json:"comment,omitempty"`
}

// Equal reports whether both addresses are equal. Two nil addresses are equal.
func (a *Address) Equal(b *Address) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Street == b.Street &&
		a.HouseNumber == b.HouseNumber &&
		a.FloorLevel == b.FloorLevel &&
		a.PostalCode == b.PostalCode &&
		a.CountryCode == b.CountryCode &&
		a.TimeZone == b.TimeZone &&
		a.City.Equal(b.City) &&
		a.Comment.Equal(b.Comment)
}

// Country resolves the country code.
func (a *Address) Country() (Country, bool) {
	if a == nil {
		return Country{}, false
	}
	return LookupCountry(a.CountryCode)
}

func (a *Address) String() string {
	if a == nil {
		return ""
	}
	s := a.Street
	if a.HouseNumber != "" {
		s += " " + a.HouseNumber
	}
	if a.PostalCode != "" || !a.City.IsEmpty() {
		s += ", " + a.PostalCode + " " + a.City.String()
	}
	if a.CountryCode != "" {
		s += ", " + a.CountryCode
	}
	return s
}
