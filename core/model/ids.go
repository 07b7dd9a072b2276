package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidID is returned when an identifier cannot be parsed.
var ErrInvalidID = errors.New("invalid identifier")

// OperatorID identifies a charging station operator, e.g. "DE*GEF".
type OperatorID struct {
	CountryCode string
	Suffix      string
}

// NewOperatorID builds an operator identifier from its components.
func NewOperatorID(countryCode, suffix string) (OperatorID, error) {
	id := OperatorID{CountryCode: strings.ToUpper(countryCode), Suffix: strings.ToUpper(suffix)}
	if !validCountryCode(id.CountryCode) || !validSuffix(id.Suffix) {
		return OperatorID{}, fmt.Errorf("%w: operator %q*%q", ErrInvalidID, countryCode, suffix)
	}
	return id, nil
}

// ParseOperatorID parses "DE*GEF".
func ParseOperatorID(s string) (OperatorID, error) {
	parts := strings.Split(strings.TrimSpace(s), "*")
	if len(parts) != 2 {
		return OperatorID{}, fmt.Errorf("%w: operator %q", ErrInvalidID, s)
	}
	return NewOperatorID(parts[0], parts[1])
}

// MustParseOperatorID is like ParseOperatorID but panics on error. Intended
// for tests and static configuration.
func MustParseOperatorID(s string) OperatorID {
	id, err := ParseOperatorID(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (id OperatorID) String() string {
	if id.IsZero() {
		return ""
	}
	return id.CountryCode + "*" + id.Suffix
}

// IsZero reports whether the identifier is unset.
func (id OperatorID) IsZero() bool { return id.CountryCode == "" && id.Suffix == "" }

// Country resolves the country component.
func (id OperatorID) Country() (Country, bool) { return LookupCountry(id.CountryCode) }

func (id OperatorID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *OperatorID) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*id = OperatorID{}
		return nil
	}
	v, err := ParseOperatorID(string(b))
	if err != nil {
		return err
	}
	*id = v
	return nil
}

// entityID is the shared layout of pool, station and EVSE identifiers:
// <operator>*<kind><suffix>.
type entityID struct {
	Operator OperatorID
	Suffix   string
}

func newEntityID(op OperatorID, suffix string) (entityID, error) {
	suffix = strings.ToUpper(suffix)
	if op.IsZero() || !validSuffix(suffix) {
		return entityID{}, fmt.Errorf("%w: %s*%s", ErrInvalidID, op, suffix)
	}
	return entityID{Operator: op, Suffix: suffix}, nil
}

func parseEntityID(s string, kind byte) (entityID, error) {
	parts := strings.Split(strings.TrimSpace(s), "*")
	if len(parts) != 3 || len(parts[2]) < 2 || (parts[2][0] != kind && parts[2][0] != kind+('a'-'A')) {
		return entityID{}, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	op, err := NewOperatorID(parts[0], parts[1])
	if err != nil {
		return entityID{}, err
	}
	return newEntityID(op, parts[2][1:])
}

func (id entityID) format(kind byte) string {
	if id.Operator.IsZero() {
		return ""
	}
	return id.Operator.String() + "*" + string(kind) + id.Suffix
}

// ChargingPoolID identifies a charging pool, e.g. "DE*GEF*P1234".
type ChargingPoolID struct{ entityID }

// NewChargingPoolID builds a pool identifier within the operator namespace.
func NewChargingPoolID(op OperatorID, suffix string) (ChargingPoolID, error) {
	e, err := newEntityID(op, suffix)
	return ChargingPoolID{e}, err
}

// ParseChargingPoolID parses "DE*GEF*P1234".
func ParseChargingPoolID(s string) (ChargingPoolID, error) {
	e, err := parseEntityID(s, 'P')
	return ChargingPoolID{e}, err
}

// MustParseChargingPoolID panics when s is not a valid pool identifier.
func MustParseChargingPoolID(s string) ChargingPoolID {
	id, err := ParseChargingPoolID(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (id ChargingPoolID) String() string               { return id.format('P') }
func (id ChargingPoolID) IsZero() bool                 { return id.Operator.IsZero() }
func (id ChargingPoolID) OperatorID() OperatorID       { return id.Operator }
func (id ChargingPoolID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *ChargingPoolID) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*id = ChargingPoolID{}
		return nil
	}
	v, err := ParseChargingPoolID(string(b))
	if err != nil {
		return err
	}
	*id = v
	return nil
}

// ChargingStationID identifies a charging station, e.g. "DE*GEF*S1234".
type ChargingStationID struct{ entityID }

// NewChargingStationID builds a station identifier within the operator namespace.
func NewChargingStationID(op OperatorID, suffix string) (ChargingStationID, error) {
	e, err := newEntityID(op, suffix)
	return ChargingStationID{e}, err
}

// ParseChargingStationID parses "DE*GEF*S1234".
func ParseChargingStationID(s string) (ChargingStationID, error) {
	e, err := parseEntityID(s, 'S')
	return ChargingStationID{e}, err
}

// MustParseChargingStationID panics when s is not a valid station identifier.
func MustParseChargingStationID(s string) ChargingStationID {
	id, err := ParseChargingStationID(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (id ChargingStationID) String() string               { return id.format('S') }
func (id ChargingStationID) IsZero() bool                 { return id.Operator.IsZero() }
func (id ChargingStationID) OperatorID() OperatorID       { return id.Operator }
func (id ChargingStationID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *ChargingStationID) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*id = ChargingStationID{}
		return nil
	}
	v, err := ParseChargingStationID(string(b))
	if err != nil {
		return err
	}
	*id = v
	return nil
}

// EVSEID identifies an electric vehicle supply equipment, e.g. "DE*GEF*E1234".
type EVSEID struct{ entityID }

// NewEVSEID builds an EVSE identifier within the operator namespace.
func NewEVSEID(op OperatorID, suffix string) (EVSEID, error) {
	e, err := newEntityID(op, suffix)
	return EVSEID{e}, err
}

// ParseEVSEID parses "DE*GEF*E1234".
func ParseEVSEID(s string) (EVSEID, error) {
	e, err := parseEntityID(s, 'E')
	return EVSEID{e}, err
}

// MustParseEVSEID panics when s is not a valid EVSE identifier.
func MustParseEVSEID(s string) EVSEID {
	id, err := ParseEVSEID(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (id EVSEID) String() string               { return id.format('E') }
func (id EVSEID) IsZero() bool                 { return id.Operator.IsZero() }
func (id EVSEID) OperatorID() OperatorID       { return id.Operator }
func (id EVSEID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *EVSEID) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*id = EVSEID{}
		return nil
	}
	v, err := ParseEVSEID(string(b))
	if err != nil {
		return err
	}
	*id = v
	return nil
}

// ReservationID identifies a charging reservation.
type ReservationID string

// NewReservationID returns a random reservation identifier.
func NewReservationID() ReservationID { return ReservationID(uuid.NewString()) }

func (id ReservationID) String() string { return string(id) }

// ChargingSessionID identifies a charging session.
type ChargingSessionID string

// NewChargingSessionID returns a random session identifier.
func NewChargingSessionID() ChargingSessionID { return ChargingSessionID(uuid.NewString()) }

func (id ChargingSessionID) String() string { return string(id) }

// EventTrackingID correlates the events raised while handling one request.
type EventTrackingID string

// NewEventTrackingID returns a random tracking identifier.
func NewEventTrackingID() EventTrackingID { return EventTrackingID(uuid.NewString()) }

func (id EventTrackingID) String() string { return string(id) }

// EnergyMeterID identifies an energy meter.
type EnergyMeterID string

func (id EnergyMeterID) String() string { return string(id) }

// ProviderID identifies an e-mobility provider, e.g. "DE*8PS".
type ProviderID string

func (id ProviderID) String() string { return string(id) }

func validCountryCode(s string) bool {
	if len(s) != 2 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

func validSuffix(s string) bool {
	if s == "" || len(s) > 32 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
