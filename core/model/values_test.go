package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAddressEqual(t *testing.T) {
	a := &Address{Street: "Main", City: NewI18NString(LangDE, "Jena"), CountryCode: "DE"}
	b := &Address{Street: "Main", City: NewI18NString(LangDE, "Jena"), CountryCode: "DE"}
	assert.True(t, a.Equal(b))
	b.City = b.City.Set(LangEN, "Jena")
	assert.False(t, a.Equal(b))
	var n1, n2 *Address
	assert.True(t, n1.Equal(n2))
	assert.False(t, a.Equal(nil))
}

func TestI18NStringGet(t *testing.T) {
	s := I18NString{LangDE: "Ladestation", LangFR: "borne"}
	assert.Equal(t, "Ladestation", s.Get(LangDE))
	assert.Equal(t, "Ladestation", s.Get(LangNL), "falls back to first sorted language")
	s = s.Set(LangEN, "charging station")
	assert.Equal(t, "charging station", s.Get(LangNL))
}

func TestGeoCoordinate(t *testing.T) {
	_, err := NewGeoCoordinate(91, 0)
	assert.Error(t, err)
	jena, err := NewGeoCoordinate(50.9271, 11.5892)
	assert.NoError(t, err)
	berlin, _ := NewGeoCoordinate(52.5200, 13.4050)
	d := jena.DistanceKM(berlin)
	assert.InDelta(t, 215, d, 15)
	assert.True(t, (*GeoCoordinate)(nil).Equal(nil))
}

func TestOpeningTimesIsOpen(t *testing.T) {
	ot := &OpeningTimes{Regular: []RegularHours{
		{Weekday: time.Monday, Begin: HourMin{8, 0}, End: HourMin{18, 0}},
		{Weekday: time.Friday, Begin: HourMin{22, 0}, End: HourMin{2, 0}},
	}}
	mon := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC) // Monday
	assert.True(t, ot.IsOpen(mon))
	assert.False(t, ot.IsOpen(mon.Add(10*time.Hour)))
	sat := time.Date(2024, 1, 6, 1, 0, 0, 0, time.UTC) // Saturday after Friday night
	assert.True(t, ot.IsOpen(sat))
	assert.True(t, Open24Hours().IsOpen(sat))
	assert.True(t, ot.Equal(&OpeningTimes{Regular: append([]RegularHours(nil), ot.Regular...)}))
}

func TestAdminStatusAllowsCommands(t *testing.T) {
	assert.True(t, AdminStatusOperational.AllowsCommands())
	assert.True(t, AdminStatusInternalUse.AllowsCommands())
	for _, s := range []AdminStatus{AdminStatusOutOfService, AdminStatusPlanned, AdminStatusBlocked, AdminStatusUnknown} {
		assert.Falsef(t, s.AllowsCommands(), "%s", s)
	}
}

func TestParseCountryAndCurrency(t *testing.T) {
	c, err := ParseCountry("deu")
	assert.NoError(t, err)
	assert.Equal(t, "DE", c.Alpha2)
	_, err = ParseCountry("XX")
	assert.Error(t, err)
	cur, err := ParseCurrency("eur")
	assert.NoError(t, err)
	assert.Equal(t, EUR, cur)
}
