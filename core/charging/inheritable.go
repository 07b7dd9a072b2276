package charging

import (
	"github.com/kilianp07/wwcp/core/entity"
	"github.com/kilianp07/wwcp/core/model"
)

// inheritable holds the location properties a station inherits from its
// pool while its own value is unset.
type inheritable struct {
	address            *entity.Value[*model.Address]
	geoLocation        *entity.Value[*model.GeoCoordinate]
	entranceAddress    *entity.Value[*model.Address]
	entranceLocation   *entity.Value[*model.GeoCoordinate]
	exitAddress        *entity.Value[*model.Address]
	exitLocation       *entity.Value[*model.GeoCoordinate]
	accessibility      *entity.Value[model.Accessibility]
	gridConnection     *entity.Value[model.GridConnection]
	hotlinePhoneNumber *entity.Value[string]
}

func newInheritable() inheritable {
	return inheritable{
		address:            entity.NewValueFunc[*model.Address]("Address", nil, (*model.Address).Equal),
		geoLocation:        entity.NewValueFunc[*model.GeoCoordinate]("GeoLocation", nil, (*model.GeoCoordinate).Equal),
		entranceAddress:    entity.NewValueFunc[*model.Address]("EntranceAddress", nil, (*model.Address).Equal),
		entranceLocation:   entity.NewValueFunc[*model.GeoCoordinate]("EntranceLocation", nil, (*model.GeoCoordinate).Equal),
		exitAddress:        entity.NewValueFunc[*model.Address]("ExitAddress", nil, (*model.Address).Equal),
		exitLocation:       entity.NewValueFunc[*model.GeoCoordinate]("ExitLocation", nil, (*model.GeoCoordinate).Equal),
		accessibility:      entity.NewValue[model.Accessibility]("Accessibility", ""),
		gridConnection:     entity.NewValue[model.GridConnection]("GridConnection", ""),
		hotlinePhoneNumber: entity.NewValue("HotlinePhoneNumber", ""),
	}
}

func (i *inheritable) Address() *model.Address                { return i.address.Get() }
func (i *inheritable) GeoLocation() *model.GeoCoordinate      { return i.geoLocation.Get() }
func (i *inheritable) EntranceAddress() *model.Address        { return i.entranceAddress.Get() }
func (i *inheritable) EntranceLocation() *model.GeoCoordinate { return i.entranceLocation.Get() }
func (i *inheritable) ExitAddress() *model.Address            { return i.exitAddress.Get() }
func (i *inheritable) ExitLocation() *model.GeoCoordinate     { return i.exitLocation.Get() }
func (i *inheritable) Accessibility() model.Accessibility     { return i.accessibility.Get() }
func (i *inheritable) GridConnection() model.GridConnection   { return i.gridConnection.Get() }
func (i *inheritable) HotlinePhoneNumber() string             { return i.hotlinePhoneNumber.Get() }

// clear resets the named property so the parent value applies again.
func (i *inheritable) clear(t *entity.Tracker, property string, opts ...entity.ChangeOption) {
	switch property {
	case "Address":
		i.address.Delete(t, opts...)
	case "GeoLocation":
		i.geoLocation.Delete(t, opts...)
	case "EntranceAddress":
		i.entranceAddress.Delete(t, opts...)
	case "EntranceLocation":
		i.entranceLocation.Delete(t, opts...)
	case "ExitAddress":
		i.exitAddress.Delete(t, opts...)
	case "ExitLocation":
		i.exitLocation.Delete(t, opts...)
	case "Accessibility":
		i.accessibility.Delete(t, opts...)
	case "GridConnection":
		i.gridConnection.Delete(t, opts...)
	case "HotlinePhoneNumber":
		i.hotlinePhoneNumber.Delete(t, opts...)
	}
}
