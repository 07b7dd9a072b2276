// Package entity provides change tracking for mutable domain entities.
//
// A Tracker owns the LastChange timestamp and the OnPropertyChanged listeners
// of one entity. Every mutable field of the entity is a Value[T]; setting a
// Value compares old and new content with its equality function and, only
// when they differ, stores the new content, advances LastChange and notifies
// the listeners.
//
//	name := entity.NewValue("Name", "")
//	tracker := entity.NewTracker("DE*GEF*P1", log)
//	name.Set(tracker, "Central Station")
package entity
