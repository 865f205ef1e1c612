package types

import (
	"slices"

	"go.uber.org/zap/zapcore"
)

//go:generate scalegen -types House,Merchant,Marker

// AccessPolicy controls who may enter a house.
type AccessPolicy uint8

const (
	// Private houses admit only the owner.
	Private AccessPolicy = iota
	// Public houses admit anyone.
	Public
)

func (p AccessPolicy) String() string {
	switch p {
	case Private:
		return "private"
	case Public:
		return "public"
	}
	return "unknown"
}

// House is a building players can enter. A character occupies at most one house.
type House struct {
	ID        Stamp
	Owner     Stamp
	Location  Location
	Access    AccessPolicy
	Occupants []Stamp `scale:"max=256"`
}

// Admits is true if the character may enter the house.
func (h *House) Admits(id Stamp) bool {
	return h.Access == Public || h.Owner == id
}

// Occupied is true if the character is recorded inside the house.
func (h *House) Occupied(id Stamp) bool {
	return slices.Contains(h.Occupants, id)
}

// AddOccupant records the character inside the house.
func (h *House) AddOccupant(id Stamp) {
	if !h.Occupied(id) {
		h.Occupants = append(h.Occupants, id)
	}
}

// RemoveOccupant drops the character from the occupants.
func (h *House) RemoveOccupant(id Stamp) {
	h.Occupants = slices.DeleteFunc(h.Occupants, func(s Stamp) bool { return s == id })
}

// Copy returns a deep copy of the house.
func (h *House) Copy() *House {
	cp := *h
	cp.Occupants = slices.Clone(h.Occupants)
	return &cp
}

// MarshalLogObject implements logging interface.
func (h *House) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	encoder.AddString("id", h.ID.ShortString())
	encoder.AddString("owner", h.Owner.ShortString())
	encoder.AddString("location", h.Location.String())
	encoder.AddString("access", h.Access.String())
	encoder.AddInt("occupants", len(h.Occupants))
	return nil
}

// Merchant sells goods of one category at a fixed location.
type Merchant struct {
	Location Location
	Category string `scale:"max=32"`
}

// Marker is a terrain feature (a pond) identified by its location alone.
type Marker struct {
	Location Location
}
