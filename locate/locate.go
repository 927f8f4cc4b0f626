// Package locate resolves the coordinate attached to a report, either from
// a position provider or from an interactive picker. A missing location is
// acceptable degraded data, so providers never return errors: every fault
// (denied permission, timeout, absent hardware) degrades to "unavailable".
package locate

import "context"

// Coordinate is a WGS84 point. Latitude and longitude always travel
// together; a report either has both or neither.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// DefaultCenter is the fallback map center when no coordinate is known.
var DefaultCenter = Coordinate{Latitude: 20.0, Longitude: 0.0}

// Provider resolves the current position on a best-effort basis.
// ok is false when the position is unavailable for any reason.
type Provider interface {
	ResolveCurrentLocation(ctx context.Context) (coord Coordinate, ok bool)
}

// Picker is a modal map overlay letting the user place the marker by hand.
// It suspends until the user confirms (ok=true) or dismisses (ok=false).
type Picker interface {
	PresentPicker(ctx context.Context, initial *Coordinate) (coord Coordinate, ok bool)
}

// StaticProvider always resolves to a fixed coordinate. Used by the dev
// client and in tests.
type StaticProvider struct {
	Coord Coordinate
}

func (p *StaticProvider) ResolveCurrentLocation(ctx context.Context) (Coordinate, bool) {
	if ctx.Err() != nil {
		return Coordinate{}, false
	}
	return p.Coord, true
}

// Unavailable is a Provider with no position source at all.
type Unavailable struct{}

func (Unavailable) ResolveCurrentLocation(ctx context.Context) (Coordinate, bool) {
	return Coordinate{}, false
}

// StaticPicker confirms a fixed coordinate, or cancels when Cancel is set.
type StaticPicker struct {
	Coord  Coordinate
	Cancel bool
}

func (p *StaticPicker) PresentPicker(ctx context.Context, initial *Coordinate) (Coordinate, bool) {
	if p.Cancel || ctx.Err() != nil {
		return Coordinate{}, false
	}
	return p.Coord, true
}
