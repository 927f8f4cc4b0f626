package server

import (
	"github.com/golang/geo/r1"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"

	"wastemap/api"
)

type aggrUnit struct {
	cnt      int64
	seq      int64
	origCell s2.CellID
}

// mapAggregatorS2 buckets report markers into s2 cells whose level is
// chosen from the viewport area, so zooming in splits clusters naturally.
type mapAggregatorS2 struct {
	level int
	aggrs map[s2.CellID]*aggrUnit
}

const (
	expectedCells = 160
	minLevel      = 6
	maxLevel      = 16
)

func cellBaseLevel(vp *api.ViewPort, center *api.Point) int {
	minLL := s2.LatLngFromDegrees(vp.LatMin, vp.LonMin)
	maxLL := s2.LatLngFromDegrees(vp.LatMax, vp.LonMax)

	rect := s2.Rect{
		Lat: r1.Interval{
			Lo: minLL.Lat.Radians(),
			Hi: maxLL.Lat.Radians()},
		Lng: s1.Interval{
			Lo: minLL.Lng.Radians(),
			Hi: maxLL.Lng.Radians()},
	}

	vpArea := rect.Area()

	centerCell := s2.CellIDFromLatLng(s2.LatLngFromDegrees(center.Lat, center.Lon))

	for lv := maxLevel; lv >= minLevel; lv-- {
		cc := s2.CellFromCellID(centerCell.Parent(lv))
		if vpArea/cc.ApproxArea() < expectedCells {
			return lv
		}
	}
	return minLevel // Large enough level.
}

func newMapAggregatorS2(vp *api.ViewPort, center *api.Point) mapAggregatorS2 {
	return mapAggregatorS2{
		level: cellBaseLevel(vp, center),
		aggrs: make(map[s2.CellID]*aggrUnit),
	}
}

func (a *mapAggregatorS2) AddPoint(seq int64, lat, lon float64) {
	pc := s2.CellIDFromLatLng(s2.LatLngFromDegrees(lat, lon))
	parent := pc.Parent(a.level)
	if _, ok := a.aggrs[parent]; !ok {
		a.aggrs[parent] = &aggrUnit{}
	}
	a.aggrs[parent].cnt++
	a.aggrs[parent].seq = seq
	a.aggrs[parent].origCell = pc
}

func (a *mapAggregatorS2) ToArray() []api.MapResult {
	r := make([]api.MapResult, 0, len(a.aggrs))
	for c, unit := range a.aggrs {
		ll := c.LatLng()
		seq := int64(0)
		if unit.cnt == 1 {
			// A lone report keeps its exact position and its identity.
			ll = unit.origCell.LatLng()
			seq = unit.seq
		}
		r = append(r, api.MapResult{
			Latitude:  ll.Lat.Degrees(),
			Longitude: ll.Lng.Degrees(),
			Count:     unit.cnt,
			ReportSeq: seq,
		})
	}
	return r
}
