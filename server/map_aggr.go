package server

import (
	"github.com/apex/log"

	"wastemap/api"
)

// mapAggregator buckets report markers into a fixed lat/lon grid over the
// viewport. Kept as the fallback aggregation for degenerate viewports
// where the s2 aggregator cannot pick a cell level.
type mapAggregator struct {
	vp               api.ViewPort
	latStep, lonStep float64 // May be negative west of Greenwich and in the Southern hemisphere.
	latCnt, lonCnt   int
	v                map[int]*api.MapResult
}

func newMapAggregator(vp *api.ViewPort, latCnt, lonCnt int) mapAggregator {
	return mapAggregator{
		vp:      *vp,
		latStep: (vp.LatMax - vp.LatMin) / float64(latCnt),
		lonStep: (vp.LonMax - vp.LonMin) / float64(lonCnt),
		latCnt:  latCnt,
		lonCnt:  lonCnt,
		v:       make(map[int]*api.MapResult),
	}
}

func (a mapAggregator) AddPoint(seq int64, lat, lon float64) {
	vp := &a.vp
	latX := int((lat - vp.LatMin) / a.latStep)
	lonX := int((lon - vp.LonMin) / a.lonStep)
	if latX < 0 || lonX < 0 || latX >= a.latCnt || lonX >= a.lonCnt {
		log.Warnf("%f:%f results in %d:%d index outside of the viewport", lat, lon, latX, lonX)
		return
	}
	x := latX*a.lonCnt + lonX
	v, ok := a.v[x]
	if ok {
		v.Count++
		v.ReportSeq = 0
		// Second+ point snaps the marker to mid-quadrant.
		v.Latitude = vp.LatMin + a.latStep*(0.5+float64(latX))
		v.Longitude = vp.LonMin + a.lonStep*(0.5+float64(lonX))
		return
	}
	// A lone report keeps its exact coordinates and stays clickable.
	a.v[x] = &api.MapResult{
		Latitude:  lat,
		Longitude: lon,
		Count:     1,
		ReportSeq: seq,
	}
}

func (a mapAggregator) ToArray() []api.MapResult {
	r := make([]api.MapResult, 0, len(a.v))
	for _, v := range a.v {
		r = append(r, *v)
	}
	return r
}
