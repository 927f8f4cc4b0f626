package server

import (
	"net/http"
	"strconv"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	geojson "github.com/paulmach/go.geojson"

	"wastemap/api"
	"wastemap/db"
)

func GetMap(c *gin.Context) {
	var ma api.MapArgs

	if err := c.BindJSON(&ma); err != nil {
		log.Errorf("Failed to get the argument in /get_map call: %v", err)
		c.String(http.StatusBadRequest, "Could not read JSON input.")
		return
	}

	if ma.Version != api.CurrentVersion {
		log.Errorf("Bad version in /get_map, expected: 2.0, got: %v", ma.Version)
		c.String(http.StatusNotAcceptable, "Bad API version, expecting 2.0.") // 406
		return
	}
	vp := &ma.VPort
	if vp.LatMax <= vp.LatMin || vp.LonMax <= vp.LonMin {
		c.String(http.StatusBadRequest, "Empty viewport.")
		return
	}

	dbc, err := getServerDB()
	if err != nil {
		log.Errorf("Error connecting to DB: %v", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	points, err := db.QueryMapPoints(dbc, vp)
	if err != nil {
		log.Errorf("Failed to get map points with %v", err)
		c.Status(http.StatusInternalServerError) // 500
		return
	}

	// The s2 level choice needs the map center; clients that pan the map
	// away from their position send a center outside the viewport, which
	// the fixed grid handles better.
	inside := ma.Center.Lat >= vp.LatMin && ma.Center.Lat <= vp.LatMax &&
		ma.Center.Lon >= vp.LonMin && ma.Center.Lon <= vp.LonMax
	var results []api.MapResult
	if inside {
		a := newMapAggregatorS2(vp, &ma.Center)
		for _, p := range points {
			a.AddPoint(p.Seq, p.Latitude, p.Longitude)
		}
		results = a.ToArray()
	} else {
		a := newMapAggregator(vp, 10, 10)
		for _, p := range points {
			a.AddPoint(p.Seq, p.Latitude, p.Longitude)
		}
		results = a.ToArray()
	}

	c.IndentedJSON(http.StatusOK, api.MapResponse{Results: results}) // 200
}

// GetMapGeoJSON serves the raw, unclustered markers in GeoJSON for map
// libraries that do their own clustering.
func GetMapGeoJSON(c *gin.Context) {
	vp := api.ViewPort{}
	var err error
	for _, q := range []struct {
		name string
		dst  *float64
	}{
		{"latmin", &vp.LatMin},
		{"lonmin", &vp.LonMin},
		{"latmax", &vp.LatMax},
		{"lonmax", &vp.LonMax},
	} {
		*q.dst, err = strconv.ParseFloat(c.Query(q.name), 64)
		if err != nil {
			c.String(http.StatusBadRequest, "Bad or missing %s.", q.name)
			return
		}
	}

	dbc, err := getServerDB()
	if err != nil {
		log.Errorf("Error connecting to DB: %v", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	points, err := db.QueryMapPoints(dbc, &vp)
	if err != nil {
		log.Errorf("Failed to get map points with %v", err)
		c.Status(http.StatusInternalServerError) // 500
		return
	}

	fc := geojson.NewFeatureCollection()
	for _, p := range points {
		f := geojson.NewPointFeature([]float64{p.Longitude, p.Latitude})
		f.SetProperty("seq", p.Seq)
		f.SetProperty("severity", p.Severity)
		fc.AddFeature(f)
	}

	c.JSON(http.StatusOK, fc)
}
