// Package api holds the wire types shared by the server and its clients.
package api

import (
	"wastemap/classify"
	"wastemap/store"
)

const (
	HelpEndpoint          = "/help"
	UserEndpoint          = "/update_or_create_user"
	ReportEndpoint        = "/report"
	AnalyzeEndpoint       = "/analyze"
	GetFeedEndpoint       = "/get_feed"
	ReadReportEndpoint    = "/read_report"
	GetMapEndpoint        = "/get_map"
	GetMapGeoJSONEndpoint = "/get_map_geojson"
	GetStatsEndpoint      = "/get_stats"
	GetTopScoresEndpoint  = "/get_top_scores"
)

// CurrentVersion is the API version expected in every POST body.
const CurrentVersion = "2.0"

type BaseArgs struct {
	Version string `json:"version"` // Must be "2.0"
	Id      string `json:"id"`      // reporter id.
}

type UserArgs struct {
	Version string `json:"version"` // Must be "2.0"
	Id      string `json:"id"`
	Avatar  string `json:"avatar"`
}

type UserResp struct {
	DupAvatar bool `json:"dup_avatar"`
}

// ReportArgs is a fully assembled report submission. Latitude and
// Longitude are pointers so an absent location is distinguishable from
// the zero coordinate; they must be both present or both absent.
type ReportArgs struct {
	Version    string   `json:"version"` // Must be "2.0"
	Id         string   `json:"id"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
	Image      []byte   `json:"image"`
	MimeType   string   `json:"mime_type"`
	Annotation string   `json:"annotation,omitempty"`
}

type ReportResponse struct {
	Seq            int64                    `json:"seq"`
	ReportId       string                   `json:"report_id"`
	Classification *classify.Classification `json:"classification"`
}

type AnalyzeArgs struct {
	Version  string `json:"version"` // Must be "2.0"
	Image    []byte `json:"image"`
	MimeType string `json:"mime_type"`
}

type FeedArgs struct {
	Version string `json:"version"` // Must be "2.0"
	Id      string `json:"id"`
	Limit   int    `json:"limit,omitempty"`
}

// FeedRecord is one feed entry: everything except the image blob, which is
// fetched separately through /read_report.
type FeedRecord struct {
	Seq        int64             `json:"seq"`
	ReportId   string            `json:"report_id"`
	Timestamp  string            `json:"timestamp"`
	Latitude   *float64          `json:"latitude,omitempty"`
	Longitude  *float64          `json:"longitude,omitempty"`
	Severity   classify.Severity `json:"severity"`
	Confidence float64           `json:"confidence"`
	WasteTypes []string          `json:"waste_types"`
	Reason     string            `json:"reason"`
	Status     store.Status      `json:"status"`
}

type FeedResponse struct {
	Records []FeedRecord `json:"records"`
}

type ReadReportArgs struct {
	Version string `json:"version"` // Must be "2.0"
	Id      string `json:"id"`
	Seq     int64  `json:"seq"`
}

type ReadReportResponse struct {
	Record FeedRecord `json:"record"`
	Image  []byte     `json:"image"`
	Avatar string     `json:"avatar,omitempty"`
}

type ViewPort struct {
	LatMin float64 `json:"latmin"`
	LonMin float64 `json:"lonmin"`
	LatMax float64 `json:"latmax"`
	LonMax float64 `json:"lonmax"`
}

type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type MapArgs struct {
	Version string   `json:"version"` // Must be "2.0"
	Id      string   `json:"id"`
	VPort   ViewPort `json:"vport"`
	Center  Point    `json:"center"`
}

type MapResult struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Count     int64   `json:"count"`
	ReportSeq int64   `json:"report_seq"` // Ignored if Count > 1
}

type MapResponse struct {
	Results []MapResult `json:"results"`
}

type StatsResponse struct {
	Version     string `json:"version"`
	Id          string `json:"id"`
	TotalCount  int    `json:"total_count"`
	LowCount    int    `json:"low_count"`
	MediumCount int    `json:"medium_count"`
	HighCount   int    `json:"high_count"`
	Points      int    `json:"points"`
}

type TopScoresRecord struct {
	Place  int    `json:"place"`
	Title  string `json:"title"`
	Points int    `json:"points"`
	IsYou  bool   `json:"is_you"`
}

type TopScoresResponse struct {
	Records []TopScoresRecord `json:"records"`
}
