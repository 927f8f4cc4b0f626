package db

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/apex/log"
	_ "github.com/go-sql-driver/mysql"

	"wastemap/api"
	"wastemap/common"
	"wastemap/store"
)

const timestampLayout = "2006-01-02 15:04:05"

// CreateOrUpdateUser upserts a reporter. Avatars are unique across users;
// an attempt to claim a taken one is reported back without updating.
func CreateOrUpdateUser(dbc *sql.DB, u *api.UserArgs) (*api.UserResp, error) {
	avRows, err := dbc.Query("SELECT id FROM users WHERE avatar = ?", u.Avatar)
	if err != nil {
		log.Errorf("Error getting user with avatar %s: %v", u.Avatar, err)
		return nil, err
	}
	defer avRows.Close()

	if avRows.Next() {
		var id string
		if err := avRows.Scan(&id); err != nil {
			return nil, err
		}
		if id != u.Id {
			return &api.UserResp{DupAvatar: true},
				fmt.Errorf("avatar %q already belongs to another user", u.Avatar)
		}
	}

	result, err := dbc.Exec(`INSERT INTO users (id, avatar) VALUES (?, ?)
	                         ON DUPLICATE KEY UPDATE avatar=?`,
		u.Id, u.Avatar, u.Avatar)
	common.LogResult("updateUser", result, err, false)
	if err != nil {
		return nil, err
	}
	return &api.UserResp{}, nil
}

// SaveReport persists an assembled report and bumps the reporter's daily
// kitn counter by the severity weight. Returns the assigned sequence
// number.
func SaveReport(dbc *sql.DB, userID, annotation string, r *store.Report) (int64, error) {
	wasteTypes, err := json.Marshal(r.Classification.WasteTypes)
	if err != nil {
		return 0, fmt.Errorf("failed to encode waste types: %w", err)
	}

	var lat, lon sql.NullFloat64
	if r.Location != nil {
		lat = sql.NullFloat64{Float64: r.Location.Latitude, Valid: true}
		lon = sql.NullFloat64{Float64: r.Location.Longitude, Valid: true}
	}

	result, err := dbc.Exec(`INSERT
	  INTO reports (report_id, id, ts, latitude, longitude, image, mime_type,
	                severity, confidence, waste_types, reason, annotation, status)
	  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, userID, r.CapturedAt.UTC().Format(timestampLayout), lat, lon,
		r.Image.Data, r.Image.MimeType,
		string(r.Classification.Severity), r.Classification.Confidence,
		string(wasteTypes), r.Classification.Reason, annotation,
		string(r.Status))
	if err != nil {
		log.Errorf("Failed to save report %s: %v", r.ID, err)
		return 0, err
	}
	seq, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	bump, err := dbc.Exec(`UPDATE users SET kitns_daily = kitns_daily + ? WHERE id = ?`,
		r.Classification.Severity.Points(), userID)
	common.LogResult("bump kitns", bump, err, false)

	return seq, nil
}

// ListReports returns the feed, newest-first, without image blobs.
func ListReports(dbc *sql.DB, limit int) ([]api.FeedRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := dbc.Query(`
	  SELECT seq, report_id, ts, latitude, longitude,
	         severity, confidence, waste_types, reason, status
	  FROM reports
	  ORDER BY ts DESC, seq DESC
	  LIMIT ?`, limit)
	if err != nil {
		log.Errorf("Could not retrieve reports: %v", err)
		return nil, err
	}
	defer rows.Close()

	records := make([]api.FeedRecord, 0, limit)
	for rows.Next() {
		rec, err := scanFeedRecord(rows)
		if err != nil {
			log.Errorf("Cannot scan a report row: %v", err)
			continue
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func scanFeedRecord(rows *sql.Rows) (*api.FeedRecord, error) {
	var (
		rec        api.FeedRecord
		ts         string
		lat, lon   sql.NullFloat64
		wasteTypes string
	)
	if err := rows.Scan(&rec.Seq, &rec.ReportId, &ts, &lat, &lon,
		&rec.Severity, &rec.Confidence, &wasteTypes, &rec.Reason, &rec.Status); err != nil {
		return nil, err
	}
	rec.Timestamp = ts
	if lat.Valid && lon.Valid {
		rec.Latitude = &lat.Float64
		rec.Longitude = &lon.Float64
	}
	if err := json.Unmarshal([]byte(wasteTypes), &rec.WasteTypes); err != nil {
		rec.WasteTypes = []string{"mixed"}
	}
	return &rec, nil
}

// ReadReport fetches one report including its image.
func ReadReport(dbc *sql.DB, args *api.ReadReportArgs) (*api.ReadReportResponse, error) {
	rows, err := dbc.Query(`
	  SELECT r.seq, r.report_id, r.ts, r.latitude, r.longitude,
	         r.severity, r.confidence, r.waste_types, r.reason, r.status,
	         r.image, u.avatar
	  FROM reports AS r
	  LEFT JOIN users AS u ON r.id = u.id
	  WHERE r.seq = ?`, args.Seq)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, fmt.Errorf("report %d wasn't found", args.Seq)
	}

	var (
		rec        api.FeedRecord
		ts         string
		lat, lon   sql.NullFloat64
		wasteTypes string
		image      []byte
		avatar     sql.NullString
	)
	if err := rows.Scan(&rec.Seq, &rec.ReportId, &ts, &lat, &lon,
		&rec.Severity, &rec.Confidence, &wasteTypes, &rec.Reason, &rec.Status,
		&image, &avatar); err != nil {
		return nil, err
	}
	rec.Timestamp = ts
	if lat.Valid && lon.Valid {
		rec.Latitude = &lat.Float64
		rec.Longitude = &lon.Float64
	}
	if err := json.Unmarshal([]byte(wasteTypes), &rec.WasteTypes); err != nil {
		rec.WasteTypes = []string{"mixed"}
	}

	return &api.ReadReportResponse{
		Record: rec,
		Image:  image,
		Avatar: avatar.String,
	}, nil
}

// MapPoint is a single report position inside a viewport query.
type MapPoint struct {
	Seq       int64
	Latitude  float64
	Longitude float64
	Severity  string
}

// QueryMapPoints returns the positions of located reports within the
// viewport. Unlocated reports never show up on the map.
func QueryMapPoints(dbc *sql.DB, vp *api.ViewPort) ([]MapPoint, error) {
	rows, err := dbc.Query(`
	  SELECT seq, latitude, longitude, severity
	  FROM reports
	  WHERE latitude IS NOT NULL AND longitude IS NOT NULL
	    AND latitude >= ? AND latitude <= ?
	    AND longitude >= ? AND longitude <= ?`,
		vp.LatMin, vp.LatMax, vp.LonMin, vp.LonMax)
	if err != nil {
		log.Errorf("Could not retrieve map points: %v", err)
		return nil, err
	}
	defer rows.Close()

	points := make([]MapPoint, 0, 100)
	for rows.Next() {
		var p MapPoint
		if err := rows.Scan(&p.Seq, &p.Latitude, &p.Longitude, &p.Severity); err != nil {
			log.Errorf("Cannot scan a map row: %v", err)
			continue
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

const pointsExpr = `SUM(CASE severity WHEN 'LOW' THEN 5 WHEN 'HIGH' THEN 20 ELSE 10 END)`

// GetStats returns per-user report counts by severity and leaderboard
// points.
func GetStats(dbc *sql.DB, id string) (*api.StatsResponse, error) {
	rows, err := dbc.Query(`
	  SELECT COUNT(*),
	    SUM(IF(severity = 'LOW', 1, 0)),
	    SUM(IF(severity = 'MEDIUM', 1, 0)),
	    SUM(IF(severity = 'HIGH', 1, 0)),
	    COALESCE(`+pointsExpr+`, 0)
	  FROM reports
	  WHERE id = ?`, id)
	if err != nil {
		log.Errorf("Could not retrieve stats for user %q: %v", id, err)
		return nil, err
	}
	defer rows.Close()

	resp := &api.StatsResponse{Version: api.CurrentVersion, Id: id}
	if !rows.Next() {
		return resp, nil
	}
	var low, medium, high sql.NullInt64
	if err := rows.Scan(&resp.TotalCount, &low, &medium, &high, &resp.Points); err != nil {
		return nil, err
	}
	resp.LowCount = int(low.Int64)
	resp.MediumCount = int(medium.Int64)
	resp.HighCount = int(high.Int64)
	return resp, nil
}

// GetTopScores returns the top scoring reporters plus the requesting
// user's own place when outside the top.
func GetTopScores(dbc *sql.DB, args *api.BaseArgs, topCount int) (*api.TopScoresResponse, error) {
	rows, err := dbc.Query(`
	  SELECT u.id, u.avatar, `+pointsExpr+` AS pts
	  FROM reports r JOIN users u ON r.id = u.id
	  GROUP BY u.id
	  ORDER BY pts DESC
	  LIMIT ?`, topCount)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := &api.TopScoresResponse{Records: []api.TopScoresRecord{}}
	place := 1
	hasYou := false
	for rows.Next() {
		var (
			id, avatar string
			pts        int
		)
		if err := rows.Scan(&id, &avatar, &pts); err != nil {
			return nil, err
		}
		ret.Records = append(ret.Records, api.TopScoresRecord{
			Place:  place,
			Title:  avatar,
			Points: pts,
			IsYou:  id == args.Id,
		})
		if id == args.Id {
			hasYou = true
		}
		place++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if hasYou {
		return ret, nil
	}

	youRows, err := dbc.Query(`
	  SELECT u.avatar, `+pointsExpr+` AS pts
	  FROM reports r JOIN users u ON r.id = u.id
	  WHERE u.id = ?
	  GROUP BY u.id`, args.Id)
	if err != nil {
		return nil, err
	}
	defer youRows.Close()

	if !youRows.Next() {
		return ret, nil
	}
	var (
		avatar string
		pts    int
	)
	if err := youRows.Scan(&avatar, &pts); err != nil {
		return nil, err
	}
	you := api.TopScoresRecord{Title: avatar, Points: pts, IsYou: true}

	aheadRows, err := dbc.Query(`
	  SELECT COUNT(*) FROM (
	    SELECT id, `+pointsExpr+` AS pts
	    FROM reports
	    GROUP BY id
	    HAVING pts > ?
	  ) AS t`, pts)
	if err != nil {
		return nil, err
	}
	defer aheadRows.Close()

	if aheadRows.Next() {
		var ahead int
		if err := aheadRows.Scan(&ahead); err != nil {
			return nil, err
		}
		you.Place = ahead + 1
		if ahead < topCount {
			you.Place = topCount + 1
		}
	}
	ret.Records = append(ret.Records, you)
	return ret, nil
}

// PendingKitns lists users with undisbursed daily kitns.
func PendingKitns(dbc *sql.DB) (map[string]int, error) {
	rows, err := dbc.Query(`SELECT id, kitns_daily FROM users WHERE kitns_daily > 0`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pending := map[string]int{}
	for rows.Next() {
		var (
			id    string
			kitns int
		)
		if err := rows.Scan(&id, &kitns); err != nil {
			return nil, err
		}
		pending[id] = kitns
	}
	return pending, rows.Err()
}

// MarkKitnsDisbursed moves a user's daily counter into the disbursed one.
func MarkKitnsDisbursed(dbc *sql.DB, id string, kitns int) error {
	result, err := dbc.Exec(`UPDATE users
	  SET kitns_daily = kitns_daily - ?, kitns_disbursed = kitns_disbursed + ?
	  WHERE id = ?`, kitns, kitns, id)
	common.LogResult("markKitnsDisbursed", result, err, true)
	return err
}
