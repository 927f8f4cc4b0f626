package db

import (
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jknair0/beforeeach"

	"wastemap/api"
	"wastemap/capture"
	"wastemap/classify"
	"wastemap/locate"
	"wastemap/store"
)

var (
	dbc  *sql.DB
	mock sqlmock.Sqlmock
)

func setUp() {
	dbc, mock, _ = sqlmock.New()
}

func tearDown() {
	dbc.Close()
}

var it = beforeeach.Create(setUp, tearDown)

func testReport(withLocation bool) *store.Report {
	r := &store.Report{
		ID:         "8c2f4a49-1111-2222-3333-444455556666",
		CapturedAt: time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC),
		Image:      &capture.EncodedImage{Data: []byte{0xFF, 0xD8, 0xFF}, MimeType: "image/jpeg"},
		Classification: &classify.Classification{
			Severity:   classify.SeverityHigh,
			Confidence: 0.91,
			WasteTypes: []string{"plastic"},
			Reason:     "Large pile of plastic bottles.",
		},
		Status: store.StatusPending,
	}
	if withLocation {
		r.Location = &locate.Coordinate{Latitude: 19.2183, Longitude: 72.9781}
	}
	return r
}

func TestSaveReport(t *testing.T) {
	it(func() {
		testCases := []struct {
			name         string
			withLocation bool
			insertErr    error

			wantSeq int64
			wantErr bool
		}{
			{
				name:         "report with location",
				withLocation: true,
				wantSeq:      7,
			},
			{
				name:    "report without location",
				wantSeq: 8,
			},
		}

		for _, testCase := range testCases {
			r := testReport(testCase.withLocation)

			mock.ExpectExec("INSERT INTO reports").
				WillReturnResult(sqlmock.NewResult(testCase.wantSeq, 1))
			mock.ExpectExec("UPDATE users SET kitns_daily = kitns_daily").
				WithArgs(20, "0xABCDEF").
				WillReturnResult(sqlmock.NewResult(1, 1))

			seq, err := SaveReport(dbc, "0xABCDEF", "", r)
			if testCase.wantErr != (err != nil) {
				t.Errorf("%s: expected error: %v, got: %v", testCase.name, testCase.wantErr, err)
			}
			if seq != testCase.wantSeq {
				t.Errorf("%s: want seq %d, got %d", testCase.name, testCase.wantSeq, seq)
			}
		}
	})
}

func TestListReportsNewestFirst(t *testing.T) {
	it(func() {
		cols := []string{"seq", "report_id", "ts", "latitude", "longitude",
			"severity", "confidence", "waste_types", "reason", "status"}
		mock.ExpectQuery("SELECT (.+) FROM reports ORDER BY ts DESC").
			WillReturnRows(sqlmock.NewRows(cols).
				AddRow(2, "r2", "2026-09-01 11:00:00", 19.2, 72.9, "HIGH", 0.9, `["plastic"]`, "Pile.", "pending").
				AddRow(1, "r1", "2026-09-01 10:00:00", nil, nil, "LOW", 0.5, `["organic"]`, "Scattered.", "pending"))

		records, err := ListReports(dbc, 10)
		if err != nil {
			t.Fatalf("ListReports: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("want 2 records, got %d", len(records))
		}
		if records[0].Seq != 2 || records[1].Seq != 1 {
			t.Errorf("feed not newest-first: %+v", records)
		}
		if records[0].Latitude == nil || *records[0].Latitude != 19.2 {
			t.Errorf("located report lost its latitude: %+v", records[0])
		}
		if records[1].Latitude != nil || records[1].Longitude != nil {
			t.Errorf("unlocated report grew a coordinate: %+v", records[1])
		}
		if records[0].WasteTypes[0] != "plastic" {
			t.Errorf("waste types not decoded: %+v", records[0].WasteTypes)
		}
	})
}

func TestGetStats(t *testing.T) {
	it(func() {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\),").
			WithArgs("user1").
			WillReturnRows(sqlmock.NewRows(
				[]string{"cnt", "low", "medium", "high", "points"}).
				AddRow(6, 1, 3, 2, 75))

		resp, err := GetStats(dbc, "user1")
		if err != nil {
			t.Fatalf("GetStats: %v", err)
		}
		if resp.TotalCount != 6 || resp.LowCount != 1 || resp.MediumCount != 3 || resp.HighCount != 2 {
			t.Errorf("bad counts: %+v", resp)
		}
		if resp.Points != 75 {
			t.Errorf("want 75 points, got %d", resp.Points)
		}
	})
}

func TestGetTopScores(t *testing.T) {
	it(func() {
		cols := []string{"id", "avatar", "pts"}
		mock.ExpectQuery("SELECT u.id, u.avatar").
			WillReturnRows(sqlmock.NewRows(cols).
				AddRow("u1", "Cleaner One", 120).
				AddRow("u2", "Cleaner Two", 80))

		resp, err := GetTopScores(dbc, &api.BaseArgs{Version: "2.0", Id: "u2"}, 7)
		if err != nil {
			t.Fatalf("GetTopScores: %v", err)
		}
		if len(resp.Records) != 2 {
			t.Fatalf("want 2 records, got %d", len(resp.Records))
		}
		if resp.Records[0].Place != 1 || resp.Records[0].Points != 120 {
			t.Errorf("bad first place: %+v", resp.Records[0])
		}
		if !resp.Records[1].IsYou {
			t.Errorf("requesting user not flagged: %+v", resp.Records[1])
		}
	})
}

func TestPendingKitns(t *testing.T) {
	it(func() {
		mock.ExpectQuery("SELECT id, kitns_daily FROM users WHERE kitns_daily > 0").
			WillReturnRows(sqlmock.NewRows([]string{"id", "kitns_daily"}).
				AddRow("u1", 35).
				AddRow("u2", 10))

		pending, err := PendingKitns(dbc)
		if err != nil {
			t.Fatalf("PendingKitns: %v", err)
		}
		if pending["u1"] != 35 || pending["u2"] != 10 {
			t.Errorf("bad pending map: %v", pending)
		}
	})
}
