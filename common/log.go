package common

import (
	"database/sql"

	"github.com/apex/log"
)

// LogResult checks the outcome of a write statement. When checkOneRow is
// set, affecting anything other than exactly one row is logged as a
// warning.
func LogResult(msgPrefix string, r sql.Result, e error, checkOneRow bool) {
	if e != nil {
		log.Errorf("%s: query failed: %v", msgPrefix, e)
		return
	}
	rows, err := r.RowsAffected()
	if err != nil {
		log.Errorf("%s: failed to get status of db op: %v", msgPrefix, err)
		return
	}
	if checkOneRow && rows != 1 {
		log.Warnf("%s: expected to affect 1 row, affected %d", msgPrefix, rows)
	}
}
