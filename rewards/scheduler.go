package rewards

import (
	"context"
	"database/sql"
	"time"

	"github.com/apex/log"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/robfig/cron/v3"

	"wastemap/db"
)

// Scheduler disburses every user's accumulated daily kitns once a day.
type Scheduler struct {
	cron      *cron.Cron
	dbc       *sql.DB
	disburser *Disburser
}

func NewScheduler(dbc *sql.DB, disburser *Disburser) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithLocation(time.UTC)),
		dbc:       dbc,
		disburser: disburser,
	}
}

// Start registers the daily job and launches the cron loop in its own
// goroutine.
func (s *Scheduler) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, s.DisburseDaily); err != nil {
		return err
	}
	s.cron.Start()
	log.Infof("Kitn disbursement scheduled (cron: %s)", schedule)
	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// DisburseDaily sends the pending kitns of every user and moves them into
// the disbursed counter. A failed transfer leaves the user's daily counter
// untouched, so the next run retries it.
func (s *Scheduler) DisburseDaily() {
	pending, err := db.PendingKitns(s.dbc)
	if err != nil {
		log.Errorf("Failed to list pending kitns: %v", err)
		return
	}
	if len(pending) == 0 {
		log.Info("No kitns to disburse today.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	sent := 0
	for id, kitns := range pending {
		if !ethcommon.IsHexAddress(id) {
			log.Warnf("User %q has no wallet address, skipping %d kitns", id, kitns)
			continue
		}
		if _, err := s.disburser.Disburse(ctx, ethcommon.HexToAddress(id), kitns); err != nil {
			log.Errorf("Failed to disburse %d kitns to %s: %v", kitns, id, err)
			continue
		}
		if err := db.MarkKitnsDisbursed(s.dbc, id, kitns); err != nil {
			log.Errorf("Failed to mark %d kitns disbursed for %s: %v", kitns, id, err)
			continue
		}
		sent++
	}
	log.Infof("Disbursed kitns for %d of %d users", sent, len(pending))
}
