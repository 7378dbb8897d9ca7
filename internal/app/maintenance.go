package app

import (
	"time"

	"github.com/robfig/cron/v3"

	"lotbot/internal/config"
	"lotbot/internal/decision"
	"lotbot/pkg/logx"
)

// startMaintenance schedules the periodic ledger job: a stats line every
// run, plus a sweep of old decision records when a TTL is configured.
// The TTL is re-read from the live config on every run, so it can be
// changed without a restart; zero (the default) never sweeps.
func startMaintenance(cfgMgr *config.Manager, ledger *decision.Ledger, log logx.Logger) (*cron.Cron, error) {
	cfg := cfgMgr.Get()
	schedule := cfg.Maintenance.Schedule
	if schedule == "" {
		schedule = "@hourly"
	}

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		ttlRaw := ""
		if cur := cfgMgr.Get(); cur != nil {
			ttlRaw = cur.Maintenance.DecisionTTL
		}
		ttl, err := config.ParseDurationField("maintenance.decision_ttl", ttlRaw)
		if err != nil {
			log.Warn("bad decision ttl; skipping sweep", logx.Err(err))
			ttl = 0
		}

		swept := 0
		if ttl > 0 {
			swept = ledger.SweepOlderThan(time.Now().Add(-ttl))
		}
		log.Info("ledger maintenance",
			logx.Int("decisions", ledger.Len()),
			logx.Int("swept", swept),
			logx.Duration("ttl", ttl),
		)
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
