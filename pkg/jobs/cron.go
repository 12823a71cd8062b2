package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bharathj0410/leadrabbit/pkg/domain"
	"github.com/bharathj0410/leadrabbit/pkg/ingest"
	"github.com/bharathj0410/leadrabbit/pkg/logger"
	"github.com/bharathj0410/leadrabbit/pkg/metrics"
	"github.com/bharathj0410/leadrabbit/pkg/tenant"
)

// CronManager manages scheduled jobs
type CronManager struct {
	cron      *cron.Cron
	directory *tenant.Directory
	acres     *ingest.AcresAdapter
	logger    logger.Logger
}

// NewCronManager creates a new cron manager
func NewCronManager(directory *tenant.Directory, acres *ingest.AcresAdapter, log logger.Logger) *CronManager {
	if log == nil {
		log = logger.Default()
	}

	return &CronManager{
		cron:      cron.New(),
		directory: directory,
		acres:     acres,
		logger:    log,
	}
}

// SetupJobs configures all scheduled jobs
func (cm *CronManager) SetupJobs() error {
	// Every 30 minutes: pull 99acres leads for every tenant with an active
	// integration account. Each run picks up from the stored watermark, so a
	// missed run just widens the next window up to the lookback cap.
	_, err := cm.cron.AddFunc("*/30 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Minute)
		defer cancel()

		cm.RunAcresSync(ctx)
	})
	if err != nil {
		return err
	}

	cm.logger.Info("cron jobs configured", "acres_sync", "*/30 * * * *")
	return nil
}

// RunAcresSync runs one sync pass across all tenants. A tenant failing does
// not stop the fanout; its watermark stays put and the next pass retries.
func (cm *CronManager) RunAcresSync(ctx context.Context) {
	start := time.Now()
	cm.logger.Info("acres sync started")

	tenants, err := cm.directory.All(ctx)
	if err != nil {
		cm.logger.Error("listing tenants for sync failed", "error", err)
		metrics.SyncRuns.WithLabelValues("error").Inc()
		return
	}

	var processed int
	var failed int
	for _, t := range tenants {
		res, err := cm.acres.Sync(ctx, t, time.Now())
		if err != nil {
			failed++
			cm.logger.Error("tenant sync failed", "tenant", t.Name(), "error", err)
			continue
		}
		if res.LeadsProcessed > 0 {
			metrics.LeadsIngested.WithLabelValues("99acres", t.Name()).Add(float64(res.LeadsProcessed))
		}
		processed += res.LeadsProcessed
	}

	status := "ok"
	if failed > 0 {
		status = "partial"
	}
	metrics.SyncRuns.WithLabelValues(status).Inc()

	cm.logger.Info("acres sync finished",
		"tenants", len(tenants),
		"failed", failed,
		"leads_processed", processed,
		"duration", time.Since(start).String(),
	)
}

// RunAcresSyncForTenant runs a single tenant's sync, used by the manual
// trigger endpoint.
func (cm *CronManager) RunAcresSyncForTenant(ctx context.Context, t domain.TenantStore) (*ingest.Result, error) {
	return cm.acres.Sync(ctx, t, time.Now())
}

// Start starts the cron scheduler
func (cm *CronManager) Start() {
	cm.cron.Start()
}

// Stop stops the cron scheduler and waits for running jobs
func (cm *CronManager) Stop() {
	stopCtx := cm.cron.Stop()
	<-stopCtx.Done()
}
