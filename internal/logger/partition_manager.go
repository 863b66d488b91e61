package logger

import (
	"context"
	"fmt"
	"time"

	"github.com/Lutefd/exchange-symbols/internal/commons"
	"github.com/Lutefd/exchange-symbols/internal/repository"
	"github.com/robfig/cron/v3"
)

// PartitionManager keeps the monthly partitions of the logs table created
// ahead of time.
type PartitionManager struct {
	repo  repository.LogRepository
	cron  *cron.Cron
	ahead int
	now   func() time.Time
}

func NewPartitionManager(repo repository.LogRepository) *PartitionManager {
	// partitions are bounded in UTC, like the log timestamps stored in them
	c := cron.New(cron.WithLocation(time.UTC))
	pm := &PartitionManager{
		repo:  repo,
		cron:  c,
		ahead: commons.PartitionMonthsAhead,
		now:   func() time.Time { return time.Now().UTC() },
	}

	_, err := c.AddFunc(commons.PartitionCronSpec, pm.createNextMonthPartitionWrapper)
	if err != nil {
		Errorf("failed to add cron job: %v", err)
	}

	return pm
}

func (pm *PartitionManager) Start(ctx context.Context) error {
	initCtx, cancel := context.WithTimeout(ctx, commons.LogSinkConnectTimeout)
	defer cancel()
	if err := pm.createInitialPartitions(initCtx); err != nil {
		return fmt.Errorf("failed to create initial partitions: %w", err)
	}

	pm.cron.Start()

	go func() {
		<-ctx.Done()
		pm.cron.Stop()
	}()

	return nil
}

func (pm *PartitionManager) createInitialPartitions(ctx context.Context) error {
	now := pm.now()
	for i := 0; i < pm.ahead; i++ {
		if err := pm.repo.CreatePartition(ctx, now.AddDate(0, i, 0)); err != nil {
			return err
		}
	}
	return nil
}

func (pm *PartitionManager) createNextMonthPartition(ctx context.Context) error {
	return pm.repo.CreatePartition(ctx, pm.now().AddDate(0, pm.ahead, 0))
}

func (pm *PartitionManager) createNextMonthPartitionWrapper() {
	if err := pm.createNextMonthPartition(context.Background()); err != nil {
		Errorf("failed to create next month partition: %v", err)
	}
}
