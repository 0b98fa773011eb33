package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/wonrang2/auskorphi/internal/fx"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskRateRefresh refreshes the cached exchange rate.
	TaskRateRefresh = "fx:refresh"
	// RateRefreshSpec runs the refresh at the top of every hour, matching
	// the cache TTL so interactive requests rarely fetch live.
	RateRefreshSpec = "0 * * * *"
)

// NewRateRefreshTask constructs the scheduled refresh task.
func NewRateRefreshTask() *asynq.Task {
	return asynq.NewTask(TaskRateRefresh, nil)
}

// RateRefresher is the slice of the fx service the worker needs.
type RateRefresher interface {
	Refresh(ctx context.Context) (fx.Rate, error)
}

// NewRateRefreshHandler processes TaskRateRefresh tasks.
func NewRateRefreshHandler(logger *slog.Logger, refresher RateRefresher) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		rate, err := refresher.Refresh(ctx)
		if err != nil {
			logger.Warn("scheduled rate refresh failed", slog.Any("error", err))
			return err
		}
		logger.Info("exchange rate refreshed",
			slog.String("pair", rate.Base+"/"+rate.Quote),
			slog.String("rate", rate.Rate.String()))
		return nil
	}
}
