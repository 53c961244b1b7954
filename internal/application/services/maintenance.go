package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/offlinefirst/swr-cache/internal/core/domain/cache"
	"github.com/offlinefirst/swr-cache/internal/core/ports"
)

// MaintenanceService exposes the bulk operations on the cache namespace:
// manual cache-busting (version upgrades, logout) and aggregate footprint
// reporting. It never runs automatically; expiry-on-read is the only
// self-driven cleanup.
type MaintenanceService struct {
	store   *EntryStore
	logger  *logrus.Logger
	metrics ports.MetricsRecorder
}

func NewMaintenanceService(store *EntryStore, logger *logrus.Logger, metrics ports.MetricsRecorder) *MaintenanceService {
	return &MaintenanceService{store: store, logger: logger, metrics: metrics}
}

// ClearAll removes every entry under the cache namespace.
func (m *MaintenanceService) ClearAll(ctx context.Context) error {
	if err := m.store.DeleteAll(ctx); err != nil {
		if m.logger != nil {
			m.logger.WithError(err).Error("failed to clear cache namespace")
		}
		return fmt.Errorf("clear cache: %w", err)
	}
	if m.logger != nil {
		m.logger.Info("cache namespace cleared")
	}
	if m.metrics != nil {
		m.metrics.ObserveStats(0, 0)
	}
	return nil
}

// Stats reports the entry count and total serialized size of the
// namespace. Read-only; no records are touched.
func (m *MaintenanceService) Stats(ctx context.Context) (cache.Stats, error) {
	stats, err := m.store.Stats(ctx)
	if err != nil {
		return cache.Stats{}, fmt.Errorf("cache stats: %w", err)
	}
	if m.metrics != nil {
		m.metrics.ObserveStats(stats.Count, stats.TotalSizeBytes)
	}
	return stats, nil
}
