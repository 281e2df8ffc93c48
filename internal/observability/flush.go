package observability

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// FlushTelemetry drains buffered telemetry before process exit. Risk gauges
// and the other Prometheus metrics are pull-based and need no flush; what
// remains is the log buffer. Call after the engine has stopped and in-flight
// requests have drained.
func FlushTelemetry(ctx context.Context, logger *zap.Logger) error {
	if logger == nil {
		return nil
	}
	logger.Info("flushing telemetry", zap.String("service", "hazard-risk-service"))
	if err := logger.Sync(); err != nil {
		return fmt.Errorf("flush logs: %w", err)
	}
	return nil
}
