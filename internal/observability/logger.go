package observability

import (
	"log/slog"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/wind-power-etl/internal/config"
)

const serviceName = "wind-power-etl"

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT. Every
// record carries the service name.
func NewLogger(cfg *config.Config) *slog.Logger {
	return sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat).With("service", serviceName)
}
