package logging

import (
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// Factory provides component-aware loggers with consistent field naming.
type Factory struct {
	baseLogger *log.Logger
}

// NewFactory creates a new logger factory.
func NewFactory(baseLogger *log.Logger) *Factory {
	return &Factory{baseLogger: baseLogger}
}

// ForComponent creates a logger scoped to a specific component.
func (lf *Factory) ForComponent(id string) *log.Logger {
	return lf.baseLogger.With("component", id)
}

// NewDefaultLogger builds the process-wide base logger.
func NewDefaultLogger() *log.Logger {
	return log.NewWithOptions(os.Stdout, log.Options{
		ReportTimestamp: true,
		Level:           log.InfoLevel,
		TimeFormat:      time.Kitchen,
	})
}
