package watchdog

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrSignalNotMonitored is returned by operations referencing a signal
// id the watchdog is not currently tracking.
var ErrSignalNotMonitored = errors.New("watchdog: signal is not currently monitored")

// notMonitoredError wraps ErrSignalNotMonitored with the offending id.
type notMonitoredError struct {
	SignalID uuid.UUID
}

func (e *notMonitoredError) Error() string {
	return fmt.Sprintf("watchdog: signal %s is not currently monitored", e.SignalID)
}

func (e *notMonitoredError) Unwrap() error { return ErrSignalNotMonitored }
