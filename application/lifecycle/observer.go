package lifecycle

import "time"

// Observer captures telemetry for coordinator operations.
type Observer interface {
	RecordSideEffect(kind SideEffectKind, duration time.Duration, err error)
	RecordTransaction(op string, err error)
}

// NopObserver discards everything.
type NopObserver struct{}

func (NopObserver) RecordSideEffect(SideEffectKind, time.Duration, error) {}

func (NopObserver) RecordTransaction(string, error) {}
