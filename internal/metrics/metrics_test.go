package metrics

import (
	"testing"
	"time"
)

func TestInitIdempotent(t *testing.T) {
	Init()
	Init()

	// None of these should panic after double Init.
	ObserveFetch("static", "success", 120*time.Millisecond)
	ObserveFetch("browser", "error", time.Second)
	IncRetry()
	IncQualityRejected()
	IncDescriptionSaved()
	IncCheckpointWrite()
	ObserveRecord("succeeded")
}

func TestObserversBeforeInit(t *testing.T) {
	// Observers are nil-safe so library code can be tested without Init.
	ObserveFetch("static", "success", 0)
	IncRetry()
	ObserveRecord("skipped")
}
