package intel

import (
	"errors"

	"github.com/rawblock/soltrace-engine/pkg/models"
)

// ErrNoSignals is returned by Consolidate when nothing was ingested. This is
// the one empty-input condition callers must be aware of: correlating
// against a vacuously empty intel set would silently report nothing.
var ErrNoSignals = errors.New("intel: no signals ingested")

// Agent accumulates intel signals across feeds for one analysis run.
type Agent struct {
	signals []models.IntelSignal
}

// NewAgent creates an empty agent.
func NewAgent() *Agent {
	return &Agent{}
}

// Ingest parses one feed payload and records the resulting signal.
func (a *Agent) Ingest(source, payload string) models.IntelSignal {
	signal := ParseIntel(source, payload)
	a.signals = append(a.signals, signal)
	return signal
}

// IngestSignal records an already-parsed signal (e.g. from the Crawler).
func (a *Agent) IngestSignal(signal models.IntelSignal) {
	a.signals = append(a.signals, signal)
}

// Consolidate merges everything ingested so far into one signal.
func (a *Agent) Consolidate() (models.IntelSignal, error) {
	if len(a.signals) == 0 {
		return models.IntelSignal{}, ErrNoSignals
	}
	return MergeIntel(a.signals), nil
}

// FilterByAddress returns the ingested signals mentioning address.
func (a *Agent) FilterByAddress(address string) []models.IntelSignal {
	return FilterByAddress(a.signals, address)
}

// Sources lists the ingested feed identifiers in ingestion order.
func (a *Agent) Sources() []string {
	sources := make([]string, 0, len(a.signals))
	for _, signal := range a.signals {
		sources = append(sources, signal.Source)
	}
	return sources
}
