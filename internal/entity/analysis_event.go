package entity

import "time"

// AnalysisEvent records one completed comparison run for the dashboard
// activity feed. It carries no session or chat state.
type AnalysisEvent struct {
	SymbolA   string    `json:"symbol_a"`
	SymbolB   string    `json:"symbol_b"`
	Narrative string    `json:"narrative"`
	Model     string    `json:"model"`
	Timestamp time.Time `json:"timestamp"`
}

// AnalysisEventRecord pairs an event with its log index so stream consumers
// can resume from the last index they saw.
type AnalysisEventRecord struct {
	Index uint64        `json:"index"`
	Event AnalysisEvent `json:"event"`
}
