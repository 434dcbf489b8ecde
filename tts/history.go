package tts

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// HistoryEntry is the record pushed to the history store once per
// successfully completed job.
type HistoryEntry struct {
	ID         string
	Provider   string
	VoiceID    string
	Text       string
	CreatedAt  time.Time
	Duration   time.Duration
	Transcript string
}

// HistoryRecorder persists completed generations. Recording is best-effort:
// the scheduler logs failures and leaves the job completed.
type HistoryRecorder interface {
	Record(ctx context.Context, entry HistoryEntry) error
}

// NopRecorder discards every entry.
type NopRecorder struct{}

// Record implements HistoryRecorder.
func (NopRecorder) Record(context.Context, HistoryEntry) error { return nil }

// LogRecorder writes entries to a structured logger. It is the default sink
// for standalone runs where no durable history store is attached.
type LogRecorder struct {
	Logger *log.Logger
}

// Record implements HistoryRecorder.
func (r LogRecorder) Record(_ context.Context, entry HistoryEntry) error {
	logger := r.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger.Info("history: generation recorded",
		"id", entry.ID,
		"provider", entry.Provider,
		"voice", entry.VoiceID,
		"duration", entry.Duration,
		"chars", len(entry.Text))
	return nil
}
