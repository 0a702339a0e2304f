package pipeline

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sales-etl/pkg/cleaner"
)

// StageMetrics tracks row movement through a single pipeline stage.
type StageMetrics struct {
	Stage    string
	RowsIn   int
	RowsOut  int
	Dropped  int
	Repaired int
	Duration time.Duration
}

// RunMetrics tracks metrics for one pipeline run.
type RunMetrics struct {
	mu            sync.Mutex
	logger        *zap.Logger
	RunID         string
	StartTime     time.Time
	EndTime       time.Time
	Stages        []StageMetrics
	TotalDropped  int
	TotalRepaired int
	FactRows      int
	ErrorCounts   map[ErrorCategory]int
}

// NewRunMetrics creates a metrics tracker with a fresh run ID.
func NewRunMetrics(logger *zap.Logger) *RunMetrics {
	return &RunMetrics{
		logger:      logger,
		RunID:       uuid.New().String(),
		StartTime:   time.Now(),
		ErrorCounts: make(map[ErrorCategory]int),
	}
}

// RecordStage appends a generic stage measurement.
func (m *RunMetrics) RecordStage(stage string, rowsIn, rowsOut int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Stages = append(m.Stages, StageMetrics{
		Stage:    stage,
		RowsIn:   rowsIn,
		RowsOut:  rowsOut,
		Duration: duration,
	})

	if m.logger != nil {
		m.logger.Info("Stage completed",
			zap.String("run_id", m.RunID),
			zap.String("stage", stage),
			zap.Int("rows_in", rowsIn),
			zap.Int("rows_out", rowsOut),
			zap.Duration("duration", duration))
	}
}

// RecordCleaningStage appends a cleaning stage measurement from its report.
func (m *RunMetrics) RecordCleaningStage(report *cleaner.Report, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Stages = append(m.Stages, StageMetrics{
		Stage:    "clean_" + report.Dataset,
		RowsIn:   report.RowsIn,
		RowsOut:  report.RowsOut,
		Dropped:  report.Dropped,
		Repaired: report.Repaired,
		Duration: duration,
	})
	m.TotalDropped += report.Dropped
	m.TotalRepaired += report.Repaired

	if m.logger != nil {
		m.logger.Info("Cleaning stage completed",
			zap.String("run_id", m.RunID),
			zap.String("dataset", report.Dataset),
			zap.Int("rows_in", report.RowsIn),
			zap.Int("rows_out", report.RowsOut),
			zap.Int("dropped", report.Dropped),
			zap.Int("repaired", report.Repaired),
			zap.Duration("duration", duration))
	}
}

// RecordError increments the count for a specific error category.
func (m *RunMetrics) RecordError(category ErrorCategory) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ErrorCounts[category]++
}

// Finish marks the run as complete.
func (m *RunMetrics) Finish(factRows int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EndTime = time.Now()
	m.FactRows = factRows
}

// Duration returns the total duration of the run so far.
func (m *RunMetrics) Duration() time.Duration {
	if m.EndTime.IsZero() {
		return time.Since(m.StartTime)
	}
	return m.EndTime.Sub(m.StartTime)
}

// Summary renders a plain-text report of the run.
func (m *RunMetrics) Summary() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Run %s\n", m.RunID))
	sb.WriteString(fmt.Sprintf("Duration: %v\n", m.durationLocked()))
	sb.WriteString("\nStages:\n")
	for _, s := range m.Stages {
		sb.WriteString(fmt.Sprintf("  %-16s in=%-8d out=%-8d dropped=%-6d repaired=%-6d %v\n",
			s.Stage, s.RowsIn, s.RowsOut, s.Dropped, s.Repaired, s.Duration.Round(time.Millisecond)))
	}
	sb.WriteString(fmt.Sprintf("\nFact rows written: %d\n", m.FactRows))
	sb.WriteString(fmt.Sprintf("Total dropped: %d, total repaired: %d\n", m.TotalDropped, m.TotalRepaired))

	if len(m.ErrorCounts) > 0 {
		sb.WriteString("\nErrors:\n")
		for category, count := range m.ErrorCounts {
			sb.WriteString(fmt.Sprintf("  %s: %d\n", category, count))
		}
	}
	return sb.String()
}

func (m *RunMetrics) durationLocked() time.Duration {
	if m.EndTime.IsZero() {
		return time.Since(m.StartTime)
	}
	return m.EndTime.Sub(m.StartTime)
}

// LogSummary emits the run totals through the structured logger.
func (m *RunMetrics) LogSummary() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.logger == nil {
		return
	}
	m.logger.Info("Run completed",
		zap.String("run_id", m.RunID),
		zap.Duration("duration", m.durationLocked()),
		zap.Int("stages", len(m.Stages)),
		zap.Int("fact_rows", m.FactRows),
		zap.Int("total_dropped", m.TotalDropped),
		zap.Int("total_repaired", m.TotalRepaired))
}
