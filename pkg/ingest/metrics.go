package ingest

import (
	"sync"
	"time"
)

// TimingMetrics accumulates per-stage elapsed seconds for one pipeline run.
// Starting a stage twice overwrites the previous start; a duration is only
// finalized once its matching start was recorded.
type TimingMetrics struct {
	mu       sync.Mutex
	begun    time.Time
	starts   map[string]time.Time
	Elapsed  map[string]float64
	TotalSec float64
}

// Stage names recorded by the pipeline.
const (
	StageValidation = "validation"
	StageDownload   = "download"
	StageLoading    = "loading"
	StageChunking   = "chunking"
	StageEmbedding  = "embedding"
	StageUpload     = "upload"
)

func NewTimingMetrics() *TimingMetrics {
	return &TimingMetrics{
		begun:   time.Now(),
		starts:  map[string]time.Time{},
		Elapsed: map[string]float64{},
	}
}

func (m *TimingMetrics) Start(stage string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.starts[stage] = time.Now()
}

// End finalizes a stage, adding to any prior elapsed time for the stage.
// Ending a stage that was never started is a no-op.
func (m *TimingMetrics) End(stage string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	start, ok := m.starts[stage]
	if !ok {
		return 0
	}
	delete(m.starts, stage)

	elapsed := time.Since(start).Seconds()
	m.Elapsed[stage] += elapsed
	return elapsed
}

// AddElapsed accounts time measured outside Start/End, used by the
// concurrent embedding stage.
func (m *TimingMetrics) AddElapsed(stage string, seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Elapsed[stage] += seconds
}

// Finish records the wall-clock total since the metrics were created.
func (m *TimingMetrics) Finish() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TotalSec = time.Since(m.begun).Seconds()
}

// Summary snapshots all finalized stage durations plus the total.
func (m *TimingMetrics) Summary() map[string]float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]float64, len(m.Elapsed)+1)
	for stage, secs := range m.Elapsed {
		out[stage] = secs
	}
	out["total"] = m.TotalSec
	return out
}

// PerformanceStats are throughput figures derived from a finished run.
type PerformanceStats struct {
	ChunksPerSecond    float64            `json:"chunks_per_second"`
	DocumentsPerSecond float64            `json:"documents_per_second"`
	BytesPerSecond     float64            `json:"bytes_per_second"`
	AverageChunksPerDoc float64           `json:"average_chunks_per_doc"`
	TimingBreakdown    map[string]float64 `json:"timing_breakdown"`
}

// computeStats guards every ratio against a zero denominator.
func computeStats(m *TimingMetrics, totalChunks, processedDocs int, totalBytes int64) PerformanceStats {
	stats := PerformanceStats{TimingBreakdown: m.Summary()}
	if m.TotalSec > 0 {
		stats.ChunksPerSecond = float64(totalChunks) / m.TotalSec
		stats.DocumentsPerSecond = float64(processedDocs) / m.TotalSec
		stats.BytesPerSecond = float64(totalBytes) / m.TotalSec
	}
	if processedDocs > 0 {
		stats.AverageChunksPerDoc = float64(totalChunks) / float64(processedDocs)
	}
	return stats
}
