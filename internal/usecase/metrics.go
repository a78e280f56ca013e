package usecase

import "context"

// MetricsSummary reports how the upload endpoint has been used.
type MetricsSummary struct {
	TotalUploads               int64   `json:"total_uploads"`
	CacheHits                  int64   `json:"cache_hits"`
	CacheHitRate               float64 `json:"cache_hit_rate"`
	TotalBytes                 int64   `json:"total_bytes"`
	AverageProcessingLatencyMs float64 `json:"average_processing_latency_ms"`
}

// GetMetricsSummary aggregates upload metrics from persisted records.
func (uc *AnalysisUseCase) GetMetricsSummary(ctx context.Context) (*MetricsSummary, error) {
	aggregation, err := uc.repo.AggregateMetrics(ctx)
	if err != nil {
		return nil, err
	}

	summary := &MetricsSummary{
		TotalUploads:               aggregation.TotalCount,
		CacheHits:                  aggregation.CacheHitCount,
		TotalBytes:                 aggregation.TotalBytes,
		AverageProcessingLatencyMs: aggregation.AverageProcessingLatencyMs,
	}

	if aggregation.TotalCount > 0 {
		summary.CacheHitRate = float64(aggregation.CacheHitCount) / float64(aggregation.TotalCount)
	}

	return summary, nil
}
