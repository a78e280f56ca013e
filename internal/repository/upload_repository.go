package repository

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/deepfake-check/internal/logging"
)

// UploadRecord describes a raw image kept in storage. Verdicts are not
// persisted.
type UploadRecord struct {
	ID                  uint      `gorm:"primaryKey"`
	RequestID           string    `gorm:"column:request_id;uniqueIndex;size:64"`
	ObjectKey           string    `gorm:"column:object_key;size:255"`
	SHA1Hash            string    `gorm:"column:sha1_hash;index;size:40"`
	ContentType         string    `gorm:"column:content_type;size:64"`
	SizeBytes           int64     `gorm:"column:size_bytes"`
	ProcessingLatencyMs int64     `gorm:"column:processing_latency_ms"`
	CacheHit            bool      `gorm:"column:cache_hit"`
	CreatedAt           time.Time `gorm:"column:created_at"`
}

// TableName overrides the default table name.
func (UploadRecord) TableName() string {
	return "upload_records"
}

// MetricsAggregation is the raw result of the metrics query.
type MetricsAggregation struct {
	TotalCount                 int64
	CacheHitCount              int64
	TotalBytes                 int64
	AverageProcessingLatencyMs float64
}

// UploadRepository provides persistence APIs for upload records.
type UploadRepository struct {
	db             *gorm.DB
	logger         *zap.Logger
	retryAttempts  int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// NewUploadRepository creates a new repository instance.
func NewUploadRepository(db *gorm.DB, logger *zap.Logger) *UploadRepository {
	return &UploadRepository{
		db:             db,
		logger:         logger.Named("upload_repository"),
		retryAttempts:  3,
		initialBackoff: 50 * time.Millisecond,
		maxBackoff:     time.Second,
	}
}

// AutoMigrate ensures the schema is available.
func (r *UploadRepository) AutoMigrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&UploadRecord{})
}

// SaveUpload persists an upload record.
func (r *UploadRepository) SaveUpload(ctx context.Context, record *UploadRecord) error {
	return r.executeWithRetry(ctx, "repository.save_upload", record.RequestID, func() error {
		return r.db.WithContext(ctx).Create(record).Error
	})
}

// AggregateMetrics summarizes all stored uploads.
func (r *UploadRepository) AggregateMetrics(ctx context.Context) (*MetricsAggregation, error) {
	var agg MetricsAggregation
	err := r.executeWithRetry(ctx, "repository.aggregate_metrics", "", func() error {
		return r.db.WithContext(ctx).
			Model(&UploadRecord{}).
			Select("COUNT(*) AS total_count, " +
				"COALESCE(SUM(CASE WHEN cache_hit THEN 1 ELSE 0 END), 0) AS cache_hit_count, " +
				"COALESCE(SUM(size_bytes), 0) AS total_bytes, " +
				"COALESCE(AVG(processing_latency_ms), 0) AS average_processing_latency_ms").
			Scan(&agg).Error
	})
	if err != nil {
		return nil, err
	}
	return &agg, nil
}

func (r *UploadRepository) executeWithRetry(ctx context.Context, operation, requestID string, fn func() error) error {
	opLogger := logging.WithOperation(r.logger, operation, requestID)
	backoff := r.initialBackoff
	attempts := r.retryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return logging.NewOperationError(operation, requestID, ctx.Err())
			case <-time.After(backoff):
			}
			if next := backoff * 2; next <= r.maxBackoff {
				backoff = next
			}
		}

		err = fn()
		if err == nil {
			if attempt > 0 {
				opLogger.Info("database operation succeeded after retry", zap.Int("attempt", attempt+1))
			}
			return nil
		}
		if !IsTransientError(err) {
			break
		}
		opLogger.Warn("transient database error", zap.Error(err), zap.Int("attempt", attempt+1))
	}

	opLogger.Error("database operation failed", zap.Error(err))
	return logging.NewOperationError(operation, requestID, err)
}

// IsTransientError reports whether err is worth retrying: deadline
// expiries and errors that declare themselves timeouts or temporary.
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var temporary interface{ Temporary() bool }
	if errors.As(err, &temporary) && temporary.Temporary() {
		return true
	}

	return false
}
