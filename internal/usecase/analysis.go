package usecase

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/deepfake-check/internal/dataurl"
	"github.com/example/deepfake-check/internal/detector"
	"github.com/example/deepfake-check/internal/logging"
	"github.com/example/deepfake-check/internal/repository"
	"github.com/example/deepfake-check/internal/storage"
)

// UploadRepository defines the persistence operations needed by the use case.
type UploadRepository interface {
	SaveUpload(ctx context.Context, record *repository.UploadRecord) error
	AggregateMetrics(ctx context.Context) (*repository.MetricsAggregation, error)
}

// AnalysisUseCase runs one uploaded image through detection and keeps the
// raw image.
type AnalysisUseCase struct {
	repo           UploadRepository
	cache          Cache
	detector       detector.Client
	storage        storage.Storage
	logger         *zap.Logger
	cacheTTL       time.Duration
	retryAttempts  int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	now            func() time.Time
}

// Analysis is the outcome handed back to the HTTP layer.
type Analysis struct {
	RequestID string
	ObjectKey string
	Result    detector.Result
	CacheHit  bool
}

// NewAnalysisUseCase constructs a new use case instance.
func NewAnalysisUseCase(repo UploadRepository, cache Cache, det detector.Client, store storage.Storage, cacheTTL time.Duration, logger *zap.Logger) *AnalysisUseCase {
	return &AnalysisUseCase{
		repo:           repo,
		cache:          cache,
		detector:       det,
		storage:        store,
		logger:         logger.Named("analysis_usecase"),
		cacheTTL:       cacheTTL,
		retryAttempts:  3,
		initialBackoff: 50 * time.Millisecond,
		maxBackoff:     time.Second,
		now:            time.Now,
	}
}

// Analyze detects faces in image, stores the raw bytes and records the upload.
// Identical images within the cache TTL reuse the cached detection.
func (uc *AnalysisUseCase) Analyze(ctx context.Context, image []byte) (*Analysis, error) {
	started := uc.now()
	requestID := uuid.NewString()
	opLogger := logging.WithOperation(uc.logger, "usecase.analyze", requestID)

	hash := sha1.Sum(image)
	hashHex := hex.EncodeToString(hash[:])
	mediaType, ext := dataurl.Sniff(image)
	cacheKey := fmt.Sprintf("detection:%s", hashHex)

	result, cacheHit := uc.cachedResult(ctx, requestID, cacheKey)
	if !cacheHit {
		var err error
		result, err = uc.detector.Detect(ctx, mediaType, image)
		if err != nil {
			wrapped := logging.NewOperationError("usecase.detect", requestID, err)
			opLogger.Error("detection failed", zap.Error(wrapped))
			return nil, wrapped
		}
	}
	// Entries cached before the image key was dropped still carry it.
	result = result.StripImage()
	if !cacheHit {
		uc.storeResult(ctx, requestID, cacheKey, result)
	}

	objectKey := fmt.Sprintf("raw/%s%s", uuid.NewString(), ext)
	obj, err := uc.storage.Put(ctx, objectKey, image, mediaType)
	if err != nil {
		wrapped := logging.NewOperationError("usecase.store_image", requestID, err)
		opLogger.Error("failed to store raw image", zap.Error(wrapped))
		return nil, wrapped
	}

	finished := uc.now()
	record := &repository.UploadRecord{
		RequestID:           requestID,
		ObjectKey:           obj.Key,
		SHA1Hash:            hashHex,
		ContentType:         obj.ContentType,
		SizeBytes:           obj.Size,
		ProcessingLatencyMs: finished.Sub(started).Milliseconds(),
		CacheHit:            cacheHit,
		CreatedAt:           finished.UTC(),
	}
	if err := uc.repo.SaveUpload(ctx, record); err != nil {
		wrapped := logging.NewOperationError("usecase.save_upload", requestID, err)
		opLogger.Error("failed to persist upload record", zap.Error(wrapped))
		if delErr := uc.storage.Delete(context.WithoutCancel(ctx), obj.Key); delErr != nil {
			opLogger.Warn("failed to remove orphaned raw image", zap.String("object_key", obj.Key), zap.Error(delErr))
		}
		return nil, wrapped
	}

	opLogger.Info("analysis complete",
		zap.String("object_key", obj.Key),
		zap.Bool("cache_hit", cacheHit),
		zap.Int64("latency_ms", record.ProcessingLatencyMs),
	)
	return &Analysis{RequestID: requestID, ObjectKey: obj.Key, Result: result, CacheHit: cacheHit}, nil
}

// cachedResult never fails the request: cache trouble only costs a detector
// call.
func (uc *AnalysisUseCase) cachedResult(ctx context.Context, requestID, cacheKey string) (detector.Result, bool) {
	if uc.cache == nil {
		return nil, false
	}
	opLogger := logging.WithOperation(uc.logger, "cache.get.detection", requestID)

	cached, err := uc.withRedisGet(ctx, requestID, "cache.get.detection", cacheKey)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			opLogger.Warn("failed to read cache", zap.Error(err))
		}
		return nil, false
	}

	var result detector.Result
	if err := json.Unmarshal([]byte(cached), &result); err != nil || result == nil {
		opLogger.Warn("failed to decode cached detection", zap.Error(err))
		return nil, false
	}
	return result, true
}

func (uc *AnalysisUseCase) storeResult(ctx context.Context, requestID, cacheKey string, result detector.Result) {
	if uc.cache == nil {
		return
	}
	opLogger := logging.WithOperation(uc.logger, "cache.set.detection", requestID)

	serialized, err := json.Marshal(result)
	if err != nil {
		opLogger.Warn("failed to serialize detection", zap.Error(err))
		return
	}
	if err := uc.withRedisRetry(ctx, requestID, "cache.set.detection", func() error {
		return uc.cache.Set(ctx, cacheKey, string(serialized), uc.cacheTTL)
	}); err != nil {
		opLogger.Warn("failed to cache detection", zap.Error(err))
	}
}

func (uc *AnalysisUseCase) withRedisRetry(ctx context.Context, requestID, operation string, fn func() error) error {
	if uc.retryAttempts <= 1 {
		return logging.NewOperationError(operation, requestID, fn())
	}

	backoff := uc.initialBackoff
	opLogger := logging.WithOperation(uc.logger, operation, requestID)
	var err error
	for attempt := 0; attempt < uc.retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return logging.NewOperationError(operation, requestID, ctx.Err())
			case <-time.After(backoff):
			}
			if next := backoff * 2; next <= uc.maxBackoff {
				backoff = next
			}
		}

		err = fn()
		if err == nil {
			if attempt > 0 {
				opLogger.Info("redis operation succeeded after retry", zap.Int("attempt", attempt+1))
			}
			return nil
		}

		if !repository.IsTransientError(err) || attempt == uc.retryAttempts-1 {
			return logging.NewOperationError(operation, requestID, err)
		}

		opLogger.Warn("transient redis error", zap.Error(err), zap.Int("attempt", attempt+1))
	}
	return logging.NewOperationError(operation, requestID, err)
}

func (uc *AnalysisUseCase) withRedisGet(ctx context.Context, requestID, operation, cacheKey string) (string, error) {
	var result string
	err := uc.withRedisRetry(ctx, requestID, operation, func() error {
		value, err := uc.cache.Get(ctx, cacheKey)
		if err != nil {
			return err
		}
		result = value
		return nil
	})
	if err != nil {
		return "", err
	}
	return result, nil
}
