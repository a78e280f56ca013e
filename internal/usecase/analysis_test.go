package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/example/deepfake-check/internal/detector"
	"github.com/example/deepfake-check/internal/logging"
	"github.com/example/deepfake-check/internal/repository"
	"github.com/example/deepfake-check/internal/storage"
)

type stubRepository struct {
	saved   []*repository.UploadRecord
	saveErr error
	agg     *repository.MetricsAggregation
	aggErr  error
}

func (s *stubRepository) SaveUpload(ctx context.Context, record *repository.UploadRecord) error {
	s.saved = append(s.saved, record)
	return s.saveErr
}

func (s *stubRepository) AggregateMetrics(ctx context.Context) (*repository.MetricsAggregation, error) {
	return s.agg, s.aggErr
}

type stubCache struct {
	setErrs   []error
	getErrs   []error
	getValues []string
	setKeys   []string
	setValues []interface{}
	getKeys   []string
}

func (s *stubCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	s.setKeys = append(s.setKeys, key)
	s.setValues = append(s.setValues, value)
	if len(s.setErrs) == 0 {
		return nil
	}
	err := s.setErrs[0]
	s.setErrs = s.setErrs[1:]
	return err
}

func (s *stubCache) Get(ctx context.Context, key string) (string, error) {
	s.getKeys = append(s.getKeys, key)
	var value string
	if len(s.getValues) > 0 {
		value = s.getValues[0]
		s.getValues = s.getValues[1:]
	}
	err := ErrCacheMiss
	if len(s.getErrs) > 0 {
		err = s.getErrs[0]
		s.getErrs = s.getErrs[1:]
	}
	return value, err
}

type stubDetector struct {
	result    detector.Result
	err       error
	calls     int
	mediaType string
}

func (s *stubDetector) Detect(ctx context.Context, mediaType string, image []byte) (detector.Result, error) {
	s.calls++
	s.mediaType = mediaType
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubStorage struct {
	keys    []string
	deleted []string
	err     error
}

func (s *stubStorage) Put(ctx context.Context, key string, data []byte, contentType string) (storage.Object, error) {
	if s.err != nil {
		return storage.Object{}, s.err
	}
	s.keys = append(s.keys, key)
	return storage.Object{Key: key, ContentType: contentType, Size: int64(len(data))}, nil
}

func (s *stubStorage) Delete(ctx context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	return nil
}

type transientRedisError struct{}

func (transientRedisError) Error() string   { return "redis transient" }
func (transientRedisError) Timeout() bool   { return true }
func (transientRedisError) Temporary() bool { return true }

// A 1x1 GIF, small enough to inline and sniffable as image/gif.
var gifImage = []byte("GIF89a\x01\x00\x01\x00\x80\x00\x00\x00\x00\x00\xff\xff\xff!\xf9\x04\x01\x00\x00\x00\x00,\x00\x00\x00\x00\x01\x00\x01\x00\x00\x02\x02D\x01\x00;")

func newUseCase(repo *stubRepository, cache Cache, det *stubDetector, store *stubStorage) *AnalysisUseCase {
	uc := NewAnalysisUseCase(repo, cache, det, store, time.Minute, zap.NewNop())
	uc.initialBackoff = time.Millisecond
	uc.maxBackoff = 2 * time.Millisecond
	return uc
}

func detectionResult() detector.Result {
	return detector.Result{
		"data":  []interface{}{map[string]interface{}{"bounding_boxes": []interface{}{}}},
		"image": "Zm9v",
	}
}

func TestAnalyzeCallsDetectorAndStoresImage(t *testing.T) {
	repo := &stubRepository{}
	cache := &stubCache{}
	det := &stubDetector{result: detectionResult()}
	store := &stubStorage{}
	uc := newUseCase(repo, cache, det, store)

	analysis, err := uc.Analyze(context.Background(), gifImage)
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if det.calls != 1 || det.mediaType != "image/gif" {
		t.Fatalf("expected one detector call with image/gif, got %d calls (%s)", det.calls, det.mediaType)
	}
	if _, ok := analysis.Result["image"]; ok {
		t.Fatal("expected image key to be stripped")
	}
	if analysis.CacheHit {
		t.Fatal("expected cache miss")
	}
	if len(store.keys) != 1 || !strings.HasPrefix(store.keys[0], "raw/") || !strings.HasSuffix(store.keys[0], ".gif") {
		t.Fatalf("unexpected object keys %v", store.keys)
	}
	if len(repo.saved) != 1 || repo.saved[0].RequestID != analysis.RequestID {
		t.Fatalf("expected upload record for %s, got %+v", analysis.RequestID, repo.saved)
	}
	if len(cache.setKeys) != 1 || !strings.HasPrefix(cache.setKeys[0], "detection:") {
		t.Fatalf("expected detection to be cached, got %v", cache.setKeys)
	}
	if strings.Contains(cache.setValues[0].(string), "Zm9v") {
		t.Fatal("expected cached value to omit the image")
	}
}

func TestAnalyzeUsesCachedDetection(t *testing.T) {
	cache := &stubCache{
		getValues: []string{`{"data":[{"bounding_boxes":[{"is_deepfake":0.9,"bbox_confidence":0.8}]}]}`},
		getErrs:   []error{nil},
	}
	det := &stubDetector{result: detectionResult()}
	repo := &stubRepository{}
	uc := newUseCase(repo, cache, det, &stubStorage{})

	analysis, err := uc.Analyze(context.Background(), gifImage)
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if det.calls != 0 {
		t.Fatalf("expected detector to be skipped, got %d calls", det.calls)
	}
	if !analysis.CacheHit || !repo.saved[0].CacheHit {
		t.Fatal("expected cache hit to be reported and recorded")
	}
}

func TestAnalyzeRetriesTransientCacheErrors(t *testing.T) {
	cache := &stubCache{setErrs: []error{transientRedisError{}}}
	det := &stubDetector{result: detectionResult()}
	uc := newUseCase(&stubRepository{}, cache, det, &stubStorage{})

	if _, err := uc.Analyze(context.Background(), gifImage); err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if len(cache.setKeys) != 2 {
		t.Fatalf("expected the cache write to be retried once, got %d calls", len(cache.setKeys))
	}
	if cache.setKeys[0] != cache.setKeys[1] {
		t.Fatalf("expected retry to target same key, got %s and %s", cache.setKeys[0], cache.setKeys[1])
	}
}

func TestAnalyzeSurvivesCacheFailure(t *testing.T) {
	cache := &stubCache{
		getErrs: []error{errors.New("connection refused")},
		setErrs: []error{errors.New("connection refused")},
	}
	det := &stubDetector{result: detectionResult()}
	uc := newUseCase(&stubRepository{}, cache, det, &stubStorage{})

	if _, err := uc.Analyze(context.Background(), gifImage); err != nil {
		t.Fatalf("expected cache errors to be tolerated, got %v", err)
	}
	if det.calls != 1 {
		t.Fatalf("expected detector fallback, got %d calls", det.calls)
	}
}

func TestAnalyzeWithoutCache(t *testing.T) {
	det := &stubDetector{result: detectionResult()}
	uc := newUseCase(&stubRepository{}, nil, det, &stubStorage{})

	if _, err := uc.Analyze(context.Background(), gifImage); err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
}

func TestAnalyzeReturnsOperationErrors(t *testing.T) {
	cases := []struct {
		name      string
		det       *stubDetector
		store     *stubStorage
		repo      *stubRepository
		operation string
	}{
		{
			name:      "detector",
			det:       &stubDetector{err: errors.New("upstream down")},
			store:     &stubStorage{},
			repo:      &stubRepository{},
			operation: "usecase.detect",
		},
		{
			name:      "storage",
			det:       &stubDetector{result: detectionResult()},
			store:     &stubStorage{err: errors.New("disk full")},
			repo:      &stubRepository{},
			operation: "usecase.store_image",
		},
		{
			name:      "repository",
			det:       &stubDetector{result: detectionResult()},
			store:     &stubStorage{},
			repo:      &stubRepository{saveErr: errors.New("db down")},
			operation: "usecase.save_upload",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			uc := newUseCase(tc.repo, &stubCache{}, tc.det, tc.store)

			_, err := uc.Analyze(context.Background(), gifImage)
			var opErr *logging.OperationError
			if !errors.As(err, &opErr) {
				t.Fatalf("expected OperationError, got %T", err)
			}
			if opErr.Operation != tc.operation {
				t.Fatalf("expected operation %s, got %s", tc.operation, opErr.Operation)
			}
		})
	}
}

func TestGetMetricsSummary(t *testing.T) {
	repo := &stubRepository{agg: &repository.MetricsAggregation{
		TotalCount:                 4,
		CacheHitCount:              1,
		TotalBytes:                 4096,
		AverageProcessingLatencyMs: 120,
	}}
	uc := newUseCase(repo, nil, &stubDetector{}, &stubStorage{})

	summary, err := uc.GetMetricsSummary(context.Background())
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if summary.CacheHitRate != 0.25 || summary.TotalUploads != 4 || summary.TotalBytes != 4096 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestAnalyzeRemovesRawImageWhenRecordFails(t *testing.T) {
	store := &stubStorage{}
	repo := &stubRepository{saveErr: errors.New("db down")}
	uc := newUseCase(repo, &stubCache{}, &stubDetector{result: detectionResult()}, store)

	if _, err := uc.Analyze(context.Background(), gifImage); err == nil {
		t.Fatal("expected error")
	}
	if len(store.keys) != 1 || len(store.deleted) != 1 || store.deleted[0] != store.keys[0] {
		t.Fatalf("expected stored object %v to be deleted, got %v", store.keys, store.deleted)
	}
}

func TestAnalyzeStripsImageFromCachedDetection(t *testing.T) {
	cache := &stubCache{
		getValues: []string{`{"data":[],"image":"Zm9v"}`},
		getErrs:   []error{nil},
	}
	uc := newUseCase(&stubRepository{}, cache, &stubDetector{}, &stubStorage{})

	analysis, err := uc.Analyze(context.Background(), gifImage)
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if _, ok := analysis.Result["image"]; ok {
		t.Fatal("expected image key to be stripped from cached detection")
	}
	if len(cache.setKeys) != 0 {
		t.Fatalf("expected cache hit not to be rewritten, got %v", cache.setKeys)
	}
}
