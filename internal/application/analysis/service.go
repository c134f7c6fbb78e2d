package analysis

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/stoolscan/internal/application"
	domain "github.com/bryanwahyu/stoolscan/internal/domain/analysis"
)

// Recorder receives counters for the fallback paths
type Recorder interface {
	AnalysisCompleted()
	ModelFallback()
	StoreFailure()
	HistoryFallback()
}

type noopRecorder struct{}

func (noopRecorder) AnalysisCompleted() {}
func (noopRecorder) ModelFallback()     {}
func (noopRecorder) StoreFailure()      {}
func (noopRecorder) HistoryFallback()   {}

// Service implements use-cases untuk analyze dan history.
// It holds no mutable state and is safe for concurrent use.
type Service struct {
	Model   domain.Model
	Repo    domain.Repository
	Archive domain.ImageArchive // optional
	Clock   application.Clock
	Metrics Recorder

	// MaskModelErrors replaces model failures with domain.FallbackRecord.
	MaskModelErrors bool
	// MaskStoreErrors replaces history query failures with domain.MockHistory.
	MaskStoreErrors bool
}

// Analyze sends img to the model and best-effort persists the result. Persistence
// failures never change the returned record.
func (s *Service) Analyze(ctx context.Context, img domain.Image) (domain.Record, error) {
	rec, err := s.describe(ctx, img)
	if err != nil {
		if rec, err = s.fallback(err); err != nil {
			return domain.Record{}, err
		}
	}

	entry := s.persist(ctx, rec)
	s.archive(ctx, entry, img)

	s.metrics().AnalysisCompleted()
	return rec, nil
}

// AnalyzeUndecodable handles an upload whose payload could not be decoded into image
// bytes. With model errors masked it ends like a failed model call: the fallback
// record is stored and returned. Otherwise cause is returned unchanged.
func (s *Service) AnalyzeUndecodable(ctx context.Context, cause error) (domain.Record, error) {
	if !s.MaskModelErrors {
		return domain.Record{}, cause
	}
	rec, _ := s.fallback(cause)
	s.persist(ctx, rec)

	s.metrics().AnalysisCompleted()
	return rec, nil
}

func (s *Service) fallback(cause error) (domain.Record, error) {
	if !s.MaskModelErrors {
		return domain.Record{}, fmt.Errorf("%w: %w", domain.ErrModelUnavailable, cause)
	}
	log.Printf("analyze: model failed, using fallback record: %v", cause)
	s.metrics().ModelFallback()
	return domain.FallbackRecord(), nil
}

func (s *Service) persist(ctx context.Context, rec domain.Record) *domain.HistoryEntry {
	entry := &domain.HistoryEntry{
		ID:       domain.EntryID(uuid.New().String()),
		Date:     s.now().UTC(),
		Analysis: rec,
	}
	if err := s.Repo.Save(ctx, entry); err != nil {
		log.Printf("analyze: save history entry=%s failed: %v", entry.ID, err)
		s.metrics().StoreFailure()
	}
	return entry
}

// History lists stored entries within f, newest first.
func (s *Service) History(ctx context.Context, f domain.HistoryFilter) ([]domain.HistoryEntry, error) {
	entries, err := s.Repo.List(ctx, f)
	if err != nil {
		if !s.MaskStoreErrors {
			return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
		}
		log.Printf("history: query failed, returning mock data: %v", err)
		s.metrics().HistoryFallback()
		return domain.MockHistory(s.now()), nil
	}
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}
	return entries, nil
}

// HistoryFallback is used by callers that fail before reaching the store, e.g. on
// unparseable date bounds, so they degrade the same way a failed query does.
func (s *Service) HistoryFallback(cause error) ([]domain.HistoryEntry, error) {
	if !s.MaskStoreErrors {
		return nil, cause
	}
	log.Printf("history: %v, returning mock data", cause)
	s.metrics().HistoryFallback()
	return domain.MockHistory(s.now()), nil
}

func (s *Service) describe(ctx context.Context, img domain.Image) (domain.Record, error) {
	text, err := s.Model.Describe(ctx, img)
	if err != nil {
		return domain.Record{}, err
	}
	return domain.ParseModelReply(text)
}

// archive simpan gambar asli ke uploads/YYYY/MM/DD/<id><ext>
func (s *Service) archive(ctx context.Context, e *domain.HistoryEntry, img domain.Image) {
	if s.Archive == nil {
		return
	}
	key := fmt.Sprintf("uploads/%s/%s%s", e.Date.Format("2006/01/02"), e.ID, img.Ext())
	if _, err := s.Archive.Put(ctx, key, img); err != nil {
		log.Printf("analyze: archive image key=%s failed: %v", key, err)
		s.metrics().StoreFailure()
	}
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock.Now()
}

func (s *Service) metrics() Recorder {
	if s.Metrics == nil {
		return noopRecorder{}
	}
	return s.Metrics
}
