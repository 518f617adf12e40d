// Package core exposes the transactional write path and the read facade of
// the catalogue on top of a domain.ResultStore.
package core

import (
	"context"
	"errors"
	"time"

	"hicdata/pkg/domain"
)

// Service wraps a result store with logging and metrics. It owns no store
// lifecycle: the caller opens the store, passes it by reference and closes
// it when done.
type Service struct {
	store   domain.ResultStore
	log     Logger
	metrics MetricsRecorder
}

// Option configures a Service.
type Option func(*Service)

// WithLogger attaches a structured logger.
func WithLogger(l Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// NewService constructs a service backed by the supplied store.
func NewService(store domain.ResultStore, opts ...Option) *Service {
	s := &Service{store: store, log: noopLogger{}, metrics: noopMetrics{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SaveResult persists a constructed entity and returns its result id.
func (s *Service) SaveResult(ctx context.Context, entity domain.ObservableEntity) (int64, error) {
	start := time.Now()
	id, err := s.store.Save(ctx, entity)
	s.metrics.ObserveDuration("save", time.Since(start))
	if err != nil {
		s.metrics.RecordResult("save", StatusError)
		s.log.Error("save result failed",
			"observable", entity.ShortName,
			"system", entity.System.Name,
			"collaboration", entity.Collaboration,
			"err", err)
		return 0, err
	}
	s.metrics.RecordResult("save", StatusOK)
	s.log.Info("saved result",
		"observable", entity.ShortName,
		"system", entity.System.Name,
		"collaboration", entity.Collaboration,
		"result_id", id)
	return id, nil
}

// Observable returns every stored measurement of the named observable.
func (s *Service) Observable(ctx context.Context, shortName string) ([]domain.ObservableEntity, error) {
	start := time.Now()
	entities, err := s.store.LoadAll(ctx, shortName)
	s.metrics.ObserveDuration("load", time.Since(start))
	switch {
	case err == nil:
		s.metrics.RecordResult("load", StatusOK)
	case isNotFound(err):
		s.metrics.RecordResult("load", StatusNotFound)
	default:
		s.metrics.RecordResult("load", StatusError)
		s.log.Error("load failed", "observable", shortName, "err", err)
	}
	return entities, err
}

// ObservableBy returns the single measurement identified by the natural
// (system, collaboration, arXiv) triple.
func (s *Service) ObservableBy(ctx context.Context, shortName, system, collaboration, arXiv string) (domain.ObservableEntity, error) {
	start := time.Now()
	entity, err := s.store.Load(ctx, shortName, system, collaboration, arXiv)
	s.metrics.ObserveDuration("load", time.Since(start))
	switch {
	case err == nil:
		s.metrics.RecordResult("load", StatusOK)
	case isNotFound(err):
		s.metrics.RecordResult("load", StatusNotFound)
	default:
		s.metrics.RecordResult("load", StatusError)
		s.log.Error("load failed", "observable", shortName, "err", err)
	}
	return entity, err
}

func isNotFound(err error) bool {
	var nf domain.NotFoundError
	return errors.As(err, &nf)
}
