package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Guilhem-Bonnet/radiko-planner/internal/domain"
	"github.com/Guilhem-Bonnet/radiko-planner/internal/ports"
)

// EntityManager instrumente un ports.EntityManager: un compteur et un
// histogramme de durée par opération, définition et résultat.
type EntityManager struct {
	next     ports.EntityManager
	ops      *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var _ ports.EntityManager = (*EntityManager)(nil)

func NewEntityManager(next ports.EntityManager, reg prometheus.Registerer) *EntityManager {
	m := &EntityManager{
		next: next,
		ops: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "radiko_entity_operations_total", Help: "Entity manager operations"},
			[]string{"op", "definition", "result"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "radiko_entity_operation_duration_seconds",
				Help:    "Entity manager operation time",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"op", "definition"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.ops, m.duration)
	}
	return m
}

func result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ports.ErrNotFound):
		return "not_found"
	case errors.Is(err, ports.ErrConflict):
		return "conflict"
	case errors.Is(err, ports.ErrLocked):
		return "locked"
	}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return "invalid"
	}
	return "error"
}

func (m *EntityManager) observe(op, def string, start time.Time, err error) {
	m.duration.WithLabelValues(op, def).Observe(time.Since(start).Seconds())
	m.ops.WithLabelValues(op, def, result(err)).Inc()
}

func defName(e *domain.Entity) string {
	if e == nil {
		return ""
	}
	return e.DefinitionName
}

func (m *EntityManager) Insert(ctx context.Context, e *domain.Entity, opt domain.InsertOption) (string, error) {
	start := time.Now()
	oid, err := m.next.Insert(ctx, e, opt)
	m.observe("insert", defName(e), start, err)
	return oid, err
}

func (m *EntityManager) Load(ctx context.Context, oid, definition string, opt domain.LoadOption) (*domain.Entity, error) {
	start := time.Now()
	e, err := m.next.Load(ctx, oid, definition, opt)
	m.observe("load", definition, start, err)
	return e, err
}

func (m *EntityManager) LoadAndLock(ctx context.Context, oid, definition string, opt domain.LoadOption) (*domain.Entity, error) {
	start := time.Now()
	e, err := m.next.LoadAndLock(ctx, oid, definition, opt)
	m.observe("load_and_lock", definition, start, err)
	return e, err
}

func (m *EntityManager) Unlock(ctx context.Context, oid, token string) error {
	start := time.Now()
	err := m.next.Unlock(ctx, oid, token)
	m.observe("unlock", "", start, err)
	return err
}

func (m *EntityManager) SearchEntity(ctx context.Context, q domain.Query, opt domain.SearchOption) (domain.SearchResult[*domain.Entity], error) {
	start := time.Now()
	res, err := m.next.SearchEntity(ctx, q, opt)
	m.observe("search_entity", q.From, start, err)
	return res, err
}

func (m *EntityManager) Search(ctx context.Context, q domain.Query, opt domain.SearchOption) (domain.SearchResult[[]any], error) {
	start := time.Now()
	res, err := m.next.Search(ctx, q, opt)
	m.observe("search", q.From, start, err)
	return res, err
}

func (m *EntityManager) Count(ctx context.Context, q domain.Query) (int, error) {
	start := time.Now()
	n, err := m.next.Count(ctx, q)
	m.observe("count", q.From, start, err)
	return n, err
}

func (m *EntityManager) Update(ctx context.Context, e *domain.Entity, opt domain.UpdateOption) error {
	start := time.Now()
	err := m.next.Update(ctx, e, opt)
	m.observe("update", defName(e), start, err)
	return err
}

func (m *EntityManager) Delete(ctx context.Context, e *domain.Entity, opt domain.DeleteOption) error {
	start := time.Now()
	err := m.next.Delete(ctx, e, opt)
	m.observe("delete", defName(e), start, err)
	return err
}

func (m *EntityManager) UpdateAll(ctx context.Context, cond domain.UpdateCondition) (int, error) {
	start := time.Now()
	n, err := m.next.UpdateAll(ctx, cond)
	m.observe("update_all", cond.Definition, start, err)
	return n, err
}

func (m *EntityManager) Validate(ctx context.Context, e *domain.Entity, properties ...string) (domain.ValidateResult, error) {
	start := time.Now()
	res, err := m.next.Validate(ctx, e, properties...)
	m.observe("validate", defName(e), start, err)
	return res, err
}
