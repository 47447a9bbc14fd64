package metrics

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Guilhem-Bonnet/radiko-planner/internal/domain"
	"github.com/Guilhem-Bonnet/radiko-planner/internal/ports"
)

// stubManager ne fait rien, sauf Load qui échoue.
type stubManager struct{ ports.EntityManager }

func (stubManager) Insert(context.Context, *domain.Entity, domain.InsertOption) (string, error) {
	return "oid", nil
}

func (stubManager) Load(context.Context, string, string, domain.LoadOption) (*domain.Entity, error) {
	return nil, ports.ErrNotFound
}

func (stubManager) UpdateAll(context.Context, domain.UpdateCondition) (int, error) {
	return 0, &domain.ValidationError{Definition: "d"}
}

func counterValue(t *testing.T, reg *prometheus.Registry, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != "radiko_entity_operations_total" {
			continue
		}
	next:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					continue next
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestEntityManager_CountsByResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	em := NewEntityManager(stubManager{}, reg)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := em.Insert(ctx, domain.NewEntity(domain.RadikoStationDefinition), domain.InsertOption{}); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}
	if _, err := em.Load(ctx, "x", domain.RadikoProgramDefinition, domain.LoadOption{}); err == nil {
		t.Fatalf("Load should fail")
	}
	if _, err := em.UpdateAll(ctx, domain.UpdateCondition{Definition: domain.RadikoProgramDefinition}); err == nil {
		t.Fatalf("UpdateAll should fail")
	}

	cases := []struct {
		labels map[string]string
		want   float64
	}{
		{map[string]string{"op": "insert", "definition": domain.RadikoStationDefinition, "result": "ok"}, 2},
		{map[string]string{"op": "load", "definition": domain.RadikoProgramDefinition, "result": "not_found"}, 1},
		{map[string]string{"op": "update_all", "definition": domain.RadikoProgramDefinition, "result": "invalid"}, 1},
	}
	for _, tc := range cases {
		if got := counterValue(t, reg, tc.labels); got != tc.want {
			t.Fatalf("%v: want %v, got %v", tc.labels, tc.want, got)
		}
	}
}
