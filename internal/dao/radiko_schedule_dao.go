package dao

import (
	"context"

	"github.com/Guilhem-Bonnet/radiko-planner/internal/domain"
	"github.com/Guilhem-Bonnet/radiko-planner/internal/ports"
)

type RadikoScheduleDao struct {
	*Dao[domain.RadikoSchedule]
}

func NewRadikoScheduleDao(em ports.EntityManager) *RadikoScheduleDao {
	return &RadikoScheduleDao{Dao: New(em, domain.RadikoScheduleDefinition, domain.AsRadikoSchedule)}
}

func (d *RadikoScheduleDao) ListAll(ctx context.Context, limit int) ([]domain.RadikoSchedule, error) {
	return d.SearchSelectAll(ctx, domain.Query{
		OrderBy: []domain.Sort{domain.Asc(domain.ScheduleWeekDay), domain.Asc(domain.ScheduleStartTime)},
		Limit:   limit,
	})
}

func (d *RadikoScheduleDao) FindByWeekDay(ctx context.Context, weekDay string) ([]domain.RadikoSchedule, error) {
	return d.SearchSelectAll(ctx, domain.Query{
		Where:   domain.Eq(domain.ScheduleWeekDay, weekDay),
		OrderBy: []domain.Sort{domain.Asc(domain.ScheduleStartTime)},
	})
}

func (d *RadikoScheduleDao) FindByStation(ctx context.Context, stationOID string) ([]domain.RadikoSchedule, error) {
	if stationOID == "" {
		return nil, nil
	}
	return d.SearchSelectAll(ctx, domain.Query{
		Where:   domain.Eq(domain.JoinPath(domain.ScheduleStation, domain.PropOID), stationOID),
		OrderBy: []domain.Sort{domain.Asc(domain.ScheduleWeekDay), domain.Asc(domain.ScheduleStartTime)},
	})
}
