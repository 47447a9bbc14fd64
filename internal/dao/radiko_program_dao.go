package dao

import (
	"context"
	"time"

	"github.com/Guilhem-Bonnet/radiko-planner/internal/domain"
	"github.com/Guilhem-Bonnet/radiko-planner/internal/ports"
)

type RadikoProgramDao struct {
	*Dao[domain.RadikoProgram]
}

func NewRadikoProgramDao(em ports.EntityManager) *RadikoProgramDao {
	return &RadikoProgramDao{Dao: New(em, domain.RadikoProgramDefinition, domain.AsRadikoProgram)}
}

// FindBetweenStartDate renvoie les programmes réservés dont le début est dans [from, to].
func (d *RadikoProgramDao) FindBetweenStartDate(ctx context.Context, from, to time.Time) ([]domain.RadikoProgram, error) {
	q := domain.Query{
		Select: []string{
			domain.JoinPath(domain.ProgramParentSchedule, domain.PropOID),
			domain.JoinPath(domain.ProgramRadikoStation, domain.StationCallSign),
			domain.JoinPath(domain.ProgramRadikoStation, domain.StationStationName),
			domain.ProgramProgramName,
			domain.ProgramStartDatetime,
			domain.ProgramNote,
			domain.ProgramRadikoURL,
			domain.ProgramDeadline,
			domain.ProgramListenStatus,
		},
		Where:   domain.Between(domain.ProgramStartDatetime, from, to),
		OrderBy: []domain.Sort{domain.Asc(domain.ProgramStartDatetime)},
	}
	return d.Search(ctx, q)
}

func (d *RadikoProgramDao) FindBySchedule(ctx context.Context, scheduleOID string) ([]domain.RadikoProgram, error) {
	if scheduleOID == "" {
		return nil, nil
	}
	return d.SearchSelectAll(ctx, domain.Query{
		Where:   domain.Eq(domain.JoinPath(domain.ProgramParentSchedule, domain.PropOID), scheduleOID),
		OrderBy: []domain.Sort{domain.Asc(domain.ProgramStartDatetime)},
	})
}

// FindByScheduleAndStart renvoie l'occurrence d'un schedule à une date donnée, si elle existe.
func (d *RadikoProgramDao) FindByScheduleAndStart(ctx context.Context, scheduleOID string, start time.Time) (domain.RadikoProgram, error) {
	return d.SearchOneSelectAll(ctx, domain.Query{
		Where: domain.And(
			domain.Eq(domain.JoinPath(domain.ProgramParentSchedule, domain.PropOID), scheduleOID),
			domain.Eq(domain.ProgramStartDatetime, start),
		),
		Limit: 2,
	})
}

// ExpireBefore passe en "expired" les programmes non écoutés dont le délai est dépassé.
func (d *RadikoProgramDao) ExpireBefore(ctx context.Context, now time.Time) (int, error) {
	return d.UpdateAll(ctx,
		[]domain.UpdateValue{{Property: domain.ProgramListenStatus, Value: domain.SelectValue{Value: domain.ListenExpired}}},
		domain.And(
			domain.Lt(domain.ProgramDeadline, now),
			domain.Eq(domain.ProgramListenStatus, domain.ListenUnlistened),
		),
	)
}
