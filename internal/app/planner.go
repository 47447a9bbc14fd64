package app

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/Guilhem-Bonnet/radiko-planner/internal/domain"
	"github.com/Guilhem-Bonnet/radiko-planner/internal/ports"
)

// ProgramPlanner réserve à l'avance les occurrences des créneaux hebdomadaires
// et fait expirer les diffusions non écoutées.
type ProgramPlanner struct {
	logger    zerolog.Logger
	schedules *ScheduleService
	programs  *ProgramService
	bus       ports.EventBus

	TickInterval time.Duration
	Horizon      time.Duration
	Location     *time.Location
	Now          func() time.Time
}

func NewProgramPlanner(logger zerolog.Logger, schedules *ScheduleService, programs *ProgramService, bus ports.EventBus) *ProgramPlanner {
	return &ProgramPlanner{
		logger:       logger,
		schedules:    schedules,
		programs:     programs,
		bus:          bus,
		TickInterval: 60 * time.Second,
		Horizon:      7 * 24 * time.Hour,
		Location:     time.UTC,
		Now:          time.Now,
	}
}

type PlanResult struct {
	Created int `json:"created"`
	Expired int `json:"expired"`
}

// Run planifie immédiatement puis à chaque tick, et replanifie un créneau dès
// qu'il est créé ou modifié.
func (pl *ProgramPlanner) Run(ctx context.Context) {
	interval := pl.TickInterval
	if interval <= 0 {
		interval = 60 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var events <-chan ports.Event
	if pl.bus != nil {
		ch, cancel := pl.bus.Subscribe()
		defer cancel()
		events = ch
	}

	pl.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			pl.logger.Info().Msg("program planner stopped")
			return
		case <-ticker.C:
			pl.tick(ctx)
		case evt, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			pl.handleEvent(ctx, evt)
		}
	}
}

func (pl *ProgramPlanner) tick(ctx context.Context) {
	res, err := pl.Tick(ctx)
	if err != nil {
		pl.logger.Error().Err(err).Msg("planner tick failed")
		return
	}
	if res.Created > 0 || res.Expired > 0 {
		pl.logger.Info().Int("created", res.Created).Int("expired", res.Expired).Msg("planner tick")
	}
}

// Tick réserve les occurrences à venir de tous les créneaux puis fait expirer
// les diffusions dont le délai est dépassé. Une erreur sur un créneau n'arrête pas les autres.
func (pl *ProgramPlanner) Tick(ctx context.Context) (PlanResult, error) {
	var res PlanResult
	schedules, err := pl.schedules.All(ctx)
	if err != nil {
		return res, err
	}
	now := pl.now()
	for _, sc := range schedules {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}
		n, err := pl.PlanSchedule(ctx, sc, now)
		if err != nil {
			pl.logger.Warn().Err(err).Str("schedule_oid", sc.OID).Msg("schedule planning failed")
		}
		res.Created += n
	}

	expired, err := pl.programs.ExpireOverdue(ctx)
	if err != nil {
		return res, err
	}
	res.Expired = expired
	return res, nil
}

// PlanSchedule réserve les occurrences de sc dans [now, now+Horizon]; renvoie le nombre créé.
func (pl *ProgramPlanner) PlanSchedule(ctx context.Context, sc domain.RadikoSchedule, now time.Time) (int, error) {
	wd, ok := sc.WeekDay()
	if !ok {
		return 0, nil
	}
	weekDay, ok := domain.ParseWeekDay(wd.Value)
	if !ok {
		return 0, nil
	}
	at, ok := sc.StartTime()
	if !ok {
		return 0, nil
	}

	created := 0
	for _, start := range Occurrences(weekDay, at, now.In(pl.loc()), pl.Horizon) {
		_, isNew, err := pl.programs.ReserveFromSchedule(ctx, sc, start)
		if err != nil {
			return created, err
		}
		if isNew {
			created++
		}
	}
	return created, nil
}

// PlanOne planifie un seul créneau, désigné par son oid.
func (pl *ProgramPlanner) PlanOne(ctx context.Context, scheduleOID string) (PlanResult, error) {
	sc, err := pl.schedules.Entity(ctx, scheduleOID)
	if err != nil {
		return PlanResult{}, err
	}
	n, err := pl.PlanSchedule(ctx, sc, pl.now())
	return PlanResult{Created: n}, err
}

func (pl *ProgramPlanner) handleEvent(ctx context.Context, evt ports.Event) {
	if evt.Topic != ports.TopicEntityInserted && evt.Topic != ports.TopicEntityUpdated {
		return
	}
	var payload ports.EntityEvent
	if err := json.Unmarshal(evt.Payload, &payload); err != nil {
		return
	}
	if payload.Definition != domain.RadikoScheduleDefinition {
		return
	}
	sc, err := pl.schedules.Entity(ctx, payload.OID)
	if err != nil {
		pl.logger.Warn().Err(err).Str("schedule_oid", payload.OID).Msg("failed to load schedule")
		return
	}
	n, err := pl.PlanSchedule(ctx, sc, pl.now())
	if err != nil {
		pl.logger.Warn().Err(err).Str("schedule_oid", payload.OID).Msg("schedule planning failed")
		return
	}
	if n > 0 {
		pl.logger.Info().Str("schedule_oid", payload.OID).Int("created", n).Msg("schedule planned")
	}
}

func (pl *ProgramPlanner) loc() *time.Location {
	if pl.Location == nil {
		return time.UTC
	}
	return pl.Location
}

func (pl *ProgramPlanner) now() time.Time {
	if pl.Now == nil {
		return time.Now()
	}
	return pl.Now()
}

// Occurrences renvoie les débuts d'un créneau hebdomadaire compris dans
// [from, from+horizon], dans le fuseau de from.
func Occurrences(weekDay time.Weekday, at domain.TimeOfDay, from time.Time, horizon time.Duration) []time.Time {
	end := from.Add(horizon)
	var out []time.Time
	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	for !day.After(end) {
		if day.Weekday() == weekDay {
			start := at.On(day)
			if !start.Before(from) && !start.After(end) {
				out = append(out, start)
			}
		}
		day = day.AddDate(0, 0, 1)
	}
	return out
}
