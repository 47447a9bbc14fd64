package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Guilhem-Bonnet/radiko-planner/internal/domain"
	"github.com/Guilhem-Bonnet/radiko-planner/internal/objectutil"
)

// SeedFile est le format du fichier de seed:
//
//	stations:
//	  - callSign: TBS
//	    stationName: TBSラジオ
//	schedules:
//	  - callSign: TBS
//	    programName: JUNK
//	    weekDay: MON
//	    startTime: "01:00"
type SeedFile struct {
	Stations []struct {
		CallSign    string `yaml:"callSign"`
		StationName string `yaml:"stationName"`
	} `yaml:"stations"`
	Schedules []ScheduleInput `yaml:"schedules"`
}

type SeedResult struct {
	Stations  int `json:"stations"`
	Schedules int `json:"schedules"`
}

type Seeder struct {
	stations  *StationService
	schedules *ScheduleService
}

func NewSeeder(stations *StationService, schedules *ScheduleService) *Seeder {
	return &Seeder{stations: stations, schedules: schedules}
}

func (s *Seeder) SeedFile(ctx context.Context, path string) (SeedResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return SeedResult{}, err
	}
	defer f.Close()
	return s.Seed(ctx, f)
}

// Seed crée les stations et créneaux absents. Une station existe si son
// indicatif est connu; un créneau existe si la station a déjà un créneau de
// même nom, même jour et même heure. Relancer le seed ne crée donc rien.
func (s *Seeder) Seed(ctx context.Context, r io.Reader) (SeedResult, error) {
	var res SeedResult
	var file SeedFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && err != io.EOF {
		return res, fmt.Errorf("failed to parse seed: %w", err)
	}

	for _, st := range file.Stations {
		existing, err := s.stations.stations.FindByCallSign(ctx, strings.ToUpper(st.CallSign))
		if err != nil {
			return res, err
		}
		if existing.Base() != nil {
			continue
		}
		if _, err := s.stations.Create(ctx, st.CallSign, st.StationName); err != nil {
			return res, fmt.Errorf("station %s: %w", st.CallSign, err)
		}
		res.Stations++
	}

	for _, in := range file.Schedules {
		station, err := s.schedules.resolveStation(ctx, in.StationOID, in.CallSign)
		if err != nil {
			return res, fmt.Errorf("schedule %s: %w", in.ProgramName, err)
		}
		candidate, err := buildSchedule(station, in)
		if err != nil {
			return res, fmt.Errorf("schedule %s: %w", in.ProgramName, err)
		}
		exists, err := s.scheduleExists(ctx, station.OID, candidate)
		if err != nil {
			return res, err
		}
		if exists {
			continue
		}
		if _, err := s.schedules.schedules.Insert(ctx, candidate); err != nil {
			return res, fmt.Errorf("schedule %s: %w", in.ProgramName, err)
		}
		res.Schedules++
	}
	return res, nil
}

func (s *Seeder) scheduleExists(ctx context.Context, stationOID string, candidate domain.RadikoSchedule) (bool, error) {
	existing, err := s.schedules.schedules.FindByStation(ctx, stationOID)
	if err != nil {
		return false, err
	}
	wd, _ := candidate.WeekDay()
	at, _ := candidate.StartTime()
	for _, sc := range existing {
		scWD, _ := sc.WeekDay()
		scAt, _ := sc.StartTime()
		if objectutil.EqualString(sc.ProgramName(), candidate.ProgramName()) && objectutil.Equal(scWD.Value, wd.Value) && objectutil.Equal(scAt, at) {
			return true, nil
		}
	}
	return false, nil
}
