package domain

import "time"

// RadikoSchedule est un créneau hebdomadaire d'émission à écouter.
type RadikoSchedule struct {
	*Entity
}

const (
	RadikoScheduleDefinition = "ctp.master.radikoSchedule"

	ScheduleStation      = "station"
	ScheduleProgramName  = "programName"
	ScheduleWeekDay      = "weekDay"
	ScheduleStartTime    = "startTime"
	ScheduleNotes        = "notes"
	ScheduleFavoRate     = "FavoRate"
	ScheduleChildProgram = "childProgram"
)

// Valeurs de weekDay.
const (
	WeekDayMonday    = "MON"
	WeekDayTuesday   = "TUE"
	WeekDayWednesday = "WED"
	WeekDayThursday  = "THU"
	WeekDayFriday    = "FRI"
	WeekDaySaturday  = "SAT"
	WeekDaySunday    = "SUN"
)

var weekDays = map[string]time.Weekday{
	WeekDaySunday:    time.Sunday,
	WeekDayMonday:    time.Monday,
	WeekDayTuesday:   time.Tuesday,
	WeekDayWednesday: time.Wednesday,
	WeekDayThursday:  time.Thursday,
	WeekDayFriday:    time.Friday,
	WeekDaySaturday:  time.Saturday,
}

// ParseWeekDay convertit une valeur de weekDay en time.Weekday.
func ParseWeekDay(v string) (time.Weekday, bool) {
	d, ok := weekDays[v]
	return d, ok
}

func NewRadikoSchedule() RadikoSchedule {
	return RadikoSchedule{Entity: NewEntity(RadikoScheduleDefinition)}
}

func AsRadikoSchedule(e *Entity) RadikoSchedule {
	return RadikoSchedule{Entity: e}
}

func (s RadikoSchedule) Station() *Entity { return s.Reference(ScheduleStation) }
func (s RadikoSchedule) SetStation(v *Entity) { s.SetValue(ScheduleStation, v) }
func (s RadikoSchedule) ProgramName() string { return s.StringValue(ScheduleProgramName) }
func (s RadikoSchedule) SetProgramName(v string) { s.SetValue(ScheduleProgramName, v) }
func (s RadikoSchedule) Notes() string { return s.StringValue(ScheduleNotes) }
func (s RadikoSchedule) SetNotes(v string) { s.SetValue(ScheduleNotes, v) }
func (s RadikoSchedule) SetWeekDay(v SelectValue) { s.SetValue(ScheduleWeekDay, v) }
func (s RadikoSchedule) SetStartTime(v TimeOfDay) { s.SetValue(ScheduleStartTime, v) }
func (s RadikoSchedule) SetFavoRate(v int64) { s.SetValue(ScheduleFavoRate, v) }
func (s RadikoSchedule) ChildProgram() []*Entity { return s.References(ScheduleChildProgram) }
func (s RadikoSchedule) SetChildProgram(v []*Entity) { s.SetValue(ScheduleChildProgram, v) }

func (s RadikoSchedule) WeekDay() (SelectValue, bool) { return s.SelectValueOf(ScheduleWeekDay) }

func (s RadikoSchedule) StartTime() (TimeOfDay, bool) { return s.TimeOfDayValue(ScheduleStartTime) }

func (s RadikoSchedule) FavoRate() (int64, bool) { return s.Int64Value(ScheduleFavoRate) }
