package domain

import "time"

// RadikoProgram est une diffusion réservée, éventuellement issue d'un RadikoSchedule.
type RadikoProgram struct {
	*Entity
}

const (
	RadikoProgramDefinition = "ctp.transaction.radikoProgram"

	ProgramParentSchedule = "parentSchedule"
	ProgramRadikoStation  = "radikoStation"
	ProgramProgramName    = "programName"
	ProgramStartDatetime  = "startDatetime"
	ProgramNote           = "note"
	ProgramRadikoURL      = "radikoUrl"
	ProgramDeadline       = "deadline"
	ProgramListenStatus   = "listenStatus"
)

// Valeurs de listenStatus.
const (
	ListenUnlistened = "unlistened"
	ListenListened   = "listened"
	ListenExpired    = "expired"
)

func NewRadikoProgram() RadikoProgram {
	return RadikoProgram{Entity: NewEntity(RadikoProgramDefinition)}
}

func AsRadikoProgram(e *Entity) RadikoProgram {
	return RadikoProgram{Entity: e}
}

func (p RadikoProgram) ParentSchedule() *Entity { return p.Reference(ProgramParentSchedule) }
func (p RadikoProgram) SetParentSchedule(v *Entity) { p.SetValue(ProgramParentSchedule, v) }
func (p RadikoProgram) RadikoStation() *Entity { return p.Reference(ProgramRadikoStation) }
func (p RadikoProgram) SetRadikoStation(v *Entity) { p.SetValue(ProgramRadikoStation, v) }
func (p RadikoProgram) ProgramName() string { return p.StringValue(ProgramProgramName) }
func (p RadikoProgram) SetProgramName(v string) { p.SetValue(ProgramProgramName, v) }
func (p RadikoProgram) SetStartDatetime(v time.Time) { p.SetValue(ProgramStartDatetime, v) }
func (p RadikoProgram) Note() string { return p.StringValue(ProgramNote) }
func (p RadikoProgram) SetNote(v string) { p.SetValue(ProgramNote, v) }
func (p RadikoProgram) RadikoURL() string { return p.StringValue(ProgramRadikoURL) }
func (p RadikoProgram) SetRadikoURL(v string) { p.SetValue(ProgramRadikoURL, v) }
func (p RadikoProgram) SetDeadline(v time.Time) { p.SetValue(ProgramDeadline, v) }
func (p RadikoProgram) SetListenStatus(v SelectValue) { p.SetValue(ProgramListenStatus, v) }

func (p RadikoProgram) StartDatetime() (time.Time, bool) { return p.TimeValue(ProgramStartDatetime) }

func (p RadikoProgram) Deadline() (time.Time, bool) { return p.TimeValue(ProgramDeadline) }

func (p RadikoProgram) ListenStatus() (SelectValue, bool) { return p.SelectValueOf(ProgramListenStatus) }
