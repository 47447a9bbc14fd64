package domain

// RadikoStation est une station radiko (master).
type RadikoStation struct {
	*Entity
}

const (
	RadikoStationDefinition = "ctp.master.radikoStation"

	StationCallSign    = "callSign"
	StationStationName = "stationName"
)

func NewRadikoStation() RadikoStation {
	return RadikoStation{Entity: NewEntity(RadikoStationDefinition)}
}

func AsRadikoStation(e *Entity) RadikoStation {
	return RadikoStation{Entity: e}
}

func (s RadikoStation) CallSign() string { return s.StringValue(StationCallSign) }
func (s RadikoStation) SetCallSign(v string) { s.SetValue(StationCallSign, v) }
func (s RadikoStation) StationName() string { return s.StringValue(StationStationName) }
func (s RadikoStation) SetStationName(v string) { s.SetValue(StationStationName, v) }
