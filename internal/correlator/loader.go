package correlator

import (
	"github.com/skywatch-data/trajectory.report/internal/meteor"
	"github.com/skywatch-data/trajectory.report/internal/station"
)

// Loader turns a processing unit into observations, delegating the raw file
// parsing to the configured meteor.Parser.
type Loader struct {
	Parser meteor.Parser
}

// Load parses the unit's dataset folder and stamps each observation with the
// unit it came from so the ledger can be updated later. Observations that
// carry no station code inherit the unit's.
func (l *Loader) Load(unit station.Unit) ([]*meteor.Observation, error) {
	observations, err := l.Parser.Parse(unit.AbsPath)
	if err != nil {
		return nil, err
	}
	for _, obs := range observations {
		obs.SourceUnit = unit.RelPath
		if obs.StationID == "" {
			obs.StationID = unit.StationID
		}
	}
	return observations, nil
}
