// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package station

// GridReport is one power grid as shown on the status page.
type GridReport struct {
	ID      string  `json:"id"`
	Powered bool    `json:"powered"`
	Load    float64 `json:"load"`
	Supply  float64 `json:"supply"`
	Rooms   int     `json:"rooms"`
}

// Status is a point-in-time summary for operators.
type Status struct {
	Crew     int          `json:"crew"`
	Ticks    uint64       `json:"ticks"`
	Systems  []string     `json:"systems"`
	Grids    []GridReport `json:"grids"`
	Stopping bool         `json:"stopping"`
}

// Status reports crew online, scheduler progress and the power grids.
func (s *Station) Status() Status {
	var st Status
	if s.Sessions != nil {
		st.Crew = len(s.Sessions.Online())
	}
	if s.Scheduler != nil {
		st.Ticks = s.Scheduler.Ticks()
		st.Systems = s.Scheduler.Systems()
	}
	if s.Services != nil && s.Services.Power != nil {
		for _, g := range s.Services.Power.Status() {
			st.Grids = append(st.Grids, GridReport{
				ID: g.ID, Powered: g.Powered, Load: g.Load, Supply: g.Supply, Rooms: len(g.Rooms),
			})
		}
	}
	select {
	case <-s.stop:
		st.Stopping = true
	default:
	}
	return st
}
