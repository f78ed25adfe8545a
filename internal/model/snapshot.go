package model

import "time"

// SystemSnapshot is a deep, detached copy of the whole breaker tree.
// Mutating a snapshot never affects live state.
type SystemSnapshot struct {
	TakenAt time.Time    `json:"taken_at"`
	Master  MasterSwitch `json:"master"`
	Panels  []*Panel     `json:"panels"`
}

// Clone returns a deep copy of the circuit.
func (c *Circuit) Clone() *Circuit {
	cp := *c
	cp.LastTripped = cloneTime(c.LastTripped)
	cp.LastReset = cloneTime(c.LastReset)
	cp.NextResetAt = cloneTime(c.NextResetAt)
	cp.LastActivity = cloneTime(c.LastActivity)
	return &cp
}

// Clone returns a deep copy of the panel and all owned circuits.
func (p *Panel) Clone() *Panel {
	cp := *p
	cp.LastTripped = cloneTime(p.LastTripped)
	cp.Circuits = make([]*Circuit, len(p.Circuits))
	for i, c := range p.Circuits {
		cp.Circuits[i] = c.Clone()
	}
	return &cp
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}
