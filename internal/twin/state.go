package twin

import "time"

type BuildOptions struct {
	// Timestamp defaults to the current UTC time when zero.
	Timestamp time.Time
	Label     string
}

// BuildState normalizes c and derives the causal graph. With an explicit timestamp the
// result is fully determined by its inputs.
func BuildState(c Context, opts BuildOptions) TwinState {
	ts := opts.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	p := Normalize(c)
	return fromPopulated(p, ts.UTC(), opts.Label)
}

func fromPopulated(p Populated, ts time.Time, label string) TwinState {
	nodes, edges := BuildGraph(p.Maturity, p.Financial, p.Risk)
	return TwinState{
		Timestamp:    ts,
		Version:      StateVersion,
		Maturity:     p.Maturity,
		Financial:    p.Financial,
		Risk:         p.Risk,
		Capabilities: p.Capabilities,
		Roadmap:      p.Roadmap,
		Nodes:        nodes,
		Edges:        edges,
		Label:        label,
	}
}
