package twin

// nodeSpec describes one exposed state variable. value and meta read from the
// populated dimension records.
type nodeSpec struct {
	id    string
	label string
	typ   NodeType
	unit  string
	value func(m Maturity, f Financial, r Risk) float64
	meta  func(m Maturity, f Financial, r Risk) map[string]any
}

// edgeSpec is one row of the causal topology.
type edgeSpec struct {
	source   string
	target   string
	strength float64
	label    string
}

var nodeTable = []nodeSpec{
	{
		id: "data_maturity", label: "Data Maturity", typ: NodeMaturity, unit: "0-100",
		value: func(m Maturity, _ Financial, _ Risk) float64 { return m.DataMaturityIndex },
		meta:  func(m Maturity, _ Financial, _ Risk) map[string]any { return map[string]any{"stage": m.DataMaturityStage} },
	},
	{
		id: "ai_maturity", label: "AI Maturity", typ: NodeMaturity, unit: "0-100",
		value: func(m Maturity, _ Financial, _ Risk) float64 { return m.AIMaturityScore },
		meta:  func(m Maturity, _ Financial, _ Risk) map[string]any { return map[string]any{"stage": m.AIMaturityStage} },
	},
	{
		id: "revenue", label: "Revenue", typ: NodeFinancial, unit: "currency",
		value: func(_ Maturity, f Financial, _ Risk) float64 { return f.Revenue },
	},
	{
		id: "profit", label: "Profit", typ: NodeFinancial, unit: "currency",
		value: func(_ Maturity, f Financial, _ Risk) float64 { return f.Profit },
		meta:  func(_ Maturity, f Financial, _ Risk) map[string]any { return map[string]any{"margin_pct": f.MarginPct} },
	},
	{
		id: "valuation", label: "Valuation", typ: NodeFinancial, unit: "currency",
		value: func(_ Maturity, f Financial, _ Risk) float64 { return f.Valuation },
	},
	{
		id: "risk", label: "Risk Score", typ: NodeRisk, unit: "0-100",
		value: func(_ Maturity, _ Financial, r Risk) float64 { return r.Score },
		meta:  func(_ Maturity, _ Financial, r Risk) map[string]any { return map[string]any{"level": r.Level} },
	},
}

var edgeTable = []edgeSpec{
	{"data_maturity", "ai_maturity", 0.7, "enables"},
	{"ai_maturity", "revenue", 0.5, "drives growth"},
	{"ai_maturity", "profit", 0.4, "improves efficiency"},
	{"data_maturity", "risk", -0.3, "reduces risk"},
	{"revenue", "valuation", 0.8, "drives valuation"},
}

// BuildGraph derives the node/edge view from populated dimension records.
// It allocates fresh slices on every call.
func BuildGraph(m Maturity, f Financial, r Risk) ([]Node, []Edge) {
	nodes := make([]Node, 0, len(nodeTable))
	for _, spec := range nodeTable {
		n := Node{
			ID:    spec.id,
			Label: spec.label,
			Type:  spec.typ,
			Value: spec.value(m, f, r),
			Unit:  spec.unit,
		}
		if spec.meta != nil {
			n.Metadata = spec.meta(m, f, r)
		}
		nodes = append(nodes, n)
	}
	edges := make([]Edge, 0, len(edgeTable))
	for _, spec := range edgeTable {
		edges = append(edges, Edge{
			SourceID: spec.source,
			TargetID: spec.target,
			Strength: spec.strength,
			Label:    spec.label,
		})
	}
	return nodes, edges
}
