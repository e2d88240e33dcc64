package model

// Snapshot holds the current value of every simulated KPI of the plant.
type Snapshot struct {
	TotalCapacity  float64 `json:"totalCapacity"`  // MW
	ActiveAssets   int     `json:"activeAssets"`   // number of online assets
	UpRegulation   float64 `json:"upRegulation"`   // MW
	DownRegulation float64 `json:"downRegulation"` // MW
	MarketPrice    float64 `json:"marketPrice"`    // PLN/MWh
	AvgPrice       float64 `json:"avgPrice"`
	MaxPrice       float64 `json:"maxPrice"`
	MinPrice       float64 `json:"minPrice"`
}

// InitialSnapshot returns the values the plant reports before the first
// simulation tick.
func InitialSnapshot() Snapshot {
	return Snapshot{
		TotalCapacity:  1250,
		ActiveAssets:   2847,
		UpRegulation:   320,
		DownRegulation: 185,
		MarketPrice:    487.50,
		AvgPrice:       465.20,
		MaxPrice:       512.00,
		MinPrice:       398.50,
	}
}

// SnapshotPatch is a partial Snapshot. Nil fields are left untouched when the
// patch is applied.
type SnapshotPatch struct {
	TotalCapacity  *float64 `json:"totalCapacity,omitempty"`
	ActiveAssets   *int     `json:"activeAssets,omitempty"`
	UpRegulation   *float64 `json:"upRegulation,omitempty"`
	DownRegulation *float64 `json:"downRegulation,omitempty"`
	MarketPrice    *float64 `json:"marketPrice,omitempty"`
	AvgPrice       *float64 `json:"avgPrice,omitempty"`
	MaxPrice       *float64 `json:"maxPrice,omitempty"`
	MinPrice       *float64 `json:"minPrice,omitempty"`
}

// Apply returns a copy of s with every non-nil field of p written over it.
func (s Snapshot) Apply(p SnapshotPatch) Snapshot {
	if p.TotalCapacity != nil {
		s.TotalCapacity = *p.TotalCapacity
	}
	if p.ActiveAssets != nil {
		s.ActiveAssets = *p.ActiveAssets
	}
	if p.UpRegulation != nil {
		s.UpRegulation = *p.UpRegulation
	}
	if p.DownRegulation != nil {
		s.DownRegulation = *p.DownRegulation
	}
	if p.MarketPrice != nil {
		s.MarketPrice = *p.MarketPrice
	}
	if p.AvgPrice != nil {
		s.AvgPrice = *p.AvgPrice
	}
	if p.MaxPrice != nil {
		s.MaxPrice = *p.MaxPrice
	}
	if p.MinPrice != nil {
		s.MinPrice = *p.MinPrice
	}
	return s
}

// Patch returns a patch setting every field of s.
func (s Snapshot) Patch() SnapshotPatch {
	return SnapshotPatch{
		TotalCapacity:  &s.TotalCapacity,
		ActiveAssets:   &s.ActiveAssets,
		UpRegulation:   &s.UpRegulation,
		DownRegulation: &s.DownRegulation,
		MarketPrice:    &s.MarketPrice,
		AvgPrice:       &s.AvgPrice,
		MaxPrice:       &s.MaxPrice,
		MinPrice:       &s.MinPrice,
	}
}

// Float returns a pointer to v. It keeps patch literals short.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
