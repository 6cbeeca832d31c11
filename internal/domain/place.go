package domain

// AllAreas is the synthetic estate meaning "the town as a whole".
const AllAreas = "All Areas"

// Triple identifies a reviewable subject.
type Triple struct {
	County string `json:"county"`
	Town   string `json:"town"`
	Estate string `json:"estate"`
}

// Place is one row of the places table.
type Place struct {
	ID     string   `json:"id"`
	County string   `json:"county"`
	Town   string   `json:"town"`
	Estate string   `json:"name"`
	Lat    *float64 `json:"lat,omitempty"`
	Lng    *float64 `json:"lng,omitempty"`
	Source string   `json:"source,omitempty"`
	Notes  string   `json:"notes,omitempty"`
}

func (p Place) Triple() Triple { return Triple{County: p.County, Town: p.Town, Estate: p.Estate} }
