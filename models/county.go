package models

// Carrier is one organization's plans within a single county.
type Carrier struct {
	Name        string        `json:"name"`
	ContractIDs []string      `json:"contractIds"`
	Plans       []PlanSummary `json:"plans"`

	contracts map[string]bool
	planKeys  map[string]bool
}

// NewCarrier creates an empty carrier.
func NewCarrier(name string) *Carrier {
	return &Carrier{
		Name:        name,
		ContractIDs: []string{},
		Plans:       []PlanSummary{},
		contracts:   make(map[string]bool),
		planKeys:    make(map[string]bool),
	}
}

// Add records the contract and appends the plan unless it is a duplicate key
// or the carrier is already at MaxPlansPerCarrier. It reports whether the
// plan was appended.
func (c *Carrier) Add(p PlanSummary) bool {
	if !c.contracts[p.ContractID] {
		c.contracts[p.ContractID] = true
		c.ContractIDs = append(c.ContractIDs, p.ContractID)
	}
	if c.planKeys[p.CMSPlanKey] || len(c.Plans) >= MaxPlansPerCarrier {
		return false
	}
	c.planKeys[p.CMSPlanKey] = true
	c.Plans = append(c.Plans, p)
	return true
}

// Has reports whether a plan key is already listed under the carrier.
func (c *Carrier) Has(cmsPlanKey string) bool {
	return c.planKeys[cmsPlanKey]
}

// CountyBucket holds every carrier observed in one county for one year.
// Carrier order is first-seen order.
type CountyBucket struct {
	Fips       string
	State      string
	CountyName string

	order    []string
	carriers map[string]*Carrier
}

// NewCountyBucket creates an empty bucket.
func NewCountyBucket(fips, state, name string) *CountyBucket {
	return &CountyBucket{
		Fips:       fips,
		State:      state,
		CountyName: name,
		carriers:   make(map[string]*Carrier),
	}
}

// Carrier returns the carrier for key, creating it on first sight.
func (b *CountyBucket) Carrier(key string) *Carrier {
	c, ok := b.carriers[key]
	if !ok {
		c = NewCarrier(key)
		b.carriers[key] = c
		b.order = append(b.order, key)
	}
	return c
}

// Carriers returns carriers in first-seen order.
func (b *CountyBucket) Carriers() []*Carrier {
	out := make([]*Carrier, 0, len(b.order))
	for _, k := range b.order {
		out = append(out, b.carriers[k])
	}
	return out
}

// Artifact renders the bucket as its county JSON document.
func (b *CountyBucket) Artifact(year int) CountyArtifact {
	carriers := make([]Carrier, 0, len(b.order))
	for _, c := range b.Carriers() {
		carriers = append(carriers, *c)
	}
	return CountyArtifact{
		CountyFips: b.Fips,
		State:      b.State,
		CountyName: b.CountyName,
		Year:       year,
		Carriers:   carriers,
	}
}

// CountyArtifact is the per-county JSON document.
type CountyArtifact struct {
	CountyFips string    `json:"county_fips"`
	State      string    `json:"state"`
	CountyName string    `json:"county_name"`
	Year       int       `json:"year"`
	Carriers   []Carrier `json:"carriers"`
}
