package ingest

import (
	"sort"

	"planscape/models"
)

// Aggregation groups valid records by year, county and carrier in a single
// pass. Bucket and carrier order is first-seen order; plan order is source
// row order.
type Aggregation struct {
	years map[int]*YearBuckets

	// Capped counts plans dropped by the per-carrier cap.
	Capped int
	// Duplicates counts plans dropped because their key was already bucketed
	// under the same carrier.
	Duplicates int
}

// YearBuckets holds one year's county buckets.
type YearBuckets struct {
	Year    int
	order   []string
	buckets map[string]*models.CountyBucket
}

// NewAggregation returns an empty aggregation.
func NewAggregation() *Aggregation {
	return &Aggregation{years: make(map[int]*YearBuckets)}
}

// Aggregate groups records into county buckets. Invalid records are ignored.
func Aggregate(records []models.PlanRecord) *Aggregation {
	agg := NewAggregation()
	for _, r := range records {
		agg.Add(r)
	}
	return agg
}

// Add folds one record into the aggregation.
func (a *Aggregation) Add(r models.PlanRecord) {
	if !r.Valid() {
		return
	}
	yb, ok := a.years[r.Year]
	if !ok {
		yb = &YearBuckets{Year: r.Year, buckets: make(map[string]*models.CountyBucket)}
		a.years[r.Year] = yb
	}
	b, ok := yb.buckets[r.CountyFips]
	if !ok {
		b = models.NewCountyBucket(r.CountyFips, r.State, r.CountyName)
		yb.buckets[r.CountyFips] = b
		yb.order = append(yb.order, r.CountyFips)
	}
	if b.State == "" {
		b.State = r.State
	}
	if b.CountyName == "" {
		b.CountyName = r.CountyName
	}
	c := b.Carrier(r.CarrierKey())
	if c.Add(r.Summary()) {
		return
	}
	if c.Has(r.Key()) {
		a.Duplicates++
	} else {
		a.Capped++
	}
}

// Years returns the aggregated years ascending.
func (a *Aggregation) Years() []int {
	years := make([]int, 0, len(a.years))
	for y := range a.years {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// Year returns the buckets for year, or nil.
func (a *Aggregation) Year(year int) *YearBuckets {
	return a.years[year]
}

// Bucket returns the bucket for fips, or nil.
func (y *YearBuckets) Bucket(fips string) *models.CountyBucket {
	return y.buckets[fips]
}

// Buckets returns the year's buckets sorted by FIPS ascending.
func (y *YearBuckets) Buckets() []*models.CountyBucket {
	fips := append([]string(nil), y.order...)
	sort.Strings(fips)
	out := make([]*models.CountyBucket, 0, len(fips))
	for _, f := range fips {
		out = append(out, y.buckets[f])
	}
	return out
}

// Len returns the number of counties.
func (y *YearBuckets) Len() int {
	return len(y.order)
}
