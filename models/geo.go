package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// CountyShare is one county candidate for a ZIP-like code.
type CountyShare struct {
	Fips  string
	Share float64
}

// MarshalJSON renders the pair as ["fips", share].
func (c CountyShare) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("[%s,%s]",
		strconv.Quote(c.Fips),
		strconv.FormatFloat(c.Share, 'f', -1, 64))), nil
}

// UnmarshalJSON accepts the ["fips", share] pair form.
func (c *CountyShare) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("county share: want 2 elements, got %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &c.Fips); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &c.Share)
}

// ZipCandidate lists the counties a ZIP-like code overlaps, share descending.
type ZipCandidate struct {
	Zip      string        `json:"zip"`
	Counties []CountyShare `json:"counties"`
}

// CountyIndexEntry is one row of the per-year county index.
type CountyIndexEntry struct {
	Fips  string `json:"fips"`
	State string `json:"state"`
	Name  string `json:"name"`
}
