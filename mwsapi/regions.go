package mwsapi

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Region string

const (
	Region_NA Region = "na"
	Region_EU Region = "eu"
	Region_JP Region = "jp"
)

// ToRegion maps the aliases merchants commonly configure onto a Region. The
// result may still be invalid; check with IsValid.
func ToRegion(name string) Region {
	switch n := strings.ToLower(name); n {
	case "us":
		return Region_NA
	case "uk", "de":
		return Region_EU
	default:
		return Region(n)
	}
}

func (r Region) MarshalJSON() ([]byte, error) {
	if !r.IsValid() {
		return nil, fmt.Errorf("invalid region: %q", string(r))
	}
	return json.Marshal(string(r))
}

func (r *Region) UnmarshalJSON(b []byte) error {
	rs := (*string)(r)
	if err := json.Unmarshal(b, rs); err != nil {
		return err
	}

	if !r.IsValid() {
		return fmt.Errorf("invalid region: %q", *r)
	}

	return nil
}

func (r Region) String() string {
	return string(r)
}

func (r Region) IsValid() bool {
	_, ok := endpoints[r]
	return ok
}

var endpoints = map[Region]string{
	Region_NA: "mws.amazonservices.com",
	Region_EU: "mws-eu.amazonservices.com",
	Region_JP: "mws.amazonservices.jp",
}

// Endpoint is the MWS host serving r, or "" for an invalid region.
func (r Region) Endpoint() string {
	return endpoints[r]
}
