// Package entity defines the records harvested from the wiki.
//
// Optional text fields use the empty string for "absent"; the store maps it
// to NULL. Names are natural keys compared case-insensitively through Key.
package entity

import (
	"strings"

	"golang.org/x/text/cases"
)

// Gender of a character. The empty value means unknown.
type Gender string

const (
	Male    Gender = "Male"
	Female  Gender = "Female"
	Unknown Gender = ""
)

// Category of a quest.
type Category string

const (
	Main Category = "main"
	Side Category = "side"
)

// ParseCategory accepts "main" or "side" in any case.
func ParseCategory(s string) (Category, bool) {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case Main:
		return Main, true
	case Side:
		return Side, true
	}
	return "", false
}

// Character is a non-player character.
type Character struct {
	URL    string `json:"url"`
	Name   string `json:"name"`
	Info   string `json:"info,omitempty"`
	Gender Gender `json:"gender,omitempty"`
	Image  string `json:"image,omitempty"` // asset handle
}

// Location is a named area. Previous and Next name neighbouring areas and
// are not checked against the location set.
type Location struct {
	URL      string `json:"url"`
	Name     string `json:"name"`
	Info     string `json:"info,omitempty"`
	Previous string `json:"previous,omitempty"`
	Next     string `json:"next,omitempty"`
}

// Quest is a main or side quest as extracted. LocationText is the aliased
// location name before resolution.
type Quest struct {
	URL          string   `json:"url"`
	Name         string   `json:"name"`
	Giver        string   `json:"giver,omitempty"`
	LocationText string   `json:"location_text"`
	Reward       string   `json:"reward,omitempty"`
	Category     Category `json:"category"`
}

// Catchable is a fish or other catchable item. LocationText is the raw
// comma-joined description the location links are derived from.
type Catchable struct {
	URL          string `json:"url"`
	Name         string `json:"name"`
	LocationText string `json:"location_text"`
	Image        string `json:"image,omitempty"`
	Price        int    `json:"price"`
}

// Key returns the case-folded natural key of a name. A Caser holds state,
// so one is made per call.
func Key(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}
