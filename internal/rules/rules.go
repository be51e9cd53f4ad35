package rules

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// ErrNoTarget is returned for a document without a target package.
var ErrNoTarget = errors.New("target_package is required")

// Rules describe how the blocked application is recognised.
type Rules struct {
	TargetPackage     string   `yaml:"target_package"`
	ButtonLabel       string   `yaml:"button_label"`
	WebPageMarkers    []string `yaml:"web_page_markers"`
	SearchPageMarkers []string `yaml:"search_page_markers"`
}

// Parse decodes a rules document. Unknown fields are rejected.
func Parse(data []byte) (Rules, error) {
	var r Rules

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&r); err != nil && !errors.Is(err, io.EOF) {
		return Rules{}, fmt.Errorf("failed to decode rules: %w", err)
	}

	if r.TargetPackage == "" {
		return Rules{}, ErrNoTarget
	}

	return r, nil
}

// MatchesWebPage reports whether the content descriptions of the found
// buttons include every web page marker.
func (r Rules) MatchesWebPage(descriptions []string) bool {
	return containsAll(descriptions, r.WebPageMarkers)
}

// MatchesSearchPage reports whether the event text includes every search
// page marker.
func (r Rules) MatchesSearchPage(text []string) bool {
	return containsAll(text, r.SearchPageMarkers)
}

// containsAll is exact set containment. An empty want never matches.
func containsAll(have, want []string) bool {
	if len(want) == 0 {
		return false
	}

	set := make(map[string]struct{}, len(have))
	for _, h := range have {
		set[h] = struct{}{}
	}
	for _, w := range want {
		if _, ok := set[w]; !ok {
			return false
		}
	}

	return true
}
