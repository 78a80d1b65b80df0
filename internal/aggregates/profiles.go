// Package aggregates derives the app's views from raw relay events. Every
// builder is a pure function of the events passed in: nothing persists
// between calls and results are freshly constructed values, so views can be
// unit tested without any relay.
package aggregates

import (
	"encoding/json"
	"sort"

	"github.com/nbd-wtf/go-nostr"
)

// Profile is the subset of kind 0 metadata the app displays
type Profile struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Picture     string `json:"picture"`
}

// BestName returns the preferred display string: name, then display_name.
// Empty when neither is set.
func (p Profile) BestName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.DisplayName
}

// BuildProfiles maps pubkeys to their profile metadata. Events are ordered
// by created_at before applying, so the newest metadata wins regardless of
// relay return order. Events with malformed JSON content are skipped.
func BuildProfiles(events []*nostr.Event) map[string]Profile {
	sorted := make([]*nostr.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt < sorted[j].CreatedAt
	})

	profiles := make(map[string]Profile)
	for _, event := range sorted {
		var profile Profile
		if err := json.Unmarshal([]byte(event.Content), &profile); err != nil {
			continue
		}
		profiles[event.PubKey] = profile
	}

	return profiles
}
