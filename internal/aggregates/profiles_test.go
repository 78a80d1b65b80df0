package aggregates

import (
	"testing"

	"github.com/nbd-wtf/go-nostr"
)

func TestBuildProfiles_NewestWins(t *testing.T) {
	events := []*nostr.Event{
		{PubKey: "rapper-a", CreatedAt: 200, Content: `{"name":"MC New"}`},
		{PubKey: "rapper-a", CreatedAt: 100, Content: `{"name":"MC Old"}`},
	}

	profiles := BuildProfiles(events)

	if got := profiles["rapper-a"].Name; got != "MC New" {
		t.Errorf("profile name = %q, want newest %q", got, "MC New")
	}
}

func TestBuildProfiles_SkipsMalformedJSON(t *testing.T) {
	events := []*nostr.Event{
		{PubKey: "rapper-a", CreatedAt: 100, Content: `{not json`},
		{PubKey: "rapper-b", CreatedAt: 100, Content: `{"name":"MC Good"}`},
	}

	profiles := BuildProfiles(events)

	if _, ok := profiles["rapper-a"]; ok {
		t.Error("malformed profile was not skipped")
	}
	if got := profiles["rapper-b"].Name; got != "MC Good" {
		t.Errorf("valid profile name = %q, want %q", got, "MC Good")
	}
}

func TestBuildProfiles_MalformedNewerDoesNotShadowOlder(t *testing.T) {
	events := []*nostr.Event{
		{PubKey: "rapper-a", CreatedAt: 100, Content: `{"name":"MC Good"}`},
		{PubKey: "rapper-a", CreatedAt: 200, Content: `broken`},
	}

	profiles := BuildProfiles(events)

	if got := profiles["rapper-a"].Name; got != "MC Good" {
		t.Errorf("profile name = %q, want older valid %q", got, "MC Good")
	}
}

func TestBestName_FallsBackToDisplayName(t *testing.T) {
	p := Profile{DisplayName: "The Display"}
	if got := p.BestName(); got != "The Display" {
		t.Errorf("BestName() = %q, want %q", got, "The Display")
	}

	p = Profile{Name: "short", DisplayName: "long"}
	if got := p.BestName(); got != "short" {
		t.Errorf("BestName() = %q, want name preferred", got)
	}
}
