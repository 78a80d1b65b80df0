package aggregates

import (
	"testing"

	"github.com/nbd-wtf/go-nostr"
)

func roomEvent(id, pubkey string, createdAt int64, tags nostr.Tags) *nostr.Event {
	return &nostr.Event{
		ID:        id,
		PubKey:    pubkey,
		Kind:      30023,
		CreatedAt: nostr.Timestamp(createdAt),
		Tags:      tags,
	}
}

func TestBuildRooms_TagDefaults(t *testing.T) {
	event := roomEvent("event-1", "creator-a", 1000, nostr.Tags{
		{"d", "abc"},
		{"title", "Friday Night"},
		{"status", "active"},
		{"participants", "2"},
	})

	rooms := BuildRooms([]*nostr.Event{event}, nil)
	if len(rooms) != 1 {
		t.Fatalf("got %d rooms, want 1", len(rooms))
	}

	room := rooms[0]
	if room.ID != "abc" {
		t.Errorf("ID = %q, want %q", room.ID, "abc")
	}
	if room.Name != "Friday Night" {
		t.Errorf("Name = %q, want %q", room.Name, "Friday Night")
	}
	if room.Status != StatusActive {
		t.Errorf("Status = %q, want active", room.Status)
	}
	if room.Participants != 2 {
		t.Errorf("Participants = %d, want 2", room.Participants)
	}
	if room.MaxParticipants != 2 {
		t.Errorf("MaxParticipants = %d, want default 2", room.MaxParticipants)
	}
	if room.Rounds != 3 {
		t.Errorf("Rounds = %d, want default 3", room.Rounds)
	}
	if room.CurrentRound != 0 {
		t.Errorf("CurrentRound = %d, want unset", room.CurrentRound)
	}
	if room.Winner != "" {
		t.Errorf("Winner = %q, want unset", room.Winner)
	}
}

func TestBuildRooms_IDFallsBackToEventID(t *testing.T) {
	event := roomEvent("event-1", "creator-a", 1000, nostr.Tags{
		{"title", "No D Tag"},
	})

	rooms := BuildRooms([]*nostr.Event{event}, nil)
	if rooms[0].ID != "event-1" {
		t.Errorf("ID = %q, want event id fallback", rooms[0].ID)
	}
}

func TestBuildRooms_CreatorNameFromProfiles(t *testing.T) {
	event := roomEvent("event-1", "creator-a", 1000, nostr.Tags{{"d", "r1"}})
	profiles := map[string]Profile{
		"creator-a": {DisplayName: "MC Flow"},
	}

	rooms := BuildRooms([]*nostr.Event{event}, profiles)
	if rooms[0].CreatorName != "MC Flow" {
		t.Errorf("CreatorName = %q, want %q", rooms[0].CreatorName, "MC Flow")
	}
}

func TestBuildRooms_SortCompletedLast(t *testing.T) {
	events := []*nostr.Event{
		roomEvent("e1", "a", 300, nostr.Tags{{"d", "r1"}, {"status", "completed"}}),
		roomEvent("e2", "a", 100, nostr.Tags{{"d", "r2"}, {"status", "waiting"}}),
		roomEvent("e3", "a", 200, nostr.Tags{{"d", "r3"}, {"status", "active"}}),
		roomEvent("e4", "a", 50, nostr.Tags{{"d", "r4"}, {"status", "completed"}}),
	}

	rooms := BuildRooms(events, nil)

	// No completed room may precede a non-completed one; within each group
	// createdAt is non-increasing.
	sawCompleted := false
	var lastCreated int64
	for i, room := range rooms {
		done := room.Status == StatusCompleted
		if sawCompleted && !done {
			t.Fatalf("room %d (%s) follows a completed room", i, room.ID)
		}
		if done && !sawCompleted {
			sawCompleted = true
			lastCreated = 0
		}
		if lastCreated != 0 && room.CreatedAt > lastCreated {
			t.Errorf("room %d (%s) out of createdAt order", i, room.ID)
		}
		lastCreated = room.CreatedAt
	}

	wantOrder := []string{"r3", "r2", "r1", "r4"}
	for i, want := range wantOrder {
		if rooms[i].ID != want {
			t.Errorf("rooms[%d].ID = %q, want %q", i, rooms[i].ID, want)
		}
	}
}

func TestBuildRooms_Empty(t *testing.T) {
	rooms := BuildRooms(nil, nil)
	if len(rooms) != 0 {
		t.Errorf("got %d rooms for empty input", len(rooms))
	}
}
