// Package battle defines the event schema shared by the aggregation and
// publishing sides: kinds, label tags, and typed tag accessors.
package battle

import (
	"strconv"

	"github.com/nbd-wtf/go-nostr"
)

// Event kinds used by the app
const (
	KindProfileMetadata = 0
	KindNote            = 1
	KindReaction        = 7
	KindBattleRoom      = 30023 // parameterized replaceable
)

// Label namespace and sub-labels (NIP-32 style L/l tags)
const (
	Namespace        = "rap-battle"
	LabelRoom        = "room"
	LabelJoin        = "join"
	LabelBattleRap   = "battle-rap"
	LabelVote        = "vote"
	LabelPractice    = "practice"
	HashtagRapBattle = "nostrRapBattle"
)

// Tag returns the first value of the first tag whose key matches.
func Tag(event *nostr.Event, key string) (string, bool) {
	for _, tag := range event.Tags {
		if len(tag) >= 2 && tag[0] == key {
			return tag[1], true
		}
	}
	return "", false
}

// TagOr returns the first matching tag value, or def when absent.
func TagOr(event *nostr.Event, key, def string) string {
	if v, ok := Tag(event, key); ok {
		return v
	}
	return def
}

// IntTagOr returns the first matching tag value parsed as an integer.
// A missing tag or an unparseable value yields def.
func IntTagOr(event *nostr.Event, key string, def int) int {
	v, ok := Tag(event, key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// RoomID returns the room an event belongs to. Room descriptors carry it
// in their "d" tag; join/battle/vote events use "room-id".
func RoomID(event *nostr.Event) (string, bool) {
	if event.Kind == KindBattleRoom {
		return Tag(event, "d")
	}
	return Tag(event, "room-id")
}

// VoteTarget returns the event id a vote (kind 7) points at.
func VoteTarget(event *nostr.Event) (string, bool) {
	return Tag(event, "e")
}
