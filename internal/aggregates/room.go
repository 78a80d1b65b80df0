package aggregates

import (
	"github.com/nbd-wtf/go-nostr"

	"github.com/patrickReiis/rap-battle-nostr/internal/battle"
)

// RoomState is the live view of one room: who joined and who leads
type RoomState struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	CreatorPubkey string         `json:"creatorPubkey"`
	Participants  []string       `json:"participants"`
	Status        RoomStatus     `json:"status"`
	CurrentRound  int            `json:"currentRound"`
	MaxRounds     int            `json:"maxRounds"`
	Scores        map[string]int `json:"scores"`
}

// RoundInfo carries round progress supplied by the caller. Rounds are not
// tracked on the network; the room view cannot derive them from events.
type RoundInfo struct {
	CurrentRound int
	MaxRounds    int
}

// DefaultRoundInfo returns the starting round state: round 1 of 3.
func DefaultRoundInfo() RoundInfo {
	return RoundInfo{CurrentRound: 1, MaxRounds: 3}
}

// BuildRoomState derives a room's participant set and scores from its join
// and vote events. Participants are the unique join authors in first-seen
// order. A vote counts for a participant when its "e" tag resolves to one of
// that participant's events in the join set; dangling or missing references
// are ignored. Status is derived: two or more participants means active.
func BuildRoomState(roomID string, joinEvents, voteEvents []*nostr.Event, rounds RoundInfo) RoomState {
	participants := make([]string, 0)
	seen := make(map[string]bool)
	for _, event := range joinEvents {
		if !seen[event.PubKey] {
			seen[event.PubKey] = true
			participants = append(participants, event.PubKey)
		}
	}

	scores := make(map[string]int, len(participants))
	for _, p := range participants {
		scores[p] = 0
	}

	eventAuthors := make(map[string]string, len(joinEvents))
	for _, event := range joinEvents {
		eventAuthors[event.ID] = event.PubKey
	}

	for _, vote := range voteEvents {
		target, ok := battle.VoteTarget(vote)
		if !ok {
			continue
		}
		author, ok := eventAuthors[target]
		if !ok {
			continue
		}
		if _, ok := scores[author]; ok {
			scores[author]++
		}
	}

	status := StatusWaiting
	if len(participants) >= 2 {
		status = StatusActive
	}

	creator := ""
	if len(participants) > 0 {
		creator = participants[0]
	}

	return RoomState{
		ID:            roomID,
		Name:          "Battle Room",
		CreatorPubkey: creator,
		Participants:  participants,
		Status:        status,
		CurrentRound:  rounds.CurrentRound,
		MaxRounds:     rounds.MaxRounds,
		Scores:        scores,
	}
}
