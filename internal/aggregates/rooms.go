package aggregates

import (
	"sort"

	"github.com/nbd-wtf/go-nostr"

	"github.com/patrickReiis/rap-battle-nostr/internal/battle"
)

// RoomStatus is the lifecycle state of a battle room
type RoomStatus string

const (
	StatusWaiting   RoomStatus = "waiting"
	StatusActive    RoomStatus = "active"
	StatusCompleted RoomStatus = "completed"
)

// BattleRoom is a room-list entry derived from one room descriptor event
type BattleRoom struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	CreatorPubkey   string     `json:"creatorPubkey"`
	CreatorName     string     `json:"creatorName,omitempty"`
	Status          RoomStatus `json:"status"`
	Participants    int        `json:"participants"`
	MaxParticipants int        `json:"maxParticipants"`
	Rounds          int        `json:"rounds"`
	CurrentRound    int        `json:"currentRound,omitempty"`
	Winner          string     `json:"winner,omitempty"`
	CreatedAt       int64      `json:"createdAt"`
}

// BuildRooms turns room descriptor events into a sorted room list, joining
// creator names from profiles. Completed rooms sort after everything else;
// within each group newest first.
func BuildRooms(roomEvents []*nostr.Event, profiles map[string]Profile) []BattleRoom {
	rooms := make([]BattleRoom, 0, len(roomEvents))

	for _, event := range roomEvents {
		room := BattleRoom{
			ID:              battle.TagOr(event, "d", event.ID),
			Name:            battle.TagOr(event, "title", "Unnamed Battle"),
			CreatorPubkey:   event.PubKey,
			Status:          RoomStatus(battle.TagOr(event, "status", string(StatusWaiting))),
			Participants:    battle.IntTagOr(event, "participants", 0),
			MaxParticipants: battle.IntTagOr(event, "max-participants", 2),
			Rounds:          battle.IntTagOr(event, "rounds", 3),
			CurrentRound:    battle.IntTagOr(event, "current-round", 0),
			Winner:          battle.TagOr(event, "winner", ""),
			CreatedAt:       int64(event.CreatedAt),
		}
		if profile, ok := profiles[event.PubKey]; ok {
			room.CreatorName = profile.BestName()
		}
		rooms = append(rooms, room)
	}

	sort.SliceStable(rooms, func(i, j int) bool {
		iDone := rooms[i].Status == StatusCompleted
		jDone := rooms[j].Status == StatusCompleted
		if iDone != jDone {
			return !iDone
		}
		return rooms[i].CreatedAt > rooms[j].CreatedAt
	})

	return rooms
}
