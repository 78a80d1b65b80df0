package aggregates

import (
	"sort"

	"github.com/nbd-wtf/go-nostr"

	"github.com/patrickReiis/rap-battle-nostr/internal/battle"
)

// maxLeaderboardEntries caps the ranked list
const maxLeaderboardEntries = 50

// RapperStats holds one rapper's global counters
type RapperStats struct {
	Wins    int `json:"wins"`
	Battles int `json:"battles"`
	Votes   int `json:"votes"`
}

// RapperEntry pairs a pubkey with its stats
type RapperEntry struct {
	Pubkey string      `json:"pubkey"`
	Stats  RapperStats `json:"stats"`
}

// Leaderboard is the global ranking across all rooms
type Leaderboard struct {
	Rappers      []RapperEntry `json:"rappers"`
	TotalBattles int           `json:"totalBattles"`
	TotalRappers int           `json:"totalRappers"`
	TotalVotes   int           `json:"totalVotes"`
}

// BuildLeaderboard derives the global ranking from battle verses and votes.
//
// A rapper's vote total is the sum, over all their verses, of votes on each
// verse. Wins are determined per room: verses are grouped by room-id, and in
// rooms with at least two verse entries the author whose pooled vote count
// is the strict maximum takes the win. Authors are compared in order of
// their first verse in the input, so a tie keeps the earlier author; an
// all-zero room produces no winner. Verses without a room-id still count
// toward battles and votes but never toward wins.
//
// TotalBattles counts distinct rooms seen in grouping, including rooms with
// a single entry. TotalVotes counts every vote event, valid target or not.
func BuildLeaderboard(battleEvents, voteEvents []*nostr.Event) Leaderboard {
	stats := make(map[string]*RapperStats)
	rapperOrder := make([]string, 0)

	for _, event := range battleEvents {
		if _, ok := stats[event.PubKey]; !ok {
			stats[event.PubKey] = &RapperStats{}
			rapperOrder = append(rapperOrder, event.PubKey)
		}
		stats[event.PubKey].Battles++
	}

	votesByEvent := make(map[string]int)
	for _, vote := range voteEvents {
		if target, ok := battle.VoteTarget(vote); ok {
			votesByEvent[target]++
		}
	}

	for _, event := range battleEvents {
		stats[event.PubKey].Votes += votesByEvent[event.ID]
	}

	battlesByRoom := make(map[string][]*nostr.Event)
	roomOrder := make([]string, 0)
	for _, event := range battleEvents {
		roomID, ok := battle.RoomID(event)
		if !ok {
			continue
		}
		if _, seen := battlesByRoom[roomID]; !seen {
			roomOrder = append(roomOrder, roomID)
		}
		battlesByRoom[roomID] = append(battlesByRoom[roomID], event)
	}

	for _, roomID := range roomOrder {
		roomBattles := battlesByRoom[roomID]
		if len(roomBattles) < 2 {
			continue
		}

		roomVotes := make(map[string]int)
		authorOrder := make([]string, 0)
		for _, event := range roomBattles {
			if _, seen := roomVotes[event.PubKey]; !seen {
				authorOrder = append(authorOrder, event.PubKey)
			}
			roomVotes[event.PubKey] += votesByEvent[event.ID]
		}

		winner := ""
		winnerVotes := 0
		for _, author := range authorOrder {
			if roomVotes[author] > winnerVotes {
				winner = author
				winnerVotes = roomVotes[author]
			}
		}

		if winner != "" {
			stats[winner].Wins++
		}
	}

	rappers := make([]RapperEntry, 0, len(rapperOrder))
	for _, pubkey := range rapperOrder {
		rappers = append(rappers, RapperEntry{Pubkey: pubkey, Stats: *stats[pubkey]})
	}
	sort.SliceStable(rappers, func(i, j int) bool {
		if rappers[i].Stats.Wins != rappers[j].Stats.Wins {
			return rappers[i].Stats.Wins > rappers[j].Stats.Wins
		}
		return rappers[i].Stats.Votes > rappers[j].Stats.Votes
	})
	if len(rappers) > maxLeaderboardEntries {
		rappers = rappers[:maxLeaderboardEntries]
	}

	return Leaderboard{
		Rappers:      rappers,
		TotalBattles: len(battlesByRoom),
		TotalRappers: len(stats),
		TotalVotes:   len(voteEvents),
	}
}
