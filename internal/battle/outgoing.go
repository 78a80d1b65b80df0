package battle

import (
	"fmt"
	"strconv"

	"github.com/nbd-wtf/go-nostr"
)

// Beat describes the instrumental a verse or practice post was written to.
type Beat struct {
	Name  string
	Style string
	BPM   int
}

// NewRoomEvent builds an unsigned room descriptor event. Rooms start in the
// waiting state with zero participants; the descriptor is replaceable, so a
// later publish with the same roomId supersedes it.
func NewRoomEvent(roomID, title string, maxParticipants, rounds int) *nostr.Event {
	return &nostr.Event{
		Kind:      KindBattleRoom,
		CreatedAt: nostr.Now(),
		Content:   fmt.Sprintf("Rap battle room: %s", title),
		Tags: nostr.Tags{
			{"L", Namespace},
			{"l", LabelRoom, Namespace},
			{"d", roomID},
			{"title", title},
			{"status", "waiting"},
			{"participants", "0"},
			{"max-participants", strconv.Itoa(maxParticipants)},
			{"rounds", strconv.Itoa(rounds)},
		},
	}
}

// NewJoinEvent builds an unsigned join note for a room.
func NewJoinEvent(roomID, roomName string) *nostr.Event {
	return &nostr.Event{
		Kind:      KindNote,
		CreatedAt: nostr.Now(),
		Content:   fmt.Sprintf("Joined the rap battle: %s \U0001F3A4", roomName),
		Tags: nostr.Tags{
			{"L", Namespace},
			{"l", LabelJoin, Namespace},
			{"room-id", roomID},
			{"t", HashtagRapBattle},
		},
	}
}

// NewVerseEvent builds an unsigned battle verse for a round in a room.
func NewVerseEvent(roomID, lyrics string, round int, beat Beat) *nostr.Event {
	content := fmt.Sprintf("\U0001F3A4 Battle Rap - Round %d \U0001F3A4\n\nBeat: %s\n\n%s\n\n#%s",
		round, beat.Name, lyrics, HashtagRapBattle)
	return &nostr.Event{
		Kind:      KindNote,
		CreatedAt: nostr.Now(),
		Content:   content,
		Tags: nostr.Tags{
			{"L", Namespace},
			{"l", LabelBattleRap, Namespace},
			{"room-id", roomID},
			{"round", strconv.Itoa(round)},
			{"beat-style", beat.Style},
			{"beat-bpm", strconv.Itoa(beat.BPM)},
			{"t", HashtagRapBattle},
		},
	}
}

// NewVoteEvent builds an unsigned reaction voting for a verse in a room.
func NewVoteEvent(targetEventID, roomID string) *nostr.Event {
	return &nostr.Event{
		Kind:      KindReaction,
		CreatedAt: nostr.Now(),
		Content:   "+",
		Tags: nostr.Tags{
			{"e", targetEventID},
			{"L", Namespace},
			{"l", LabelVote, Namespace},
			{"room-id", roomID},
		},
	}
}

// NewPracticeEvent builds an unsigned freestyle practice note. Practice posts
// are not attached to any room and never feed the battle aggregations.
func NewPracticeEvent(lyrics string, beat Beat) *nostr.Event {
	content := fmt.Sprintf("\U0001F3A4 Freestyle Rap Practice \U0001F3A4\n\nBeat: %s\nStyle: %s @ %d BPM\n\n%s\n\n#%s #freestyle #hiphop",
		beat.Name, beat.Style, beat.BPM, lyrics, HashtagRapBattle)
	return &nostr.Event{
		Kind:      KindNote,
		CreatedAt: nostr.Now(),
		Content:   content,
		Tags: nostr.Tags{
			{"t", HashtagRapBattle},
			{"t", "freestyle"},
			{"t", "hiphop"},
			{"L", Namespace},
			{"l", LabelPractice, Namespace},
			{"beat-style", beat.Style},
			{"beat-bpm", strconv.Itoa(beat.BPM)},
		},
	}
}
