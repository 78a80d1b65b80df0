package aggregates

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"golang.org/x/sync/errgroup"

	"github.com/patrickReiis/rap-battle-nostr/internal/battle"
	"github.com/patrickReiis/rap-battle-nostr/internal/config"
	"github.com/patrickReiis/rap-battle-nostr/internal/ops"
)

// Query limits per view
const (
	roomListLimit   = 50
	joinEventLimit  = 100
	verseListLimit  = 50
	battleScanLimit = 500
	voteScanLimit   = 1000
)

// Querier is the event query gateway the service reads from
type Querier interface {
	Query(ctx context.Context, filter nostr.Filter) ([]*nostr.Event, error)
}

// Verse is one battle-rap entry in a room, newest first in listings
type Verse struct {
	ID        string `json:"id"`
	Pubkey    string `json:"pubkey"`
	Content   string `json:"content"`
	Round     int    `json:"round"`
	BeatStyle string `json:"beatStyle,omitempty"`
	CreatedAt int64  `json:"createdAt"`
}

// Service fetches events through a Querier and hands them to the pure
// builders. Each Fetch method is one aggregation cycle: it either fully
// succeeds or fully fails, never returning a partial view.
type Service struct {
	client Querier
	policy *config.RelayPolicy
	log    *ops.Logger
}

// NewService creates an aggregation service bound to a query gateway
func NewService(client Querier, policy *config.RelayPolicy, log *ops.Logger) *Service {
	return &Service{
		client: client,
		policy: policy,
		log:    log.WithComponent("aggregates"),
	}
}

func labelFilter(kind int, label string) nostr.Filter {
	return nostr.Filter{
		Kinds: []int{kind},
		Tags: nostr.TagMap{
			"L": []string{battle.Namespace},
			"l": []string{label, battle.Namespace},
		},
	}
}

// FetchRooms queries all room descriptors plus their creators' profiles and
// returns the sorted room list.
func (s *Service) FetchRooms(ctx context.Context) ([]BattleRoom, error) {
	ctx, cancel := context.WithTimeout(ctx, s.policy.QueryTimeout())
	defer cancel()

	start := time.Now()
	filter := labelFilter(battle.KindBattleRoom, battle.LabelRoom)
	filter.Limit = roomListLimit

	roomEvents, err := s.client.Query(ctx, filter)
	s.log.LogQuery("rooms", len(roomEvents), time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("room query failed: %w", err)
	}

	profiles := make(map[string]Profile)
	if authors := distinctAuthors(roomEvents); len(authors) > 0 {
		metadataEvents, err := s.client.Query(ctx, nostr.Filter{
			Kinds:   []int{battle.KindProfileMetadata},
			Authors: authors,
		})
		if err != nil {
			return nil, fmt.Errorf("profile query failed: %w", err)
		}
		profiles = BuildProfiles(metadataEvents)
	}

	return BuildRooms(roomEvents, profiles), nil
}

// FetchRoomState queries a room's join and vote events and derives its
// membership and scores. Round progress is local state, not read from the
// network, so the view always reports the default round info.
func (s *Service) FetchRoomState(ctx context.Context, roomID string) (RoomState, error) {
	if roomID == "" {
		return RoomState{}, fmt.Errorf("roomID is required")
	}

	ctx, cancel := context.WithTimeout(ctx, s.policy.QueryTimeout())
	defer cancel()

	start := time.Now()
	joinFilter := labelFilter(battle.KindNote, battle.LabelJoin)
	joinFilter.Tags["room-id"] = []string{roomID}
	joinFilter.Limit = joinEventLimit

	joinEvents, err := s.client.Query(ctx, joinFilter)
	s.log.LogQuery("room", len(joinEvents), time.Since(start), err)
	if err != nil {
		return RoomState{}, fmt.Errorf("join query failed: %w", err)
	}

	voteFilter := labelFilter(battle.KindReaction, battle.LabelVote)
	voteFilter.Tags["room-id"] = []string{roomID}

	voteEvents, err := s.client.Query(ctx, voteFilter)
	if err != nil {
		return RoomState{}, fmt.Errorf("vote query failed: %w", err)
	}

	return BuildRoomState(roomID, joinEvents, voteEvents, DefaultRoundInfo()), nil
}

// FetchRoomVerses queries a room's battle verses, newest first.
func (s *Service) FetchRoomVerses(ctx context.Context, roomID string) ([]Verse, error) {
	if roomID == "" {
		return nil, fmt.Errorf("roomID is required")
	}

	ctx, cancel := context.WithTimeout(ctx, s.policy.QueryTimeout())
	defer cancel()

	start := time.Now()
	filter := labelFilter(battle.KindNote, battle.LabelBattleRap)
	filter.Tags["room-id"] = []string{roomID}
	filter.Limit = verseListLimit

	events, err := s.client.Query(ctx, filter)
	s.log.LogQuery("verses", len(events), time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("verse query failed: %w", err)
	}

	verses := make([]Verse, 0, len(events))
	for _, event := range events {
		verses = append(verses, Verse{
			ID:        event.ID,
			Pubkey:    event.PubKey,
			Content:   event.Content,
			Round:     battle.IntTagOr(event, "round", 1),
			BeatStyle: battle.TagOr(event, "beat-style", ""),
			CreatedAt: int64(event.CreatedAt),
		})
	}
	sort.SliceStable(verses, func(i, j int) bool {
		return verses[i].CreatedAt > verses[j].CreatedAt
	})

	return verses, nil
}

// FetchLeaderboard queries all battle verses and votes concurrently under
// one shared bound and derives the global ranking. Either query failing
// fails the whole aggregation.
func (s *Service) FetchLeaderboard(ctx context.Context) (Leaderboard, error) {
	ctx, cancel := context.WithTimeout(ctx, s.policy.LeaderboardTimeout())
	defer cancel()

	start := time.Now()
	var battleEvents, voteEvents []*nostr.Event

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		filter := labelFilter(battle.KindNote, battle.LabelBattleRap)
		filter.Limit = battleScanLimit
		events, err := s.client.Query(gctx, filter)
		if err != nil {
			return fmt.Errorf("battle query failed: %w", err)
		}
		battleEvents = events
		return nil
	})
	g.Go(func() error {
		filter := labelFilter(battle.KindReaction, battle.LabelVote)
		filter.Limit = voteScanLimit
		events, err := s.client.Query(gctx, filter)
		if err != nil {
			return fmt.Errorf("vote query failed: %w", err)
		}
		voteEvents = events
		return nil
	})

	err := g.Wait()
	s.log.LogQuery("leaderboard", len(battleEvents)+len(voteEvents), time.Since(start), err)
	if err != nil {
		return Leaderboard{}, err
	}

	return BuildLeaderboard(battleEvents, voteEvents), nil
}

func distinctAuthors(events []*nostr.Event) []string {
	seen := make(map[string]bool)
	authors := make([]string, 0)
	for _, event := range events {
		if !seen[event.PubKey] {
			seen[event.PubKey] = true
			authors = append(authors, event.PubKey)
		}
	}
	return authors
}
