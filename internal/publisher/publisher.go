// Package publisher is the write side: it builds, signs, and sends the
// app's outgoing events. Publishing is eventually consistent — a published
// event only shows up in views once a later poll cycle observes it, so
// every publish also kicks the affected views.
package publisher

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip19"

	"github.com/patrickReiis/rap-battle-nostr/internal/battle"
	"github.com/patrickReiis/rap-battle-nostr/internal/ops"
	"github.com/patrickReiis/rap-battle-nostr/internal/scheduler"
)

// Sender is the relay client the publisher writes through
type Sender interface {
	Publish(ctx context.Context, event *nostr.Event) error
}

// Invalidator is notified after a successful publish so the affected view
// refreshes without waiting for its next tick
type Invalidator func(view scheduler.View, roomID string)

// Publisher signs and sends outgoing events
type Publisher struct {
	client     Sender
	secretKey  string
	pubkey     string
	invalidate Invalidator
	log        *ops.Logger
}

// New creates a publisher from a bech32 nsec. The key never leaves this
// struct; callers only see event ids.
func New(client Sender, nsec string, invalidate Invalidator, log *ops.Logger) (*Publisher, error) {
	if nsec == "" {
		return nil, fmt.Errorf("no secret key configured")
	}

	prefix, decoded, err := nip19.Decode(nsec)
	if err != nil {
		return nil, fmt.Errorf("failed to decode nsec: %w", err)
	}
	if prefix != "nsec" {
		return nil, fmt.Errorf("expected an nsec key, got %s", prefix)
	}
	secretKey := decoded.(string)

	pubkey, err := nostr.GetPublicKey(secretKey)
	if err != nil {
		return nil, fmt.Errorf("invalid secret key: %w", err)
	}

	if invalidate == nil {
		invalidate = func(scheduler.View, string) {}
	}

	return &Publisher{
		client:     client,
		secretKey:  secretKey,
		pubkey:     pubkey,
		invalidate: invalidate,
		log:        log.WithComponent("publisher"),
	}, nil
}

// Pubkey returns the publishing identity's public key
func (p *Publisher) Pubkey() string {
	return p.pubkey
}

func (p *Publisher) sign(event *nostr.Event) error {
	return event.Sign(p.secretKey)
}

func (p *Publisher) send(ctx context.Context, event *nostr.Event) (string, error) {
	if err := p.sign(event); err != nil {
		return "", fmt.Errorf("failed to sign event: %w", err)
	}
	err := p.client.Publish(ctx, event)
	p.log.LogPublish(event.Kind, event.ID, err)
	ops.PublishTotal.WithLabelValues(strconv.Itoa(event.Kind), ops.OutcomeOf(err)).Inc()
	if err != nil {
		return "", err
	}
	return event.ID, nil
}

// NewRoomID generates a fresh room identifier
func NewRoomID() string {
	buf := make([]byte, 8)
	rand.Read(buf)
	return "room_" + hex.EncodeToString(buf)
}

// CreateRoom publishes a room descriptor and returns the room id
func (p *Publisher) CreateRoom(ctx context.Context, title string, maxParticipants, rounds int) (string, error) {
	if title == "" {
		return "", fmt.Errorf("room title is required")
	}
	if maxParticipants < 2 {
		maxParticipants = 2
	}
	if rounds < 1 {
		rounds = 3
	}

	roomID := NewRoomID()
	if _, err := p.send(ctx, battle.NewRoomEvent(roomID, title, maxParticipants, rounds)); err != nil {
		return "", err
	}
	p.invalidate(scheduler.ViewRooms, "")
	return roomID, nil
}

// JoinRoom publishes a join note for a room
func (p *Publisher) JoinRoom(ctx context.Context, roomID, roomName string) (string, error) {
	if roomID == "" {
		return "", fmt.Errorf("roomID is required")
	}
	if roomName == "" {
		roomName = "Battle Room"
	}

	id, err := p.send(ctx, battle.NewJoinEvent(roomID, roomName))
	if err != nil {
		return "", err
	}
	p.invalidate(scheduler.ViewRoom, roomID)
	return id, nil
}

// SubmitVerse publishes a battle verse for a round in a room
func (p *Publisher) SubmitVerse(ctx context.Context, roomID, lyrics string, round int, beat battle.Beat) (string, error) {
	if roomID == "" {
		return "", fmt.Errorf("roomID is required")
	}
	if lyrics == "" {
		return "", fmt.Errorf("lyrics are required")
	}
	if round < 1 {
		round = 1
	}

	id, err := p.send(ctx, battle.NewVerseEvent(roomID, lyrics, round, beat))
	if err != nil {
		return "", err
	}
	p.invalidate(scheduler.ViewVerses, roomID)
	p.invalidate(scheduler.ViewLeaderboard, "")
	return id, nil
}

// Vote publishes a reaction voting for a verse
func (p *Publisher) Vote(ctx context.Context, targetEventID, roomID string) (string, error) {
	if targetEventID == "" {
		return "", fmt.Errorf("target event id is required")
	}
	if roomID == "" {
		return "", fmt.Errorf("roomID is required")
	}

	id, err := p.send(ctx, battle.NewVoteEvent(targetEventID, roomID))
	if err != nil {
		return "", err
	}
	p.invalidate(scheduler.ViewRoom, roomID)
	p.invalidate(scheduler.ViewLeaderboard, "")
	return id, nil
}

// PublishPractice publishes a freestyle practice note
func (p *Publisher) PublishPractice(ctx context.Context, lyrics string, beat battle.Beat) (string, error) {
	if lyrics == "" {
		return "", fmt.Errorf("lyrics are required")
	}
	return p.send(ctx, battle.NewPracticeEvent(lyrics, beat))
}
