package publisher

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip19"

	"github.com/patrickReiis/rap-battle-nostr/internal/battle"
	"github.com/patrickReiis/rap-battle-nostr/internal/ops"
	"github.com/patrickReiis/rap-battle-nostr/internal/scheduler"
)

type fakeSender struct {
	events []*nostr.Event
	fail   bool
}

func (f *fakeSender) Publish(ctx context.Context, event *nostr.Event) error {
	if f.fail {
		return errors.New("no relay accepted the event")
	}
	f.events = append(f.events, event)
	return nil
}

type invalidation struct {
	view   scheduler.View
	roomID string
}

func newTestPublisher(t *testing.T, sender Sender) (*Publisher, *[]invalidation) {
	t.Helper()

	secretKey := nostr.GeneratePrivateKey()
	nsec, err := nip19.EncodePrivateKey(secretKey)
	if err != nil {
		t.Fatalf("failed to encode nsec: %v", err)
	}

	var calls []invalidation
	pub, err := New(sender, nsec, func(view scheduler.View, roomID string) {
		calls = append(calls, invalidation{view, roomID})
	}, ops.Default())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return pub, &calls
}

func TestNew_RejectsBadKeys(t *testing.T) {
	if _, err := New(&fakeSender{}, "", nil, ops.Default()); err == nil {
		t.Error("New() accepted an empty key")
	}
	if _, err := New(&fakeSender{}, "nsec1notvalid", nil, ops.Default()); err == nil {
		t.Error("New() accepted a malformed nsec")
	}

	// An npub is a public key, not a signing key.
	pubkey, _ := nostr.GetPublicKey(nostr.GeneratePrivateKey())
	npub, _ := nip19.EncodePublicKey(pubkey)
	if _, err := New(&fakeSender{}, npub, nil, ops.Default()); err == nil {
		t.Error("New() accepted an npub")
	}
}

func TestCreateRoom_PublishesSignedDescriptor(t *testing.T) {
	sender := &fakeSender{}
	pub, calls := newTestPublisher(t, sender)

	roomID, err := pub.CreateRoom(context.Background(), "Friday Cypher", 2, 3)
	if err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}
	if !strings.HasPrefix(roomID, "room_") {
		t.Errorf("roomID = %q, want room_ prefix", roomID)
	}

	if len(sender.events) != 1 {
		t.Fatalf("published %d events, want 1", len(sender.events))
	}
	event := sender.events[0]
	if event.Kind != battle.KindBattleRoom {
		t.Errorf("Kind = %d, want %d", event.Kind, battle.KindBattleRoom)
	}
	if event.PubKey != pub.Pubkey() {
		t.Errorf("PubKey = %q, want publisher identity", event.PubKey)
	}
	if ok, err := event.CheckSignature(); !ok || err != nil {
		t.Errorf("event signature invalid: ok=%v err=%v", ok, err)
	}
	if got := battle.TagOr(event, "d", ""); got != roomID {
		t.Errorf("d tag = %q, want %q", got, roomID)
	}

	if len(*calls) != 1 || (*calls)[0].view != scheduler.ViewRooms {
		t.Errorf("invalidations = %+v, want one rooms invalidation", *calls)
	}
}

func TestCreateRoom_RequiresTitle(t *testing.T) {
	pub, _ := newTestPublisher(t, &fakeSender{})
	if _, err := pub.CreateRoom(context.Background(), "", 2, 3); err == nil {
		t.Error("CreateRoom() accepted an empty title")
	}
}

func TestJoinRoom_InvalidatesRoomView(t *testing.T) {
	sender := &fakeSender{}
	pub, calls := newTestPublisher(t, sender)

	if _, err := pub.JoinRoom(context.Background(), "room-1", "Friday Cypher"); err != nil {
		t.Fatalf("JoinRoom() error = %v", err)
	}

	event := sender.events[0]
	if got := battle.TagOr(event, "room-id", ""); got != "room-1" {
		t.Errorf("room-id tag = %q, want room-1", got)
	}
	if len(*calls) != 1 || (*calls)[0] != (invalidation{scheduler.ViewRoom, "room-1"}) {
		t.Errorf("invalidations = %+v, want room view for room-1", *calls)
	}
}

func TestSubmitVerse_InvalidatesVersesAndLeaderboard(t *testing.T) {
	sender := &fakeSender{}
	pub, calls := newTestPublisher(t, sender)
	beat := battle.Beat{Name: "Dusty Crates", Style: "Boom Bap", BPM: 90}

	if _, err := pub.SubmitVerse(context.Background(), "room-1", "my bars", 2, beat); err != nil {
		t.Fatalf("SubmitVerse() error = %v", err)
	}

	want := []invalidation{
		{scheduler.ViewVerses, "room-1"},
		{scheduler.ViewLeaderboard, ""},
	}
	if len(*calls) != len(want) {
		t.Fatalf("invalidations = %+v, want %+v", *calls, want)
	}
	for i := range want {
		if (*calls)[i] != want[i] {
			t.Errorf("invalidation[%d] = %+v, want %+v", i, (*calls)[i], want[i])
		}
	}
}

func TestVote_RequiresTarget(t *testing.T) {
	pub, _ := newTestPublisher(t, &fakeSender{})
	if _, err := pub.Vote(context.Background(), "", "room-1"); err == nil {
		t.Error("Vote() accepted an empty target")
	}
}

func TestVote_PublishesReaction(t *testing.T) {
	sender := &fakeSender{}
	pub, _ := newTestPublisher(t, sender)

	if _, err := pub.Vote(context.Background(), "battle-1", "room-1"); err != nil {
		t.Fatalf("Vote() error = %v", err)
	}

	event := sender.events[0]
	if event.Kind != battle.KindReaction {
		t.Errorf("Kind = %d, want %d", event.Kind, battle.KindReaction)
	}
	if target, _ := battle.VoteTarget(event); target != "battle-1" {
		t.Errorf("vote target = %q, want battle-1", target)
	}
}

func TestPublishFailure_NoInvalidation(t *testing.T) {
	pub, calls := newTestPublisher(t, &fakeSender{fail: true})

	if _, err := pub.JoinRoom(context.Background(), "room-1", "x"); err == nil {
		t.Fatal("JoinRoom() succeeded with a failing sender")
	}
	if len(*calls) != 0 {
		t.Errorf("invalidations = %+v, want none on failure", *calls)
	}
}
