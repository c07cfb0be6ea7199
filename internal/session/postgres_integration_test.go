package session_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/planit-dev/planit/internal/session"
	"github.com/planit-dev/planit/internal/testutil"
	"github.com/planit-dev/planit/internal/trip"
)

func TestPGStoreRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := session.NewPGStore(db.Pool, nil)

	sess := session.NewSession(uuid.Nil)
	sess.OwnerID = "user-42"
	sess.SetPlan(
		trip.Request{Destination: "Goa", Days: 3, Travelers: 2, Style: trip.StyleBudget},
		&trip.PlanResult{Itinerary: "**Day 1:** beach morning", Notes: []string{"draft"}},
	)
	sess.Append(
		session.Message{Role: session.RoleUser, Content: "plan my trip"},
		session.Message{
			Role:    session.RoleAssistant,
			Content: "here is your plan",
			Invocations: []session.ToolInvocation{{
				Tool:   "recalculate_budget",
				Args:   json.RawMessage(`{"destination":"Goa","days":3}`),
				Result: json.RawMessage(`{"ok":true}`),
			}},
		},
	)

	if err := store.Put(ctx, sess); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.OwnerID != "user-42" {
		t.Errorf("OwnerID = %q, want user-42", got.OwnerID)
	}
	if got.Request == nil || got.Request.Destination != "Goa" {
		t.Fatalf("Request not restored: %+v", got.Request)
	}
	if got.Plan == nil || got.Plan.Itinerary != sess.Plan.Itinerary {
		t.Fatalf("Plan not restored: %+v", got.Plan)
	}
	if len(got.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(got.Messages))
	}
	if got.Messages[0].Role != session.RoleUser || got.Messages[1].Role != session.RoleAssistant {
		t.Errorf("message roles out of order: %q, %q", got.Messages[0].Role, got.Messages[1].Role)
	}
	invs := got.Messages[1].Invocations
	if len(invs) != 1 || invs[0].Tool != "recalculate_budget" {
		t.Errorf("invocations not restored: %+v", invs)
	}
}

func TestPGStoreGetUnknownID(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	store := session.NewPGStore(db.Pool, nil)
	if _, err := store.Get(context.Background(), uuid.New()); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("Get unknown id: err = %v, want ErrNotFound", err)
	}
}

func TestPGStoreAppendsOnlyNewMessages(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := session.NewPGStore(db.Pool, nil)

	sess := session.NewSession(uuid.Nil)
	sess.Append(session.Message{Role: session.RoleUser, Content: "first"})
	if err := store.Put(ctx, sess); err != nil {
		t.Fatalf("first Put: %v", err)
	}

	// A second Put with the full history must insert only the new tail.
	sess.Append(
		session.Message{Role: session.RoleAssistant, Content: "second"},
		session.Message{Role: session.RoleUser, Content: "third"},
	)
	if err := store.Put(ctx, sess); err != nil {
		t.Fatalf("second Put: %v", err)
	}

	got, err := store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	want := []string{"first", "second", "third"}
	if len(got.Messages) != len(want) {
		t.Fatalf("got %d messages, want %d", len(got.Messages), len(want))
	}
	for i, content := range want {
		if got.Messages[i].Content != content {
			t.Errorf("message %d = %q, want %q", i, got.Messages[i].Content, content)
		}
	}
}

func TestPGStoreDeleteCascadesMessages(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := session.NewPGStore(db.Pool, nil)

	sess := session.NewSession(uuid.Nil)
	sess.Append(session.Message{Role: session.RoleUser, Content: "hello"})
	if err := store.Put(ctx, sess); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if err := store.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, sess.ID); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("Get after delete: err = %v, want ErrNotFound", err)
	}

	var orphans int
	err := db.Pool.QueryRow(ctx,
		`SELECT count(*) FROM session_messages WHERE session_id = $1`, sess.ID,
	).Scan(&orphans)
	if err != nil {
		t.Fatalf("counting orphan messages: %v", err)
	}
	if orphans != 0 {
		t.Errorf("%d orphan messages after delete, want 0", orphans)
	}
}

func TestPGStoreEvictIdle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := session.NewPGStore(db.Pool, nil)

	stale := session.NewSession(uuid.Nil)
	stale.UpdatedAt = time.Now().Add(-2 * time.Hour)
	fresh := session.NewSession(uuid.Nil)

	for _, s := range []*session.Session{stale, fresh} {
		if err := store.Put(ctx, s); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	evicted, err := store.EvictIdle(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("EvictIdle: %v", err)
	}
	if evicted != 1 {
		t.Errorf("evicted %d sessions, want 1", evicted)
	}
	if _, err := store.Get(ctx, stale.ID); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("stale session still present: err = %v", err)
	}
	if _, err := store.Get(ctx, fresh.ID); err != nil {
		t.Errorf("fresh session evicted: %v", err)
	}
}
