package testfixtures

import (
	"context"
	"testing"
	"time"

	"github.com/example/trainer-scheduler/internal/scheduler"
)

func TestServiceFactoryStackRoundTrip(t *testing.T) {
	factory := NewServiceFactory()
	stack := factory.NewStack(t)

	trainer := NewTrainerFixture(WithTrainerID("T1"), WithTrainerName("Alex Morgan"))
	stack.Harness.SeedTrainers(t, trainer)
	stack.Harness.SeedEvents(t, NewEventFixture(WithEventID("E1"), WithEventTrainer("T1")))

	ctx := context.Background()
	if err := stack.Store.Refresh(ctx); err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}

	loaded, err := stack.Store.Event("E1")
	if err != nil {
		t.Fatalf("expected seeded event, got %v", err)
	}
	if loaded.TrainerName != "Alex Morgan" {
		t.Fatalf("expected trainer name to be joined, got %q", loaded.TrainerName)
	}

	input := NewEventFixture(WithEventTrainer("T1"), WithEventWindow(Monday(14, 0), Monday(15, 0))).Input()
	created, warnings, err := stack.Store.CreateEvent(ctx, input)
	if err != nil {
		t.Fatalf("CreateEvent returned error: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("expected no conflicts, got %+v", warnings)
	}
	if created.ID != "evt-1" {
		t.Fatalf("expected generated ID evt-1, got %q", created.ID)
	}
	if !created.CreatedAt.Equal(factory.Clock.Now()) {
		t.Fatalf("expected timestamp %v, got %v", factory.Clock.Now(), created.CreatedAt)
	}

	stored, err := stack.Harness.Events.GetEvent(ctx, created.ID)
	if err != nil {
		t.Fatalf("expected event to be persisted: %v", err)
	}
	if !stored.Start.Equal(Monday(14, 0)) || stored.Status != string(scheduler.StatusScheduled) {
		t.Fatalf("unexpected stored event: %#v", stored)
	}

	slot, ok := stack.Store.NextAvailableSlot("T1", time.Hour)
	if !ok || !slot.Start.Equal(Monday(9, 0)) {
		t.Fatalf("expected Monday 09:00 slot, got %v (%v)", slot, ok)
	}
}
