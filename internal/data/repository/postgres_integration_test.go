//go:build integration

package repository

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"mentor-booking/internal/data/entity"
	"mentor-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Run with: TEST_DATABASE_URL=postgres://... go test -tags integration ./internal/data/repository/
func openTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := database.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return pool
}

func seedSlot(t *testing.T, pool *pgxpool.Pool, capacity int) *entity.Slot {
	t.Helper()
	ctx := context.Background()
	mentor, meeting := uuid.New(), uuid.New()

	if _, err := pool.Exec(ctx, `INSERT INTO profiles (id, role) VALUES ($1, 'mentor')`, mentor); err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	if _, err := pool.Exec(ctx, `INSERT INTO meetings (id, mentor_id, title) VALUES ($1, $2, 'Office hours')`, meeting, mentor); err != nil {
		t.Fatalf("seed meeting: %v", err)
	}

	now := time.Now()
	slot := &entity.Slot{
		BaseNoDelete:   entity.NewBaseNoDelete(now),
		MeetingID:      meeting,
		StartTime:      now.Add(24 * time.Hour),
		EndTime:        now.Add(25 * time.Hour),
		SpotsAvailable: capacity,
		IsAvailable:    true,
	}
	if err := NewSlotRepository(pool, zap.NewNop()).Create(ctx, slot); err != nil {
		t.Fatalf("seed slot: %v", err)
	}
	return slot
}

func TestPostgresConcurrentClaimsStopAtCapacity(t *testing.T) {
	pool := openTestDB(t)
	slot := seedSlot(t, pool, 3)
	repo := NewRepository(pool, zap.NewNop())

	var (
		wg      sync.WaitGroup
		claimed atomic.Int32
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.WithTx(context.Background(), func(tx *Repository) error {
				ok, err := tx.Slot.ClaimSpot(context.Background(), slot.ID)
				if ok {
					claimed.Add(1)
				}
				return err
			})
			if err != nil {
				t.Errorf("claim: %v", err)
			}
		}()
	}
	wg.Wait()

	if n := claimed.Load(); n != 3 {
		t.Errorf("claims won = %d, want 3", n)
	}
	got, err := repo.Slot.FindByID(context.Background(), slot.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.SpotsTaken != 3 || !got.IsAvailable {
		t.Errorf("slot = %d/%d open=%v", got.SpotsTaken, got.SpotsAvailable, got.IsAvailable)
	}
}

func TestPostgresReleaseKeepsDisabledSlotClosed(t *testing.T) {
	pool := openTestDB(t)
	slot := seedSlot(t, pool, 1)
	slots := NewSlotRepository(pool, zap.NewNop())
	ctx := context.Background()

	if ok, err := slots.ClaimSpot(ctx, slot.ID); err != nil || !ok {
		t.Fatalf("ClaimSpot = %v, %v", ok, err)
	}
	if err := slots.SetAvailability(ctx, slot.ID, false); err != nil {
		t.Fatalf("SetAvailability: %v", err)
	}
	if ok, err := slots.ReleaseSpot(ctx, slot.ID); err != nil || !ok {
		t.Fatalf("ReleaseSpot = %v, %v", ok, err)
	}

	if ok, err := slots.ClaimSpot(ctx, slot.ID); err != nil || ok {
		t.Fatalf("ClaimSpot on a disabled slot = %v, %v", ok, err)
	}
	got, _ := slots.FindByID(ctx, slot.ID)
	if got.IsAvailable || got.SpotsTaken != 0 {
		t.Errorf("slot = %d taken, open=%v", got.SpotsTaken, got.IsAvailable)
	}

	// release never goes below zero
	if ok, err := slots.ReleaseSpot(ctx, slot.ID); err != nil || ok {
		t.Errorf("ReleaseSpot at zero = %v, %v", ok, err)
	}
}
