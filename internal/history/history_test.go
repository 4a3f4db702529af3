package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/hulikau/xxx-s-market-observer/internal/engine"
	"github.com/hulikau/xxx-s-market-observer/internal/notify"
	logx "github.com/hulikau/xxx-s-market-observer/pkg/logx"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{Path: filepath.Join(t.TempDir(), "history.db")}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordAndQueryCycles(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	now := time.Now()
	for i := 0; i < 3; i++ {
		err := s.RecordCycle(ctx, engine.CycleSummary{
			StartedAt:  now.Add(time.Duration(i) * time.Minute),
			FinishedAt: now.Add(time.Duration(i)*time.Minute + 10*time.Second),
			Total:      4,
			Succeeded:  3,
			Failed:     1,
			NewSizes:   i,
		})
		if err != nil {
			t.Fatalf("RecordCycle: %v", err)
		}
	}

	rows, err := s.RecentCycles(ctx, 2)
	if err != nil {
		t.Fatalf("RecentCycles: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	// Newest first.
	if rows[0].NewSizes != 2 || rows[1].NewSizes != 1 {
		t.Errorf("order wrong: %+v", rows)
	}
	if rows[0].Total != 4 || rows[0].Succeeded != 3 || rows[0].Failed != 1 {
		t.Errorf("counters wrong: %+v", rows[0])
	}
}

func TestRecordAndQueryNotifications(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	err := s.RecordNotification(ctx, notify.Event{
		SiteName:    "nike",
		URL:         "https://nike.test/p",
		ProductName: "Air Test",
		NewSizes:    []string{"9", "10"},
		Price:       "$120",
	}, 1)
	if err != nil {
		t.Fatalf("RecordNotification: %v", err)
	}

	rows, err := s.RecentNotifications(ctx, 10)
	if err != nil {
		t.Fatalf("RecentNotifications: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	got := rows[0]
	if got.Site != "nike" || got.Sizes != "9,10" || got.Delivered != 1 {
		t.Errorf("row = %+v", got)
	}
	if got.ProductName != "Air Test" || got.Price != "$120" {
		t.Errorf("optional fields = %+v", got)
	}
}

func TestNilStoreIsNoop(t *testing.T) {
	t.Parallel()
	var s *Store
	ctx := context.Background()

	if err := s.RecordCycle(ctx, engine.CycleSummary{}); err != nil {
		t.Fatalf("nil RecordCycle: %v", err)
	}
	if err := s.RecordNotification(ctx, notify.Event{}, 0); err != nil {
		t.Fatalf("nil RecordNotification: %v", err)
	}
	if rows, err := s.RecentCycles(ctx, 5); err != nil || rows != nil {
		t.Fatalf("nil RecentCycles = %v, %v", rows, err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("nil Close: %v", err)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{}, logx.Nop()); err == nil {
		t.Fatal("expected error for empty path")
	}
}
