package maintenance

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"talkbridge/pkg/config"
	"talkbridge/pkg/models"
	"talkbridge/pkg/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "chat.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	ctx := context.Background()
	if err := st.EnsureChatSchema(ctx); err != nil {
		t.Fatalf("EnsureChatSchema: %v", err)
	}
	if err := st.InstallBridgeSchema(ctx); err != nil {
		t.Fatalf("InstallBridgeSchema: %v", err)
	}
	return st
}

func TestRunOncePrunesStaleEntries(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	old := time.Now().Add(-48 * time.Hour).Unix()
	fresh := time.Now().Unix()
	for _, ts := range []int64{old, old, fresh} {
		if _, err := st.InsertChangeEvent(ctx, models.MutationEvent{
			Type: models.MutationProfileChange, CreatedAt: ts,
		}); err != nil {
			t.Fatalf("InsertChangeEvent: %v", err)
		}
	}

	if err := RunOnce(ctx, 24*time.Hour, st); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	left, err := st.ChangeEvents(ctx)
	if err != nil {
		t.Fatalf("ChangeEvents: %v", err)
	}
	if len(left) != 1 || left[0].CreatedAt != fresh {
		t.Fatalf("unexpected survivors: %+v", left)
	}
}

func TestRunOnceZeroAgeSkipsPrune(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if _, err := st.InsertChangeEvent(ctx, models.MutationEvent{
		Type: models.MutationProfileChange, CreatedAt: 1,
	}); err != nil {
		t.Fatalf("InsertChangeEvent: %v", err)
	}
	if err := RunOnce(ctx, 0, st); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	left, _ := st.ChangeEvents(ctx)
	if len(left) != 1 {
		t.Fatalf("zero prune age must not prune, left %d", len(left))
	}
}

func TestStartRejectsInvalidCron(t *testing.T) {
	st := openTestStore(t)
	_, err := Start(context.Background(), config.MaintenanceConfig{
		Enabled: true, Cron: "not a cron",
	}, st)
	if err == nil {
		t.Fatal("expected invalid cron error")
	}
}

func TestStartDisabledIsNoop(t *testing.T) {
	st := openTestStore(t)
	cancel, err := Start(context.Background(), config.MaintenanceConfig{Enabled: false}, st)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	cancel()
}
