package resolver

import (
	"context"
	"path/filepath"
	"testing"

	"talkbridge/pkg/crypto"
	"talkbridge/pkg/store"
)

func newTestResolver(t *testing.T) (*StoreResolver, *store.Store, *crypto.Engine) {
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
	engine := crypto.NewEngine()
	return New(st, engine), st, engine
}

func TestResolveNameDecrypts(t *testing.T) {
	r, st, engine := newTestResolver(t)
	ctx := context.Background()

	enc, err := engine.Encrypt(31, 42, "Alice")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if err := st.UpsertFriend(ctx, 42, enc, "", "", 31); err != nil {
		t.Fatalf("UpsertFriend: %v", err)
	}

	name, ok := r.ResolveName(ctx, 42)
	if !ok || name != "Alice" {
		t.Fatalf("ResolveName: got (%q, %v)", name, ok)
	}
}

func TestResolveNamePlaintext(t *testing.T) {
	r, st, _ := newTestResolver(t)
	ctx := context.Background()

	if err := st.UpsertFriend(ctx, 7, "Bob", "", "", 0); err != nil {
		t.Fatalf("UpsertFriend: %v", err)
	}
	name, ok := r.ResolveName(ctx, 7)
	if !ok || name != "Bob" {
		t.Fatalf("ResolveName: got (%q, %v)", name, ok)
	}
}

func TestResolveNameMissing(t *testing.T) {
	r, _, _ := newTestResolver(t)
	if name, ok := r.ResolveName(context.Background(), 999); ok || name != "" {
		t.Fatalf("missing friend: got (%q, %v)", name, ok)
	}
}

func TestInvalidateRefreshesName(t *testing.T) {
	r, st, _ := newTestResolver(t)
	ctx := context.Background()

	if err := st.UpsertFriend(ctx, 5, "before", "", "", 0); err != nil {
		t.Fatalf("UpsertFriend: %v", err)
	}
	if name, _ := r.ResolveName(ctx, 5); name != "before" {
		t.Fatalf("initial resolve: %q", name)
	}

	if err := st.UpsertFriend(ctx, 5, "after", "", "", 0); err != nil {
		t.Fatalf("UpsertFriend update: %v", err)
	}
	// Still cached until invalidated.
	if name, _ := r.ResolveName(ctx, 5); name != "before" {
		t.Fatalf("expected cached name, got %q", name)
	}
	r.Invalidate(5)
	if name, _ := r.ResolveName(ctx, 5); name != "after" {
		t.Fatalf("expected refreshed name, got %q", name)
	}
}

func TestResolveConversation(t *testing.T) {
	r, st, _ := newTestResolver(t)
	ctx := context.Background()

	if err := st.UpsertChatRoom(ctx, 100, "project room"); err != nil {
		t.Fatalf("UpsertChatRoom: %v", err)
	}
	name, ok := r.ResolveConversation(ctx, 100)
	if !ok || name != "project room" {
		t.Fatalf("ResolveConversation: got (%q, %v)", name, ok)
	}
	if _, ok := r.ResolveConversation(ctx, 101); ok {
		t.Fatal("unknown conversation should not resolve")
	}
}
