// Package resolver turns identity and conversation ids into display names.
// Friend names in the messenger database may themselves be ciphertext; the
// resolver decrypts them with the owning identity's key and memoizes the
// result until a nickname-change event invalidates it.
package resolver

import (
	"context"
	"errors"
	"sync"

	"talkbridge/pkg/crypto"
	"talkbridge/pkg/logger"
	"talkbridge/pkg/store"
)

// Resolver looks up display names. A missing or unresolvable name returns
// ("", false); callers must not fail a record on a missing name.
type Resolver interface {
	ResolveName(ctx context.Context, identityID int64) (string, bool)
	ResolveConversation(ctx context.Context, conversationID int64) (string, bool)
}

// StoreResolver resolves names from the messenger database.
type StoreResolver struct {
	store  *store.Store
	engine *crypto.Engine

	mu    sync.RWMutex
	names map[int64]string
	convs map[int64]string
}

// New returns a StoreResolver with empty caches.
func New(st *store.Store, engine *crypto.Engine) *StoreResolver {
	return &StoreResolver{
		store:  st,
		engine: engine,
		names:  make(map[int64]string),
		convs:  make(map[int64]string),
	}
}

// ResolveName returns the friend's decrypted display name.
func (r *StoreResolver) ResolveName(ctx context.Context, identityID int64) (string, bool) {
	r.mu.RLock()
	name, ok := r.names[identityID]
	r.mu.RUnlock()
	if ok {
		return name, true
	}

	raw, enc, err := r.store.FriendName(ctx, identityID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logger.Warn("resolve_name_failed", "id", identityID, "error", err)
		}
		return "", false
	}
	name = raw
	if enc > 0 {
		dec, derr := r.engine.Decrypt(enc, identityID, raw)
		if derr != nil {
			logger.Warn("resolve_name_decrypt_failed", "id", identityID, "error", derr)
		} else {
			name = dec
		}
	}

	r.mu.Lock()
	r.names[identityID] = name
	r.mu.Unlock()
	return name, true
}

// ResolveConversation returns the conversation's display name.
func (r *StoreResolver) ResolveConversation(ctx context.Context, conversationID int64) (string, bool) {
	r.mu.RLock()
	name, ok := r.convs[conversationID]
	r.mu.RUnlock()
	if ok {
		return name, true
	}

	name, err := r.store.ChatName(ctx, conversationID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logger.Warn("resolve_conversation_failed", "id", conversationID, "error", err)
		}
		return "", false
	}

	r.mu.Lock()
	r.convs[conversationID] = name
	r.mu.Unlock()
	return name, true
}

// Invalidate drops the cached name for an identity. The drain calls this
// when it observes a nickname change.
func (r *StoreResolver) Invalidate(identityID int64) {
	r.mu.Lock()
	delete(r.names, identityID)
	r.mu.Unlock()
}
