package memory

import (
	"sync"

	"floatchat-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps per-session transcripts in process memory.
// Sessions never expire; loss on restart is accepted. The cache only
// guards its own map, so the mutex serializes access to the transcript
// slices stored inside it.
type SessionRepository struct {
	mu    sync.Mutex
	cache *cache.Cache
}

func NewSessionRepository() *SessionRepository {
	c := cache.New(cache.NoExpiration, 0)
	return &SessionRepository{
		cache: c,
	}
}

// Get returns a copy of the transcript for sessionID, creating an empty
// session on first reference.
func (r *SessionRepository) Get(sessionID string) []store.ConversationTurn {
	r.mu.Lock()
	defer r.mu.Unlock()

	if x, found := r.cache.Get(sessionID); found {
		transcript := x.(*store.Session).Transcript
		out := make([]store.ConversationTurn, len(transcript))
		copy(out, transcript)
		return out
	}
	r.cache.Set(sessionID, &store.Session{ID: sessionID}, cache.NoExpiration)
	return nil
}

// Append adds a turn to the session transcript.
func (r *SessionRepository) Append(sessionID string, turn store.ConversationTurn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess := &store.Session{ID: sessionID}
	if x, found := r.cache.Get(sessionID); found {
		sess = x.(*store.Session)
	}
	sess.Transcript = append(sess.Transcript, turn)
	r.cache.Set(sessionID, sess, cache.NoExpiration)
}

// Clear removes a session. Returns true if it existed.
func (r *SessionRepository) Clear(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, found := r.cache.Get(sessionID); !found {
		return false
	}
	r.cache.Delete(sessionID)
	return true
}
