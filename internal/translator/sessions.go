package translator

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"mtd/pkg/types"
)

// contextDepth is how many recent partial translations are carried as
// rolling context into the next chunk's translation.
const contextDepth = 3

// session is the state of one streaming utterance. accumulated is the raw
// concatenation of every chunk exactly as received; chunks carry their own
// spacing, so no separator is inserted.
type session struct {
	pair         types.LanguagePair
	accumulated  string
	chunks       int
	contextBuf   []string
	lastActivity time.Time
}

// sessionStore owns all streaming sessions. Calls touching the same session
// are serialized by the store mutex, matching the ordering guarantee for
// chunks within a session.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*session
	timeout  time.Duration
}

func newSessionStore(timeout time.Duration) *sessionStore {
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	return &sessionStore{
		sessions: make(map[string]*session),
		timeout:  timeout,
	}
}

// start opens a session and returns its id, generating one when the caller
// did not supply it. An existing id is reset rather than rejected.
func (st *sessionStore) start(id string, pair types.LanguagePair) string {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.reapLocked()
	if id == "" {
		id = uuid.NewString()
	}
	st.sessions[id] = &session{pair: pair, lastActivity: time.Now()}
	return id
}

// append records a chunk and returns the text to translate next: the rolling
// context followed by the new chunk.
func (st *sessionStore) append(id, chunk string) (types.LanguagePair, string, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.reapLocked()
	s, ok := st.sessions[id]
	if !ok {
		return types.LanguagePair{}, "", false
	}
	s.lastActivity = time.Now()
	s.accumulated += chunk
	s.chunks++
	parts := append(append([]string(nil), s.contextBuf...), strings.TrimSpace(chunk))
	return s.pair, strings.TrimSpace(strings.Join(parts, " ")), true
}

// recordPartial pushes a partial translation onto the session's rolling
// context, keeping only the newest contextDepth entries.
func (st *sessionStore) recordPartial(id, partial string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if !ok {
		return
	}
	s.contextBuf = append(s.contextBuf, partial)
	if len(s.contextBuf) > contextDepth {
		s.contextBuf = s.contextBuf[len(s.contextBuf)-contextDepth:]
	}
}

// finalize removes the session and returns its full accumulated text along
// with the number of chunks that built it.
func (st *sessionStore) finalize(id string) (types.LanguagePair, string, int, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.reapLocked()
	s, ok := st.sessions[id]
	if !ok {
		return types.LanguagePair{}, "", 0, false
	}
	delete(st.sessions, id)
	return s.pair, s.accumulated, s.chunks, true
}

// cancel drops the session. In-flight chunks for it run to completion but
// their results are dropped by the caller.
func (st *sessionStore) cancel(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.reapLocked()
	_, ok := st.sessions[id]
	delete(st.sessions, id)
	return ok
}

func (st *sessionStore) len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

func (st *sessionStore) setTimeout(d time.Duration) {
	if d <= 0 {
		return
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	st.timeout = d
}

// reapLocked drops sessions idle past the timeout. Caller holds st.mu.
func (st *sessionStore) reapLocked() {
	cutoff := time.Now().Add(-st.timeout)
	for id, s := range st.sessions {
		if s.lastActivity.Before(cutoff) {
			delete(st.sessions, id)
		}
	}
}
