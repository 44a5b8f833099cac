// Package store keeps per-session state: chat turn history and the registry
// of uploaded files. Sessions are created lazily and destroyed only by Clear.
package store

import (
	"log/slog"
	"os"
	"sort"
	"sync"

	"assistant/types"
)

// Storer is the session-state interface handed to handlers and the
// orchestrator.
type Storer interface {
	GetOrCreate(sessionID string) types.Session
	History(sessionID string) []types.Message
	SetHistory(sessionID string, history []types.Message)
	AppendTurn(sessionID string, msg types.Message)
	RegisterFile(sessionID string, rec types.FileRecord)
	ListFiles(sessionID string) []types.FileSummary
	DeleteFile(sessionID, fileID string)
	Clear(sessionID string)
}

// SessionStore is the in-memory Storer. Operations are individually
// atomic; callers are still expected to serialize requests per session for
// coherent chat history.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*types.Session
	logger   *slog.Logger
}

var _ Storer = (*SessionStore)(nil)

func New() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*types.Session),
		logger:   slog.Default(),
	}
}

// GetOrCreate returns a copy of the session, creating empty state on first
// sight of the id. Returned values never alias internal storage.
func (s *SessionStore) GetOrCreate(sessionID string) types.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copySession(s.ensure(sessionID))
}

// History returns a copy of the session's chat history, oldest first.
// Unknown sessions yield an empty history.
func (s *SessionStore) History(sessionID string) []types.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	history := make([]types.Message, len(sess.ChatHistory))
	copy(history, sess.ChatHistory)
	return history
}

// SetHistory replaces the session's chat history wholesale.
func (s *SessionStore) SetHistory(sessionID string, history []types.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.ensure(sessionID)
	sess.ChatHistory = make([]types.Message, len(history))
	copy(sess.ChatHistory, history)
}

// AppendTurn appends one chat turn, preserving strict append order.
func (s *SessionStore) AppendTurn(sessionID string, msg types.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.ensure(sessionID)
	sess.ChatHistory = append(sess.ChatHistory, msg)
}

func (s *SessionStore) RegisterFile(sessionID string, rec types.FileRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.ensure(sessionID)
	sess.Files[rec.FileID] = rec
}

// ListFiles returns summaries of the session's files, sorted by filename for
// stable output. Unknown sessions yield an empty list.
func (s *SessionStore) ListFiles(sessionID string) []types.FileSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]types.FileSummary, 0)
	sess, ok := s.sessions[sessionID]
	if !ok {
		return summaries
	}
	for _, rec := range sess.Files {
		summaries = append(summaries, types.FileSummary{
			FileID:     rec.FileID,
			Filename:   rec.Filename,
			ChunkCount: rec.ChunkCount,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Filename != summaries[j].Filename {
			return summaries[i].Filename < summaries[j].Filename
		}
		return summaries[i].FileID < summaries[j].FileID
	})
	return summaries
}

// DeleteFile removes the file record and its backing temporary storage.
// The file's postings stay in the search index; see the delete scenario in
// app/assistant tests. Unknown session or file ids are no-ops.
func (s *SessionStore) DeleteFile(sessionID, fileID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return
	}
	rec, ok := sess.Files[fileID]
	if !ok {
		return
	}
	s.removeStorage(rec)
	delete(sess.Files, fileID)
}

// Clear removes all of the session's file storage and drops the session
// entirely, chat history included.
func (s *SessionStore) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return
	}
	for _, rec := range sess.Files {
		s.removeStorage(rec)
	}
	delete(s.sessions, sessionID)
}

// removeStorage deletes the uploaded file from disk. Failures are logged,
// never raised: the record removal proceeds regardless.
func (s *SessionStore) removeStorage(rec types.FileRecord) {
	if rec.StoragePath == "" {
		return
	}
	if err := os.Remove(rec.StoragePath); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to remove uploaded file",
			"file_id", rec.FileID, "path", rec.StoragePath, "error", err)
	}
}

// ensure returns the live session, creating it if needed. Caller holds the
// write lock.
func (s *SessionStore) ensure(sessionID string) *types.Session {
	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &types.Session{
			ID:    sessionID,
			Files: make(map[string]types.FileRecord),
		}
		s.sessions[sessionID] = sess
	}
	return sess
}

func copySession(sess *types.Session) types.Session {
	out := types.Session{
		ID:          sess.ID,
		ChatHistory: make([]types.Message, len(sess.ChatHistory)),
		Files:       make(map[string]types.FileRecord, len(sess.Files)),
	}
	copy(out.ChatHistory, sess.ChatHistory)
	for id, rec := range sess.Files {
		out.Files[id] = rec
	}
	return out
}
