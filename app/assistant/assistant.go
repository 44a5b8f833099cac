// Package assistant orchestrates a query end to end: history handling,
// retrieval from the uploaded-document index and the online providers,
// context assembly, and answer generation.
package assistant

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"assistant/app/agent"
	"assistant/index"
	"assistant/parser"
	"assistant/scholar"
	"assistant/store"
	"assistant/types"
)

const greetingContext = "The user is greeting you. Respond in a friendly manner."

var greetings = map[string]struct{}{}

func init() {
	for _, g := range []string{
		"hi", "hello", "hey", "greetings", "howdy", "hola", "what's up", "how are you",
	} {
		greetings[g] = struct{}{}
	}
}

// Assistant wires the retrieval index, session state, and the answer and
// paper-search collaborators behind the HTTP handlers.
type Assistant struct {
	index    *index.Index
	sessions store.Storer
	papers   scholar.Searcher
	agent    agent.Answerer
	logger   *slog.Logger

	topK            int
	maxPaperResults int
}

func New(ix *index.Index, sessions store.Storer, papers scholar.Searcher, answerer agent.Answerer, cfg types.Config) *Assistant {
	return &Assistant{
		index:           ix,
		sessions:        sessions,
		papers:          papers,
		agent:           answerer,
		logger:          slog.Default(),
		topK:            cfg.TopK,
		maxPaperResults: cfg.MaxPaperResults,
	}
}

// Query answers one question for a session. The returned response carries the
// retrieved evidence, the answer, and the session's full chat history with
// this turn appended.
func (a *Assistant) Query(ctx context.Context, sessionID string, params types.QueryParams) types.QueryResponse {
	a.sessions.GetOrCreate(sessionID)

	if params.PreviousMessages != "" {
		var history []types.Message
		if err := json.Unmarshal([]byte(params.PreviousMessages), &history); err != nil {
			a.logger.Warn("ignoring malformed previous_messages", "session_id", sessionID, "error", err)
		} else {
			a.sessions.SetHistory(sessionID, history)
		}
	}

	source := params.Source
	if source == "" {
		source = types.SourceBoth
	}

	var chunks []types.Chunk
	if source == types.SourceUploaded || source == types.SourceBoth {
		chunks = a.index.Search(params.Query, a.topK)
	}
	var papers []types.Paper
	if source == types.SourceOnline || source == types.SourceBoth {
		papers = a.papers.SearchAll(ctx, params.Query, a.maxPaperResults)
	}

	history := a.sessions.History(sessionID)
	asm := agent.Assemble(chunks, papers, history)

	var answer string
	switch {
	case asm.HasEvidence():
		answer = a.agent.Answer(ctx, params.Query, asm.Context())
	case isGreeting(params.Query):
		answer = a.agent.Answer(ctx, params.Query, greetingContext)
	default:
		// No evidence and not a greeting: let the model answer from history
		// and general knowledge.
		answer = a.agent.Answer(ctx, params.Query, asm.History+asm.Citations)
	}

	a.sessions.AppendTurn(sessionID, types.Message{Role: types.RoleUser, Content: params.Query})
	a.sessions.AppendTurn(sessionID, types.Message{Role: types.RoleAssistant, Content: answer})

	return types.QueryResponse{
		UploadedDocuments: chunks,
		OnlinePapers:      papers,
		Answer:            answer,
		ChatHistory:       a.sessions.History(sessionID),
	}
}

// Upload parses the stored file, ingests its chunks into the index, and
// registers the file with the session.
func (a *Assistant) Upload(sessionID, fileID, storagePath, filename string) (types.FileRecord, error) {
	chunks, err := parser.Parse(storagePath, filename)
	if err != nil {
		return types.FileRecord{}, err
	}
	ids := a.index.Ingest(chunks)

	rec := types.FileRecord{
		FileID:      fileID,
		Filename:    filename,
		StoragePath: storagePath,
		ChunkCount:  len(ids),
		ChunkIDs:    ids,
	}
	a.sessions.RegisterFile(sessionID, rec)
	a.logger.Info("file ingested",
		"session_id", sessionID, "file_id", fileID, "filename", filename, "chunks", len(ids))
	return rec, nil
}

// ListFiles returns the session's uploaded files.
func (a *Assistant) ListFiles(sessionID string) []types.FileSummary {
	return a.sessions.ListFiles(sessionID)
}

// DeleteFile drops the file record and its stored upload. Its chunks remain
// searchable until the session is cleared.
func (a *Assistant) DeleteFile(sessionID, fileID string) {
	a.sessions.DeleteFile(sessionID, fileID)
}

// ClearSession drops the session's files, storage and chat history. The
// shared index is left alone: other sessions keep their indexed chunks, and
// this session's postings linger like a deleted file's do.
func (a *Assistant) ClearSession(sessionID string) {
	a.sessions.Clear(sessionID)
}

// isGreeting matches short conversational openers so they skip the evidence
// requirement.
func isGreeting(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if _, ok := greetings[q]; ok {
		return true
	}
	return strings.HasPrefix(q, "hi ") || strings.HasPrefix(q, "hello ")
}
