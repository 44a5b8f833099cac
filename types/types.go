package types

import (
	"os"
	"strconv"
)

type ChunkType string

const (
	ChunkMetadata       ChunkType = "metadata"
	ChunkTOC            ChunkType = "toc"
	ChunkPage           ChunkType = "page"
	ChunkTable          ChunkType = "table"
	ChunkParagraphGroup ChunkType = "paragraph_group"
)

// ChunkMeta describes where a chunk came from. Page is 1-based and only set
// for page and table chunks; TableIndex is 0-based within its page.
type ChunkMeta struct {
	Source     string    `json:"source"`
	ChunkType  ChunkType `json:"chunk_type"`
	Page       int       `json:"page,omitempty"`
	TableIndex *int      `json:"table_index,omitempty"`
}

// Chunk is the atomic unit stored and retrieved by the index.
// Immutable once created; Score is only set on search results.
type Chunk struct {
	ID       string    `json:"id"`
	Content  string    `json:"content"`
	Metadata ChunkMeta `json:"metadata"`
	Score    float64   `json:"score,omitempty"`
}

// FileRecord tracks one uploaded file and the chunks it produced.
type FileRecord struct {
	FileID      string   `json:"file_id"`
	Filename    string   `json:"filename"`
	StoragePath string   `json:"-"`
	ChunkCount  int      `json:"chunk_count"`
	ChunkIDs    []string `json:"-"`
}

type FileSummary struct {
	FileID     string `json:"file_id"`
	Filename   string `json:"filename"`
	ChunkCount int    `json:"chunk_count"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Session holds per-session state: the chat history in append order and the
// uploaded-file registry.
type Session struct {
	ID          string
	ChatHistory []Message
	Files       map[string]FileRecord
}

// Paper is a search hit from an academic provider. Transient, never persisted.
type Paper struct {
	Title     string   `json:"title"`
	Authors   []string `json:"authors"`
	Summary   string   `json:"summary"`
	Published string   `json:"published"`
	URL       string   `json:"url"`
	Source    string   `json:"source"`
	ID        string   `json:"id"`
}

// Config collects all environment-driven settings.
type Config struct {
	ListenAddr      string
	UploadDir       string
	DataDir         string // index snapshot location, empty disables persistence
	GroqAPIKey      string
	GroqBaseURL     string
	GroqModel       string
	EntrezEmail     string
	TopK            int
	MaxPaperResults int
}

func ConfigFromEnv() Config {
	return Config{
		ListenAddr:      getenv("SERVER_ADDR", ":8000"),
		UploadDir:       getenv("UPLOAD_DIR", "uploads"),
		DataDir:         os.Getenv("DATA_DIR"),
		GroqAPIKey:      os.Getenv("GROQ_API_KEY"),
		GroqBaseURL:     getenv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		GroqModel:       getenv("GROQ_MODEL", "llama3-70b-8192"),
		EntrezEmail:     getenv("ENTREZ_EMAIL", "user@example.com"),
		TopK:            getenvInt("SEARCH_TOP_K", 5),
		MaxPaperResults: getenvInt("MAX_PAPER_RESULTS", 3),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
