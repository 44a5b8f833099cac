package server

import (
	"log/slog"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"assistant/app/agent"
	"assistant/app/api"
	"assistant/app/assistant"
	"assistant/index"
	"assistant/scholar"
	"assistant/store"
	"assistant/types"
)

var config = fiber.Config{
	ErrorHandler: api.ErrorHandler,
}

type Server struct {
	cfg    types.Config
	logger *slog.Logger
	app    *fiber.App
	index  *index.Index
}

func NewServer(cfg types.Config) *Server {
	return &Server{
		cfg:    cfg,
		logger: slog.Default(),
	}
}

// Stop persists the index snapshot and shuts the listener down.
func (s *Server) Stop() {
	if s.cfg.DataDir != "" && s.index != nil {
		if err := s.index.Persist(s.cfg.DataDir); err != nil {
			s.logger.Error("failed to persist index snapshot", "error", err)
		}
	}
	if s.app != nil {
		if err := s.app.Shutdown(); err != nil {
			s.logger.Error("error to shutdown server", "error", err)
		}
	}
	s.logger.Info("server stopped")
}

func (s *Server) Run() {
	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		s.logger.Error("error to create upload directory", "error", err)
		return
	}

	s.index = s.openIndex()

	var (
		sessions = store.New()
		papers   = scholar.New(s.cfg.EntrezEmail)
		answerer = agent.New(s.cfg)
		assist   = assistant.New(s.index, sessions, papers, answerer, s.cfg)
		app      = fiber.New(config)
		checkH   = api.NewCheckHandler()
		queryH   = api.NewQueryHandler(assist)
		fileH    = api.NewFileHandler(assist, s.cfg.UploadDir)
		check    = app.Group("/check")
	)
	s.app = app

	app.Use(cors.New())
	app.Use(recover.New())

	app.Get("/", checkH.HandleRoot)
	check.Get("/healthy", checkH.HandleHealthy)

	app.Post("/upload", fileH.HandleUpload)
	app.Get("/files", fileH.HandleListFiles)
	app.Post("/query", queryH.HandleQuery)
	app.Delete("/file/:id", fileH.HandleDeleteFile)
	app.Delete("/session", fileH.HandleClearSession)

	if err := app.Listen(s.cfg.ListenAddr); err != nil {
		s.logger.Error("error to start server", "error", err.Error())
		return
	}
}

// openIndex restores the persisted snapshot when a data dir is configured,
// starting empty when there is none yet.
func (s *Server) openIndex() *index.Index {
	if s.cfg.DataDir == "" {
		return index.New()
	}
	ix, err := index.Restore(s.cfg.DataDir)
	if err != nil {
		s.logger.Warn("starting with empty index", "error", err)
		return index.New()
	}
	s.logger.Info("index snapshot restored", "chunks", ix.Size())
	return ix
}
