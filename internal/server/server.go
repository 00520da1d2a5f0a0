// Package server implements the thin gin HTTP adapter over the Document
// Service: request parsing, status-code mapping, and JSON shaping. All
// extraction logic lives in internal/pipeline; this package never reaches
// into OCR, extraction, or persistence directly.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/rezonia/docingest/internal/ids"
	"github.com/rezonia/docingest/internal/model"
	"github.com/rezonia/docingest/internal/pipeline"
	"github.com/rezonia/docingest/internal/repository"
	"github.com/rezonia/docingest/internal/taskqueue"
)

// maxUploadBytes caps the multipart body the upload endpoint accepts; larger
// bodies are rejected with 413 before the file is ever read into memory.
const maxUploadBytes = 64 << 20 // 64MiB

// dedupeCacheTTL is how long a just-seen content hash stays in the fast-path
// cache; the Postgres unique index is still the source of truth, this just
// saves a round trip for the common immediate-retry-on-duplicate case.
const dedupeCacheTTL = 10 * time.Minute

// Config holds HTTP server configuration.
type Config struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Debug        bool
}

// Server wires the gin engine to the Document Service.
type Server struct {
	config   Config
	router   *gin.Engine
	docs     *pipeline.Service
	redis    *redis.Client // optional; nil disables the dedupe fast-path cache
	validate *validator.Validate
	log      zerolog.Logger
}

// NewServer builds the router and registers every route. redisClient may be
// nil; the dedupe fast path degrades to "always miss, fall through to
// Upload" when it is.
func NewServer(cfg Config, docs *pipeline.Service, redisClient *redis.Client, log zerolog.Logger) *Server {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Debug {
		router.Use(gin.Logger())
	}

	s := &Server{
		config:   cfg,
		router:   router,
		docs:     docs,
		redis:    redisClient,
		validate: validator.New(),
		log:      log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api")
	{
		api.POST("/documents/", s.handleUploadDocument)
		api.GET("/documents/:id/status", s.handleDocumentStatus)
		api.GET("/documents/:id", s.handleGetDocument)
		api.GET("/documents/", s.handleListDocuments)

		api.GET("/borrowers/search", s.handleSearchBorrowers)
		api.GET("/borrowers/:id/sources", s.handleBorrowerSources)
		api.GET("/borrowers/:id", s.handleGetBorrower)
		api.GET("/borrowers/", s.handleListBorrowers)

		api.POST("/tasks/process-document", s.handleProcessTask)
	}
}

// Run starts the HTTP server and blocks until it exits or ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Address,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Handler returns the http.Handler for use with httptest or a custom server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
}

func (s *Server) handleUploadDocument(c *gin.Context) {
	var q uploadQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: "invalid method/ocr query parameter"})
		return
	}
	method, err := model.ParseExtractionMethod(firstNonEmpty(q.Method, string(model.MethodAuto)))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}
	ocrMode, err := model.ParseOCRMode(firstNonEmpty(q.OCR, string(model.OCRModeAuto)))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, errorResponse{Error: "file exceeds maximum upload size"})
			return
		}
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: "missing multipart field \"file\""})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: "failed to read uploaded file"})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, errorResponse{Error: "file exceeds maximum upload size"})
			return
		}
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: "failed to read uploaded file"})
		return
	}

	contentHash := ids.ContentHash(data)
	if s.dedupeCacheHit(c.Request.Context(), contentHash) {
		c.JSON(http.StatusConflict, errorResponse{Error: "duplicate document: content already uploaded"})
		return
	}

	doc, err := s.docs.Upload(c.Request.Context(), fileHeader.Filename, data, method, ocrMode)
	if err != nil {
		var dup *model.DuplicateDocumentError
		var valErr *model.ValidationError
		switch {
		case errors.As(err, &dup):
			c.JSON(http.StatusConflict, errorResponse{Error: dup.Error()})
		case errors.As(err, &valErr):
			c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: valErr.Error()})
		default:
			s.log.Error().Err(err).Msg("upload failed")
			c.JSON(http.StatusInternalServerError, errorResponse{Error: "upload failed"})
		}
		return
	}

	s.setDedupeCache(c.Request.Context(), contentHash)

	resp := toDocumentResponse(doc)
	resp.Message = "document accepted for processing"
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) dedupeCacheHit(ctx context.Context, contentHash string) bool {
	if s.redis == nil {
		return false
	}
	n, err := s.redis.Exists(ctx, dedupeCacheKey(contentHash)).Result()
	if err != nil {
		s.log.Warn().Err(err).Msg("dedupe cache lookup failed, falling through to the document store")
		return false
	}
	return n > 0
}

func (s *Server) setDedupeCache(ctx context.Context, contentHash string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Set(ctx, dedupeCacheKey(contentHash), "1", dedupeCacheTTL).Err(); err != nil {
		s.log.Warn().Err(err).Msg("failed to populate dedupe cache")
	}
}

func dedupeCacheKey(contentHash string) string {
	return "docingest:upload-hash:" + contentHash
}

func (s *Server) handleDocumentStatus(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: "malformed document id"})
		return
	}
	doc, err := s.docs.Documents().Get(c.Request.Context(), id)
	if err != nil {
		s.respondNotFoundOrError(c, err)
		return
	}
	c.JSON(http.StatusOK, statusResponse{ID: doc.ID, Status: string(doc.Status), PageCount: doc.PageCount, ErrorMessage: doc.ErrorMessage})
}

func (s *Server) handleGetDocument(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: "malformed document id"})
		return
	}
	doc, err := s.docs.Documents().Get(c.Request.Context(), id)
	if err != nil {
		s.respondNotFoundOrError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDocumentResponse(doc))
}

func (s *Server) handleListDocuments(c *gin.Context) {
	var q paginationQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: "invalid limit/offset"})
		return
	}
	docs, err := s.docs.Documents().List(c.Request.Context(), q.Limit, q.Offset)
	if err != nil {
		s.log.Error().Err(err).Msg("list documents failed")
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to list documents"})
		return
	}
	out := make([]documentResponse, len(docs))
	for i := range docs {
		out[i] = toDocumentResponse(&docs[i])
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetBorrower(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: "malformed borrower id"})
		return
	}
	b, err := s.docs.Borrowers().Get(c.Request.Context(), id)
	if err != nil {
		s.respondNotFoundOrError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBorrowerResponse(b))
}

func (s *Server) handleBorrowerSources(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: "malformed borrower id"})
		return
	}
	b, err := s.docs.Borrowers().Get(c.Request.Context(), id)
	if err != nil {
		s.respondNotFoundOrError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSourceResponses(b.Sources))
}

func (s *Server) handleListBorrowers(c *gin.Context) {
	var q paginationQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: "invalid limit/offset"})
		return
	}
	borrowers, err := s.docs.Borrowers().List(c.Request.Context(), q.Limit, q.Offset)
	if err != nil {
		s.log.Error().Err(err).Msg("list borrowers failed")
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to list borrowers"})
		return
	}
	c.JSON(http.StatusOK, toBorrowerResponses(borrowers))
}

func (s *Server) handleSearchBorrowers(c *gin.Context) {
	var q searchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: "invalid search parameters"})
		return
	}
	if q.Name == "" && q.AccountNumber == "" {
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: "one of name or account_number is required"})
		return
	}

	var (
		borrowers []model.Borrower
		err       error
	)
	if q.AccountNumber != "" {
		borrowers, err = s.docs.Borrowers().SearchByAccountNumber(c.Request.Context(), q.AccountNumber, q.Limit, q.Offset)
	} else {
		borrowers, err = s.docs.Borrowers().Search(c.Request.Context(), q.Name, q.Limit, q.Offset)
	}
	if err != nil {
		s.log.Error().Err(err).Msg("borrower search failed")
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "search failed"})
		return
	}
	c.JSON(http.StatusOK, toBorrowerResponses(borrowers))
}

// handleProcessTask is the task-queue handler contract: the consumer posts
// one delivery attempt here (whether driven by NATS or an HTTP-based queue),
// with X-Retry-Count carrying the redelivery count.
func (s *Server) handleProcessTask(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: "malformed task payload"})
		return
	}
	method, err := model.ParseExtractionMethod(req.Method)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}
	ocrMode, err := model.ParseOCRMode(req.OCR)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}

	retryCount := 0
	if v := c.GetHeader("X-Retry-Count"); v != "" {
		if n, convErr := parseNonNegativeInt(v); convErr == nil {
			retryCount = n
		}
	}

	task := taskqueue.Task{DocumentID: req.DocumentID, Filename: req.Filename, Method: method, OCRMode: ocrMode, RetryCount: retryCount}
	if err := s.docs.Process(c.Request.Context(), task); err != nil {
		if model.IsTerminalFailure(err) {
			// The Document is already marked FAILED; that outcome is
			// permanent from the queue's point of view, so it gets a 2xx
			// and must not be redelivered.
			c.JSON(http.StatusOK, gin.H{"status": "failed", "error": err.Error()})
			return
		}
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) respondNotFoundOrError(c *gin.Context, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, errorResponse{Error: "not found"})
		return
	}
	s.log.Error().Err(err).Msg("repository lookup failed")
	c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Param(name))
}

func parseNonNegativeInt(s string) (int, error) {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, model.NewValidationError("X-Retry-Count", "must be a non-negative integer")
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
