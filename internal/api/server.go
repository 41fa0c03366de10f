// Package api exposes uploads and fit analysis over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/talentlens/internal/analysis"
	"github.com/spigell/talentlens/internal/logger"
	"github.com/spigell/talentlens/internal/scoring"
	"github.com/spigell/talentlens/internal/storage"
)

// Analyzer runs the analysis use case.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (*analysis.Result, error)
}

// StrategyLister reports the scoring strategies and their state.
type StrategyLister interface {
	Describe() []scoring.Status
}

// Options configures the HTTP surface.
type Options struct {
	AllowedOrigins []string
	Policy         storage.Policy
}

// UploadedFile describes a stored upload.
type UploadedFile struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type,omitempty"`
	Size        int64  `json:"size"`
}

type Server struct {
	store      storage.Store
	analyzer   Analyzer
	strategies StrategyLister
	opts       Options
	logger     *zap.Logger
}

func NewServer(store storage.Store, analyzer Analyzer, strategies StrategyLister, log *zap.Logger, opts Options) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{store: store, analyzer: analyzer, strategies: strategies, opts: opts, logger: log}
}

// Router configures the gin engine with all routes and middleware.
func (s *Server) Router() *gin.Engine {
	r := gin.New()

	r.Use(Recovery(s.logger))
	r.Use(RequestID())
	r.Use(AccessLog(s.logger))
	r.Use(CORS(s.opts.AllowedOrigins))

	r.GET("/healthz", s.Health)

	v1 := r.Group("/api/v1")

	uploads := v1.Group("/uploads")
	uploads.POST("/resume", s.UploadResume)
	uploads.POST("/job-description", s.UploadJobDescription)

	v1.POST("/analysis", s.Analyze)
	v1.GET("/strategies", s.Strategies)

	return r
}

// Health handles GET /healthz.
func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// UploadResume handles POST /api/v1/uploads/resume. It accepts one `file`
// field or several `files` fields.
func (s *Server) UploadResume(c *gin.Context) {
	headers, err := formFiles(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", err.Error())
		return
	}

	// Validate everything before storing anything.
	for _, h := range headers {
		if err := s.opts.Policy.Check(h.Filename, h.Size); err != nil {
			s.HandleError(c, err)
			return
		}
	}

	uploaded := make([]UploadedFile, 0, len(headers))
	for _, h := range headers {
		file, err := s.save(c, h)
		if err != nil {
			for _, done := range uploaded {
				_ = s.store.Delete(context.Background(), done.ID)
			}
			s.HandleError(c, err)
			return
		}
		uploaded = append(uploaded, *file)
	}

	RespondCreated(c, gin.H{"uploaded_files": uploaded})
}

// UploadJobDescription handles POST /api/v1/uploads/job-description.
func (s *Server) UploadJobDescription(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	if err := s.opts.Policy.Check(header.Filename, header.Size); err != nil {
		s.HandleError(c, err)
		return
	}

	file, err := s.save(c, header)
	if err != nil {
		s.HandleError(c, err)
		return
	}
	RespondCreated(c, file)
}

// Analyze handles POST /api/v1/analysis.
func (s *Server) Analyze(c *gin.Context) {
	var req analysis.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if req.Strategy != "" {
		strategy, err := scoring.ParseStrategy(string(req.Strategy))
		if err != nil {
			s.HandleError(c, err)
			return
		}
		req.Strategy = strategy
	}

	logger.WithRequest(s.logger, c.GetString(requestIDKey), string(req.Strategy)).Info("analysis requested",
		zap.String("resume_id", req.ResumeID),
		zap.String("job_description_id", req.JobDescriptionID),
	)

	result, err := s.analyzer.Analyze(c.Request.Context(), req)
	if err != nil {
		s.HandleError(c, err)
		return
	}
	RespondOK(c, result)
}

// Strategies handles GET /api/v1/strategies.
func (s *Server) Strategies(c *gin.Context) {
	RespondOK(c, s.strategies.Describe())
}

func (s *Server) save(c *gin.Context, header *multipart.FileHeader) (*UploadedFile, error) {
	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer func() { _ = f.Close() }()

	var reader io.Reader = f
	if s.opts.Policy.MaxSize > 0 {
		reader = io.LimitReader(f, s.opts.Policy.MaxSize+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if err := s.opts.Policy.Check(header.Filename, int64(len(data))); err != nil {
		return nil, err
	}

	contentType := header.Header.Get("Content-Type")
	id, err := s.store.Put(c.Request.Context(), storage.File{
		Name:        header.Filename,
		ContentType: contentType,
		Data:        data,
	})
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	s.requestLogger(c).Info("file uploaded", zap.String("file_id", id), zap.String("filename", header.Filename), zap.Int("size", len(data)))
	return &UploadedFile{ID: id, Filename: header.Filename, ContentType: contentType, Size: int64(len(data))}, nil
}

func (s *Server) requestLogger(c *gin.Context) *zap.Logger {
	return logger.WithRequest(s.logger, c.GetString(requestIDKey), "")
}

func formFiles(c *gin.Context) ([]*multipart.FileHeader, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, errors.New("multipart form with a file is required")
	}
	headers := append([]*multipart.FileHeader{}, form.File["file"]...)
	headers = append(headers, form.File["files"]...)
	if len(headers) == 0 {
		return nil, errors.New("file field is required")
	}
	return headers, nil
}
