package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/uniplan/uniplan-api/internal/models"
	appErrors "github.com/uniplan/uniplan-api/pkg/errors"
	"github.com/uniplan/uniplan-api/pkg/jobs"
	"github.com/uniplan/uniplan-api/pkg/storage"
)

type gridRenderer interface {
	Export(ctx context.Context, sessionID, format string) ([]byte, string, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes asynchronous export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
	// CleanupInterval is how often expired files are swept from disk.
	// Defaults to a quarter of ResultTTL.
	CleanupInterval time.Duration
	Workers         int
}

type exportPayload struct {
	sessionID string
	format    string
}

// ExportService renders session grids to files in the background and hands
// out signed download tokens.
type ExportService struct {
	renderer gridRenderer
	storage  fileStorage
	signer   *storage.SignedURLSigner
	logger   *zap.Logger
	cfg      ExportConfig

	queue *jobs.Queue
	stop  chan struct{}

	mu      sync.Mutex
	started bool
	jobsets map[string]*models.ExportJob
}

// NewExportService constructs an ExportService with its own worker queue.
func NewExportService(renderer gridRenderer, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api"
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = cfg.ResultTTL / 4
		if cfg.CleanupInterval > time.Hour {
			cfg.CleanupInterval = time.Hour
		}
	}

	svc := &ExportService{
		renderer: renderer,
		storage:  store,
		signer:   signer,
		logger:   logger,
		cfg:      cfg,
		jobsets:  make(map[string]*models.ExportJob),
	}
	svc.queue = jobs.NewQueue("timetable-export", svc.process, jobs.QueueConfig{
		Workers: cfg.Workers,
		Logger:  logger,
	})
	return svc
}

// Start launches the export workers and the background sweep that removes
// export files past their download TTL. Calling Start twice is a no-op.
func (s *ExportService) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.stop = make(chan struct{})
	s.mu.Unlock()

	s.queue.Start(ctx)
	go s.cleanupLoop()
}

// Stop halts the cleanup sweep and drains the export workers.
func (s *ExportService) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	close(s.stop)
	s.mu.Unlock()

	s.queue.Stop()
}

// Enqueue registers an export job for the session and schedules it.
func (s *ExportService) Enqueue(_ context.Context, sessionID, format string) (*models.ExportJob, error) {
	switch format {
	case "csv", "pdf":
	case "":
		format = "pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	job := &models.ExportJob{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Format:    format,
		Status:    models.ExportStatusQueued,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.jobsets[job.ID] = job
	s.mu.Unlock()

	err := s.queue.Enqueue(jobs.Job{
		ID:      job.ID,
		Type:    "timetable_export",
		Payload: exportPayload{sessionID: sessionID, format: format},
	})
	if err != nil {
		s.fail(job.ID, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to schedule export")
	}

	return s.Job(job.ID)
}

// Job returns a snapshot of the job's current state.
func (s *ExportService) Job(id string) (*models.ExportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobsets[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	snapshot := *job
	return &snapshot, nil
}

// Download validates a signed token and opens the exported file.
func (s *ExportService) Download(token string) (*os.File, string, error) {
	jobID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid or expired download token")
	}

	job, err := s.Job(jobID)
	if err != nil {
		return nil, "", err
	}

	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export file no longer available")
	}

	contentType := "application/pdf"
	if job.Format == "csv" {
		contentType = "text/csv"
	}
	return file, contentType, nil
}

// Cleanup removes export files older than the configured TTL.
func (s *ExportService) Cleanup() ([]string, error) {
	return s.storage.CleanupOlderThan(s.cfg.ResultTTL)
}

// cleanupLoop sweeps expired export files until Stop is called. Download
// tokens expire on the same TTL, so a swept file was already unreachable.
func (s *ExportService) cleanupLoop() {
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			removed, err := s.Cleanup()
			if err != nil {
				s.logger.Warn("export cleanup failed", zap.Error(err))
				continue
			}
			if len(removed) > 0 {
				s.logger.Info("expired exports removed", zap.Int("count", len(removed)))
			}
		}
	}
}

func (s *ExportService) process(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(exportPayload)
	if !ok {
		s.fail(job.ID, fmt.Errorf("unexpected payload type %T", job.Payload))
		return nil
	}

	s.setStatus(job.ID, models.ExportStatusProcessing)

	data, _, err := s.renderer.Export(ctx, payload.sessionID, payload.format)
	if err != nil {
		// Session-level errors are terminal; retrying cannot help once the
		// session is gone.
		s.fail(job.ID, err)
		return nil
	}

	filename := fmt.Sprintf("timetable_%s_%s.%s",
		sanitizeExportName(payload.sessionID),
		time.Now().UTC().Format("20060102_150405"),
		payload.format,
	)
	relPath, err := s.storage.Save(filename, data)
	if err != nil {
		s.fail(job.ID, err)
		return err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		s.fail(job.ID, err)
		return nil
	}

	url := fmt.Sprintf("%s/timetable/export/%s", strings.TrimRight(s.cfg.APIPrefix, "/"), token)

	now := time.Now().UTC()
	s.mu.Lock()
	if stored, ok := s.jobsets[job.ID]; ok {
		stored.Status = models.ExportStatusCompleted
		stored.FilePath = relPath
		stored.DownloadURL = url
		stored.CompletedAt = &now
		stored.ExpiresAt = &expiresAt
	}
	s.mu.Unlock()

	s.logger.Info("export completed",
		zap.String("job_id", job.ID),
		zap.String("session_id", payload.sessionID),
		zap.String("format", payload.format),
	)
	return nil
}

func (s *ExportService) setStatus(id string, status models.ExportStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobsets[id]; ok {
		job.Status = status
	}
}

func (s *ExportService) fail(id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobsets[id]; ok {
		job.Status = models.ExportStatusFailed
		job.Error = err.Error()
	}
}

func sanitizeExportName(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".")
	result := replacer.Replace(raw)
	if len(result) > 80 {
		return result[:80]
	}
	return result
}
