package service

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniplan/uniplan-api/internal/models"
	appErrors "github.com/uniplan/uniplan-api/pkg/errors"
	"github.com/uniplan/uniplan-api/pkg/jobs"
	"github.com/uniplan/uniplan-api/pkg/storage"
)

type stubRenderer struct {
	data []byte
	err  error
}

func (s *stubRenderer) Export(_ context.Context, _, format string) ([]byte, string, error) {
	if s.err != nil {
		return nil, "", s.err
	}
	contentType := "application/pdf"
	if format == "csv" {
		contentType = "text/csv"
	}
	return s.data, contentType, nil
}

func newTestExportService(t *testing.T, renderer gridRenderer) *ExportService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("export-test-secret", time.Hour)
	return NewExportService(renderer, store, signer, ExportConfig{APIPrefix: "/api"}, nil)
}

func TestExportJobCompletesWithSignedURL(t *testing.T) {
	svc := newTestExportService(t, &stubRenderer{data: []byte("Course,Semester\ncourse-a,3\n")})

	job := &models.ExportJob{ID: "job-1", SessionID: "session-1", Format: "csv", Status: models.ExportStatusQueued}
	svc.mu.Lock()
	svc.jobsets[job.ID] = job
	svc.mu.Unlock()

	require.NoError(t, svc.process(context.Background(), jobs.Job{
		ID:      job.ID,
		Type:    "timetable_export",
		Payload: exportPayload{sessionID: "session-1", format: "csv"},
	}))

	stored, err := svc.Job(job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusCompleted, stored.Status)
	assert.Contains(t, stored.DownloadURL, "/api/timetable/export/")
	require.NotNil(t, stored.ExpiresAt)
}

func TestExportDownloadRoundTrip(t *testing.T) {
	svc := newTestExportService(t, &stubRenderer{data: []byte("Course,Semester\ncourse-a,3\n")})

	job := &models.ExportJob{ID: "job-2", SessionID: "session-1", Format: "csv", Status: models.ExportStatusQueued}
	svc.mu.Lock()
	svc.jobsets[job.ID] = job
	svc.mu.Unlock()

	require.NoError(t, svc.process(context.Background(), jobs.Job{
		ID:      job.ID,
		Payload: exportPayload{sessionID: "session-1", format: "csv"},
	}))

	stored, err := svc.Job(job.ID)
	require.NoError(t, err)
	token := stored.DownloadURL[len("/api/timetable/export/"):]

	file, contentType, err := svc.Download(token)
	require.NoError(t, err)
	defer file.Close()

	assert.Equal(t, "text/csv", contentType)
	content, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Contains(t, string(content), "course-a")
}

func TestExportDownloadRejectsTamperedToken(t *testing.T) {
	svc := newTestExportService(t, &stubRenderer{})

	_, _, err := svc.Download("job-1.9999999999.cGF0aA.deadbeef")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestExportFailureMarksJobFailed(t *testing.T) {
	svc := newTestExportService(t, &stubRenderer{err: appErrors.New("SESSION_NOT_FOUND", 404, "editing session not found or expired")})

	job := &models.ExportJob{ID: "job-3", SessionID: "gone", Format: "pdf", Status: models.ExportStatusQueued}
	svc.mu.Lock()
	svc.jobsets[job.ID] = job
	svc.mu.Unlock()

	require.NoError(t, svc.process(context.Background(), jobs.Job{
		ID:      job.ID,
		Payload: exportPayload{sessionID: "gone", format: "pdf"},
	}))

	stored, err := svc.Job(job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusFailed, stored.Status)
	assert.NotEmpty(t, stored.Error)
}

func TestExportEnqueueRejectsUnknownFormat(t *testing.T) {
	svc := newTestExportService(t, &stubRenderer{})

	_, err := svc.Enqueue(context.Background(), "session-1", "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExpiredExportsSweptInBackground(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("export-test-secret", time.Hour)
	svc := NewExportService(&stubRenderer{}, store, signer, ExportConfig{
		APIPrefix:       "/api",
		ResultTTL:       30 * time.Millisecond,
		CleanupInterval: 10 * time.Millisecond,
	}, nil)

	rel, err := store.Save("stale.csv", []byte("Course\n"))
	require.NoError(t, err)

	svc.Start(context.Background())
	defer svc.Stop()

	require.Eventually(t, func() bool {
		_, statErr := os.Stat(filepath.Join(dir, rel))
		return os.IsNotExist(statErr)
	}, 2*time.Second, 10*time.Millisecond, "expired export file must be swept")
}

func TestExportEnqueueThroughQueue(t *testing.T) {
	svc := newTestExportService(t, &stubRenderer{data: []byte("Course\n")})
	svc.Start(context.Background())
	defer svc.Stop()

	job, err := svc.Enqueue(context.Background(), "session-1", "csv")
	require.NoError(t, err)
	require.NotEmpty(t, job.ID)

	require.Eventually(t, func() bool {
		stored, err := svc.Job(job.ID)
		return err == nil && stored.Status == models.ExportStatusCompleted
	}, 2*time.Second, 10*time.Millisecond)
}
