package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/uniplan/uniplan-api/internal/models"
	appErrors "github.com/uniplan/uniplan-api/pkg/errors"
)

// GenerateInput is forwarded to the external generation engine verbatim. The
// engine owns the scheduling algorithm; this service only normalises its
// output.
type GenerateInput struct {
	SchoolID     string            `json:"school_id"`
	DepartmentID string            `json:"department_id"`
	SemesterType string            `json:"semesterType"`
	TimeConfig   models.TimeConfig `json:"timeConfig"`
}

// Client talks to the external timetable generation engine.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewClient constructs an engine client with sane defaults.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// engineResponse matches both shapes the engine is known to produce: a flat
// slot array or a map already grouped by "courseId-semester".
type engineResponse struct {
	Data json.RawMessage `json:"data"`
}

// Generate calls the engine and returns the normalised slot set. Upstream
// failures surface as ErrUpstream; payloads that decode to neither known
// shape coerce to an empty set rather than an error.
func (c *Client) Generate(ctx context.Context, input GenerateInput) (models.SlotSet, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "encode engine request")
	}

	url := c.baseURL + "/generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "build engine request")
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("engine request failed", zap.String("url", url), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, appErrors.ErrUpstream.Message)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("engine returned non-200",
			zap.String("url", url),
			zap.Int("status", resp.StatusCode),
			zap.Duration("duration", time.Since(start)),
		)
		return nil, appErrors.New(appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status,
			fmt.Sprintf("generation engine returned status %d", resp.StatusCode))
	}

	var payload engineResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "decode engine response")
	}

	set := Normalize(payload.Data)
	c.logger.Info("engine generate completed",
		zap.String("school_id", input.SchoolID),
		zap.String("department_id", input.DepartmentID),
		zap.String("semester_type", input.SemesterType),
		zap.Int("groups", len(set)),
		zap.Duration("duration", time.Since(start)),
	)
	return set, nil
}

// Normalize coerces the engine's loose data field into a SlotSet. A flat
// array is grouped by course and semester; a map keeps its keys with null
// groups coerced to empty slices; anything else becomes an empty set. This is
// the single place response-shape guessing happens.
func Normalize(raw json.RawMessage) models.SlotSet {
	if len(raw) == 0 {
		return models.SlotSet{}
	}

	var flat []models.Slot
	if err := json.Unmarshal(raw, &flat); err == nil {
		return models.GroupSlots(flat)
	}

	var grouped map[string][]models.Slot
	if err := json.Unmarshal(raw, &grouped); err == nil {
		set := make(models.SlotSet, len(grouped))
		for key, slots := range grouped {
			if slots == nil {
				slots = []models.Slot{}
			}
			set[key] = slots
		}
		return set
	}

	return models.SlotSet{}
}
