package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniplan/uniplan-api/internal/models"
	appErrors "github.com/uniplan/uniplan-api/pkg/errors"
)

func testInput() GenerateInput {
	return GenerateInput{
		SchoolID:     "school-1",
		DepartmentID: "dept-1",
		SemesterType: models.SemesterTypeOdd,
		TimeConfig: models.TimeConfig{
			WorkingDays:    5,
			DayStart:       "10:00",
			DayEnd:         "18:30",
			LunchStart:     "13:00",
			LunchEnd:       "14:00",
			TheoryDuration: 60,
			LabDuration:    120,
		},
	}
}

func TestClientGenerateFlatArray(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/generate", r.URL.Path)

		var input GenerateInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&input))
		assert.Equal(t, "school-1", input.SchoolID)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[
			{"day":0,"start_time":"10:00","end_time":"11:00","semester":"3","course_id":"course-a","subject_name":"OS","slot_type":"theory"},
			{"day":1,"start_time":"10:00","end_time":"11:00","semester":"5","course_id":"course-a","subject_name":"DB","slot_type":"theory"}
		]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, nil)
	set, err := client.Generate(context.Background(), testInput())
	require.NoError(t, err)

	require.Len(t, set, 2)
	assert.Len(t, set["course-a-3"], 1)
	assert.Len(t, set["course-a-5"], 1)
}

func TestClientGenerateGroupedMap(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{
			"course-a-3":[{"day":0,"start_time":"10:00","end_time":"11:00","semester":"3","course_id":"course-a","slot_type":"free"}],
			"course-a-5":null
		}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, nil)
	set, err := client.Generate(context.Background(), testInput())
	require.NoError(t, err)

	require.Len(t, set, 2)
	assert.Len(t, set["course-a-3"], 1)
	// Null groups coerce to empty, not nil.
	assert.NotNil(t, set["course-a-5"])
	assert.Empty(t, set["course-a-5"])
}

func TestClientGenerateUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, nil)
	_, err := client.Generate(context.Background(), testInput())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUpstream.Code, appErrors.FromError(err).Code)
	assert.Equal(t, http.StatusBadGateway, appErrors.FromError(err).Status)
}

func TestClientGenerateUnreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", 200*time.Millisecond, nil)
	_, err := client.Generate(context.Background(), testInput())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUpstream.Code, appErrors.FromError(err).Code)
}

func TestNormalizeUnknownShape(t *testing.T) {
	assert.Empty(t, Normalize(json.RawMessage(`"what"`)))
	assert.Empty(t, Normalize(nil))
	assert.Empty(t, Normalize(json.RawMessage(`42`)))
}
