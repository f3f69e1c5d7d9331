// Command engine_probe fires a sample generate request at a timetable engine
// and prints a summary of the normalised response. Useful when an engine
// deployment changes and the response shape needs a quick sanity check
// without going through the full API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/uniplan/uniplan-api/internal/engine"
	"github.com/uniplan/uniplan-api/internal/models"
)

func main() {
	var (
		engineURL    = flag.String("engine", envOr("ENGINE_URL", "http://localhost:5000"), "engine base URL")
		schoolID     = flag.String("school", "", "school id to generate for")
		departmentID = flag.String("department", "", "department id to generate for")
		semesterType = flag.String("semester-type", "odd", "odd or even")
		timeout      = flag.Duration("timeout", 60*time.Second, "request timeout")
	)
	flag.Parse()

	if *schoolID == "" || *departmentID == "" {
		fmt.Fprintln(os.Stderr, "usage: engine_probe -school <id> -department <id> [-engine url]")
		os.Exit(2)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	client := engine.NewClient(*engineURL, *timeout, logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	slots, err := client.Generate(ctx, engine.GenerateInput{
		SchoolID:     *schoolID,
		DepartmentID: *departmentID,
		SemesterType: *semesterType,
		TimeConfig:   sampleTimeConfig(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate: %v\n", err)
		os.Exit(1)
	}

	keys := make([]string, 0, len(slots))
	for key := range slots {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	total := 0
	for _, key := range keys {
		group := slots[key]
		total += len(group)
		fmt.Printf("%-40s %4d slots\n", key, len(group))
	}
	fmt.Printf("\n%d groups, %d slots total\n", len(keys), total)
}

func sampleTimeConfig() models.TimeConfig {
	return models.TimeConfig{
		WorkingDays:    5,
		DayStart:       "09:00",
		DayEnd:         "17:00",
		LunchStart:     "13:00",
		LunchEnd:       "14:00",
		GEStart:        "16:00",
		GEEnd:          "17:00",
		TheoryDuration: 60,
		LabDuration:    120,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
