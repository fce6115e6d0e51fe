// Package main provides a plugin that appends every repetition and workout
// summary to a CSV file.
package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Request represents the input from the plugin executor.
type Request struct {
	Event     string          `json:"event"`
	Exercise  string          `json:"exercise"`
	SessionID string          `json:"session_id"`
	Rep       *Rep            `json:"rep,omitempty"`
	Summary   *Summary        `json:"summary,omitempty"`
	Config    json.RawMessage `json:"config"`
}

type Rep struct {
	Index      int      `json:"index"`
	Duration   float64  `json:"duration"`
	Extremum   float64  `json:"extremum"`
	Unit       string   `json:"unit"`
	Correct    bool     `json:"correct"`
	FormIssues []string `json:"form_issues"`
}

type Summary struct {
	Total     int     `json:"total"`
	Correct   int     `json:"correct"`
	FormScore float64 `json:"form_score"`
	Best      float64 `json:"best"`
	Unit      string  `json:"unit"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Config is read from plugin.json. An empty Path means ~/.repcount/reps.csv.
type Config struct {
	Path string `json:"path"`
}

var header = []string{"time", "session_id", "exercise", "event", "index", "duration", "value", "unit", "correct", "form_issues"}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	var cfg Config
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeErrorResponse(fmt.Sprintf("invalid config: %v", err))
			return
		}
	}
	if cfg.Path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			writeErrorResponse(fmt.Sprintf("no home directory: %v", err))
			return
		}
		cfg.Path = filepath.Join(home, ".repcount", "reps.csv")
	}

	row := buildRow(req, time.Now())
	if row == nil {
		writeSuccessResponse()
		return
	}
	if err := appendRow(cfg.Path, row); err != nil {
		writeErrorResponse(fmt.Sprintf("append to %s: %v", cfg.Path, err))
		return
	}
	writeSuccessResponse()
}

// buildRow converts rep and session_end events into a CSV row. Other events
// produce nil.
func buildRow(req Request, now time.Time) []string {
	base := []string{now.UTC().Format(time.RFC3339), req.SessionID, req.Exercise, req.Event}

	switch {
	case req.Event == "rep" && req.Rep != nil:
		r := req.Rep
		return append(base,
			strconv.Itoa(r.Index),
			formatFloat(r.Duration),
			formatFloat(r.Extremum),
			r.Unit,
			strconv.FormatBool(r.Correct),
			strings.Join(r.FormIssues, ";"),
		)
	case req.Event == "session_end" && req.Summary != nil:
		s := req.Summary
		return append(base,
			strconv.Itoa(s.Total),
			"",
			formatFloat(s.Best),
			s.Unit,
			strconv.Itoa(s.Correct),
			"form_score="+formatFloat(s.FormScore),
		)
	default:
		return nil
	}
}

// appendRow appends row to the file at path, writing the header first when
// the file is new.
func appendRow(path string, row []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	_, statErr := os.Stat(path)
	fresh := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if fresh {
		if err := w.Write(header); err != nil {
			return err
		}
	}
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{Success: false, Error: errMsg})
}

func writeSuccessResponse() {
	json.NewEncoder(os.Stdout).Encode(Response{Success: true})
}
