// Package main provides a plugin that speaks the repetition count aloud.
// It uses say on macOS and espeak elsewhere.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
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
	Correct    bool     `json:"correct"`
	Extremum   float64  `json:"extremum"`
	Unit       string   `json:"unit"`
	FormIssues []string `json:"form_issues"`
}

type Summary struct {
	Total     int     `json:"total"`
	Correct   int     `json:"correct"`
	FormScore float64 `json:"form_score"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Config is read from plugin.json.
type Config struct {
	Voice string `json:"voice"`
	// Every announces only every Nth repetition.
	Every int `json:"every"`
	// Issues appends the first form issue of incorrect repetitions.
	Issues bool `json:"issues"`
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	cfg := Config{Every: 1}
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeErrorResponse(fmt.Sprintf("invalid config: %v", err))
			return
		}
	}

	text := phrase(req, cfg)
	if text == "" {
		writeSuccessResponse("")
		return
	}
	if err := speak(text, cfg.Voice); err != nil {
		writeErrorResponse(fmt.Sprintf("speak failed: %v", err))
		return
	}
	writeSuccessResponse(text)
}

// phrase returns what to say for the event, or "" to stay quiet.
func phrase(req Request, cfg Config) string {
	switch req.Event {
	case "session_start":
		return "Starting " + req.Exercise
	case "rep":
		if req.Rep == nil {
			return ""
		}
		if cfg.Every > 1 && req.Rep.Index%cfg.Every != 0 {
			return ""
		}
		text := fmt.Sprintf("%d", req.Rep.Index)
		if cfg.Issues && !req.Rep.Correct && len(req.Rep.FormIssues) > 0 {
			text += ", " + req.Rep.FormIssues[0]
		}
		return text
	case "session_end":
		if req.Summary == nil {
			return ""
		}
		return fmt.Sprintf("Done. %d %s, %d with good form", req.Summary.Total, req.Exercise, req.Summary.Correct)
	default:
		return ""
	}
}

func speak(text, voice string) error {
	bin := "espeak"
	if runtime.GOOS == "darwin" {
		bin = "say"
	}
	args := []string{text}
	if voice != "" {
		args = append([]string{"-v", voice}, args...)
	}
	output, err := exec.Command(bin, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{Success: false, Error: errMsg})
}

func writeSuccessResponse(said string) {
	resp := Response{Success: true}
	if said != "" {
		resp.Data, _ = json.Marshal(map[string]string{"said": said})
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
