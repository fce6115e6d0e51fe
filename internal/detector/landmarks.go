package detector

import (
	"encoding/json"
	"fmt"

	"github.com/ayusman/repcount/internal/pose"
)

// response is one line written by pose_service.py.
type response struct {
	Landmarks []jsonPoint `json:"landmarks"`
	Score     float64     `json:"score"`
	Error     string      `json:"error,omitempty"`
}

type jsonPoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// decodeResponse parses one service line. An empty landmark list means no
// person was found and yields nil without error.
func decodeResponse(line []byte) ([]pose.Landmark, error) {
	var resp response
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("pose service: %s", resp.Error)
	}
	if len(resp.Landmarks) == 0 {
		return nil, nil
	}
	if len(resp.Landmarks) < pose.NumLandmarks {
		return nil, fmt.Errorf("pose service returned %d landmarks, want %d", len(resp.Landmarks), pose.NumLandmarks)
	}

	out := make([]pose.Landmark, pose.NumLandmarks)
	for i := range out {
		p := resp.Landmarks[i]
		out[i] = pose.Landmark{X: p.X, Y: p.Y, Z: p.Z, Visibility: p.Visibility}
	}
	return out, nil
}
