package capture

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/repcount/internal/detector"
	"github.com/ayusman/repcount/internal/metrics"
	"github.com/ayusman/repcount/internal/pose"
)

// PoseSource pairs a frame Source with a pose Detector and yields landmark
// frames. Frames in which nobody is detected are skipped.
type PoseSource struct {
	src     Source
	det     detector.Detector
	metrics *metrics.Manager
	skipped int
}

func NewPoseSource(src Source, det detector.Detector, metricsManager *metrics.Manager) *PoseSource {
	return &PoseSource{
		src:     src,
		det:     det,
		metrics: metricsManager,
	}
}

// Next returns the next frame with a detected person. Errors from the
// underlying source, including io.EOF, are returned unwrapped.
func (p *PoseSource) Next(ctx context.Context) (pose.Frame, error) {
	for {
		if err := ctx.Err(); err != nil {
			return pose.Frame{}, err
		}

		mat, ts, err := p.src.ReadFrame()
		if err != nil {
			return pose.Frame{}, err
		}

		start := time.Now()
		landmarks, err := p.det.Detect(mat)
		mat.Close()
		if p.metrics != nil {
			p.metrics.HistPoseLatency.Observe(time.Since(start).Seconds())
		}
		if err != nil {
			return pose.Frame{}, fmt.Errorf("detect pose: %w", err)
		}

		if len(landmarks) == 0 {
			p.skipped++
			if p.metrics != nil {
				p.metrics.CounterFramesNoPerson.Inc()
			}
			if p.skipped%100 == 0 {
				log.WithField("skipped", p.skipped).Debug("no person in frame")
			}
			continue
		}

		return pose.Frame{Timestamp: ts, Landmarks: landmarks}, nil
	}
}

// Skipped returns how many frames had no detected person.
func (p *PoseSource) Skipped() int {
	return p.skipped
}
