package session

import (
	"context"
	"io"

	"github.com/ayusman/repcount/internal/pose"
)

// SliceSource replays frames held in memory.
type SliceSource struct {
	frames []pose.Frame
	pos    int
}

func NewSliceSource(frames []pose.Frame) *SliceSource {
	return &SliceSource{frames: frames}
}

func (s *SliceSource) Next(ctx context.Context) (pose.Frame, error) {
	if err := ctx.Err(); err != nil {
		return pose.Frame{}, err
	}
	if s.pos >= len(s.frames) {
		return pose.Frame{}, io.EOF
	}
	f := s.frames[s.pos]
	s.pos++
	return f, nil
}

// Analyze runs a complete offline session over frames and returns its result.
func Analyze(ctx context.Context, cfg Config, frames []pose.Frame) (Result, error) {
	s, err := New(cfg)
	if err != nil {
		return Result{}, err
	}
	if err := s.Run(ctx, NewSliceSource(frames)); err != nil {
		return Result{}, err
	}
	return s.Finish(), nil
}
