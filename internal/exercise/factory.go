package exercise

import (
	"fmt"
	"strings"
)

// catalogue lists every supported exercise with the names it is known by.
// Aliases are stored normalized.
var catalogue = []struct {
	kind    Kind
	aliases []string
}{
	{KindPushUp, []string{"pushup", "pushups", "pressup"}},
	{KindPullUp, []string{"pullup", "pullups", "chinup"}},
	{KindSitUp, []string{"situp", "situps", "curlup"}},
	{KindVerticalJump, []string{"verticaljump", "jump", "vj"}},
	{KindShuttleRun, []string{"shuttlerun", "shuttle"}},
	{KindSquat, []string{"squat", "squats"}},
	{KindSitAndReach, []string{"sitandreach", "sitreach"}},
	{KindBroadJump, []string{"broadjump", "longjump", "standingbroadjump", "standinglongjump"}},
}

var aliasIndex = func() map[string]Kind {
	m := make(map[string]Kind)
	for _, e := range catalogue {
		for _, a := range e.aliases {
			m[a] = e.kind
		}
	}
	return m
}()

func normalizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(name)))
}

// ParseKind resolves a user-facing exercise name. Matching ignores case,
// spaces, hyphens and underscores.
func ParseKind(name string) (Kind, error) {
	if k, ok := aliasIndex[normalizeName(name)]; ok {
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownExercise, name)
}

// Kinds returns every supported exercise in catalogue order.
func Kinds() []Kind {
	out := make([]Kind, len(catalogue))
	for i, e := range catalogue {
		out[i] = e.kind
	}
	return out
}

// Aliases returns the accepted names of kind.
func Aliases(kind Kind) []string {
	for _, e := range catalogue {
		if e.kind == kind {
			return append([]string(nil), e.aliases...)
		}
	}
	return nil
}

// New constructs a fresh detector for kind.
func New(kind Kind, cfg Config) (Detector, error) {
	switch kind {
	case KindPushUp:
		return NewPushUp(cfg.PushUp), nil
	case KindPullUp:
		return NewPullUp(cfg.PullUp), nil
	case KindSitUp:
		return NewSitUp(cfg.SitUp), nil
	case KindVerticalJump:
		return NewVerticalJump(cfg.VerticalJump), nil
	case KindShuttleRun:
		return NewShuttleRun(cfg.ShuttleRun), nil
	case KindSquat:
		return NewSquat(cfg.Squat), nil
	case KindSitAndReach:
		return NewSitAndReach(cfg.SitAndReach), nil
	case KindBroadJump:
		return NewBroadJump(cfg.BroadJump), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownExercise, kind)
}

// NewByName is ParseKind followed by New.
func NewByName(name string, cfg Config) (Detector, error) {
	kind, err := ParseKind(name)
	if err != nil {
		return nil, err
	}
	return New(kind, cfg)
}
