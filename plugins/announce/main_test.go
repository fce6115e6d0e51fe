package main

import "testing"

func TestPhrase(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		cfg  Config
		want string
	}{
		{
			name: "start",
			req:  Request{Event: "session_start", Exercise: "squat"},
			cfg:  Config{Every: 1},
			want: "Starting squat",
		},
		{
			name: "rep",
			req:  Request{Event: "rep", Rep: &Rep{Index: 4, Correct: true}},
			cfg:  Config{Every: 1},
			want: "4",
		},
		{
			name: "skipped by every",
			req:  Request{Event: "rep", Rep: &Rep{Index: 3}},
			cfg:  Config{Every: 5},
			want: "",
		},
		{
			name: "announced by every",
			req:  Request{Event: "rep", Rep: &Rep{Index: 10, Correct: true}},
			cfg:  Config{Every: 5},
			want: "10",
		},
		{
			name: "form issue",
			req:  Request{Event: "rep", Rep: &Rep{Index: 2, FormIssues: []string{"hip_sag"}}},
			cfg:  Config{Every: 1, Issues: true},
			want: "2, hip_sag",
		},
		{
			name: "summary",
			req:  Request{Event: "session_end", Exercise: "push-up", Summary: &Summary{Total: 12, Correct: 10}},
			want: "Done. 12 push-up, 10 with good form",
		},
		{
			name: "rep without record",
			req:  Request{Event: "rep"},
			want: "",
		},
		{
			name: "unknown event",
			req:  Request{Event: "calibrate"},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := phrase(tt.req, tt.cfg); got != tt.want {
				t.Errorf("phrase() = %q, want %q", got, tt.want)
			}
		})
	}
}
