package jobs

import "testing"

func TestJobFilter_Matches(t *testing.T) {
	job := &ImportFileJob{RunID: "run-1", Status: JobStatusFailed}

	tests := []struct {
		name   string
		filter JobFilter
		want   bool
	}{
		{"empty filter", JobFilter{}, true},
		{"same run", JobFilter{RunID: "run-1"}, true},
		{"other run", JobFilter{RunID: "run-2"}, false},
		{"same status", JobFilter{Status: JobStatusFailed}, true},
		{"other status", JobFilter{RunID: "run-1", Status: JobStatusCompleted}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(job); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJobStatus_IsTerminal(t *testing.T) {
	for status, want := range map[JobStatus]bool{
		JobStatusPending:   false,
		JobStatusRunning:   false,
		JobStatusCompleted: true,
		JobStatusFailed:    true,
		JobStatusCancelled: true,
	} {
		if got := status.IsTerminal(); got != want {
			t.Errorf("%s.IsTerminal() = %v, want %v", status, got, want)
		}
	}
}
