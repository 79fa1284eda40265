package logging

import "testing"

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		json    bool
		wantErr bool
	}{
		{"default level console", "", false, false},
		{"debug json", "debug", true, false},
		{"bogus level", "loud", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.level, tt.json)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if logger == nil {
				t.Fatal("Expected logger, got nil")
			}
		})
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Error("Expected no-op logger for nil input")
	}
}
