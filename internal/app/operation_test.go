package app

import "testing"

func TestNewRun(t *testing.T) {
	tests := []struct {
		name      string
		operation string
		id        string
	}{
		{name: "archive run", operation: "archive", id: "20240615T143045Z"},
		{name: "restore run", operation: "restore", id: "20240615T150000Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRun(tt.operation, tt.id)

			if r.Operation != tt.operation {
				t.Errorf("Operation = %q, want %q", r.Operation, tt.operation)
			}
			if r.ID != tt.id {
				t.Errorf("ID = %q, want %q", r.ID, tt.id)
			}
			if r.Status != "success" {
				t.Errorf("Status = %q, want %q", r.Status, "success")
			}
		})
	}
}
