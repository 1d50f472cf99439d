package core

import (
	"testing"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "same content produces same ID", content: "test content"},
		{name: "empty string", content: ""},
		{name: "long content", content: "Employees must complete security awareness training within thirty days of hire"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("content1")
	id2 := IDFromContent("content2")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestChunk_PathKey(t *testing.T) {
	tests := []struct {
		name  string
		chunk Chunk
		want  string
	}{
		{
			name:  "single level",
			chunk: Chunk{HierarchyPath: []string{"Data Retention Policy"}},
			want:  "Data Retention Policy",
		},
		{
			name:  "nested sections",
			chunk: Chunk{HierarchyPath: []string{"Security Policy", "Access Control", "Passwords"}},
			want:  "Security Policy/Access Control/Passwords",
		},
		{
			name:  "empty path",
			chunk: Chunk{},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.chunk.PathKey(); got != tt.want {
				t.Errorf("PathKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStatusFilter_Matches(t *testing.T) {
	tests := []struct {
		name   string
		filter StatusFilter
		status DocumentStatus
		want   bool
	}{
		{
			name:   "empty filter matches everything",
			filter: StatusFilter{},
			status: StatusArchived,
			want:   true,
		},
		{
			name:   "active-only filter matches active",
			filter: StatusFilter{Statuses: []DocumentStatus{StatusActive}},
			status: StatusActive,
			want:   true,
		},
		{
			name:   "active-only filter rejects archived",
			filter: StatusFilter{Statuses: []DocumentStatus{StatusActive}},
			status: StatusArchived,
			want:   false,
		},
		{
			name:   "multi-status filter",
			filter: StatusFilter{Statuses: []DocumentStatus{StatusActive, StatusDraft}},
			status: StatusDraft,
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(tt.status); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}
