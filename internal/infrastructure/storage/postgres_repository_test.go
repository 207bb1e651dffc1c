package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"

	"github.com/patrickjmorris/therunclub-sub001/internal/domain"
)

func TestContentTables(t *testing.T) {
	t.Parallel()

	tests := []struct {
		contentType domain.ContentType
		table       string
		bodyColumn  string
		wantErr     bool
	}{
		{domain.ContentPodcast, "episodes", "content", false},
		{domain.ContentVideo, "videos", "description", false},
		{domain.ContentType("newsletter"), "", "", true},
	}

	for _, tt := range tests {
		table, bodyColumn, err := contentTables(tt.contentType)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("expected error for %q", tt.contentType)
			}
			continue
		}
		if err != nil {
			t.Fatalf("contentTables(%q): %v", tt.contentType, err)
		}
		if table != tt.table || bodyColumn != tt.bodyColumn {
			t.Fatalf("contentTables(%q) = %q, %q", tt.contentType, table, bodyColumn)
		}
	}
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	unique := &pq.Error{Code: uniqueViolationCode}
	if !isUniqueViolation(fmt.Errorf("insert: %w", unique)) {
		t.Fatal("wrapped unique violation must be detected")
	}

	if isUniqueViolation(&pq.Error{Code: "23503"}) {
		t.Fatal("foreign-key violation must not count as duplicate")
	}
	if isUniqueViolation(errors.New("connection refused")) {
		t.Fatal("plain errors must not count as duplicate")
	}
}
