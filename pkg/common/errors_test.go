package common

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorUnwrapping(t *testing.T) {
	cause := errors.New("connection refused")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "load error",
			err:  fmt.Errorf("scanning: %w", &LoadError{Path: "a.pdf", Err: cause}),
			want: cause,
		},
		{
			name: "extraction error",
			err:  fmt.Errorf("pipeline: %w", &ExtractionError{Source: "a.txt", SequenceIndex: 3, Err: cause}),
			want: cause,
		},
		{
			name: "write error",
			err:  &WriteError{EntitiesLost: 2, RelationshipsLost: 1, Err: cause},
			want: cause,
		},
		{
			name: "connection error",
			err:  &ConnectionError{URI: "neo4j://localhost:7687", Err: cause},
			want: cause,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.want) {
				t.Errorf("errors.Is() = false, want true for %v", tt.err)
			}
		})
	}
}

func TestWriteErrorReportsLostCounts(t *testing.T) {
	err := &WriteError{EntitiesLost: 5, RelationshipsLost: 3, Err: errors.New("tx failed")}

	var writeErr *WriteError
	if !errors.As(error(err), &writeErr) {
		t.Fatal("errors.As() = false, want true")
	}
	if writeErr.EntitiesLost != 5 || writeErr.RelationshipsLost != 3 {
		t.Errorf("lost counts = (%d, %d), want (5, 3)", writeErr.EntitiesLost, writeErr.RelationshipsLost)
	}
	if !strings.Contains(err.Error(), "5 entities") {
		t.Errorf("Error() = %q, want it to mention lost entities", err.Error())
	}
}

func TestWriteSummaryAdd(t *testing.T) {
	total := WriteSummary{}
	total.Add(WriteSummary{NodesCreated: 2, EdgesCreated: 1})
	total.Add(WriteSummary{NodesCreated: 1, NodesMerged: 3, EdgesMerged: 2})

	want := WriteSummary{NodesCreated: 3, NodesMerged: 3, EdgesCreated: 1, EdgesMerged: 2}
	if total != want {
		t.Errorf("Add() = %+v, want %+v", total, want)
	}
}
