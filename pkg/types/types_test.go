package types

import (
	"errors"
	"testing"
	"time"
)

func TestNodeValidate(t *testing.T) {
	tests := []struct {
		name    string
		node    Node
		wantErr error
	}{
		{
			name:    "valid entity",
			node:    Node{Name: "Kamala Harris", Kind: EntityNode, GroupID: "g1"},
			wantErr: nil,
		},
		{
			name:    "empty name",
			node:    Node{GroupID: "g1"},
			wantErr: ErrEmptyName,
		},
		{
			name:    "empty group",
			node:    Node{Name: "Kamala Harris"},
			wantErr: ErrEmptyGroupID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.node.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNodeValidateForUpsert(t *testing.T) {
	n := Node{Name: "n", GroupID: "g"}
	if err := n.ValidateForUpsert(); !errors.Is(err, ErrEmptyUUID) {
		t.Errorf("ValidateForUpsert() = %v, want %v", err, ErrEmptyUUID)
	}
	n.UUID = "u-1"
	if err := n.ValidateForUpsert(); err != nil {
		t.Errorf("ValidateForUpsert() = %v, want nil", err)
	}
}

func TestEdgeValidate(t *testing.T) {
	valid := Edge{
		Name:           "HELD_POSITION",
		Fact:           "Kamala Harris was the Attorney General of California",
		GroupID:        "g1",
		SourceNodeUUID: "a",
		TargetNodeUUID: "b",
	}

	tests := []struct {
		name    string
		mutate  func(e *Edge)
		wantErr error
	}{
		{"valid", func(e *Edge) {}, nil},
		{"empty name", func(e *Edge) { e.Name = "" }, ErrEmptyName},
		{"empty fact", func(e *Edge) { e.Fact = "" }, ErrEmptyFact},
		{"empty group", func(e *Edge) { e.GroupID = "" }, ErrEmptyGroupID},
		{"missing source", func(e *Edge) { e.SourceNodeUUID = "" }, ErrMissingEndpoints},
		{"missing target", func(e *Edge) { e.TargetNodeUUID = "" }, ErrMissingEndpoints},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := valid
			tt.mutate(&e)
			if err := e.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEdgeCurrentAt(t *testing.T) {
	jan := time.Date(2011, 1, 3, 0, 0, 0, 0, time.UTC)
	dec := time.Date(2017, 1, 3, 0, 0, 0, 0, time.UTC)

	e := Edge{CreatedAt: time.Now(), ValidAt: &jan, InvalidAt: &dec}

	if !e.CurrentAt(jan.AddDate(2, 0, 0)) {
		t.Error("expected edge current inside its window")
	}
	if e.CurrentAt(jan.AddDate(-1, 0, 0)) {
		t.Error("expected edge not current before ValidAt")
	}
	if e.CurrentAt(dec) {
		t.Error("expected edge not current at InvalidAt")
	}
	if !e.Expired() {
		t.Error("expected Expired() for closed window")
	}
}

func TestParseEpisodeSource(t *testing.T) {
	tests := []struct {
		in      string
		want    EpisodeSource
		wantErr bool
	}{
		{"text", SourceText, false},
		{"json", SourceJSON, false},
		{"message", SourceMessage, false},
		{"", SourceText, false},
		{"csv", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEpisodeSource(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseEpisodeSource(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseEpisodeSource(%q) = %v, want %v", tt.in, got, tt.want)
			}
			if err != nil && !errors.Is(err, ErrInvalidEpisodeSource) {
				t.Errorf("error should wrap ErrInvalidEpisodeSource, got %v", err)
			}
		})
	}
}

func TestEpisodeValidate(t *testing.T) {
	ep := Episode{Name: "podcast", Content: "some content", Source: SourceText}
	if err := ep.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}

	ep.Content = ""
	if err := ep.Validate(); !errors.Is(err, ErrEmptyContent) {
		t.Errorf("Validate() = %v, want %v", err, ErrEmptyContent)
	}

	ep = Episode{Name: "podcast", Content: "c", Source: "audio"}
	if err := ep.Validate(); !errors.Is(err, ErrInvalidEpisodeSource) {
		t.Errorf("Validate() = %v, want %v", err, ErrInvalidEpisodeSource)
	}
}

func TestSearchResultsEmpty(t *testing.T) {
	var nilResults *SearchResults
	if !nilResults.Empty() {
		t.Error("nil results should be empty")
	}
	r := &SearchResults{}
	if !r.Empty() {
		t.Error("zero results should be empty")
	}
	r.Nodes = []*Node{{Name: "n"}}
	if r.Empty() {
		t.Error("results with a node should not be empty")
	}
}
