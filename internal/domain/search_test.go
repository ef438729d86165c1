package domain

import (
	"reflect"
	"testing"
)

func TestParseQuery(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"words", "Billing  read", []string{"billing", "read"}},
		{"resource uri", "api://graph/.default", []string{"api", "graph", "default"}},
		{"scope", "User.Read", []string{"user", "read"}},
		{"empty", "   ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := ParseQuery(tt.input)
			if len(tt.want) == 0 {
				if !q.Empty() {
					t.Errorf("ParseQuery(%q) should be empty, got %v", tt.input, q.Fragments)
				}
				return
			}
			if !reflect.DeepEqual(q.Fragments, tt.want) {
				t.Errorf("ParseQuery(%q) = %v, want %v", tt.input, q.Fragments, tt.want)
			}
		})
	}
}

func TestScore(t *testing.T) {
	billing := &Favorite{Name: "Billing API", Target: "api://billing/.default", AppName: "Finance", Tags: []string{"prod"}}

	tests := []struct {
		name  string
		query string
		match bool
	}{
		{"exact name", "billing api", true},
		{"target fragment", "default", true},
		{"app name prefix", "fin", true},
		{"tag", "prod", true},
		{"all fragments required", "billing graph", false},
		{"no match", "mail", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(ParseQuery(tt.query), billing)
			if tt.match && got == 0 {
				t.Errorf("Score(%q) = 0, want a match", tt.query)
			}
			if !tt.match && got != 0 {
				t.Errorf("Score(%q) = %v, want 0", tt.query, got)
			}
		})
	}
}

func TestScoreOrdering(t *testing.T) {
	q := ParseQuery("graph")
	exact := &Favorite{Target: "api://graph"}
	prefix := &Favorite{Target: "api://graphql"}
	substring := &Favorite{Target: "api://msgraph"}

	se, sp, ss := Score(q, exact), Score(q, prefix), Score(q, substring)
	if !(se > sp && sp > ss && ss > 0) {
		t.Errorf("want exact > prefix > substring > 0, got %v, %v, %v", se, sp, ss)
	}
}

func TestRank(t *testing.T) {
	favs := []Favorite{
		{ID: "mail", Target: "Mail.Read"},
		{ID: "graph-rare", Target: "api://graph", UseCount: 1},
		{ID: "graph-hot", Target: "api://graph", UseCount: 500},
		{ID: "graphql", Target: "api://graphql"},
	}

	got := Rank(ParseQuery("graph"), favs)
	ids := make([]string, len(got))
	for i, c := range got {
		ids[i] = c.Favorite.ID
	}

	want := []string{"graph-hot", "graph-rare", "graphql"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("Rank() = %v, want %v", ids, want)
	}
	if got[0].UsageScore <= got[1].UsageScore {
		t.Errorf("usage should break the tie: %+v", got[:2])
	}
}

func TestSimilarity(t *testing.T) {
	if s := similarity("grpah", "graph"); s != 1.0 {
		t.Errorf("similarity(transposed) = %v, want 1", s)
	}
	if s := similarity("", "graph"); s != 0 {
		t.Errorf("similarity(empty) = %v, want 0", s)
	}
}
