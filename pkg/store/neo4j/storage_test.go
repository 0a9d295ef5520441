package neo4j

import "testing"

func TestSanitizeLabel(t *testing.T) {
	tests := []struct {
		name     string
		label    string
		fallback string
		want     string
	}{
		{"plain", "PERSON", "CONCEPT", "PERSON"},
		{"lowercased input", "organization", "CONCEPT", "ORGANIZATION"},
		{"spaces become underscores", "creative work", "CONCEPT", "CREATIVE_WORK"},
		{"cypher injection stripped", "X} DETACH DELETE n //", "CONCEPT", "X_DETACH_DELETE_N"},
		{"empty falls back", "", "CONCEPT", "CONCEPT"},
		{"only symbols falls back", "!!!", "RELATED_TO", "RELATED_TO"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeLabel(tt.label, tt.fallback); got != tt.want {
				t.Errorf("sanitizeLabel(%q) = %q, want %q", tt.label, got, tt.want)
			}
		})
	}
}

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Acme Corp", "ACME CORP"},
		{"  acme   corp  ", "ACME CORP"},
		{"ACME CORP", "ACME CORP"},
	}
	for _, tt := range tests {
		if got := normalizeKey(tt.in); got != tt.want {
			t.Errorf("normalizeKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
