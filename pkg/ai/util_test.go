package ai

import (
	"testing"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestUnmarshalFlexible(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    sample
		wantErr bool
	}{
		{
			name:  "standard json",
			input: `{"name": "acme", "count": 2}`,
			want:  sample{Name: "acme", Count: 2},
		},
		{
			name:  "surrounding whitespace",
			input: "\n  {\"name\": \"acme\", \"count\": 2}  \n",
			want:  sample{Name: "acme", Count: 2},
		},
		{
			name:  "double encoded string",
			input: `"{\"name\": \"acme\", \"count\": 2}"`,
			want:  sample{Name: "acme", Count: 2},
		},
		{
			name:  "unquoted keys repaired",
			input: `{name: "acme", count: 2}`,
			want:  sample{Name: "acme", Count: 2},
		},
		{
			name:  "trailing comma repaired",
			input: `{"name": "acme", "count": 2,}`,
			want:  sample{Name: "acme", Count: 2},
		},
		{
			name:  "duplicate leading brace stripped",
			input: `{{"name": "acme", "count": 2}`,
			want:  sample{Name: "acme", Count: 2},
		},
		{
			name:    "unrecoverable input",
			input:   `not json at all {{{]`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got sample
			err := UnmarshalFlexible(tt.input, &got)
			if tt.wantErr {
				if err == nil {
					t.Fatal("UnmarshalFlexible() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("UnmarshalFlexible() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("UnmarshalFlexible() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestGenerateSchemaIncludesFields(t *testing.T) {
	schema := GenerateSchema(&sample{})
	if schema == nil {
		t.Fatal("GenerateSchema() = nil")
	}
}
