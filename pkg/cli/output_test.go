package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

type row struct {
	ID    int64  `json:"id" yaml:"id"`
	Scope string `json:"scope" yaml:"scope"`
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{" yaml ", FormatYAML, false},
		{"csv", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOutputFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatters(t *testing.T) {
	data := []row{{ID: 1, Scope: "global"}, {ID: 2, Scope: "admin"}}

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		if err := NewFormatter(FormatText).FormatTo(&buf, "hello"); err != nil {
			t.Fatalf("FormatTo() error = %v", err)
		}
		if buf.String() != "hello\n" {
			t.Errorf("got %q", buf.String())
		}
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		if err := NewFormatter(FormatJSON).FormatTo(&buf, data); err != nil {
			t.Fatalf("FormatTo() error = %v", err)
		}
		var got []row
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(got) != 2 || got[1].Scope != "admin" {
			t.Errorf("got %+v", got)
		}
		if !strings.Contains(buf.String(), "\n  ") {
			t.Error("expected indented JSON")
		}
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		if err := NewFormatter(FormatYAML).FormatTo(&buf, data); err != nil {
			t.Fatalf("FormatTo() error = %v", err)
		}
		var got []row
		if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid YAML: %v", err)
		}
		if len(got) != 2 || got[0].ID != 1 {
			t.Errorf("got %+v", got)
		}
	})
}
