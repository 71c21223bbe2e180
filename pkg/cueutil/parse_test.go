// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"strings"
	"testing"
)

const testSchema = `
#Package: close({
	Name:         string
	Version:      int & >=1
	Enabled:      bool
	Description?: string
})
`

type testPackage struct {
	Name        string `json:"Name"`
	Version     int    `json:"Version"`
	Enabled     bool   `json:"Enabled"`
	Description string `json:"Description,omitempty"`
}

func TestParseAndDecode(t *testing.T) {
	t.Parallel()

	t.Run("json document parses successfully", func(t *testing.T) {
		t.Parallel()

		data := []byte(`{"Name": "Better Rifles", "Version": 1, "Enabled": true, "Description": "rifles"}`)
		result, err := ParseAndDecode[testPackage]([]byte(testSchema), data, "#Package")
		if err != nil {
			t.Fatalf("ParseAndDecode failed: %v", err)
		}
		if result.Value.Name != "Better Rifles" {
			t.Errorf("Name = %q, want %q", result.Value.Name, "Better Rifles")
		}
		if result.Value.Version != 1 {
			t.Errorf("Version = %d, want 1", result.Value.Version)
		}
		if !result.Value.Enabled {
			t.Error("expected Enabled=true")
		}
		if result.Value.Description != "rifles" {
			t.Errorf("Description = %q, want %q", result.Value.Description, "rifles")
		}
	})

	t.Run("comments and trailing commas are tolerated", func(t *testing.T) {
		t.Parallel()

		data := []byte(`{
	// display name
	"Name": "x",
	"Version": 1,
	"Enabled": false,
}`)
		result, err := ParseAndDecode[testPackage]([]byte(testSchema), data, "#Package")
		if err != nil {
			t.Fatalf("ParseAndDecode failed: %v", err)
		}
		if result.Value.Description != "" {
			t.Errorf("expected empty description, got %q", result.Value.Description)
		}
	})

	t.Run("wrong type returns path in error", func(t *testing.T) {
		t.Parallel()

		data := []byte(`{"Name": "x", "Version": "one", "Enabled": true}`)
		_, err := ParseAndDecode[testPackage]([]byte(testSchema), data, "#Package", WithFilename("manifest.json"))
		if err == nil {
			t.Fatal("expected error for string Version")
		}
		if !strings.Contains(err.Error(), "manifest.json") {
			t.Errorf("error should contain filename, got: %v", err)
		}
		if !strings.Contains(err.Error(), "Version") {
			t.Errorf("error should contain field path, got: %v", err)
		}
	})

	t.Run("unknown field is rejected by closed definition", func(t *testing.T) {
		t.Parallel()

		data := []byte(`{"Name": "x", "Version": 1, "Enabled": true, "Author": "me"}`)
		if _, err := ParseAndDecode[testPackage]([]byte(testSchema), data, "#Package"); err == nil {
			t.Fatal("expected error for unknown field")
		}
	})

	t.Run("missing required field fails concrete validation", func(t *testing.T) {
		t.Parallel()

		data := []byte(`{"Name": "x", "Enabled": true}`)
		if _, err := ParseAndDecode[testPackage]([]byte(testSchema), data, "#Package"); err == nil {
			t.Fatal("expected error for missing Version")
		}
	})

	t.Run("syntax error is reported", func(t *testing.T) {
		t.Parallel()

		data := []byte(`{"Name": "x", `)
		_, err := ParseAndDecode[testPackage]([]byte(testSchema), data, "#Package", WithFilename("broken.json"))
		if err == nil {
			t.Fatal("expected syntax error")
		}
		if !strings.Contains(err.Error(), "broken.json") {
			t.Errorf("error should contain filename, got: %v", err)
		}
	})

	t.Run("missing definition is an internal error", func(t *testing.T) {
		t.Parallel()

		data := []byte(`{"Name": "x", "Version": 1, "Enabled": true}`)
		_, err := ParseAndDecode[testPackage]([]byte(testSchema), data, "#Missing")
		if err == nil || !strings.Contains(err.Error(), "internal error") {
			t.Fatalf("expected internal error, got: %v", err)
		}
	})
}

func TestFileSizeLimit(t *testing.T) {
	t.Parallel()

	data := []byte(`{"Name": "x", "Version": 1, "Enabled": true}`)

	if _, err := ParseAndDecode[testPackage]([]byte(testSchema), data, "#Package", WithMaxFileSize(int64(len(data)))); err != nil {
		t.Errorf("file at limit should parse, got: %v", err)
	}

	_, err := ParseAndDecode[testPackage]([]byte(testSchema), data, "#Package", WithMaxFileSize(10))
	if err == nil {
		t.Fatal("expected size limit error")
	}
	if !strings.Contains(err.Error(), "exceeds maximum") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestWithConcreteFalse(t *testing.T) {
	t.Parallel()

	schema := []byte(`
#Settings: {
	game_directory?: string
	log_level?:      "debug" | "info" | "warn" | "error"
}
`)
	result, err := ParseAndDecode[map[string]any](schema, []byte(``), "#Settings", WithConcrete(false))
	if err != nil {
		t.Fatalf("empty settings should parse, got: %v", err)
	}
	if len(*result.Value) != 0 {
		t.Errorf("expected empty map, got %v", *result.Value)
	}

	if _, err := ParseAndDecode[map[string]any](schema, []byte(`log_level: "loud"`), "#Settings", WithConcrete(false)); err == nil {
		t.Error("expected error for invalid enum value")
	}
}

func TestLookupInt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		want    int64
		wantErr error
	}{
		{name: "integer", data: `{"Version": 3}`, want: 3},
		{name: "negative integer", data: `{"Version": -1}`, want: -1},
		{name: "absent", data: `{"Name": "x"}`, wantErr: ErrFieldNotFound},
		{name: "string", data: `{"Version": "1"}`, wantErr: ErrNotInteger},
		{name: "float", data: `{"Version": 1.5}`, wantErr: ErrNotInteger},
		{name: "null", data: `{"Version": null}`, wantErr: ErrNotInteger},
		{name: "object", data: `{"Version": {"major": 1}}`, wantErr: ErrNotInteger},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v, err := Compile([]byte(tt.data))
			if err != nil {
				t.Fatalf("Compile failed: %v", err)
			}
			got, err := LookupInt(v, "Version")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("LookupInt() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("LookupInt() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("LookupInt() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCompileSyntaxError(t *testing.T) {
	t.Parallel()

	_, err := Compile([]byte(`{"Version": `), WithFilename("manifest.json"))
	if err == nil {
		t.Fatal("expected syntax error")
	}
	if !strings.Contains(err.Error(), "manifest.json") {
		t.Errorf("error should contain filename, got: %v", err)
	}
}
