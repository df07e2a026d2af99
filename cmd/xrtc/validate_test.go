package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// runValidateOn executes the validate subcommand against a config path,
// capturing combined output.
func runValidateOn(t *testing.T, configPath string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	rootCmd.SetArgs([]string{"validate", "-c", configPath})
	err := rootCmd.Execute()

	return buf.String(), err
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestRunValidate_ValidConfig(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
portals: [telemetry, alerts]
mode: watch
cutoff: 500ms
schedule: FIFO
`)

	output, err := runValidateOn(t, path)
	if err != nil {
		t.Fatalf("validate failed on a valid config: %v", err)
	}

	for _, phrase := range []string{
		"Config is valid!",
		"Portals:  2",
		"Mode:     watch",
		"Cutoff:   500ms",
		"Schedule: FIFO",
	} {
		if !strings.Contains(output, phrase) {
			t.Errorf("summary missing %q, output:\n%s", phrase, output)
		}
	}
}

func TestRunValidate_InvalidConfig(t *testing.T) {
	path := writeConfig(t, "invalid.yaml", `
portals: [telemetry]
mode: firehose
`)

	_, err := runValidateOn(t, path)
	if err == nil {
		t.Fatal("expected an error for an unknown mode")
	}
	if !strings.Contains(err.Error(), "mode") {
		t.Errorf("error does not name the bad field: %v", err)
	}
}

func TestRunValidate_MissingFile(t *testing.T) {
	_, err := runValidateOn(t, filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
	if !strings.Contains(err.Error(), "failed to read") {
		t.Errorf("unexpected error for a missing file: %v", err)
	}
}
