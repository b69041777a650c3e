package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"eventsPipeline/internal/auth"
	"eventsPipeline/internal/transport/httpServer/handlers/dto"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestClassifyCommandJSON(t *testing.T) {
	out, err := runCLI(t, "classify", "-o", "json",
		"--namespace", "https://media.example.com/event-images",
		"https://cdn.example.com/poster.jpg",
		"https://media.example.com/event-images/events/1/hero.png",
	)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}

	var results []dto.ClassifyResponse
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results", len(results))
	}
	if !results[0].Eligible || results[0].Owned {
		t.Fatalf("external image: %+v", results[0])
	}
	if results[1].Eligible || !results[1].Owned {
		t.Fatalf("owned image: %+v", results[1])
	}
}

func TestClassifyCommandTableAndYAML(t *testing.T) {
	out, err := runCLI(t, "classify", "https://cdn.example.com/poster.jpg")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if !strings.Contains(out, "valid_image") || !strings.Contains(out, "yes") {
		t.Fatalf("unexpected table output:\n%s", out)
	}

	out, err = runCLI(t, "classify", "--output", "yaml", "https://cdn.example.com/poster.jpg")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if !strings.Contains(out, "kind: valid_image") || !strings.Contains(out, "eligible: true") {
		t.Fatalf("unexpected yaml output:\n%s", out)
	}
}

func TestUnknownOutputFormat(t *testing.T) {
	if _, err := runCLI(t, "classify", "-o", "xml", "https://cdn.example.com/a.jpg"); err == nil {
		t.Fatal("expected error for unknown output format")
	}
}

func TestTokenCommand(t *testing.T) {
	out, err := runCLI(t, "token", "--secret", "s3cret", "--subject", "ci")
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	token := strings.TrimSpace(out)
	if err := auth.Verify("s3cret", token); err != nil {
		t.Fatalf("issued token rejected: %v", err)
	}
	if err := auth.Verify("other", token); err == nil {
		t.Fatal("token accepted with a different secret")
	}
}

func TestMigrateRunRequiresSelection(t *testing.T) {
	t.Setenv("COLLECTOR_SECRET", "s3cret")
	if _, err := runCLI(t, "migrate", "run", "--id", "00000000-0000-0000-0000-000000000001", "--all"); err == nil {
		t.Fatal("expected error for --id with --all")
	}
	if _, err := runCLI(t, "migrate", "run"); err == nil {
		t.Fatal("expected error without --id or --all")
	}
}
