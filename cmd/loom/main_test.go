package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"loom/internal/testsupport"
)

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func writeTestConfig(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	path := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q

[discord]
bot_token = "super-secret-token"
channel_id = "123"

[podcast]
voices = ["voice-a", "voice-b"]
`, filepath.Join(base, "data"), filepath.Join(base, "logs"))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, err := executeCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("output missing target path: %q", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config not written: %v", err)
	}

	if _, err := executeCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error when config already exists")
	}
	if _, err := executeCommand(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
}

func TestConfigShowRedactsSecrets(t *testing.T) {
	cfgPath := writeTestConfig(t)

	out, err := executeCommand(t, "--config", cfgPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if strings.Contains(out, "super-secret-token") {
		t.Fatal("bot token leaked into output")
	}
	if !strings.Contains(out, "[redacted]") {
		t.Fatalf("expected redaction marker in output: %q", out)
	}
	if !strings.Contains(out, cfgPath) {
		t.Fatalf("expected config path in output: %q", out)
	}
}

func TestQueueListEmpty(t *testing.T) {
	cfgPath := writeTestConfig(t)

	out, err := executeCommand(t, "--config", cfgPath, "queue", "list")
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	if !strings.Contains(out, "Queue is empty") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestQueueListRejectsUnknownStatus(t *testing.T) {
	cfgPath := writeTestConfig(t)

	if _, err := executeCommand(t, "--config", cfgPath, "queue", "list", "--status", "bogus"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestQueueRetryRejectsBadID(t *testing.T) {
	cfgPath := writeTestConfig(t)

	if _, err := executeCommand(t, "--config", cfgPath, "queue", "retry", "abc"); err == nil {
		t.Fatal("expected error for non-numeric id")
	}
}

func TestStatusRendersSections(t *testing.T) {
	cfgPath := writeTestConfig(t)

	out, err := executeCommand(t, "--config", cfgPath, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	for _, section := range []string{"== Configuration ==", "== Queue ==", "== Stages ==", "== Artifacts =="} {
		if !strings.Contains(out, section) {
			t.Fatalf("output missing section %q: %q", section, out)
		}
	}
	if !strings.Contains(out, "Queue is empty") {
		t.Fatalf("expected empty queue note: %q", out)
	}
}

func TestScriptRequiresCompletedSources(t *testing.T) {
	cfgPath := writeTestConfig(t)
	t.Setenv("OPENROUTER_API_KEY", "test-key")

	_, err := executeCommand(t, "--config", cfgPath, "script")
	if err == nil || !strings.Contains(err.Error(), "no completed sources") {
		t.Fatalf("expected completed-sources error, got %v", err)
	}
}

func TestAssembleRequiresScript(t *testing.T) {
	cfgPath := writeTestConfig(t)
	t.Setenv("ELEVENLABS_API_KEY", "test-key")

	_, err := executeCommand(t, "--config", cfgPath, "assemble")
	if err == nil || !strings.Contains(err.Error(), "loom script") {
		t.Fatalf("expected missing-script error, got %v", err)
	}
}

func TestArchiveEpisodeKeepsVerifiedCopy(t *testing.T) {
	base := t.TempDir()
	episode := filepath.Join(base, "podcast.mp3")
	const size = 48 * 1024
	testsupport.WriteFile(t, episode, size)

	if err := archiveEpisode(base, episode); err != nil {
		t.Fatalf("archiveEpisode: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(base, "published"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 archived file, got %d", len(entries))
	}
	name := entries[0].Name()
	if !strings.HasSuffix(name, "_podcast.mp3") {
		t.Fatalf("unexpected archive name %q", name)
	}
	info, err := entries[0].Info()
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != size {
		t.Fatalf("archived size = %d, want %d", info.Size(), size)
	}
}

func TestTestNotifyRequiresTopic(t *testing.T) {
	cfgPath := writeTestConfig(t)

	if _, err := executeCommand(t, "--config", cfgPath, "test-notify"); err == nil {
		t.Fatal("expected error without ntfy topic")
	}
}
