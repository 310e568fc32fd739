package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"
)

const serverStartTimeout = 15 * time.Second

// TestEndToEndWorkflow drives a built binary through init, habit and week
// commands and a short-lived server. Set WEEKLIT_BIN to the binary to run it.
func TestEndToEndWorkflow(t *testing.T) {
	binPath := os.Getenv("WEEKLIT_BIN")
	if binPath == "" {
		t.Skip("WEEKLIT_BIN not set, skipping end-to-end test")
	}
	binPath, _ = filepath.Abs(binPath)
	if _, err := os.Stat(binPath); os.IsNotExist(err) {
		t.Fatalf("binary not found at %s", binPath)
	}

	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")
	config := fmt.Sprintf("timezone: UTC\ndatabase:\n  path: %s\nlog:\n  dir: %s\n",
		filepath.Join(tempDir, "weeklit.db"), tempDir)
	if err := os.WriteFile(configPath, []byte(config), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	var env []string
	for _, e := range os.Environ() {
		if !strings.HasPrefix(e, "HOME=") && !strings.HasPrefix(e, "WEEKLIT_") && !strings.HasPrefix(e, "MONGO_URI=") {
			env = append(env, e)
		}
	}
	env = append(env, "HOME="+tempDir, "WEEKLIT_CONFIG="+configPath)

	run := func(args ...string) string {
		t.Helper()
		return runCmd(t, binPath, env, args...)
	}

	t.Log("Initializing storage...")
	if out := run("init"); !strings.Contains(out, "Initialized weeklit storage") {
		t.Fatalf("unexpected init output: %s", out)
	}

	run("habit", "add", "Read", "--days", "daily")
	if out := run("habit", "list"); !strings.Contains(out, "Read") {
		t.Fatalf("habit missing from list: %s", out)
	}

	if out := run("week", "ensure"); !strings.Contains(out, "(1 habits)") {
		t.Fatalf("unexpected ensure output: %s", out)
	}
	if out := run("week", "toggle", "Read"); !strings.Contains(out, ": done") {
		t.Fatalf("unexpected toggle output: %s", out)
	}
	if out := run("doctor"); !strings.Contains(out, "All diagnostics passed!") {
		t.Fatalf("doctor reported problems: %s", out)
	}
	run("backup")
	if out := run("backup", "list"); !strings.Contains(out, "Available backups (1 total") {
		t.Fatalf("unexpected backup list: %s", out)
	}

	t.Log("Starting server...")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serveCmd := exec.CommandContext(ctx, binPath, "serve", "--addr", "127.0.0.1:0", "--no-schedule")
	serveCmd.Env = env
	serveCmd.Cancel = func() error { return serveCmd.Process.Signal(syscall.SIGTERM) }
	var stderrBuf bytes.Buffer
	serveCmd.Stderr = &stderrBuf
	if err := serveCmd.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	defer func() {
		cancel()
		if err := serveCmd.Wait(); err != nil {
			t.Logf("Server exited with error: %v", err)
		}
		if t.Failed() {
			t.Logf("Server stderr: %s", stderrBuf.String())
		}
	}()

	addr := waitForServer(t, binPath, env, serverStartTimeout)
	t.Logf("Server listening on %s", addr)

	resp, err := http.Get("http://" + addr + "/api/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d", resp.StatusCode)
	}

	resp, err = http.Get("http://" + addr + "/api/weeks/current")
	if err != nil {
		t.Fatalf("current week request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("current week status = %d", resp.StatusCode)
	}
}

func runCmd(t *testing.T, path string, env []string, args ...string) string {
	t.Helper()
	cmd := exec.Command(path, args...)
	cmd.Env = env
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("Command %s %v failed: %v\nOutput: %s", path, args, err, out)
	}
	return string(out)
}

// waitForServer polls "weeklit status" until the server reports its address.
func waitForServer(t *testing.T, path string, env []string, timeout time.Duration) string {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		cmd := exec.Command(path, "status")
		cmd.Env = env
		out, _ := cmd.CombinedOutput()
		if _, after, ok := strings.Cut(string(out), " on "); ok {
			return strings.TrimSpace(after)
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for server to start")
	return ""
}
