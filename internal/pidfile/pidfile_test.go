package pidfile

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mitchellh/go-ps"
)

type mockProcess struct {
	pid        int
	executable string
}

func (m *mockProcess) Pid() int { return m.pid }
func (m *mockProcess) PPid() int { return 0 }
func (m *mockProcess) Executable() string { return m.executable }

func withProcess(t *testing.T, executable string) {
	t.Helper()
	old := findProcessFunc
	t.Cleanup(func() { findProcessFunc = old })
	findProcessFunc = func(pid int) (ps.Process, error) {
		if executable == "" {
			return nil, nil
		}
		return &mockProcess{pid: pid, executable: executable}, nil
	}
}

func TestRead(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
		want    Info
		wantErr bool
	}{
		{"valid", "4242|:5000\n", Info{PID: 4242, Addr: ":5000"}, false},
		{"empty addr", "4242|", Info{PID: 4242}, false},
		{"missing separator", "4242", Info{}, true},
		{"bad pid", "abc|:5000", Info{}, true},
		{"negative pid", "-1|:5000", Info{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name)
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			got, err := Read(path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Read() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Read() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestAcquireAndRelease(t *testing.T) {
	withProcess(t, "")
	path := Path(filepath.Join(t.TempDir(), "nested"))

	lock, err := Acquire(path, ":5000")
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	info, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if info.PID != os.Getpid() || info.Addr != ":5000" {
		t.Errorf("unexpected lock content %+v", info)
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("lockfile should be gone after release")
	}
	if err := lock.Release(); err != nil {
		t.Errorf("second release should be a no-op, got %v", err)
	}
}

func TestAcquireRefusesLiveServer(t *testing.T) {
	path := Path(t.TempDir())
	if err := os.WriteFile(path, []byte("999999|:5000"), 0600); err != nil {
		t.Fatal(err)
	}

	withProcess(t, "weeklit")
	if _, err := Acquire(path, ":6000"); !stderrors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
	if info, ok := Running(path); !ok || info.PID != 999999 {
		t.Errorf("expected the live lock to be reported, got %+v %v", info, ok)
	}
}

func TestAcquireReplacesStaleLock(t *testing.T) {
	tests := []struct {
		name       string
		executable string
	}{
		{"process gone", ""},
		{"pid reused by another program", "bash"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := Path(t.TempDir())
			if err := os.WriteFile(path, []byte("999999|:5000"), 0600); err != nil {
				t.Fatal(err)
			}
			withProcess(t, tt.executable)

			lock, err := Acquire(path, ":6000")
			if err != nil {
				t.Fatalf("Acquire failed: %v", err)
			}
			defer lock.Release()

			info, err := Read(path)
			if err != nil || info.Addr != ":6000" {
				t.Errorf("stale lock not replaced: %+v %v", info, err)
			}
		})
	}
}

func TestReleaseLeavesForeignLock(t *testing.T) {
	withProcess(t, "")
	path := Path(t.TempDir())
	lock, err := Acquire(path, ":5000")
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	// Another server took over after ours went stale.
	if err := os.WriteFile(path, []byte("123|:7000"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Error("release must not remove another process's lock")
	}
}
