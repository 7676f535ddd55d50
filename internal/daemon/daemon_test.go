package daemon

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func TestStatusEmptyHome(t *testing.T) {
	t.Parallel()
	st, err := Status(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Running {
		t.Fatal("fresh home must report not running")
	}
}

func TestStatusCleansStalePid(t *testing.T) {
	t.Parallel()
	home := t.TempDir()
	if err := os.MkdirAll(runDir(home), 0o755); err != nil {
		t.Fatal(err)
	}
	// A pid that can't be a live process on any sane system.
	if err := os.WriteFile(pidPath(home), []byte("999999999\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	st, err := Status(context.Background(), home)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Running {
		t.Fatal("dead pid must report not running")
	}
	if _, err := os.Stat(pidPath(home)); !os.IsNotExist(err) {
		t.Fatal("stale pid file should be removed")
	}
}

func TestStatusLivePid(t *testing.T) {
	t.Parallel()
	home := t.TempDir()
	if err := os.MkdirAll(runDir(home), 0o755); err != nil {
		t.Fatal(err)
	}
	pid := os.Getpid()
	if err := os.WriteFile(pidPath(home), []byte(strconv.Itoa(pid)+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(addrPath(home), []byte("127.0.0.1:1313\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	st, err := Status(context.Background(), home)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !st.Running || st.PID != pid || st.Addr != "127.0.0.1:1313" {
		t.Fatalf("status = %+v", st)
	}
}

func TestStopNothingRunning(t *testing.T) {
	t.Parallel()
	stopped, err := Stop(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if stopped {
		t.Fatal("Stop with no daemon should report false")
	}
}

func TestCheckPortAvailable(t *testing.T) {
	t.Parallel()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = ln.Close() })
	port := ln.Addr().(*net.TCPAddr).Port

	if err := checkPortAvailable(port); err == nil {
		t.Fatal("occupied port should be reported in use")
	}
}

func TestLockIsExclusive(t *testing.T) {
	t.Parallel()
	home := t.TempDir()
	if err := os.MkdirAll(runDir(home), 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(runDir(home), "daemon.lock")

	l1, err := acquireLock(path)
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if _, err := acquireLock(path); err == nil {
		t.Fatal("second acquire should fail while held")
	}
	l1.release()

	l2, err := acquireLock(path)
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	l2.release()
}
