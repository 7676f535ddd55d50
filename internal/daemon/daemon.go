// Package daemon manages the questboard process lifecycle: the foreground
// serve loop, background re-exec, stop, and status via pid/addr/lock files
// under <home>/run.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/salavey13/carTest/internal/config"
	"github.com/salavey13/carTest/internal/httpapi"
)

// StartForeground runs the daemon until ctx is cancelled or the server
// fails. It holds the singleton lock for its whole lifetime.
func StartForeground(ctx context.Context, opts StartOptions) error {
	if opts.Home == "" {
		return errors.New("home is required")
	}

	settings, err := config.LoadSettings(opts.Home)
	if err != nil {
		return err
	}
	if opts.Port != 0 {
		settings.Port = opts.Port
	}
	if opts.APIKey != "" {
		settings.APIKey = opts.APIKey
	}

	if err := os.MkdirAll(runDir(opts.Home), 0o755); err != nil {
		return err
	}

	lock, err := acquireLock(lockPath(opts.Home))
	if err != nil {
		return err
	}
	defer lock.release()

	pid := os.Getpid()
	if err := os.WriteFile(pidPath(opts.Home), []byte(strconv.Itoa(pid)+"\n"), 0o644); err != nil {
		return err
	}
	addr := fmt.Sprintf("127.0.0.1:%d", settings.Port)
	_ = os.WriteFile(addrPath(opts.Home), []byte(addr+"\n"), 0o644)
	defer func() {
		_ = os.Remove(pidPath(opts.Home))
		_ = os.Remove(addrPath(opts.Home))
	}()

	if err := checkPortAvailable(settings.Port); err != nil {
		return err
	}

	app, err := httpapi.NewApp(httpapi.ServerOptions{
		Home:     opts.Home,
		Addr:     addr,
		Dev:      opts.Dev,
		APIKey:   settings.APIKey,
		Settings: settings,
	})
	if err != nil {
		return err
	}

	slog.Info("daemon starting", "addr", addr, "home", opts.Home)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.Server.ListenAndServe()
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return app.Server.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	if err == nil || errors.Is(err, http.ErrServerClosed) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// StartBackground re-execs the binary as a detached daemon and waits for it
// to come up.
func StartBackground(ctx context.Context, opts StartOptions) (int, error) {
	exe, err := os.Executable()
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(runDir(opts.Home), 0o755); err != nil {
		return 0, err
	}

	if st, _ := Status(ctx, opts.Home); st.Running {
		return 0, fmt.Errorf("questboard already running (pid %d)", st.PID)
	}

	stderr, err := os.OpenFile(LogPath(opts.Home), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, err
	}
	// Kept open for child lifetime.

	args := []string{"daemon", "--home", opts.Home}
	if opts.Port != 0 {
		args = append(args, "--port", strconv.Itoa(opts.Port))
	}
	if opts.Dev {
		args = append(args, "--dev")
	}

	cmd := exec.Command(exe, args...)
	cmd.Stdout = io.Discard
	cmd.Stderr = stderr
	setDaemonSysProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		return 0, err
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if st, _ := Status(ctx, opts.Home); st.Running {
			return st.PID, nil
		}
		time.Sleep(50 * time.Millisecond)
	}

	// Fallback to started pid even if status isn't ready yet.
	return cmd.Process.Pid, nil
}

// Stop terminates a running daemon, escalating to kill after 15 seconds.
// Returns false when nothing was running.
func Stop(ctx context.Context, home string) (bool, error) {
	st, err := Status(ctx, home)
	if err != nil {
		return false, err
	}
	if !st.Running {
		return false, nil
	}

	proc, err := os.FindProcess(st.PID)
	if err != nil {
		return false, err
	}
	if err := signalTerm(proc); err != nil {
		return false, err
	}

	deadline := time.Now().Add(15 * time.Second)
	for time.Now().Before(deadline) {
		if st2, _ := Status(ctx, home); !st2.Running {
			return true, nil
		}
		time.Sleep(100 * time.Millisecond)
	}

	_ = proc.Kill()
	return true, nil
}

// Status reads the pid file and checks the process is alive, cleaning up a
// stale pid file when it is not.
func Status(ctx context.Context, home string) (StatusInfo, error) {
	pb, err := os.ReadFile(pidPath(home))
	if err != nil {
		return StatusInfo{Running: false}, nil
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(pb)))
	if err != nil || pid <= 0 {
		return StatusInfo{Running: false}, nil
	}

	if !processExists(pid) {
		_ = os.Remove(pidPath(home))
		return StatusInfo{Running: false}, nil
	}

	addr := ""
	if ab, err := os.ReadFile(addrPath(home)); err == nil {
		addr = strings.TrimSpace(string(ab))
	}
	if addr == "" {
		addr = "unknown"
	}
	return StatusInfo{Running: true, PID: pid, Addr: addr}, nil
}

func checkPortAvailable(port int) error {
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return fmt.Errorf("port %d is already in use", port)
	}
	_ = ln.Close()
	return nil
}
