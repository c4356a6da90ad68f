package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"buddy/src/config"
)

// Run serves srv on addr until SIGINT or SIGTERM. SIGHUP calls reload.
func Run(srv *Server, addr string, reload func(), logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	pidPath := getPidFilePath()
	if err := writePidFile(pidPath); err != nil {
		return err
	}
	defer os.Remove(pidPath)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(addr)
	}()

	logger.Info("daemon started", "pid", os.Getpid(), "addr", addr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	for {
		select {
		case err := <-errCh:
			return err
		case sig := <-sigChan:
			if sig == syscall.SIGHUP {
				logger.Info("received SIGHUP, reloading persona templates")
				if reload != nil {
					reload()
				}
				continue
			}
			logger.Info("shutting down gracefully", "signal", sig.String())
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Stop(ctx)
		}
	}
}

// IsRunning checks if daemon is already running
func IsRunning() (bool, int) {
	pidPath := getPidFilePath()
	data, err := os.ReadFile(pidPath)
	if err != nil {
		return false, 0
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return false, 0
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false, 0
	}

	if err := process.Signal(syscall.Signal(0)); err != nil {
		// Stale PID file
		os.Remove(pidPath)
		return false, 0
	}

	return true, pid
}

// Stop stops a running daemon
func Stop(pid int) error {
	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process: %w", err)
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to send SIGTERM: %w", err)
	}

	time.Sleep(2 * time.Second)

	if err := process.Signal(syscall.Signal(0)); err == nil {
		slog.Warn("graceful shutdown timed out, forcing kill", "pid", pid)
		if err := process.Kill(); err != nil {
			return fmt.Errorf("failed to kill process: %w", err)
		}
	}

	os.Remove(getPidFilePath())
	return nil
}

func getPidFilePath() string {
	dir, err := config.GetDataDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "buddy.pid")
}

func writePidFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create PID directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0644); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	return nil
}
