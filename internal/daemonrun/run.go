// Package daemonrun hosts the daemon process runtime: logging setup, pid
// file, signal handling, and IPC wiring around the daemon core.
package daemonrun

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"curator/internal/audit"
	"curator/internal/config"
	"curator/internal/daemon"
	"curator/internal/ipc"
	"curator/internal/logging"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel   string
	ConfigPath string
}

// SocketPath returns the control socket location for a configuration.
func SocketPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.StateDir, "curatord.sock")
}

// PIDPath returns the pid file location for a configuration.
func PIDPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.StateDir, "curatord.pid")
}

// Run starts the curator daemon runtime loop and blocks until a stop signal,
// an IPC stop request, or a fatal startup error.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logPath := filepath.Join(cfg.Paths.LogDir, "curator.log")
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", logPath},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	pidPath := PIDPath(cfg)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := audit.Open(cfg)
	if err != nil {
		logger.Error("open audit store", logging.Error(err))
		return err
	}
	defer store.Close()

	d, err := daemon.New(cfg, opts.ConfigPath, store, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(signalCtx, SocketPath(cfg), d, cancel, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		logger.Error("daemon start failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_start_failed"),
			logging.String(logging.FieldErrorHint, "check configuration and state directory access"),
		)
		return err
	}

	// SIGHUP reloads routing configuration in place.
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for {
			select {
			case <-signalCtx.Done():
				return
			case <-hup:
				message, err := d.Reload()
				if err != nil {
					logger.Warn("reload failed",
						logging.String(logging.FieldEventType, "config_reload_failed"),
						logging.Error(err),
					)
					continue
				}
				logger.Info(message, logging.String(logging.FieldEventType, "config_reloaded"))
			}
		}
	}()

	<-signalCtx.Done()
	logger.Info("curator daemon shutting down",
		logging.String(logging.FieldEventType, "daemon_shutdown"))
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
