package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"

	"curator/internal/audit"
	"curator/internal/daemon"
	"curator/internal/logging"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// requestStop is invoked when a client asks the daemon to shut down; the
	// process runner wires it to its own teardown.
	requestStop func()
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, requestStop func(), logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	svc := &service{daemon: d, logger: logger, ctx: ctx, requestStop: requestStop}
	if err := rpcServer.RegisterName("Curator", svc); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:        path,
		daemon:      d,
		logger:      logger,
		listener:    listener,
		rpcServer:   rpcServer,
		ctx:         serverCtx,
		cancel:      cancel,
		requestStop: requestStop,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String(logging.FieldErrorHint, "Check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String(logging.FieldErrorHint, "Remove the socket file manually"))
	}
}

type service struct {
	daemon      *daemon.Daemon
	logger      *slog.Logger
	ctx         context.Context
	requestStop func()
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return logging.WithComponent(s.logger, "ipc")
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status()
	resp.Running = status.Running
	resp.PID = status.PID
	resp.AuditDBPath = status.AuditDBPath
	resp.LockPath = status.LockPath
	resp.ConfigPath = status.ConfigPath
	resp.Workers = status.Engine.Workers
	resp.Throttled = status.Engine.Throttled
	resp.QueueDepth = status.Engine.QueueDepth
	resp.QueueCapacity = status.Engine.QueueCapacity
	resp.States = status.Engine.States
	resp.IndexedHashes = status.Engine.IndexedHashes
	resp.Health = status.Engine.Health
	for _, w := range status.Engine.Watches {
		resp.Watches = append(resp.Watches, WatchStatus{
			WatchID:    w.WatchID,
			Path:       w.Path,
			Recursive:  w.Recursive,
			State:      string(w.State),
			LastError:  w.LastError,
			EventsSeen: w.EventsSeen,
		})
	}
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.log().Info("daemon stop requested via IPC",
		logging.String(logging.FieldEventType, "daemon_stop_requested"))
	if s.requestStop != nil {
		s.requestStop()
	}
	resp.Stopped = true
	return nil
}

func (s *service) Reload(_ ReloadRequest, resp *ReloadResponse) error {
	message, err := s.daemon.Reload()
	if err != nil {
		return err
	}
	resp.Message = message
	s.log().Info("configuration reloaded via IPC",
		logging.String(logging.FieldEventType, "config_reloaded"))
	return nil
}

func (s *service) AuditList(req AuditListRequest, resp *AuditListResponse) error {
	entries, err := s.daemon.AuditRecent(s.ctx, audit.Query{
		Outcome: audit.Outcome(req.Outcome),
		Limit:   req.Limit,
	})
	if err != nil {
		return err
	}
	resp.Entries = entries
	return nil
}

func (s *service) AuditHistory(req AuditHistoryRequest, resp *AuditHistoryResponse) error {
	if req.OperationID == "" {
		return errors.New("audit history requires an operation id")
	}
	entries, err := s.daemon.AuditHistory(s.ctx, req.OperationID)
	if err != nil {
		return err
	}
	resp.Entries = entries
	return nil
}

func (s *service) AuditPrune(_ AuditPruneRequest, resp *AuditPruneResponse) error {
	removed, err := s.daemon.AuditPrune(s.ctx)
	if err != nil {
		return err
	}
	resp.Removed = removed
	s.log().Info("audit entries pruned",
		logging.String(logging.FieldEventType, "audit_pruned"),
		logging.Int64("removed", removed))
	return nil
}

func (s *service) Routes(_ RoutesRequest, resp *RoutesResponse) error {
	list, defaultCategory := s.daemon.Routes()
	for _, r := range list {
		resp.Routes = append(resp.Routes, RouteInfo{
			Extensions:  r.Extensions,
			Category:    r.Category,
			Destination: r.Destination,
		})
	}
	resp.DefaultCategory = defaultCategory
	return nil
}

func (s *service) Watches(_ WatchesRequest, resp *WatchesResponse) error {
	for _, w := range s.daemon.Watches() {
		resp.Watches = append(resp.Watches, WatchStatus{
			WatchID:    w.WatchID,
			Path:       w.Path,
			Recursive:  w.Recursive,
			State:      string(w.State),
			LastError:  w.LastError,
			EventsSeen: w.EventsSeen,
		})
	}
	return nil
}

func (s *service) PathTest(req PathTestRequest, resp *PathTestResponse) error {
	if req.Path == "" {
		return errors.New("path test requires a path")
	}
	report, err := s.daemon.TestPath(req.Path)
	if err != nil {
		return err
	}
	resp.Report = report
	return nil
}

func (s *service) TargetTest(req TargetTestRequest, resp *TargetTestResponse) error {
	if req.Name == "" {
		return errors.New("target test requires a target name")
	}
	report, err := s.daemon.TestTarget(s.ctx, req.Name)
	if err != nil {
		return err
	}
	resp.Report = report
	return nil
}
