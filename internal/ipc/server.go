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
	"strings"
	"sync"
	"time"

	"intake/internal/daemon"
	"intake/internal/history"
	"intake/internal/logging"
	"intake/internal/queue"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "ipc")

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	svc := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Intake", svc); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
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
				s.logger.Warn("accept failed", logging.Error(err))
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
		)
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.CurrentStatus()
	resp.Running = status.Running
	resp.PID = status.PID
	resp.LockPath = status.LockFilePath
	resp.HistoryPath = status.HistoryPath
	resp.Stats = convertStats(status.Stats)
	return nil
}

func (s *service) Enqueue(req EnqueueRequest, resp *EnqueueResponse) error {
	if len(req.Paths) == 0 {
		return errors.New("enqueue requires at least one file path")
	}
	ids, err := s.daemon.Enqueue(daemon.EnqueueRequest{
		Paths:        req.Paths,
		DocumentType: req.DocumentType,
		ClaimID:      req.ClaimID,
		ClaimNumber:  req.ClaimNumber,
	})
	if err != nil {
		return err
	}
	resp.IDs = ids
	s.logger.Info("batch enqueued via IPC", logging.Int("count", len(ids)))
	return nil
}

func (s *service) QueueList(req QueueListRequest, resp *QueueListResponse) error {
	snapshot := s.daemon.ListQueue(req.Claim)
	resp.Items = make([]QueueItem, 0, len(snapshot))
	for _, item := range snapshot {
		resp.Items = append(resp.Items, convertItem(item))
	}
	return nil
}

func (s *service) QueueRemove(req QueueRemoveRequest, resp *QueueRemoveResponse) error {
	if strings.TrimSpace(req.ID) == "" {
		return errors.New("remove requires an item id")
	}
	resp.Removed = s.daemon.Remove(req.ID)
	return nil
}

func (s *service) QueueRetry(req QueueRetryRequest, resp *QueueRetryResponse) error {
	if strings.TrimSpace(req.ID) == "" {
		resp.Updated = s.daemon.RetryAll()
		return nil
	}
	if err := s.daemon.Retry(req.ID); err != nil {
		return err
	}
	resp.Updated = 1
	return nil
}

func (s *service) QueueClear(req QueueClearRequest, resp *QueueClearResponse) error {
	switch strings.ToLower(strings.TrimSpace(req.Scope)) {
	case "completed":
		resp.Removed = s.daemon.ClearCompleted()
	case "failed":
		resp.Removed = s.daemon.ClearFailed()
	case "all", "":
		resp.Removed = s.daemon.Clear()
	default:
		return fmt.Errorf("unknown clear scope %q", req.Scope)
	}
	return nil
}

func (s *service) History(req HistoryRequest, resp *HistoryResponse) error {
	entries, err := s.daemon.History(s.ctx, history.ListOptions{
		ClaimNumber: req.Claim,
		Outcome:     req.Outcome,
		Limit:       req.Limit,
	})
	if err != nil {
		return err
	}
	resp.Entries = make([]HistoryEntry, 0, len(entries))
	for _, entry := range entries {
		resp.Entries = append(resp.Entries, HistoryEntry{
			ItemID:       entry.ItemID,
			FileName:     entry.FileName,
			DocumentType: entry.DocumentType,
			Outcome:      entry.Outcome,
			ClaimNumber:  entry.ClaimNumber,
			ErrorMessage: entry.ErrorMessage,
			RetryCount:   entry.RetryCount,
			FinishedAt:   entry.FinishedAt,
		})
	}
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	if err := s.daemon.TestNotification(s.ctx); err != nil {
		resp.Sent = false
		resp.Message = err.Error()
		return nil
	}
	resp.Sent = true
	resp.Message = "test notification sent"
	return nil
}

func convertStats(stats queue.Stats) QueueStats {
	return QueueStats{
		Total:           stats.Total,
		Pending:         stats.Pending,
		Uploading:       stats.Uploading,
		Classifying:     stats.Classifying,
		Processing:      stats.Processing,
		Completed:       stats.Completed,
		Failed:          stats.Failed,
		IsActive:        stats.IsActive,
		OverallProgress: stats.OverallProgress,
	}
}

func convertItem(item queue.Item) QueueItem {
	wire := QueueItem{
		ID:             item.ID,
		FileName:       item.FileName,
		FileSizeBytes:  item.FileSizeBytes,
		DocumentType:   string(item.DocumentType),
		Status:         string(item.Status),
		UploadProgress: item.UploadProgress,
		ErrorMessage:   item.ErrorMessage,
		RetryCount:     item.RetryCount,
		CreatedAt:      item.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      item.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if item.Processing != nil {
		wire.ProcessPercent = item.Processing.PercentComplete
		wire.ProcessStage = item.Processing.Stage
	}
	if item.Claim != nil {
		wire.ClaimID = item.Claim.ClaimID
		wire.ClaimNumber = item.Claim.ClaimNumber
	}
	return wire
}
