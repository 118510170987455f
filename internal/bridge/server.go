package bridge

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

	"gridauto/internal/logging"
	"gridauto/internal/simauto"
)

// Server exposes a simauto.Endpoint over JSON-RPC on a Unix socket.
type Server struct {
	path      string
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures a bridge server at the given socket path.
func NewServer(ctx context.Context, path string, endpoint simauto.Endpoint, logger *slog.Logger) (*Server, error) {
	if endpoint == nil {
		return nil, errors.New("bridge server requires an endpoint")
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

	serverCtx, cancel := context.WithCancel(ctx)
	rpcServer := rpc.NewServer()
	svc := &service{endpoint: endpoint, logger: logger, ctx: serverCtx}
	if err := rpcServer.RegisterName("SimAuto", svc); err != nil {
		cancel()
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	return &Server{
		path:      path,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve accepts RPC connections until the context is canceled or Close
// is called.
func (s *Server) Serve() {
	s.logger.Debug("bridge listening", logging.String("socket", s.path))
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
			go func() {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(conn))
			}()
		}
	}()
}

// Close stops accepting connections and removes the socket.
func (s *Server) Close() error {
	s.cancel()
	err := s.listener.Close()
	s.wg.Wait()
	if removeErr := os.Remove(s.path); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) && err == nil {
		err = removeErr
	}
	return err
}

// service is the registered RPC receiver.
type service struct {
	endpoint simauto.Endpoint
	logger   *slog.Logger
	ctx      context.Context
}

// Invoke forwards one call to the wrapped endpoint. Transport failures
// surface as RPC errors; server-reported failures travel in the reply's
// error flag, exactly as the automation server itself reports them.
func (s *service) Invoke(req InvokeRequest, reply *InvokeReply) error {
	result, err := s.endpoint.Invoke(s.ctx, req.Function, req.Params)
	if err != nil {
		s.logger.Warn("endpoint invoke failed",
			logging.String(logging.FieldFunction, req.Function),
			logging.Error(err))
		return err
	}
	reply.ErrorFlag = result.ErrorFlag
	reply.ErrorMessage = result.ErrorMessage
	reply.Payload = result.Payload
	return nil
}
