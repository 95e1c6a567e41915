// Package server は HTTP API とヘルスチェック用 gRPC サーバーのライフサイクルを管理します。
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/ogurasousui/worker-chronology/internal/platform/config"
)

// ServiceName はヘルスチェックで報告するサービス名です。
const ServiceName = "worker-chronology"

// Server は HTTP サーバーと gRPC ヘルスサーバーをまとめて起動・停止します。
type Server struct {
	listenAddr      string
	grpcListenAddr  string
	shutdownTimeout time.Duration
	httpServer      *http.Server
	grpcServer      *grpc.Server
	health          *health.Server
	logger          *slog.Logger
}

// New は設定と HTTP ハンドラからサーバーを構築します。grpc_listen_addr が空なら gRPC は起動しません。
func New(cfg config.ServerConfig, handler http.Handler, logger *slog.Logger, opts ...grpc.ServerOption) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	grpcServer := grpc.NewServer(opts...)
	healthpb.RegisterHealthServer(grpcServer, hs)

	return &Server{
		listenAddr:      cfg.ListenAddr,
		grpcListenAddr:  cfg.GRPCListenAddr,
		shutdownTimeout: cfg.ShutdownTimeout,
		httpServer: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
		},
		grpcServer: grpcServer,
		health:     hs,
		logger:     logger,
	}
}

// Run は設定されたアドレスで待ち受け、コンテキストがキャンセルされるまでリクエストを処理します。
func (s *Server) Run(ctx context.Context) error {
	httpLis, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.listenAddr, err)
	}

	var grpcLis net.Listener
	if s.grpcListenAddr != "" {
		grpcLis, err = net.Listen("tcp", s.grpcListenAddr)
		if err != nil {
			_ = httpLis.Close()
			return fmt.Errorf("listen on %s: %w", s.grpcListenAddr, err)
		}
	}

	return s.Serve(ctx, httpLis, grpcLis)
}

// Serve は受け取ったリスナーでサーバーを起動します。grpcLis は nil でも構いません。
// コンテキストのキャンセル後、ヘルス状態を NOT_SERVING にしてから HTTP を Shutdown します。
func (s *Server) Serve(ctx context.Context, httpLis, grpcLis net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("http server listening", slog.String("addr", httpLis.Addr().String()))
		if err := s.httpServer.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve HTTP: %w", err)
		}
		return nil
	})

	if grpcLis != nil {
		g.Go(func() error {
			s.logger.Info("grpc health server listening", slog.String("addr", grpcLis.Addr().String()))
			if err := s.grpcServer.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return fmt.Errorf("serve gRPC: %w", err)
			}
			return nil
		})
	}

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	g.Go(func() error {
		<-gctx.Done()
		return s.shutdown()
	})

	return g.Wait()
}

func (s *Server) shutdown() error {
	s.health.Shutdown()
	s.logger.Info("shutting down", slog.Duration("timeout", s.shutdownTimeout))

	ctx := context.Background()
	if s.shutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.shutdownTimeout)
		defer cancel()
	}

	err := s.httpServer.Shutdown(ctx)
	s.grpcServer.GracefulStop()
	if err != nil {
		return fmt.Errorf("shutdown HTTP: %w", err)
	}
	return nil
}
