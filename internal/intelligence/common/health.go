package common

import (
	"context"
	"fmt"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"

	"github.com/turtacn/ToxInsight/internal/infrastructure/monitoring/logging"
)

// GRPCHealthChecker probes a model server through the standard
// grpc.health.v1 protocol. The connection is dialled lazily and reused.
type GRPCHealthChecker struct {
	addr     string
	service  string
	logger   logging.Logger
	dialOpts []grpc.DialOption

	mu   sync.Mutex
	conn *grpc.ClientConn
}

var _ HealthChecker = (*GRPCHealthChecker)(nil)

// GRPCHealthOption configures a GRPCHealthChecker.
type GRPCHealthOption func(*GRPCHealthChecker)

// WithDialOptions appends grpc dial options (credentials, context dialer).
func WithDialOptions(opts ...grpc.DialOption) GRPCHealthOption {
	return func(h *GRPCHealthChecker) { h.dialOpts = append(h.dialOpts, opts...) }
}

// WithHealthService checks a named service instead of the server as a whole.
func WithHealthService(name string) GRPCHealthOption {
	return func(h *GRPCHealthChecker) { h.service = name }
}

// NewGRPCHealthChecker builds a checker for addr. The default transport is
// plaintext with keepalive, matching in-cluster model servers.
func NewGRPCHealthChecker(addr string, logger logging.Logger, opts ...GRPCHealthOption) (*GRPCHealthChecker, error) {
	if addr == "" {
		return nil, fmt.Errorf("%w: grpc health address is empty", ErrInvalidInput)
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	h := &GRPCHealthChecker{
		addr:   addr,
		logger: logger.Named("grpc_health"),
		dialOpts: []grpc.DialOption{
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpc.WithKeepaliveParams(keepalive.ClientParameters{
				Time:                30 * time.Second,
				Timeout:             5 * time.Second,
				PermitWithoutStream: true,
			}),
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Name identifies the probe in readiness reports.
func (h *GRPCHealthChecker) Name() string { return "model_grpc" }

func (h *GRPCHealthChecker) connection() (*grpc.ClientConn, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conn != nil {
		return h.conn, nil
	}
	conn, err := grpc.Dial(h.addr, h.dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrServingUnavailable, h.addr, err)
	}
	h.conn = conn
	return conn, nil
}

// Check returns nil when the server reports SERVING.
func (h *GRPCHealthChecker) Check(ctx context.Context) error {
	conn, err := h.connection()
	if err != nil {
		return err
	}
	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: h.service})
	if err != nil {
		h.logger.WithContext(ctx).Warn("model server health check failed",
			logging.String("addr", h.addr), logging.Err(err))
		return fmt.Errorf("%w: %v", ErrServingUnavailable, err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("%w: status %s", ErrServingUnavailable, resp.GetStatus())
	}
	return nil
}

// Close releases the underlying connection.
func (h *GRPCHealthChecker) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conn == nil {
		return nil
	}
	err := h.conn.Close()
	h.conn = nil
	return err
}

//Personal.AI order the ending
