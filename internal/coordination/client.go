package coordination

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"sluice/internal/logging"
)

// Client is the coordination-service contract the supervisor depends on.
type Client interface {
	PublishNodeInfo(ctx context.Context, info NodeInfo) error
	ReadAssignment(ctx context.Context, nodeID string) (*Assignment, error)
	Close() error
}

// Config carries connection settings for Connect.
type Config struct {
	Endpoint       string
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
}

type request struct {
	Op     string    `json:"op"`
	NodeID string    `json:"node_id"`
	Info   *NodeInfo `json:"info,omitempty"`
}

type response struct {
	OK         bool        `json:"ok"`
	Error      string      `json:"error,omitempty"`
	Assignment *Assignment `json:"assignment,omitempty"`
}

// tcpClient speaks newline-delimited JSON over a single TCP connection.
type tcpClient struct {
	endpoint       string
	requestTimeout time.Duration
	logger         *slog.Logger

	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
	closed bool
}

// Connect dials the coordination service, retrying with exponential backoff
// until cfg.ConnectTimeout elapses. An unreachable service is returned as an
// error for the caller to treat as fatal.
func Connect(ctx context.Context, cfg Config, logger *slog.Logger) (Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New("coordination: endpoint is required")
	}
	logger = logging.NewComponentLogger(logger, "coordination")

	dial := func() (net.Conn, error) {
		dialer := net.Dialer{Timeout: cfg.RequestTimeout}
		conn, err := dialer.DialContext(ctx, "tcp", endpoint)
		if err != nil {
			logger.Warn("coordination service not reachable yet", logging.Error(err))
			return nil, err
		}
		return conn, nil
	}

	conn, err := backoff.Retry(ctx, dial,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(cfg.ConnectTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("connect coordination service at %s: %w", endpoint, err)
	}

	logger.Info("connected to coordination service", logging.String("endpoint", endpoint))
	return &tcpClient{
		endpoint:       endpoint,
		requestTimeout: cfg.RequestTimeout,
		logger:         logger,
		conn:           conn,
		reader:         bufio.NewReader(conn),
	}, nil
}

// PublishNodeInfo writes the node liveness record.
func (c *tcpClient) PublishNodeInfo(ctx context.Context, info NodeInfo) error {
	resp, err := c.roundTrip(ctx, request{Op: "publish", NodeID: info.NodeID, Info: &info})
	if err != nil {
		return err
	}
	if !resp.OK {
		return fmt.Errorf("publish node info: %s", resp.Error)
	}
	return nil
}

// ReadAssignment fetches the cluster-desired worker set for the node.
func (c *tcpClient) ReadAssignment(ctx context.Context, nodeID string) (*Assignment, error) {
	resp, err := c.roundTrip(ctx, request{Op: "assignment", NodeID: nodeID})
	if err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, fmt.Errorf("read assignment: %s", resp.Error)
	}
	if resp.Assignment == nil {
		return &Assignment{}, nil
	}
	return resp.Assignment, nil
}

// Close terminates the connection. Further requests fail.
func (c *tcpClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *tcpClient) roundTrip(ctx context.Context, req request) (*response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, errors.New("coordination: client closed")
	}

	if c.conn == nil {
		if err := c.redialLocked(ctx); err != nil {
			return nil, err
		}
	}

	resp, err := c.sendLocked(ctx, req)
	if err == nil {
		return resp, nil
	}

	// One redial per request covers the common broken-pipe case after the
	// service restarts; persistent failure surfaces to the periodic caller.
	c.dropConnLocked()
	if redialErr := c.redialLocked(ctx); redialErr != nil {
		return nil, err
	}
	return c.sendLocked(ctx, req)
}

func (c *tcpClient) sendLocked(ctx context.Context, req request) (*response, error) {
	deadline := time.Now().Add(c.requestTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return nil, fmt.Errorf("set deadline: %w", err)
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	payload = append(payload, '\n')
	if _, err := c.conn.Write(payload); err != nil {
		return nil, fmt.Errorf("write request: %w", err)
	}

	line, err := c.reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	var resp response
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &resp, nil
}

func (c *tcpClient) redialLocked(ctx context.Context) error {
	dialer := net.Dialer{Timeout: c.requestTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.endpoint)
	if err != nil {
		return fmt.Errorf("redial coordination service: %w", err)
	}
	c.conn = conn
	c.reader = bufio.NewReader(conn)
	return nil
}

func (c *tcpClient) dropConnLocked() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
		c.reader = nil
	}
}
