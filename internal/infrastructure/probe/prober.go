package probe

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// TCPProber measures whether a camera's RTSP port accepts connections and
// how long the handshake takes. Cheap way to tell "camera off" from "stream
// broken" before paying the full RTSP setup cost.
type TCPProber struct {
	logger *zap.SugaredLogger
}

func NewTCPProber(logger *zap.SugaredLogger) *TCPProber {
	return &TCPProber{logger: logger}
}

func (p *TCPProber) Probe(ctx context.Context, host string, port int) (time.Duration, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	start := time.Now()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return 0, fmt.Errorf("probe %s: %w", addr, err)
	}
	latency := time.Since(start)
	_ = conn.Close()

	p.logger.Debugw("probe ok", "addr", addr, "latency", latency)
	return latency, nil
}
