package ingest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bluenviron/gortsplib/v4"
	"github.com/bluenviron/gortsplib/v4/pkg/base"
	"github.com/bluenviron/gortsplib/v4/pkg/description"
	"github.com/bluenviron/gortsplib/v4/pkg/format"
	"github.com/pion/rtcp"
	"github.com/pion/rtp"
	"go.uber.org/zap"

	"camwall/internal/core/ports"
)

// RTSPRunner pulls one RTSP session over TCP and watches the packet flow.
// It never decodes: the RTP stream is inspected only for liveness (first
// packet, stalls) and loss (sequence gaps), which is all the supervision
// layer needs.
type RTSPRunner struct {
	logger *zap.SugaredLogger
}

func NewRTSPRunner(logger *zap.SugaredLogger) *RTSPRunner {
	return &RTSPRunner{logger: logger}
}

// Run blocks until the session dies, the stream never starts, or ctx is
// cancelled. Cancellation returns nil.
func (r *RTSPRunner) Run(ctx context.Context, cfg ports.RunnerConfig) error {
	u, err := base.ParseURL(cfg.URL)
	if err != nil {
		return fmt.Errorf("invalid rtsp url: %w", err)
	}

	transport := gortsplib.TransportTCP
	c := &gortsplib.Client{Transport: &transport}

	var (
		firstPacket = make(chan struct{})
		playingOnce sync.Once
		lastPacket  atomic.Int64

		seqMu   sync.Mutex
		lastSeq = make(map[*description.Media]uint16)
	)
	lastPacket.Store(time.Now().UnixNano())

	c.OnPacketRTPAny(func(medi *description.Media, forma format.Format, pkt *rtp.Packet) {
		lastPacket.Store(time.Now().UnixNano())
		playingOnce.Do(func() {
			close(firstPacket)
			if cfg.Events.Playing != nil {
				cfg.Events.Playing()
			}
		})

		seqMu.Lock()
		prev, seen := lastSeq[medi]
		lastSeq[medi] = pkt.SequenceNumber
		seqMu.Unlock()

		if seen && pkt.SequenceNumber != prev+1 && cfg.Events.Drop != nil {
			cfg.Events.Drop("sequence gap")
		}
	})

	c.OnPacketRTCPAny(func(medi *description.Media, pkt rtcp.Packet) {
		if sr, ok := pkt.(*rtcp.SenderReport); ok {
			r.logger.Debugw("sender report",
				"url", u.Host, "packets", sr.PacketCount, "octets", sr.OctetCount)
		}
	})

	if err := c.Start(u.Scheme, u.Host); err != nil {
		return fmt.Errorf("rtsp connect: %w", err)
	}
	defer c.Close()

	desc, _, err := c.Describe(u)
	if err != nil {
		return fmt.Errorf("rtsp describe: %w", err)
	}

	medias := desc.Medias
	if !cfg.WithAudio {
		medias = videoOnly(medias)
	}
	if len(medias) == 0 {
		return fmt.Errorf("no usable media in %s", u.Host)
	}
	for _, medi := range medias {
		if _, err := c.Setup(desc.BaseURL, medi, 0, 0); err != nil {
			return fmt.Errorf("rtsp setup: %w", err)
		}
	}

	if _, err := c.Play(nil); err != nil {
		return fmt.Errorf("rtsp play: %w", err)
	}

	select {
	case <-firstPacket:
	case <-time.After(cfg.PlayTimeout):
		return fmt.Errorf("no packets within %s of play", cfg.PlayTimeout)
	case <-ctx.Done():
		return nil
	}

	sessionDone := make(chan error, 1)
	go func() { sessionDone <- c.Wait() }()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.Close()
			<-sessionDone
			return nil
		case err := <-sessionDone:
			return fmt.Errorf("rtsp session: %w", err)
		case <-ticker.C:
			idle := time.Since(time.Unix(0, lastPacket.Load()))
			if idle >= cfg.StallInterval {
				// Reset so a long stall reports once per interval, not per tick.
				lastPacket.Store(time.Now().UnixNano())
				if cfg.Events.Drop != nil {
					cfg.Events.Drop("stall")
				}
			}
		}
	}
}

func videoOnly(medias []*description.Media) []*description.Media {
	out := make([]*description.Media, 0, len(medias))
	for _, m := range medias {
		if m.Type == description.MediaTypeVideo {
			out = append(out, m)
		}
	}
	return out
}
