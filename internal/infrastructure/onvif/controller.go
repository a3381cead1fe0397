package onvif

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	goonvif "github.com/use-go/onvif"
	"github.com/use-go/onvif/media"
	"github.com/use-go/onvif/ptz"
	xsdonvif "github.com/use-go/onvif/xsd/onvif"
	"go.uber.org/zap"

	"camwall/internal/core/domain"
	"camwall/pkg/circuitbreaker"
)

// Controller talks to camera ONVIF endpoints for pan/tilt. Devices and their
// media profile tokens are cached per address; a failed command drops the
// cache entry so the next call renegotiates.
type Controller struct {
	creds   domain.Credentials
	breaker *circuitbreaker.CircuitBreaker
	logger  *zap.SugaredLogger

	mu      sync.Mutex
	devices map[string]*device
}

type device struct {
	dev   *goonvif.Device
	token xsdonvif.ReferenceToken
}

func NewController(creds domain.Credentials, logger *zap.SugaredLogger) *Controller {
	cb := circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold:    5,
		SuccessThreshold:    2,
		Timeout:             30 * time.Second,
		MaxRequestsHalfOpen: 3,
	})
	cb.OnStateChange(func(from, to circuitbreaker.State) {
		logger.Warnw("onvif circuit breaker state change", "from", from.String(), "to", to.String())
	})
	return &Controller{
		creds:   creds,
		breaker: cb,
		logger:  logger,
		devices: make(map[string]*device),
	}
}

// Move issues a ContinuousMove at the given pan/tilt velocity.
func (c *Controller) Move(ctx context.Context, cam *domain.Camera, pan, tilt float64) error {
	return c.breaker.Execute(ctx, func() error {
		d, err := c.device(cam)
		if err != nil {
			return err
		}
		req := ptz.ContinuousMove{
			ProfileToken: d.token,
			Velocity: xsdonvif.PTZSpeed{
				PanTilt: xsdonvif.Vector2D{X: pan, Y: tilt},
			},
		}
		if err := c.call(d.dev, req); err != nil {
			c.invalidate(cam.ONVIFAddr())
			return fmt.Errorf("continuous move: %w", err)
		}
		return nil
	})
}

// Stop halts pan/tilt movement.
func (c *Controller) Stop(ctx context.Context, cam *domain.Camera) error {
	return c.breaker.Execute(ctx, func() error {
		d, err := c.device(cam)
		if err != nil {
			return err
		}
		req := ptz.Stop{
			ProfileToken: d.token,
			PanTilt:      true,
			Zoom:         true,
		}
		if err := c.call(d.dev, req); err != nil {
			c.invalidate(cam.ONVIFAddr())
			return fmt.Errorf("stop: %w", err)
		}
		return nil
	})
}

// device returns the cached connection for the camera, dialing and fetching
// the first media profile token on first use.
func (c *Controller) device(cam *domain.Camera) (*device, error) {
	addr := cam.ONVIFAddr()

	c.mu.Lock()
	if d, ok := c.devices[addr]; ok {
		c.mu.Unlock()
		return d, nil
	}
	c.mu.Unlock()

	dev, err := goonvif.NewDevice(goonvif.DeviceParams{
		Xaddr:    addr,
		Username: c.creds.Username,
		Password: c.creds.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("onvif connect %s: %w", addr, err)
	}

	token, err := firstProfileToken(dev)
	if err != nil {
		return nil, fmt.Errorf("onvif profiles %s: %w", addr, err)
	}

	d := &device{dev: dev, token: token}
	c.mu.Lock()
	c.devices[addr] = d
	c.mu.Unlock()

	c.logger.Infow("onvif device ready", "addr", addr, "profile", token)
	return d, nil
}

func (c *Controller) invalidate(addr string) {
	c.mu.Lock()
	delete(c.devices, addr)
	c.mu.Unlock()
}

func (c *Controller) call(dev *goonvif.Device, method interface{}) error {
	resp, err := dev.CallMethod(method)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("soap status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// firstProfileToken asks the device for its media profiles and returns the
// token of the first one.
func firstProfileToken(dev *goonvif.Device) (xsdonvif.ReferenceToken, error) {
	resp, err := dev.CallMethod(media.GetProfiles{})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("soap status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var envelope struct {
		Body struct {
			GetProfilesResponse struct {
				Profiles []struct {
					Token string `xml:"token,attr"`
				} `xml:"Profiles"`
			} `xml:"GetProfilesResponse"`
		} `xml:"Body"`
	}
	if err := xml.Unmarshal(body, &envelope); err != nil {
		return "", fmt.Errorf("parse profiles response: %w", err)
	}
	profiles := envelope.Body.GetProfilesResponse.Profiles
	if len(profiles) == 0 || profiles[0].Token == "" {
		return "", fmt.Errorf("device reported no media profiles")
	}
	return xsdonvif.ReferenceToken(profiles[0].Token), nil
}
