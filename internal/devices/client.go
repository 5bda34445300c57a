package devices

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kotakee/kotakee-core/internal/action"
	"github.com/kotakee/kotakee-core/internal/home"
)

// defaultTimeout bounds every device request. Modules sit on the local
// network; anything slower than this is effectively down.
const defaultTimeout = 5 * time.Second

// Client talks to module firmware over HTTP. Implements home.DeviceClient.
//
// Thread Safety: all methods are safe for concurrent use.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a device client. A non-positive timeout selects the
// default.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// StateToggle asks the device to actuate an action toward a state.
func (c *Client) StateToggle(ctx context.Context, addr string, id action.ID, toState int) error {
	return c.get(ctx, fmt.Sprintf("http://%s/stateToggle/%d/%d", addr, int(id), toState))
}

// StateVirtualToggle asks the device to record a state without actuating.
func (c *Client) StateVirtualToggle(ctx context.Context, addr string, id action.ID, toState int) error {
	return c.get(ctx, fmt.Sprintf("http://%s/stateVirtualToggle/%d/%d", addr, int(id), toState))
}

// StateGet asks the device to re-report the current state of an action. The
// device answers out of band through its own moduleStateUpdate call.
func (c *Client) StateGet(ctx context.Context, addr string, id action.ID) error {
	return c.get(ctx, fmt.Sprintf("http://%s/stateGet/%d", addr, int(id)))
}

// PushCapabilities sends the module its full action/pin assignment.
func (c *Client) PushCapabilities(ctx context.Context, addr string, caps home.Capabilities) error {
	body, err := json.Marshal(caps)
	if err != nil {
		return fmt.Errorf("%w: encode capabilities: %w", ErrRequestFailed, err)
	}

	url := fmt.Sprintf("http://%s/moduleUpdate", addr)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

func (c *Client) get(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	// Drain body to allow connection reuse
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s: status %d", ErrRequestFailed, req.URL.Path, resp.StatusCode)
	}
	return nil
}
