// Package admin manages temporary remote access to the admin API.
// The admin server itself only listens on localhost; when remote editing is
// needed an ngrok tunnel is started, published through a state file, and torn
// down again after a period of inactivity.
package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"sync"
	"time"

	"go.uber.org/zap"
)

const ngrokAPI = "http://127.0.0.1:4040/api/tunnels"

// State is what gets written to the state file for out-of-band consumers
// (the operator reads the URL from here, or over chat).
type State struct {
	Active    bool      `json:"active"`
	URL       string    `json:"url,omitempty"`
	StartedAt time.Time `json:"started_at,omitempty"`
}

// Tunnel supervises one ngrok process exposing the admin port.
type Tunnel struct {
	port      int
	stateFile string
	timeout   time.Duration
	logger    *zap.Logger

	command []string
	apiURL  string

	// startMu serializes Start so a second caller never observes a process
	// that is up but has no URL yet.
	startMu sync.Mutex

	mu           sync.Mutex
	cmd          *exec.Cmd
	url          string
	lastActivity time.Time
}

// Option customizes a Tunnel.
type Option func(*Tunnel)

// WithCommand overrides the tunnel process, mainly for tests.
func WithCommand(command ...string) Option {
	return func(t *Tunnel) { t.command = command }
}

// WithAPIURL overrides the ngrok inspection endpoint, mainly for tests.
func WithAPIURL(url string) Option {
	return func(t *Tunnel) { t.apiURL = url }
}

// NewTunnel creates a tunnel supervisor for the admin port.
func NewTunnel(port int, stateFile string, timeout time.Duration, logger *zap.Logger, opts ...Option) *Tunnel {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Tunnel{
		port:      port,
		stateFile: stateFile,
		timeout:   timeout,
		logger:    logger,
		command:   []string{"ngrok", "http", fmt.Sprintf("%d", port)},
		apiURL:    ngrokAPI,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start launches the tunnel process, waits for the public URL and records it
// in the state file. The watchdog goroutine tears the tunnel down once no
// request has arrived for the inactivity timeout.
func (t *Tunnel) Start(ctx context.Context) (string, error) {
	t.startMu.Lock()
	defer t.startMu.Unlock()

	t.mu.Lock()
	if t.cmd != nil {
		url := t.url
		t.mu.Unlock()
		return url, nil
	}

	cmd := exec.Command(t.command[0], t.command[1:]...)
	if err := cmd.Start(); err != nil {
		t.mu.Unlock()
		return "", fmt.Errorf("starting tunnel process: %w", err)
	}
	t.cmd = cmd
	t.lastActivity = time.Now()
	t.mu.Unlock()

	url, err := t.waitForURL(ctx)
	if err != nil {
		t.Stop()
		return "", err
	}

	t.mu.Lock()
	t.url = url
	t.mu.Unlock()

	if err := t.writeState(State{Active: true, URL: url, StartedAt: time.Now()}); err != nil {
		t.logger.Warn("writing tunnel state failed", zap.Error(err))
	}
	t.logger.Info("admin tunnel up", zap.String("url", url))

	go t.watchdog(ctx)
	return url, nil
}

// Touch records admin activity, postponing the inactivity shutdown.
func (t *Tunnel) Touch() {
	t.mu.Lock()
	t.lastActivity = time.Now()
	t.mu.Unlock()
}

// Stop tears the tunnel down and marks the state file inactive.
func (t *Tunnel) Stop() {
	t.mu.Lock()
	cmd := t.cmd
	t.cmd = nil
	t.url = ""
	t.mu.Unlock()

	if cmd == nil {
		return
	}
	if err := cmd.Process.Kill(); err != nil {
		t.logger.Warn("killing tunnel process failed", zap.Error(err))
	}
	cmd.Wait()

	if err := t.writeState(State{Active: false}); err != nil {
		t.logger.Warn("writing tunnel state failed", zap.Error(err))
	}
	t.logger.Info("admin tunnel down")
}

// Running reports whether a tunnel process is live.
func (t *Tunnel) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cmd != nil
}

// waitForURL polls the ngrok inspection API until an https tunnel appears.
func (t *Tunnel) waitForURL(ctx context.Context) (string, error) {
	deadline := time.Now().Add(15 * time.Second)
	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if url, err := fetchPublicURL(ctx, t.apiURL); err == nil {
			return url, nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	return "", fmt.Errorf("tunnel did not come up within 15s")
}

func (t *Tunnel) watchdog(ctx context.Context) {
	ticker := time.NewTicker(t.timeout / 10)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-ticker.C:
			t.mu.Lock()
			idle := time.Since(t.lastActivity)
			running := t.cmd != nil
			t.mu.Unlock()
			if !running {
				return
			}
			if idle >= t.timeout {
				t.logger.Info("admin tunnel idle, shutting down",
					zap.Duration("idle", idle))
				t.Stop()
				return
			}
		}
	}
}

func (t *Tunnel) writeState(s State) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(t.stateFile, data, 0o600)
}

type tunnelList struct {
	Tunnels []struct {
		PublicURL string `json:"public_url"`
		Proto     string `json:"proto"`
	} `json:"tunnels"`
}

// fetchPublicURL asks the inspection API for the https tunnel URL.
func fetchPublicURL(ctx context.Context, apiURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("inspection API returned status %d", resp.StatusCode)
	}

	var list tunnelList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return "", err
	}
	for _, tn := range list.Tunnels {
		if tn.Proto == "https" {
			return tn.PublicURL, nil
		}
	}
	return "", fmt.Errorf("no https tunnel yet")
}
