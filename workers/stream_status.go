// workers/stream_status.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"bonus-hunt-service/config"
	"bonus-hunt-service/utils"

	"github.com/sirupsen/logrus"
)

// StreamStatus is the last known live state of the streamer's Kick channel.
type StreamStatus struct {
	Channel   string    `json:"channel"`
	Live      bool      `json:"live"`
	Title     string    `json:"title,omitempty"`
	Viewers   int       `json:"viewers,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
	Stale     bool      `json:"stale"`
}

// kickChannelResponse is the subset of GET /channels/{slug} the worker reads.
type kickChannelResponse struct {
	Livestream *struct {
		SessionTitle string `json:"session_title"`
		ViewerCount  int    `json:"viewer_count"`
	} `json:"livestream"`
}

type StreamStatusWorker struct {
	channel    string
	baseURL    string
	interval   time.Duration
	httpClient *http.Client
	log        logrus.FieldLogger

	mu     sync.RWMutex
	status StreamStatus
}

func NewStreamStatusWorker(cfg config.Stream, log logrus.FieldLogger) *StreamStatusWorker {
	return &StreamStatusWorker{
		channel:    cfg.Channel,
		baseURL:    cfg.APIBaseURL,
		interval:   cfg.Interval,
		httpClient: utils.NewHTTPClient(10 * time.Second),
		log:        log.WithField("component", "stream"),
		status:     StreamStatus{Channel: cfg.Channel, Stale: true},
	}
}

// Status returns the cached status. Stale is set until the first successful check
// and after a failed one.
func (w *StreamStatusWorker) Status() StreamStatus {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.status
}

// Check polls Kick once and updates the cache.
func (w *StreamStatusWorker) Check(ctx context.Context) error {
	status, err := w.fetch(ctx)
	if err != nil {
		w.mu.Lock()
		w.status.Stale = true
		w.mu.Unlock()
		w.log.WithError(err).Warnf("⚠️ [STREAM] live check for %s failed", w.channel)
		return err
	}

	w.mu.Lock()
	changed := w.status.Live != status.Live
	w.status = status
	w.mu.Unlock()

	if changed {
		w.log.WithFields(logrus.Fields{"channel": w.channel, "live": status.Live}).Info("📺 [STREAM] live status changed")
	}
	return nil
}

func (w *StreamStatusWorker) fetch(ctx context.Context) (StreamStatus, error) {
	endpoint, err := url.JoinPath(w.baseURL, "channels", w.channel)
	if err != nil {
		return StreamStatus{}, fmt.Errorf("invalid kick api url '%s': %w", w.baseURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return StreamStatus{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return StreamStatus{}, fmt.Errorf("kick request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusOK {
		return StreamStatus{}, fmt.Errorf("kick returned %d", resp.StatusCode)
	}

	var out kickChannelResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return StreamStatus{}, fmt.Errorf("decode kick channel: %w", err)
	}

	status := StreamStatus{Channel: w.channel, CheckedAt: time.Now().UTC()}
	if out.Livestream != nil {
		status.Live = true
		status.Title = out.Livestream.SessionTitle
		status.Viewers = out.Livestream.ViewerCount
	}
	return status, nil
}
