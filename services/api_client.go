package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"netdash/config"
	"netdash/metrics"
	"netdash/models"
)

const (
	EndpointStats          = "/api/stats"
	EndpointDevices        = "/api/devices"
	EndpointTrafficHistory = "/api/traffic-history"
	EndpointScan           = "/api/scan"
	EndpointBlockDevice    = "/api/block-device"
	EndpointUnblockDevice  = "/api/unblock-device"
	EndpointKickDevice     = "/api/kick-device"
	EndpointUpdateSettings = "/api/update-settings"
	EndpointSystemInfo     = "/api/system-info"
	EndpointHostname       = "/api/hostname"
)

// Backend is the monitoring backend as seen by the dashboard
type Backend interface {
	GetStats(ctx context.Context) (*models.NetworkStats, error)
	GetDevices(ctx context.Context) ([]models.Device, error)
	GetTrafficHistory(ctx context.Context, rangeKey string) (*models.TrafficHistory, error)
	Scan(ctx context.Context) (*models.ScanAck, error)
	DeviceAction(ctx context.Context, action, identifier string) (*models.ActionResult, error)
	UpdateSettings(ctx context.Context, scanInterval int) (*models.ActionResult, error)
	GetSystemInfo(ctx context.Context) (*models.SystemInfo, error)
	GetHostname(ctx context.Context) (string, error)
}

type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewAPIClient(cfg *config.Config) *APIClient {
	timeout := cfg.BackendTimeoutDuration()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &APIClient{
		baseURL: strings.TrimRight(cfg.Backend.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     30 * time.Second,
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
			},
		},
	}
}

// ActionEndpoint maps a device action to its backend endpoint
func ActionEndpoint(action string) (string, bool) {
	switch action {
	case "block":
		return EndpointBlockDevice, true
	case "unblock":
		return EndpointUnblockDevice, true
	case "kick":
		return EndpointKickDevice, true
	}
	return "", false
}

func (c *APIClient) GetStats(ctx context.Context) (*models.NetworkStats, error) {
	var stats models.NetworkStats
	if err := c.do(ctx, http.MethodGet, EndpointStats, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *APIClient) GetDevices(ctx context.Context) ([]models.Device, error) {
	var devices []models.Device
	if err := c.do(ctx, http.MethodGet, EndpointDevices, nil, &devices); err != nil {
		return nil, err
	}
	if devices == nil {
		devices = []models.Device{}
	}
	return devices, nil
}

// GetTrafficHistory fetches cumulative counters; an empty rangeKey leaves the range to the backend
func (c *APIClient) GetTrafficHistory(ctx context.Context, rangeKey string) (*models.TrafficHistory, error) {
	endpoint := EndpointTrafficHistory
	if rangeKey != "" {
		endpoint += "?range=" + url.QueryEscape(rangeKey)
	}

	var history models.TrafficHistory
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &history); err != nil {
		return nil, err
	}
	return &history, nil
}

func (c *APIClient) Scan(ctx context.Context) (*models.ScanAck, error) {
	var ack models.ScanAck
	if err := c.do(ctx, http.MethodGet, EndpointScan, nil, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

func (c *APIClient) DeviceAction(ctx context.Context, action, identifier string) (*models.ActionResult, error) {
	endpoint, ok := ActionEndpoint(action)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}

	var result models.ActionResult
	if err := c.do(ctx, http.MethodPost, endpoint, models.ActionRequest{Identifier: identifier}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *APIClient) UpdateSettings(ctx context.Context, scanInterval int) (*models.ActionResult, error) {
	var result models.ActionResult
	if err := c.do(ctx, http.MethodPost, EndpointUpdateSettings, models.SettingsRequest{ScanInterval: scanInterval}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *APIClient) GetSystemInfo(ctx context.Context) (*models.SystemInfo, error) {
	var info models.SystemInfo
	if err := c.do(ctx, http.MethodGet, EndpointSystemInfo, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// GetHostname accepts either {"hostname": "..."} or a bare JSON string
func (c *APIClient) GetHostname(ctx context.Context) (string, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, EndpointHostname, nil, &raw); err != nil {
		return "", err
	}

	var h models.Hostname
	if err := json.Unmarshal(raw, &h); err == nil {
		return h.Hostname, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	return "", &RequestError{Endpoint: EndpointHostname, Status: http.StatusOK, Cause: fmt.Errorf("unexpected hostname payload: %s", string(raw))}
}

// do performs one request. No retries.
func (c *APIClient) do(ctx context.Context, method, endpoint string, body interface{}, out interface{}) error {
	start := time.Now()
	err := c.send(ctx, method, endpoint, body, out)
	metrics.ObserveBackendRequest(endpointPath(endpoint), requestOutcome(err), time.Since(start))
	return err
}

func endpointPath(endpoint string) string {
	if i := strings.IndexByte(endpoint, '?'); i >= 0 {
		return endpoint[:i]
	}
	return endpoint
}

// requestOutcome is "ok", the HTTP status code, or "error" when no response arrived
func requestOutcome(err error) string {
	if err == nil {
		return "ok"
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) && reqErr.Status != 0 {
		return strconv.Itoa(reqErr.Status)
	}
	return "error"
}

func (c *APIClient) send(ctx context.Context, method, endpoint string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return &RequestError{Endpoint: endpoint, Cause: fmt.Errorf("failed to marshal request: %w", err)}
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return &RequestError{Endpoint: endpoint, Cause: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &RequestError{Endpoint: endpoint, Cause: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RequestError{Endpoint: endpoint, Status: resp.StatusCode, Cause: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reqErr := &RequestError{
			Endpoint: endpoint,
			Status:   resp.StatusCode,
			Cause:    fmt.Errorf("http error %d", resp.StatusCode),
		}
		var result models.ActionResult
		if json.Unmarshal(data, &result) == nil {
			reqErr.Message = result.Message
		}
		return reqErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &RequestError{Endpoint: endpoint, Status: resp.StatusCode, Cause: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}
