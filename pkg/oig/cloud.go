package oig

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/oigbridge/oigbridge/pkg/common"
	"github.com/oigbridge/oigbridge/pkg/log"
)

const (
	defaultBaseURL = "https://www.oigpower.cz/cez/"

	cloudLoginPath         = "inc/php/scripts/Login.php"
	cloudStatsPath         = "json.php"
	cloudExtendedStatsPath = "inc/php/scripts/Device.Get.Extend.php"
	cloudNotificationsPath = "inc/php/scripts/Crm.Get.php"
	cloudSetBoxModePath    = "inc/php/scripts/Device.Set.Value.php"
	cloudGridDeliveryPath  = "inc/php/scripts/ToGrid.Toggle.php"

	sessionCookieName = "PHPSESSID"
)

// Cloud talks to the OIG Cloud (ČEZ battery box) HTTP API. A session is
// established by Authenticate and identified by a PHP session cookie; data
// calls retry once through a fresh login when the session has expired
// upstream.
type Cloud struct {
	client   *http.Client
	baseURL  string
	email    string
	password string

	mu        sync.Mutex
	sessionID string
	boxID     string
}

// NewCloud returns an unauthenticated client for the given credentials.
func NewCloud(baseURL, email, password string) *Cloud {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Cloud{
		client:   common.HTTPClient(time.Minute),
		baseURL:  baseURL,
		email:    email,
		password: password,
	}
}

// SessionID returns the current upstream session identifier, if any.
func (c *Cloud) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// BoxID returns the device id learned from the last stats payload, if any.
func (c *Cloud) BoxID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.boxID
}

// Authenticate logs in to OIG Cloud. The upstream reports success via a
// fixed body and hands back the session id in a cookie.
func (c *Cloud) Authenticate(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.login(ctx)
}

// login must be called with c.mu held.
func (c *Cloud) login(ctx context.Context) (bool, error) {
	if c.email == "" {
		return false, errors.New("missing email")
	}
	if c.password == "" {
		return false, errors.New("missing password")
	}

	body, err := json.Marshal([]string{c.email, c.password})
	if err != nil {
		return false, err
	}

	u, err := joinURL(c.baseURL, cloudLoginPath)
	if err != nil {
		return false, err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", u, bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "oig login request failed", slog.Any("error", err))
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("login status %d", resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, err
	}

	var sessionID string
	for _, cookie := range resp.Cookies() {
		if cookie.Name == sessionCookieName {
			sessionID = cookie.Value
		}
	}
	// the login script always answers 200; a missing session cookie or an
	// error marker in the body means the credentials were rejected
	if sessionID == "" || bytes.Contains(respBody, []byte(`"error"`)) {
		log.Ctx(ctx).DebugContext(ctx, "oig login rejected", slog.String("email", c.email))
		return false, nil
	}

	c.sessionID = sessionID
	log.Ctx(ctx).DebugContext(ctx, "oig login success", slog.String("email", c.email))
	return true, nil
}

func joinURL(base, endpoint string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	u.Path, err = url.JoinPath(u.Path, endpoint)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (c *Cloud) newGetRequest(ctx context.Context, endpoint string, params url.Values) (*http.Request, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, err
	}
	u.Path, err = url.JoinPath(u.Path, endpoint)
	if err != nil {
		return nil, err
	}
	u.RawQuery = params.Encode()
	return http.NewRequestWithContext(ctx, "GET", u.String(), nil)
}

func (c *Cloud) newPostJSONRequest(ctx context.Context, endpoint string, data interface{}) (*http.Request, error) {
	u, err := joinURL(c.baseURL, endpoint)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", u, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// doRequest sends the request with the session cookie attached and decodes
// the JSON response into dest. We try up to 2 times because the session
// might have expired upstream. Must be called with c.mu held.
func (c *Cloud) doRequest(req *http.Request, dest interface{}) error {
	for i := 0; i < 2; i++ {
		if c.sessionID == "" {
			ok, err := c.login(req.Context())
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("session expired and re-login was rejected")
			}
		}
		req.Header.Set("Cookie", sessionCookieName+"="+c.sessionID)

		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}

		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			resp.Body.Close()
			log.Ctx(req.Context()).DebugContext(req.Context(), "oig session expired", slog.Int("status", resp.StatusCode))
			c.sessionID = ""
			continue
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return fmt.Errorf("status %d", resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return err
		}

		if dest != nil {
			if err := json.Unmarshal(body, dest); err != nil {
				log.Ctx(req.Context()).ErrorContext(req.Context(), "failed to decode oig response",
					slog.Any("error", err), slog.String("body", string(body)))
				return fmt.Errorf("failed to decode oig response: %w", err)
			}
		}
		return nil
	}
	return errors.New("request failed after session refresh")
}

// GetStats returns the current snapshot keyed by device (box) id. The box
// id is remembered from the first successful payload because the write
// endpoints need it.
func (c *Cloud) GetStats(ctx context.Context) (map[string]any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	req, err := c.newGetRequest(ctx, cloudStatsPath, nil)
	if err != nil {
		return nil, err
	}

	var res map[string]any
	if err := c.doRequest(req, &res); err != nil {
		return nil, fmt.Errorf("get stats failed: %w", err)
	}

	if c.boxID == "" {
		for id := range res {
			c.boxID = id
			break
		}
	}

	log.Ctx(ctx).DebugContext(ctx, "oig stats fetched", slog.Int("devices", len(res)), slog.String("boxID", c.boxID))
	return res, nil
}

// GetExtendedStats returns historical data for the named report between the
// given dates (YYYY-MM-DD).
func (c *Cloud) GetExtendedStats(ctx context.Context, name, startDate, endDate string) (map[string]any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	req, err := c.newPostJSONRequest(ctx, cloudExtendedStatsPath, map[string]string{
		"name":       name,
		"start_date": startDate,
		"end_date":   endDate,
	})
	if err != nil {
		return nil, err
	}

	var res map[string]any
	if err := c.doRequest(req, &res); err != nil {
		return nil, fmt.Errorf("get extended stats failed: %w", err)
	}
	return res, nil
}

// GetNotifications returns system alerts, warnings and messages.
func (c *Cloud) GetNotifications(ctx context.Context) ([]any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	req, err := c.newGetRequest(ctx, cloudNotificationsPath, nil)
	if err != nil {
		return nil, err
	}

	var res []any
	if err := c.doRequest(req, &res); err != nil {
		return nil, fmt.Errorf("get notifications failed: %w", err)
	}
	return res, nil
}

// SetBoxMode sets the operating mode of the control box. GetStats must
// have been called at least once so the box id is known.
func (c *Cloud) SetBoxMode(ctx context.Context, mode string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.boxID == "" {
		return false, errors.New("box id unknown, fetch stats first")
	}

	log.Ctx(ctx).InfoContext(ctx, "setting oig box mode", slog.String("boxID", c.boxID), slog.String("mode", mode))

	req, err := c.newPostJSONRequest(ctx, cloudSetBoxModePath, map[string]string{
		"id_device": c.boxID,
		"table":     "box_prms",
		"column":    "mode",
		"value":     mode,
	})
	if err != nil {
		return false, err
	}

	var ok bool
	if err := c.doRequest(req, &ok); err != nil {
		return false, fmt.Errorf("set box mode failed: %w", err)
	}
	return ok, nil
}

// SetGridDelivery toggles grid delivery (1 enabled, 0 disabled).
func (c *Cloud) SetGridDelivery(ctx context.Context, mode int) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.boxID == "" {
		return false, errors.New("box id unknown, fetch stats first")
	}

	log.Ctx(ctx).InfoContext(ctx, "setting oig grid delivery", slog.String("boxID", c.boxID), slog.String("mode", strconv.Itoa(mode)))

	req, err := c.newPostJSONRequest(ctx, cloudGridDeliveryPath, map[string]any{
		"id_device": c.boxID,
		"value":     mode,
	})
	if err != nil {
		return false, err
	}

	var ok bool
	if err := c.doRequest(req, &ok); err != nil {
		return false, fmt.Errorf("set grid delivery failed: %w", err)
	}
	return ok, nil
}
