package insta

import (
	"InstaFlow/internal/lib/sl"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const defaultPrivateURL = "https://i.instagram.com"

// APIError is a non-ok answer from the private API.
type APIError struct {
	StatusCode int
	Path       string
	Status     string `json:"status"`
	Message    string `json:"message"`
	ErrorType  string `json:"error_type"`
}

func (e *APIError) Error() string {
	if e.ErrorType != "" {
		return fmt.Sprintf("instagram: %s %d %s: %s", e.Path, e.StatusCode, e.ErrorType, e.Message)
	}
	return fmt.Sprintf("instagram: %s %d: %s", e.Path, e.StatusCode, e.Message)
}

// PrivateClient talks to the mobile app API with a simulated device.
type PrivateClient struct {
	baseURL  string
	username string
	password string
	device   Device
	http     *http.Client
	log      *slog.Logger

	mu            sync.RWMutex
	authorization string
	mid           string
	userID        string
}

func NewPrivateClient(baseURL, username, password string, logger *slog.Logger) (*PrivateClient, error) {
	if baseURL == "" {
		baseURL = defaultPrivateURL
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("instagram: cookie jar: %w", err)
	}

	return &PrivateClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		device:   NewDevice(username),
		http:     &http.Client{Jar: jar},
		log:      logger.With(sl.Module("instagram.private")),
	}, nil
}

func (c *PrivateClient) Device() Device {
	return c.device
}

func (c *PrivateClient) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

// Authenticate runs the pre-login simulation, the credential login and the
// post-login simulation, in that order. The first failing step aborts.
func (c *PrivateClient) Authenticate(ctx context.Context) error {
	if c.username == "" || c.password == "" {
		return errors.New("instagram: username and password must not be empty")
	}
	if err := c.PreLoginFlow(ctx); err != nil {
		return fmt.Errorf("pre-login flow: %w", err)
	}
	if err := c.Login(ctx); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if err := c.PostLoginFlow(ctx); err != nil {
		return fmt.Errorf("post-login flow: %w", err)
	}
	return nil
}

func (c *PrivateClient) PreLoginFlow(ctx context.Context) error {
	steps := []struct {
		path string
		data map[string]string
	}{
		{"/api/v1/launcher/sync/", map[string]string{
			"id":                      c.device.UUID,
			"server_config_retrieval": "1",
		}},
		{"/api/v1/qe/sync/", map[string]string{
			"id":                      c.device.UUID,
			"server_config_retrieval": "1",
		}},
		{"/api/v1/accounts/contact_point_prefill/", map[string]string{
			"phone_id": c.device.PhoneID,
			"usage":    "prefill",
		}},
	}
	for _, step := range steps {
		if err := c.postSigned(ctx, step.path, step.data, nil); err != nil {
			return err
		}
	}
	c.log.Debug("pre-login flow done")
	return nil
}

type loginResponse struct {
	LoggedInUser struct {
		Pk       json.Number `json:"pk"`
		Username string      `json:"username"`
	} `json:"logged_in_user"`
	Status string `json:"status"`
}

func (c *PrivateClient) Login(ctx context.Context) error {
	data := map[string]string{
		"username":            c.username,
		"enc_password":        fmt.Sprintf("#PWD_INSTAGRAM:0:%d:%s", time.Now().Unix(), c.password),
		"guid":                c.device.UUID,
		"phone_id":            c.device.PhoneID,
		"device_id":           c.device.DeviceID,
		"adid":                c.device.AdID,
		"google_tokens":       "[]",
		"login_attempt_count": "0",
		"country_codes":       `[{"country_code":"1","source":["default"]}]`,
		"jazoest":             jazoest(c.device.PhoneID),
	}
	if token := c.csrfToken(); token != "" {
		data["_csrftoken"] = token
	}

	var resp loginResponse
	if err := c.postSigned(ctx, "/api/v1/accounts/login/", data, &resp); err != nil {
		return err
	}
	if resp.LoggedInUser.Pk.String() == "" {
		return errors.New("instagram: login response has no user")
	}

	c.mu.Lock()
	c.userID = resp.LoggedInUser.Pk.String()
	c.mu.Unlock()

	c.log.With(
		slog.String("user_id", resp.LoggedInUser.Pk.String()),
		slog.String("username", resp.LoggedInUser.Username),
	).Info("logged in")
	return nil
}

func (c *PrivateClient) PostLoginFlow(ctx context.Context) error {
	userID := c.UserID()

	if err := c.postSigned(ctx, "/api/v1/launcher/sync/", map[string]string{
		"id":                      userID,
		"_uid":                    userID,
		"_uuid":                   c.device.UUID,
		"server_config_retrieval": "1",
	}, nil); err != nil {
		return err
	}

	if err := c.postForm(ctx, "/api/v1/feed/timeline/", url.Values{
		"_uuid":              {c.device.UUID},
		"device_id":          {c.device.UUID},
		"reason":             {"cold_start_fetch"},
		"is_pull_to_refresh": {"0"},
		"is_prefetch":        {"0"},
	}, nil); err != nil {
		return err
	}

	query := url.Values{
		"visual_message_return_type": {"unseen"},
		"persistentBadging":          {"true"},
		"limit":                      {"0"},
	}
	if err := c.get(ctx, "/api/v1/direct_v2/inbox/", query, nil); err != nil {
		return err
	}

	c.log.Debug("post-login flow done")
	return nil
}

type broadcastResponse struct {
	Status  string `json:"status"`
	Payload struct {
		ThreadID string `json:"thread_id"`
		ItemID   string `json:"item_id"`
	} `json:"payload"`
}

// BroadcastText sends text to the direct thread whose participants are
// exactly recipientIDs, creating the thread if it does not exist.
func (c *PrivateClient) BroadcastText(ctx context.Context, recipientIDs []string, text string) error {
	if len(recipientIDs) == 0 {
		return errors.New("instagram: no recipients")
	}
	recipients, err := json.Marshal([][]string{recipientIDs})
	if err != nil {
		return fmt.Errorf("instagram: marshal recipients: %w", err)
	}

	mutation := uuid.NewString()
	form := url.Values{
		"recipient_users":      {string(recipients)},
		"action":               {"send_item"},
		"is_shh_mode":          {"0"},
		"send_attribution":     {"inbox"},
		"client_context":       {mutation},
		"mutation_token":       {mutation},
		"offline_threading_id": {mutation},
		"text":                 {text},
		"device_id":            {c.device.DeviceID},
		"_uuid":                {c.device.UUID},
	}
	if token := c.csrfToken(); token != "" {
		form.Set("_csrftoken", token)
	}

	var resp broadcastResponse
	if err = c.postForm(ctx, "/api/v1/direct_v2/threads/broadcast/text/", form, &resp); err != nil {
		return err
	}

	c.log.With(
		slog.Any("recipients", recipientIDs),
		slog.String("thread_id", resp.Payload.ThreadID),
	).Debug("text broadcast")
	return nil
}

func (c *PrivateClient) postSigned(ctx context.Context, path string, data map[string]string, out any) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("instagram: marshal %s: %w", path, err)
	}
	return c.postForm(ctx, path, url.Values{"signed_body": {"SIGNATURE." + string(body)}}, out)
}

func (c *PrivateClient) postForm(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("instagram: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	return c.do(req, path, out)
}

func (c *PrivateClient) get(ctx context.Context, path string, query url.Values, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("instagram: create request: %w", err)
	}
	return c.do(req, path, out)
}

func (c *PrivateClient) do(req *http.Request, path string, out any) error {
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("instagram: %s: %w", path, err)
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	c.captureHeaders(resp.Header)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("instagram: read %s: %w", path, err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode, Path: path}
		if json.Unmarshal(body, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(body))
		}
		return apiErr
	}

	var status struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err = json.Unmarshal(body, &status); err != nil {
		return fmt.Errorf("instagram: decode %s: %w", path, err)
	}
	if status.Status == "fail" {
		return &APIError{StatusCode: resp.StatusCode, Path: path, Status: status.Status, Message: status.Message}
	}

	if out != nil {
		if err = json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("instagram: decode %s: %w", path, err)
		}
	}
	return nil
}

func (c *PrivateClient) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.device.UserAgent())
	req.Header.Set("X-IG-App-ID", appID)
	req.Header.Set("X-IG-App-Locale", appLocale)
	req.Header.Set("X-IG-Device-Locale", appLocale)
	req.Header.Set("X-IG-Capabilities", capabilities)
	req.Header.Set("X-IG-Connection-Type", "WIFI")
	req.Header.Set("X-IG-Device-ID", c.device.UUID)
	req.Header.Set("X-IG-Android-ID", c.device.DeviceID)
	req.Header.Set("Accept-Language", "en-US")

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.authorization != "" {
		req.Header.Set("Authorization", c.authorization)
	}
	if c.mid != "" {
		req.Header.Set("X-MID", c.mid)
	}
}

func (c *PrivateClient) captureHeaders(h http.Header) {
	auth := h.Get("ig-set-authorization")
	mid := h.Get("ig-set-x-mid")
	if auth == "" && mid == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if auth != "" && !strings.HasSuffix(auth, ":") {
		c.authorization = auth
	}
	if mid != "" {
		c.mid = mid
	}
}

func (c *PrivateClient) csrfToken() string {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return ""
	}
	for _, cookie := range c.http.Jar.Cookies(u) {
		if cookie.Name == "csrftoken" {
			return cookie.Value
		}
	}
	return ""
}

func jazoest(phoneID string) string {
	sum := 0
	for _, r := range phoneID {
		sum += int(r)
	}
	return "2" + strconv.Itoa(sum)
}
