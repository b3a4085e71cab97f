package insta

import (
	"InstaFlow/internal/lib/sl"
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

const defaultGraphURL = "https://graph.instagram.com/v24.0"

// GraphClient sends messages through the Instagram Graph API with a page
// access token instead of a simulated device login.
type GraphClient struct {
	baseURL     string
	accessToken string
	http        *http.Client
	log         *slog.Logger
}

// SendMessageRequest represents the request body for sending a message
type SendMessageRequest struct {
	Recipient struct {
		ID string `json:"id"`
	} `json:"recipient"`
	Message struct {
		Text string `json:"text"`
	} `json:"message"`
}

func NewGraphClient(baseURL, accessToken string, logger *slog.Logger) (*GraphClient, error) {
	if baseURL == "" {
		baseURL = defaultGraphURL
	}
	return &GraphClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
		http:        &http.Client{},
		log:         logger.With(sl.Module("instagram.graph")),
	}, nil
}

// Authenticate checks that the access token is accepted.
func (g *GraphClient) Authenticate(ctx context.Context) error {
	if g.accessToken == "" {
		return errors.New("instagram: access token must not be empty")
	}
	query := url.Values{
		"fields": {"user_id,username"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/me?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	var me struct {
		UserID   string `json:"user_id"`
		Username string `json:"username"`
	}
	if err = g.do(req, &me); err != nil {
		return err
	}

	g.log.With(
		slog.String("user_id", me.UserID),
		slog.String("username", me.Username),
	).Info("access token accepted")
	return nil
}

// BroadcastText sends text to one recipient; the Graph API has no group threads.
func (g *GraphClient) BroadcastText(ctx context.Context, recipientIDs []string, text string) error {
	if len(recipientIDs) != 1 {
		return fmt.Errorf("instagram: graph api sends to exactly one recipient, got %d", len(recipientIDs))
	}
	return g.SendMessage(ctx, recipientIDs[0], text)
}

// SendMessage sends a text message to the specified recipient
func (g *GraphClient) SendMessage(ctx context.Context, recipientID, text string) error {
	reqBody := SendMessageRequest{}
	reqBody.Recipient.ID = recipientID
	reqBody.Message.Text = text

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/me/messages", bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if err = g.do(req, nil); err != nil {
		return err
	}

	g.log.Info("message sent successfully", slog.String("recipient_id", recipientID))
	return nil
}

// do attaches the token as a bearer header. Transport errors are reported
// without the request URL.
func (g *GraphClient) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+g.accessToken)

	resp, err := g.http.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("failed to send request: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}
	if out != nil {
		if err = json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// VerifySignature checks an X-Hub-Signature-256 header value against body.
func VerifySignature(appSecret string, body []byte, signature string) bool {
	// Signature format: "sha256=<hex_signature>"
	expectedSig, ok := strings.CutPrefix(signature, "sha256=")
	if !ok || expectedSig == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	actualSig := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expectedSig), []byte(actualSig))
}
