// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

// Package mail delivers transactional email through the Resend HTTP API.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/inkwell/inkwell/internal/auth"
)

// DefaultBaseURL is the Resend API root.
const DefaultBaseURL = "https://api.resend.com"

var _ auth.MagicLinkSender = (*Client)(nil)

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Client sends email through Resend.
type Client struct {
	apiKey      string
	from        string
	frontendURL string
	baseURL     string
	httpClient  *http.Client
	maxRetries  uint64
	baseDelay   time.Duration
	logger      *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithBaseURL points the client at a different API root.
func WithBaseURL(u string) Option {
	return func(cl *Client) {
		if u != "" {
			cl.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithRetry sets how many times a transient failure is retried and the
// first backoff interval.
func WithRetry(maxRetries uint64, baseDelay time.Duration) Option {
	return func(cl *Client) {
		cl.maxRetries = maxRetries
		cl.baseDelay = baseDelay
	}
}

// WithLogger sets the logger used for retry warnings.
func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) {
		cl.logger = l
	}
}

// NewClient creates a Resend client. frontendURL is the public site root
// used to build links in message bodies.
func NewClient(apiKey, from, frontendURL string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, oops.Code("MAIL_NOT_CONFIGURED").Errorf("resend API key is required")
	}
	if from == "" {
		return nil, oops.Code("MAIL_NOT_CONFIGURED").Errorf("sender address is required")
	}
	c := &Client{
		apiKey:      apiKey,
		from:        from,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		baseURL:     DefaultBaseURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		maxRetries:  3,
		baseDelay:   200 * time.Millisecond,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type sendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text,omitempty"`
}

type sendResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
	Name    string `json:"name"`
}

// Send delivers msg and returns the provider's message id. Network errors,
// 429 and 5xx responses are retried with exponential backoff; other 4xx
// responses fail immediately.
func (c *Client) Send(ctx context.Context, msg Message) (string, error) {
	body, err := json.Marshal(sendRequest{
		From:    c.from,
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return "", oops.Code("MAIL_ENCODE_FAILED").Wrap(err)
	}

	backoff := retry.WithMaxRetries(c.maxRetries, retry.WithCappedDuration(2*time.Second, retry.NewExponential(c.baseDelay)))

	var id string
	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		var sendErr error
		id, sendErr = c.post(ctx, body)
		if sendErr != nil && isTransient(sendErr) {
			c.logger.WarnContext(ctx, "email send failed, retrying", "attempt", attempt, "error", sendErr)
			return retry.RetryableError(sendErr)
		}
		return sendErr
	})
	if err != nil {
		return "", oops.Code(codeOf(err)).
			With("subject", msg.Subject).
			With("attempts", attempt).
			Wrap(err)
	}
	return id, nil
}

// statusError is a non-2xx reply from the API.
type statusError struct {
	status  int
	message string
}

func (e *statusError) Error() string {
	if e.message == "" {
		return "resend API error: " + http.StatusText(e.status)
	}
	return "resend API error: " + e.message
}

func isTransient(err error) bool {
	var se *statusError
	if !errors.As(err, &se) {
		return true
	}
	return se.status == http.StatusTooManyRequests || se.status >= 500
}

func codeOf(err error) string {
	var se *statusError
	if errors.As(err, &se) && !isTransient(se) {
		return "MAIL_REJECTED"
	}
	return "MAIL_SEND_FAILED"
}

func (c *Client) post(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", err
	}
	var out sendResponse
	_ = json.Unmarshal(raw, &out)

	if resp.StatusCode >= 300 {
		return "", &statusError{status: resp.StatusCode, message: out.Message}
	}
	return out.ID, nil
}

// SendMagicLink emails a sign-in link. returnURL is carried through the
// link so the frontend can redirect after verification.
func (c *Client) SendMagicLink(ctx context.Context, email, token, returnURL string) error {
	link := VerifyURL(c.frontendURL, token, returnURL)
	htmlBody, textBody, err := render("magic_link", view{
		Title:         "Sign in to Newsletter",
		URL:           link,
		Label:         "Sign In",
		ExpiryMinutes: int(auth.MagicLinkExpiry / time.Minute),
	})
	if err != nil {
		return err
	}
	_, err = c.Send(ctx, Message{To: email, Subject: "Sign in to Newsletter", HTML: htmlBody, Text: textBody})
	return err
}

// SendConfirmation emails the double opt-in link for a new subscription.
func (c *Client) SendConfirmation(ctx context.Context, email, token, name string) error {
	greeting := "Hi there"
	if name != "" {
		greeting = "Hi " + name
	}
	htmlBody, textBody, err := render("confirmation", view{
		Title:    "Confirm your subscription",
		URL:      c.frontendURL + "/confirm/" + url.PathEscape(token),
		Label:    "Confirm Subscription",
		Greeting: greeting,
	})
	if err != nil {
		return err
	}
	_, err = c.Send(ctx, Message{To: email, Subject: "Confirm your newsletter subscription", HTML: htmlBody, Text: textBody})
	return err
}

// SendUnsubscribeNotice confirms that email will receive nothing further.
func (c *Client) SendUnsubscribeNotice(ctx context.Context, email string) error {
	htmlBody, textBody, err := render("unsubscribed", view{
		Title: "Unsubscribed from Newsletter",
		URL:   c.frontendURL,
	})
	if err != nil {
		return err
	}
	_, err = c.Send(ctx, Message{To: email, Subject: "You have been unsubscribed", HTML: htmlBody, Text: textBody})
	return err
}

// VerifyURL builds the frontend verification link for a login token.
func VerifyURL(frontendURL, token, returnURL string) string {
	u := strings.TrimRight(frontendURL, "/") + "/auth/verify?token=" + url.QueryEscape(token)
	if returnURL != "" {
		u += "&returnUrl=" + url.QueryEscape(returnURL)
	}
	return u
}
