// Package agent talks to the AI backend that owns the evaluation conversations.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/m3rciful/damagebot/core/logger"
	"github.com/m3rciful/damagebot/core/netutil"
)

const (
	opGetAgent       = "get-agent"
	opAnswerQuestion = "answer-question"

	maxReplyBytes = 1 << 20
)

// Options configures a Client.
type Options struct {
	// BaseURL is the backend root, without a trailing slash.
	BaseURL string
	// Timeout bounds each call; zero means no bound beyond the caller's context.
	Timeout time.Duration
	// HTTPClient overrides the default tuned client.
	HTTPClient *http.Client
}

// Client issues the two backend calls the bot needs.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
}

// New builds a Client.
func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Transport: netutil.NewTransport(netutil.TransportOptions{})}
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		timeout: opts.Timeout,
		http:    hc,
	}
}

type getAgentRequest struct {
	UserID int64 `json:"user_id"`
}

type answerRequest struct {
	UserID      int64  `json:"user_id"`
	UserMessage string `json:"user_message"`
	Config      Config `json:"config"`
}

// reply is the envelope every backend endpoint answers with.
type reply struct {
	Status  string          `json:"status"`
	Message json.RawMessage `json:"message"`
}

// GetAgent asks the backend for the conversation token of userID.
func (c *Client) GetAgent(ctx context.Context, userID int64) (Config, error) {
	msg, err := c.post(ctx, opGetAgent, userID, getAgentRequest{UserID: userID})
	if err != nil {
		return nil, err
	}
	cfg := Config(msg)
	if cfg.Empty() {
		return nil, &RemoteError{Op: opGetAgent, Status: http.StatusOK, Err: fmt.Errorf("%w: empty agent config", errProtocol)}
	}
	return cfg, nil
}

// SendMessage submits text on behalf of userID with the stored token and
// returns the backend's answer.
func (c *Client) SendMessage(ctx context.Context, userID int64, text string, cfg Config) (string, error) {
	msg, err := c.post(ctx, opAnswerQuestion, userID, answerRequest{
		UserID:      userID,
		UserMessage: text,
		Config:      cfg,
	})
	if err != nil {
		return "", err
	}
	var answer string
	if err := json.Unmarshal(msg, &answer); err != nil {
		return "", &RemoteError{Op: opAnswerQuestion, Status: http.StatusOK, Err: fmt.Errorf("%w: message is not text: %v", errProtocol, err)}
	}
	return answer, nil
}

func (c *Client) post(ctx context.Context, op string, userID int64, payload any) (json.RawMessage, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	status, msg, err := c.do(ctx, op, payload)
	attrs := []slog.Attr{
		slog.String("op", op),
		slog.Int64("user_id", userID),
		slog.Duration("duration", logger.Took(start)),
	}
	if status != 0 {
		attrs = append(attrs, slog.Int("http_code", status))
	}
	if err != nil {
		re := &RemoteError{Op: op, Status: status, Err: err}
		attrs = append(attrs,
			slog.String("status", "fail"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", re.Code()),
		)
		logger.LogEvent(ctx, logger.Agent, slog.LevelWarn, "agent.call", attrs...)
		return nil, re
	}
	attrs = append(attrs, slog.String("status", "ok"))
	logger.LogEvent(ctx, logger.Agent, slog.LevelDebug, "agent.call", attrs...)
	return msg, nil
}

// do performs one round trip and returns the HTTP status (zero when no
// response arrived) along with the reply's message field.
func (c *Client) do(ctx context.Context, op string, payload any) (int, json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+op, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read reply: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, nil, fmt.Errorf("unexpected status %s: %s", resp.Status, logger.SanitizeLimit(string(raw), 200))
	}

	var r reply
	if err := json.Unmarshal(raw, &r); err != nil {
		return resp.StatusCode, nil, fmt.Errorf("%w: decode reply: %v", errProtocol, err)
	}
	if strings.EqualFold(r.Status, "error") {
		var reason string
		_ = json.Unmarshal(r.Message, &reason)
		return resp.StatusCode, nil, fmt.Errorf("%w: %s", errRejected, reason)
	}
	if len(r.Message) == 0 {
		return resp.StatusCode, nil, fmt.Errorf("%w: missing message field", errProtocol)
	}
	return resp.StatusCode, r.Message, nil
}

// AsRemote unwraps err into a *RemoteError.
func AsRemote(err error) (*RemoteError, bool) {
	var re *RemoteError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
