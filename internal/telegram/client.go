package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultAPIURL is the public Bot API endpoint.
const DefaultAPIURL = "https://api.telegram.org"

const maxResponseBytes = 1 << 20

// Options configures a Client.
type Options struct {
	APIURL      string
	Token       string
	ChatID      string
	Timeout     time.Duration // per request; defaults to 5s
	PollTimeout time.Duration // long-poll window the server may hold getUpdates
	HTTPClient  *http.Client
	Logger      *zap.Logger
}

// Client is a minimal Bot API client bound to one chat.
type Client struct {
	base        string
	token       string
	chatID      string
	timeout     time.Duration
	pollTimeout time.Duration
	http        *http.Client
	logger      *zap.Logger

	cursor Cursor
}

// New creates a Client.
func New(opts Options) *Client {
	if opts.APIURL == "" {
		opts.APIURL = DefaultAPIURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.PollTimeout < 0 {
		opts.PollTimeout = 0
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Client{
		base:        strings.TrimRight(opts.APIURL, "/") + "/bot" + opts.Token + "/",
		token:       opts.Token,
		chatID:      opts.ChatID,
		timeout:     opts.Timeout,
		pollTimeout: opts.PollTimeout.Truncate(time.Second),
		http:        opts.HTTPClient,
		logger:      opts.Logger,
	}
}

// apiResponse is the envelope of every Bot API reply.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

// apiUpdate mirrors the fields of an update the agent uses. Pointers
// distinguish missing fields from zero values.
type apiUpdate struct {
	UpdateID *int64 `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
	} `json:"message"`
}

// Send posts text to the configured chat.
func (c *Client) Send(ctx context.Context, text string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	form := url.Values{}
	form.Set("chat_id", c.chatID)
	form.Set("text", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"sendMessage", strings.NewReader(form.Encode()))
	if err != nil {
		return c.wrap("build sendMessage request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return c.wrap("sendMessage", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return c.wrap("read sendMessage response", err)
	}
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("%w: sendMessage: status %d: %s", ErrNotify, resp.StatusCode, describe(body))
	}

	var envelope apiResponse
	if err := json.Unmarshal(body, &envelope); err == nil && !envelope.OK {
		return fmt.Errorf("%w: sendMessage: %s", ErrNotify, describe(body))
	}

	c.logger.Debug("telegram message sent", zap.String("text", text))
	return nil
}

// Poll long-polls getUpdates from the current cursor and advances the
// cursor past every returned update, recognized or not. A response that
// cannot be parsed or lacks a result array counts as no updates.
func (c *Client) Poll(ctx context.Context) ([]Update, error) {
	ctx, cancel := context.WithTimeout(ctx, c.pollTimeout+c.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("timeout", strconv.Itoa(int(c.pollTimeout/time.Second)))
	if offset, ok := c.cursor.Offset(); ok {
		q.Set("offset", strconv.FormatInt(offset, 10))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"getUpdates?"+q.Encode(), nil)
	if err != nil {
		return nil, c.wrap("build getUpdates request", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.wrap("getUpdates", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, c.wrap("read getUpdates response", err)
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("%w: getUpdates: status %d: %s", ErrNotify, resp.StatusCode, describe(body))
	}

	updates := parseUpdates(body, c.logger)
	c.cursor.Advance(updates)
	return updates, nil
}

// Cursor returns a copy of the current cursor.
func (c *Client) Cursor() Cursor {
	return c.cursor
}

func parseUpdates(body []byte, logger *zap.Logger) []Update {
	var envelope apiResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		logger.Debug("ignoring malformed getUpdates response", zap.Error(err))
		return nil
	}
	if !envelope.OK || len(envelope.Result) == 0 {
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(envelope.Result, &raw); err != nil {
		logger.Debug("ignoring malformed getUpdates result", zap.Error(err))
		return nil
	}

	updates := make([]Update, 0, len(raw))
	for _, elem := range raw {
		u, ok := parseUpdate(elem, logger)
		if ok {
			updates = append(updates, u)
		}
	}
	return updates
}

// parseUpdate decodes one result element. An element whose message does
// not decode still yields a text-less update when its id is readable, so
// the cursor moves past it.
func parseUpdate(elem json.RawMessage, logger *zap.Logger) (Update, bool) {
	var r apiUpdate
	if err := json.Unmarshal(elem, &r); err != nil {
		var idOnly struct {
			UpdateID *int64 `json:"update_id"`
		}
		if json.Unmarshal(elem, &idOnly) != nil || idOnly.UpdateID == nil {
			logger.Debug("skipping unreadable update", zap.Error(err))
			return Update{}, false
		}
		logger.Debug("skipping malformed update", zap.Int64("update_id", *idOnly.UpdateID), zap.Error(err))
		return Update{ID: *idOnly.UpdateID}, true
	}
	if r.UpdateID == nil {
		return Update{}, false
	}
	u := Update{ID: *r.UpdateID}
	if r.Message != nil {
		u.Text = r.Message.Text
	}
	return u, true
}

// wrap marks err as a notify error and strips the bot token from any
// URL the http package embedded in it.
func (c *Client) wrap(op string, err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && c.token != "" {
		urlErr.URL = strings.ReplaceAll(urlErr.URL, c.token, "<token>")
	}
	return fmt.Errorf("%w: %s: %w", ErrNotify, op, err)
}

// describe returns the API error description, or a trimmed body.
func describe(body []byte) string {
	var envelope apiResponse
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Description != "" {
		return envelope.Description
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
