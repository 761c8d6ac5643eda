// Package chatclient is a Go client for the messaging API. It keeps an
// optimistic outbox of sends and offers a polling loop for the unread badge.
package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/apperror"
	"github.com/google/uuid"
)

type Message struct {
	ID         uuid.UUID `json:"id"`
	SenderID   uuid.UUID `json:"sender_id"`
	ReceiverID uuid.UUID `json:"receiver_id"`
	Content    string    `json:"content"`
	Read       bool      `json:"read"`
	ClientID   *string   `json:"client_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type ConversationSummary struct {
	User          User      `json:"user"`
	LastMessage   string    `json:"last_message"`
	LastMessageAt time.Time `json:"last_message_at"`
	LastSenderID  uuid.UUID `json:"last_sender_id"`
	UnreadCount   int64     `json:"unread_count"`
}

// APIError is a non-2xx response. It unwraps to the matching apperror
// sentinel so callers can use errors.Is.
type APIError struct {
	StatusCode int
	Message    string
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("chatclient: %d %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusBadRequest:
		return apperror.ErrInvalidInput
	case http.StatusUnauthorized:
		return apperror.ErrUnauthorized
	case http.StatusForbidden:
		return apperror.ErrForbidden
	case http.StatusNotFound:
		return apperror.ErrNotFound
	case http.StatusUnprocessableEntity:
		return apperror.ErrInvalidMessage
	case http.StatusTooManyRequests:
		return apperror.ErrRateLimitExceeded
	case http.StatusServiceUnavailable:
		return apperror.ErrStorageUnavailable
	default:
		return apperror.ErrInternal
	}
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	outbox     *Outbox
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithOutbox(o *Outbox) Option {
	return func(c *Client) { c.outbox = o }
}

// New builds a client for the API rooted at baseURL (e.g. https://host/api)
// authenticating with a bearer token.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		outbox:     NewOutbox(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Outbox() *Outbox {
	return c.outbox
}

// SendMessage records the message as pending, posts it, and settles the
// outbox entry with the stored message or the error.
func (c *Client) SendMessage(ctx context.Context, receiverID uuid.UUID, content string) (*Message, error) {
	clientID := c.outbox.Add(receiverID, content)

	body := map[string]interface{}{
		"receiver_id": receiverID,
		"content":     content,
		"client_id":   clientID,
	}

	var msg Message
	if err := c.do(ctx, http.MethodPost, "/messages", body, &msg); err != nil {
		_ = c.outbox.Fail(clientID, err)
		return nil, err
	}

	_ = c.outbox.Confirm(clientID, &msg)
	return &msg, nil
}

// Conversation fetches the thread with otherID. The server marks the
// caller's unread messages in it as read.
func (c *Client) Conversation(ctx context.Context, otherID uuid.UUID) ([]Message, error) {
	var msgs []Message
	if err := c.do(ctx, http.MethodGet, "/messages/"+otherID.String(), nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (c *Client) UnreadCount(ctx context.Context) (int64, error) {
	var out struct {
		Count int64 `json:"count"`
	}
	if err := c.do(ctx, http.MethodGet, "/messages/unread-count", nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// Conversations lists the admin inbox.
func (c *Client) Conversations(ctx context.Context) ([]ConversationSummary, error) {
	var out []ConversationSummary
	if err := c.do(ctx, http.MethodGet, "/admin/conversations", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteConversation(ctx context.Context, otherID uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/messages/"+otherID.String(), nil, nil)
}

// DefaultPollInterval is used by PollUnread when interval is not positive.
const DefaultPollInterval = 10 * time.Second

// PollUnread calls fn with the unread count immediately and then every
// interval until ctx is cancelled.
func (c *Client) PollUnread(ctx context.Context, interval time.Duration, fn func(count int64, err error)) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		count, err := c.UnreadCount(ctx)
		if ctx.Err() != nil {
			return
		}
		fn(count, err)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
		apiErr.Message = payload.Error
	}

	if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
		apiErr.RetryAfter = time.Duration(secs) * time.Second
	}
	return apiErr
}
