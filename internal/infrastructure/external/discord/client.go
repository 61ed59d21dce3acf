// Package discord implements the chat platform adapters on top of the
// Discord REST API: posting announcements to the challenge and puzzle
// channels and keeping the penalty marker role in sync with verdicts.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/loser-hub/loser-challenge-hub/internal/domain/notification"
	"github.com/loser-hub/loser-challenge-hub/pkg/circuitbreaker"
	"github.com/loser-hub/loser-challenge-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig holds Discord client configuration.
type ClientConfig struct {
	// Token is the bot token (required).
	Token string

	// BaseURL is the Discord API base URL.
	BaseURL string

	// GuildID is the server the bot operates in (required for role sync).
	GuildID string

	// PenaltyRoleID is the role applied to members who failed the week.
	PenaltyRoleID string

	// ChallengeChannelID receives weekly verdicts, kickoffs and reminders.
	ChallengeChannelID string

	// PuzzleChannelID receives daily penalty notices and cycle podiums.
	PuzzleChannelID string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// Logger for client operations.
	Logger *slog.Logger

	// Debug enables request/response logging.
	Debug bool
}

// DefaultClientConfig returns a config with sensible defaults.
func DefaultClientConfig(token string) ClientConfig {
	return ClientConfig{
		Token:   token,
		BaseURL: "https://discord.com/api/v10",
		Timeout: 30 * time.Second,
		Logger:  slog.Default(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client is a Discord REST API client. It implements both
// notification.Notifier and notification.RoleSync.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	retrier    *retry.Retrier
	breaker    *circuitbreaker.CircuitBreaker
	logger     *slog.Logger
}

// NewClient creates a new Discord client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.Token == "" {
		return nil, errors.New("discord: token is required")
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://discord.com/api/v10"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	logger := config.Logger.With("component", "discord_client")

	breaker := circuitbreaker.DiscordAPIBreaker(func(name string, from, to circuitbreaker.State) {
		logger.Warn("circuit breaker state changed",
			"breaker", name,
			"from", from.String(),
			"to", to.String(),
		)
	})

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		retrier:    retry.DiscordRetrier(),
		breaker:    breaker,
		logger:     logger,
	}, nil
}

// Ping verifies the token by fetching the bot's own user.
func (c *Client) Ping(ctx context.Context) error {
	return c.callAPI(ctx, http.MethodGet, "/users/@me", nil, nil)
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFIER
// ══════════════════════════════════════════════════════════════════════════════

// message is the subset of the Discord message object the client reads back.
type message struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
	Timestamp string `json:"timestamp"`
}

// createMessageRequest is the payload for creating a channel message.
type createMessageRequest struct {
	Content string `json:"content"`
}

// Send posts text to the given channel.
func (c *Client) Send(ctx context.Context, channel notification.ChannelRef, text string) (*notification.DeliveryResult, error) {
	channelID, err := c.channelID(channel)
	if err != nil {
		return nil, err
	}

	var msg message
	path := fmt.Sprintf("/channels/%s/messages", channelID)
	if err := c.callAPI(ctx, http.MethodPost, path, createMessageRequest{Content: text}, &msg); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusTooManyRequests {
			return nil, fmt.Errorf("%w: %v", notification.ErrRateLimited, err)
		}
		return nil, fmt.Errorf("%w: %v", notification.ErrDeliveryFailed, err)
	}

	deliveredAt := time.Now().UTC()
	if ts, parseErr := time.Parse(time.RFC3339, msg.Timestamp); parseErr == nil {
		deliveredAt = ts
	}

	c.logger.Debug("message delivered",
		"channel", string(channel),
		"message_id", msg.ID,
	)

	return &notification.DeliveryResult{
		MessageID:   msg.ID,
		DeliveredAt: deliveredAt,
	}, nil
}

// channelID resolves a logical channel reference to a configured snowflake.
func (c *Client) channelID(channel notification.ChannelRef) (string, error) {
	var id string
	switch channel {
	case notification.ChannelChallenge:
		id = c.config.ChallengeChannelID
	case notification.ChannelPuzzle:
		id = c.config.PuzzleChannelID
	default:
		return "", fmt.Errorf("%w: %q", notification.ErrUnknownChannel, channel)
	}
	if id == "" {
		return "", fmt.Errorf("%w: channel %q is not configured", notification.ErrChannelUnavailable, channel)
	}
	return id, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ROLE SYNC
// ══════════════════════════════════════════════════════════════════════════════

// AddPenaltyMarker assigns the penalty role to a member. Assigning a role
// the member already has returns 204 from the API, so repeats are safe.
func (c *Client) AddPenaltyMarker(ctx context.Context, memberID int64) error {
	path, err := c.memberRolePath(memberID)
	if err != nil {
		return err
	}

	if err := c.callAPI(ctx, http.MethodPut, path, nil, nil); err != nil {
		return fmt.Errorf("add penalty marker for member %d: %w", memberID, err)
	}

	c.logger.Info("penalty marker applied", "member_id", memberID)
	return nil
}

// RemovePenaltyMarker clears the penalty role from a member. Removing a
// role the member does not have returns 204; a member who already left
// the guild reads as an unknown member, which also counts as cleared.
func (c *Client) RemovePenaltyMarker(ctx context.Context, memberID int64) error {
	path, err := c.memberRolePath(memberID)
	if err != nil {
		return err
	}

	if err := c.callAPI(ctx, http.MethodDelete, path, nil, nil); err != nil {
		if isUnknownMember(err) {
			c.logger.Debug("member absent, marker treated as cleared", "member_id", memberID)
			return nil
		}
		return fmt.Errorf("remove penalty marker for member %d: %w", memberID, err)
	}

	c.logger.Info("penalty marker cleared", "member_id", memberID)
	return nil
}

func (c *Client) memberRolePath(memberID int64) (string, error) {
	if c.config.GuildID == "" || c.config.PenaltyRoleID == "" {
		return "", errors.New("discord: guild and penalty role must be configured for role sync")
	}
	return fmt.Sprintf("/guilds/%s/members/%s/roles/%s",
		c.config.GuildID,
		strconv.FormatInt(memberID, 10),
		c.config.PenaltyRoleID,
	), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// API CALLS
// ══════════════════════════════════════════════════════════════════════════════

// callAPI performs an API request through the circuit breaker with retries.
func (c *Client) callAPI(ctx context.Context, method, path string, body, result any) error {
	return c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			err := c.doAPICall(ctx, method, path, body, result)
			if err == nil {
				return nil
			}

			var apiErr *APIError
			if errors.As(err, &apiErr) {
				if apiErr.Status == http.StatusTooManyRequests {
					// Honor the advertised window before the retrier's
					// own backoff kicks in.
					if apiErr.RetryAfter > 0 {
						select {
						case <-ctx.Done():
							return retry.Permanent(err)
						case <-time.After(apiErr.RetryAfter):
						}
					}
					return retry.Retryable(err)
				}
				if apiErr.Status >= 500 {
					return retry.Retryable(err)
				}
				return retry.Permanent(err)
			}

			// Network-level failures are worth another attempt.
			return retry.Retryable(err)
		})
	})
}

// doAPICall performs a single HTTP request against the Discord API.
func (c *Client) doAPICall(ctx context.Context, method, path string, body, result any) error {
	url := c.config.BaseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+c.config.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.config.Debug {
		c.logger.Debug("api request", "method", method, "path", path)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if c.config.Debug {
		c.logger.Debug("api response", "status", resp.StatusCode, "body_len", len(respBody))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseAPIError(resp, respBody)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

// Discord error codes the client handles specially.
const (
	codeUnknownMember = 10007
	codeUnknownRole   = 10011
)

// APIError represents a Discord API error response.
type APIError struct {
	Status     int
	Code       int
	Message    string
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("discord api error %d (code %d): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("discord api error %d", e.Status)
}

// apiErrorBody is the JSON error envelope Discord returns.
type apiErrorBody struct {
	Code       int     `json:"code"`
	Message    string  `json:"message"`
	RetryAfter float64 `json:"retry_after"`
}

func parseAPIError(resp *http.Response, body []byte) *APIError {
	apiErr := &APIError{Status: resp.StatusCode}

	var envelope apiErrorBody
	if err := json.Unmarshal(body, &envelope); err == nil {
		apiErr.Code = envelope.Code
		apiErr.Message = envelope.Message
		if envelope.RetryAfter > 0 {
			apiErr.RetryAfter = time.Duration(envelope.RetryAfter * float64(time.Second))
		}
	}

	// The header takes precedence when the body carries no window.
	if apiErr.RetryAfter == 0 {
		if header := resp.Header.Get("Retry-After"); header != "" {
			if seconds, err := strconv.ParseFloat(strings.TrimSpace(header), 64); err == nil && seconds > 0 {
				apiErr.RetryAfter = time.Duration(seconds * float64(time.Second))
			}
		}
	}

	return apiErr
}

// isUnknownMember checks if the error means the member is not in the guild.
func isUnknownMember(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusNotFound && apiErr.Code == codeUnknownMember
	}
	return false
}
