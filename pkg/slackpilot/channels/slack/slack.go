// Package slack implements the Slack channel for SlackPilot using the Slack
// Web API over plain HTTP — no external dependencies beyond net/http.
//
// Incoming events are discovered by polling conversations.history for the
// conversations the bot is a member of. Only messages the bot should answer
// are forwarded: direct mentions, DMs, and replies in threads whose parent
// message mentions the bot. The forwarded content has the bot mention
// already stripped.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jholhewres/slackpilot/pkg/slackpilot/channels"
)

// Config holds Slack channel configuration.
type Config struct {
	// BotToken is the Slack Bot User OAuth Token (xoxb-...).
	BotToken string `yaml:"bot_token"`

	// AllowedChannels restricts which channel IDs the bot responds in.
	// Empty means respond in all channels.
	AllowedChannels []string `yaml:"allowed_channels"`

	// PollInterval is how often conversations are polled for new messages.
	PollInterval time.Duration `yaml:"poll_interval"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		PollInterval: 2 * time.Second,
	}
}

// Slack implements channels.Channel and channels.Editor.
type Slack struct {
	cfg    Config
	logger *slog.Logger
	client *http.Client

	// botUserID is the bot's own Slack user ID (to ignore own messages).
	botUserID string

	// mentionRe matches "<@BOTID>" plus trailing whitespace.
	mentionRe *regexp.Regexp

	// messages is the channel for incoming messages forwarded to the bot.
	messages chan *channels.IncomingMessage

	connected  atomic.Bool
	lastMsg    atomic.Value // time.Time
	errorCount atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new Slack channel instance.
func New(cfg Config, logger *slog.Logger) *Slack {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultConfig().PollInterval
	}
	return &Slack{
		cfg:      cfg,
		logger:   logger.With("component", "slack"),
		client:   &http.Client{Timeout: 30 * time.Second},
		messages: make(chan *channels.IncomingMessage, 256),
	}
}

// ---------- Channel Interface ----------

// Name returns "slack".
func (s *Slack) Name() string { return "slack" }

// Connect verifies the bot token and starts the polling loop.
func (s *Slack) Connect(ctx context.Context) error {
	if s.cfg.BotToken == "" {
		return fmt.Errorf("slack: bot_token is required")
	}
	if s.connected.Load() {
		return nil
	}

	s.ctx, s.cancel = context.WithCancel(ctx)

	identity, err := s.authTest()
	if err != nil {
		return fmt.Errorf("slack: auth.test failed: %w", err)
	}
	s.botUserID = identity.UserID
	s.mentionRe = mentionPattern(identity.UserID)
	s.logger.Info("slack: connected", "bot", identity.User, "team", identity.Team, "user_id", identity.UserID)
	s.connected.Store(true)

	go s.pollLoop()

	return nil
}

// Disconnect stops the polling loop.
func (s *Slack) Disconnect() error {
	if s.cancel != nil {
		s.cancel()
	}
	s.connected.Store(false)
	s.logger.Info("slack: disconnected")
	return nil
}

// Send posts a text message and returns its timestamp (the Slack message ID).
func (s *Slack) Send(ctx context.Context, to string, message *channels.OutgoingMessage) (string, error) {
	if !s.connected.Load() {
		return "", channels.ErrChannelDisconnected
	}

	payload := map[string]any{
		"channel": to,
		"text":    message.Content,
	}
	if message.ThreadID != "" {
		payload["thread_ts"] = message.ThreadID
	}

	data, err := s.apiCall(ctx, "chat.postMessage", payload)
	if err != nil {
		return "", err
	}

	var result struct {
		TS string `json:"ts"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("slack: parsing chat.postMessage response: %w", err)
	}
	return result.TS, nil
}

// Edit replaces the content of a previously posted message via chat.update.
func (s *Slack) Edit(ctx context.Context, chatID, messageID, content string) error {
	if !s.connected.Load() {
		return channels.ErrChannelDisconnected
	}

	_, err := s.apiCall(ctx, "chat.update", map[string]any{
		"channel": chatID,
		"ts":      messageID,
		"text":    content,
	})
	return err
}

// Receive returns the incoming messages channel.
func (s *Slack) Receive() <-chan *channels.IncomingMessage {
	return s.messages
}

// IsConnected returns true if the bot is connected.
func (s *Slack) IsConnected() bool { return s.connected.Load() }

// Health returns the channel health status.
func (s *Slack) Health() channels.HealthStatus {
	var lastAt time.Time
	if v := s.lastMsg.Load(); v != nil {
		lastAt = v.(time.Time)
	}
	return channels.HealthStatus{
		Connected:     s.connected.Load(),
		LastMessageAt: lastAt,
		ErrorCount:    int(s.errorCount.Load()),
	}
}

// ---------- Polling ----------

// pollLoop polls conversations the bot is in for new messages.
func (s *Slack) pollLoop() {
	// Only messages newer than startup are considered.
	lastTS := fmt.Sprintf("%d.000000", time.Now().Unix())

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			close(s.messages)
			return
		case <-ticker.C:
		}

		convs, err := s.listConversations()
		if err != nil {
			s.errorCount.Add(1)
			s.logger.Warn("slack: list conversations error", "error", err)
			continue
		}

		for _, conv := range convs {
			if !s.channelAllowed(conv.ID) {
				continue
			}

			msgs, err := s.getHistory(conv.ID, lastTS)
			if err != nil {
				continue
			}

			for _, msg := range msgs {
				incoming, ok := s.eligible(conv, msg)
				if !ok {
					continue
				}

				s.lastMsg.Store(time.Now())
				s.errorCount.Store(0)

				select {
				case s.messages <- incoming:
				default:
					s.logger.Warn("slack: message buffer full", "msg_ts", msg.TS)
				}
			}

			// conversations.history returns newest first.
			if len(msgs) > 0 && msgs[0].TS > lastTS {
				lastTS = msgs[0].TS
			}
		}
	}
}

// channelAllowed applies the AllowedChannels filter.
func (s *Slack) channelAllowed(id string) bool {
	if len(s.cfg.AllowedChannels) == 0 {
		return true
	}
	for _, allowed := range s.cfg.AllowedChannels {
		if allowed == id {
			return true
		}
	}
	return false
}

// ---------- Slack API Types ----------

type slackAuthIdentity struct {
	UserID string `json:"user_id"`
	User   string `json:"user"`
	Team   string `json:"team"`
	TeamID string `json:"team_id"`
}

type slackConversation struct {
	ID   string `json:"id"`
	IsIM bool   `json:"is_im"`
}

type slackMessage struct {
	TS       string `json:"ts"`
	User     string `json:"user"`
	BotID    string `json:"bot_id"`
	Text     string `json:"text"`
	ThreadTS string `json:"thread_ts"`
	Subtype  string `json:"subtype"`
}

// ---------- API Helpers ----------

// apiCall makes a POST request to the Slack Web API.
func (s *Slack) apiCall(ctx context.Context, method string, payload map[string]any) (json.RawMessage, error) {
	url := "https://slack.com/api/" + method
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("slack: marshal %s: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("slack: creating request for %s: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+s.cfg.BotToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("slack: %s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	var result struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}

	respBody, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("slack: decoding %s response: %w", method, err)
	}
	if !result.OK {
		return nil, fmt.Errorf("slack: %s: %s", method, result.Error)
	}
	return respBody, nil
}

// authTest verifies the bot token and returns identity info.
func (s *Slack) authTest() (*slackAuthIdentity, error) {
	data, err := s.apiCall(s.ctx, "auth.test", map[string]any{})
	if err != nil {
		return nil, err
	}
	var identity slackAuthIdentity
	if err := json.Unmarshal(data, &identity); err != nil {
		return nil, fmt.Errorf("slack: parsing auth.test: %w", err)
	}
	return &identity, nil
}

// listConversations returns the conversations the bot is a member of.
func (s *Slack) listConversations() ([]slackConversation, error) {
	data, err := s.apiCall(s.ctx, "users.conversations", map[string]any{
		"types": "public_channel,private_channel,mpim,im",
		"limit": 100,
	})
	if err != nil {
		return nil, err
	}

	var result struct {
		Channels []slackConversation `json:"channels"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return result.Channels, nil
}

// getHistory fetches messages newer than the given timestamp, newest first.
func (s *Slack) getHistory(channelID, oldestTS string) ([]slackMessage, error) {
	data, err := s.apiCall(s.ctx, "conversations.history", map[string]any{
		"channel": channelID,
		"oldest":  oldestTS,
		"limit":   20,
	})
	if err != nil {
		return nil, err
	}

	var result struct {
		Messages []slackMessage `json:"messages"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return result.Messages, nil
}

// parentMessage fetches the first message of a thread via conversations.replies.
func (s *Slack) parentMessage(channelID, threadTS string) (*slackMessage, error) {
	data, err := s.apiCall(s.ctx, "conversations.replies", map[string]any{
		"channel": channelID,
		"ts":      threadTS,
		"limit":   1,
	})
	if err != nil {
		return nil, err
	}

	var result struct {
		Messages []slackMessage `json:"messages"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	if len(result.Messages) == 0 {
		return nil, nil
	}
	return &result.Messages[0], nil
}

// ---------- Helpers ----------

// mentionPattern builds the regexp that matches a leading bot mention.
func mentionPattern(botUserID string) *regexp.Regexp {
	return regexp.MustCompile(`<@` + regexp.QuoteMeta(botUserID) + `>\s*`)
}

// parseSlackTS converts a Slack timestamp ("1234567890.123456") to time.Time.
func parseSlackTS(ts string) time.Time {
	parts := strings.SplitN(ts, ".", 2)
	var sec int64
	fmt.Sscanf(parts[0], "%d", &sec)
	return time.Unix(sec, 0)
}

// Compile-time interface verification.
var (
	_ channels.Channel = (*Slack)(nil)
	_ channels.Editor  = (*Slack)(nil)
)
