package slack

import (
	"log/slog"
	"os"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// testChannel builds a Slack instance wired for offline tests.
func testChannel(cfg Config) *Slack {
	s := New(cfg, testLogger())
	s.botUserID = "UBOT"
	s.mentionRe = mentionPattern("UBOT")
	return s
}

func TestNew(t *testing.T) {
	t.Run("creates instance with defaults", func(t *testing.T) {
		s := New(DefaultConfig(), testLogger())
		if s == nil {
			t.Fatal("expected non-nil Slack instance")
		}
		if s.Name() != "slack" {
			t.Errorf("expected name 'slack', got %s", s.Name())
		}
		if s.IsConnected() {
			t.Error("expected disconnected initial state")
		}
	})

	t.Run("applies poll interval default", func(t *testing.T) {
		s := New(Config{BotToken: "xoxb-x"}, testLogger())
		if s.cfg.PollInterval != 2*time.Second {
			t.Errorf("expected default poll interval 2s, got %v", s.cfg.PollInterval)
		}
	})

	t.Run("uses default logger if nil", func(t *testing.T) {
		s := New(DefaultConfig(), nil)
		if s.logger == nil {
			t.Error("expected logger to be set")
		}
	})
}

func TestEligible(t *testing.T) {
	channel := slackConversation{ID: "C1"}
	dm := slackConversation{ID: "D1", IsIM: true}

	t.Run("answers direct mentions with the mention stripped", func(t *testing.T) {
		s := testChannel(DefaultConfig())
		msg := slackMessage{TS: "1700000000.000100", User: "U2", Text: "<@UBOT> what is the refund policy?"}

		incoming, ok := s.eligible(channel, msg)
		if !ok {
			t.Fatal("mention should be eligible")
		}
		if incoming.Content != "what is the refund policy?" {
			t.Errorf("mention not stripped: %q", incoming.Content)
		}
		if incoming.ThreadID != msg.TS {
			t.Errorf("reply thread should be the message itself, got %q", incoming.ThreadID)
		}
	})

	t.Run("answers every message in a DM", func(t *testing.T) {
		s := testChannel(DefaultConfig())
		msg := slackMessage{TS: "1700000000.000200", User: "U2", Text: "hello there"}

		incoming, ok := s.eligible(dm, msg)
		if !ok {
			t.Fatal("DM should be eligible")
		}
		if !incoming.IsDirect {
			t.Error("expected IsDirect for DM")
		}
	})

	t.Run("ignores the bot's own messages", func(t *testing.T) {
		s := testChannel(DefaultConfig())
		msg := slackMessage{TS: "1", User: "UBOT", Text: "<@UBOT> echo"}

		if _, ok := s.eligible(dm, msg); ok {
			t.Error("own messages must be ignored")
		}
	})

	t.Run("ignores other bots", func(t *testing.T) {
		s := testChannel(DefaultConfig())
		msg := slackMessage{TS: "1", User: "U9", BotID: "B42", Text: "<@UBOT> hi"}

		if _, ok := s.eligible(channel, msg); ok {
			t.Error("bot messages must be ignored")
		}
	})

	t.Run("skips edited and deleted message events", func(t *testing.T) {
		s := testChannel(DefaultConfig())
		for _, subtype := range []string{"message_changed", "message_deleted"} {
			msg := slackMessage{TS: "1", User: "U2", Text: "<@UBOT> hi", Subtype: subtype}
			if _, ok := s.eligible(dm, msg); ok {
				t.Errorf("subtype %s must be skipped", subtype)
			}
		}
	})

	t.Run("ignores plain channel chatter", func(t *testing.T) {
		s := testChannel(DefaultConfig())
		msg := slackMessage{TS: "1", User: "U2", Text: "nothing to do with the bot"}

		if _, ok := s.eligible(channel, msg); ok {
			t.Error("unaddressed channel message must be ignored")
		}
	})

	t.Run("keeps the existing thread for replies", func(t *testing.T) {
		s := testChannel(DefaultConfig())
		msg := slackMessage{TS: "1700000001.000300", ThreadTS: "1700000000.000100", User: "U2", Text: "<@UBOT> and in the EU?"}

		incoming, ok := s.eligible(channel, msg)
		if !ok {
			t.Fatal("mention in thread should be eligible")
		}
		if incoming.ThreadID != "1700000000.000100" {
			t.Errorf("expected reply into the existing thread, got %q", incoming.ThreadID)
		}
	})
}

func TestChannelAllowed(t *testing.T) {
	t.Run("empty filter allows everything", func(t *testing.T) {
		s := testChannel(DefaultConfig())
		if !s.channelAllowed("C-whatever") {
			t.Error("expected allowed")
		}
	})

	t.Run("filter restricts to listed channels", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.AllowedChannels = []string{"C1", "C2"}
		s := testChannel(cfg)

		if !s.channelAllowed("C1") {
			t.Error("C1 should be allowed")
		}
		if s.channelAllowed("C3") {
			t.Error("C3 should be filtered out")
		}
	})
}

func TestHelpers(t *testing.T) {
	t.Run("parseSlackTS", func(t *testing.T) {
		got := parseSlackTS("1700000000.123456")
		if got.Unix() != 1700000000 {
			t.Errorf("expected unix 1700000000, got %d", got.Unix())
		}
	})

	t.Run("mentionPattern quotes the user ID", func(t *testing.T) {
		re := mentionPattern("U.B+T")
		if !re.MatchString("<@U.B+T> hi") {
			t.Error("literal ID should match")
		}
		if re.MatchString("<@UXBQT> hi") {
			t.Error("metacharacters must not be interpreted")
		}
	})
}
