// events.go decides which polled Slack messages the bot should answer and
// normalizes them into channels.IncomingMessage values.
package slack

import (
	"strings"

	"github.com/jholhewres/slackpilot/pkg/slackpilot/channels"
)

// skippedSubtypes lists message subtypes that never trigger a response.
var skippedSubtypes = map[string]bool{
	"message_changed": true,
	"message_deleted": true,
}

// eligible reports whether a polled message should be answered and, if so,
// returns the normalized incoming message with the bot mention stripped.
//
// The bot answers:
//   - messages that mention it directly,
//   - any message in a DM with the bot,
//   - replies in threads whose parent message mentions the bot.
func (s *Slack) eligible(conv slackConversation, msg slackMessage) (*channels.IncomingMessage, bool) {
	// Never answer the bot's own messages or other bots.
	if msg.User == s.botUserID || msg.BotID != "" {
		return nil, false
	}
	if skippedSubtypes[msg.Subtype] {
		return nil, false
	}

	mentioned := s.mentionRe.MatchString(msg.Text)

	switch {
	case mentioned:
		// Direct mention, in-channel or in-thread.
	case conv.IsIM:
		// Every message in a DM is for the bot.
	case msg.ThreadTS != "" && msg.ThreadTS != msg.TS:
		// Thread follow-up: answer only when the thread belongs to the bot.
		if !s.threadBelongsToBot(conv.ID, msg.ThreadTS) {
			return nil, false
		}
	default:
		return nil, false
	}

	return &channels.IncomingMessage{
		ID:        msg.TS,
		Channel:   "slack",
		From:      msg.User,
		ChatID:    conv.ID,
		ThreadID:  threadFor(msg),
		IsDirect:  conv.IsIM,
		Content:   s.stripMention(msg.Text),
		Timestamp: parseSlackTS(msg.TS),
		Metadata: map[string]any{
			"thread_ts": msg.ThreadTS,
		},
	}, true
}

// threadBelongsToBot checks whether the parent message of a thread mentions
// the bot. Lookup failures are logged and treated as "not ours".
func (s *Slack) threadBelongsToBot(channelID, threadTS string) bool {
	parent, err := s.parentMessage(channelID, threadTS)
	if err != nil {
		s.logger.Warn("slack: parent message lookup failed",
			"channel", channelID,
			"thread_ts", threadTS,
			"error", err,
		)
		return false
	}
	if parent == nil {
		return false
	}
	return s.mentionRe.MatchString(parent.Text)
}

// stripMention removes the bot mention from the message text.
func (s *Slack) stripMention(text string) string {
	return strings.TrimSpace(s.mentionRe.ReplaceAllString(text, ""))
}

// threadFor returns the thread timestamp replies should go to: the existing
// thread if the message is already in one, otherwise the message itself.
func threadFor(msg slackMessage) string {
	if msg.ThreadTS != "" {
		return msg.ThreadTS
	}
	return msg.TS
}
