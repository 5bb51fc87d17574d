// Package bot – loading.go holds the user-facing copy: placeholder loading
// messages, the timeout notice, and the message length budget.
package bot

import (
	"fmt"
	"math/rand"
	"sync"
)

// loadingMessages are shown in the placeholder while an answer is generated.
var loadingMessages = []string{
	":hourglass_flowing_sand: Wait a second, please...",
	":brain: Thinking deep thoughts...",
	":rocket: Launching intelligence engines...",
	":bulb: Having a bright idea...",
	":robot_face: Activating neural networks...",
	":crystal_ball: Gazing into the future...",
	":sparkles: Sprinkling some AI magic...",
	":gear: Cranking the idea machine...",
	":coffee: Brewing up a response...",
	":detective: Investigating the perfect answer...",
}

// maxMessageLength is the Slack message size budget.
const maxMessageLength = 3000

// loadingPicker selects a placeholder message from an injected pseudo-random
// source, so variety is testable and never depends on global state.
type loadingPicker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func newLoadingPicker(rng *rand.Rand) *loadingPicker {
	return &loadingPicker{rng: rng}
}

func (p *loadingPicker) pick() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return loadingMessages[p.rng.Intn(len(loadingMessages))]
}

// timeoutNotice is the user-facing message for a run that missed its deadline.
func timeoutNotice(seconds int) string {
	return fmt.Sprintf(":warning: Apologies! It seems that OpenAI didn't respond "+
		"within the %d-second timeframe. Please try your request again later. "+
		"If you wish to extend the timeout limit, you may consider deploying this "+
		"app with customized settings on your infrastructure. :bow:", seconds)
}

// truncateMessage cuts text to the Slack message budget, rune-safe.
func truncateMessage(text string) string {
	runes := []rune(text)
	if len(runes) <= maxMessageLength {
		return text
	}
	return string(runes[:maxMessageLength-3]) + "..."
}
