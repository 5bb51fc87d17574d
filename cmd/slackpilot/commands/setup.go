package commands

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jholhewres/slackpilot/pkg/slackpilot/assistant"
)

// newSetupCmd creates the `slackpilot setup` command for interactive configuration.
func newSetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Interactive setup wizard",
		Long: `Starts an interactive wizard to create your initial config.yaml.
Asks for the OpenAI provider, assistant ID, Slack bot token, and other
essentials. The API key can be stored in the OS keyring instead of the
config file.

Examples:
  slackpilot setup`,
		RunE: runSetup,
	}
}

// runSetup guides the user through config creation step by step.
func runSetup(_ *cobra.Command, _ []string) error {
	reader := bufio.NewReader(os.Stdin)
	cfg := assistant.DefaultConfig()

	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════════╗")
	fmt.Println("║          SlackPilot — Setup Wizard           ║")
	fmt.Println("╚══════════════════════════════════════════════╝")
	fmt.Println()

	// ── Step 1: Bot name ──
	fmt.Printf("1. Bot name [%s]: ", cfg.Name)
	if name := readLine(reader); name != "" {
		cfg.Name = name
	}

	// ── Step 2: Provider ──
	fmt.Println()
	fmt.Println("   Provider for the assistant service:")
	fmt.Println("   default — api.openai.com")
	fmt.Println("   azure   — Azure OpenAI deployment")
	fmt.Println()
	fmt.Printf("2. Provider [%s]: ", cfg.OpenAI.Provider)
	if provider := strings.ToLower(readLine(reader)); provider != "" {
		switch provider {
		case "default", "azure":
			cfg.OpenAI.Provider = assistant.Provider(provider)
		default:
			fmt.Printf("   [!] Unknown provider %q, keeping %q.\n", provider, cfg.OpenAI.Provider)
		}
	}

	if cfg.OpenAI.Provider == assistant.ProviderAzure {
		for cfg.OpenAI.BaseURL == "" {
			fmt.Print("   Azure endpoint (https://<resource>.openai.azure.com): ")
			cfg.OpenAI.BaseURL = readLine(reader)
		}
		for cfg.OpenAI.APIVersion == "" {
			fmt.Print("   Azure API version (e.g. 2024-02-01): ")
			cfg.OpenAI.APIVersion = readLine(reader)
		}
		for cfg.OpenAI.DeploymentID == "" {
			fmt.Print("   Azure deployment ID: ")
			cfg.OpenAI.DeploymentID = readLine(reader)
		}
	}

	// ── Step 3: Assistant ID ──
	fmt.Println()
	for cfg.OpenAI.AssistantID == "" {
		fmt.Print("3. OpenAI assistant ID (asst_...): ")
		cfg.OpenAI.AssistantID = readLine(reader)
		if cfg.OpenAI.AssistantID == "" {
			fmt.Println("   [!] The assistant ID is required — runs cannot start without it.")
		}
	}

	// ── Step 4: API key ──
	fmt.Println()
	fmt.Println("   The API key can be stored in the OS keyring (recommended)")
	fmt.Println("   or referenced from the OPENAI_API_KEY environment variable.")
	fmt.Println()
	fmt.Print("4. OpenAI API key (leave empty to use ${OPENAI_API_KEY}): ")
	if key := readLine(reader); key != "" {
		if assistant.KeyringAvailable() {
			if err := assistant.StoreAPIKey(key); err != nil {
				fmt.Printf("   [!] Keyring storage failed (%v), keeping the key in config.yaml.\n", err)
				cfg.OpenAI.APIKey = key
			} else {
				fmt.Println("   [ok] API key stored in the OS keyring.")
			}
		} else {
			fmt.Println("   [!] OS keyring unavailable, keeping the key in config.yaml.")
			cfg.OpenAI.APIKey = key
		}
	} else {
		cfg.OpenAI.APIKey = "${OPENAI_API_KEY}"
	}

	// ── Step 5: Run timeout ──
	fmt.Println()
	fmt.Printf("5. Run timeout in seconds [%d]: ", cfg.OpenAI.TimeoutSeconds)
	if raw := readLine(reader); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			cfg.OpenAI.TimeoutSeconds = secs
		} else {
			fmt.Printf("   [!] Not a positive number, keeping %d.\n", cfg.OpenAI.TimeoutSeconds)
		}
	}

	// ── Step 6: Slack bot token ──
	fmt.Println()
	fmt.Print("6. Slack bot token (xoxb-..., leave empty to use ${SLACK_BOT_TOKEN}): ")
	if token := readLine(reader); token != "" {
		cfg.Slack.BotToken = token
	} else {
		cfg.Slack.BotToken = "${SLACK_BOT_TOKEN}"
	}

	// ── Step 7: Redaction ──
	fmt.Println()
	fmt.Println("   Redaction masks emails, phone numbers, credit cards and SSNs")
	fmt.Println("   in prompts before they are sent to OpenAI.")
	fmt.Println()
	fmt.Print("7. Enable prompt redaction? [y/N]: ")
	if answer := strings.ToLower(readLine(reader)); answer == "y" || answer == "yes" {
		cfg.Redaction.Enabled = true
	}

	// ── Write config ──
	path := "config.yaml"
	if err := assistant.SaveConfigToFile(cfg, path); err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("Config written to %s\n", path)
	fmt.Println("Next: slackpilot chat \"hello\" to test, then slackpilot serve.")
	return nil
}

// readLine reads one trimmed line from stdin.
func readLine(reader *bufio.Reader) string {
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}
