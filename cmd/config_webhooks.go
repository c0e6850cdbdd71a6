package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"SwiftBackuper/internal/config"
)

var (
	webhookURLFlag     string
	webhookMentionFlag string
	discordEnableFlag  bool
	discordDisableFlag bool
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configWebhooksCmd)
	configWebhooksCmd.Flags().StringVar(&webhookURLFlag, "webhook-url", "", "Discord webhook URL (or set "+config.EnvDiscordWebhookURL+")")
	configWebhooksCmd.Flags().StringVar(&webhookMentionFlag, "mention", "", "Mention added to error notifications, e.g. <@&role-id>")
	configWebhooksCmd.Flags().BoolVar(&discordEnableFlag, "discord-enable", false, "Enable Discord notifications")
	configWebhooksCmd.Flags().BoolVar(&discordDisableFlag, "discord-disable", false, "Disable Discord notifications")
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
}

var configWebhooksCmd = &cobra.Command{
	Use:   "webhooks",
	Short: "Configure Discord notifications",
	Long:  "Show current notification settings and optionally set the Discord webhook URL, the error mention, or enable/disable Discord. Run without flags for interactive prompts.",
	RunE:  runConfigWebhooks,
}

func runConfigWebhooks(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigForEdit()
	if err != nil {
		return err
	}
	path := config.ResolveConfigPath()

	if cfg.Notifications == nil {
		cfg.Notifications = &config.NotificationsConfig{}
	}
	if cfg.Notifications.Discord == nil {
		cfg.Notifications.Discord = &config.DiscordConfig{}
	}
	// Unmarshal copies the env URL in; do not persist it unless asked to.
	fromEnv := cfg.Notifications.Discord.WebhookURL != "" && cfg.Notifications.Discord.WebhookURL == os.Getenv(config.EnvDiscordWebhookURL)
	if fromEnv {
		cfg.Notifications.Discord.WebhookURL = ""
	}

	hasFlags := webhookURLFlag != "" || webhookMentionFlag != "" || discordEnableFlag || discordDisableFlag
	if hasFlags {
		return applyWebhookFlags(cmd, cfg, path)
	}
	return runConfigWebhooksInteractive(cmd, cfg, path)
}

func applyWebhookFlags(cmd *cobra.Command, cfg *config.Config, path string) error {
	if discordEnableFlag && discordDisableFlag {
		return fmt.Errorf("cannot use both --discord-enable and --discord-disable")
	}
	d := cfg.Notifications.Discord
	if webhookURLFlag != "" {
		d.WebhookURL = strings.TrimSpace(webhookURLFlag)
	}
	if webhookMentionFlag != "" {
		d.MentionOnError = strings.TrimSpace(webhookMentionFlag)
	}
	if discordEnableFlag {
		d.Enabled = true
	}
	if discordDisableFlag {
		d.Enabled = false
	}
	return saveWebhookConfig(cmd, cfg, path)
}

func runConfigWebhooksInteractive(cmd *cobra.Command, cfg *config.Config, path string) error {
	reader := bufio.NewReader(os.Stdin)
	d := cfg.Notifications.Discord

	cmd.Println("Current notification settings:")
	printWebhookStatus(cmd, cfg)
	cmd.Println()

	label := "Discord webhook URL"
	if d.WebhookURL != "" || os.Getenv(config.EnvDiscordWebhookURL) != "" {
		label += " (Enter to keep current)"
	}
	if url := prompt(reader, label, ""); url != "" {
		d.WebhookURL = url
	}
	if mention := prompt(reader, "Mention on error", d.MentionOnError); mention != "" {
		d.MentionOnError = mention
	}
	d.Enabled = confirm(reader, "Enable Discord notifications?", d.Enabled)

	return saveWebhookConfig(cmd, cfg, path)
}

func saveWebhookConfig(cmd *cobra.Command, cfg *config.Config, path string) error {
	if err := config.Validate(cfg); err != nil {
		return err
	}
	if err := config.Write(cfg, path); err != nil {
		return err
	}
	cmd.Printf("Configuration saved to %s\n", path)
	printWebhookStatus(cmd, cfg)
	return nil
}

func printWebhookStatus(cmd *cobra.Command, cfg *config.Config) {
	if cfg.Notifications == nil || cfg.Notifications.Discord == nil {
		cmd.Println("  Discord: not configured")
		return
	}
	d := cfg.Notifications.Discord
	cmd.Printf("  Discord: %s\n", onOff(d.Enabled))
	switch {
	case d.WebhookURL != "":
		cmd.Printf("    Webhook URL: %s\n", maskWebhookURL(d.WebhookURL))
	case os.Getenv(config.EnvDiscordWebhookURL) != "":
		cmd.Println("    Webhook URL: (from env)")
	default:
		cmd.Println("    Webhook URL: (not set)")
	}
	if d.MentionOnError != "" {
		cmd.Printf("    Mention on error: %s\n", d.MentionOnError)
	}
}

func maskWebhookURL(s string) string {
	const max = 50
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func onOff(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}
