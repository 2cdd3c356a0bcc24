package services

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"netdash/models"
)

// DiscordNotifier forwards dashboard notifications to a Discord channel
type DiscordNotifier struct {
	session   *discordgo.Session
	channelID string
	botID     string
	enabled   bool

	// status answers the "!netdash status" command
	status func() string
}

func NewDiscordNotifier(token string, channelID string) (*DiscordNotifier, error) {
	if token == "" {
		log.Println("Discord bot token not provided, Discord notifications disabled")
		return &DiscordNotifier{enabled: false}, nil
	}

	if channelID == "" {
		log.Println("Discord channel ID not provided, Discord notifications disabled")
		return &DiscordNotifier{enabled: false}, nil
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	user, err := session.User("@me")
	if err != nil {
		return nil, fmt.Errorf("failed to get bot user: %w", err)
	}

	d := &DiscordNotifier{
		session:   session,
		channelID: channelID,
		botID:     user.ID,
		enabled:   true,
	}

	session.AddHandler(d.messageHandler)

	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("failed to open Discord connection: %w", err)
	}

	log.Printf("✓ Discord bot connected, Bot ID: %s, Channel: %s", user.ID, channelID)
	return d, nil
}

func (d *DiscordNotifier) Enabled() bool {
	return d != nil && d.enabled
}

// SetStatusSource installs the function used to answer status commands
func (d *DiscordNotifier) SetStatusSource(fn func() string) {
	d.status = fn
}

func (d *DiscordNotifier) Close() {
	if d.Enabled() && d.session != nil {
		log.Println("Closing Discord bot connection...")
		d.session.Close()
	}
}

func (d *DiscordNotifier) messageHandler(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == d.botID || m.ChannelID != d.channelID {
		return
	}
	if reply := d.commandReply(m.Content); reply != "" {
		s.ChannelMessageSend(m.ChannelID, reply)
	}
}

func (d *DiscordNotifier) commandReply(content string) string {
	if !strings.HasPrefix(content, "!netdash") {
		return ""
	}
	args := strings.Fields(content)
	if len(args) < 2 {
		return ""
	}

	switch args[1] {
	case "ping":
		return "Pong! netdash is online."
	case "help":
		return "**netdash commands:**\n" +
			"`!netdash ping` - Check if the dashboard is online\n" +
			"`!netdash status` - Current network status\n" +
			"`!netdash help` - Show this help message"
	case "status":
		if d.status == nil {
			return "No status available yet."
		}
		return d.status()
	default:
		return fmt.Sprintf("Unknown command: `%s`. Try `!netdash help`", args[1])
	}
}

// Forward posts success, warning and error notifications. Info is dashboard-only.
func (d *DiscordNotifier) Forward(n models.Notification) error {
	if !d.Enabled() || n.Level == models.LevelInfo {
		return nil
	}

	embed := &discordgo.MessageEmbed{
		Title:       levelTitle(n.Level),
		Description: n.Message,
		Color:       levelColor(n.Level),
		Footer: &discordgo.MessageEmbedFooter{
			Text: "netdash",
		},
		Timestamp: n.CreatedAt.Format(time.RFC3339),
	}

	if _, err := d.session.ChannelMessageSendEmbed(d.channelID, embed); err != nil {
		return fmt.Errorf("failed to send Discord message: %w", err)
	}
	return nil
}

func levelTitle(level string) string {
	switch level {
	case models.LevelSuccess:
		return "Success"
	case models.LevelWarning:
		return "Warning"
	case models.LevelError:
		return "Error"
	default:
		return "Info"
	}
}

func levelColor(level string) int {
	switch level {
	case models.LevelSuccess:
		return 3066993 // Green
	case models.LevelWarning:
		return 15844367 // Gold
	case models.LevelError:
		return 15158332 // Red
	default:
		return 3447003 // Blue
	}
}
