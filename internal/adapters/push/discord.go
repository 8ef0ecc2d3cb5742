package push

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/okian/crease/internal/domain/model"
)

// Embed colors per notification tag.
var discordColors = map[string]int{
	string(model.NotificationWicket):  0xE74C3C,
	string(model.NotificationCentury): 0xF1C40F,
	string(model.NotificationUpdate):  0x3498DB,
	string(model.NotificationAlert):   0xE67E22,
}

type webhookExecutor interface {
	WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Discord posts each payload as an embed through a Discord webhook.
type Discord struct {
	session webhookExecutor
	id      string
	token   string
}

// NewDiscord creates a Discord pusher from a webhook URL
// (https://discord.com/api/webhooks/{id}/{token}).
func NewDiscord(webhookURL string) (*Discord, error) {
	id, token, err := ParseDiscordWebhook(webhookURL)
	if err != nil {
		return nil, err
	}
	s, err := discordgo.New("")
	if err != nil {
		return nil, wrap("discord", err)
	}
	return &Discord{session: s, id: id, token: token}, nil
}

// ParseDiscordWebhook extracts the webhook id and token from its URL.
func ParseDiscordWebhook(raw string) (id, token string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", wrap("discord", err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+2 < len(parts); i++ {
		if parts[i] == "webhooks" && parts[i+1] != "" && parts[i+2] != "" {
			return parts[i+1], parts[i+2], nil
		}
	}
	return "", "", wrap("discord", fmt.Errorf("not a webhook url: %q", raw))
}

func (d *Discord) Deliver(ctx context.Context, userID string, payload model.PushPayload) error {
	_, err := d.session.WebhookExecute(d.id, d.token, false, discordParams(userID, payload), discordgo.WithContext(ctx))
	if err != nil {
		return wrap("discord", err)
	}
	return nil
}

func discordParams(userID string, payload model.PushPayload) *discordgo.WebhookParams {
	embed := &discordgo.MessageEmbed{
		Title:       payload.Title,
		Description: payload.Body,
		Color:       discordColors[payload.Tag],
		Footer:      &discordgo.MessageEmbedFooter{Text: "user " + userID},
	}
	if matchID := payload.Data["matchId"]; matchID != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Match", Value: matchID, Inline: true})
	}
	return &discordgo.WebhookParams{
		Username: "crease",
		Embeds:   []*discordgo.MessageEmbed{embed},
	}
}
