package notify

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/GetFlawed/HouseFinder/internal/logger"
	"github.com/GetFlawed/HouseFinder/internal/models"
)

const discordDefaultColor = 0

var discordColors = map[string]int{
	models.SourceRightmove:   3447003,
	models.SourceZoopla:      8359053,
	models.SourceOnTheMarket: 15158332,
}

type discordEmbed struct {
	Title  string              `json:"title"`
	URL    string              `json:"url"`
	Color  int                 `json:"color"`
	Fields []discordEmbedField `json:"fields"`
	Image  *discordEmbedImage  `json:"image,omitempty"`
	Footer discordEmbedFooter  `json:"footer"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordEmbedImage struct {
	URL string `json:"url"`
}

type discordEmbedFooter struct {
	Text string `json:"text"`
}

type discordPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

// DiscordNotifier posts one rich embed per new listing to a Discord webhook.
type DiscordNotifier struct {
	webhookURL string
	client     *resty.Client
	log        *logrus.Entry
}

func NewDiscordNotifier(webhookURL string, timeout time.Duration) (*DiscordNotifier, error) {
	if webhookURL == "" {
		return nil, errors.New("discord webhook url is required")
	}
	return &DiscordNotifier{
		webhookURL: webhookURL,
		client:     resty.New().SetTimeout(timeout),
		log:        logger.WithComponent("notify"),
	}, nil
}

func (n *DiscordNotifier) Notify(ctx context.Context, prop models.Property) error {
	res, err := n.client.R().
		SetContext(ctx).
		SetBody(buildPayload(prop)).
		Post(n.webhookURL)
	if err != nil {
		return fmt.Errorf("post discord webhook: %w", err)
	}
	if !res.IsSuccess() {
		return fmt.Errorf("discord webhook returned status %d: %s", res.StatusCode(), res.String())
	}

	n.log.Infof("sent notification for: %s", prop.Name)
	return nil
}

func buildPayload(prop models.Property) discordPayload {
	color, ok := discordColors[prop.Source]
	if !ok {
		color = discordDefaultColor
	}

	embed := discordEmbed{
		Title: prop.Name,
		URL:   prop.Link,
		Color: color,
		Fields: []discordEmbedField{
			{Name: "Price", Value: prop.Price, Inline: true},
			{Name: "Bedrooms", Value: strconv.Itoa(prop.Bedrooms), Inline: true},
			{Name: "Bathrooms", Value: strconv.Itoa(prop.Bathrooms), Inline: true},
		},
		Footer: discordEmbedFooter{Text: "Source: " + prop.Source},
	}
	// Listings without a photo get no image block at all; Discord rejects
	// embeds with an empty image url.
	if prop.Image != "" {
		embed.Image = &discordEmbedImage{URL: prop.Image}
	}

	return discordPayload{Embeds: []discordEmbed{embed}}
}
