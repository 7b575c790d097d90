package notify

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/ayusman/catfence/internal/alert"
	"github.com/ayusman/catfence/internal/command"
)

// embedColor is the side bar colour of catfence embeds.
const embedColor = 0xE67E22

// MessageSender is the part of *discordgo.Session used to post messages.
type MessageSender interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Discord posts alerts to a channel as an embed with the snapshot attached.
type Discord struct {
	sender    MessageSender
	channelID string
}

// NewDiscord creates a Discord notifier for channelID.
func NewDiscord(sender MessageSender, channelID string) *Discord {
	return &Discord{sender: sender, channelID: channelID}
}

// Send posts p.
func (d *Discord) Send(ctx context.Context, p alert.Payload) error {
	msg := &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       p.Caption,
			Description: p.Description,
			Color:       embedColor,
			Timestamp:   p.FiredAt.Format(time.RFC3339),
			Footer:      &discordgo.MessageEmbedFooter{Text: "alert " + p.ID},
		}},
	}
	if len(p.Image) > 0 {
		msg.Files = []*discordgo.File{{
			Name:        p.Filename,
			ContentType: p.ContentType,
			Reader:      bytes.NewReader(p.Image),
		}}
		msg.Embeds[0].Image = &discordgo.MessageEmbedImage{URL: "attachment://" + p.Filename}
	}

	if _, err := d.sender.ChannelMessageSendComplex(d.channelID, msg, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord send: %w", err)
	}
	return nil
}

// Dispatcher runs chat commands.
type Dispatcher interface {
	Dispatch(ctx context.Context, input string) (command.Response, bool, error)
}

// Listener feeds messages from one channel into a Dispatcher and posts the replies.
type Listener struct {
	ctx          context.Context
	sender       MessageSender
	dispatcher   Dispatcher
	channelID    string
	allowedUsers map[string]bool
	log          *zap.Logger
}

// NewListener creates a Listener. An empty allowedUsers lets anyone in the channel
// issue commands.
func NewListener(ctx context.Context, sender MessageSender, dispatcher Dispatcher, channelID string, allowedUsers []string, log *zap.Logger) *Listener {
	if log == nil {
		log = zap.NewNop()
	}
	allowed := make(map[string]bool, len(allowedUsers))
	for _, u := range allowedUsers {
		allowed[u] = true
	}
	return &Listener{
		ctx:          ctx,
		sender:       sender,
		dispatcher:   dispatcher,
		channelID:    channelID,
		allowedUsers: allowed,
		log:          log,
	}
}

// OnMessageCreate is registered with session.AddHandler.
func (l *Listener) OnMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	selfID := ""
	if s != nil && s.State != nil && s.State.User != nil {
		selfID = s.State.User.ID
	}
	l.Handle(selfID, m.Message)
}

// Handle dispatches one message. It reports whether a command ran.
func (l *Listener) Handle(selfID string, m *discordgo.Message) bool {
	if m == nil || m.Author == nil || m.Author.Bot || m.Author.ID == selfID {
		return false
	}
	if m.ChannelID != l.channelID {
		return false
	}
	if len(l.allowedUsers) > 0 && !l.allowedUsers[m.Author.ID] {
		return false
	}

	resp, matched, err := l.dispatcher.Dispatch(l.ctx, m.Content)
	if !matched {
		return false
	}

	log := l.log.With(zap.String("user", m.Author.Username), zap.String("command", firstWord(m.Content)))
	if err != nil {
		log.Warn("command failed", zap.Error(err))
		resp = command.Response{Text: "Command failed: " + err.Error()}
	} else {
		log.Info("command handled")
	}

	if resp.Empty() {
		return true
	}
	if _, err := l.sender.ChannelMessageSendComplex(m.ChannelID, toMessage(resp), discordgo.WithContext(l.ctx)); err != nil {
		log.Warn("failed to reply", zap.Error(err))
	}
	return true
}

func toMessage(resp command.Response) *discordgo.MessageSend {
	msg := &discordgo.MessageSend{Content: resp.Text}
	if resp.Title == "" && len(resp.Fields) == 0 {
		return msg
	}

	embed := &discordgo.MessageEmbed{Title: resp.Title, Color: embedColor}
	for _, f := range resp.Fields {
		value := f.Value
		if value == "" {
			value = "\u200b"
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: value})
	}
	msg.Embeds = []*discordgo.MessageEmbed{embed}
	return msg
}

func firstWord(s string) string {
	if f := strings.Fields(s); len(f) > 0 {
		return f[0]
	}
	return ""
}

// NewSession creates a bot session with the intents needed to read commands. The
// caller adds handlers and then calls Open.
func NewSession(token string) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentsMessageContent

	return s, nil
}
