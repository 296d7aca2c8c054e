// Package notify pushes stock alerts to Telegram.
package notify

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gautamnaik0719/noormeds/internal/events"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Sender is the slice of the bot API the notifier needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier messages the configured chats when an item is depleted, so
// reordering can start before anyone hits an empty shelf.
type Notifier struct {
	sender     Sender
	chatIDs    []int64
	stashLabel string
	logger     zerolog.Logger
}

func New(sender Sender, chatIDs []int64, stashLabel string, logger *zerolog.Logger) *Notifier {
	return &Notifier{
		sender:     sender,
		chatIDs:    chatIDs,
		stashLabel: stashLabel,
		logger:     logger.With().Str("component", "notify").Logger(),
	}
}

// SubscribeDepletion wires the notifier onto the event bus.
func (n *Notifier) SubscribeDepletion(bus *events.EventBus) {
	bus.Subscribe(events.EventItemDepleted, n.handleDepleted)
}

func (n *Notifier) handleDepleted(event *events.Event) error {
	var payload events.ItemEventPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		n.logger.Error().Err(err).Msg("bad depletion payload")
		return err
	}

	// Stash items stay private; never broadcast them.
	if strings.EqualFold(payload.Location, n.stashLabel) {
		return nil
	}

	text := fmt.Sprintf("Stock depleted: %s %s (%s). Item moved to the archive.",
		payload.Name, payload.Dose, payload.Location)

	for _, chatID := range n.chatIDs {
		if _, err := n.sender.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
			n.logger.Error().Err(err).Int64("chat_id", chatID).Msg("send depletion alert")
		}
	}
	return nil
}
