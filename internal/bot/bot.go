package bot

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/Skvorcmen/RLT-test/internal/logger"
	"github.com/Skvorcmen/RLT-test/internal/services"
)

// Bot answers free-form questions about the stored video statistics over
// Telegram. Every text message goes through the ask service and the reply is
// the bare number.
type Bot struct {
	log        *logger.Logger
	askService services.AskService
	telebot    *tele.Bot
	timeout    time.Duration
}

func New(log *logger.Logger, askService services.AskService, token string) (*Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("missing telegram bot token")
	}

	telebot, err := tele.NewBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}

	b := &Bot{
		log:        log.With("service", "TelegramBot"),
		askService: askService,
		telebot:    telebot,
		timeout:    90 * time.Second,
	}
	telebot.Handle(tele.OnText, b.handleText)
	return b, nil
}

func (b *Bot) Start() {
	b.log.Info("Telegram bot started")
	b.telebot.Start()
}

func (b *Bot) Stop() {
	b.telebot.Stop()
}

func (b *Bot) handleText(c tele.Context) error {
	question := c.Text()
	sender := c.Sender()
	var senderID int64
	if sender != nil {
		senderID = sender.ID
	}
	b.log.Info("Question received", "user_id", senderID, "question", question)

	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	result, err := b.askService.Ask(ctx, question)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyQuestion):
			return c.Send("Please send a question as plain text.")
		case errors.Is(err, services.ErrUnsafeSQL):
			return c.Send("I could not turn that into a safe query. Try rephrasing the question.")
		default:
			b.log.Error("Question failed", "user_id", senderID, "error", err)
			return c.Send("Something went wrong while answering. Try rephrasing the question.")
		}
	}

	answer := FormatAnswer(result.Value)
	b.log.Info("Answer sent", "user_id", senderID, "answer", answer)
	return c.Send(answer)
}

// FormatAnswer renders integral values without a decimal part.
func FormatAnswer(value float64) string {
	if value == math.Trunc(value) && !math.IsInf(value, 0) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
