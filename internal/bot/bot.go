// Package bot runs the Telegram side of notifications: members and coaches
// link their chat with /start <token>, after which notifications are
// delivered there as well.
package bot

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/saeid-a/CoachBooking/internal/models"
	"github.com/saeid-a/CoachBooking/pkg/utils"
	tele "gopkg.in/telebot.v3"
)

type linkStore interface {
	Link(ctx context.Context, userID models.AccountID, chatID int64) error
	Unlink(ctx context.Context, chatID int64) (int64, error)
}

type Bot struct {
	tg     *tele.Bot
	linker *Linker
}

// New connects to the Bot API and registers the command handlers. It does
// not start polling.
func New(token string, links linkStore, jwtSecret string) (*Bot, error) {
	tg, err := tele.NewBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := &Bot{tg: tg, linker: NewLinker(links, jwtSecret)}
	tg.Handle("/start", b.handleStart)
	tg.Handle("/stop", b.handleStop)
	tg.Handle("/help", b.handleHelp)
	return b, nil
}

// Telegram is the sender TelegramPusher delivers through.
func (b *Bot) Telegram() *tele.Bot {
	return b.tg
}

func (b *Bot) Start() {
	log.Println("[BOT] polling started")
	b.tg.Start()
}

func (b *Bot) Stop() {
	b.tg.Stop()
}

func (b *Bot) handleStart(c tele.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	reply, err := b.linker.Link(ctx, c.Message().Payload, c.Chat().ID)
	if err != nil {
		log.Printf("[BOT] link chat %d: %v", c.Chat().ID, err)
	}
	return c.Send(reply, &tele.SendOptions{ParseMode: tele.ModeHTML})
}

func (b *Bot) handleStop(c tele.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	reply, err := b.linker.Unlink(ctx, c.Chat().ID)
	if err != nil {
		log.Printf("[BOT] unlink chat %d: %v", c.Chat().ID, err)
	}
	return c.Send(reply)
}

func (b *Bot) handleHelp(c tele.Context) error {
	return c.Send("<b>Commands</b>\n\n/start &lt;token&gt; links this chat to your account\n/stop stops notifications here",
		&tele.SendOptions{ParseMode: tele.ModeHTML})
}

// Linker holds the command logic so it can be exercised without the Bot API.
type Linker struct {
	links     linkStore
	jwtSecret string
}

func NewLinker(links linkStore, jwtSecret string) *Linker {
	return &Linker{links: links, jwtSecret: jwtSecret}
}

// Link validates the access token passed as the /start payload and binds the
// chat to its account. The returned text is always safe to send back.
func (l *Linker) Link(ctx context.Context, payload string, chatID int64) (string, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return "Send <b>/start &lt;token&gt;</b> with the token from your account page to receive notifications here.", nil
	}

	claims, err := utils.ValidateToken(payload, l.jwtSecret)
	if err != nil {
		return "That link has expired. Request a new one from the app.", err
	}
	accountID, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil || accountID <= 0 {
		return "That link is not valid.", fmt.Errorf("bad subject %q", claims.UserID)
	}

	if err := l.links.Link(ctx, models.AccountID(accountID), chatID); err != nil {
		return "Something went wrong, please try again later.", err
	}
	return "Linked. Booking and session notifications will arrive in this chat.", nil
}

func (l *Linker) Unlink(ctx context.Context, chatID int64) (string, error) {
	removed, err := l.links.Unlink(ctx, chatID)
	if err != nil {
		return "Something went wrong, please try again later.", err
	}
	if removed == 0 {
		return "This chat is not linked to any account.", nil
	}
	return "Notifications stopped for this chat.", nil
}
