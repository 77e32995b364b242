package telegram

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"menu-planner/internal/app"
	"menu-planner/internal/config"
	"menu-planner/internal/menu"
	"menu-planner/internal/recipe"
)

// Bot exposes the planner over Telegram.
type Bot struct {
	api *tgbotapi.BotAPI
	app *app.App
	cfg *config.Config
}

// NewBot initializes the Telegram Bot and sets the webhook.
func NewBot(cfg *config.Config, application *app.App) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	log.Printf("Authorized on account %s", api.Self.UserName)

	wh, _ := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	log.Printf("Webhook set response: %s", resp.Description)

	return &Bot{api: api, app: application, cfg: cfg}, nil
}

// API returns the underlying bot API, for wiring the notifier.
func (b *Bot) API() *tgbotapi.BotAPI {
	return b.api
}

// RegisterHandlers registers the webhook handler with the default HTTP mux.
func (b *Bot) RegisterHandlers() {
	http.HandleFunc("/webhook", b.handleWebhook)
	http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		log.Printf("Error parsing update: %v", err)
		return
	}

	if update.Message == nil {
		return
	}

	isAllowed := false
	for _, id := range b.cfg.TelegramAllowIDs {
		if update.Message.From.ID == id {
			isAllowed = true
			break
		}
	}
	if !isAllowed {
		log.Printf("⚠️ Unauthorized access attempt from UserID: %d (@%s)", update.Message.From.ID, update.Message.From.UserName)
		return
	}

	go b.processMessage(update.Message)
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	ctx := context.Background()
	text := strings.TrimSpace(msg.Text)

	switch {
	case strings.HasPrefix(text, "/generate"):
		b.handleGenerate(ctx, msg.Chat.ID, strings.TrimSpace(strings.TrimPrefix(text, "/generate")))
	case text == "/menu":
		b.reply(msg.Chat.ID, formatSlots(b.app.Slots()))
	case text == "/list":
		b.handleList(ctx, msg.Chat.ID)
	case strings.HasPrefix(text, "/check"):
		b.handleCheck(msg.Chat.ID, strings.TrimSpace(strings.TrimPrefix(text, "/check")))
	case strings.HasPrefix(text, "/search"):
		b.handleSearch(ctx, msg.Chat.ID, strings.TrimSpace(strings.TrimPrefix(text, "/search")))
	case strings.HasPrefix(text, "/replace"):
		b.handleReplace(ctx, msg.Chat.ID, strings.TrimSpace(strings.TrimPrefix(text, "/replace")))
	case strings.HasPrefix(text, "http://"), strings.HasPrefix(text, "https://"):
		// A bare URL clips the recipe into the catalog.
		if err := b.app.ImportRecipe(ctx, text, "dinner"); err != nil {
			log.Printf("Import failed: %v", err)
		}
	default:
		b.reply(msg.Chat.ID, "Commands: /generate [monday:lunch,dinner], /menu, /list, /check <key>, /search <text>, /replace <day> <meal> <recipe-id>, or paste a recipe URL.")
	}
}

func (b *Bot) handleSearch(ctx context.Context, chatID int64, query string) {
	if query == "" {
		b.reply(chatID, "Usage: /search <text>")
		return
	}
	results, err := b.app.SearchCatalog(ctx, recipe.Filter{TitleLike: query})
	if err != nil {
		log.Printf("Search failed: %v", err)
		return
	}
	if len(results) == 0 {
		b.reply(chatID, fmt.Sprintf("No recipes match %q.", query))
		return
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "🔍 %d recipe(s):\n", len(results))
	for _, r := range results {
		fmt.Fprintf(&sb, "%s  %s (%s)\n", r.ID, r.Title, r.Category)
	}
	b.reply(chatID, sb.String())
}

func (b *Bot) handleReplace(ctx context.Context, chatID int64, args string) {
	day, meal, recipeID, err := parseReplaceArgs(args)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Usage: /replace <day> <meal> <recipe-id> (%v)", err))
		return
	}
	if err := b.app.ReplaceSlot(ctx, day, meal, recipeID); err != nil {
		log.Printf("Replace failed: %v", err)
		return
	}
	b.reply(chatID, formatSlots(b.app.Slots()))
}

func parseReplaceArgs(s string) (menu.Day, menu.Meal, string, error) {
	fields := strings.Fields(s)
	if len(fields) != 3 {
		return 0, 0, "", fmt.Errorf("expected day, meal and recipe id, got %d argument(s)", len(fields))
	}
	day, err := menu.ParseDay(fields[0])
	if err != nil {
		return 0, 0, "", err
	}
	meal, err := menu.ParseMeal(fields[1])
	if err != nil {
		return 0, 0, "", err
	}
	return day, meal, fields[2], nil
}

func (b *Bot) handleGenerate(ctx context.Context, chatID int64, selection string) {
	if selection != "" {
		sel, err := menu.ParseSelection(selection)
		if err != nil {
			b.reply(chatID, fmt.Sprintf("Couldn't read that selection: %v", err))
			return
		}
		for day, meals := range sel {
			for _, meal := range meals {
				if !b.app.Selection().Contains(day, meal) {
					b.app.ToggleSlot(day, meal)
				}
			}
		}
	}

	if err := b.app.GenerateMenu(ctx); err != nil {
		log.Printf("Generation failed: %v", err)
		return
	}
	b.reply(chatID, formatSlots(b.app.Slots()))
}

func (b *Bot) handleList(ctx context.Context, chatID int64) {
	list, err := b.app.BuildShoppingList(ctx)
	if err != nil {
		log.Printf("Failed to build shopping list: %v", err)
		return
	}

	var sb strings.Builder
	sb.WriteString("🛒 Shopping list\n")
	for _, category := range list.Categories {
		fmt.Fprintf(&sb, "\n%s:\n", strings.ToUpper(category))
		for i, item := range list.Items[category] {
			fmt.Fprintf(&sb, "  %s-%d  %s: %.4g %s\n", category, i, item.Name, item.Quantity, item.Unit)
		}
	}
	if len(list.OptionalItems) > 0 {
		sb.WriteString("\nOPTIONAL:\n")
		for i, item := range list.OptionalItems {
			fmt.Fprintf(&sb, "  optional-%d  %s\n", i, item.Name)
		}
	}
	b.reply(chatID, sb.String())
}

func (b *Bot) handleCheck(chatID int64, key string) {
	if key == "" {
		b.reply(chatID, "Usage: /check <key> (e.g. produce-0)")
		return
	}
	if err := b.app.ToggleChecked(key); err != nil {
		log.Printf("Toggle failed: %v", err)
		return
	}
	b.reply(chatID, fmt.Sprintf("Toggled %s.", key))
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.Printf("Failed to send reply: %v", err)
	}
}

func formatSlots(slots []menu.Slot) string {
	if len(slots) == 0 {
		return "The menu is empty. Use /generate to fill it."
	}
	var buf bytes.Buffer
	buf.WriteString("📅 Weekly menu\n")
	for _, s := range slots {
		title := "(empty)"
		if s.Bound() {
			title = s.Recipe.Title
		}
		fmt.Fprintf(&buf, "%s: %s\n", s.ID(), title)
	}
	return buf.String()
}
