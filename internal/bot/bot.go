package bot

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"telegram-catalog-bot/internal/domain"
	"telegram-catalog-bot/internal/pkg/config"
	"telegram-catalog-bot/internal/userstore"
)

const (
	startCommand = "start"
	helpCommand  = "help"
)

// Маршруты callback-данных кнопок.
var (
	categoryPattern = regexp.MustCompile(`^category/(\d+)$`)
	productPattern  = regexp.MustCompile(`^product/(\d+)(?:\?from=(\d+))?$`)
	backPattern     = regexp.MustCompile(`^back(?:/category/(\d+))?$`)
)

// CategorySource предоставляет категории каталога.
type CategorySource interface {
	List(ctx context.Context) []domain.CategoryListItem
	ByID(ctx context.Context, id int64) *domain.Category
	SaveImageFileID(ctx context.Context, id int64, fileID string) error
}

// ProductSource предоставляет товары каталога.
type ProductSource interface {
	ByID(ctx context.Context, id int64) *domain.Product
	SaveImageFileID(ctx context.Context, id int64, fileID string) error
}

// TemplateSource предоставляет серверные шаблоны экранов.
type TemplateSource interface {
	ByType(ctx context.Context, typ domain.TemplateType) *domain.Template
}

// UserStore сохраняет пользователей бота.
type UserStore interface {
	Upsert(u userstore.User) error
}

// Bot представляет собой основной объект Telegram-бота.
type Bot struct {
	api        *tgbotapi.BotAPI
	cfg        config.Bot
	categories CategorySource
	products   ProductSource
	templates  TemplateSource
	users      UserStore
	httpClient *http.Client
	logger     *slog.Logger

	// Точки подмены для тестов: в рабочем режиме указывают на методы api.
	send    func(c tgbotapi.Chattable) (tgbotapi.Message, error)
	request func(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// NewBot создает и инициализирует новый экземпляр бота.
func NewBot(cfg config.Bot, categories CategorySource, products ProductSource, templates TemplateSource, users UserStore, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot api: %w", err)
	}

	logger.Info("Authorized on account", slog.String("username", api.Self.UserName))

	b := &Bot{
		api:        api,
		cfg:        cfg,
		categories: categories,
		products:   products,
		templates:  templates,
		users:      users,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.DownloadTimeoutSeconds) * time.Second,
		},
		logger: logger,
	}
	b.send = api.Send
	b.request = api.Request
	return b, nil
}

// Start запускает основной цикл обработки обновлений от Telegram.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Context cancelled, stopping bot...")
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			// Обновления разных пользователей обрабатываются независимо.
			go b.handleUpdate(ctx, update)
		}
	}
}

// handleUpdate обрабатывает одно входящее обновление.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	logger := b.logger.With(slog.String("correlation_id", uuid.NewString()))

	b.saveUser(update, logger)

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery, logger)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message, logger)
	}
}

// saveUser фиксирует пользователя в хранилище на каждом обновлении.
// Ошибка записи не мешает обработке.
func (b *Bot) saveUser(update tgbotapi.Update, logger *slog.Logger) {
	if b.users == nil {
		return
	}
	from := update.SentFrom()
	chat := update.FromChat()
	if from == nil || chat == nil {
		return
	}

	name := strings.TrimSpace(from.FirstName + " " + from.LastName)
	err := b.users.Upsert(userstore.User{
		ChatID:   chat.ID,
		Name:     name,
		Username: from.UserName,
		Status:   userstore.StatusActive,
	})
	if err != nil {
		logger.Error("failed to save user",
			slog.Int64("chat_id", chat.ID),
			slog.String("error", err.Error()))
	}
}

// handleMessage обрабатывает входящее сообщение.
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message, logger *slog.Logger) {
	logger = logger.With(slog.Int64("chat_id", msg.Chat.ID))

	if msg.IsCommand() {
		b.handleCommand(ctx, msg, logger)
		return
	}

	// Свободный текст бот не понимает.
	b.sendText(msg.Chat.ID, msgUnknownText, "", nil, logger)
}

// handleCommand обрабатывает команды.
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, logger *slog.Logger) {
	switch msg.Command() {
	case startCommand:
		b.sendStart(ctx, msg.Chat.ID, senderFirstName(msg.From), logger)
	case helpCommand:
		b.sendText(msg.Chat.ID, msgHelp, tgbotapi.ModeMarkdownV2, nil, logger)
	default:
		b.sendText(msg.Chat.ID, msgUnknownText, "", nil, logger)
	}
}

// handleCallback обрабатывает нажатие кнопки. Callback подтверждается
// сразу, до рендера, чтобы кнопка не «висела» у пользователя; исход
// подтверждения на рендер не влияет.
func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, logger *slog.Logger) {
	logger = logger.With(slog.String("callback_data", cb.Data))

	b.answerCallback(cb.ID, logger)

	if cb.Message == nil {
		logger.Warn("callback query without message, nowhere to reply")
		return
	}
	chatID := cb.Message.Chat.ID

	switch data := cb.Data; {
	case data == "start":
		b.sendStart(ctx, chatID, senderFirstName(cb.From), logger)

	case categoryPattern.MatchString(data):
		m := categoryPattern.FindStringSubmatch(data)
		id, _ := strconv.ParseInt(m[1], 10, 64)
		b.showCategory(ctx, chatID, id, logger)

	case productPattern.MatchString(data):
		m := productPattern.FindStringSubmatch(data)
		id, _ := strconv.ParseInt(m[1], 10, 64)
		var fromCategory int64
		if m[2] != "" {
			fromCategory, _ = strconv.ParseInt(m[2], 10, 64)
		}
		b.showProduct(ctx, chatID, id, fromCategory, logger)

	case backPattern.MatchString(data):
		m := backPattern.FindStringSubmatch(data)
		if m[1] == "" {
			// «Назад» без категории ведет на стартовый экран.
			b.sendStart(ctx, chatID, senderFirstName(cb.From), logger)
			return
		}
		id, _ := strconv.ParseInt(m[1], 10, 64)
		b.showCategory(ctx, chatID, id, logger)

	default:
		logger.Warn("unknown callback data")
	}
}

// sendStart отправляет стартовый экран: приветствие с кнопками шаблона
// start. Без шаблона экран строится из списка категорий; если и список
// недоступен, уходит приветствие без кнопок.
func (b *Bot) sendStart(ctx context.Context, chatID int64, name string, logger *slog.Logger) {
	text := welcomeMessage(name)

	tpl := b.templates.ByType(ctx, domain.TemplateStart)
	if tpl == nil {
		logger.Warn("start template unavailable, falling back to category list")
		b.sendText(chatID, text, tgbotapi.ModeMarkdown, categoryListButtons(b.categories.List(ctx)), logger)
		return
	}

	b.sendText(chatID, text, tgbotapi.ModeMarkdown, templateButtons(tpl), logger)
}

// showCategory отправляет экран категории.
func (b *Bot) showCategory(ctx context.Context, chatID, categoryID int64, logger *slog.Logger) {
	logger = logger.With(slog.Int64("category_id", categoryID))

	category := b.categories.ByID(ctx, categoryID)
	if category == nil {
		b.sendText(chatID, msgCategoryNotFound, "", nil, logger)
		return
	}
	if category.IsEmpty() {
		b.sendText(chatID, msgCategoryEmpty, "", nil, logger)
		return
	}

	rows := categoryContentButtons(category)
	persist := func(ctx context.Context, fileID string) error {
		return b.categories.SaveImageFileID(ctx, categoryID, fileID)
	}
	b.sendWithMedia(ctx, chatID, categoryCaption(category.Name), tgbotapi.ModeMarkdown, rows,
		mediaRef{URL: category.Image, FileID: category.ImageFileID}, persist, logger)
}

// showProduct отправляет экран товара. Кнопки берутся из шаблона product
// (его отсутствие — не ошибка, просто без кнопок шаблона), плюс кнопка
// возврата: в исходную категорию, если она известна, иначе на старт.
func (b *Bot) showProduct(ctx context.Context, chatID, productID, fromCategory int64, logger *slog.Logger) {
	logger = logger.With(slog.Int64("product_id", productID))

	product := b.products.ByID(ctx, productID)
	if product == nil {
		b.sendText(chatID, msgProductNotFound, "", nil, logger)
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	if tpl := b.templates.ByType(ctx, domain.TemplateProduct); tpl != nil {
		rows = templateButtons(tpl)
	}
	rows = appendBackButton(rows, fromCategory)

	persist := func(ctx context.Context, fileID string) error {
		return b.products.SaveImageFileID(ctx, productID, fileID)
	}
	b.sendWithMedia(ctx, chatID, productCaption(product), tgbotapi.ModeHTML, rows,
		mediaRef{URL: product.Image, FileID: product.ImageFileID}, persist, logger)
}

// sendText отправляет текстовое сообщение с необязательной клавиатурой.
func (b *Bot) sendText(chatID int64, text, parseMode string, rows [][]tgbotapi.InlineKeyboardButton, logger *slog.Logger) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = parseMode
	if len(rows) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	}
	if _, err := b.send(msg); err != nil {
		logger.Error("failed to send message", slog.String("error", err.Error()))
	}
}

// answerCallback подтверждает нажатие кнопки. Неудача (например, callback
// уже протух) логируется и игнорируется.
func (b *Bot) answerCallback(callbackID string, logger *slog.Logger) {
	if _, err := b.request(tgbotapi.NewCallback(callbackID, "")); err != nil {
		logger.Warn("failed to answer callback query", slog.String("error", err.Error()))
	}
}

// senderFirstName возвращает имя отправителя для приветствия.
func senderFirstName(u *tgbotapi.User) string {
	if u == nil || u.FirstName == "" {
		return "there"
	}
	return u.FirstName
}
