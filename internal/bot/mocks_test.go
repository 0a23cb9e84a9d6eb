package bot

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-catalog-bot/internal/domain"
	"telegram-catalog-bot/internal/pkg/config"
	"telegram-catalog-bot/internal/userstore"
)

// mockCategories — мок источника категорий.
type mockCategories struct {
	mu        sync.Mutex
	list      []domain.CategoryListItem
	byIDFunc  func(ctx context.Context, id int64) *domain.Category
	byIDCalls int
	saved     []string
	saveErr   error
}

func (m *mockCategories) List(ctx context.Context) []domain.CategoryListItem {
	return m.list
}

func (m *mockCategories) ByID(ctx context.Context, id int64) *domain.Category {
	m.mu.Lock()
	m.byIDCalls++
	m.mu.Unlock()
	if m.byIDFunc != nil {
		return m.byIDFunc(ctx, id)
	}
	return nil
}

func (m *mockCategories) SaveImageFileID(ctx context.Context, id int64, fileID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, fileID)
	return m.saveErr
}

// mockProducts — мок источника товаров.
type mockProducts struct {
	mu       sync.Mutex
	byIDFunc func(ctx context.Context, id int64) *domain.Product
	saved    []string
	savedCh  chan string
}

func (m *mockProducts) ByID(ctx context.Context, id int64) *domain.Product {
	if m.byIDFunc != nil {
		return m.byIDFunc(ctx, id)
	}
	return nil
}

func (m *mockProducts) SaveImageFileID(ctx context.Context, id int64, fileID string) error {
	m.mu.Lock()
	m.saved = append(m.saved, fileID)
	m.mu.Unlock()
	if m.savedCh != nil {
		m.savedCh <- fileID
	}
	return nil
}

func (m *mockProducts) savedFileIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.saved))
	copy(out, m.saved)
	return out
}

// mockTemplates — мок источника шаблонов.
type mockTemplates struct {
	mu         sync.Mutex
	byTypeFunc func(ctx context.Context, typ domain.TemplateType) *domain.Template
	calls      []domain.TemplateType
}

func (m *mockTemplates) ByType(ctx context.Context, typ domain.TemplateType) *domain.Template {
	m.mu.Lock()
	m.calls = append(m.calls, typ)
	m.mu.Unlock()
	if m.byTypeFunc != nil {
		return m.byTypeFunc(ctx, typ)
	}
	return nil
}

func (m *mockTemplates) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// mockUsers — мок хранилища пользователей.
type mockUsers struct {
	mu    sync.Mutex
	users []userstore.User
	err   error
}

func (m *mockUsers) Upsert(u userstore.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = append(m.users, u)
	return m.err
}

// sendRecorder записывает все отправленные Chattable и позволяет
// управлять ответом на отправку фото.
type sendRecorder struct {
	mu   sync.Mutex
	sent []tgbotapi.Chattable

	// rejectFileID имитирует отказ платформы на устаревший file_id.
	rejectFileID bool
	// photoResponse — сообщение, возвращаемое на успешную отправку фото.
	photoResponse tgbotapi.Message

	acked []string
}

func (r *sendRecorder) send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if photo, ok := c.(tgbotapi.PhotoConfig); ok {
		if _, byFileID := photo.File.(tgbotapi.FileID); byFileID && r.rejectFileID {
			return tgbotapi.Message{}, tgbotapi.Error{Message: "Bad Request: wrong file identifier"}
		}
		r.sent = append(r.sent, c)
		return r.photoResponse, nil
	}
	r.sent = append(r.sent, c)
	return tgbotapi.Message{}, nil
}

func (r *sendRecorder) request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	if cb, ok := c.(tgbotapi.CallbackConfig); ok {
		r.mu.Lock()
		r.acked = append(r.acked, cb.CallbackQueryID)
		r.mu.Unlock()
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (r *sendRecorder) sentMessages(t *testing.T) []tgbotapi.Chattable {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]tgbotapi.Chattable, len(r.sent))
	copy(out, r.sent)
	return out
}

// newTestBot создает бота с моками вместо Telegram API.
func newTestBot(rec *sendRecorder, cats *mockCategories, prods *mockProducts, tpls *mockTemplates, users *mockUsers) *Bot {
	b := &Bot{
		cfg:        config.Bot{DownloadTimeoutSeconds: 5},
		categories: cats,
		products:   prods,
		templates:  tpls,
		httpClient: http.DefaultClient,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if users != nil {
		b.users = users
	}
	b.send = rec.send
	b.request = rec.request
	return b
}

// callback создает нажатие кнопки с указанными данными.
func callback(data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:      "cb-1",
		Data:    data,
		From:    &tgbotapi.User{ID: 42, FirstName: "Ann"},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 100}},
	}
}

// command создает входящее сообщение-команду.
func command(text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}},
		Chat:     &tgbotapi.Chat{ID: 100},
		From:     &tgbotapi.User{ID: 42, FirstName: "Ann"},
	}
}
