package bot

import (
	"context"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-catalog-bot/internal/domain"
)

func lastMessage(t *testing.T, rec *sendRecorder) tgbotapi.MessageConfig {
	t.Helper()
	sent := rec.sentMessages(t)
	require.NotEmpty(t, sent, "ожидалось хотя бы одно отправленное сообщение")
	msg, ok := sent[len(sent)-1].(tgbotapi.MessageConfig)
	require.True(t, ok, "последнее отправленное должно быть текстовым сообщением")
	return msg
}

func keyboardOf(t *testing.T, markup interface{}) tgbotapi.InlineKeyboardMarkup {
	t.Helper()
	kb, ok := markup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok, "ожидалась inline-клавиатура")
	return kb
}

func TestSendStart(t *testing.T) {
	t.Run("Шаблон start дает приветствие с кнопками", func(t *testing.T) {
		rec := &sendRecorder{}
		tpls := &mockTemplates{
			byTypeFunc: func(_ context.Context, typ domain.TemplateType) *domain.Template {
				require.Equal(t, domain.TemplateStart, typ)
				return &domain.Template{
					Type: "start",
					Layout: domain.Layout{
						{{Label: "Catalog", Type: "callback", Value: "category/1"}},
					},
				}
			},
		}
		b := newTestBot(rec, &mockCategories{}, &mockProducts{}, tpls, nil)

		b.handleMessage(context.Background(), command("/start"), b.logger)

		msg := lastMessage(t, rec)
		assert.Contains(t, msg.Text, "Welcome, Ann!")
		kb := keyboardOf(t, msg.ReplyMarkup)
		require.Len(t, kb.InlineKeyboard, 1)
		assert.Equal(t, "Catalog", kb.InlineKeyboard[0][0].Text)
	})

	t.Run("Без шаблона стартовый экран строится из списка категорий", func(t *testing.T) {
		rec := &sendRecorder{}
		cats := &mockCategories{
			list: []domain.CategoryListItem{
				{ID: 1, Name: "Drinks", SortOrder: 2},
				{ID: 2, Name: "Snacks", SortOrder: 1},
			},
		}
		b := newTestBot(rec, cats, &mockProducts{}, &mockTemplates{}, nil)

		b.handleMessage(context.Background(), command("/start"), b.logger)

		msg := lastMessage(t, rec)
		assert.Contains(t, msg.Text, "Welcome")
		kb := keyboardOf(t, msg.ReplyMarkup)
		require.Len(t, kb.InlineKeyboard, 2)
		assert.Equal(t, "📂 Snacks", kb.InlineKeyboard[0][0].Text)
		assert.Equal(t, "category/2", *kb.InlineKeyboard[0][0].CallbackData)
	})

	t.Run("Без шаблона и категорий — приветствие без кнопок", func(t *testing.T) {
		rec := &sendRecorder{}
		b := newTestBot(rec, &mockCategories{}, &mockProducts{}, &mockTemplates{}, nil)

		b.handleMessage(context.Background(), command("/start"), b.logger)

		msg := lastMessage(t, rec)
		assert.Contains(t, msg.Text, "Welcome")
		assert.Nil(t, msg.ReplyMarkup)
	})
}

func TestHandleCommand(t *testing.T) {
	t.Run("Команда help", func(t *testing.T) {
		rec := &sendRecorder{}
		b := newTestBot(rec, &mockCategories{}, &mockProducts{}, &mockTemplates{}, nil)

		b.handleMessage(context.Background(), command("/help"), b.logger)

		msg := lastMessage(t, rec)
		assert.Contains(t, msg.Text, "Bot Commands")
		assert.Equal(t, tgbotapi.ModeMarkdownV2, msg.ParseMode)
	})

	t.Run("Неизвестная команда", func(t *testing.T) {
		rec := &sendRecorder{}
		b := newTestBot(rec, &mockCategories{}, &mockProducts{}, &mockTemplates{}, nil)

		b.handleMessage(context.Background(), command("/magic"), b.logger)

		assert.Contains(t, lastMessage(t, rec).Text, "didn't understand")
	})

	t.Run("Свободный текст", func(t *testing.T) {
		rec := &sendRecorder{}
		b := newTestBot(rec, &mockCategories{}, &mockProducts{}, &mockTemplates{}, nil)

		msg := &tgbotapi.Message{
			Text: "hello there",
			Chat: &tgbotapi.Chat{ID: 100},
			From: &tgbotapi.User{ID: 42},
		}
		b.handleMessage(context.Background(), msg, b.logger)

		assert.Contains(t, lastMessage(t, rec).Text, "didn't understand")
	})
}

func TestHandleCallbackCategory(t *testing.T) {
	t.Run("Нажатие подтверждается до рендера", func(t *testing.T) {
		rec := &sendRecorder{}
		b := newTestBot(rec, &mockCategories{}, &mockProducts{}, &mockTemplates{}, nil)

		b.handleCallback(context.Background(), callback("category/5"), b.logger)

		assert.Equal(t, []string{"cb-1"}, rec.acked)
	})

	t.Run("Категория не найдена", func(t *testing.T) {
		rec := &sendRecorder{}
		b := newTestBot(rec, &mockCategories{}, &mockProducts{}, &mockTemplates{}, nil)

		b.handleCallback(context.Background(), callback("category/5"), b.logger)

		assert.Equal(t, msgCategoryNotFound, lastMessage(t, rec).Text)
	})

	t.Run("Пустая категория: уведомление и никаких лишних запросов", func(t *testing.T) {
		rec := &sendRecorder{}
		tpls := &mockTemplates{}
		cats := &mockCategories{
			byIDFunc: func(_ context.Context, id int64) *domain.Category {
				return &domain.Category{ID: id, Name: "Empty"}
			},
		}
		b := newTestBot(rec, cats, &mockProducts{}, tpls, nil)

		b.handleCallback(context.Background(), callback("category/5"), b.logger)

		assert.Equal(t, msgCategoryEmpty, lastMessage(t, rec).Text)
		assert.Equal(t, 0, tpls.callCount(), "после уведомления о пустой категории запросов быть не должно")
	})

	t.Run("Категория с раскладкой и без изображения", func(t *testing.T) {
		rec := &sendRecorder{}
		cats := &mockCategories{
			byIDFunc: func(_ context.Context, id int64) *domain.Category {
				return &domain.Category{
					ID:   id,
					Name: "Drinks",
					Content: domain.LayoutContent{
						{{Label: "Cola", Type: "callback", Value: "product/9"}},
					},
				}
			},
		}
		b := newTestBot(rec, cats, &mockProducts{}, &mockTemplates{}, nil)

		b.handleCallback(context.Background(), callback("category/5"), b.logger)

		msg := lastMessage(t, rec)
		assert.Contains(t, msg.Text, "Drinks")
		kb := keyboardOf(t, msg.ReplyMarkup)
		assert.Equal(t, "product/9?from=5", *kb.InlineKeyboard[0][0].CallbackData)
	})
}

func TestHandleCallbackProduct(t *testing.T) {
	newProduct := func(_ context.Context, id int64) *domain.Product {
		return &domain.Product{ID: id, Name: "Cola", Description: "Cold"}
	}

	t.Run("Товар не найден", func(t *testing.T) {
		rec := &sendRecorder{}
		b := newTestBot(rec, &mockCategories{}, &mockProducts{}, &mockTemplates{}, nil)

		b.handleCallback(context.Background(), callback("product/9"), b.logger)

		assert.Equal(t, msgProductNotFound, lastMessage(t, rec).Text)
	})

	t.Run("Кнопка назад ведет в исходную категорию", func(t *testing.T) {
		rec := &sendRecorder{}
		b := newTestBot(rec, &mockCategories{}, &mockProducts{byIDFunc: newProduct}, &mockTemplates{}, nil)

		b.handleCallback(context.Background(), callback("product/9?from=5"), b.logger)

		msg := lastMessage(t, rec)
		kb := keyboardOf(t, msg.ReplyMarkup)
		lastRow := kb.InlineKeyboard[len(kb.InlineKeyboard)-1]
		assert.Equal(t, "back/category/5", *lastRow[0].CallbackData)
	})

	t.Run("Без from кнопка назад ведет на старт", func(t *testing.T) {
		rec := &sendRecorder{}
		b := newTestBot(rec, &mockCategories{}, &mockProducts{byIDFunc: newProduct}, &mockTemplates{}, nil)

		b.handleCallback(context.Background(), callback("product/9"), b.logger)

		msg := lastMessage(t, rec)
		kb := keyboardOf(t, msg.ReplyMarkup)
		lastRow := kb.InlineKeyboard[len(kb.InlineKeyboard)-1]
		assert.Equal(t, "back", *lastRow[0].CallbackData)
	})

	t.Run("Кнопки шаблона product идут перед кнопкой назад", func(t *testing.T) {
		rec := &sendRecorder{}
		tpls := &mockTemplates{
			byTypeFunc: func(_ context.Context, typ domain.TemplateType) *domain.Template {
				require.Equal(t, domain.TemplateProduct, typ)
				return &domain.Template{
					Type: "product",
					Layout: domain.Layout{
						{{Label: "Buy", Type: "url", Value: "https://example.com/buy"}},
					},
				}
			},
		}
		b := newTestBot(rec, &mockCategories{}, &mockProducts{byIDFunc: newProduct}, tpls, nil)

		b.handleCallback(context.Background(), callback("product/9?from=5"), b.logger)

		msg := lastMessage(t, rec)
		kb := keyboardOf(t, msg.ReplyMarkup)
		require.Len(t, kb.InlineKeyboard, 2)
		assert.Equal(t, "Buy", kb.InlineKeyboard[0][0].Text)
		assert.Equal(t, "back/category/5", *kb.InlineKeyboard[1][0].CallbackData)
	})

	t.Run("Подпись товара в HTML", func(t *testing.T) {
		rec := &sendRecorder{}
		b := newTestBot(rec, &mockCategories{}, &mockProducts{byIDFunc: newProduct}, &mockTemplates{}, nil)

		b.handleCallback(context.Background(), callback("product/9"), b.logger)

		msg := lastMessage(t, rec)
		assert.Equal(t, tgbotapi.ModeHTML, msg.ParseMode)
		assert.True(t, strings.HasPrefix(msg.Text, "<b>Cola</b>"))
	})
}

func TestHandleCallbackBack(t *testing.T) {
	t.Run("back без категории возвращает на старт", func(t *testing.T) {
		rec := &sendRecorder{}
		tpls := &mockTemplates{}
		b := newTestBot(rec, &mockCategories{}, &mockProducts{}, tpls, nil)

		b.handleCallback(context.Background(), callback("back"), b.logger)

		require.Equal(t, 1, tpls.callCount())
		assert.Equal(t, domain.TemplateStart, tpls.calls[0])
	})

	t.Run("back/category/7 открывает категорию", func(t *testing.T) {
		rec := &sendRecorder{}
		var requestedID int64
		cats := &mockCategories{
			byIDFunc: func(_ context.Context, id int64) *domain.Category {
				requestedID = id
				return nil
			},
		}
		b := newTestBot(rec, cats, &mockProducts{}, &mockTemplates{}, nil)

		b.handleCallback(context.Background(), callback("back/category/7"), b.logger)

		assert.Equal(t, int64(7), requestedID)
	})

	t.Run("Токен start работает как команда", func(t *testing.T) {
		rec := &sendRecorder{}
		tpls := &mockTemplates{}
		b := newTestBot(rec, &mockCategories{}, &mockProducts{}, tpls, nil)

		b.handleCallback(context.Background(), callback("start"), b.logger)

		require.Equal(t, 1, tpls.callCount())
		assert.Contains(t, lastMessage(t, rec).Text, "Welcome")
	})
}

func TestSaveUser(t *testing.T) {
	t.Run("Пользователь сохраняется на каждом обновлении", func(t *testing.T) {
		rec := &sendRecorder{}
		users := &mockUsers{}
		b := newTestBot(rec, &mockCategories{}, &mockProducts{}, &mockTemplates{}, users)

		update := tgbotapi.Update{Message: command("/start")}
		b.handleUpdate(context.Background(), update)

		require.Len(t, users.users, 1)
		assert.Equal(t, int64(100), users.users[0].ChatID)
		assert.Equal(t, "Ann", users.users[0].Name)
	})

	t.Run("Ошибка сохранения не мешает обработке", func(t *testing.T) {
		rec := &sendRecorder{}
		users := &mockUsers{err: assert.AnError}
		b := newTestBot(rec, &mockCategories{}, &mockProducts{}, &mockTemplates{}, users)

		b.handleUpdate(context.Background(), tgbotapi.Update{Message: command("/start")})

		assert.NotEmpty(t, rec.sentMessages(t), "ответ должен быть отправлен несмотря на ошибку хранилища")
	})
}
