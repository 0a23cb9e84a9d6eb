package bot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// persistTimeout ограничивает фоновое сохранение file_id в API каталога.
const persistTimeout = 10 * time.Second

// mediaRef описывает изображение сущности: внешний URL и/или
// уже сохраненный file_id Telegram. Оба поля могут быть пустыми.
type mediaRef struct {
	URL    string
	FileID string
}

// persistFunc сохраняет полученный file_id в API каталога.
type persistFunc func(ctx context.Context, fileID string) error

// sendWithMedia отправляет сообщение с изображением по трехступенчатой
// схеме: сохраненный file_id (мгновенно) → загрузка по URL с выгрузкой
// в Telegram → только текст. После успешной выгрузки file_id самого
// крупного варианта сохраняется в API в фоне; ответ пользователю этого
// не ждет. Ни одна из ошибок не доходит до пользователя — каждая ступень
// деградирует к следующей.
func (b *Bot) sendWithMedia(ctx context.Context, chatID int64, text, parseMode string, rows [][]tgbotapi.InlineKeyboardButton, media mediaRef, persist persistFunc, logger *slog.Logger) {
	if media.FileID != "" {
		err := b.sendPhotoByFileID(chatID, media.FileID, text, parseMode, rows)
		if err == nil {
			return
		}
		// Платформа отвергла сохраненный file_id — пробуем URL.
		logger.Warn("stored file_id rejected, falling back to url",
			slog.String("error", err.Error()))
	}

	if media.URL != "" {
		data, err := b.downloadImage(ctx, media.URL)
		if err != nil {
			logger.Error("failed to download image",
				slog.String("url", media.URL),
				slog.String("error", err.Error()))
		} else {
			sent, err := b.sendPhotoBytes(chatID, data, text, parseMode, rows)
			if err != nil {
				logger.Error("failed to upload image", slog.String("error", err.Error()))
			} else {
				if fileID := largestPhotoFileID(sent.Photo); fileID != "" && persist != nil {
					go b.persistFileID(fileID, persist, logger)
				}
				return
			}
		}
	}

	b.sendText(chatID, text, parseMode, rows, logger)
}

func (b *Bot) sendPhotoByFileID(chatID int64, fileID, caption, parseMode string, rows [][]tgbotapi.InlineKeyboardButton) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(fileID))
	photo.Caption = caption
	photo.ParseMode = parseMode
	if len(rows) > 0 {
		photo.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	}
	_, err := b.send(photo)
	return err
}

func (b *Bot) sendPhotoBytes(chatID int64, data []byte, caption, parseMode string, rows [][]tgbotapi.InlineKeyboardButton) (tgbotapi.Message, error) {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "image", Bytes: data})
	photo.Caption = caption
	photo.ParseMode = parseMode
	if len(rows) > 0 {
		photo.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	}
	return b.send(photo)
}

// downloadImage скачивает изображение по URL.
func (b *Bot) downloadImage(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image body: %w", err)
	}
	return data, nil
}

// persistFileID сохраняет file_id в API каталога. Запускается в отдельной
// горутине: исход виден только в логах, его никто не ждет и не повторяет.
func (b *Bot) persistFileID(fileID string, persist persistFunc, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := persist(ctx, fileID); err != nil {
		logger.Error("failed to save image file_id",
			slog.String("file_id", fileID),
			slog.String("error", err.Error()))
		return
	}
	logger.Debug("image file_id saved", slog.String("file_id", fileID))
}

// largestPhotoFileID возвращает file_id самого крупного варианта фото.
// Telegram отдает варианты по возрастанию размера, берется последний.
func largestPhotoFileID(photo []tgbotapi.PhotoSize) string {
	if len(photo) == 0 {
		return ""
	}
	return photo[len(photo)-1].FileID
}
