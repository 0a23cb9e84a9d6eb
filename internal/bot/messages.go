package bot

import (
	"fmt"
	"html"

	"telegram-catalog-bot/internal/domain"
)

// Тексты сообщений бота.
const (
	msgCategoryNotFound = "❌ Category not found"
	msgProductNotFound  = "❌ Product not found"
	msgCategoryEmpty    = "📭 This category is empty."
	msgUnknownText      = "🤔 I didn't understand that.\n\nUse /start to browse products"
	msgHelp             = "🤖 *Bot Commands*\n\n🔄 /start \\- Browse catalog\n❓ /help \\- Show this message"
)

// Эмодзи и подписи кнопок.
const (
	emojiCategory   = "📂"
	emojiProduct    = "📦"
	backButtonLabel = "⬅️ назад"
)

// welcomeMessage возвращает приветствие стартового экрана.
func welcomeMessage(name string) string {
	return fmt.Sprintf("👋 Welcome, %s!\n\nBrowse our catalog:", name)
}

// categoryCaption возвращает заголовок экрана категории (Markdown).
func categoryCaption(name string) string {
	return fmt.Sprintf("📂 *%s*\n\nSelect an item:", name)
}

// productCaption возвращает подпись товара: имя жирным и описание (HTML).
// Имя экранируется, описание приходит из API уже в разметке.
func productCaption(p *domain.Product) string {
	return fmt.Sprintf("<b>%s</b>\n\n%s", html.EscapeString(p.Name), p.Description)
}
