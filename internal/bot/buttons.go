package bot

import (
	"fmt"
	"sort"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-catalog-bot/internal/domain"
)

const productCallbackPrefix = "product/"

// categoryListButtons строит кнопки корневого списка категорий:
// по одной кнопке на строку, стабильная сортировка по sort_order.
func categoryListButtons(items []domain.CategoryListItem) [][]tgbotapi.InlineKeyboardButton {
	sorted := make([]domain.CategoryListItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SortOrder < sorted[j].SortOrder
	})

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(sorted))
	for _, item := range sorted {
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(
				emojiCategory+" "+item.Name,
				fmt.Sprintf("category/%d", item.ID),
			),
		})
	}
	return rows
}

// categoryContentButtons строит кнопки содержимого категории.
// Раскладка из API отображается строка в строку без сортировки;
// callback-кнопки товаров получают ссылку на исходную категорию,
// чтобы с экрана товара можно было вернуться назад.
// Устаревший формат дает по одной кнопке на строку: сначала дочерние
// категории, затем товары, и те и другие по sort_order.
func categoryContentButtons(c *domain.Category) [][]tgbotapi.InlineKeyboardButton {
	switch content := c.Content.(type) {
	case domain.LayoutContent:
		rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(content))
		for _, line := range content {
			row := make([]tgbotapi.InlineKeyboardButton, 0, len(line))
			for _, button := range line {
				if button.Kind() == domain.ButtonCallback && strings.HasPrefix(button.Value, productCallbackPrefix) {
					productRef := strings.TrimPrefix(button.Value, productCallbackPrefix)
					row = append(row, tgbotapi.NewInlineKeyboardButtonData(
						button.Label,
						fmt.Sprintf("product/%s?from=%d", productRef, c.ID),
					))
					continue
				}
				row = append(row, layoutButton(button))
			}
			rows = append(rows, row)
		}
		return rows

	case *domain.LegacyContent:
		children := make([]domain.CategoryListItem, len(content.ChildCategories))
		copy(children, content.ChildCategories)
		sort.SliceStable(children, func(i, j int) bool {
			return children[i].SortOrder < children[j].SortOrder
		})

		products := make([]domain.CategoryProductItem, len(content.Products))
		copy(products, content.Products)
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].SortOrder < products[j].SortOrder
		})

		rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(children)+len(products))
		for _, child := range children {
			rows = append(rows, []tgbotapi.InlineKeyboardButton{
				tgbotapi.NewInlineKeyboardButtonData(
					emojiCategory+" "+child.Name,
					fmt.Sprintf("category/%d", child.ID),
				),
			})
		}
		for _, product := range products {
			rows = append(rows, []tgbotapi.InlineKeyboardButton{
				tgbotapi.NewInlineKeyboardButtonData(
					emojiProduct+" "+product.Name,
					fmt.Sprintf("product/%d?from=%d", product.ID, c.ID),
				),
			})
		}
		return rows

	default:
		return nil
	}
}

// templateButtons строит кнопки из раскладки шаблона. Порядок сохраняется,
// цели кнопок никогда не переписываются.
func templateButtons(t *domain.Template) [][]tgbotapi.InlineKeyboardButton {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(t.Layout))
	for _, line := range t.Layout {
		row := make([]tgbotapi.InlineKeyboardButton, 0, len(line))
		for _, button := range line {
			row = append(row, layoutButton(button))
		}
		rows = append(rows, row)
	}
	return rows
}

// backButtonRow — кнопка возврата на стартовый экран.
func backButtonRow() []tgbotapi.InlineKeyboardButton {
	return []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData(backButtonLabel, "back"),
	}
}

// backToCategoryButtonRow — кнопка возврата в конкретную категорию.
func backToCategoryButtonRow(categoryID int64) []tgbotapi.InlineKeyboardButton {
	return []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData(backButtonLabel, fmt.Sprintf("back/category/%d", categoryID)),
	}
}

// appendBackButton добавляет кнопку «назад» к имеющимся строкам.
// categoryID == 0 означает возврат на стартовый экран.
func appendBackButton(rows [][]tgbotapi.InlineKeyboardButton, categoryID int64) [][]tgbotapi.InlineKeyboardButton {
	if categoryID > 0 {
		return append(rows, backToCategoryButtonRow(categoryID))
	}
	return append(rows, backButtonRow())
}

// layoutButton отображает одну кнопку раскладки в кнопку Telegram
// по ее типу. web_app отображается как URL-кнопка: клиентская
// библиотека Bot API версии 5 не знает web_app-кнопок.
func layoutButton(b domain.LayoutButton) tgbotapi.InlineKeyboardButton {
	switch b.Kind() {
	case domain.ButtonURL, domain.ButtonWebApp:
		return tgbotapi.NewInlineKeyboardButtonURL(b.Label, b.Value)
	default:
		return tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Value)
	}
}
