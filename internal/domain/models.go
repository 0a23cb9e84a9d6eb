package domain

import "encoding/json"

// ButtonKind определяет тип кнопки из раскладки каталога.
type ButtonKind int

const (
	// ButtonCallback — кнопка с callback-данными для навигации внутри бота.
	ButtonCallback ButtonKind = iota
	// ButtonURL — кнопка-ссылка на внешний ресурс.
	ButtonURL
	// ButtonWebApp — кнопка запуска встроенного веб-приложения.
	ButtonWebApp
)

// ParseButtonKind преобразует строковый тип кнопки из API в ButtonKind.
// Неизвестные значения трактуются как callback — API может прислать
// новый тип, и бот не должен из-за этого ломаться.
func ParseButtonKind(s string) ButtonKind {
	switch s {
	case "url":
		return ButtonURL
	case "web_app":
		return ButtonWebApp
	default:
		return ButtonCallback
	}
}

// LayoutButton представляет одну кнопку в раскладке категории или шаблона.
type LayoutButton struct {
	Label string `json:"label"`
	Type  string `json:"button_type"`
	Value string `json:"value"`
}

// Kind возвращает разобранный тип кнопки.
func (b LayoutButton) Kind() ButtonKind {
	return ParseButtonKind(b.Type)
}

// Layout — двумерная раскладка кнопок: внешний срез — строки,
// внутренний — кнопки в строке. Порядок задается API и не сортируется.
type Layout [][]LayoutButton

// CategoryListItem представляет элемент списка категорий из /categories.
type CategoryListItem struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
}

// CategoryProductItem — краткая запись о товаре внутри категории
// (устаревший формат ответа).
type CategoryProductItem struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
}

// CategoryContent описывает навигируемое содержимое категории.
// Вариант выбирается один раз при разборе ответа API: либо раскладка
// кнопок, либо устаревшие плоские списки. У пустой категории — nil.
type CategoryContent interface {
	isCategoryContent()
}

// LayoutContent — современный формат: готовая раскладка кнопок.
type LayoutContent Layout

func (LayoutContent) isCategoryContent() {}

// LegacyContent — устаревший формат: дочерние категории и товары,
// которые при отображении сортируются по sort_order.
type LegacyContent struct {
	ChildCategories []CategoryListItem
	Products        []CategoryProductItem
}

func (*LegacyContent) isCategoryContent() {}

// Category представляет полную категорию из /categories/{id}.
type Category struct {
	ID          int64
	Name        string
	IsRoot      bool
	Image       string // URL изображения, "" — отсутствует
	ImageFileID string // file_id Telegram, "" — еще не сохранен
	Content     CategoryContent
}

// UnmarshalJSON разбирает ответ API и сразу выбирает вариант содержимого:
// непустая раскладка имеет приоритет над устаревшими списками.
func (c *Category) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID              int64                 `json:"id"`
		Name            string                `json:"name"`
		IsRoot          bool                  `json:"is_root"`
		Image           string                `json:"image"`
		ImageFileID     string                `json:"image_file_id"`
		Layout          Layout                `json:"layout"`
		ChildCategories []CategoryListItem    `json:"child_categories"`
		Products        []CategoryProductItem `json:"products"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	c.ID = raw.ID
	c.Name = raw.Name
	c.IsRoot = raw.IsRoot
	c.Image = raw.Image
	c.ImageFileID = raw.ImageFileID

	switch {
	case len(raw.Layout) > 0:
		c.Content = LayoutContent(raw.Layout)
	case len(raw.ChildCategories) > 0 || len(raw.Products) > 0:
		c.Content = &LegacyContent{
			ChildCategories: raw.ChildCategories,
			Products:        raw.Products,
		}
	default:
		c.Content = nil
	}
	return nil
}

// IsEmpty сообщает, что в категории нечего показывать.
func (c *Category) IsEmpty() bool {
	return c.Content == nil
}

// Product представляет товар из /products/{id}.
type Product struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
	ImageFileID string `json:"image_file_id"`
	SortOrder   int    `json:"sort_order"`
}

// TemplateType — тип серверного шаблона экрана.
type TemplateType string

const (
	TemplateStart    TemplateType = "start"
	TemplatePost     TemplateType = "post"
	TemplateProduct  TemplateType = "product"
	TemplateCategory TemplateType = "category"
)

// Template представляет шаблон экрана с серверной раскладкой кнопок.
type Template struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Layout Layout `json:"layout"`
}
