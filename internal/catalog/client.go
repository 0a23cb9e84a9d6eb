package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"telegram-catalog-bot/internal/domain"
)

// Client — клиент REST API каталога.
type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
}

// NewClient создает новый экземпляр Client. Нулевой timeout заменяется
// значением по умолчанию в 15 секунд.
func NewClient(baseURL, authToken string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:   baseURL,
		authToken: authToken,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Categories запрашивает список всех категорий.
func (c *Client) Categories(ctx context.Context) ([]domain.CategoryListItem, error) {
	var items []domain.CategoryListItem
	if err := c.getJSON(ctx, "/categories", &items); err != nil {
		return nil, err
	}
	return items, nil
}

// CategoryByID запрашивает полную категорию.
func (c *Client) CategoryByID(ctx context.Context, id int64) (*domain.Category, error) {
	var category domain.Category
	if err := c.getJSON(ctx, fmt.Sprintf("/categories/%d", id), &category); err != nil {
		return nil, err
	}
	return &category, nil
}

// ProductByID запрашивает товар.
func (c *Client) ProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	var product domain.Product
	if err := c.getJSON(ctx, fmt.Sprintf("/products/%d", id), &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// TemplatesByType запрашивает шаблоны указанного типа. API возвращает
// коллекцию; выбор первого элемента — забота вызывающего.
func (c *Client) TemplatesByType(ctx context.Context, typ domain.TemplateType) ([]domain.Template, error) {
	var templates []domain.Template
	if err := c.getJSON(ctx, "/telegram/template/by-type/"+string(typ), &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

// SaveCategoryImageFileID сохраняет file_id изображения категории.
func (c *Client) SaveCategoryImageFileID(ctx context.Context, id int64, fileID string) error {
	return c.patchImageFileID(ctx, fmt.Sprintf("/categories/%d/image-file-id", id), fileID)
}

// SaveProductImageFileID сохраняет file_id изображения товара.
func (c *Client) SaveProductImageFileID(ctx context.Context, id int64, fileID string) error {
	return c.patchImageFileID(ctx, fmt.Sprintf("/products/%d/image-file-id", id), fileID)
}

// getJSON выполняет GET-запрос и декодирует ответ в out.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code for %s: %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) patchImageFileID(ctx context.Context, path, fileID string) error {
	body, err := json.Marshal(map[string]string{"image_file_id": fileID})
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("unexpected status code for %s: %d", path, resp.StatusCode)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
}
