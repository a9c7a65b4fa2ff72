package lyrics

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// SearchResult — найденная песня в Genius.
type SearchResult struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	URL    string `json:"url"`
}

// Client ищет тексты песен через Genius API. Сами тексты Genius
// не отдаёт по API, возвращается ссылка на страницу с текстом.
type Client struct {
	accessToken string
	baseURL     string
	httpClient  *http.Client
}

// NewClient создаёт клиента. Пустой токен отключает поиск.
func NewClient(accessToken, baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://api.genius.com"
	}
	return &Client{
		accessToken: accessToken,
		baseURL:     baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Enabled сообщает, настроен ли доступ к Genius.
func (c *Client) Enabled() bool {
	return c.accessToken != ""
}

// Search ищет песню по названию и исполнителю.
func (c *Client) Search(ctx context.Context, title, artist string) ([]SearchResult, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("lyrics: Genius не настроен")
	}

	query := title
	if artist != "" {
		query += " " + artist
	}

	endpoint := fmt.Sprintf("%s/search?q=%s", c.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lyrics: запрос не выполнен: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("lyrics: код ответа %d", resp.StatusCode)
	}

	var result struct {
		Response struct {
			Hits []struct {
				Result struct {
					Title         string `json:"title"`
					PrimaryArtist struct {
						Name string `json:"name"`
					} `json:"primary_artist"`
					URL string `json:"url"`
				} `json:"result"`
			} `json:"hits"`
		} `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	hits := make([]SearchResult, 0, len(result.Response.Hits))
	for _, h := range result.Response.Hits {
		hits = append(hits, SearchResult{
			Title:  h.Result.Title,
			Artist: h.Result.PrimaryArtist.Name,
			URL:    h.Result.URL,
		})
	}
	return hits, nil
}
