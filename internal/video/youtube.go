package video

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// SearchResult — найденное видео.
type SearchResult struct {
	Title   string `json:"title"`
	Channel string `json:"channel"`
	URL     string `json:"url"`
}

// Client ищет клипы через YouTube Data API v3.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиента. Пустой ключ отключает поиск.
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://www.googleapis.com/youtube/v3"
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Enabled сообщает, настроен ли доступ к YouTube.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// Search ищет официальные клипы по запросу.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("video: YouTube не настроен")
	}
	if limit <= 0 || limit > 10 {
		limit = 3
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("videoCategoryId", "10") // категория Music
	params.Set("q", query)
	params.Set("maxResults", fmt.Sprintf("%d", limit))
	params.Set("key", c.apiKey)

	endpoint := fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("video: запрос не выполнен: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("video: код ответа %d", resp.StatusCode)
	}

	var result struct {
		Items []struct {
			ID struct {
				VideoID string `json:"videoId"`
			} `json:"id"`
			Snippet struct {
				Title        string `json:"title"`
				ChannelTitle string `json:"channelTitle"`
			} `json:"snippet"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	videos := make([]SearchResult, 0, len(result.Items))
	for _, item := range result.Items {
		videos = append(videos, SearchResult{
			Title:   item.Snippet.Title,
			Channel: item.Snippet.ChannelTitle,
			URL:     "https://www.youtube.com/watch?v=" + item.ID.VideoID,
		})
	}
	return videos, nil
}
