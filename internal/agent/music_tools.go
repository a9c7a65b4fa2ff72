package agent

import (
	"context"
	"encoding/json"

	"github.com/ignatzorin/musicstore-support/internal/ai"
	"github.com/ignatzorin/musicstore-support/internal/lyrics"
	"github.com/ignatzorin/musicstore-support/internal/models"
	"github.com/ignatzorin/musicstore-support/internal/video"
)

// CatalogProvider — операции каталога и истории, доступные инструментам.
type CatalogProvider interface {
	SearchTracks(ctx context.Context, term string, limit int) ([]models.Track, error)
	CheckAvailability(ctx context.Context, title, artist string) ([]models.Track, error)
	SearchArtists(ctx context.Context, term string, limit int) ([]models.ArtistSummary, error)
	ListArtistAlbums(ctx context.Context, artistName string) ([]models.AlbumSummary, error)
	ListAlbumTracks(ctx context.Context, albumTitle string) ([]models.Track, error)
	ListGenres(ctx context.Context) ([]models.GenreSummary, error)
	ListTracksByGenre(ctx context.Context, genre string, limit int) ([]models.Track, error)
	ListPopularTracks(ctx context.Context, limit int) ([]models.PopularTrack, error)
	Recommendations(ctx context.Context, customerID int64, limit int) ([]models.Track, error)
	PurchaseHistory(ctx context.Context, customerID int64) ([]models.Invoice, error)
	InvoiceDetails(ctx context.Context, customerID, invoiceID int64) ([]models.InvoiceLineDetail, error)
	PurchasedTracks(ctx context.Context, customerID int64) ([]models.PurchasedTrack, error)
	SpendingSummary(ctx context.Context, customerID int64) (*models.SpendingSummary, error)
}

// musicToolNames — инструменты музыкального агента.
var musicToolNames = []string{
	"search_tracks",
	"check_track_availability",
	"search_artists",
	"browse_artist_albums",
	"list_album_tracks",
	"list_genres",
	"tracks_by_genre",
	"popular_tracks",
	"recommend_tracks",
	"find_lyrics",
	"find_music_video",
}

// RegisterMusicTools регистрирует инструменты каталога, текстов и клипов.
func RegisterMusicTools(r *Registry, catalog CatalogProvider, lyricsClient *lyrics.Client, videoClient *video.Client) {
	r.Register(Tool{
		Def: ai.ToolDef{
			Name:        "search_tracks",
			Description: "Search the store catalog for tracks by partial name match.",
			Parameters: schema(`{
				"type": "object",
				"properties": {
					"query": {"type": "string", "description": "Track name or part of it"},
					"limit": {"type": "integer", "description": "Max results, default 10"}
				},
				"required": ["query"]
			}`),
		},
		Handle: func(ctx context.Context, sess ToolSession, args json.RawMessage) (string, error) {
			var in struct {
				Query string `json:"query"`
				Limit int    `json:"limit"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", err
			}
			tracks, err := catalog.SearchTracks(ctx, in.Query, in.Limit)
			if err != nil {
				return "", err
			}
			return toolResult(map[string]any{"tracks": tracks, "count": len(tracks)})
		},
	})

	r.Register(Tool{
		Def: ai.ToolDef{
			Name:        "check_track_availability",
			Description: "Check whether a specific song by a specific artist is available in the catalog.",
			Parameters: schema(`{
				"type": "object",
				"properties": {
					"title": {"type": "string", "description": "Song title"},
					"artist": {"type": "string", "description": "Artist name"}
				},
				"required": ["title", "artist"]
			}`),
		},
		Handle: func(ctx context.Context, sess ToolSession, args json.RawMessage) (string, error) {
			var in struct {
				Title  string `json:"title"`
				Artist string `json:"artist"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", err
			}
			tracks, err := catalog.CheckAvailability(ctx, in.Title, in.Artist)
			if err != nil {
				return "", err
			}
			return toolResult(map[string]any{"available": len(tracks) > 0, "tracks": tracks})
		},
	})

	r.Register(Tool{
		Def: ai.ToolDef{
			Name:        "search_artists",
			Description: "Search for artists by name, with album and track counts.",
			Parameters: schema(`{
				"type": "object",
				"properties": {
					"query": {"type": "string", "description": "Artist name or part of it"},
					"limit": {"type": "integer", "description": "Max results, default 10"}
				},
				"required": ["query"]
			}`),
		},
		Handle: func(ctx context.Context, sess ToolSession, args json.RawMessage) (string, error) {
			var in struct {
				Query string `json:"query"`
				Limit int    `json:"limit"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", err
			}
			artists, err := catalog.SearchArtists(ctx, in.Query, in.Limit)
			if err != nil {
				return "", err
			}
			return toolResult(map[string]any{"artists": artists, "count": len(artists)})
		},
	})

	r.Register(Tool{
		Def: ai.ToolDef{
			Name:        "browse_artist_albums",
			Description: "List albums by an artist with track counts and price range.",
			Parameters: schema(`{
				"type": "object",
				"properties": {
					"artist": {"type": "string", "description": "Artist name or part of it"}
				},
				"required": ["artist"]
			}`),
		},
		Handle: func(ctx context.Context, sess ToolSession, args json.RawMessage) (string, error) {
			var in struct {
				Artist string `json:"artist"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", err
			}
			albums, err := catalog.ListArtistAlbums(ctx, in.Artist)
			if err != nil {
				return "", err
			}
			return toolResult(map[string]any{"albums": albums, "count": len(albums)})
		},
	})

	r.Register(Tool{
		Def: ai.ToolDef{
			Name:        "list_album_tracks",
			Description: "List all tracks on an album.",
			Parameters: schema(`{
				"type": "object",
				"properties": {
					"album": {"type": "string", "description": "Album title or part of it"}
				},
				"required": ["album"]
			}`),
		},
		Handle: func(ctx context.Context, sess ToolSession, args json.RawMessage) (string, error) {
			var in struct {
				Album string `json:"album"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", err
			}
			tracks, err := catalog.ListAlbumTracks(ctx, in.Album)
			if err != nil {
				return "", err
			}
			return toolResult(map[string]any{"tracks": tracks, "count": len(tracks)})
		},
	})

	r.Register(Tool{
		Def: ai.ToolDef{
			Name:        "list_genres",
			Description: "List all genres in the catalog with track counts.",
			Parameters:  noParams,
		},
		Handle: func(ctx context.Context, sess ToolSession, args json.RawMessage) (string, error) {
			genres, err := catalog.ListGenres(ctx)
			if err != nil {
				return "", err
			}
			return toolResult(map[string]any{"genres": genres})
		},
	})

	r.Register(Tool{
		Def: ai.ToolDef{
			Name:        "tracks_by_genre",
			Description: "List tracks of a given genre.",
			Parameters: schema(`{
				"type": "object",
				"properties": {
					"genre": {"type": "string", "description": "Genre name"},
					"limit": {"type": "integer", "description": "Max results, default 10"}
				},
				"required": ["genre"]
			}`),
		},
		Handle: func(ctx context.Context, sess ToolSession, args json.RawMessage) (string, error) {
			var in struct {
				Genre string `json:"genre"`
				Limit int    `json:"limit"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", err
			}
			tracks, err := catalog.ListTracksByGenre(ctx, in.Genre, in.Limit)
			if err != nil {
				return "", err
			}
			return toolResult(map[string]any{"tracks": tracks, "count": len(tracks)})
		},
	})

	r.Register(Tool{
		Def: ai.ToolDef{
			Name:        "popular_tracks",
			Description: "List the best selling tracks across all customers.",
			Parameters: schema(`{
				"type": "object",
				"properties": {
					"limit": {"type": "integer", "description": "Max results, default 10"}
				}
			}`),
		},
		Handle: func(ctx context.Context, sess ToolSession, args json.RawMessage) (string, error) {
			var in struct {
				Limit int `json:"limit"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", err
			}
			tracks, err := catalog.ListPopularTracks(ctx, in.Limit)
			if err != nil {
				return "", err
			}
			return toolResult(map[string]any{"tracks": tracks})
		},
	})

	r.Register(Tool{
		Def: ai.ToolDef{
			Name:        "recommend_tracks",
			Description: "Recommend tracks for the current customer based on their purchase history.",
			Parameters: schema(`{
				"type": "object",
				"properties": {
					"limit": {"type": "integer", "description": "Max results, default 10"}
				}
			}`),
		},
		Handle: func(ctx context.Context, sess ToolSession, args json.RawMessage) (string, error) {
			var in struct {
				Limit int `json:"limit"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", err
			}
			tracks, err := catalog.Recommendations(ctx, sess.CustomerID, in.Limit)
			if err != nil {
				return "", err
			}
			return toolResult(map[string]any{"tracks": tracks})
		},
	})

	r.Register(Tool{
		Def: ai.ToolDef{
			Name:        "find_lyrics",
			Description: "Find a link to the lyrics page of a song.",
			Parameters: schema(`{
				"type": "object",
				"properties": {
					"title": {"type": "string", "description": "Song title"},
					"artist": {"type": "string", "description": "Artist name"}
				},
				"required": ["title"]
			}`),
		},
		Handle: func(ctx context.Context, sess ToolSession, args json.RawMessage) (string, error) {
			var in struct {
				Title  string `json:"title"`
				Artist string `json:"artist"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", err
			}
			if !lyricsClient.Enabled() {
				return toolResult(map[string]string{"status": "unavailable", "message": "lyrics search is not configured"})
			}
			hits, err := lyricsClient.Search(ctx, in.Title, in.Artist)
			if err != nil {
				return "", err
			}
			return toolResult(map[string]any{"results": hits})
		},
	})

	r.Register(Tool{
		Def: ai.ToolDef{
			Name:        "find_music_video",
			Description: "Find official music videos for a song or artist.",
			Parameters: schema(`{
				"type": "object",
				"properties": {
					"query": {"type": "string", "description": "Song and artist, e.g. 'Bohemian Rhapsody Queen'"}
				},
				"required": ["query"]
			}`),
		},
		Handle: func(ctx context.Context, sess ToolSession, args json.RawMessage) (string, error) {
			var in struct {
				Query string `json:"query"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", err
			}
			if !videoClient.Enabled() {
				return toolResult(map[string]string{"status": "unavailable", "message": "video search is not configured"})
			}
			videos, err := videoClient.Search(ctx, in.Query, 3)
			if err != nil {
				return "", err
			}
			return toolResult(map[string]any{"results": videos})
		},
	})
}
