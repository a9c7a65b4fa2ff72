package service

import (
	"context"
	"strconv"
	"time"

	"github.com/ignatzorin/musicstore-support/internal/models"
)

// CatalogStore — зависимость от хранилища каталога.
type CatalogStore interface {
	SearchTracks(ctx context.Context, term string, limit int) ([]models.Track, error)
	GetTrackByID(ctx context.Context, id int64) (*models.Track, error)
	FindTrack(ctx context.Context, title, artist string) ([]models.Track, error)
	SearchArtists(ctx context.Context, term string, limit int) ([]models.ArtistSummary, error)
	ListArtistAlbums(ctx context.Context, artistName string) ([]models.AlbumSummary, error)
	ListAlbumTracks(ctx context.Context, albumTitle string) ([]models.Track, error)
	ListGenres(ctx context.Context) ([]models.GenreSummary, error)
	ListTracksByGenre(ctx context.Context, genreName string, limit int) ([]models.Track, error)
	ListPopularTracks(ctx context.Context, limit int) ([]models.PopularTrack, error)
}

// PurchaseHistoryStore — зависимость от хранилища чеков.
type PurchaseHistoryStore interface {
	ListByCustomer(ctx context.Context, customerID int64) ([]models.Invoice, error)
	GetDetails(ctx context.Context, customerID, invoiceID int64) ([]models.InvoiceLineDetail, error)
	ListPurchasedTracks(ctx context.Context, customerID int64) ([]models.PurchasedTrack, error)
	GetSpendingSummary(ctx context.Context, customerID int64) (*models.SpendingSummary, error)
	ListRecent(ctx context.Context, customerID int64, limit int) ([]models.PurchasedTrack, error)
}

// CatalogService отвечает на вопросы о каталоге и истории покупок.
// Все запросы истории фильтруются по customer_id текущей сессии.
// Жанры и топ продаж кэшируются: каталог меняется только покупками.
type CatalogService struct {
	catalog  CatalogStore
	invoices PurchaseHistoryStore
	cache    *CacheService
}

const catalogCacheTTL = 5 * time.Minute

func NewCatalogService(catalog CatalogStore, invoices PurchaseHistoryStore) *CatalogService {
	return &CatalogService{
		catalog:  catalog,
		invoices: invoices,
		cache:    NewCacheService(),
	}
}

// SearchTracks ищет треки по названию.
func (s *CatalogService) SearchTracks(ctx context.Context, term string, limit int) ([]models.Track, error) {
	return s.catalog.SearchTracks(ctx, term, clampLimit(limit))
}

// GetTrack возвращает трек по идентификатору.
func (s *CatalogService) GetTrack(ctx context.Context, id int64) (*models.Track, error) {
	return s.catalog.GetTrackByID(ctx, id)
}

// CheckAvailability проверяет, есть ли песня в каталоге.
func (s *CatalogService) CheckAvailability(ctx context.Context, title, artist string) ([]models.Track, error) {
	return s.catalog.FindTrack(ctx, title, artist)
}

// SearchArtists ищет исполнителей по имени.
func (s *CatalogService) SearchArtists(ctx context.Context, term string, limit int) ([]models.ArtistSummary, error) {
	return s.catalog.SearchArtists(ctx, term, clampLimit(limit))
}

// ListArtistAlbums возвращает альбомы исполнителя.
func (s *CatalogService) ListArtistAlbums(ctx context.Context, artistName string) ([]models.AlbumSummary, error) {
	return s.catalog.ListArtistAlbums(ctx, artistName)
}

// ListAlbumTracks возвращает треки альбома.
func (s *CatalogService) ListAlbumTracks(ctx context.Context, albumTitle string) ([]models.Track, error) {
	return s.catalog.ListAlbumTracks(ctx, albumTitle)
}

// ListGenres возвращает жанры каталога.
func (s *CatalogService) ListGenres(ctx context.Context) ([]models.GenreSummary, error) {
	value, err := s.cache.GetOrSet(GenresCacheKey(), catalogCacheTTL, func() (interface{}, error) {
		return s.catalog.ListGenres(ctx)
	})
	if err != nil {
		return nil, err
	}
	return value.([]models.GenreSummary), nil
}

// ListTracksByGenre возвращает треки жанра.
func (s *CatalogService) ListTracksByGenre(ctx context.Context, genre string, limit int) ([]models.Track, error) {
	return s.catalog.ListTracksByGenre(ctx, genre, clampLimit(limit))
}

// ListPopularTracks возвращает самые продаваемые треки.
func (s *CatalogService) ListPopularTracks(ctx context.Context, limit int) ([]models.PopularTrack, error) {
	limit = clampLimit(limit)
	key := PopularTracksCacheKey() + ":" + strconv.Itoa(limit)
	value, err := s.cache.GetOrSet(key, catalogCacheTTL, func() (interface{}, error) {
		return s.catalog.ListPopularTracks(ctx, limit)
	})
	if err != nil {
		return nil, err
	}
	return value.([]models.PopularTrack), nil
}

// PurchaseHistory возвращает заказы покупателя.
func (s *CatalogService) PurchaseHistory(ctx context.Context, customerID int64) ([]models.Invoice, error) {
	return s.invoices.ListByCustomer(ctx, customerID)
}

// InvoiceDetails возвращает позиции заказа покупателя.
func (s *CatalogService) InvoiceDetails(ctx context.Context, customerID, invoiceID int64) ([]models.InvoiceLineDetail, error) {
	return s.invoices.GetDetails(ctx, customerID, invoiceID)
}

// PurchasedTracks возвращает купленные покупателем треки.
func (s *CatalogService) PurchasedTracks(ctx context.Context, customerID int64) ([]models.PurchasedTrack, error) {
	return s.invoices.ListPurchasedTracks(ctx, customerID)
}

// SpendingSummary возвращает агрегаты трат покупателя.
func (s *CatalogService) SpendingSummary(ctx context.Context, customerID int64) (*models.SpendingSummary, error) {
	return s.invoices.GetSpendingSummary(ctx, customerID)
}

// InvalidateCustomerCache сбрасывает выборки, устаревшие после покупки.
func (s *CatalogService) InvalidateCustomerCache(customerID int64) {
	s.cache.InvalidateCustomerCache(customerID)
}

// Recommendations подбирает треки по жанрам последних покупок;
// для покупателя без истории отдаёт общий топ продаж.
func (s *CatalogService) Recommendations(ctx context.Context, customerID int64, limit int) ([]models.Track, error) {
	limit = clampLimit(limit)

	if value, found := s.cache.Get(RecommendationsCacheKey(customerID, limit)); found {
		return value.([]models.Track), nil
	}

	recent, err := s.invoices.ListRecent(ctx, customerID, 10)
	if err != nil {
		return nil, err
	}
	if len(recent) == 0 {
		popular, err := s.catalog.ListPopularTracks(ctx, limit)
		if err != nil {
			return nil, err
		}
		tracks := make([]models.Track, 0, len(popular))
		for _, p := range popular {
			tracks = append(tracks, p.Track)
		}
		return tracks, nil
	}

	owned := make(map[int64]bool, len(recent))
	seenGenres := make(map[string]bool)
	var genres []string
	for _, t := range recent {
		owned[t.ID] = true
		if t.GenreName != nil && !seenGenres[*t.GenreName] {
			seenGenres[*t.GenreName] = true
			genres = append(genres, *t.GenreName)
		}
	}

	var result []models.Track
	for _, genre := range genres {
		tracks, err := s.catalog.ListTracksByGenre(ctx, genre, limit)
		if err != nil {
			return nil, err
		}
		for _, t := range tracks {
			if owned[t.ID] || len(result) >= limit {
				continue
			}
			result = append(result, t)
		}
		if len(result) >= limit {
			break
		}
	}

	s.cache.Set(RecommendationsCacheKey(customerID, limit), result, catalogCacheTTL)
	return result, nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 50 {
		return 10
	}
	return limit
}
