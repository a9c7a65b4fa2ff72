package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/musicstore-support/internal/models"
)

var ErrTrackNotFound = errors.New("track not found")

type CatalogRepository struct {
	db *sqlx.DB
}

func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// trackColumns — общий SELECT трека с подтянутыми альбомом, исполнителем и жанром.
const trackColumns = `
	t.id, t.name, a.title AS album_title, ar.name AS artist_name,
	g.name AS genre_name, t.composer, t.milliseconds, t.unit_price
`

const trackJoins = `
	FROM tracks t
	LEFT JOIN albums a ON t.album_id = a.id
	LEFT JOIN artists ar ON a.artist_id = ar.id
	LEFT JOIN genres g ON t.genre_id = g.id
`

// SearchTracks ищет треки по частичному совпадению названия.
func (r *CatalogRepository) SearchTracks(ctx context.Context, term string, limit int) ([]models.Track, error) {
	var tracks []models.Track
	err := r.db.SelectContext(ctx, &tracks, `
		SELECT `+trackColumns+trackJoins+`
		WHERE t.name ILIKE '%' || $1 || '%'
		ORDER BY t.name
		LIMIT $2
	`, term, limit)
	return tracks, err
}

// GetTrackByID возвращает трек по идентификатору.
func (r *CatalogRepository) GetTrackByID(ctx context.Context, id int64) (*models.Track, error) {
	var track models.Track
	err := r.db.GetContext(ctx, &track, `
		SELECT `+trackColumns+trackJoins+`
		WHERE t.id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTrackNotFound
	}
	if err != nil {
		return nil, err
	}
	return &track, nil
}

// FindTrack ищет трек по названию и имени исполнителя (проверка наличия в каталоге).
func (r *CatalogRepository) FindTrack(ctx context.Context, title, artist string) ([]models.Track, error) {
	var tracks []models.Track
	err := r.db.SelectContext(ctx, &tracks, `
		SELECT `+trackColumns+trackJoins+`
		WHERE t.name ILIKE '%' || $1 || '%' AND ar.name ILIKE '%' || $2 || '%'
		ORDER BY t.name
		LIMIT 10
	`, title, artist)
	return tracks, err
}

// SearchArtists ищет исполнителей с агрегатами по альбомам и трекам.
func (r *CatalogRepository) SearchArtists(ctx context.Context, term string, limit int) ([]models.ArtistSummary, error) {
	var artists []models.ArtistSummary
	err := r.db.SelectContext(ctx, &artists, `
		SELECT ar.id, ar.name,
		       COUNT(DISTINCT a.id) AS album_count,
		       COUNT(DISTINCT t.id) AS track_count
		FROM artists ar
		LEFT JOIN albums a ON a.artist_id = ar.id
		LEFT JOIN tracks t ON t.album_id = a.id
		WHERE ar.name ILIKE '%' || $1 || '%'
		GROUP BY ar.id, ar.name
		ORDER BY ar.name
		LIMIT $2
	`, term, limit)
	return artists, err
}

// ListArtistAlbums возвращает альбомы исполнителя с ценовым диапазоном.
func (r *CatalogRepository) ListArtistAlbums(ctx context.Context, artistName string) ([]models.AlbumSummary, error) {
	var albums []models.AlbumSummary
	err := r.db.SelectContext(ctx, &albums, `
		SELECT a.id, a.title, ar.name AS artist_name,
		       COUNT(t.id) AS track_count,
		       MIN(t.unit_price) AS min_price,
		       MAX(t.unit_price) AS max_price
		FROM albums a
		JOIN artists ar ON a.artist_id = ar.id
		LEFT JOIN tracks t ON t.album_id = a.id
		WHERE ar.name ILIKE '%' || $1 || '%'
		GROUP BY a.id, a.title, ar.name
		ORDER BY a.title
	`, artistName)
	return albums, err
}

// ListAlbumTracks возвращает треки альбома.
func (r *CatalogRepository) ListAlbumTracks(ctx context.Context, albumTitle string) ([]models.Track, error) {
	var tracks []models.Track
	err := r.db.SelectContext(ctx, &tracks, `
		SELECT `+trackColumns+trackJoins+`
		WHERE a.title ILIKE '%' || $1 || '%'
		ORDER BY t.id
	`, albumTitle)
	return tracks, err
}

// ListGenres возвращает жанры с количеством треков и альбомов.
func (r *CatalogRepository) ListGenres(ctx context.Context) ([]models.GenreSummary, error) {
	var genres []models.GenreSummary
	err := r.db.SelectContext(ctx, &genres, `
		SELECT g.id, g.name,
		       COUNT(DISTINCT t.id) AS track_count,
		       COUNT(DISTINCT t.album_id) AS album_count
		FROM genres g
		LEFT JOIN tracks t ON t.genre_id = g.id
		GROUP BY g.id, g.name
		ORDER BY track_count DESC
	`)
	return genres, err
}

// ListTracksByGenre возвращает треки указанного жанра.
func (r *CatalogRepository) ListTracksByGenre(ctx context.Context, genreName string, limit int) ([]models.Track, error) {
	var tracks []models.Track
	err := r.db.SelectContext(ctx, &tracks, `
		SELECT `+trackColumns+trackJoins+`
		WHERE g.name ILIKE '%' || $1 || '%'
		ORDER BY ar.name, a.title, t.name
		LIMIT $2
	`, genreName, limit)
	return tracks, err
}

// ListPopularTracks возвращает самые покупаемые треки по всем покупателям.
func (r *CatalogRepository) ListPopularTracks(ctx context.Context, limit int) ([]models.PopularTrack, error) {
	var tracks []models.PopularTrack
	err := r.db.SelectContext(ctx, &tracks, `
		SELECT `+trackColumns+`, COUNT(il.id) AS purchase_count
		`+trackJoins+`
		LEFT JOIN invoice_lines il ON il.track_id = t.id
		GROUP BY t.id, t.name, a.title, ar.name, g.name, t.composer, t.milliseconds, t.unit_price
		ORDER BY purchase_count DESC
		LIMIT $1
	`, limit)
	return tracks, err
}
