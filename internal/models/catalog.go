package models

import "time"

// Artist описывает исполнителя в каталоге.
type Artist struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// ArtistSummary — исполнитель с агрегатами по каталогу.
type ArtistSummary struct {
	ID         int64  `db:"id" json:"id"`
	Name       string `db:"name" json:"name"`
	AlbumCount int    `db:"album_count" json:"album_count"`
	TrackCount int    `db:"track_count" json:"track_count"`
}

// Album описывает альбом.
type Album struct {
	ID       int64  `db:"id" json:"id"`
	Title    string `db:"title" json:"title"`
	ArtistID int64  `db:"artist_id" json:"artist_id"`
}

// AlbumSummary — альбом с количеством треков и диапазоном цен.
type AlbumSummary struct {
	ID         int64    `db:"id" json:"id"`
	Title      string   `db:"title" json:"title"`
	ArtistName string   `db:"artist_name" json:"artist_name"`
	TrackCount int      `db:"track_count" json:"track_count"`
	MinPrice   *float64 `db:"min_price" json:"min_price,omitempty"`
	MaxPrice   *float64 `db:"max_price" json:"max_price,omitempty"`
}

// Genre описывает жанр.
type Genre struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// GenreSummary — жанр с агрегатами.
type GenreSummary struct {
	ID         int64  `db:"id" json:"id"`
	Name       string `db:"name" json:"name"`
	TrackCount int    `db:"track_count" json:"track_count"`
	AlbumCount int    `db:"album_count" json:"album_count"`
}

// Track описывает трек каталога вместе с данными альбома и исполнителя.
type Track struct {
	ID           int64   `db:"id" json:"id"`
	Name         string  `db:"name" json:"name"`
	AlbumTitle   *string `db:"album_title" json:"album_title,omitempty"`
	ArtistName   *string `db:"artist_name" json:"artist_name,omitempty"`
	GenreName    *string `db:"genre_name" json:"genre_name,omitempty"`
	Composer     *string `db:"composer" json:"composer,omitempty"`
	Milliseconds int64   `db:"milliseconds" json:"milliseconds"`
	UnitPrice    float64 `db:"unit_price" json:"unit_price"`
}

// DurationMinutes возвращает длительность трека в минутах.
func (t *Track) DurationMinutes() float64 {
	return float64(t.Milliseconds) / 60000.0
}

// PopularTrack — трек с количеством покупок по всем покупателям.
type PopularTrack struct {
	Track
	PurchaseCount int `db:"purchase_count" json:"purchase_count"`
}

// Invoice описывает заказ покупателя.
type Invoice struct {
	ID             int64     `db:"id" json:"id"`
	CustomerID     int64     `db:"customer_id" json:"customer_id"`
	InvoiceDate    time.Time `db:"invoice_date" json:"invoice_date"`
	BillingAddress *string   `db:"billing_address" json:"billing_address,omitempty"`
	BillingCity    *string   `db:"billing_city" json:"billing_city,omitempty"`
	BillingCountry *string   `db:"billing_country" json:"billing_country,omitempty"`
	Total          float64   `db:"total" json:"total"`
	TotalItems     int       `db:"total_items" json:"total_items"`
}

// InvoiceLine описывает позицию заказа.
type InvoiceLine struct {
	ID        int64   `db:"id" json:"id"`
	InvoiceID int64   `db:"invoice_id" json:"invoice_id"`
	TrackID   int64   `db:"track_id" json:"track_id"`
	UnitPrice float64 `db:"unit_price" json:"unit_price"`
	Quantity  int     `db:"quantity" json:"quantity"`
}

// PurchasedTrack — купленный трек с датой покупки и ценой на момент покупки.
type PurchasedTrack struct {
	Track
	PricePaid    float64   `db:"price_paid" json:"price_paid"`
	PurchaseDate time.Time `db:"purchase_date" json:"purchase_date"`
}

// InvoiceLineDetail — строка заказа с данными трека для показа чека.
type InvoiceLineDetail struct {
	TrackName  string  `db:"track_name" json:"track_name"`
	AlbumTitle *string `db:"album_title" json:"album_title,omitempty"`
	ArtistName *string `db:"artist_name" json:"artist_name,omitempty"`
	UnitPrice  float64 `db:"unit_price" json:"unit_price"`
	Quantity   int     `db:"quantity" json:"quantity"`
	LineTotal  float64 `db:"line_total" json:"line_total"`
}

// SpendingSummary — агрегированная статистика трат покупателя.
type SpendingSummary struct {
	TotalOrders       int        `db:"total_orders" json:"total_orders"`
	TotalSpent        float64    `db:"total_spent" json:"total_spent"`
	AverageOrderValue float64    `db:"average_order_value" json:"average_order_value"`
	UniqueTracks      int        `db:"unique_tracks" json:"unique_tracks"`
	FirstPurchase     *time.Time `db:"first_purchase" json:"first_purchase,omitempty"`
	LastPurchase      *time.Time `db:"last_purchase" json:"last_purchase,omitempty"`
}
