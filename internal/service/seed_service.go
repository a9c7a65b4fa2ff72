package service

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// SeedService наполняет пустую базу демонстрационными данными:
// небольшой каталог и демо-покупатель с историей покупок.
type SeedService struct {
	db *sqlx.DB
}

// DemoCustomerID — покупатель, от имени которого открываются сессии
// без явного customer_id.
const DemoCustomerID int64 = 58

func NewSeedService(db *sqlx.DB) *SeedService {
	return &SeedService{db: db}
}

// SeedData заполняет каталог и демо-покупателя. Идемпотентно:
// при непустой таблице покупателей ничего не делает.
func (s *SeedService) SeedData(ctx context.Context) error {
	var customers int
	if err := s.db.GetContext(ctx, &customers, `SELECT COUNT(*) FROM customers`); err != nil {
		return fmt.Errorf("seed service: не удалось проверить таблицу покупателей: %w", err)
	}
	if customers > 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.seedCatalog(ctx, tx); err != nil {
		return fmt.Errorf("seed service: не удалось заполнить каталог: %w", err)
	}
	if err := s.seedCustomers(ctx, tx); err != nil {
		return fmt.Errorf("seed service: не удалось создать покупателей: %w", err)
	}
	if err := s.seedInvoices(ctx, tx); err != nil {
		return fmt.Errorf("seed service: не удалось создать историю покупок: %w", err)
	}

	return tx.Commit()
}

func (s *SeedService) seedCatalog(ctx context.Context, tx *sqlx.Tx) error {
	artists := []string{"AC/DC", "Led Zeppelin", "Queen", "Miles Davis", "Nirvana", "U2", "Frank Sinatra", "Metallica"}
	for _, name := range artists {
		if _, err := tx.ExecContext(ctx, `INSERT INTO artists (name) VALUES ($1)`, name); err != nil {
			return err
		}
	}

	genres := []string{"Rock", "Jazz", "Metal", "Grunge", "Pop", "Blues"}
	for _, name := range genres {
		if _, err := tx.ExecContext(ctx, `INSERT INTO genres (name) VALUES ($1)`, name); err != nil {
			return err
		}
	}

	albums := []struct {
		title  string
		artist string
	}{
		{"Back In Black", "AC/DC"},
		{"Led Zeppelin IV", "Led Zeppelin"},
		{"A Night At The Opera", "Queen"},
		{"Kind Of Blue", "Miles Davis"},
		{"Nevermind", "Nirvana"},
		{"The Joshua Tree", "U2"},
		{"My Way", "Frank Sinatra"},
		{"Master Of Puppets", "Metallica"},
	}
	for _, a := range albums {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO albums (title, artist_id)
			SELECT $1, id FROM artists WHERE name = $2
		`, a.title, a.artist)
		if err != nil {
			return err
		}
	}

	tracks := []struct {
		name     string
		album    string
		genre    string
		composer string
		ms       int64
		price    float64
	}{
		{"Back In Black", "Back In Black", "Rock", "Angus Young, Malcolm Young, Brian Johnson", 255338, 0.99},
		{"Hells Bells", "Back In Black", "Rock", "Angus Young, Malcolm Young, Brian Johnson", 312309, 0.99},
		{"You Shook Me All Night Long", "Back In Black", "Rock", "Angus Young, Malcolm Young, Brian Johnson", 210295, 0.99},
		{"Stairway To Heaven", "Led Zeppelin IV", "Rock", "Jimmy Page, Robert Plant", 482830, 1.29},
		{"Black Dog", "Led Zeppelin IV", "Rock", "Jimmy Page, Robert Plant, John Paul Jones", 296672, 0.99},
		{"Bohemian Rhapsody", "A Night At The Opera", "Rock", "Freddie Mercury", 355000, 1.29},
		{"Love Of My Life", "A Night At The Opera", "Rock", "Freddie Mercury", 219000, 0.99},
		{"So What", "Kind Of Blue", "Jazz", "Miles Davis", 562000, 0.99},
		{"Blue In Green", "Kind Of Blue", "Jazz", "Miles Davis, Bill Evans", 337000, 0.99},
		{"Smells Like Teen Spirit", "Nevermind", "Grunge", "Kurt Cobain", 301000, 0.99},
		{"Come As You Are", "Nevermind", "Grunge", "Kurt Cobain", 219000, 0.99},
		{"With Or Without You", "The Joshua Tree", "Rock", "U2", 296000, 0.99},
		{"Where The Streets Have No Name", "The Joshua Tree", "Rock", "U2", 337000, 0.99},
		{"My Way", "My Way", "Pop", "Paul Anka", 275000, 0.99},
		{"Master Of Puppets", "Master Of Puppets", "Metal", "James Hetfield, Lars Ulrich", 515000, 1.29},
		{"Battery", "Master Of Puppets", "Metal", "James Hetfield, Lars Ulrich", 312000, 0.99},
	}
	for _, t := range tracks {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO tracks (name, album_id, genre_id, composer, milliseconds, unit_price)
			SELECT $1, a.id, g.id, $2, $3, $4
			FROM albums a, genres g
			WHERE a.title = $5 AND g.name = $6
		`, t.name, t.composer, t.ms, t.price, t.album, t.genre)
		if err != nil {
			return err
		}
	}

	return nil
}

func (s *SeedService) seedCustomers(ctx context.Context, tx *sqlx.Tx) error {
	// Демо-покупатель получает фиксированный id, остальные идут за ним.
	_, err := tx.ExecContext(ctx, `
		INSERT INTO customers (id, first_name, last_name, email, phone, address, city, state, postal_code, country)
		VALUES ($1, 'Manoj', 'Pareek', 'manoj.pareek@rediff.com', '+19144342859',
		        '12,Community Centre', 'Delhi', NULL, '110017', 'India')
	`, DemoCustomerID)
	if err != nil {
		return err
	}

	others := []struct {
		first, last, email, phone, city, country string
	}{
		{"Luis", "Goncalves", "luisg@embraer.com.br", "+551234563322", "Sao Jose dos Campos", "Brazil"},
		{"Helena", "Holy", "hholy@gmail.com", "+420248666022", "Prague", "Czech Republic"},
		{"Kara", "Nielsen", "kara.nielsen@example.com", "+14155550123", "San Francisco", "USA"},
	}
	for _, c := range others {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO customers (first_name, last_name, email, phone, city, country)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, c.first, c.last, c.email, c.phone, c.city, c.country)
		if err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(ctx, `SELECT setval('customers_id_seq', (SELECT MAX(id) FROM customers))`)
	return err
}

func (s *SeedService) seedInvoices(ctx context.Context, tx *sqlx.Tx) error {
	purchases := []struct {
		track    string
		daysAgo  int
		quantity int
	}{
		{"Stairway To Heaven", 90, 1},
		{"Bohemian Rhapsody", 60, 1},
		{"So What", 30, 1},
		{"Smells Like Teen Spirit", 7, 1},
	}

	for _, p := range purchases {
		var trackID int64
		var price float64
		err := tx.QueryRowContext(ctx, `SELECT id, unit_price FROM tracks WHERE name = $1`, p.track).Scan(&trackID, &price)
		if err != nil {
			return err
		}

		var invoiceID int64
		err = tx.QueryRowContext(ctx, `
			INSERT INTO invoices (customer_id, invoice_date, billing_address, billing_city, billing_country, total)
			VALUES ($1, NOW() - ($2 || ' days')::interval, '12,Community Centre', 'Delhi', 'India', $3)
			RETURNING id
		`, DemoCustomerID, p.daysAgo, price*float64(p.quantity)).Scan(&invoiceID)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO invoice_lines (invoice_id, track_id, unit_price, quantity)
			VALUES ($1, $2, $3, $4)
		`, invoiceID, trackID, price, p.quantity)
		if err != nil {
			return err
		}
	}

	return nil
}
