// Package database persists finished match results. Backed by sqlite
// by default; the pgx stdlib driver is registered for deployments
// setting TRUCO_DB_DRIVER=pgx with a postgres URL in TRUCO_DB_DSN.
package database

import (
	"database/sql"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/joho/godotenv/autoload"
	_ "github.com/mattn/go-sqlite3"
)

// Service wraps the results table behind a small query surface.
type Service struct {
	db *sql.DB
	m  sync.Mutex
}

const schema = `
create table if not exists truco_matches (
	id string not null primary key,
	created_at string,
	player1 string,
	player2 string,
	winner string,
	player1_score integer,
	player2_score integer,
	bet integer,
	deals integer
);
`

// New opens (and migrates, if needed) the results database.
func New(driver, dsn string) (*Service, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &Service{db: db}, nil
}

func (s *Service) Close() error {
	return s.db.Close()
}

// Insert stores one finished match.
func (s *Service) Insert(rec MatchRecord) error {
	s.m.Lock()
	defer s.m.Unlock()
	_, err := s.db.Exec(
		"INSERT INTO truco_matches (id, created_at, player1, player2, winner, player1_score, player2_score, bet, deals) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		rec.ID,
		rec.CreatedAt,
		rec.Player1,
		rec.Player2,
		rec.Winner,
		rec.Player1Score,
		rec.Player2Score,
		rec.Bet,
		rec.Deals,
	)
	return err
}

// GetByID fetches one match by its id.
func (s *Service) GetByID(id string) (MatchRecord, error) {
	s.m.Lock()
	defer s.m.Unlock()
	var rec MatchRecord
	err := s.db.QueryRow("SELECT id, created_at, player1, player2, winner, player1_score, player2_score, bet, deals FROM truco_matches WHERE id = ?", id).Scan(
		&rec.ID,
		&rec.CreatedAt,
		&rec.Player1,
		&rec.Player2,
		&rec.Winner,
		&rec.Player1Score,
		&rec.Player2Score,
		&rec.Bet,
		&rec.Deals,
	)
	if err != nil {
		return MatchRecord{}, err
	}
	return rec, nil
}

// GetByPlayer fetches every match an identity took part in.
func (s *Service) GetByPlayer(identity string) ([]MatchRecord, error) {
	s.m.Lock()
	defer s.m.Unlock()
	rows, err := s.db.Query(
		"SELECT id, created_at, player1, player2, winner, player1_score, player2_score, bet, deals FROM truco_matches WHERE player1 = ? OR player2 = ?",
		identity, identity)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, sql.ErrNoRows
	}
	return results, nil
}

// GetAll fetches every stored match.
func (s *Service) GetAll() ([]MatchRecord, error) {
	s.m.Lock()
	defer s.m.Unlock()
	rows, err := s.db.Query("SELECT id, created_at, player1, player2, winner, player1_score, player2_score, bet, deals FROM truco_matches")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]MatchRecord, error) {
	var results []MatchRecord
	for rows.Next() {
		var rec MatchRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.CreatedAt,
			&rec.Player1,
			&rec.Player2,
			&rec.Winner,
			&rec.Player1Score,
			&rec.Player2Score,
			&rec.Bet,
			&rec.Deals,
		); err != nil {
			return nil, err
		}
		results = append(results, rec)
	}
	return results, rows.Err()
}
