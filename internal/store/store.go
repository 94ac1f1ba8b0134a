// Package store keeps a local ledger of genesis deployments in sqlite.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

var ErrNotFound = errors.New("deployment not found")

// Deployment is one recorded genesis run.
type Deployment struct {
	ID        string
	ChainID   int64
	Network   string
	TxHash    string
	Deployer  string
	MinDelay  int64
	Timelock  string
	Token     string
	Governor  string
	Treasury  string
	Kernel    string
	Members   []string
	CreatedAt time.Time
}

type DB struct {
	db *sql.DB
}

func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	s := &DB{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *DB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS deployments (
		id TEXT PRIMARY KEY,
		chain_id INTEGER NOT NULL,
		network TEXT NOT NULL,
		tx_hash TEXT NOT NULL,
		deployer TEXT NOT NULL,
		min_delay INTEGER NOT NULL,
		timelock TEXT NOT NULL,
		token TEXT NOT NULL,
		governor TEXT NOT NULL,
		treasury TEXT NOT NULL,
		kernel TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS members (
		deployment_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		address TEXT NOT NULL,
		PRIMARY KEY (deployment_id, position),
		FOREIGN KEY (deployment_id) REFERENCES deployments(id)
	);

	CREATE INDEX IF NOT EXISTS idx_deployments_chain
		ON deployments(chain_id, created_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

// Record persists a deployment, assigning an id and timestamp when
// absent. Members are stored in their minted order.
func (s *DB) Record(d *Deployment) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO deployments
		 (id, chain_id, network, tx_hash, deployer, min_delay, timelock, token, governor, treasury, kernel, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.ChainID, d.Network, d.TxHash, d.Deployer, d.MinDelay,
		d.Timelock, d.Token, d.Governor, d.Treasury, d.Kernel, d.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert deployment: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO members (deployment_id, position, address) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, member := range d.Members {
		if _, err := stmt.Exec(d.ID, i, member); err != nil {
			return fmt.Errorf("insert member: %w", err)
		}
	}

	return tx.Commit()
}

// Get loads a deployment and its member list by id.
func (s *DB) Get(id string) (*Deployment, error) {
	d := &Deployment{}
	err := s.db.QueryRow(
		`SELECT id, chain_id, network, tx_hash, deployer, min_delay, timelock, token, governor, treasury, kernel, created_at
		 FROM deployments WHERE id = ?`, id,
	).Scan(&d.ID, &d.ChainID, &d.Network, &d.TxHash, &d.Deployer, &d.MinDelay,
		&d.Timelock, &d.Token, &d.Governor, &d.Treasury, &d.Kernel, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(
		`SELECT address FROM members WHERE deployment_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return nil, err
		}
		d.Members = append(d.Members, addr)
	}
	return d, rows.Err()
}

// HasTx reports whether a deployment with this transaction hash is
// already recorded. Step-path rows carry no hash and never match.
func (s *DB) HasTx(txHash string) (bool, error) {
	if txHash == "" {
		return false, nil
	}
	var n int
	err := s.db.QueryRow(`SELECT COUNT(1) FROM deployments WHERE tx_hash = ?`, txHash).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// List returns the most recent deployments, newest first, without
// member lists.
func (s *DB) List(limit int) ([]Deployment, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, chain_id, network, tx_hash, deployer, min_delay, timelock, token, governor, treasury, kernel, created_at
		 FROM deployments ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Deployment
	for rows.Next() {
		var d Deployment
		err := rows.Scan(&d.ID, &d.ChainID, &d.Network, &d.TxHash, &d.Deployer, &d.MinDelay,
			&d.Timelock, &d.Token, &d.Governor, &d.Treasury, &d.Kernel, &d.CreatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *DB) Close() error {
	return s.db.Close()
}
