package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

var ErrDuplicateCategory = errors.New("category already exists")

// SQLiteStore holds the knowledge-base document catalog: the cards the
// documents page lists, filters by category, and searches by title. Catalog
// metadata only; uploaded files are never persisted anywhere.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err = store.seed(); err != nil {
		return nil, fmt.Errorf("failed to seed catalog: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS categories (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        name TEXT UNIQUE NOT NULL
    );

    CREATE TABLE IF NOT EXISTS documents (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        title TEXT NOT NULL,
        category TEXT NOT NULL,
        size_bytes INTEGER NOT NULL DEFAULT 0,
        uploaded_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (category) REFERENCES categories (name)
    );
    `
	_, err := s.db.Exec(schema)
	return err
}

// seed populates the starter catalog once, so a fresh install has cards on
// the documents page.
func (s *SQLiteStore) seed() error {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM categories").Scan(&count); err != nil {
		return fmt.Errorf("failed to count categories: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	for _, name := range []string{"manuals", "schematics", "procedures", "reports"} {
		if _, err := tx.Exec("INSERT INTO categories (name) VALUES (?)", name); err != nil {
			return fmt.Errorf("failed to seed category %s: %w", name, err)
		}
	}

	seedDocs := []Document{
		{Title: "Allen-Bradley CompactLogix Setup Guide", Category: "manuals", SizeBytes: 2_411_520},
		{Title: "Panel Wiring Schematic - Line 3", Category: "schematics", SizeBytes: 876_544},
		{Title: "Lockout/Tagout Procedure", Category: "procedures", SizeBytes: 145_408},
		{Title: "VFD Commissioning Checklist", Category: "procedures", SizeBytes: 98_304},
		{Title: "Q2 Downtime Analysis Report", Category: "reports", SizeBytes: 1_204_224},
	}
	for _, d := range seedDocs {
		if _, err := tx.Exec("INSERT INTO documents (title, category, size_bytes) VALUES (?, ?, ?)",
			d.Title, d.Category, d.SizeBytes); err != nil {
			return fmt.Errorf("failed to seed document %s: %w", d.Title, err)
		}
	}
	return tx.Commit()
}

// ListDocuments filters the catalog by category ("" or "all" means every
// category) and by a case-insensitive title substring query.
func (s *SQLiteStore) ListDocuments(category, query string) ([]Document, error) {
	q := "SELECT id, title, category, size_bytes, uploaded_at FROM documents"
	var conds []string
	var args []any
	if category != "" && category != "all" {
		conds = append(conds, "category = ?")
		args = append(args, category)
	}
	if query != "" {
		conds = append(conds, "LOWER(title) LIKE ?")
		args = append(args, "%"+strings.ToLower(query)+"%")
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY uploaded_at DESC, id DESC"

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Title, &d.Category, &d.SizeBytes, &d.UploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (s *SQLiteStore) ListCategories() ([]Category, error) {
	rows, err := s.db.Query("SELECT id, name FROM categories ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var cats []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (s *SQLiteStore) AddCategory(name string) (*Category, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, fmt.Errorf("category name is empty")
	}

	res, err := s.db.Exec("INSERT INTO categories (name) VALUES (?)", name)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, ErrDuplicateCategory
		}
		return nil, fmt.Errorf("failed to insert category: %w", err)
	}
	id, _ := res.LastInsertId()
	return &Category{ID: id, Name: name}, nil
}

// CategoryExists is what the upload flow uses to validate its category pick.
func (s *SQLiteStore) CategoryExists(name string) (bool, error) {
	var one int
	err := s.db.QueryRow("SELECT 1 FROM categories WHERE name = ?", name).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query category: %w", err)
	}
	return true, nil
}
