package room

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for room persistence.
type Repository interface {
	List(ctx context.Context, search string) ([]*Room, error)
	GetByID(ctx context.Context, id string) (*Room, error)
	Create(ctx context.Context, room *Room) error
	Update(ctx context.Context, room *Room) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewRepository creates a new SQLite-backed room repository.
func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// roomColumns joins rooms to users so every read carries the owner's
// username without a second query.
const roomColumns = `
	SELECT r.id, r.title, r.owner_id, u.username, r.created_at
	FROM rooms r
	JOIN users u ON u.id = r.owner_id`

// List returns all rooms newest-first. A non-empty search narrows the
// result to rooms whose title contains the term, case-insensitively.
func (r *SQLiteRepository) List(ctx context.Context, search string) ([]*Room, error) {
	query := roomColumns
	var args []any
	if search != "" {
		query += ` WHERE lower(r.title) LIKE '%' || lower(?) || '%' ESCAPE '\'`
		args = append(args, escapeLike(search))
	}
	query += ` ORDER BY r.created_at DESC, r.id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing rooms: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	rooms := []*Room{}
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, rm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rooms: %w", err)
	}

	return rooms, nil
}

// GetByID retrieves a single room by its unique ID.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Room, error) {
	row := r.db.QueryRowContext(ctx, roomColumns+` WHERE r.id = ?`, id)

	rm, err := scanRoom(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return rm, nil
}

// Create inserts a new room. The ID is generated if empty.
func (r *SQLiteRepository) Create(ctx context.Context, room *Room) error {
	if room.ID == "" {
		room.ID = "room-" + uuid.NewString()[:8]
	}

	now := time.Now().UTC().Format(time.RFC3339)
	room.CreatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO rooms (id, title, owner_id, created_at)
		 VALUES (?, ?, ?, ?)`,
		room.ID, room.Title, room.OwnerID, now,
	)
	if err != nil {
		return fmt.Errorf("creating room: %w", err)
	}

	return nil
}

// Update persists a changed title. Ownership is checked by the caller;
// the repository only cares whether the row exists.
func (r *SQLiteRepository) Update(ctx context.Context, room *Room) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE rooms SET title = ? WHERE id = ?`,
		room.Title, room.ID,
	)
	if err != nil {
		return fmt.Errorf("updating room: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return ErrRoomNotFound
	}

	return nil
}

// Delete removes a room by ID.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting room: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return ErrRoomNotFound
	}

	return nil
}

// Count returns the total number of rooms.
func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rooms`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting rooms: %w", err)
	}
	return count, nil
}

// escapeLike escapes LIKE wildcards in a search term so it matches
// titles literally rather than as a pattern.
func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanRoom scans a single joined room row.
func scanRoom(s scanner) (*Room, error) {
	var rm Room
	var createdAt string

	err := s.Scan(&rm.ID, &rm.Title, &rm.OwnerID, &rm.OwnerUsername, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning room: %w", err)
	}

	rm.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled

	return &rm, nil
}
