package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Photo is an uploaded image record scoped to a team and optionally attached to a log.
type Photo struct {
	ID          string     `json:"id"`
	TeamID      string     `json:"teamId"`
	CreatorID   string     `json:"creatorId"`
	Filename    string     `json:"filename"`
	ImageID     *string    `json:"imageId,omitempty"`
	LogID       *string    `json:"logId"`
	ContentType string     `json:"contentType"`
	Size        int64      `json:"size"`
	Metadata    *string    `json:"metadata,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	DeletedAt   *time.Time `json:"deletedAt,omitempty"`
}

const photoColumns = `p.id, p.teamId, p.creatorId, p.filename, p.imageId, p.logId, p.contentType,
	p.size, p.metadata, p.createdAt, p.updatedAt, p.deletedAt`

func scanPhoto(row rowScanner) (*Photo, error) {
	var (
		p                        Photo
		imageID, logID, metadata sql.NullString
		createdAt, updatedAt     string
		deletedAt                sql.NullString
	)
	if err := row.Scan(&p.ID, &p.TeamID, &p.CreatorID, &p.Filename, &imageID, &logID,
		&p.ContentType, &p.Size, &metadata, &createdAt, &updatedAt, &deletedAt); err != nil {
		return nil, err
	}
	if imageID.Valid {
		p.ImageID = &imageID.String
	}
	if logID.Valid {
		p.LogID = &logID.String
	}
	if metadata.Valid {
		p.Metadata = &metadata.String
	}
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	p.DeletedAt = parseNullTime(deletedAt)
	return &p, nil
}

func (s *Store) queryPhotos(ctx context.Context, query string, args ...interface{}) ([]Photo, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query photos: %w", err)
	}
	defer rows.Close()

	photos := []Photo{}
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		photos = append(photos, *p)
	}
	return photos, rows.Err()
}

// GetPhoto returns a live photo visible to userID through team membership.
func (s *Store) GetPhoto(ctx context.Context, userID, id string) (*Photo, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+photoColumns+` FROM photos p
		JOIN team_memberships tm ON p.teamId = tm.teamId
		WHERE p.id = ? AND tm.userId = ? AND p.deletedAt IS NULL`, id, userID)
	p, err := scanPhoto(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get photo: %w", err)
	}
	return p, nil
}

// ListTeamPhotos returns the team's live photos if userID is a member.
func (s *Store) ListTeamPhotos(ctx context.Context, userID, teamID string) ([]Photo, error) {
	return s.queryPhotos(ctx, `SELECT `+photoColumns+` FROM photos p
		JOIN team_memberships tm ON p.teamId = tm.teamId
		WHERE p.teamId = ? AND tm.userId = ? AND p.deletedAt IS NULL
		ORDER BY p.updatedAt DESC`, teamID, userID)
}

// ListLogPhotos returns the live photos attached to a log visible to userID.
func (s *Store) ListLogPhotos(ctx context.Context, userID, logID string) ([]Photo, error) {
	return s.queryPhotos(ctx, `SELECT `+photoColumns+` FROM photos p
		JOIN team_memberships tm ON p.teamId = tm.teamId
		WHERE p.logId = ? AND tm.userId = ? AND p.deletedAt IS NULL
		ORDER BY p.updatedAt DESC`, logID, userID)
}

// InsertPhoto stores p, filling CreatedAt and UpdatedAt.
func (s *Store) InsertPhoto(ctx context.Context, p *Photo) error {
	now := s.stamp()
	_, err := s.db.ExecContext(ctx, `INSERT INTO photos
		(id, teamId, creatorId, filename, imageId, logId, contentType, size, metadata, createdAt, updatedAt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.TeamID, p.CreatorID, p.Filename, p.ImageID, p.LogID, p.ContentType, p.Size,
		p.Metadata, now, now)
	if err != nil {
		return fmt.Errorf("insert photo: %w", err)
	}
	p.CreatedAt = parseTime(now)
	p.UpdatedAt = p.CreatedAt
	return nil
}

// SoftDeletePhoto marks a live photo deleted.
func (s *Store) SoftDeletePhoto(ctx context.Context, id string) error {
	now := s.stamp()
	res, err := s.db.ExecContext(ctx,
		"UPDATE photos SET deletedAt = ?, updatedAt = ? WHERE id = ? AND deletedAt IS NULL", now, now, id)
	if err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	return expectRow(res)
}

// MovePhoto attaches a photo to logID, or detaches it when logID is nil.
func (s *Store) MovePhoto(ctx context.Context, id string, logID *string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE photos SET logId = ?, updatedAt = ? WHERE id = ?", logID, s.stamp(), id)
	if err != nil {
		return fmt.Errorf("move photo: %w", err)
	}
	return expectRow(res)
}
