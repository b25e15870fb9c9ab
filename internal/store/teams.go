package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Team membership and logs are owned by the team service; this package only reads
// them, plus the seeding helpers below for development databases and tests.

// LogTeam returns the team of a live log that userID can access.
func (s *Store) LogTeam(ctx context.Context, userID, logID string) (string, error) {
	var teamID string
	err := s.db.QueryRowContext(ctx, `SELECT l.teamId FROM logs l
		JOIN team_memberships tm ON l.teamId = tm.teamId
		WHERE l.id = ? AND tm.userId = ? AND l.deletedAt IS NULL`, logID, userID).Scan(&teamID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("log access: %w", err)
	}
	return teamID, nil
}

// DefaultTeamID returns the team the user joined first.
func (s *Store) DefaultTeamID(ctx context.Context, userID string) (string, error) {
	var teamID string
	err := s.db.QueryRowContext(ctx,
		"SELECT teamId FROM team_memberships WHERE userId = ? ORDER BY createdAt ASC, teamId ASC LIMIT 1",
		userID).Scan(&teamID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("default team: %w", err)
	}
	return teamID, nil
}

// AddTeamMember seeds a membership. Re-adding an existing member updates the role.
func (s *Store) AddTeamMember(ctx context.Context, teamID, userID, role string) error {
	if role == "" {
		role = "member"
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO team_memberships (teamId, userId, role, createdAt)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(teamId, userId) DO UPDATE SET role = excluded.role`,
		teamID, userID, role, s.stamp())
	if err != nil {
		return fmt.Errorf("add team member: %w", err)
	}
	return nil
}

// CreateLog seeds a log owned by teamID.
func (s *Store) CreateLog(ctx context.Context, id, teamID, title string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO logs (id, teamId, title, createdAt) VALUES (?, ?, ?, ?)",
		id, teamID, title, s.stamp())
	if err != nil {
		return fmt.Errorf("create log: %w", err)
	}
	return nil
}

// DeleteLog soft-deletes a log.
func (s *Store) DeleteLog(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE logs SET deletedAt = ? WHERE id = ? AND deletedAt IS NULL", s.stamp(), id)
	if err != nil {
		return fmt.Errorf("delete log: %w", err)
	}
	return expectRow(res)
}
