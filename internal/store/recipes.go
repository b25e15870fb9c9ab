package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Recipe is a saved recipe owned by one user.
type Recipe struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	PreparationTime string    `json:"preparationTime"`
	Complexity      string    `json:"complexity"`
	Ingredients     []string  `json:"ingredients"`
	Instructions    []string  `json:"instructions"`
	Image           *string   `json:"image"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// RecipeUpdate lists the fields to change; nil fields are left alone.
type RecipeUpdate struct {
	Title           *string
	Description     *string
	PreparationTime *string
	Complexity      *string
	Ingredients     []string
	Instructions    []string
	Image           *string
}

const recipeColumns = `id, userId, title, description, preparationTime, complexity,
	ingredients, instructions, image, createdAt, updatedAt`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecipe(row rowScanner) (*Recipe, error) {
	var (
		r                    Recipe
		ingredients, instrs  string
		image                sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&r.ID, &r.UserID, &r.Title, &r.Description, &r.PreparationTime,
		&r.Complexity, &ingredients, &instrs, &image, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(ingredients), &r.Ingredients); err != nil {
		return nil, fmt.Errorf("recipe %s: decode ingredients: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(instrs), &r.Instructions); err != nil {
		return nil, fmt.Errorf("recipe %s: decode instructions: %w", r.ID, err)
	}
	if image.Valid {
		r.Image = &image.String
	}
	r.CreatedAt = parseTime(createdAt)
	r.UpdatedAt = parseTime(updatedAt)
	return &r, nil
}

func encodeList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	b, err := json.Marshal(list)
	return string(b), err
}

// ListRecipes returns the user's recipes, most recently updated first.
func (s *Store) ListRecipes(ctx context.Context, userID string) ([]Recipe, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+recipeColumns+" FROM recipes WHERE userId = ? ORDER BY updatedAt DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	defer rows.Close()

	recipes := []Recipe{}
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, *r)
	}
	return recipes, rows.Err()
}

// GetRecipe returns one of the user's recipes.
func (s *Store) GetRecipe(ctx context.Context, userID, id string) (*Recipe, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+recipeColumns+" FROM recipes WHERE id = ? AND userId = ?", id, userID)
	r, err := scanRecipe(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	return r, nil
}

// InsertRecipe stores r, filling CreatedAt and UpdatedAt.
func (s *Store) InsertRecipe(ctx context.Context, r *Recipe) error {
	ingredients, err := encodeList(r.Ingredients)
	if err != nil {
		return err
	}
	instrs, err := encodeList(r.Instructions)
	if err != nil {
		return err
	}
	now := s.stamp()

	_, err = s.db.ExecContext(ctx, `INSERT INTO recipes (`+recipeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.Title, r.Description, r.PreparationTime, r.Complexity,
		ingredients, instrs, r.Image, now, now)
	if err != nil {
		return fmt.Errorf("insert recipe: %w", err)
	}
	r.CreatedAt = parseTime(now)
	r.UpdatedAt = r.CreatedAt
	return nil
}

// UpdateRecipe applies the non-nil fields of u and bumps updatedAt.
func (s *Store) UpdateRecipe(ctx context.Context, userID, id string, u RecipeUpdate) error {
	var (
		sets []string
		args []interface{}
	)
	set := func(col string, v interface{}) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	if u.Title != nil {
		set("title", *u.Title)
	}
	if u.Description != nil {
		set("description", *u.Description)
	}
	if u.PreparationTime != nil {
		set("preparationTime", *u.PreparationTime)
	}
	if u.Complexity != nil {
		set("complexity", *u.Complexity)
	}
	if u.Ingredients != nil {
		v, err := encodeList(u.Ingredients)
		if err != nil {
			return err
		}
		set("ingredients", v)
	}
	if u.Instructions != nil {
		v, err := encodeList(u.Instructions)
		if err != nil {
			return err
		}
		set("instructions", v)
	}
	if u.Image != nil {
		set("image", *u.Image)
	}
	set("updatedAt", s.stamp())
	args = append(args, id, userID)

	res, err := s.db.ExecContext(ctx,
		"UPDATE recipes SET "+strings.Join(sets, ", ")+" WHERE id = ? AND userId = ?", args...)
	if err != nil {
		return fmt.Errorf("update recipe: %w", err)
	}
	return expectRow(res)
}

// DeleteRecipe removes one of the user's recipes.
func (s *Store) DeleteRecipe(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM recipes WHERE id = ? AND userId = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	return expectRow(res)
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
