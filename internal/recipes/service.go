// Package recipes manages the recipes a user has saved.
package recipes

import (
	"context"
	"errors"
	"fmt"
	"smartcook/internal/logging"
	"smartcook/internal/store"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned for missing recipes and recipes owned by someone else.
	ErrNotFound = errors.New("recipe not found")
	// ErrInvalidInput is returned when an input fails validation.
	ErrInvalidInput = errors.New("invalid recipe")
)

// Recipe is the stored recipe shape.
type Recipe = store.Recipe

// Input is the body of a create request.
type Input struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	PreparationTime string   `json:"preparationTime"`
	Complexity      string   `json:"complexity"`
	Ingredients     []string `json:"ingredients"`
	Instructions    []string `json:"instructions"`
	Image           *string  `json:"image,omitempty"`
}

// Patch is the body of an update request; absent fields stay unchanged.
type Patch struct {
	Title           *string  `json:"title,omitempty"`
	Description     *string  `json:"description,omitempty"`
	PreparationTime *string  `json:"preparationTime,omitempty"`
	Complexity      *string  `json:"complexity,omitempty"`
	Ingredients     []string `json:"ingredients,omitempty"`
	Instructions    []string `json:"instructions,omitempty"`
	Image           *string  `json:"image,omitempty"`
}

// Repository is the persistence the service needs. *store.Store satisfies it.
type Repository interface {
	ListRecipes(ctx context.Context, userID string) ([]store.Recipe, error)
	GetRecipe(ctx context.Context, userID, id string) (*store.Recipe, error)
	InsertRecipe(ctx context.Context, r *store.Recipe) error
	UpdateRecipe(ctx context.Context, userID, id string, u store.RecipeUpdate) error
	DeleteRecipe(ctx context.Context, userID, id string) error
}

// Service implements recipe operations for an authenticated user.
type Service struct {
	repo  Repository
	newID func() string
}

// NewService creates a Service backed by repo.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, newID: NewID}
}

// NewID returns a fresh recipe ID of the form recipe_<8 hex chars>.
func NewID() string {
	return "recipe_" + uuid.NewString()[:8]
}

func mapErr(op string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// List returns the user's recipes, most recently updated first.
func (s *Service) List(ctx context.Context, userID string) ([]Recipe, error) {
	recipes, err := s.repo.ListRecipes(ctx, userID)
	if err != nil {
		return nil, mapErr("list recipes", err)
	}
	return recipes, nil
}

// Get returns one of the user's recipes.
func (s *Service) Get(ctx context.Context, userID, id string) (*Recipe, error) {
	r, err := s.repo.GetRecipe(ctx, userID, id)
	if err != nil {
		return nil, mapErr("get recipe", err)
	}
	return r, nil
}

// Create stores a new recipe and returns its ID.
func (s *Service) Create(ctx context.Context, userID string, in Input) (string, error) {
	if strings.TrimSpace(in.Title) == "" {
		return "", fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	r := &store.Recipe{
		ID:              s.newID(),
		UserID:          userID,
		Title:           in.Title,
		Description:     in.Description,
		PreparationTime: in.PreparationTime,
		Complexity:      in.Complexity,
		Ingredients:     orEmpty(in.Ingredients),
		Instructions:    orEmpty(in.Instructions),
		Image:           in.Image,
	}
	if err := s.repo.InsertRecipe(ctx, r); err != nil {
		logging.Audit(logging.AuditRecipeCreate, userID, r.ID, false, err.Error())
		return "", mapErr("create recipe", err)
	}
	logging.Audit(logging.AuditRecipeCreate, userID, r.ID, true, "")
	logging.Store("Created recipe %s for %s", r.ID, userID)
	return r.ID, nil
}

// Update applies the fields present in p.
func (s *Service) Update(ctx context.Context, userID, id string, p Patch) error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return fmt.Errorf("%w: title must not be empty", ErrInvalidInput)
	}
	err := s.repo.UpdateRecipe(ctx, userID, id, store.RecipeUpdate{
		Title:           p.Title,
		Description:     p.Description,
		PreparationTime: p.PreparationTime,
		Complexity:      p.Complexity,
		Ingredients:     p.Ingredients,
		Instructions:    p.Instructions,
		Image:           p.Image,
	})
	logging.Audit(logging.AuditRecipeUpdate, userID, id, err == nil, errString(err))
	if err != nil {
		return mapErr("update recipe", err)
	}
	return nil
}

// Delete removes one of the user's recipes.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	err := s.repo.DeleteRecipe(ctx, userID, id)
	logging.Audit(logging.AuditRecipeDelete, userID, id, err == nil, errString(err))
	if err != nil {
		return mapErr("delete recipe", err)
	}
	return nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
