package api

import (
	"errors"
	"net/http"
	"smartcook/internal/recipes"
	"smartcook/internal/recommend"

	"github.com/go-chi/chi/v5"
)

func (s *Server) listRecipes(w http.ResponseWriter, r *http.Request) {
	list, err := s.Recipes.List(r.Context(), userID(r))
	if err != nil {
		s.internalError(w, r, err, "Failed to fetch recipes", false)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recipes": list})
}

func (s *Server) createRecipe(w http.ResponseWriter, r *http.Request) {
	var in recipes.Input
	if err := recipesPostSchema.ParseReader(r.Body, &in); err != nil {
		s.validationFailed(w, r, err, false)
		return
	}
	id, err := s.Recipes.Create(r.Context(), userID(r), in)
	if errors.Is(err, recipes.ErrInvalidInput) {
		s.validationFailed(w, r, &ValidationError{Details: []FieldError{{Path: "/title", Message: err.Error()}}}, false)
		return
	}
	if err != nil {
		s.internalError(w, r, err, "Failed to create recipe", false)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "recipeId": id})
}

func (s *Server) getRecipe(w http.ResponseWriter, r *http.Request) {
	rec, err := s.Recipes.Get(r.Context(), userID(r), chi.URLParam(r, "id"))
	if errors.Is(err, recipes.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody("Recipe not found"))
		return
	}
	if err != nil {
		s.internalError(w, r, err, "Failed to fetch recipe", false)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recipe": rec})
}

func (s *Server) updateRecipe(w http.ResponseWriter, r *http.Request) {
	var p recipes.Patch
	if err := recipePutSchema.ParseReader(r.Body, &p); err != nil {
		s.validationFailed(w, r, err, false)
		return
	}
	err := s.Recipes.Update(r.Context(), userID(r), chi.URLParam(r, "id"), p)
	switch {
	case errors.Is(err, recipes.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("Recipe not found"))
	case errors.Is(err, recipes.ErrInvalidInput):
		s.validationFailed(w, r, &ValidationError{Details: []FieldError{{Path: "/title", Message: err.Error()}}}, false)
	case err != nil:
		s.internalError(w, r, err, "Failed to update recipe", false)
	default:
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

func (s *Server) deleteRecipe(w http.ResponseWriter, r *http.Request) {
	var target struct {
		ID string `json:"id"`
	}
	if err := recipeDeleteSchema.ParseValue(map[string]string{"id": chi.URLParam(r, "id")}, &target); err != nil {
		s.validationFailed(w, r, err, false)
		return
	}
	err := s.Recipes.Delete(r.Context(), userID(r), target.ID)
	if errors.Is(err, recipes.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody("Recipe not found"))
		return
	}
	if err != nil {
		s.internalError(w, r, err, "Failed to delete recipe", false)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) recommend(w http.ResponseWriter, r *http.Request) {
	if s.Recommender == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("Recommendations are not configured"))
		return
	}
	var req recommend.Request
	if err := recommendPostSchema.ParseReader(r.Body, &req); err != nil {
		s.validationFailed(w, r, err, false)
		return
	}
	list, err := s.Recommender.Recommend(r.Context(), req)
	if errors.Is(err, recommend.ErrInvalidRequest) {
		s.validationFailed(w, r, &ValidationError{Details: []FieldError{{Path: "", Message: err.Error()}}}, false)
		return
	}
	if err != nil {
		s.internalError(w, r, err, "Failed to generate recipe recommendations", false)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recipes": list})
}
