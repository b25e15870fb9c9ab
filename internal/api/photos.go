package api

import (
	"errors"
	"net/http"
	"smartcook/internal/images"
	"smartcook/internal/photos"
	"time"
)

func (s *Server) savePhoto(w http.ResponseWriter, r *http.Request) {
	var in photos.SaveInput
	if err := photosPostSchema.ParseReader(r.Body, &in); err != nil {
		s.validationFailed(w, r, err, true)
		return
	}
	p, err := s.Photos.Save(r.Context(), userID(r), in)
	switch {
	case errors.Is(err, photos.ErrNoTeam):
		writeJSON(w, http.StatusBadRequest, messageBody("No default team found. Please create or join a team first."))
	case errors.Is(err, photos.ErrLogNotFound):
		writeJSON(w, http.StatusNotFound, messageBody("Log not found or you do not have access to it"))
	case err != nil:
		s.internalError(w, r, err, "Failed to save photo information", true)
	default:
		writeJSON(w, http.StatusCreated, p)
	}
}

// getPhotos serves ?id= (one photo) or ?teamId= (the team's photos).
func (s *Server) getPhotos(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if id := q.Get("id"); id != "" {
		p, err := s.Photos.Get(r.Context(), userID(r), id)
		if errors.Is(err, photos.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, messageBody("Photo not found or you do not have access"))
			return
		}
		if err != nil {
			s.internalError(w, r, err, "Failed to fetch photos", true)
			return
		}
		writeJSON(w, http.StatusOK, p)
		return
	}

	var (
		list []photos.Photo
		err  error
	)
	switch {
	case q.Get("teamId") != "":
		list, err = s.Photos.ListTeam(r.Context(), userID(r), q.Get("teamId"))
	case q.Get("logId") != "":
		list, err = s.Photos.ListLog(r.Context(), userID(r), q.Get("logId"))
	default:
		writeJSON(w, http.StatusBadRequest, messageBody("Team ID is required"))
		return
	}
	if err != nil {
		s.internalError(w, r, err, "Failed to fetch photos", true)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) deletePhoto(w http.ResponseWriter, r *http.Request) {
	var target struct {
		ID string `json:"id"`
	}
	if err := photosDeleteSchema.ParseValue(map[string]string{"id": r.URL.Query().Get("id")}, &target); err != nil {
		s.validationFailed(w, r, err, true)
		return
	}
	err := s.Photos.Delete(r.Context(), userID(r), target.ID)
	if errors.Is(err, photos.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, messageBody("Photo not found or you do not have access"))
		return
	}
	if err != nil {
		s.internalError(w, r, err, "Failed to delete photo", true)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// movePhoto attaches a photo to another log; a null or empty logId unassigns it.
func (s *Server) movePhoto(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ID    string  `json:"id"`
		LogID *string `json:"logId"`
	}
	if err := photosPatchSchema.ParseReader(r.Body, &in); err != nil {
		s.validationFailed(w, r, err, true)
		return
	}
	err := s.Photos.Move(r.Context(), userID(r), in.ID, in.LogID)
	switch {
	case errors.Is(err, photos.ErrNotFound):
		writeJSON(w, http.StatusNotFound, messageBody("Photo not found or you do not have access"))
		return
	case errors.Is(err, photos.ErrLogNotFound):
		writeJSON(w, http.StatusNotFound, messageBody("Log not found or you do not have access to it"))
		return
	case err != nil:
		s.internalError(w, r, err, "Failed to move photo", true)
		return
	}

	p, err := s.Photos.Get(r.Context(), userID(r), in.ID)
	if err != nil {
		s.internalError(w, r, err, "Failed to move photo", true)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) uploadURL(w http.ResponseWriter, r *http.Request) {
	up, err := s.Photos.UploadURL(r.Context(), userID(r), s.now().UTC().Format(time.RFC3339))
	if err != nil {
		s.log.Sugar().Warnw("upload URL request failed", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "Failed to get upload URL"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "uploadURL": up.UploadURL, "imageId": up.ImageID})
}

func (s *Server) signedURL(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("Photo ID is required"))
		return
	}
	variant := r.URL.Query().Get("variant")
	if variant == "" {
		variant = images.DefaultVariant
	}

	u, err := s.Photos.SignedURL(r.Context(), userID(r), id, variant)
	switch {
	case errors.Is(err, photos.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("Photo not found"))
	case errors.Is(err, photos.ErrNoImage):
		writeJSON(w, http.StatusNotFound, errorBody("Photo has no associated image"))
	case err != nil:
		s.internalError(w, r, err, "Failed to get signed URL", false)
	default:
		writeJSON(w, http.StatusOK, map[string]string{"url": u})
	}
}
