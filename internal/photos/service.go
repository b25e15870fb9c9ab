// Package photos manages team-scoped photo records whose binaries live on the image host.
package photos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"smartcook/internal/images"
	"smartcook/internal/logging"
	"smartcook/internal/store"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned for photos that do not exist, are deleted, or belong to another team.
	ErrNotFound = errors.New("photo not found or you do not have access")
	// ErrLogNotFound is returned when the target log is missing or not visible.
	ErrLogNotFound = errors.New("log not found or you do not have access to it")
	// ErrNoTeam is returned when the user has not joined any team.
	ErrNoTeam = errors.New("no default team found, please create or join a team first")
	// ErrNoImage is returned when a photo has no image on the host.
	ErrNoImage = errors.New("photo has no associated image")
)

const defaultContentType = "image/jpeg"

// Photo is a stored photo plus a signed retrieval URL (empty when unavailable).
type Photo struct {
	store.Photo
	URL string `json:"url"`
}

// Repository is the persistence the service needs. *store.Store satisfies it.
type Repository interface {
	DefaultTeamID(ctx context.Context, userID string) (string, error)
	LogTeam(ctx context.Context, userID, logID string) (string, error)
	GetPhoto(ctx context.Context, userID, id string) (*store.Photo, error)
	ListTeamPhotos(ctx context.Context, userID, teamID string) ([]store.Photo, error)
	ListLogPhotos(ctx context.Context, userID, logID string) ([]store.Photo, error)
	InsertPhoto(ctx context.Context, p *store.Photo) error
	SoftDeletePhoto(ctx context.Context, id string) error
	MovePhoto(ctx context.Context, id string, logID *string) error
}

// Service implements photo operations for an authenticated user.
type Service struct {
	repo  Repository
	host  images.Host
	newID func() string
}

// NewService creates a Service.
func NewService(repo Repository, host images.Host) *Service {
	return &Service{repo: repo, host: host, newID: uuid.NewString}
}

// SaveInput is the record created after a client finished a direct upload.
type SaveInput struct {
	ImageID  string         `json:"imageId"`
	Filename string         `json:"filename"`
	LogID    string         `json:"logId"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Save records an uploaded image against a log the user can access. The photo
// belongs to the log's team.
func (s *Service) Save(ctx context.Context, userID string, in SaveInput) (*store.Photo, error) {
	if _, err := s.repo.DefaultTeamID(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNoTeam
		}
		return nil, fmt.Errorf("resolve team: %w", err)
	}

	teamID, err := s.repo.LogTeam(ctx, userID, in.LogID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			logging.Get(logging.CategoryStore).Warn("Log %s not found or not visible to %s", in.LogID, userID)
			return nil, ErrLogNotFound
		}
		return nil, fmt.Errorf("resolve log: %w", err)
	}

	meta := make(map[string]any, len(in.Metadata)+1)
	for k, v := range in.Metadata {
		meta[k] = v
	}
	meta["uploadedBy"] = userID

	contentType := defaultContentType
	if ft, ok := meta["filetype"]; ok && ft != nil {
		if v := fmt.Sprint(ft); v != "" {
			contentType = v
		}
	}
	var size int64
	if fs, ok := meta["filesize"].(float64); ok {
		size = int64(fs)
	}

	encoded, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	metaStr := string(encoded)
	imageID := in.ImageID
	logID := in.LogID

	p := &store.Photo{
		ID:          s.newID(),
		TeamID:      teamID,
		CreatorID:   userID,
		Filename:    in.Filename,
		ImageID:     &imageID,
		LogID:       &logID,
		ContentType: contentType,
		Size:        size,
		Metadata:    &metaStr,
	}
	if err := s.repo.InsertPhoto(ctx, p); err != nil {
		logging.Audit(logging.AuditPhotoSave, userID, p.ID, false, err.Error())
		return nil, fmt.Errorf("save photo: %w", err)
	}
	logging.Audit(logging.AuditPhotoSave, userID, p.ID, true, "")
	logging.Store("Saved photo %s (team=%s, log=%s)", p.ID, teamID, logID)
	return p, nil
}

func (s *Service) get(ctx context.Context, userID, id string) (*store.Photo, error) {
	p, err := s.repo.GetPhoto(ctx, userID, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get photo: %w", err)
	}
	return p, nil
}

// withURL attaches a signed URL. Signing failures leave the URL empty.
func (s *Service) withURL(ctx context.Context, p store.Photo, variant string) Photo {
	out := Photo{Photo: p}
	if p.ImageID == nil || *p.ImageID == "" {
		return out
	}
	u, err := s.host.SignedURL(ctx, *p.ImageID, variant)
	if err != nil {
		logging.Get(logging.CategoryImages).Warn("Could not sign URL for photo %s: %v", p.ID, err)
		return out
	}
	out.URL = u
	return out
}

func (s *Service) withURLs(ctx context.Context, list []store.Photo) []Photo {
	out := make([]Photo, 0, len(list))
	for _, p := range list {
		out = append(out, s.withURL(ctx, p, images.DefaultVariant))
	}
	return out
}

// Get returns one visible photo with its URL.
func (s *Service) Get(ctx context.Context, userID, id string) (*Photo, error) {
	p, err := s.get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	out := s.withURL(ctx, *p, images.DefaultVariant)
	return &out, nil
}

// ListTeam returns the team's photos, most recently updated first.
func (s *Service) ListTeam(ctx context.Context, userID, teamID string) ([]Photo, error) {
	list, err := s.repo.ListTeamPhotos(ctx, userID, teamID)
	if err != nil {
		return nil, fmt.Errorf("list team photos: %w", err)
	}
	return s.withURLs(ctx, list), nil
}

// ListLog returns the photos attached to a log.
func (s *Service) ListLog(ctx context.Context, userID, logID string) ([]Photo, error) {
	list, err := s.repo.ListLogPhotos(ctx, userID, logID)
	if err != nil {
		return nil, fmt.Errorf("list log photos: %w", err)
	}
	return s.withURLs(ctx, list), nil
}

// Delete soft-deletes a visible photo.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.get(ctx, userID, id); err != nil {
		return err
	}
	err := s.repo.SoftDeletePhoto(ctx, id)
	logging.Audit(logging.AuditPhotoDelete, userID, id, err == nil, errString(err))
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	return nil
}

// Move attaches a photo to logID, or unassigns it when logID is nil.
func (s *Service) Move(ctx context.Context, userID, id string, logID *string) error {
	if _, err := s.get(ctx, userID, id); err != nil {
		return err
	}
	if logID != nil && *logID != "" {
		if _, err := s.repo.LogTeam(ctx, userID, *logID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrLogNotFound
			}
			return fmt.Errorf("resolve log: %w", err)
		}
	} else {
		logID = nil
	}

	err := s.repo.MovePhoto(ctx, id, logID)
	logging.Audit(logging.AuditPhotoMove, userID, id, err == nil, errString(err))
	if err != nil {
		return fmt.Errorf("move photo: %w", err)
	}
	return nil
}

// SignedURL returns a retrieval URL for a photo the user can see.
func (s *Service) SignedURL(ctx context.Context, userID, id, variant string) (string, error) {
	p, err := s.get(ctx, userID, id)
	if err != nil {
		return "", err
	}
	if p.ImageID == nil || *p.ImageID == "" {
		return "", ErrNoImage
	}
	if variant == "" {
		variant = images.DefaultVariant
	}
	return s.host.SignedURL(ctx, *p.ImageID, variant)
}

// UploadURL asks the image host for a one-time upload slot tagged with the user.
func (s *Service) UploadURL(ctx context.Context, userID string, uploadedAt string) (images.Upload, error) {
	return s.host.DirectUpload(ctx, map[string]any{
		"userId":     userID,
		"uploadedAt": uploadedAt,
	})
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
