package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"smartcook/internal/auth"
	"smartcook/internal/images"
	"smartcook/internal/photos"
	"smartcook/internal/recipes"
	"smartcook/internal/recommend"
	"smartcook/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type stubHost struct{}

func (stubHost) DirectUpload(context.Context, map[string]any) (images.Upload, error) {
	return images.Upload{ImageID: "img-up", UploadURL: "https://upload.example/img-up"}, nil
}

func (stubHost) SignedURL(_ context.Context, imageID, variant string) (string, error) {
	return "https://cdn.example/" + imageID + "/" + variant, nil
}

type stubModel struct{ reply string }

func (m stubModel) Name() string { return "stub" }
func (m stubModel) Complete(context.Context, string, string) (string, error) {
	return m.reply, nil
}

type testEnv struct {
	srv   *httptest.Server
	st    *store.Store
	alice string
	bob   string
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	st, err := store.Open(ctx, filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	require.NoError(t, st.AddTeamMember(ctx, "team_1", "alice", "owner"))
	require.NoError(t, st.CreateLog(ctx, "log_1", "team_1", "Dinner"))

	ta, err := auth.NewTokenAuth("test-secret")
	require.NoError(t, err)
	alice, err := ta.Issue("alice", time.Hour)
	require.NoError(t, err)
	bob, err := ta.Issue("bob", time.Hour)
	require.NoError(t, err)

	s := NewServer(Deps{
		Auth:        ta,
		Recipes:     recipes.NewService(st),
		Photos:      photos.NewService(st, stubHost{}),
		Recommender: recommend.New(stubModel{reply: "```json\n[{\"title\":\"Omelette\"}]\n```"}, nil),
		DB:          st,
		Logger:      zaptest.NewLogger(t),
	})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, st: st, alice: alice, bob: bob}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (int, map[string]any, []byte) {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var obj map[string]any
	_ = json.Unmarshal(raw, &obj)
	return resp.StatusCode, obj, raw
}

func TestHealth(t *testing.T) {
	e := newEnv(t)
	code, body, _ := e.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestUnauthorized(t *testing.T) {
	e := newEnv(t)
	for _, path := range []string{"/api/recipes", "/api/photos?teamId=team_1", "/api/photos/signed-url?id=x"} {
		code, body, _ := e.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, code, path)
		assert.Equal(t, "Unauthorized", body["error"], path)
	}
	code, _, _ := e.do(t, http.MethodGet, "/api/recipes", "forged.token.value", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRecipesFlow(t *testing.T) {
	e := newEnv(t)

	code, body, _ := e.do(t, http.MethodPost, "/api/recipes", e.alice, map[string]any{
		"title":        "Shakshuka",
		"description":  "Eggs poached in tomato",
		"ingredients":  []string{"eggs", "tomatoes"},
		"instructions": []string{"simmer", "crack"},
	})
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, true, body["success"])
	id := body["recipeId"].(string)
	assert.Regexp(t, `^recipe_[0-9a-f]{8}$`, id)

	code, body, _ = e.do(t, http.MethodGet, "/api/recipes", e.alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["recipes"], 1)

	code, body, _ = e.do(t, http.MethodGet, "/api/recipes/"+id, e.alice, nil)
	require.Equal(t, http.StatusOK, code)
	rec := body["recipe"].(map[string]any)
	assert.Equal(t, "Shakshuka", rec["title"])
	assert.Equal(t, "alice", rec["userId"])

	code, body, _ = e.do(t, http.MethodGet, "/api/recipes/"+id, e.bob, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Recipe not found", body["error"])

	code, body, _ = e.do(t, http.MethodPut, "/api/recipes/"+id, e.alice, map[string]any{"complexity": "easy"})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, true, body["success"])

	code, _, _ = e.do(t, http.MethodPut, "/api/recipes/"+id, e.bob, map[string]any{"complexity": "hard"})
	assert.Equal(t, http.StatusNotFound, code)

	code, _, _ = e.do(t, http.MethodDelete, "/api/recipes/"+id, e.bob, nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _, _ = e.do(t, http.MethodDelete, "/api/recipes/"+id, e.alice, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _, _ = e.do(t, http.MethodGet, "/api/recipes/"+id, e.alice, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestRecipesValidation(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
	}{
		{"missing title", http.MethodPost, "/api/recipes", map[string]any{"ingredients": []string{}, "instructions": []string{}}},
		{"wrong type", http.MethodPost, "/api/recipes", map[string]any{"title": "x", "ingredients": "eggs", "instructions": []string{}}},
		{"not json", http.MethodPost, "/api/recipes", "{"},
		{"put wrong type", http.MethodPut, "/api/recipes/recipe_x", map[string]any{"ingredients": 3}},
		{"recommend empty", http.MethodPost, "/api/recipes/recommend", map[string]any{"ingredients": []string{}}},
		{"recommend bad enum", http.MethodPost, "/api/recipes/recommend", map[string]any{"ingredients": []string{"egg"}, "prepTime": "instant"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body, raw := e.do(t, tt.method, tt.path, e.alice, tt.body)
			require.Equal(t, http.StatusBadRequest, code, string(raw))
			assert.Equal(t, "Validation error", body["error"])
			assert.NotEmpty(t, body["details"])
		})
	}
}

func TestRecommend(t *testing.T) {
	e := newEnv(t)
	code, body, raw := e.do(t, http.MethodPost, "/api/recipes/recommend", e.alice,
		map[string]any{"ingredients": []string{"eggs"}})
	require.Equal(t, http.StatusOK, code, string(raw))
	list := body["recipes"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, "Omelette", list[0].(map[string]any)["title"])
}

func TestPhotosFlow(t *testing.T) {
	e := newEnv(t)

	code, body, raw := e.do(t, http.MethodPost, "/api/photos", e.alice, map[string]any{
		"imageId": "img-1", "filename": "dinner.jpg", "logId": "log_1",
		"metadata": map[string]any{"filetype": "image/webp", "filesize": 1234},
	})
	require.Equal(t, http.StatusCreated, code, string(raw))
	id := body["id"].(string)
	assert.Equal(t, "team_1", body["teamId"])
	assert.Equal(t, "image/webp", body["contentType"])
	assert.EqualValues(t, 1234, body["size"])

	code, body, _ = e.do(t, http.MethodGet, "/api/photos?id="+id, e.alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "https://cdn.example/img-1/public", body["url"])

	code, _, raw = e.do(t, http.MethodGet, "/api/photos?teamId=team_1", e.alice, nil)
	require.Equal(t, http.StatusOK, code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(raw, &list))
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0]["id"])

	code, body, _ = e.do(t, http.MethodGet, "/api/photos", e.alice, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Team ID is required", body["message"])

	code, body, _ = e.do(t, http.MethodGet, "/api/photos/signed-url?id="+id+"&variant=thumb", e.alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "https://cdn.example/img-1/thumb", body["url"])

	code, body, _ = e.do(t, http.MethodGet, "/api/photos/signed-url", e.alice, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Photo ID is required", body["error"])

	code, body, _ = e.do(t, http.MethodGet, "/api/photos/signed-url?id="+id, e.bob, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Photo not found", body["error"])

	code, body, _ = e.do(t, http.MethodDelete, "/api/photos", e.alice, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid input", body["message"])

	code, _, _ = e.do(t, http.MethodDelete, "/api/photos?id="+id, e.bob, nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, body, _ = e.do(t, http.MethodDelete, "/api/photos?id="+id, e.alice, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])

	code, _, _ = e.do(t, http.MethodGet, "/api/photos?id="+id, e.alice, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestPhotosSaveErrors(t *testing.T) {
	e := newEnv(t)

	code, body, _ := e.do(t, http.MethodPost, "/api/photos", e.alice, map[string]any{"imageId": "img-1"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid input", body["message"])

	code, _, _ = e.do(t, http.MethodPost, "/api/photos", e.bob,
		map[string]any{"imageId": "i", "filename": "f", "logId": "log_1"})
	assert.Equal(t, http.StatusBadRequest, code, "bob has no team")

	require.NoError(t, e.st.AddTeamMember(context.Background(), "team_2", "bob", ""))
	code, body, _ = e.do(t, http.MethodPost, "/api/photos", e.bob,
		map[string]any{"imageId": "i", "filename": "f", "logId": "log_1"})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Log not found or you do not have access to it", body["message"])
}

func TestPhotosMove(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.st.CreateLog(ctx, "log_2", "team_1", "Lunch"))

	code, body, raw := e.do(t, http.MethodPost, "/api/photos", e.alice,
		map[string]any{"imageId": "img-1", "filename": "dinner.jpg", "logId": "log_1"})
	require.Equal(t, http.StatusCreated, code, string(raw))
	id := body["id"].(string)

	code, body, raw = e.do(t, http.MethodPatch, "/api/photos", e.alice, map[string]any{"id": id, "logId": "log_2"})
	require.Equal(t, http.StatusOK, code, string(raw))
	assert.Equal(t, "log_2", body["logId"])
	assert.Equal(t, "https://cdn.example/img-1/public", body["url"])

	code, _, raw = e.do(t, http.MethodGet, "/api/photos?logId=log_2", e.alice, nil)
	require.Equal(t, http.StatusOK, code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(raw, &list))
	require.Len(t, list, 1)

	code, body, _ = e.do(t, http.MethodPatch, "/api/photos", e.alice, map[string]any{"id": id, "logId": nil})
	require.Equal(t, http.StatusOK, code)
	assert.Nil(t, body["logId"])

	tests := []struct {
		name  string
		token string
		body  map[string]any
		code  int
		msg   string
	}{
		{"missing logId", e.alice, map[string]any{"id": id}, http.StatusBadRequest, "Invalid input"},
		{"wrong logId type", e.alice, map[string]any{"id": id, "logId": 7}, http.StatusBadRequest, "Invalid input"},
		{"unknown log", e.alice, map[string]any{"id": id, "logId": "log_9"}, http.StatusNotFound, "Log not found or you do not have access to it"},
		{"foreign photo", e.bob, map[string]any{"id": id, "logId": "log_1"}, http.StatusNotFound, "Photo not found or you do not have access"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body, _ := e.do(t, http.MethodPatch, "/api/photos", tt.token, tt.body)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.msg, body["message"])
		})
	}
}

func TestUploadURL(t *testing.T) {
	e := newEnv(t)
	code, body, _ := e.do(t, http.MethodGet, "/api/photos/upload-url", e.alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "img-up", body["imageId"])
	assert.Equal(t, "https://upload.example/img-up", body["uploadURL"])
}

func TestSchema_Parse(t *testing.T) {
	var in recipes.Input
	err := recipesPostSchema.Parse([]byte(`{"title":"","ingredients":[1],"instructions":[]}`), &in)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	paths := map[string]bool{}
	for _, d := range ve.Details {
		paths[d.Path] = true
	}
	assert.True(t, paths["/title"], ve.Details)
	assert.True(t, paths["/ingredients/0"], ve.Details)

	require.NoError(t, recipesPostSchema.Parse([]byte(`{"title":"t","ingredients":[],"instructions":[],"extra":1}`), &in))
	assert.Equal(t, "t", in.Title)
}
