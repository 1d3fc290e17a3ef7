package publication_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JGomezGutierrez/api-rest-social-network/internal/publication"
	"github.com/JGomezGutierrez/api-rest-social-network/internal/router"
	"github.com/JGomezGutierrez/api-rest-social-network/internal/storage"
	"github.com/JGomezGutierrez/api-rest-social-network/internal/token"
)

type fakeRepo struct {
	mu   sync.Mutex
	pubs map[string]publication.Publication
	seq  int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{pubs: map[string]publication.Publication{}}
}

func (f *fakeRepo) Insert(_ context.Context, p *publication.Publication) (*publication.Publication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *p
	stored.ID = uuid.NewString()
	stored.CreatedAt = time.Unix(int64(f.seq), 0)
	f.seq++
	f.pubs[stored.ID] = stored
	out := stored
	return &out, nil
}

func (f *fakeRepo) FindByID(_ context.Context, id string) (*publication.Publication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.pubs[id]; ok {
		out := p
		return &out, nil
	}
	return nil, publication.ErrNotFound
}

func (f *fakeRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.pubs[id]; !ok {
		return publication.ErrNotFound
	}
	delete(f.pubs, id)
	return nil
}

func (f *fakeRepo) selectSorted(match func(publication.Publication) bool) []publication.Publication {
	var out []publication.Publication
	for _, p := range f.pubs {
		if match(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func paginate(pubs []publication.Publication, page, limit int) ([]publication.Publication, int64) {
	total := int64(len(pubs))
	start := (page - 1) * limit
	if start >= len(pubs) {
		return nil, total
	}
	end := start + limit
	if end > len(pubs) {
		end = len(pubs)
	}
	return pubs[start:end], total
}

func (f *fakeRepo) ByUser(_ context.Context, userID string, page, limit int) ([]publication.Publication, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pubs, total := paginate(f.selectSorted(func(p publication.Publication) bool {
		return p.UserID == userID
	}), page, limit)
	return pubs, total, nil
}

func (f *fakeRepo) Feed(_ context.Context, authorIDs []string, page, limit int) ([]publication.Publication, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	authors := map[string]bool{}
	for _, id := range authorIDs {
		authors[id] = true
	}
	pubs, total := paginate(f.selectSorted(func(p publication.Publication) bool {
		return authors[p.UserID]
	}), page, limit)
	return pubs, total, nil
}

func (f *fakeRepo) SetFile(_ context.Context, id, key string) (*publication.Publication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pubs[id]
	if !ok {
		return nil, publication.ErrNotFound
	}
	p.File = &key
	f.pubs[id] = p
	out := p
	return &out, nil
}

type staticFollows map[string][]string

func (s staticFollows) FollowingIDs(_ context.Context, userID string) ([]string, error) {
	return s[userID], nil
}

type testEnv struct {
	app    *fiber.App
	repo   *fakeRepo
	tokens *token.Service
}

func newTestEnv(t *testing.T, follows staticFollows) *testEnv {
	t.Helper()

	repo := newFakeRepo()
	tokens := token.NewService([]byte("test-secret"), time.Hour)
	blobs, err := storage.NewDiskStore(t.TempDir())
	require.NoError(t, err)

	zl := zap.NewNop()
	h := &publication.Handler{Repo: repo, Follows: follows, Blobs: blobs, Log: zl}

	app := fiber.New(fiber.Config{ErrorHandler: router.ErrorHandler(zl)})
	auth := router.NewAuthMiddleware(tokens)
	app.Post("/publications/new-publication", auth, h.Save)
	app.Get("/publications/show-publication/:id", auth, h.Show)
	app.Delete("/publications/delete-publication/:id", auth, h.Delete)
	app.Get("/publications/publications-user/:id/:page?", auth, h.ByUser)
	app.Post("/publications/upload-media/:id", auth, h.UploadMedia)
	app.Get("/publications/media/:file", h.Media)
	app.Get("/publications/feed/:page?", auth, h.Feed)

	return &testEnv{app: app, repo: repo, tokens: tokens}
}

func (e *testEnv) do(t *testing.T, method, path, tok string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok != "" {
		req.Header.Set("Authorization", tok)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return resp, payload
}

func TestSavePublication(t *testing.T) {
	t.Parallel()

	actor := uuid.NewString()
	env := newTestEnv(t, staticFollows{})
	tok, err := env.tokens.Issue(actor, "role_user")
	require.NoError(t, err)

	resp, payload := env.do(t, "POST", "/publications/new-publication", tok, fiber.Map{"text": "hola mundo"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	pub := payload["publication"].(map[string]any)
	assert.Equal(t, actor, pub["user_id"])
	assert.Equal(t, "hola mundo", pub["text"])

	resp, _ = env.do(t, "POST", "/publications/new-publication", tok, fiber.Map{"text": "   "})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestShowPublicationNotFound(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, staticFollows{})
	tok, err := env.tokens.Issue(uuid.NewString(), "role_user")
	require.NoError(t, err)

	resp, _ := env.do(t, "GET", "/publications/show-publication/"+uuid.NewString(), tok, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestDeletePublicationOwnership(t *testing.T) {
	t.Parallel()

	author := uuid.NewString()
	stranger := uuid.NewString()
	env := newTestEnv(t, staticFollows{})

	created, err := env.repo.Insert(context.Background(), &publication.Publication{
		UserID: author, Text: "mine",
	})
	require.NoError(t, err)

	tokStranger, err := env.tokens.Issue(stranger, "role_user")
	require.NoError(t, err)
	resp, _ := env.do(t, "DELETE", "/publications/delete-publication/"+created.ID, tokStranger, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	tokAuthor, err := env.tokens.Issue(author, "role_user")
	require.NoError(t, err)
	resp, _ = env.do(t, "DELETE", "/publications/delete-publication/"+created.ID, tokAuthor, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	_, err = env.repo.FindByID(context.Background(), created.ID)
	assert.ErrorIs(t, err, publication.ErrNotFound)
}

func TestFeedScopedToFollowedAuthors(t *testing.T) {
	t.Parallel()

	actor := uuid.NewString()
	followedA := uuid.NewString()
	followedB := uuid.NewString()
	unrelated := uuid.NewString()

	env := newTestEnv(t, staticFollows{actor: {followedA, followedB}})
	ctx := context.Background()

	for i, author := range []string{followedA, unrelated, followedB, followedA} {
		_, err := env.repo.Insert(ctx, &publication.Publication{
			UserID: author, Text: "post " + string(rune('0'+i)),
		})
		require.NoError(t, err)
	}

	tok, err := env.tokens.Issue(actor, "role_user")
	require.NoError(t, err)

	resp, payload := env.do(t, "GET", "/publications/feed/1", tok, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	pubs := payload["publications"].([]any)
	require.Len(t, pubs, 3)
	assert.Equal(t, float64(3), payload["totalDocs"])

	var last time.Time
	for i, raw := range pubs {
		p := raw.(map[string]any)
		author := p["user_id"].(string)
		assert.Contains(t, []string{followedA, followedB}, author)

		at, err := time.Parse(time.RFC3339, p["created_at"].(string))
		require.NoError(t, err)
		if i > 0 {
			assert.False(t, at.After(last), "feed must be ordered newest first")
		}
		last = at
	}
}

func TestFeedEmptyIsNotAnError(t *testing.T) {
	t.Parallel()

	actor := uuid.NewString()
	env := newTestEnv(t, staticFollows{})
	tok, err := env.tokens.Issue(actor, "role_user")
	require.NoError(t, err)

	resp, payload := env.do(t, "GET", "/publications/feed", tok, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "success", payload["status"])
	assert.Len(t, payload["publications"], 0)
	assert.Equal(t, float64(0), payload["totalDocs"])
}

func TestPublicationsByUserPagination(t *testing.T) {
	t.Parallel()

	author := uuid.NewString()
	env := newTestEnv(t, staticFollows{})
	ctx := context.Background()
	for i := 0; i < 7; i++ {
		_, err := env.repo.Insert(ctx, &publication.Publication{UserID: author, Text: "p"})
		require.NoError(t, err)
	}

	tok, err := env.tokens.Issue(author, "role_user")
	require.NoError(t, err)

	resp, payload := env.do(t, "GET", "/publications/publications-user/"+author+"/2?limit=5", tok, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(7), payload["totalDocs"])
	assert.Equal(t, float64(2), payload["totalPages"])
	assert.Len(t, payload["publications"], 2)
	assert.Equal(t, false, payload["hasNextPage"])
}

func TestUploadMediaOwnership(t *testing.T) {
	t.Parallel()

	author := uuid.NewString()
	stranger := uuid.NewString()
	env := newTestEnv(t, staticFollows{})

	created, err := env.repo.Insert(context.Background(), &publication.Publication{
		UserID: author, Text: "with media",
	})
	require.NoError(t, err)

	tok, err := env.tokens.Issue(stranger, "role_user")
	require.NoError(t, err)

	resp, _ := env.do(t, "POST", "/publications/upload-media/"+created.ID, tok, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
