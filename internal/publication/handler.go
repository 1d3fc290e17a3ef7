package publication

import (
	"context"
	"errors"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JGomezGutierrez/api-rest-social-network/internal/apperr"
	"github.com/JGomezGutierrez/api-rest-social-network/internal/pagination"
	"github.com/JGomezGutierrez/api-rest-social-network/internal/storage"
	"github.com/JGomezGutierrez/api-rest-social-network/internal/user"
)

// MaxMediaBytes matches the avatar upload ceiling.
const MaxMediaBytes = user.MaxAvatarBytes

var allowedExtensions = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "gif": true,
}

// FollowProvider yields the set of account ids the actor follows. The
// follow repository satisfies it.
type FollowProvider interface {
	FollowingIDs(ctx context.Context, userID string) ([]string, error)
}

type Handler struct {
	Repo    Repository
	Follows FollowProvider
	Blobs   storage.Store
	Log     *zap.Logger
}

func (h *Handler) Save(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}

	var req saveRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.New(apperr.Validation, "invalid request body")
	}
	if strings.TrimSpace(req.Text) == "" {
		return apperr.New(apperr.Validation, "the publication has no text")
	}

	created, err := h.Repo.Insert(userContext(c), &Publication{
		UserID: actor,
		Text:   req.Text,
	})
	if err != nil {
		return h.storageError(err, "saving publication")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status":      "success",
		"message":     "publication saved successfully",
		"publication": created,
	})
}

func (h *Handler) Show(c *fiber.Ctx) error {
	p, err := h.Repo.FindByID(userContext(c), c.Params("id"))
	if errors.Is(err, ErrNotFound) {
		return apperr.New(apperr.NotFound, "publication not found")
	}
	if err != nil {
		return h.storageError(err, "looking up publication")
	}

	return c.JSON(fiber.Map{
		"status":      "success",
		"publication": p,
	})
}

// Delete removes one of the actor's own publications along with its
// media blob.
func (h *Handler) Delete(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}

	ctx := userContext(c)
	p, err := h.Repo.FindByID(ctx, c.Params("id"))
	if errors.Is(err, ErrNotFound) {
		return apperr.New(apperr.NotFound, "publication not found")
	}
	if err != nil {
		return h.storageError(err, "looking up publication")
	}
	if p.UserID != actor {
		return apperr.New(apperr.Forbidden, "you can only delete your own publications")
	}

	if err := h.Repo.Delete(ctx, p.ID); err != nil && !errors.Is(err, ErrNotFound) {
		return h.storageError(err, "deleting publication")
	}
	if p.File != nil {
		if err := h.Blobs.Delete(ctx, *p.File); err != nil {
			h.Log.Warn("could not delete publication media", zap.String("key", *p.File), zap.Error(err))
		}
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "publication deleted successfully",
	})
}

func (h *Handler) ByUser(c *fiber.Ctx) error {
	if _, err := actorID(c); err != nil {
		return err
	}

	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return apperr.New(apperr.Validation, "invalid user id")
	}

	page, _ := c.ParamsInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := c.QueryInt("limit", pagination.DefaultLimit)
	if limit < 1 {
		limit = pagination.DefaultLimit
	}

	pubs, total, err := h.Repo.ByUser(userContext(c), id, page, limit)
	if err != nil {
		return h.storageError(err, "listing publications")
	}

	return c.JSON(h.pagePayload(pubs, total, page, limit))
}

// Feed merges the publications of every account the actor follows,
// newest first.
func (h *Handler) Feed(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}

	page, _ := c.ParamsInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := c.QueryInt("limit", pagination.DefaultLimit)
	if limit < 1 {
		limit = pagination.DefaultLimit
	}

	ctx := userContext(c)
	ids, err := h.Follows.FollowingIDs(ctx, actor)
	if err != nil {
		return h.storageError(err, "computing followed set")
	}

	pubs, total, err := h.Repo.Feed(ctx, ids, page, limit)
	if err != nil {
		return h.storageError(err, "querying feed")
	}

	return c.JSON(h.pagePayload(pubs, total, page, limit))
}

func (h *Handler) UploadMedia(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}

	ctx := userContext(c)
	p, err := h.Repo.FindByID(ctx, c.Params("id"))
	if errors.Is(err, ErrNotFound) {
		return apperr.New(apperr.NotFound, "publication not found")
	}
	if err != nil {
		return h.storageError(err, "looking up publication")
	}
	if p.UserID != actor {
		return apperr.New(apperr.Forbidden, "you can only attach media to your own publications")
	}

	fh, err := c.FormFile("file0")
	if err != nil {
		return apperr.New(apperr.Validation, "the request includes no file")
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fh.Filename), "."))
	key := storage.NewKey("pub", ext)

	f, err := fh.Open()
	if err != nil {
		return h.storageError(err, "opening upload")
	}
	defer f.Close()

	if err := h.Blobs.Save(ctx, key, f); err != nil {
		return h.storageError(err, "saving upload")
	}

	if !allowedExtensions[ext] {
		h.discard(ctx, key)
		return apperr.New(apperr.Validation, "invalid file extension")
	}
	if fh.Size > MaxMediaBytes {
		h.discard(ctx, key)
		return apperr.New(apperr.Validation, "the file exceeds the maximum size")
	}

	updated, err := h.Repo.SetFile(ctx, p.ID, key)
	if err != nil {
		return h.storageError(err, "updating publication media")
	}

	return c.JSON(fiber.Map{
		"status":      "success",
		"message":     "media uploaded successfully",
		"publication": updated,
	})
}

func (h *Handler) Media(c *fiber.Ctx) error {
	file := c.Params("file")

	rc, err := h.Blobs.Open(userContext(c), file)
	if err != nil {
		if apperr.KindOf(err) == apperr.NotFound {
			return err
		}
		return h.storageError(err, "opening media")
	}

	if ct := mime.TypeByExtension(filepath.Ext(file)); ct != "" {
		c.Set(fiber.HeaderContentType, ct)
	}
	return c.SendStream(rc)
}

func (h *Handler) pagePayload(pubs []Publication, total int64, page, limit int) fiber.Map {
	if pubs == nil {
		pubs = []Publication{}
	}
	meta := pagination.New(total, page, limit)
	return fiber.Map{
		"status":       "success",
		"publications": pubs,
		"totalDocs":    meta.TotalDocs,
		"totalPages":   meta.TotalPages,
		"page":         meta.Page,
		"hasPrevPage":  meta.HasPrevPage,
		"hasNextPage":  meta.HasNextPage,
		"prevPage":     meta.PrevPage,
		"nextPage":     meta.NextPage,
	}
}

func (h *Handler) discard(ctx context.Context, key string) {
	if err := h.Blobs.Delete(ctx, key); err != nil {
		h.Log.Warn("could not delete rejected upload", zap.String("key", key), zap.Error(err))
	}
}

func (h *Handler) storageError(err error, during string) error {
	h.Log.Error("publication store failure", zap.String("during", during), zap.Error(err))
	return apperr.Wrap(apperr.Storage, "internal server error", err)
}

func actorID(c *fiber.Ctx) (string, error) {
	uid, ok := c.Locals("user_id").(string)
	if !ok || uid == "" {
		return "", apperr.New(apperr.Forbidden, "the request has no authentication header")
	}
	return uid, nil
}

func userContext(c *fiber.Ctx) context.Context {
	if ctx := c.UserContext(); ctx != nil {
		return ctx
	}
	return context.Background()
}
