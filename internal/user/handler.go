package user

import (
	"context"
	"errors"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/JGomezGutierrez/api-rest-social-network/internal/apperr"
	"github.com/JGomezGutierrez/api-rest-social-network/internal/pagination"
	"github.com/JGomezGutierrez/api-rest-social-network/internal/password"
	"github.com/JGomezGutierrez/api-rest-social-network/internal/storage"
	"github.com/JGomezGutierrez/api-rest-social-network/internal/token"
)

// MaxAvatarBytes is the upload size ceiling.
const MaxAvatarBytes = 5 << 20

var allowedExtensions = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "gif": true,
}

type Handler struct {
	Repo   Repository
	Hasher password.Hasher
	Tokens *token.Service
	Blobs  storage.Store
	Log    *zap.Logger
}

func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.New(apperr.Validation, "invalid request body")
	}

	if req.Name == "" || req.LastName == "" || req.Email == "" || req.Password == "" || req.Nick == "" {
		return apperr.New(apperr.Validation, "missing required fields")
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Nick = strings.ToLower(strings.TrimSpace(req.Nick))

	ctx := userContext(c)

	// Fast-fail check; the unique indexes are the real guarantee.
	exists, err := h.Repo.ExistsByEmailOrNick(ctx, req.Email, req.Nick)
	if err != nil {
		return h.storageError(err, "checking for existing user")
	}
	if exists {
		return apperr.New(apperr.Conflict, "the user already exists")
	}

	hashed, err := h.Hasher.Hash(req.Password)
	if err != nil {
		return h.storageError(err, "hashing password")
	}

	created, err := h.Repo.Insert(ctx, &User{
		Name:     req.Name,
		LastName: req.LastName,
		Bio:      req.Bio,
		Nick:     req.Nick,
		Email:    req.Email,
		Password: hashed,
	})
	if errors.Is(err, ErrDuplicate) {
		return apperr.New(apperr.Conflict, "the user already exists")
	}
	if err != nil {
		return h.storageError(err, "inserting user")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status":  "success",
		"message": "user registered successfully",
		"user":    created.Public(),
	})
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.New(apperr.Validation, "invalid request body")
	}

	if req.Email == "" || req.Password == "" {
		return apperr.New(apperr.Validation, "missing required fields")
	}

	u, err := h.Repo.FindByEmail(userContext(c), req.Email)
	if errors.Is(err, ErrNotFound) {
		return apperr.New(apperr.NotFound, "user not found")
	}
	if err != nil {
		return h.storageError(err, "looking up user")
	}

	if !h.Hasher.Verify(req.Password, u.Password) {
		return apperr.New(apperr.Authentication, "incorrect password")
	}

	tok, err := h.Tokens.Issue(u.ID, u.Role)
	if err != nil {
		return h.storageError(err, "issuing token")
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "login successful",
		"token":   tok,
		"user": fiber.Map{
			"id":         u.ID,
			"name":       u.Name,
			"last_name":  u.LastName,
			"bio":        u.Bio,
			"email":      u.Email,
			"nick":       u.Nick,
			"role":       u.Role,
			"image":      u.Image,
			"created_at": u.CreatedAt,
		},
	})
}

func (h *Handler) Profile(c *fiber.Ctx) error {
	u, err := h.Repo.FindByID(userContext(c), c.Params("id"))
	if errors.Is(err, ErrNotFound) {
		return apperr.New(apperr.NotFound, "user not found")
	}
	if err != nil {
		return h.storageError(err, "looking up user")
	}

	return c.JSON(fiber.Map{
		"status": "success",
		"user":   u.Public(),
	})
}

func (h *Handler) List(c *fiber.Ctx) error {
	page, _ := c.ParamsInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := c.QueryInt("limit", pagination.DefaultLimit)
	if limit < 1 {
		limit = pagination.DefaultLimit
	}

	users, total, err := h.Repo.List(userContext(c), page, limit)
	if err != nil {
		return h.storageError(err, "listing users")
	}
	if len(users) == 0 {
		return apperr.New(apperr.NotFound, "no users available")
	}

	public := make([]PublicUser, 0, len(users))
	for _, u := range users {
		public = append(public, u.Public())
	}

	meta := pagination.New(total, page, limit)
	return c.JSON(fiber.Map{
		"status":      "success",
		"users":       public,
		"totalDocs":   meta.TotalDocs,
		"totalPages":  meta.TotalPages,
		"page":        meta.Page,
		"hasPrevPage": meta.HasPrevPage,
		"hasNextPage": meta.HasNextPage,
		"prevPage":    meta.PrevPage,
		"nextPage":    meta.NextPage,
	})
}

func (h *Handler) Update(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}

	var req updateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.New(apperr.Validation, "invalid request body")
	}

	if req.Email == "" || req.Nick == "" {
		return apperr.New(apperr.Validation, "missing required fields")
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Nick = strings.ToLower(strings.TrimSpace(req.Nick))

	ctx := userContext(c)

	conflict, err := h.Repo.ExistsOther(ctx, actor, req.Email, req.Nick)
	if err != nil {
		return h.storageError(err, "checking for conflicting user")
	}
	if conflict {
		return apperr.New(apperr.Conflict, "you can only update the data of the logged-in user")
	}

	current, err := h.Repo.FindByID(ctx, actor)
	if errors.Is(err, ErrNotFound) {
		return apperr.New(apperr.NotFound, "user not found")
	}
	if err != nil {
		return h.storageError(err, "looking up user")
	}

	current.Email = req.Email
	current.Nick = req.Nick
	if req.Name != "" {
		current.Name = req.Name
	}
	if req.LastName != "" {
		current.LastName = req.LastName
	}
	if req.Bio != nil {
		current.Bio = req.Bio
	}
	if req.Password != "" {
		hashed, err := h.Hasher.Hash(req.Password)
		if err != nil {
			return h.storageError(err, "hashing password")
		}
		current.Password = hashed
	}

	updated, err := h.Repo.Update(ctx, current)
	if errors.Is(err, ErrDuplicate) {
		return apperr.New(apperr.Conflict, "you can only update the data of the logged-in user")
	}
	if errors.Is(err, ErrNotFound) {
		return apperr.New(apperr.NotFound, "could not update the user")
	}
	if err != nil {
		return h.storageError(err, "updating user")
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "user updated successfully",
		"user":    updated.Public(),
	})
}

func (h *Handler) UploadAvatar(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}

	fh, err := c.FormFile("file0")
	if err != nil {
		return apperr.New(apperr.Validation, "the request includes no file")
	}

	ctx := userContext(c)

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fh.Filename), "."))
	key := storage.NewKey("avatar", ext)

	f, err := fh.Open()
	if err != nil {
		return h.storageError(err, "opening upload")
	}
	defer f.Close()

	if err := h.Blobs.Save(ctx, key, f); err != nil {
		return h.storageError(err, "saving upload")
	}

	// The blob is written first and removed again on a failed check,
	// mirroring how multipart uploads land on disk before validation.
	if !allowedExtensions[ext] {
		h.discard(ctx, key)
		return apperr.New(apperr.Validation, "invalid file extension")
	}
	if fh.Size > MaxAvatarBytes {
		h.discard(ctx, key)
		return apperr.New(apperr.Validation, "the file exceeds the maximum size")
	}

	updated, err := h.Repo.SetImage(ctx, actor, key)
	if errors.Is(err, ErrNotFound) {
		h.discard(ctx, key)
		return apperr.New(apperr.NotFound, "user not found")
	}
	if err != nil {
		return h.storageError(err, "updating avatar")
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "avatar uploaded successfully",
		"user":    updated.Public(),
	})
}

func (h *Handler) Avatar(c *fiber.Ctx) error {
	file := c.Params("file")

	rc, err := h.Blobs.Open(userContext(c), file)
	if err != nil {
		if apperr.KindOf(err) == apperr.NotFound {
			return err
		}
		return h.storageError(err, "opening avatar")
	}

	if ct := mime.TypeByExtension(filepath.Ext(file)); ct != "" {
		c.Set(fiber.HeaderContentType, ct)
	}
	return c.SendStream(rc)
}

func (h *Handler) discard(ctx context.Context, key string) {
	if err := h.Blobs.Delete(ctx, key); err != nil {
		h.Log.Warn("could not delete rejected upload", zap.String("key", key), zap.Error(err))
	}
}

func (h *Handler) storageError(err error, during string) error {
	h.Log.Error("user store failure", zap.String("during", during), zap.Error(err))
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
