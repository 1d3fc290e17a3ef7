package follow

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JGomezGutierrez/api-rest-social-network/internal/apperr"
	"github.com/JGomezGutierrez/api-rest-social-network/internal/pagination"
	"github.com/JGomezGutierrez/api-rest-social-network/internal/user"
)

type Handler struct {
	Repo Repository
	Log  *zap.Logger
}

// Follow creates the edge actor → followed. Re-following is a no-op that
// returns the existing edge.
func (h *Handler) Follow(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}

	var req followRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.New(apperr.Validation, "invalid request body")
	}

	if _, err := uuid.Parse(req.Followed); err != nil {
		return apperr.New(apperr.Validation, "missing or invalid user to follow")
	}
	if req.Followed == actor {
		return apperr.New(apperr.Validation, "you cannot follow yourself")
	}

	edge, err := h.Repo.Insert(userContext(c), actor, req.Followed)
	if errors.Is(err, ErrUserNotFound) {
		return apperr.New(apperr.NotFound, "user not found")
	}
	if err != nil {
		return h.storageError(err, "saving follow")
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "user followed successfully",
		"follow":  edge,
	})
}

// Unfollow removes the edge; unfollowing an account that is not followed
// succeeds without effect.
func (h *Handler) Unfollow(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}

	target := c.Params("id")
	if _, err := uuid.Parse(target); err != nil {
		return apperr.New(apperr.Validation, "missing or invalid user to unfollow")
	}

	if err := h.Repo.Delete(userContext(c), actor, target); err != nil {
		return h.storageError(err, "deleting follow")
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "user unfollowed successfully",
	})
}

func (h *Handler) Following(c *fiber.Ctx) error {
	return h.list(c, true)
}

func (h *Handler) Followers(c *fiber.Ctx) error {
	return h.list(c, false)
}

func (h *Handler) list(c *fiber.Ctx, following bool) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}

	id := c.Params("id")
	if id == "" {
		id = actor
	} else if _, err := uuid.Parse(id); err != nil {
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

	ctx := userContext(c)
	var (
		users []user.User
		total int64
	)
	if following {
		users, total, err = h.Repo.Following(ctx, id, page, limit)
	} else {
		users, total, err = h.Repo.Followers(ctx, id, page, limit)
	}
	if err != nil {
		return h.storageError(err, "listing follows")
	}

	public := make([]user.PublicUser, 0, len(users))
	for _, u := range users {
		public = append(public, u.Public())
	}

	meta := pagination.New(total, page, limit)
	payload := fiber.Map{
		"status":      "success",
		"totalDocs":   meta.TotalDocs,
		"totalPages":  meta.TotalPages,
		"page":        meta.Page,
		"hasPrevPage": meta.HasPrevPage,
		"hasNextPage": meta.HasNextPage,
		"prevPage":    meta.PrevPage,
		"nextPage":    meta.NextPage,
	}
	if following {
		payload["following"] = public
	} else {
		payload["followers"] = public
	}
	return c.JSON(payload)
}

func (h *Handler) storageError(err error, during string) error {
	h.Log.Error("follow store failure", zap.String("during", during), zap.Error(err))
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
