package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/JGomezGutierrez/api-rest-social-network/internal/follow"
	"github.com/JGomezGutierrez/api-rest-social-network/internal/publication"
	"github.com/JGomezGutierrez/api-rest-social-network/internal/user"
)

type Router struct {
	Users        *user.Handler
	Follows      *follow.Handler
	Publications *publication.Handler
	AuthMW       fiber.Handler
}

func (r *Router) RegisterRoutes(app *fiber.App) {
	users := app.Group("/user")
	users.Post("/register", RateLimitAuth(), r.Users.Register)
	users.Post("/login", RateLimitAuth(), r.Users.Login)
	users.Get("/profile/:id", r.AuthMW, r.Users.Profile)
	users.Get("/list/:page?", r.AuthMW, r.Users.List)
	users.Put("/update", r.AuthMW, r.Users.Update)
	users.Post("/upload-avatar", r.AuthMW, r.Users.UploadAvatar)
	users.Get("/avatar/:file", r.Users.Avatar)

	follows := app.Group("/follow")
	follows.Post("/follow", r.AuthMW, r.Follows.Follow)
	follows.Delete("/unfollow/:id", r.AuthMW, r.Follows.Unfollow)
	follows.Get("/following/:id?/:page?", r.AuthMW, r.Follows.Following)
	follows.Get("/followers/:id?/:page?", r.AuthMW, r.Follows.Followers)

	pubs := app.Group("/publications")
	pubs.Post("/new-publication", r.AuthMW, r.Publications.Save)
	pubs.Get("/show-publication/:id", r.AuthMW, r.Publications.Show)
	pubs.Delete("/delete-publication/:id", r.AuthMW, r.Publications.Delete)
	pubs.Get("/publications-user/:id/:page?", r.AuthMW, r.Publications.ByUser)
	pubs.Post("/upload-media/:id", r.AuthMW, r.Publications.UploadMedia)
	pubs.Get("/media/:file", r.Publications.Media)
	pubs.Get("/feed/:page?", r.AuthMW, r.Publications.Feed)
}
