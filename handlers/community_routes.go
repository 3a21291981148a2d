package handlers

import (
	"greened-backend/middleware"
	"greened-backend/models"
	"greened-backend/services"
	"greened-backend/utils"

	"github.com/gofiber/fiber/v2"
)

type createPostRequest struct {
	Title    string   `json:"title" validate:"required,max=200"`
	Content  string   `json:"content" validate:"required,max=20000"`
	Category string   `json:"category" validate:"required,max=64"`
	Tags     []string `json:"tags" validate:"max=10,dive,max=32"`
}

type createReplyRequest struct {
	Content       string `json:"content" validate:"required,max=10000"`
	ParentReplyID string `json:"parent_reply_id" validate:"omitempty,uuid"`
}

type trackEventRequest struct {
	EventType string           `json:"event_type" validate:"required,max=64"`
	EventData models.EventData `json:"event_data"`
	SessionID string           `json:"session_id" validate:"max=128"`
}

type chatRequest struct {
	Messages []services.ChatMessage `json:"messages" validate:"required,min=1,dive"`
	Model    string                 `json:"model" validate:"max=128"`
}

// SetupCommunityRoutes mounts forums, opportunities, analytics, chat and seed.
func SetupCommunityRoutes(r Routers, forums *services.ForumService, opps *services.OpportunityService,
	analytics *services.AnalyticsService, chat *services.ChatService, seed *services.SeedService) {

	r.Public.Get("/forums/posts", func(c *fiber.Ctx) error {
		limit := utils.QueryLimit(c.Query("limit"), services.DefaultForumLimit, 100)
		rows, err := forums.Posts(c.UserContext(), c.Query("category"), limit)
		if err != nil {
			return respondError(c, "failed to load posts", err)
		}
		return c.JSON(rows)
	})

	r.Public.Get("/forums/posts/:id", func(c *fiber.Ctx) error {
		post, err := forums.Post(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, "failed to load post", err)
		}
		return c.JSON(post)
	})

	r.Secured.Post("/forums/posts", func(c *fiber.Ctx) error {
		var req createPostRequest
		if err := parseBody(c, &req); err != nil {
			return badRequest(c, err)
		}
		post, err := forums.CreatePost(c.UserContext(), middleware.SessionFrom(c), services.NewPostInput{
			Title:    req.Title,
			Content:  req.Content,
			Category: req.Category,
			Tags:     req.Tags,
		})
		if err != nil {
			return respondError(c, "failed to create post", err)
		}
		return c.Status(fiber.StatusCreated).JSON(post)
	})

	r.Secured.Post("/forums/posts/:id/replies", func(c *fiber.Ctx) error {
		var req createReplyRequest
		if err := parseBody(c, &req); err != nil {
			return badRequest(c, err)
		}
		reply, err := forums.CreateReply(c.UserContext(), middleware.SessionFrom(c), services.NewReplyInput{
			PostID:        c.Params("id"),
			Content:       req.Content,
			ParentReplyID: req.ParentReplyID,
		})
		if err != nil {
			return respondError(c, "failed to create reply", err)
		}
		return c.Status(fiber.StatusCreated).JSON(reply)
	})

	r.Public.Get("/opportunities", func(c *fiber.Ctx) error {
		rows, err := opps.List(c.UserContext(), services.OpportunityFilter{
			Type:     c.Query("type"),
			Category: c.Query("category"),
			Limit:    utils.QueryLimit(c.Query("limit"), services.DefaultOpportunityLimit, 100),
		})
		if err != nil {
			return respondError(c, "failed to load opportunities", err)
		}
		return c.JSON(rows)
	})

	r.Public.Get("/opportunities/:id", func(c *fiber.Ctx) error {
		o, err := opps.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, "failed to load opportunity", err)
		}
		return c.JSON(o)
	})

	r.Public.Post("/analytics/events", func(c *fiber.Ctx) error {
		var req trackEventRequest
		if err := parseBody(c, &req); err != nil {
			return badRequest(c, err)
		}
		ev, err := analytics.Track(c.UserContext(), middleware.SessionFrom(c), services.TrackEventInput{
			EventType: req.EventType,
			EventData: req.EventData,
			SessionID: req.SessionID,
			UserAgent: c.Get(fiber.HeaderUserAgent),
		})
		if err != nil {
			return respondError(c, "failed to track event", err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": ev.ID})
	})

	r.Admin.Get("/analytics", func(c *fiber.Ctx) error {
		dash, err := analytics.Dashboard(c.UserContext(), middleware.SessionFrom(c))
		if err != nil {
			return respondError(c, "failed to load analytics", err)
		}
		return c.JSON(dash)
	})

	r.Public.Post("/chat", func(c *fiber.Ctx) error {
		var req chatRequest
		if err := parseBody(c, &req); err != nil {
			return badRequest(c, err)
		}
		reply, err := chat.Reply(c.UserContext(), req.Messages, req.Model)
		if err != nil {
			return respondError(c, "chat is unavailable", err)
		}
		return c.JSON(reply)
	})

	r.Admin.Post("/seed", func(c *fiber.Ctx) error {
		res, err := seed.SeedAsAdmin(c.UserContext(), middleware.SessionFrom(c))
		if err != nil {
			return respondError(c, "seeding failed", err)
		}
		return c.JSON(res)
	})
}
