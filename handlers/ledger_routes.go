package handlers

import (
	"bufio"

	"greened-backend/middleware"
	"greened-backend/models"
	"greened-backend/services"
	"greened-backend/utils"

	"github.com/gofiber/fiber/v2"
)

type completeModuleRequest struct {
	TimeSpent int64 `json:"time_spent" validate:"gte=0"`
	Score     *int  `json:"score" validate:"omitempty,gte=0,lte=100"`
}

type quizAttemptRequest struct {
	Answers   []models.QuizAnswer `json:"answers" validate:"dive"`
	TimeSpent int64               `json:"time_spent" validate:"gte=0"`
}

type submissionRequest struct {
	Title       string                    `json:"title" validate:"required,max=200"`
	Description string                    `json:"description" validate:"max=5000"`
	ImageURL    string                    `json:"image_url" validate:"omitempty,url"`
	VideoURL    string                    `json:"video_url" validate:"omitempty,url"`
	Metadata    models.SubmissionMetadata `json:"metadata"`
}

type reviewRequest struct {
	Status models.SubmissionStatus `json:"status" validate:"required,oneof=approved rejected flagged"`
	Notes  string                  `json:"notes" validate:"max=2000"`
}

// SetupLedgerRoutes mounts every route that reads or moves points.
func SetupLedgerRoutes(r Routers, users *services.UserService, ledger *services.LedgerService,
	badges *services.BadgeService, leaderboard *services.LeaderboardService, evidence *services.EvidenceService) {

	r.Public.Get("/leaderboard", func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", services.DefaultLeaderboardLimit)
		entries, err := leaderboard.Top(c.UserContext(), limit)
		if err != nil {
			return respondError(c, "failed to load leaderboard", err)
		}
		return c.JSON(entries)
	})

	r.Secured.Get("/me", func(c *fiber.Ctx) error {
		profile, err := users.Me(c.UserContext(), middleware.SessionFrom(c))
		if err != nil {
			return respondError(c, "failed to load profile", err)
		}
		return c.JSON(profile)
	})

	r.Secured.Get("/progress", func(c *fiber.Ctx) error {
		rows, err := ledger.Progress(c.UserContext(), middleware.SessionFrom(c))
		if err != nil {
			return respondError(c, "failed to load progress", err)
		}
		return c.JSON(rows)
	})

	r.Secured.Post("/modules/:id/complete", func(c *fiber.Ctx) error {
		var req completeModuleRequest
		if err := parseBody(c, &req); err != nil {
			return badRequest(c, err)
		}
		res, err := ledger.CompleteModule(c.UserContext(), middleware.SessionFrom(c), c.Params("id"), req.TimeSpent, req.Score)
		if err != nil {
			return respondError(c, "failed to complete module", err)
		}
		return c.JSON(res)
	})

	r.Secured.Post("/quizzes/:id/attempts", func(c *fiber.Ctx) error {
		var req quizAttemptRequest
		if err := parseBody(c, &req); err != nil {
			return badRequest(c, err)
		}
		res, err := ledger.SubmitQuizAttempt(c.UserContext(), middleware.SessionFrom(c), c.Params("id"), req.Answers, req.TimeSpent)
		if err != nil {
			return respondError(c, "failed to submit quiz attempt", err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	})

	r.Secured.Get("/quiz-attempts", func(c *fiber.Ctx) error {
		rows, err := ledger.QuizAttempts(c.UserContext(), middleware.SessionFrom(c), c.Query("module_id"))
		if err != nil {
			return respondError(c, "failed to load quiz attempts", err)
		}
		return c.JSON(rows)
	})

	r.Secured.Post("/challenges/:id/submissions", func(c *fiber.Ctx) error {
		var req submissionRequest
		if err := parseBody(c, &req); err != nil {
			return badRequest(c, err)
		}
		res, err := ledger.SubmitChallenge(c.UserContext(), middleware.SessionFrom(c), services.SubmissionInput{
			ChallengeID: c.Params("id"),
			Title:       req.Title,
			Description: req.Description,
			ImageURL:    req.ImageURL,
			VideoURL:    req.VideoURL,
			Metadata:    req.Metadata,
		})
		if err != nil {
			return respondError(c, "failed to submit challenge", err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	})

	r.Secured.Post("/challenges/:id/evidence", func(c *fiber.Ctx) error {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "file is required",
				"cause": err.Error(),
			})
		}
		file, err := fileHeader.Open()
		if err != nil {
			return respondError(c, "failed to open file", err)
		}
		defer file.Close()

		res, err := evidence.Upload(c.UserContext(), middleware.SessionFrom(c), c.Params("id"), file)
		if err != nil {
			return respondError(c, "failed to upload evidence", err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	})

	r.Secured.Get("/submissions", func(c *fiber.Ctx) error {
		rows, err := ledger.Submissions(c.UserContext(), middleware.SessionFrom(c))
		if err != nil {
			return respondError(c, "failed to load submissions", err)
		}
		return c.JSON(rows)
	})

	r.Secured.Get("/badges", func(c *fiber.Ctx) error {
		rows, err := badges.ListForUser(c.UserContext(), middleware.SessionFrom(c))
		if err != nil {
			return respondError(c, "failed to load badges", err)
		}
		return c.JSON(rows)
	})

	r.Secured.Get("/badges/stream", func(c *fiber.Ctx) error {
		sess := middleware.SessionFrom(c)
		userID := sess.User.ID
		rctx := c.Context()

		c.Set(fiber.HeaderContentType, "text/event-stream")
		c.Set(fiber.HeaderCacheControl, "no-cache")
		c.Set(fiber.HeaderConnection, "keep-alive")
		c.Set("X-Accel-Buffering", "no")

		rctx.SetBodyStreamWriter(func(w *bufio.Writer) {
			badges.StreamBadges(rctx, userID, w, services.BadgeStreamInterval)
		})
		return nil
	})

	r.Admin.Patch("/submissions/:id/review", func(c *fiber.Ctx) error {
		var req reviewRequest
		if err := parseBody(c, &req); err != nil {
			return badRequest(c, err)
		}
		sub, err := ledger.ReviewSubmission(c.UserContext(), middleware.SessionFrom(c), c.Params("id"), req.Status, req.Notes)
		if err != nil {
			return respondError(c, "failed to review submission", err)
		}
		return c.JSON(sub)
	})

	r.Admin.Get("/users", func(c *fiber.Ctx) error {
		limit := utils.QueryLimit(c.Query("limit"), 50, 100)
		rows, err := users.Search(c.UserContext(), middleware.SessionFrom(c), c.Query("q"), limit)
		if err != nil {
			return respondError(c, "search failed", err)
		}
		return c.JSON(rows)
	})
}
