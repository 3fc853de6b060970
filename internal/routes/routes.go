package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/ngocminh/workpoint-api/internal/handlers"
	"github.com/ngocminh/workpoint-api/internal/middleware"
)

func Setup(app *fiber.App) {
	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", handlers.Register)
	auth.Post("/login", handlers.Login)

	protected := api.Group("/", middleware.Protected())

	protected.Get("/me", handlers.GetMe)
	protected.Put("/me", handlers.UpdateProfile)

	// Projects and the approval workflow
	projects := protected.Group("/projects")
	projects.Get("/", handlers.GetProjects)
	projects.Post("/", handlers.CreateProject)
	projects.Get("/:id", handlers.GetProject)
	projects.Post("/:id/members", handlers.AddProjectMember)
	projects.Get("/:id/activity", handlers.GetProjectActivity)
	projects.Get("/:id/tasks", handlers.GetProjectTasks)
	projects.Get("/:id/kanban", handlers.GetProjectBoard)

	projects.Get("/:id/workflow", handlers.GetWorkflow)
	projects.Post("/:id/workflow/confirm-received", handlers.ConfirmReceived)
	projects.Post("/:id/workflow/confirm-in-progress", handlers.ConfirmInProgress)
	projects.Post("/:id/workflow/approve-completed", handlers.ApproveCompleted)
	projects.Post("/:id/workflow/confirm-sent-to-customer", handlers.ConfirmSentToCustomer)

	// Tasks mirror onto project boards
	protected.Post("/tasks", handlers.CreateTask)

	// Kanban boards
	boards := protected.Group("/boards")
	boards.Get("/", handlers.GetBoards)
	boards.Post("/", handlers.CreateBoard)
	boards.Get("/:id", handlers.GetBoard)
	boards.Put("/:id", handlers.UpdateBoard)
	boards.Delete("/:id", handlers.DeleteBoard)

	boards.Get("/:id/members", handlers.GetBoardMembers)
	boards.Post("/:id/members", handlers.AddBoardMember)
	boards.Delete("/:id/members/:userId", handlers.RemoveBoardMember)

	boards.Get("/:id/labels", handlers.GetBoardLabels)
	boards.Post("/:id/labels", handlers.CreateBoardLabel)
	boards.Delete("/:id/labels/:labelId", handlers.DeleteBoardLabel)

	boards.Post("/:id/lists", handlers.CreateList)
	boards.Put("/:id/lists/reorder", handlers.ReorderLists)

	boards.Get("/:id/activity", handlers.GetBoardActivity)

	// Lists
	lists := protected.Group("/lists")
	lists.Put("/:id", handlers.UpdateList)
	lists.Delete("/:id", handlers.DeleteList)
	lists.Post("/:id/cards", handlers.CreateCard)
	lists.Put("/:id/cards/reorder", handlers.ReorderCards)

	// Cards
	cards := protected.Group("/cards")
	cards.Get("/:id", handlers.GetCard)
	cards.Put("/:id", handlers.UpdateCard)
	cards.Delete("/:id", handlers.DeleteCard)
	cards.Put("/:id/move", handlers.MoveCard)
	cards.Post("/:id/approve", handlers.ApproveCard)

	cards.Get("/:id/comments", handlers.GetCardComments)
	cards.Post("/:id/comments", handlers.AddCardComment)
	cards.Delete("/:id/comments/:commentId", handlers.DeleteCardComment)

	cards.Post("/:id/checklist", handlers.AddChecklistItem)
	cards.Put("/:id/checklist/:itemId", handlers.UpdateChecklistItem)
	cards.Delete("/:id/checklist/:itemId", handlers.DeleteChecklistItem)

	cards.Get("/:id/attachments", handlers.GetCardAttachments)
	cards.Post("/:id/attachments", handlers.UploadCardAttachment)
	cards.Get("/:id/attachments/:attachmentId/url", handlers.GetAttachmentURL)
	cards.Delete("/:id/attachments/:attachmentId", handlers.DeleteCardAttachment)

	cards.Post("/:id/labels/:labelId", handlers.AssignCardLabel)
	cards.Delete("/:id/labels/:labelId", handlers.UnassignCardLabel)

	// Notifications
	notifications := protected.Group("/notifications")
	notifications.Get("/", handlers.GetNotifications)
	notifications.Put("/:id/read", handlers.MarkNotificationRead)
	notifications.Post("/read-all", handlers.MarkAllRead)

	// Device token for push notifications
	protected.Post("/device-token", handlers.RegisterDeviceToken)

	// WebSocket for real-time board updates
	app.Use("/ws", handlers.WebSocketUpgrade())
	app.Get("/ws/boards/:id", websocket.New(handlers.HandleBoardSocket))
	app.Get("/ws/me", websocket.New(handlers.HandleUserSocket))
}
