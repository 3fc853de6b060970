package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/ngocminh/workpoint-api/internal/middleware"
	"github.com/ngocminh/workpoint-api/internal/models"
	"github.com/ngocminh/workpoint-api/internal/services"
)

// GetWorkflow returns the project's workflow row, creating it at RECEIVED
// on first read.
func GetWorkflow(c *fiber.Ctx) error {
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid project ID",
		})
	}

	wf, err := services.GetOrCreateWorkflow(projectID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(wf)
}

func ConfirmReceived(c *fiber.Ctx) error {
	return runTransition(c, services.ConfirmReceived)
}

func ConfirmInProgress(c *fiber.Ctx) error {
	return runTransition(c, services.ConfirmInProgress)
}

func ApproveCompleted(c *fiber.Ctx) error {
	return runTransition(c, services.ApproveCompleted)
}

func ConfirmSentToCustomer(c *fiber.Ctx) error {
	return runTransition(c, services.ConfirmSentToCustomer)
}

func runTransition(c *fiber.Ctx, fn func(projectID, actor uuid.UUID) (*models.ProjectWorkflow, error)) error {
	userID := middleware.GetUserID(c)
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid project ID",
		})
	}

	wf, err := fn(projectID, userID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(wf)
}
