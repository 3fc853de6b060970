package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/ngocminh/workpoint-api/internal/database"
	"github.com/ngocminh/workpoint-api/internal/middleware"
	"github.com/ngocminh/workpoint-api/internal/models"
	"github.com/ngocminh/workpoint-api/internal/services"
)

// CreateTask records a task and mirrors it onto the project board. The
// mirrored card is best-effort; the task itself is the source of truth.
func CreateTask(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req models.CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.ProjectID == uuid.Nil || req.Title == "" || req.AssigneeID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "projectId, title and assigneeId are required",
		})
	}

	var project models.Project
	if err := database.DB.First(&project, "id = ?", req.ProjectID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Project not found",
		})
	}

	task := models.Task{
		ProjectID:   req.ProjectID,
		Title:       req.Title,
		Description: req.Description,
		AssigneeID:  req.AssigneeID,
		CreatorID:   userID,
		DueDate:     req.DueDate,
	}
	if err := database.DB.Create(&task).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create task",
		})
	}

	card := services.CreateCardForTask(&task)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"task": task,
		"card": card,
	})
}

func GetProjectTasks(c *fiber.Ctx) error {
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid project ID",
		})
	}

	var tasks []models.Task
	database.DB.Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&tasks)

	return c.JSON(tasks)
}
