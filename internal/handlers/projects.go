package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/ngocminh/workpoint-api/internal/database"
	"github.com/ngocminh/workpoint-api/internal/middleware"
	"github.com/ngocminh/workpoint-api/internal/models"
)

func CreateProject(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req models.CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Name is required",
		})
	}

	manager := userID
	if req.ManagerID != nil {
		manager = *req.ManagerID
	}

	project := models.Project{
		Name:        req.Name,
		Description: req.Description,
		CreatorID:   userID,
		ManagerID:   manager,
		Status:      models.ProjectStatusInProgress,
	}
	if err := database.DB.Create(&project).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create project",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(project)
}

func GetProjects(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var projects []models.Project
	if err := database.DB.
		Where("creator_id = ? OR manager_id = ? OR id IN (?)",
			userID, userID,
			database.DB.Model(&models.ProjectMember{}).Select("project_id").Where("user_id = ?", userID)).
		Order("created_at DESC").
		Find(&projects).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch projects",
		})
	}

	return c.JSON(projects)
}

func GetProject(c *fiber.Ctx) error {
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid project ID",
		})
	}

	var project models.Project
	if err := database.DB.Preload("Members.User").First(&project, "id = ?", projectID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Project not found",
		})
	}

	return c.JSON(project)
}

// AddProjectMember adds a user to the project's notification member set
func AddProjectMember(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid project ID",
		})
	}

	var project models.Project
	if err := database.DB.First(&project, "id = ?", projectID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Project not found",
		})
	}

	if project.ManagerID != userID && project.CreatorID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only the project manager or creator can add members",
		})
	}

	var req models.AddProjectMemberRequest
	if err := c.BodyParser(&req); err != nil || req.UserID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "userId is required",
		})
	}

	role := req.Role
	switch role {
	case models.ProjectRoleImplementer, models.ProjectRoleFollower, models.ProjectRoleCooperator:
	default:
		role = models.ProjectRoleImplementer
	}

	var existing models.ProjectMember
	if err := database.DB.Where("project_id = ? AND user_id = ?", projectID, req.UserID).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "User is already a project member",
		})
	}

	member := models.ProjectMember{ProjectID: projectID, UserID: req.UserID, Role: role}
	if err := database.DB.Create(&member).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to add member",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(member)
}

// GetProjectActivity returns paginated audit entries for a project
func GetProjectActivity(c *fiber.Ctx) error {
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid project ID",
		})
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}
	offset := (page - 1) * limit

	var activities []models.Activity
	database.DB.Where("project_id = ?", projectID).
		Preload("User").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&activities)

	var total int64
	database.DB.Model(&models.Activity{}).Where("project_id = ?", projectID).Count(&total)

	return c.JSON(fiber.Map{
		"activities": activities,
		"total":      total,
		"page":       page,
		"limit":      limit,
	})
}
