package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/porty/backend/internal/middleware"
	"github.com/porty/backend/internal/models"
	"github.com/porty/backend/internal/services"
	"github.com/porty/backend/internal/storage"
	"github.com/porty/backend/pkg/logger"
	"github.com/porty/backend/pkg/utils"
	"gorm.io/gorm"
)

const defaultSuspendReason = "Violated terms of service"

type AdminHandler struct {
	DB    *gorm.DB
	Store storage.ObjectStore
	Audit *services.AuditService
}

func NewAdminHandler(db *gorm.DB, store storage.ObjectStore, audit *services.AuditService) *AdminHandler {
	return &AdminHandler{DB: db, Store: store, Audit: audit}
}

func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	var totalUsers, suspendedUsers, totalProjects, publishedPortfolios int64

	if err := h.DB.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading stats")
	}
	h.DB.Model(&models.User{}).Where("is_suspended = ?", true).Count(&suspendedUsers)
	h.DB.Model(&models.Project{}).Count(&totalProjects)
	h.DB.Model(&models.Portfolio{}).Where("is_published = ?", true).Count(&publishedPortfolios)

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"totalUsers":          totalUsers,
		"activeUsers":         totalUsers - suspendedUsers,
		"suspendedUsers":      suspendedUsers,
		"totalProjects":       totalProjects,
		"publishedPortfolios": publishedPortfolios,
	})
}

type adminUserSummary struct {
	models.User
	ProjectCount int64              `json:"projectCount"`
	HasPortfolio bool               `json:"hasPortfolio"`
	TemplateID   *models.TemplateID `json:"templateId"`
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	p := utils.ParsePagination(c)

	query := h.DB.Model(&models.User{})

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(subdomain) LIKE ?",
			pattern, pattern, pattern,
		)
	}
	if role := strings.TrimSpace(c.Query("role")); role != "" {
		query = query.Where("role = ?", role)
	}
	switch strings.TrimSpace(c.Query("suspended")) {
	case "true":
		query = query.Where("is_suspended = ?", true)
	case "false":
		query = query.Where("is_suspended = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed counting users")
	}

	var users []models.User
	err := utils.ApplyPagination(query.Order("created_at DESC"), p).Find(&users).Error
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing users")
	}

	summaries := make([]adminUserSummary, 0, len(users))
	for _, user := range users {
		summary := adminUserSummary{User: user}
		h.DB.Model(&models.Project{}).Where("user_id = ?", user.ID).Count(&summary.ProjectCount)

		var portfolio models.Portfolio
		if err := h.DB.First(&portfolio, "user_id = ?", user.ID).Error; err == nil {
			summary.HasPortfolio = true
			summary.TemplateID = &portfolio.TemplateID
		}
		summaries = append(summaries, summary)
	}

	return utils.Paginated(c, summaries, p.Page, p.Limit, total)
}

func (h *AdminHandler) loadUser(c *fiber.Ctx) (*models.User, error) {
	userID, err := parseUUID(c.Params("id"))
	if err != nil {
		return nil, utils.Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.Error(c, fiber.StatusNotFound, "user not found")
		}
		return nil, utils.Error(c, fiber.StatusInternalServerError, "failed loading user")
	}

	return &user, nil
}

func (h *AdminHandler) GetUser(c *fiber.Ctx) error {
	user, errResp := h.loadUser(c)
	if user == nil {
		return errResp
	}

	var portfolio *models.Portfolio
	var loaded models.Portfolio
	if err := h.DB.First(&loaded, "user_id = ?", user.ID).Error; err == nil {
		portfolio = &loaded
	}

	var projects []models.Project
	h.DB.Where("user_id = ?", user.ID).
		Order("display_order ASC, created_at DESC").
		Find(&projects)

	var storageBytes int64
	for _, project := range projects {
		storageBytes += project.SizeBytes
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"user":      user,
		"portfolio": portfolio,
		"projects":  projects,
		"stats": fiber.Map{
			"projectCount": len(projects),
			"storageBytes": storageBytes,
		},
	})
}

type suspendRequest struct {
	Reason string `json:"reason"`
}

func (h *AdminHandler) SuspendUser(c *fiber.Ctx) error {
	admin := middleware.GetCurrentUser(c)

	user, errResp := h.loadUser(c)
	if user == nil {
		return errResp
	}
	if user.Role == models.UserRoleAdmin {
		return utils.Error(c, fiber.StatusForbidden, "cannot suspend admin users")
	}

	var req suspendRequest
	_ = c.BodyParser(&req)
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = defaultSuspendReason
	}

	now := time.Now()
	user.IsSuspended = true
	user.SuspendedAt = &now
	user.SuspendReason = &reason

	if err := h.DB.Save(user).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed suspending user")
	}

	logger.InfoWithUser(admin.ID.String(), "user_suspended", map[string]interface{}{
		"target_user_id": user.ID.String(),
		"reason":         reason,
	})

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &admin.ID,
		Action:       "admin.user.suspend",
		ResourceType: "user",
		ResourceID:   &user.ID,
		Details:      map[string]interface{}{"reason": reason},
		IPAddress:    c.IP(),
		RequestID:    getRequestID(c),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"user": user})
}

func (h *AdminHandler) UnsuspendUser(c *fiber.Ctx) error {
	admin := middleware.GetCurrentUser(c)

	user, errResp := h.loadUser(c)
	if user == nil {
		return errResp
	}

	user.IsSuspended = false
	user.SuspendedAt = nil
	user.SuspendReason = nil

	err := h.DB.Model(user).Select("is_suspended", "suspended_at", "suspend_reason").
		Updates(map[string]interface{}{
			"is_suspended":   false,
			"suspended_at":   nil,
			"suspend_reason": nil,
		}).Error
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed unsuspending user")
	}

	logger.InfoWithUser(admin.ID.String(), "user_unsuspended", map[string]interface{}{
		"target_user_id": user.ID.String(),
	})

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &admin.ID,
		Action:       "admin.user.unsuspend",
		ResourceType: "user",
		ResourceID:   &user.ID,
		IPAddress:    c.IP(),
		RequestID:    getRequestID(c),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"user": user})
}

type changeTemplateRequest struct {
	TemplateID models.TemplateID `json:"templateId"`
}

func (h *AdminHandler) ChangeTemplate(c *fiber.Ctx) error {
	admin := middleware.GetCurrentUser(c)

	user, errResp := h.loadUser(c)
	if user == nil {
		return errResp
	}

	var req changeTemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if !req.TemplateID.Valid() {
		return utils.Error(c, fiber.StatusBadRequest, "invalid template id")
	}

	var portfolio models.Portfolio
	if err := h.DB.First(&portfolio, "user_id = ?", user.ID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "portfolio not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading portfolio")
	}

	portfolio.TemplateID = req.TemplateID
	if err := h.DB.Save(&portfolio).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed updating portfolio")
	}

	logger.InfoWithUser(admin.ID.String(), "template_changed", map[string]interface{}{
		"target_user_id": user.ID.String(),
		"template_id":    string(req.TemplateID),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"portfolio": portfolio})
}

// DeleteUser removes the account with its portfolio and projects. Stored
// assets are deleted best-effort before the rows; a storage failure is
// logged and does not abort the account deletion.
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	admin := middleware.GetCurrentUser(c)

	user, errResp := h.loadUser(c)
	if user == nil {
		return errResp
	}
	if user.Role == models.UserRoleAdmin {
		return utils.Error(c, fiber.StatusForbidden, "cannot delete admin users")
	}

	var projects []models.Project
	h.DB.Where("user_id = ?", user.ID).Find(&projects)
	for _, project := range projects {
		if !project.Uploaded() {
			continue
		}
		if err := h.Store.Delete(c.Context(), *project.StorageKey); err != nil {
			logger.ErrorWithUser(admin.ID.String(), "asset_delete_failed", err, map[string]interface{}{
				"target_user_id": user.ID.String(),
				"project_id":     project.ID.String(),
				"object":         *project.StorageKey,
			})
		}
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Project{}, "user_id = ?", user.ID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Portfolio{}, "user_id = ?", user.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, "id = ?", user.ID).Error
	})
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed deleting user")
	}

	logger.InfoWithUser(admin.ID.String(), "user_deleted", map[string]interface{}{
		"target_user_id": user.ID.String(),
		"email":          user.Email,
		"subdomain":      user.Subdomain,
	})

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &admin.ID,
		Action:       "admin.user.delete",
		ResourceType: "user",
		ResourceID:   &user.ID,
		Details: map[string]interface{}{
			"email":     user.Email,
			"subdomain": user.Subdomain,
		},
		IPAddress: c.IP(),
		RequestID: getRequestID(c),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "user deleted"})
}
