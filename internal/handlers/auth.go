package handlers

import (
	"net/mail"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/porty/backend/internal/middleware"
	"github.com/porty/backend/internal/models"
	"github.com/porty/backend/internal/services"
	"github.com/porty/backend/pkg/logger"
	"github.com/porty/backend/pkg/utils"
	"gorm.io/gorm"
)

type AuthHandler struct {
	DB    *gorm.DB
	Audit *services.AuditService
}

func NewAuthHandler(db *gorm.DB, audit *services.AuditService) *AuthHandler {
	return &AuthHandler{DB: db, Audit: audit}
}

type registerRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Subdomain string `json:"subdomain"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Subdomain = strings.ToLower(strings.TrimSpace(req.Subdomain))

	if req.Name == "" || req.Email == "" || req.Password == "" || req.Subdomain == "" {
		return utils.Error(c, fiber.StatusBadRequest, "name, email, password and subdomain are required")
	}
	if len(req.Name) > 100 {
		return utils.Error(c, fiber.StatusBadRequest, "name cannot exceed 100 characters")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid email")
	}
	if len(req.Password) < 8 {
		return utils.Error(c, fiber.StatusBadRequest, "password must be at least 8 characters")
	}
	if msg := validateSubdomain(req.Subdomain); msg != "" {
		return utils.Error(c, fiber.StatusBadRequest, msg)
	}

	var existing models.User
	if err := h.DB.First(&existing, "email = ?", req.Email).Error; err == nil {
		return utils.Error(c, fiber.StatusBadRequest, "email already registered")
	} else if err != gorm.ErrRecordNotFound {
		return utils.Error(c, fiber.StatusInternalServerError, "failed checking existing user")
	}
	if err := h.DB.First(&existing, "subdomain = ?", req.Subdomain).Error; err == nil {
		return utils.Error(c, fiber.StatusBadRequest, "subdomain already taken")
	} else if err != gorm.ErrRecordNotFound {
		return utils.Error(c, fiber.StatusInternalServerError, "failed checking existing subdomain")
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed to hash password")
	}

	user := models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Subdomain:    req.Subdomain,
		Role:         models.UserRoleUser,
	}

	// Every account starts with an empty portfolio. The unique indexes on
	// email and subdomain are the real duplicate guard; the pre-checks above
	// only improve the error message.
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		portfolio := models.NewPortfolio(user.ID)
		return tx.Create(&portfolio).Error
	})
	if err != nil {
		if isDuplicateErr(err) {
			return utils.Error(c, fiber.StatusBadRequest, "email or subdomain already registered")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating user")
	}

	logger.Info("user_registered", map[string]interface{}{
		"user_id":   user.ID.String(),
		"email":     user.Email,
		"subdomain": user.Subdomain,
	})

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &user.ID,
		Action:       "user.register",
		ResourceType: "user",
		ResourceID:   &user.ID,
		Details: map[string]interface{}{
			"email":     user.Email,
			"subdomain": user.Subdomain,
		},
		IPAddress: c.IP(),
		RequestID: getRequestID(c),
	})

	token, err := utils.GenerateToken(&user)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed generating token")
	}

	return utils.Success(c, fiber.StatusCreated, fiber.Map{"token": token, "user": user})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if req.Email == "" || req.Password == "" {
		return utils.Error(c, fiber.StatusBadRequest, "email and password are required")
	}

	// Unknown email and wrong password answer identically so login cannot be
	// used to probe which addresses exist.
	var user models.User
	if err := h.DB.First(&user, "email = ?", req.Email).Error; err != nil {
		logger.Warn("login_failed_user_not_found", map[string]interface{}{
			"email": req.Email,
			"ip":    c.IP(),
		})
		return utils.Error(c, fiber.StatusUnauthorized, "invalid email or password")
	}

	if !utils.CheckPassword(req.Password, user.PasswordHash) {
		logger.Warn("login_failed_invalid_password", map[string]interface{}{
			"user_id": user.ID.String(),
			"ip":      c.IP(),
		})
		return utils.Error(c, fiber.StatusUnauthorized, "invalid email or password")
	}

	if user.IsSuspended {
		logger.WarnWithUser(user.ID.String(), "login_blocked_suspended", map[string]interface{}{
			"ip": c.IP(),
		})
		message := "account has been suspended"
		if user.SuspendReason != nil && *user.SuspendReason != "" {
			message += ": " + *user.SuspendReason
		}
		return utils.Error(c, fiber.StatusForbidden, message)
	}

	logger.InfoWithUser(user.ID.String(), "user_login", map[string]interface{}{
		"ip": c.IP(),
	})

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &user.ID,
		Action:       "user.login",
		ResourceType: "user",
		ResourceID:   &user.ID,
		IPAddress:    c.IP(),
		RequestID:    getRequestID(c),
	})

	token, err := utils.GenerateToken(&user)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed generating token")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"token": token, "user": user})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"user": user})
}

func (h *AuthHandler) CheckSubdomain(c *fiber.Ctx) error {
	name := strings.ToLower(strings.TrimSpace(c.Params("subdomain")))

	if msg := validateSubdomain(name); msg != "" {
		return utils.Success(c, fiber.StatusOK, fiber.Map{"available": false, "reason": msg})
	}

	var count int64
	if err := h.DB.Model(&models.User{}).Where("subdomain = ?", name).Count(&count).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed checking subdomain")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"available": count == 0})
}
