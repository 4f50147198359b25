package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/porty/backend/internal/middleware"
	"github.com/porty/backend/internal/models"
	"github.com/porty/backend/pkg/logger"
	"github.com/porty/backend/pkg/utils"
	"gorm.io/gorm"
)

type PortfolioHandler struct {
	DB *gorm.DB
}

func NewPortfolioHandler(db *gorm.DB) *PortfolioHandler {
	return &PortfolioHandler{DB: db}
}

// loadOrCreate returns the user's portfolio, creating the default one on
// first access. Registration already creates it, so the lazy path only fires
// for accounts that predate it (or the seeded admin).
func (h *PortfolioHandler) loadOrCreate(userID uuid.UUID) (*models.Portfolio, error) {
	var portfolio models.Portfolio
	err := h.DB.First(&portfolio, "user_id = ?", userID).Error
	if err == nil {
		return &portfolio, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	portfolio = models.NewPortfolio(userID)
	if err := h.DB.Create(&portfolio).Error; err != nil {
		if isDuplicateErr(err) {
			// Lost a race with a concurrent first access; the row exists now.
			if err := h.DB.First(&portfolio, "user_id = ?", userID).Error; err == nil {
				return &portfolio, nil
			}
		}
		return nil, err
	}
	return &portfolio, nil
}

func visibleProjects(db *gorm.DB, userID uuid.UUID) ([]models.Project, error) {
	var projects []models.Project
	err := db.
		Where("user_id = ? AND is_visible = ?", userID, true).
		Order("display_order ASC, created_at DESC").
		Find(&projects).Error
	return projects, err
}

func (h *PortfolioHandler) GetMine(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	portfolio, err := h.loadOrCreate(currentUser.ID)
	if err != nil {
		logger.ErrorWithUser(currentUser.ID.String(), "portfolio_load_failed", err, nil)
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading portfolio")
	}

	projects, err := visibleProjects(h.DB, currentUser.ID)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading projects")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"portfolio": portfolio,
		"projects":  projects,
		"user": fiber.Map{
			"name":      currentUser.Name,
			"subdomain": currentUser.Subdomain,
		},
	})
}

type socialLinksPatch struct {
	Website   *string `json:"website"`
	GitHub    *string `json:"github"`
	LinkedIn  *string `json:"linkedin"`
	Twitter   *string `json:"twitter"`
	Instagram *string `json:"instagram"`
	YouTube   *string `json:"youtube"`
	Dribbble  *string `json:"dribbble"`
	Behance   *string `json:"behance"`
}

type customizationPatch struct {
	PrimaryColor    *string `json:"primaryColor"`
	SecondaryColor  *string `json:"secondaryColor"`
	FontFamily      *string `json:"fontFamily"`
	ShowContactForm *bool   `json:"showContactForm"`
}

type seoPatch struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Keywords    *[]string `json:"keywords"`
}

type updatePortfolioRequest struct {
	Bio           *string             `json:"bio"`
	Headline      *string             `json:"headline"`
	Skills        *[]string           `json:"skills"`
	SocialLinks   *socialLinksPatch   `json:"socialLinks"`
	TemplateID    *string             `json:"templateId"`
	Customization *customizationPatch `json:"customization"`
	SEO           *seoPatch           `json:"seo"`
	IsPublished   *bool               `json:"isPublished"`
}

// UpdateMine merges the provided fields into the portfolio. Nested objects
// merge key by key against the fixed schema; unknown keys are dropped by the
// typed request structs.
func (h *PortfolioHandler) UpdateMine(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req updatePortfolioRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if req.Bio != nil && len(*req.Bio) > 2000 {
		return utils.Error(c, fiber.StatusBadRequest, "bio cannot exceed 2000 characters")
	}
	if req.Headline != nil && len(*req.Headline) > 200 {
		return utils.Error(c, fiber.StatusBadRequest, "headline cannot exceed 200 characters")
	}
	if req.Skills != nil {
		for _, skill := range *req.Skills {
			if len(skill) > 50 {
				return utils.Error(c, fiber.StatusBadRequest, "each skill cannot exceed 50 characters")
			}
		}
	}
	if req.TemplateID != nil && !models.TemplateID(*req.TemplateID).Valid() {
		return utils.Error(c, fiber.StatusBadRequest, "invalid templateId")
	}
	if req.SEO != nil {
		if req.SEO.Title != nil && len(*req.SEO.Title) > 60 {
			return utils.Error(c, fiber.StatusBadRequest, "seo title cannot exceed 60 characters")
		}
		if req.SEO.Description != nil && len(*req.SEO.Description) > 160 {
			return utils.Error(c, fiber.StatusBadRequest, "seo description cannot exceed 160 characters")
		}
	}

	portfolio, err := h.loadOrCreate(currentUser.ID)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading portfolio")
	}

	if req.Bio != nil {
		portfolio.Bio = *req.Bio
	}
	if req.Headline != nil {
		portfolio.Headline = *req.Headline
	}
	if req.Skills != nil {
		portfolio.Skills = *req.Skills
	}
	if req.TemplateID != nil {
		portfolio.TemplateID = models.TemplateID(*req.TemplateID)
	}
	if req.IsPublished != nil {
		portfolio.IsPublished = *req.IsPublished
	}
	if req.SocialLinks != nil {
		applySocialLinks(&portfolio.SocialLinks, req.SocialLinks)
	}
	if req.Customization != nil {
		applyCustomization(&portfolio.Customization, req.Customization)
	}
	if req.SEO != nil {
		if req.SEO.Title != nil {
			portfolio.SEO.Title = *req.SEO.Title
		}
		if req.SEO.Description != nil {
			portfolio.SEO.Description = *req.SEO.Description
		}
		if req.SEO.Keywords != nil {
			portfolio.SEO.Keywords = *req.SEO.Keywords
		}
	}

	if err := h.DB.Save(portfolio).Error; err != nil {
		logger.ErrorWithUser(currentUser.ID.String(), "portfolio_update_failed", err, nil)
		return utils.Error(c, fiber.StatusInternalServerError, "failed updating portfolio")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"portfolio": portfolio})
}

func applySocialLinks(links *models.SocialLinks, patch *socialLinksPatch) {
	if patch.Website != nil {
		links.Website = *patch.Website
	}
	if patch.GitHub != nil {
		links.GitHub = *patch.GitHub
	}
	if patch.LinkedIn != nil {
		links.LinkedIn = *patch.LinkedIn
	}
	if patch.Twitter != nil {
		links.Twitter = *patch.Twitter
	}
	if patch.Instagram != nil {
		links.Instagram = *patch.Instagram
	}
	if patch.YouTube != nil {
		links.YouTube = *patch.YouTube
	}
	if patch.Dribbble != nil {
		links.Dribbble = *patch.Dribbble
	}
	if patch.Behance != nil {
		links.Behance = *patch.Behance
	}
}

func applyCustomization(custom *models.Customization, patch *customizationPatch) {
	if patch.PrimaryColor != nil {
		custom.PrimaryColor = *patch.PrimaryColor
	}
	if patch.SecondaryColor != nil {
		custom.SecondaryColor = *patch.SecondaryColor
	}
	if patch.FontFamily != nil {
		custom.FontFamily = *patch.FontFamily
	}
	if patch.ShowContactForm != nil {
		custom.ShowContactForm = *patch.ShowContactForm
	}
}

// GetPublic serves the public projection by path parameter.
func (h *PortfolioHandler) GetPublic(c *fiber.Ctx) error {
	return h.composePublic(c, c.Params("subdomain"))
}

// GetPublicByHost serves the same projection for requests arriving on a
// tenant host (alice.mysite.com), resolved by the tenant middleware.
func (h *PortfolioHandler) GetPublicByHost(c *fiber.Ctx) error {
	name, ok := middleware.GetTenantName(c)
	if !ok {
		logger.Warn("public_portfolio_no_tenant", map[string]interface{}{
			"host": c.Hostname(),
		})
		return utils.Error(c, fiber.StatusNotFound, "portfolio not found")
	}
	return h.composePublic(c, name)
}

// composePublic enforces the visibility rules in order. Every rejection is
// logged with its distinct cause but answers a uniform 404, so hidden and
// nonexistent tenants cannot be told apart from outside.
func (h *PortfolioHandler) composePublic(c *fiber.Ctx, subdomainName string) error {
	subdomainName = strings.ToLower(strings.TrimSpace(subdomainName))

	var user models.User
	if err := h.DB.First(&user, "subdomain = ?", subdomainName).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			logger.Warn("public_portfolio_unknown_subdomain", map[string]interface{}{
				"subdomain": subdomainName,
			})
			return utils.Error(c, fiber.StatusNotFound, "portfolio not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading portfolio")
	}

	if user.IsSuspended {
		logger.Warn("public_portfolio_suspended_tenant", map[string]interface{}{
			"subdomain": subdomainName,
		})
		return utils.Error(c, fiber.StatusNotFound, "portfolio not found")
	}

	var portfolio models.Portfolio
	if err := h.DB.First(&portfolio, "user_id = ?", user.ID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			logger.Warn("public_portfolio_missing", map[string]interface{}{
				"subdomain": subdomainName,
			})
			return utils.Error(c, fiber.StatusNotFound, "portfolio not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading portfolio")
	}

	if !portfolio.IsPublished {
		logger.Warn("public_portfolio_unpublished", map[string]interface{}{
			"subdomain": subdomainName,
		})
		return utils.Error(c, fiber.StatusNotFound, "portfolio not found")
	}

	projects, err := visibleProjects(h.DB, user.ID)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading projects")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"portfolio": portfolio,
		"projects":  projects,
		"user": fiber.Map{
			"name":      user.Name,
			"subdomain": user.Subdomain,
		},
	})
}
