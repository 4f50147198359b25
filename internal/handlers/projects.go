package handlers

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/porty/backend/internal/config"
	"github.com/porty/backend/internal/middleware"
	"github.com/porty/backend/internal/models"
	"github.com/porty/backend/internal/services"
	"github.com/porty/backend/internal/storage"
	"github.com/porty/backend/internal/video"
	"github.com/porty/backend/pkg/logger"
	"github.com/porty/backend/pkg/utils"
	"gorm.io/gorm"
)

var imageMIMETypes = map[string]struct{}{
	"image/jpeg": {}, "image/jpg": {}, "image/png": {}, "image/gif": {}, "image/webp": {},
}

var videoMIMETypes = map[string]struct{}{
	"video/mp4": {}, "video/webm": {}, "video/quicktime": {}, "video/x-msvideo": {},
}

type ProjectsHandler struct {
	DB     *gorm.DB
	Store  storage.ObjectStore
	Audit  *services.AuditService
	Upload config.UploadConfig
}

func NewProjectsHandler(db *gorm.DB, store storage.ObjectStore, audit *services.AuditService, upload config.UploadConfig) *ProjectsHandler {
	return &ProjectsHandler{DB: db, Store: store, Audit: audit, Upload: upload}
}

func (h *ProjectsHandler) UploadImage(c *fiber.Ctx) error {
	return h.upload(c, models.MediaTypeImage)
}

func (h *ProjectsHandler) UploadVideo(c *fiber.Ctx) error {
	return h.upload(c, models.MediaTypeVideoUpload)
}

func (h *ProjectsHandler) upload(c *fiber.Ctx, mediaType models.MediaType) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "file is required")
	}

	if msg := h.checkUploadLimits(fileHeader, mediaType); msg != "" {
		return utils.Error(c, fiber.StatusBadRequest, msg)
	}

	title := strings.TrimSpace(c.FormValue("title"))
	if title == "" {
		title = "Untitled Project"
	}
	if len(title) > 200 {
		return utils.Error(c, fiber.StatusBadRequest, "title cannot exceed 200 characters")
	}
	description := c.FormValue("description")
	if len(description) > 2000 {
		return utils.Error(c, fiber.StatusBadRequest, "description cannot exceed 2000 characters")
	}
	tags := splitTags(c.FormValue("tags"))
	if msg := validateTags(tags); msg != "" {
		return utils.Error(c, fiber.StatusBadRequest, msg)
	}
	projectURL := strings.TrimSpace(c.FormValue("projectUrl"))
	if projectURL != "" && !isHTTPURL(projectURL) {
		return utils.Error(c, fiber.StatusBadRequest, "projectUrl must be a valid http(s) URL")
	}
	githubURL := strings.TrimSpace(c.FormValue("githubUrl"))
	if githubURL != "" && !isGitHubURL(githubURL) {
		return utils.Error(c, fiber.StatusBadRequest, "githubUrl must be a valid github.com URL")
	}

	stream, err := fileHeader.Open()
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed opening uploaded file")
	}
	defer stream.Close()

	filename := filepath.Base(strings.TrimSpace(fileHeader.Filename))
	if filename == "" || filename == "." {
		return utils.Error(c, fiber.StatusBadRequest, "invalid filename")
	}

	contentType := fileHeader.Header.Get("Content-Type")
	objectName := fmt.Sprintf("%s/%s/%s", currentUser.ID.String(), uuid.New().String(), filename)
	if err := h.Store.Upload(c.Context(), objectName, stream, fileHeader.Size, contentType); err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed uploading file")
	}

	mediaURL := h.Store.ObjectURL(objectName)
	project := models.Project{
		UserID:       currentUser.ID,
		Title:        title,
		Description:  description,
		MediaType:    mediaType,
		MediaURL:     mediaURL,
		StorageKey:   &objectName,
		SizeBytes:    fileHeader.Size,
		Tags:         tags,
		ProjectURL:   projectURL,
		GitHubURL:    githubURL,
		DisplayOrder: h.nextOrder(currentUser.ID),
		IsVisible:    true,
	}
	if mediaType == models.MediaTypeImage {
		project.ThumbnailURL = &mediaURL
	}

	if err := h.DB.Create(&project).Error; err != nil {
		_ = h.Store.Delete(c.Context(), objectName)
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating project")
	}

	logger.InfoWithUser(currentUser.ID.String(), "project_uploaded", map[string]interface{}{
		"project_id": project.ID.String(),
		"media_type": string(mediaType),
		"size":       fileHeader.Size,
		"object":     objectName,
	})

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &currentUser.ID,
		Action:       "project.upload",
		ResourceType: "project",
		ResourceID:   &project.ID,
		Details: map[string]interface{}{
			"media_type": string(mediaType),
			"size":       fileHeader.Size,
		},
		IPAddress: c.IP(),
		RequestID: getRequestID(c),
	})

	return utils.Success(c, fiber.StatusCreated, fiber.Map{"project": project})
}

func (h *ProjectsHandler) checkUploadLimits(fileHeader *multipart.FileHeader, mediaType models.MediaType) string {
	contentType := fileHeader.Header.Get("Content-Type")

	if mediaType == models.MediaTypeImage {
		if _, ok := imageMIMETypes[contentType]; !ok {
			return "invalid file type, only JPEG, PNG, GIF and WebP images are allowed"
		}
		if fileHeader.Size > h.Upload.MaxImageBytes {
			return fmt.Sprintf("file too large, maximum image size is %dMB", h.Upload.MaxImageBytes/(1024*1024))
		}
		return ""
	}

	if _, ok := videoMIMETypes[contentType]; !ok {
		return "invalid file type, only MP4, WebM, MOV and AVI videos are allowed"
	}
	if fileHeader.Size > h.Upload.MaxVideoBytes {
		return fmt.Sprintf("file too large, maximum video size is %dMB", h.Upload.MaxVideoBytes/(1024*1024))
	}
	return ""
}

// nextOrder appends new projects to the end of the display order.
func (h *ProjectsHandler) nextOrder(userID uuid.UUID) int {
	var count int64
	h.DB.Model(&models.Project{}).Where("user_id = ?", userID).Count(&count)
	return int(count)
}

type externalVideoRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	VideoURL    string   `json:"videoUrl"`
	Tags        []string `json:"tags"`
	ProjectURL  string   `json:"projectUrl"`
	GitHubURL   string   `json:"githubUrl"`
}

func (h *ProjectsHandler) AddExternal(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req externalVideoRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if strings.TrimSpace(req.VideoURL) == "" {
		return utils.Error(c, fiber.StatusBadRequest, "videoUrl is required")
	}

	info, ok := video.Resolve(req.VideoURL)
	if !ok {
		return utils.Error(c, fiber.StatusBadRequest, "invalid video URL, please use YouTube, Vimeo, or Google Drive links")
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "Untitled Video"
	}
	if len(title) > 200 {
		return utils.Error(c, fiber.StatusBadRequest, "title cannot exceed 200 characters")
	}
	if len(req.Description) > 2000 {
		return utils.Error(c, fiber.StatusBadRequest, "description cannot exceed 2000 characters")
	}
	if req.Tags == nil {
		req.Tags = []string{}
	}
	if msg := validateTags(req.Tags); msg != "" {
		return utils.Error(c, fiber.StatusBadRequest, msg)
	}
	projectURL := strings.TrimSpace(req.ProjectURL)
	if projectURL != "" && !isHTTPURL(projectURL) {
		return utils.Error(c, fiber.StatusBadRequest, "projectUrl must be a valid http(s) URL")
	}
	githubURL := strings.TrimSpace(req.GitHubURL)
	if githubURL != "" && !isGitHubURL(githubURL) {
		return utils.Error(c, fiber.StatusBadRequest, "githubUrl must be a valid github.com URL")
	}

	project := models.Project{
		UserID:           currentUser.ID,
		Title:            title,
		Description:      req.Description,
		MediaType:        models.MediaTypeVideoExternal,
		MediaURL:         info.EmbedURL,
		ThumbnailURL:     &info.ThumbnailURL,
		ExternalPlatform: &info.Platform,
		ExternalVideoID:  &info.VideoID,
		Tags:             req.Tags,
		ProjectURL:       projectURL,
		GitHubURL:        githubURL,
		DisplayOrder:     h.nextOrder(currentUser.ID),
		IsVisible:        true,
	}

	if err := h.DB.Create(&project).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating project")
	}

	logger.InfoWithUser(currentUser.ID.String(), "external_video_added", map[string]interface{}{
		"project_id": project.ID.String(),
		"platform":   info.Platform,
		"video_id":   info.VideoID,
	})

	return utils.Success(c, fiber.StatusCreated, fiber.Map{"project": project})
}

func (h *ProjectsHandler) ListMine(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	p := utils.ParsePagination(c)

	query := h.DB.Model(&models.Project{}).Where("user_id = ?", currentUser.ID)
	if mediaType := strings.TrimSpace(c.Query("type")); mediaType != "" {
		query = query.Where("media_type = ?", mediaType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed counting projects")
	}

	var projects []models.Project
	err := utils.ApplyPagination(query.Order("display_order ASC, created_at DESC"), p).Find(&projects).Error
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing projects")
	}

	return utils.Paginated(c, projects, p.Page, p.Limit, total)
}

// findOwned looks a project up by id and owner together, so acting on
// another user's project is indistinguishable from a missing one.
func (h *ProjectsHandler) findOwned(c *fiber.Ctx, owner uuid.UUID) (*models.Project, error) {
	projectID, err := parseUUID(c.Params("id"))
	if err != nil {
		return nil, utils.Error(c, fiber.StatusBadRequest, "invalid project id")
	}

	var project models.Project
	if err := h.DB.First(&project, "id = ? AND user_id = ?", projectID, owner).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.Error(c, fiber.StatusNotFound, "project not found")
		}
		return nil, utils.Error(c, fiber.StatusInternalServerError, "failed loading project")
	}

	return &project, nil
}

func (h *ProjectsHandler) Get(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	project, errResp := h.findOwned(c, currentUser.ID)
	if project == nil {
		return errResp
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"project": project})
}

type updateProjectRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Tags        *[]string `json:"tags"`
	ProjectURL  *string   `json:"projectUrl"`
	GitHubURL   *string   `json:"githubUrl"`
	IsVisible   *bool     `json:"isVisible"`
	Order       *int      `json:"order"`
}

func (h *ProjectsHandler) Update(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	project, errResp := h.findOwned(c, currentUser.ID)
	if project == nil {
		return errResp
	}

	var req updateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return utils.Error(c, fiber.StatusBadRequest, "title cannot be empty")
		}
		if len(title) > 200 {
			return utils.Error(c, fiber.StatusBadRequest, "title cannot exceed 200 characters")
		}
		project.Title = title
	}
	if req.Description != nil {
		if len(*req.Description) > 2000 {
			return utils.Error(c, fiber.StatusBadRequest, "description cannot exceed 2000 characters")
		}
		project.Description = *req.Description
	}
	if req.Tags != nil {
		if msg := validateTags(*req.Tags); msg != "" {
			return utils.Error(c, fiber.StatusBadRequest, msg)
		}
		project.Tags = *req.Tags
	}
	if req.ProjectURL != nil {
		value := strings.TrimSpace(*req.ProjectURL)
		if value != "" && !isHTTPURL(value) {
			return utils.Error(c, fiber.StatusBadRequest, "projectUrl must be a valid http(s) URL")
		}
		project.ProjectURL = value
	}
	if req.GitHubURL != nil {
		value := strings.TrimSpace(*req.GitHubURL)
		if value != "" && !isGitHubURL(value) {
			return utils.Error(c, fiber.StatusBadRequest, "githubUrl must be a valid github.com URL")
		}
		project.GitHubURL = value
	}
	if req.IsVisible != nil {
		project.IsVisible = *req.IsVisible
	}
	if req.Order != nil {
		project.DisplayOrder = *req.Order
	}

	if err := h.DB.Save(project).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed updating project")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"project": project})
}

// Delete removes the project record. The remote asset is deleted first on a
// best-effort basis; a storage failure is logged and never blocks the delete.
func (h *ProjectsHandler) Delete(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	project, errResp := h.findOwned(c, currentUser.ID)
	if project == nil {
		return errResp
	}

	if project.Uploaded() {
		if err := h.Store.Delete(c.Context(), *project.StorageKey); err != nil {
			logger.ErrorWithUser(currentUser.ID.String(), "asset_delete_failed", err, map[string]interface{}{
				"project_id": project.ID.String(),
				"object":     *project.StorageKey,
			})
		}
	}

	if err := h.DB.Delete(&models.Project{}, "id = ?", project.ID).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed deleting project")
	}

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &currentUser.ID,
		Action:       "project.delete",
		ResourceType: "project",
		ResourceID:   &project.ID,
		Details: map[string]interface{}{
			"media_type": string(project.MediaType),
		},
		IPAddress: c.IP(),
		RequestID: getRequestID(c),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "project deleted"})
}

type reorderRequest struct {
	ProjectIDs []string `json:"projectIds"`
}

// Reorder sets each listed project's order to its index in the array. Only
// the caller's own projects are touched; foreign ids are silently skipped.
// Concurrent reorders race and the last write wins.
func (h *ProjectsHandler) Reorder(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req reorderRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.ProjectIDs == nil {
		return utils.Error(c, fiber.StatusBadRequest, "projectIds must be an array")
	}

	ids := make([]uuid.UUID, 0, len(req.ProjectIDs))
	for _, raw := range req.ProjectIDs {
		id, err := parseUUID(raw)
		if err != nil {
			return utils.Error(c, fiber.StatusBadRequest, "invalid project id in projectIds")
		}
		ids = append(ids, id)
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		for index, id := range ids {
			err := tx.Model(&models.Project{}).
				Where("id = ? AND user_id = ?", id, currentUser.ID).
				Update("display_order", index).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed reordering projects")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "projects reordered"})
}
