package media

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"firepm/internal/domain/auth"
	"firepm/internal/domain/project"
	"firepm/internal/pkg/response"
	"firepm/internal/pkg/validator"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type saveRequest struct {
	MediaData           string `json:"media_data" validate:"required"`
	FileName            string `json:"file_name" validate:"required"`
	FileType            string `json:"file_type"`
	ProjectID           *int64 `json:"project_id"`
	TargetLocation      string `json:"target_location"`
	TargetID            *int64 `json:"target_id"`
	Title               string `json:"title"`
	Description         string `json:"description"`
	CustomVersionNumber *int   `json:"custom_version_number"`
}

// Save godoc
// @Summary Upload a media file
// @Description Accepts a JSON body with a base64 data URI, or multipart/form-data with a raw file.
// @Tags Media
// @Accept json,multipart/form-data
// @Produce json
// @Security BearerAuth
// @Success 201 {object} map[string]interface{}
// @Failure 400,401,500 {object} map[string]interface{}
// @Router /media [post]
func (h *Handler) Save(c *gin.Context) {
	in, ok := h.bindSaveInput(c)
	if !ok {
		return
	}
	in.UserID = c.GetInt64("user_id")

	result, err := h.service.SaveMedia(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, result)
}

func (h *Handler) bindSaveInput(c *gin.Context) (SaveInput, bool) {
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		return h.bindMultipart(c)
	}

	var req saveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "BAD_REQUEST", "Invalid JSON body")
		return SaveInput{}, false
	}
	if fields := validator.Validate(req); fields != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_FAILED", "Invalid media payload", fields)
		return SaveInput{}, false
	}

	return SaveInput{
		MediaData:           req.MediaData,
		FileName:            req.FileName,
		FileType:            req.FileType,
		ProjectID:           req.ProjectID,
		TargetLocation:      TargetLocation(req.TargetLocation),
		TargetID:            req.TargetID,
		Title:               req.Title,
		Description:         req.Description,
		CustomVersionNumber: req.CustomVersionNumber,
	}, true
}

func (h *Handler) bindMultipart(c *gin.Context) (SaveInput, bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "BAD_REQUEST", "No file provided")
		return SaveInput{}, false
	}

	f, err := fileHeader.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "BAD_REQUEST", "Failed to read file")
		return SaveInput{}, false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "BAD_REQUEST", "Failed to read file")
		return SaveInput{}, false
	}

	in := SaveInput{
		RawData:        data,
		FileName:       fileHeader.Filename,
		FileType:       fileHeader.Header.Get("Content-Type"),
		TargetLocation: TargetLocation(c.PostForm("target_location")),
		Title:          c.PostForm("title"),
		Description:    c.PostForm("description"),
	}
	if name := c.PostForm("file_name"); name != "" {
		in.FileName = name
	}
	in.ProjectID = formInt64(c, "project_id")
	in.TargetID = formInt64(c, "target_id")
	if v := formInt64(c, "custom_version_number"); v != nil {
		n := int(*v)
		in.CustomVersionNumber = &n
	}
	return in, true
}

// Get godoc
// @Summary Fetch media
// @Description Three shapes: ?media_type=featuredImage&project_id=, ?file_id=, or ?project_id=[&target_location=&target_id=].
// @Tags Media
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 400,404 {object} map[string]interface{}
// @Router /media [get]
func (h *Handler) Get(c *gin.Context) {
	in := GetInput{
		MediaType:      c.Query("media_type"),
		TargetLocation: c.Query("target_location"),
		FileID:         queryInt64(c, "file_id"),
		ProjectID:      queryInt64(c, "project_id"),
		TargetID:       queryInt64(c, "target_id"),
		Staff:          auth.IsStaff(c.GetString("role")),
	}

	result, err := h.service.GetMedia(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// GetVersions godoc
// @Summary List archived versions of a file
// @Tags Media
// @Produce json
// @Security BearerAuth
// @Param id path int true "File ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /media/{id}/versions [get]
func (h *Handler) GetVersions(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "BAD_REQUEST", "Invalid file id")
		return
	}

	versions, err := h.service.GetVersions(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, versions)
}

// Delete godoc
// @Summary Delete a media file (blob + metadata)
// @Tags Media
// @Produce json
// @Security BearerAuth
// @Param id path int true "File ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404,500 {object} map[string]interface{}
// @Router /media/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "BAD_REQUEST", "Invalid file id")
		return
	}

	deleted, err := h.service.DeleteMedia(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message":      "file deleted",
		"deleted_file": deleted,
	})
}

type featuredRequest struct {
	ProjectID int64 `json:"project_id" validate:"required"`
	FileID    int64 `json:"file_id" validate:"required"`
	IsActive  bool  `json:"is_active"`
}

// UpdateFeatured godoc
// @Summary Set or clear a project's featured image
// @Tags Media
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body featuredRequest true "Pointer update"
// @Success 200 {object} map[string]interface{}
// @Failure 400,404 {object} map[string]interface{}
// @Router /media/featured [put]
func (h *Handler) UpdateFeatured(c *gin.Context) {
	var req featuredRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "BAD_REQUEST", "Invalid JSON body")
		return
	}
	if fields := validator.Validate(req); fields != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_FAILED", "Invalid featured-image payload", fields)
		return
	}

	if err := h.service.UpdateFeaturedImage(c.Request.Context(), req.ProjectID, req.FileID, req.IsActive); err != nil {
		h.writeError(c, err)
		return
	}

	message := "featured image set"
	if !req.IsActive {
		message = "featured image cleared"
	}
	response.Success(c, http.StatusOK, gin.H{"message": message})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrFileNotFound):
		response.Error(c, http.StatusNotFound, "FILE_NOT_FOUND", "File not found")
	case errors.Is(err, project.ErrProjectNotFound):
		response.Error(c, http.StatusNotFound, "PROJECT_NOT_FOUND", "Project not found")
	case errors.Is(err, ErrEmptyPayload),
		errors.Is(err, ErrMissingName),
		errors.Is(err, ErrBadDataURI),
		errors.Is(err, ErrBadRequest):
		response.Error(c, http.StatusBadRequest, "BAD_REQUEST", err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Media operation failed")
	}
}

func queryInt64(c *gin.Context, name string) *int64 {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

func formInt64(c *gin.Context, name string) *int64 {
	raw := c.PostForm(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}
