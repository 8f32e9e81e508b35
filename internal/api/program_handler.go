package api

import (
	"alcyxob/challenge-admin/internal/domain"
	"alcyxob/challenge-admin/internal/service"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ProgramHandler handles meal programs and their options.
type ProgramHandler struct {
	programService service.ProgramService
}

// NewProgramHandler creates a new ProgramHandler.
func NewProgramHandler(programService service.ProgramService) *ProgramHandler {
	return &ProgramHandler{programService: programService}
}

// --- Request/Response Structs ---

type ProgramRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description,omitempty"`
}

type DuplicateProgramRequest struct {
	Name string `json:"name,omitempty"` // Defaults to "<source> (Copy)"
}

type ProgramResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CohortCount *int64 `json:"cohortCount,omitempty"`
	OptionCount *int   `json:"optionCount,omitempty"`
}

type MealAlternativeRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description,omitempty"`
	ImageRef    string `json:"imageRef,omitempty"` // Absolute URL or object key from an upload
}

type CreateMealOptionRequest struct {
	ChallengeWeek int                    `json:"challengeWeek" binding:"required"`
	ChallengeDay  int                    `json:"challengeDay" binding:"required"`
	MealType      domain.MealType        `json:"mealType" binding:"required"`
	OptionA       MealAlternativeRequest `json:"optionA" binding:"required"`
	OptionB       MealAlternativeRequest `json:"optionB" binding:"required"`
}

type UpdateMealOptionRequest struct {
	OptionA MealAlternativeRequest `json:"optionA" binding:"required"`
	OptionB MealAlternativeRequest `json:"optionB" binding:"required"`
}

type MealAlternativeResponse struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ImageRef    string `json:"imageRef,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

type MealOptionResponse struct {
	ID            string                  `json:"id"`
	ProgramID     string                  `json:"programId"`
	ChallengeWeek int                     `json:"challengeWeek"`
	ChallengeDay  int                     `json:"challengeDay"`
	MealType      domain.MealType         `json:"mealType"`
	OptionA       MealAlternativeResponse `json:"optionA"`
	OptionB       MealAlternativeResponse `json:"optionB"`
}

type ImageUploadRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

func (r MealAlternativeRequest) toDomain() domain.MealAlternative {
	return domain.MealAlternative{Name: r.Name, Description: r.Description, ImageRef: r.ImageRef}
}

// --- Handler Methods ---

// ListPrograms godoc
// @Summary List meal programs
// @Tags MealPrograms
// @Produce json
// @Security BearerAuth
// @Success 200 {array} ProgramResponse
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /programs [get]
func (h *ProgramHandler) ListPrograms(c *gin.Context) {
	summaries, err := h.programService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	resp := make([]ProgramResponse, len(summaries))
	for i := range summaries {
		resp[i] = MapProgramToResponse(&summaries[i].MealProgram)
		cohorts, options := summaries[i].CohortCount, summaries[i].OptionCount
		resp[i].CohortCount = &cohorts
		resp[i].OptionCount = &options
	}
	c.JSON(http.StatusOK, resp)
}

// GetProgram godoc
// @Summary Get a meal program
// @Tags MealPrograms
// @Produce json
// @Security BearerAuth
// @Param programId path string true "Program ID"
// @Success 200 {object} ProgramResponse
// @Failure 404 {object} gin.H "Program not found"
// @Router /programs/{programId} [get]
func (h *ProgramHandler) GetProgram(c *gin.Context) {
	id, ok := pathObjectID(c, "programId")
	if !ok {
		return
	}
	program, err := h.programService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapProgramToResponse(program))
}

// CreateProgram godoc
// @Summary Create a meal program
// @Tags MealPrograms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param program body ProgramRequest true "Program details"
// @Success 201 {object} ProgramResponse
// @Failure 400 {object} gin.H "Invalid input"
// @Router /programs [post]
func (h *ProgramHandler) CreateProgram(c *gin.Context) {
	var req ProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	program, err := h.programService.Create(c.Request.Context(), service.ProgramInput{Name: req.Name, Description: req.Description})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapProgramToResponse(program))
}

// UpdateProgram godoc
// @Summary Update a meal program
// @Tags MealPrograms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param programId path string true "Program ID"
// @Param program body ProgramRequest true "Program details"
// @Success 200 {object} ProgramResponse
// @Failure 404 {object} gin.H "Program not found"
// @Router /programs/{programId} [put]
func (h *ProgramHandler) UpdateProgram(c *gin.Context) {
	id, ok := pathObjectID(c, "programId")
	if !ok {
		return
	}
	var req ProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	program, err := h.programService.Update(c.Request.Context(), id, service.ProgramInput{Name: req.Name, Description: req.Description})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapProgramToResponse(program))
}

// DeleteProgram godoc
// @Summary Delete a meal program
// @Description Refused while any cohort uses the program. Its options are deleted with it.
// @Tags MealPrograms
// @Security BearerAuth
// @Param programId path string true "Program ID"
// @Success 204 "Deleted"
// @Failure 404 {object} gin.H "Program not found"
// @Failure 409 {object} gin.H "Program in use"
// @Router /programs/{programId} [delete]
func (h *ProgramHandler) DeleteProgram(c *gin.Context) {
	id, ok := pathObjectID(c, "programId")
	if !ok {
		return
	}
	if err := h.programService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DuplicateProgram godoc
// @Summary Duplicate a meal program
// @Description Copies the program and all of its options.
// @Tags MealPrograms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param programId path string true "Source program ID"
// @Param body body DuplicateProgramRequest false "New name"
// @Success 201 {object} ProgramResponse
// @Failure 404 {object} gin.H "Program not found"
// @Router /programs/{programId}/duplicate [post]
func (h *ProgramHandler) DuplicateProgram(c *gin.Context) {
	id, ok := pathObjectID(c, "programId")
	if !ok {
		return
	}
	var req DuplicateProgramRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
			return
		}
	}
	program, err := h.programService.Duplicate(c.Request.Context(), id, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapProgramToResponse(program))
}

// ListOptions godoc
// @Summary List meal options of a program
// @Tags MealPrograms
// @Produce json
// @Security BearerAuth
// @Param programId path string true "Program ID"
// @Param week query int false "Challenge week"
// @Success 200 {array} MealOptionResponse
// @Failure 404 {object} gin.H "Program not found"
// @Router /programs/{programId}/options [get]
func (h *ProgramHandler) ListOptions(c *gin.Context) {
	id, ok := pathObjectID(c, "programId")
	if !ok {
		return
	}
	week, ok := queryWeek(c)
	if !ok {
		return
	}
	views, err := h.programService.ListOptions(c.Request.Context(), id, week)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := make([]MealOptionResponse, len(views))
	for i := range views {
		resp[i] = MapMealOptionToResponse(&views[i].MealOption)
		resp[i].OptionA.ImageURL = views[i].OptionAImageURL
		resp[i].OptionB.ImageURL = views[i].OptionBImageURL
	}
	c.JSON(http.StatusOK, resp)
}

// CreateOption godoc
// @Summary Add a meal option to a program
// @Tags MealPrograms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param programId path string true "Program ID"
// @Param option body CreateMealOptionRequest true "Option details"
// @Success 201 {object} MealOptionResponse
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 409 {object} gin.H "Slot already configured"
// @Router /programs/{programId}/options [post]
func (h *ProgramHandler) CreateOption(c *gin.Context) {
	id, ok := pathObjectID(c, "programId")
	if !ok {
		return
	}
	var req CreateMealOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	option, err := h.programService.CreateOption(c.Request.Context(), id, service.MealOptionInput{
		Week:     req.ChallengeWeek,
		Day:      req.ChallengeDay,
		MealType: req.MealType,
		OptionA:  req.OptionA.toDomain(),
		OptionB:  req.OptionB.toDomain(),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapMealOptionToResponse(option))
}

// UpdateOption godoc
// @Summary Replace both alternatives of a meal option
// @Tags MealPrograms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param optionId path string true "Meal option ID"
// @Param option body UpdateMealOptionRequest true "Alternatives"
// @Success 200 {object} MealOptionResponse
// @Failure 404 {object} gin.H "Option not found"
// @Router /options/{optionId} [put]
func (h *ProgramHandler) UpdateOption(c *gin.Context) {
	id, ok := pathObjectID(c, "optionId")
	if !ok {
		return
	}
	var req UpdateMealOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	option, err := h.programService.UpdateOption(c.Request.Context(), id, req.OptionA.toDomain(), req.OptionB.toDomain())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapMealOptionToResponse(option))
}

// RequestImageUpload godoc
// @Summary Get a presigned upload URL for a meal image
// @Description Returns a short-lived PUT URL and the object key to store as an alternative's imageRef.
// @Tags MealPrograms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param programId path string true "Program ID"
// @Param body body ImageUploadRequest true "Image content type"
// @Success 200 {object} service.UploadURLResponse
// @Failure 400 {object} gin.H "Unsupported content type"
// @Failure 500 {object} gin.H "Storage unavailable"
// @Router /programs/{programId}/images/upload-url [post]
func (h *ProgramHandler) RequestImageUpload(c *gin.Context) {
	id, ok := pathObjectID(c, "programId")
	if !ok {
		return
	}
	var req ImageUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	upload, err := h.programService.RequestOptionImageUpload(c.Request.Context(), id, req.ContentType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, upload)
}

// MapProgramToResponse converts a domain MealProgram to a ProgramResponse DTO.
func MapProgramToResponse(program *domain.MealProgram) ProgramResponse {
	if program == nil {
		return ProgramResponse{}
	}
	return ProgramResponse{
		ID:          program.ID.Hex(),
		Name:        program.Name,
		Description: program.Description,
	}
}

// MapMealOptionToResponse converts a domain MealOption to a MealOptionResponse DTO.
func MapMealOptionToResponse(option *domain.MealOption) MealOptionResponse {
	if option == nil {
		return MealOptionResponse{}
	}
	return MealOptionResponse{
		ID:            option.ID.Hex(),
		ProgramID:     option.ProgramID.Hex(),
		ChallengeWeek: option.ChallengeWeek,
		ChallengeDay:  option.ChallengeDay,
		MealType:      option.MealType,
		OptionA:       mapAlternative(option.OptionA),
		OptionB:       mapAlternative(option.OptionB),
	}
}

func mapAlternative(a domain.MealAlternative) MealAlternativeResponse {
	return MealAlternativeResponse{Name: a.Name, Description: a.Description, ImageRef: a.ImageRef}
}
