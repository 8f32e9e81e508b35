package api

import (
	"alcyxob/challenge-admin/internal/domain"
	"alcyxob/challenge-admin/internal/schedule"
	"alcyxob/challenge-admin/internal/service"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// CohortHandler handles HTTP requests for challenge cohorts.
type CohortHandler struct {
	cohortService service.CohortService
}

// NewCohortHandler creates a new CohortHandler.
func NewCohortHandler(cohortService service.CohortService) *CohortHandler {
	return &CohortHandler{cohortService: cohortService}
}

// --- Request/Response Structs ---

// CohortRequest is used for both create and full update.
type CohortRequest struct {
	Name          string `json:"name" binding:"required"`
	StartDate     string `json:"startDate" binding:"required"` // YYYY-MM-DD
	DurationWeeks int    `json:"durationWeeks" binding:"omitempty,min=1,max=12"`
	MealProgramID string `json:"mealProgramId,omitempty"`
}

type CohortResponse struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	StartDate        string  `json:"startDate"`
	EndDate          string  `json:"endDate"`
	DurationWeeks    int     `json:"durationWeeks"`
	IsActive         bool    `json:"isActive"`
	MealProgramID    *string `json:"mealProgramId,omitempty"`
	ParticipantCount *int64  `json:"participantCount,omitempty"`
}

type WeekResponse struct {
	Number int    `json:"number"`
	Start  string `json:"start"`
	End    string `json:"end"`
}

type CohortOverviewResponse struct {
	Cohort            CohortResponse `json:"cohort"`
	ParticipantCount  int64          `json:"participantCount"`
	SelectionCount    int64          `json:"selectionCount"`
	CurrentWeek       int            `json:"currentWeek"`
	Phase             schedule.Phase `json:"phase"`
	DurationWeeks     int            `json:"durationWeeks"`
	MealAdherenceRate float64        `json:"mealAdherenceRate"`
}

func (r CohortRequest) toInput(c *gin.Context) (service.CohortInput, bool) {
	start, err := schedule.ParseDate(r.StartDate)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: startDate must be YYYY-MM-DD, got %q", r.StartDate))
		return service.CohortInput{}, false
	}
	programID, ok := optionalObjectID(c, "mealProgramId", r.MealProgramID)
	if !ok {
		return service.CohortInput{}, false
	}
	return service.CohortInput{
		Name:          r.Name,
		StartDate:     start,
		DurationWeeks: r.DurationWeeks,
		MealProgramID: programID,
	}, true
}

// --- Handler Methods ---

// ListCohorts godoc
// @Summary List cohorts
// @Description Lists every cohort with its active participant count, newest start date first.
// @Tags Cohorts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} CohortResponse
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /cohorts [get]
func (h *CohortHandler) ListCohorts(c *gin.Context) {
	summaries, err := h.cohortService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	resp := make([]CohortResponse, len(summaries))
	for i := range summaries {
		resp[i] = MapCohortToResponse(&summaries[i].Cohort)
		count := summaries[i].ParticipantCount
		resp[i].ParticipantCount = &count
	}
	c.JSON(http.StatusOK, resp)
}

// GetCohort godoc
// @Summary Get a cohort
// @Tags Cohorts
// @Produce json
// @Security BearerAuth
// @Param cohortId path string true "Cohort ID"
// @Success 200 {object} CohortResponse
// @Failure 400 {object} gin.H "Invalid ID format"
// @Failure 404 {object} gin.H "Cohort not found"
// @Router /cohorts/{cohortId} [get]
func (h *CohortHandler) GetCohort(c *gin.Context) {
	id, ok := pathObjectID(c, "cohortId")
	if !ok {
		return
	}
	cohort, err := h.cohortService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapCohortToResponse(cohort))
}

// GetOverview godoc
// @Summary Cohort overview
// @Description Head count, selection count, current week and meal adherence for a cohort.
// @Tags Cohorts
// @Produce json
// @Security BearerAuth
// @Param cohortId path string true "Cohort ID"
// @Success 200 {object} CohortOverviewResponse
// @Failure 404 {object} gin.H "Cohort not found"
// @Router /cohorts/{cohortId}/overview [get]
func (h *CohortHandler) GetOverview(c *gin.Context) {
	id, ok := pathObjectID(c, "cohortId")
	if !ok {
		return
	}
	o, err := h.cohortService.Overview(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, CohortOverviewResponse{
		Cohort:            MapCohortToResponse(&o.Cohort),
		ParticipantCount:  o.ParticipantCount,
		SelectionCount:    o.SelectionCount,
		CurrentWeek:       o.CurrentWeek,
		Phase:             o.Phase,
		DurationWeeks:     o.DurationWeeks,
		MealAdherenceRate: o.MealAdherenceRate,
	})
}

// GetWeeks godoc
// @Summary Cohort weeks
// @Description Lists the inclusive date range of each challenge week.
// @Tags Cohorts
// @Produce json
// @Security BearerAuth
// @Param cohortId path string true "Cohort ID"
// @Success 200 {array} WeekResponse
// @Failure 404 {object} gin.H "Cohort not found"
// @Router /cohorts/{cohortId}/weeks [get]
func (h *CohortHandler) GetWeeks(c *gin.Context) {
	id, ok := pathObjectID(c, "cohortId")
	if !ok {
		return
	}
	weeks, err := h.cohortService.Weeks(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := make([]WeekResponse, len(weeks))
	for i, w := range weeks {
		resp[i] = WeekResponse{Number: w.Number, Start: schedule.FormatDate(w.Start), End: schedule.FormatDate(w.End)}
	}
	c.JSON(http.StatusOK, resp)
}

// CreateCohort godoc
// @Summary Create a cohort
// @Description New cohorts start inactive. The end date is derived from start date and duration.
// @Tags Cohorts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param cohort body CohortRequest true "Cohort details"
// @Success 201 {object} CohortResponse
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 401 {object} gin.H "Unauthorized"
// @Router /cohorts [post]
func (h *CohortHandler) CreateCohort(c *gin.Context) {
	var req CohortRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	in, ok := req.toInput(c)
	if !ok {
		return
	}
	cohort, err := h.cohortService.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapCohortToResponse(cohort))
}

// UpdateCohort godoc
// @Summary Update a cohort
// @Tags Cohorts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param cohortId path string true "Cohort ID"
// @Param cohort body CohortRequest true "Cohort details"
// @Success 200 {object} CohortResponse
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 404 {object} gin.H "Cohort not found"
// @Router /cohorts/{cohortId} [put]
func (h *CohortHandler) UpdateCohort(c *gin.Context) {
	id, ok := pathObjectID(c, "cohortId")
	if !ok {
		return
	}
	var req CohortRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	in, ok := req.toInput(c)
	if !ok {
		return
	}
	cohort, err := h.cohortService.Update(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapCohortToResponse(cohort))
}

// ActivateCohort godoc
// @Summary Activate a cohort
// @Description Makes this the only active cohort.
// @Tags Cohorts
// @Security BearerAuth
// @Param cohortId path string true "Cohort ID"
// @Success 204 "Activated"
// @Failure 404 {object} gin.H "Cohort not found"
// @Router /cohorts/{cohortId}/activate [post]
func (h *CohortHandler) ActivateCohort(c *gin.Context) {
	id, ok := pathObjectID(c, "cohortId")
	if !ok {
		return
	}
	if err := h.cohortService.Activate(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeactivateCohort godoc
// @Summary Deactivate a cohort
// @Tags Cohorts
// @Security BearerAuth
// @Param cohortId path string true "Cohort ID"
// @Success 204 "Deactivated"
// @Failure 404 {object} gin.H "Cohort not found"
// @Router /cohorts/{cohortId}/deactivate [post]
func (h *CohortHandler) DeactivateCohort(c *gin.Context) {
	id, ok := pathObjectID(c, "cohortId")
	if !ok {
		return
	}
	if err := h.cohortService.Deactivate(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteCohort godoc
// @Summary Delete a cohort
// @Description Refused while any participant is still enrolled.
// @Tags Cohorts
// @Security BearerAuth
// @Param cohortId path string true "Cohort ID"
// @Success 204 "Deleted"
// @Failure 404 {object} gin.H "Cohort not found"
// @Failure 409 {object} gin.H "Participants still enrolled"
// @Router /cohorts/{cohortId} [delete]
func (h *CohortHandler) DeleteCohort(c *gin.Context) {
	id, ok := pathObjectID(c, "cohortId")
	if !ok {
		return
	}
	if err := h.cohortService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MapCohortToResponse converts a domain Cohort to a CohortResponse DTO.
func MapCohortToResponse(cohort *domain.Cohort) CohortResponse {
	if cohort == nil {
		return CohortResponse{}
	}
	resp := CohortResponse{
		ID:            cohort.ID.Hex(),
		Name:          cohort.Name,
		StartDate:     schedule.FormatDate(cohort.StartDate),
		EndDate:       schedule.FormatDate(cohort.EndDate),
		DurationWeeks: cohort.DurationWeeks,
		IsActive:      cohort.IsActive,
	}
	if cohort.MealProgramID != nil {
		hex := cohort.MealProgramID.Hex()
		resp.MealProgramID = &hex
	}
	return resp
}
