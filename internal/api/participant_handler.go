package api

import (
	"alcyxob/challenge-admin/internal/domain"
	"alcyxob/challenge-admin/internal/service"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ParticipantHandler handles the roster and cohort membership of participants.
type ParticipantHandler struct {
	participantService service.ParticipantService
	enrollmentService  service.EnrollmentService
}

// NewParticipantHandler creates a new ParticipantHandler.
func NewParticipantHandler(participantService service.ParticipantService, enrollmentService service.EnrollmentService) *ParticipantHandler {
	return &ParticipantHandler{
		participantService: participantService,
		enrollmentService:  enrollmentService,
	}
}

// --- Request/Response Structs ---

type CreateParticipantRequest struct {
	Email    string      `json:"email" binding:"required,email"`
	FullName string      `json:"fullName,omitempty"`
	Role     domain.Role `json:"role,omitempty" binding:"omitempty,oneof=user super_admin viewer"`
	CohortID string      `json:"cohortId,omitempty"`
}

type UpdateParticipantRequest struct {
	FullName *string      `json:"fullName,omitempty"`
	Role     *domain.Role `json:"role,omitempty" binding:"omitempty,oneof=user super_admin viewer"`
	CohortID *string      `json:"cohortId,omitempty"`
}

type EnrollRequest struct {
	CohortID string `json:"cohortId" binding:"required"`
}

type EnrollmentResponse struct {
	ID       string                  `json:"id"`
	UserID   string                  `json:"userId"`
	CohortID string                  `json:"cohortId"`
	Status   domain.EnrollmentStatus `json:"status"`
	JoinedAt time.Time               `json:"joinedAt"`
	LeftAt   *time.Time              `json:"leftAt,omitempty"`
}

// --- Handler Methods ---

// ListParticipants godoc
// @Summary List participants of a cohort
// @Description Defaults to the active cohort. Returns an empty list when no cohort is active.
// @Tags Participants
// @Produce json
// @Security BearerAuth
// @Param cohort_id query string false "Cohort ID"
// @Success 200 {array} service.ParticipantSummary
// @Failure 400 {object} gin.H "Invalid cohort_id"
// @Failure 404 {object} gin.H "Cohort not found"
// @Router /participants [get]
func (h *ParticipantHandler) ListParticipants(c *gin.Context) {
	cohortID, ok := optionalObjectID(c, "cohort_id", c.Query("cohort_id"))
	if !ok {
		return
	}
	roster, err := h.participantService.List(c.Request.Context(), cohortID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, roster)
}

// GetParticipant godoc
// @Summary Participant detail
// @Description Profile, streak, recent check-ins and habits, meal selections and enrollment history.
// @Tags Participants
// @Produce json
// @Security BearerAuth
// @Param participantId path string true "Participant ID"
// @Success 200 {object} service.ParticipantDetail
// @Failure 404 {object} gin.H "Participant not found"
// @Router /participants/{participantId} [get]
func (h *ParticipantHandler) GetParticipant(c *gin.Context) {
	id, ok := pathObjectID(c, "participantId")
	if !ok {
		return
	}
	detail, err := h.participantService.Detail(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// CreateParticipant godoc
// @Summary Create a participant or operator
// @Tags Participants
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param participant body CreateParticipantRequest true "Participant details"
// @Success 201 {object} ProfileResponse
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 409 {object} gin.H "Email already registered"
// @Router /participants [post]
func (h *ParticipantHandler) CreateParticipant(c *gin.Context) {
	var req CreateParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	cohortID, ok := optionalObjectID(c, "cohortId", req.CohortID)
	if !ok {
		return
	}
	profile, err := h.participantService.Create(c.Request.Context(), service.ParticipantInput{
		Email:    req.Email,
		FullName: req.FullName,
		Role:     req.Role,
		CohortID: cohortID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapProfileToResponse(profile))
}

// UpdateParticipant godoc
// @Summary Update a participant
// @Description Changes name or role. A new cohortId moves the participant.
// @Tags Participants
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param participantId path string true "Participant ID"
// @Param participant body UpdateParticipantRequest true "Fields to change"
// @Success 200 {object} ProfileResponse
// @Failure 404 {object} gin.H "Participant not found"
// @Router /participants/{participantId} [put]
func (h *ParticipantHandler) UpdateParticipant(c *gin.Context) {
	id, ok := pathObjectID(c, "participantId")
	if !ok {
		return
	}
	var req UpdateParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	update := service.ParticipantUpdate{FullName: req.FullName, Role: req.Role}
	if req.CohortID != nil {
		cohortID, ok := optionalObjectID(c, "cohortId", *req.CohortID)
		if !ok {
			return
		}
		update.CohortID = cohortID
	}
	profile, err := h.participantService.Update(c.Request.Context(), id, update)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapProfileToResponse(profile))
}

// DeleteParticipant godoc
// @Summary Delete a participant
// @Tags Participants
// @Security BearerAuth
// @Param participantId path string true "Participant ID"
// @Success 204 "Deleted"
// @Failure 404 {object} gin.H "Participant not found"
// @Router /participants/{participantId} [delete]
func (h *ParticipantHandler) DeleteParticipant(c *gin.Context) {
	id, ok := pathObjectID(c, "participantId")
	if !ok {
		return
	}
	if err := h.participantService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Enroll godoc
// @Summary Enroll a participant in a cohort
// @Description Completes any other active membership first.
// @Tags Participants
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param participantId path string true "Participant ID"
// @Param body body EnrollRequest true "Target cohort"
// @Success 200 {object} EnrollmentResponse
// @Failure 404 {object} gin.H "Participant or cohort not found"
// @Router /participants/{participantId}/enrollments [post]
func (h *ParticipantHandler) Enroll(c *gin.Context) {
	userID, ok := pathObjectID(c, "participantId")
	if !ok {
		return
	}
	var req EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	cohortID, ok := optionalObjectID(c, "cohortId", req.CohortID)
	if !ok {
		return
	}
	enrollment, err := h.enrollmentService.Enroll(c.Request.Context(), userID, *cohortID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapEnrollmentToResponse(enrollment))
}

// RemoveEnrollment godoc
// @Summary Remove a participant from a cohort
// @Tags Participants
// @Produce json
// @Security BearerAuth
// @Param participantId path string true "Participant ID"
// @Param cohortId path string true "Cohort ID"
// @Success 200 {object} EnrollmentResponse
// @Failure 404 {object} gin.H "Enrollment not found"
// @Router /participants/{participantId}/enrollments/{cohortId} [delete]
func (h *ParticipantHandler) RemoveEnrollment(c *gin.Context) {
	userID, ok := pathObjectID(c, "participantId")
	if !ok {
		return
	}
	cohortID, ok := pathObjectID(c, "cohortId")
	if !ok {
		return
	}
	enrollment, err := h.enrollmentService.Remove(c.Request.Context(), userID, cohortID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapEnrollmentToResponse(enrollment))
}

// GetHistory godoc
// @Summary Enrollment history of a participant
// @Tags Participants
// @Produce json
// @Security BearerAuth
// @Param participantId path string true "Participant ID"
// @Success 200 {array} service.EnrollmentHistoryEntry
// @Router /participants/{participantId}/enrollments [get]
func (h *ParticipantHandler) GetHistory(c *gin.Context) {
	userID, ok := pathObjectID(c, "participantId")
	if !ok {
		return
	}
	history, err := h.enrollmentService.History(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

// MapEnrollmentToResponse converts a domain Enrollment to an EnrollmentResponse DTO.
func MapEnrollmentToResponse(e *domain.Enrollment) EnrollmentResponse {
	if e == nil {
		return EnrollmentResponse{}
	}
	return EnrollmentResponse{
		ID:       e.ID.Hex(),
		UserID:   e.UserID.Hex(),
		CohortID: e.CohortID.Hex(),
		Status:   e.Status,
		JoinedAt: e.JoinedAt,
		LeftAt:   e.LeftAt,
	}
}
