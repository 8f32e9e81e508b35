package api

import (
	"alcyxob/challenge-admin/internal/service"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

const csvContentType = "text/csv"

// SelectionHandler serves meal selections and their CSV export.
type SelectionHandler struct {
	selectionService service.SelectionService
}

// NewSelectionHandler creates a new SelectionHandler.
func NewSelectionHandler(selectionService service.SelectionService) *SelectionHandler {
	return &SelectionHandler{selectionService: selectionService}
}

func selectionQueryFromRequest(c *gin.Context) (service.SelectionQuery, bool) {
	cohortID, ok := optionalObjectID(c, "cohort_id", c.Query("cohort_id"))
	if !ok {
		return service.SelectionQuery{}, false
	}
	week, ok := queryWeek(c)
	if !ok {
		return service.SelectionQuery{}, false
	}
	return service.SelectionQuery{CohortID: cohortID, Week: week}, true
}

// ListSelections godoc
// @Summary List meal selections
// @Description Selections of a cohort's participants with dish names resolved. Defaults to the active cohort.
// @Tags Selections
// @Produce json
// @Security BearerAuth
// @Param cohort_id query string false "Cohort ID"
// @Param week query int false "Challenge week"
// @Success 200 {array} service.SelectionView
// @Failure 400 {object} gin.H "Invalid query"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /selections [get]
func (h *SelectionHandler) ListSelections(c *gin.Context) {
	q, ok := selectionQueryFromRequest(c)
	if !ok {
		return
	}
	views, err := h.selectionService.List(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// ExportSelections godoc
// @Summary Export meal selections as CSV
// @Description One row per selection with one column per day and meal.
// @Tags Selections
// @Produce text/csv
// @Security BearerAuth
// @Param cohort_id query string false "Cohort ID"
// @Param week query int false "Challenge week"
// @Success 200 {file} file "CSV attachment"
// @Failure 400 {object} gin.H "Invalid query"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /export/selections [get]
func (h *SelectionHandler) ExportSelections(c *gin.Context) {
	q, ok := selectionQueryFromRequest(c)
	if !ok {
		return
	}
	export, err := h.selectionService.Export(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", export.Filename))
	c.Data(http.StatusOK, csvContentType, export.Body)
}
