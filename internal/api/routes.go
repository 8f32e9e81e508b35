package api

import (
	"alcyxob/challenge-admin/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Services bundles what the HTTP layer needs.
type Services struct {
	Auth         service.AuthService
	Access       service.AccessGate
	Cohorts      service.CohortService
	Programs     service.ProgramService
	Participants service.ParticipantService
	Enrollments  service.EnrollmentService
	Selections   service.SelectionService
}

func SetupRoutes(router *gin.Engine, svc Services) {
	authHandler := NewAuthHandler(svc.Auth)
	cohortHandler := NewCohortHandler(svc.Cohorts)
	programHandler := NewProgramHandler(svc.Programs)
	participantHandler := NewParticipantHandler(svc.Participants, svc.Enrollments)
	selectionHandler := NewSelectionHandler(svc.Selections)

	authMiddleware := AuthMiddleware(svc.Auth)
	readGate := RoleGate(svc.Access, service.AccessRead)
	writeGate := RoleGate(svc.Access, service.AccessWrite)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/logout", authMiddleware, authHandler.Logout)
		}
	}

	// Viewers and super admins.
	read := apiV1.Group("")
	read.Use(authMiddleware, readGate)
	{
		read.GET("/me", authHandler.Me)

		read.GET("/cohorts", cohortHandler.ListCohorts)
		read.GET("/cohorts/:cohortId", cohortHandler.GetCohort)
		read.GET("/cohorts/:cohortId/overview", cohortHandler.GetOverview)
		read.GET("/cohorts/:cohortId/weeks", cohortHandler.GetWeeks)

		read.GET("/participants", participantHandler.ListParticipants)
		read.GET("/participants/:participantId", participantHandler.GetParticipant)
		read.GET("/participants/:participantId/enrollments", participantHandler.GetHistory)

		read.GET("/programs", programHandler.ListPrograms)
		read.GET("/programs/:programId", programHandler.GetProgram)
		read.GET("/programs/:programId/options", programHandler.ListOptions)

		read.GET("/selections", selectionHandler.ListSelections)
	}

	// Super admins only.
	write := apiV1.Group("")
	write.Use(authMiddleware, writeGate)
	{
		write.POST("/cohorts", cohortHandler.CreateCohort)
		write.PUT("/cohorts/:cohortId", cohortHandler.UpdateCohort)
		write.DELETE("/cohorts/:cohortId", cohortHandler.DeleteCohort)
		write.POST("/cohorts/:cohortId/activate", cohortHandler.ActivateCohort)
		write.POST("/cohorts/:cohortId/deactivate", cohortHandler.DeactivateCohort)

		write.POST("/participants", participantHandler.CreateParticipant)
		write.PUT("/participants/:participantId", participantHandler.UpdateParticipant)
		write.DELETE("/participants/:participantId", participantHandler.DeleteParticipant)
		write.POST("/participants/:participantId/enrollments", participantHandler.Enroll)
		write.DELETE("/participants/:participantId/enrollments/:cohortId", participantHandler.RemoveEnrollment)

		write.POST("/programs", programHandler.CreateProgram)
		write.PUT("/programs/:programId", programHandler.UpdateProgram)
		write.DELETE("/programs/:programId", programHandler.DeleteProgram)
		write.POST("/programs/:programId/duplicate", programHandler.DuplicateProgram)
		write.POST("/programs/:programId/options", programHandler.CreateOption)
		write.POST("/programs/:programId/images/upload-url", programHandler.RequestImageUpload)
		write.PUT("/options/:optionId", programHandler.UpdateOption)
	}

	// Download link used by the dashboard's export button.
	exportGroup := router.Group("/api/export")
	exportGroup.Use(authMiddleware, readGate)
	{
		exportGroup.GET("/selections", selectionHandler.ExportSelections)
	}
}
