package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/bakehouse-api/services"
	"github.com/kendall-kelly/bakehouse-api/utils"
	"github.com/sirupsen/logrus"
)

// ApplicationRequest represents the request body for applying to a team
type ApplicationRequest struct {
	MainBakerID uint   `json:"main_baker_id" binding:"required"`
	Reason      string `json:"reason" binding:"required"`
}

// RejectRequest represents the optional request body of a rejection
type RejectRequest struct {
	Reason *string `json:"reason"`
}

// TeamController serves baker teams and applications
type TeamController struct {
	teams *services.TeamService
	log   logrus.FieldLogger
}

// NewTeamController creates a TeamController
func NewTeamController(teams *services.TeamService, log logrus.FieldLogger) *TeamController {
	return &TeamController{teams: teams, log: log}
}

// ListMainBakers handles GET /api/main-bakers
func (ctl *TeamController) ListMainBakers(c *gin.Context) {
	bakers, err := ctl.teams.ListMainBakers(c.Request.Context())
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	utils.SuccessResponse(c, bakers)
}

// GetTeam handles GET /api/main-bakers/:id/team
func (ctl *TeamController) GetTeam(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	members, err := ctl.teams.GetTeamForMainBaker(c.Request.Context(), id)
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	utils.SuccessResponse(c, members)
}

// SubmitApplication handles POST /api/baker-applications
func (ctl *TeamController) SubmitApplication(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req ApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	application, err := ctl.teams.SubmitApplication(c.Request.Context(), p, req.MainBakerID, req.Reason)
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	utils.CreatedResponse(c, application)
}

// MyApplications handles GET /api/baker-applications/mine
func (ctl *TeamController) MyApplications(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	applications, err := ctl.teams.MyApplications(c.Request.Context(), p)
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	utils.SuccessResponse(c, applications)
}

// ListApplications handles GET /api/baker-applications?status=
func (ctl *TeamController) ListApplications(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	applications, err := ctl.teams.ListApplications(c.Request.Context(), p, c.Query("status"))
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	utils.SuccessResponse(c, applications)
}

// ApproveApplication handles PATCH /api/admin/baker-applications/:id/approve
func (ctl *TeamController) ApproveApplication(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	result, err := ctl.teams.ApproveApplication(c.Request.Context(), p, id)
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	utils.SuccessResponse(c, result)
}

// RejectApplication handles PATCH /api/admin/baker-applications/:id/reject
func (ctl *TeamController) RejectApplication(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req RejectRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.ValidationErrorResponse(c, err)
			return
		}
	}

	application, err := ctl.teams.RejectApplication(c.Request.Context(), p, id, req.Reason)
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	utils.SuccessResponse(c, application)
}

// RemoveMember handles DELETE /api/team/members/:juniorId
func (ctl *TeamController) RemoveMember(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "juniorId")
	if !ok {
		return
	}

	if err := ctl.teams.RemoveFromTeam(c.Request.Context(), p, id); err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
