package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agoraboard/agora/internal/apperr"
	"github.com/agoraboard/agora/internal/models"
	"github.com/agoraboard/agora/internal/policy"
	"github.com/agoraboard/agora/internal/ratelimit"
)

type createReportRequest struct {
	TargetType string `json:"target_type"`
	TargetID   string `json:"target_id"`
	Reason     string `json:"reason"`
}

// createReport handles POST /reports
func (r *Router) createReport(c *gin.Context) {
	actor, err := requireActor(c)
	if err != nil {
		Fail(c, err)
		return
	}
	if err := policy.AssertNotSuspended(actor.Profile, time.Now()); err != nil {
		Fail(c, err)
		return
	}

	var req createReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, apperr.Validation("Invalid request body"))
		return
	}
	if req.TargetType != models.ReportTargetPost && req.TargetType != models.ReportTargetComment {
		Fail(c, apperr.Validation("Target type must be post or comment"))
		return
	}
	if req.TargetID == "" {
		Fail(c, apperr.Validation("Target id is required"))
		return
	}
	if n := len(req.Reason); n < 3 || n > 2000 {
		Fail(c, apperr.Validation("Reason must be between 3 and 2000 characters"))
		return
	}

	boardID, err := r.reportableBoard(c, req.TargetType, req.TargetID)
	if err != nil {
		Fail(c, err)
		return
	}

	board, err := r.repo.Boards().GetByID(c.Request.Context(), boardID)
	if err != nil {
		Fail(c, err)
		return
	}
	if board == nil {
		Fail(c, apperr.NotFound("Report target not found"))
		return
	}
	if err := policy.AssertBoardWriteAccess(board, policyActor(actor), policy.ActionReport); err != nil {
		Fail(c, err)
		return
	}

	if err := r.consumeRate(c, ratelimit.ActionReport,
		ratelimit.ActorKey("user:"+actor.UserID),
		ratelimit.ActorKey("ip:"+clientIP(c))); err != nil {
		Fail(c, err)
		return
	}

	report := &models.Report{
		ID:         uuid.NewString(),
		TargetType: req.TargetType,
		TargetID:   req.TargetID,
		ReporterID: actor.UserID,
		Reason:     req.Reason,
		Status:     models.ReportStatusOpen,
		CreatedAt:  time.Now().UTC(),
	}
	if err := r.repo.Reports().Create(c.Request.Context(), report); err != nil {
		Fail(c, err)
		return
	}

	Created(c, report)
}

// reportableBoard verifies the report target is still live and returns
// the board it belongs to. A comment's post must survive too.
func (r *Router) reportableBoard(c *gin.Context, targetType, targetID string) (string, error) {
	if targetType == models.ReportTargetPost {
		post, err := r.repo.Posts().GetByID(c.Request.Context(), targetID)
		if err != nil {
			return "", err
		}
		if post == nil {
			return "", apperr.NotFound("Report target not found")
		}
		return post.BoardID, nil
	}

	comment, err := r.repo.Comments().GetByID(c.Request.Context(), targetID)
	if err != nil {
		return "", err
	}
	if comment == nil {
		return "", apperr.NotFound("Report target not found")
	}
	post, err := r.repo.Posts().GetByID(c.Request.Context(), comment.PostID)
	if err != nil {
		return "", err
	}
	if post == nil {
		return "", apperr.NotFound("Report target not found")
	}
	return post.BoardID, nil
}
