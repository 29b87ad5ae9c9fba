package api

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agoraboard/agora/internal/apperr"
	"github.com/agoraboard/agora/internal/auth"
	"github.com/agoraboard/agora/internal/db"
	"github.com/agoraboard/agora/internal/models"
	"github.com/agoraboard/agora/internal/moderation"
	"github.com/agoraboard/agora/internal/policy"
	"github.com/agoraboard/agora/internal/slugger"
)

const (
	adminPageSize      = 20
	adminReportLimit   = 200
	adminActivityLimit = 50
)

var (
	searchStripRe    = regexp.MustCompile("[(),\"'`;]")
	searchCollapseRe = regexp.MustCompile(`\s+`)
)

// requireAdmin resolves the actor and rejects non-admins
func (r *Router) requireAdmin(c *gin.Context) (*auth.Actor, error) {
	actor, err := requireActor(c)
	if err != nil {
		return nil, err
	}
	if err := policy.RequireAdmin(policyActor(actor)); err != nil {
		return nil, err
	}
	return actor, nil
}

// sanitizeSearch strips characters that could distort the ILIKE
// pattern and escapes the wildcard metacharacters
func sanitizeSearch(q string) string {
	q = searchStripRe.ReplaceAllString(q, "")
	q = searchCollapseRe.ReplaceAllString(q, " ")
	q = strings.TrimSpace(q)
	q = strings.ReplaceAll(q, `\`, `\\`)
	q = strings.ReplaceAll(q, "%", `\%`)
	q = strings.ReplaceAll(q, "_", `\_`)
	if len(q) > 100 {
		q = q[:100]
	}
	return q
}

// adminListUsers handles GET /admin/users
func (r *Router) adminListUsers(c *gin.Context) {
	if _, err := r.requireAdmin(c); err != nil {
		Fail(c, err)
		return
	}

	page, _ := strconv.Atoi(c.Query("page"))
	if page < 1 {
		page = 1
	}

	role := c.Query("role")
	if role != "" && role != models.RoleUser && role != models.RoleAdmin {
		Fail(c, apperr.Validation("Role filter must be user or admin"))
		return
	}

	profiles, total, err := r.repo.Profiles().SearchAdmin(c.Request.Context(), db.AdminUserQuery{
		Page:          page,
		PageSize:      adminPageSize,
		Role:          role,
		Search:        sanitizeSearch(c.Query("q")),
		SuspendedOnly: c.Query("suspended") == "true",
	})
	if err != nil {
		Fail(c, err)
		return
	}

	OK(c, gin.H{
		"users":     profiles,
		"page":      page,
		"page_size": adminPageSize,
		"total":     total,
	})
}

// adminUserActivity handles GET /admin/users/:userId/activity
func (r *Router) adminUserActivity(c *gin.Context) {
	if _, err := r.requireAdmin(c); err != nil {
		Fail(c, err)
		return
	}

	userID := c.Param("userId")
	profile, err := r.repo.Profiles().GetByID(c.Request.Context(), userID)
	if err != nil {
		Fail(c, err)
		return
	}
	if profile == nil {
		Fail(c, apperr.NotFound("User not found"))
		return
	}

	ctx := c.Request.Context()
	posts, err := r.repo.Posts().ListByAuthor(ctx, userID, adminActivityLimit)
	if err != nil {
		Fail(c, err)
		return
	}
	comments, err := r.repo.Comments().ListByAuthor(ctx, userID, adminActivityLimit)
	if err != nil {
		Fail(c, err)
		return
	}
	reports, err := r.repo.Reports().ListByReporter(ctx, userID, adminActivityLimit)
	if err != nil {
		Fail(c, err)
		return
	}
	actions, err := r.repo.Moderation().ListByAdmin(ctx, userID, adminActivityLimit)
	if err != nil {
		Fail(c, err)
		return
	}

	OK(c, gin.H{
		"user":               profile,
		"posts":              posts,
		"comments":           comments,
		"reports":            reports,
		"moderation_actions": actions,
	})
}

type setRoleRequest struct {
	Role string `json:"role"`
}

// adminSetRole handles PATCH /admin/users/:userId/role
func (r *Router) adminSetRole(c *gin.Context) {
	actor, err := r.requireAdmin(c)
	if err != nil {
		Fail(c, err)
		return
	}

	var req setRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, apperr.Validation("Invalid request body"))
		return
	}
	if req.Role != models.RoleUser && req.Role != models.RoleAdmin {
		Fail(c, apperr.Validation("Role must be user or admin"))
		return
	}

	profile, err := r.repo.Profiles().SetRole(c.Request.Context(), c.Param("userId"), req.Role)
	if err != nil {
		Fail(c, err)
		return
	}
	if profile == nil {
		Fail(c, apperr.NotFound("User not found"))
		return
	}

	r.ledger.Record(c.Request.Context(), actor.UserID, models.ActionSetRole,
		moderation.TargetUser, profile.ID, map[string]interface{}{"role": req.Role})

	OK(c, profile)
}

type suspendRequest struct {
	Days   int    `json:"days"`
	Reason string `json:"reason"`
}

// adminSuspendUser handles PATCH /admin/users/:userId/suspend
func (r *Router) adminSuspendUser(c *gin.Context) {
	actor, err := r.requireAdmin(c)
	if err != nil {
		Fail(c, err)
		return
	}

	var req suspendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, apperr.Validation("Invalid request body"))
		return
	}
	if req.Days < 1 || req.Days > 3650 {
		Fail(c, apperr.Validation("Days must be between 1 and 3650"))
		return
	}
	if n := len(req.Reason); n < 2 || n > 1000 {
		Fail(c, apperr.Validation("Reason must be between 2 and 1000 characters"))
		return
	}

	until := time.Now().UTC().Add(time.Duration(req.Days) * 24 * time.Hour)
	profile, err := r.repo.Profiles().Suspend(c.Request.Context(), c.Param("userId"), until, req.Reason)
	if err != nil {
		Fail(c, err)
		return
	}
	if profile == nil {
		Fail(c, apperr.NotFound("User not found"))
		return
	}

	r.ledger.Record(c.Request.Context(), actor.UserID, models.ActionSuspendUser,
		moderation.TargetUser, profile.ID, map[string]interface{}{
			"days":            req.Days,
			"reason":          req.Reason,
			"suspended_until": until,
		})

	OK(c, profile)
}

// adminRestoreUser handles PATCH /admin/users/:userId/restore
func (r *Router) adminRestoreUser(c *gin.Context) {
	actor, err := r.requireAdmin(c)
	if err != nil {
		Fail(c, err)
		return
	}

	profile, err := r.repo.Profiles().Restore(c.Request.Context(), c.Param("userId"))
	if err != nil {
		Fail(c, err)
		return
	}
	if profile == nil {
		Fail(c, apperr.NotFound("User not found"))
		return
	}

	r.ledger.Record(c.Request.Context(), actor.UserID, models.ActionRestoreUser,
		moderation.TargetUser, profile.ID, nil)

	OK(c, profile)
}

// adminListReports handles GET /admin/reports
func (r *Router) adminListReports(c *gin.Context) {
	if _, err := r.requireAdmin(c); err != nil {
		Fail(c, err)
		return
	}

	status := c.Query("status")
	switch status {
	case "", models.ReportStatusOpen, models.ReportStatusResolved, models.ReportStatusRejected:
	default:
		Fail(c, apperr.Validation("Status filter must be open, resolved, or rejected"))
		return
	}

	reports, err := r.repo.Reports().List(c.Request.Context(), status, adminReportLimit)
	if err != nil {
		Fail(c, err)
		return
	}

	OK(c, gin.H{"reports": reports})
}

type resolveReportRequest struct {
	ReportID string `json:"report_id"`
	Status   string `json:"status"`
}

// adminResolveReport handles PATCH /admin/reports
func (r *Router) adminResolveReport(c *gin.Context) {
	actor, err := r.requireAdmin(c)
	if err != nil {
		Fail(c, err)
		return
	}

	var req resolveReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, apperr.Validation("Invalid request body"))
		return
	}
	if req.ReportID == "" {
		Fail(c, apperr.Validation("Report id is required"))
		return
	}
	if req.Status != models.ReportStatusResolved && req.Status != models.ReportStatusRejected {
		Fail(c, apperr.Validation("Status must be resolved or rejected"))
		return
	}

	existing, err := r.repo.Reports().GetByID(c.Request.Context(), req.ReportID)
	if err != nil {
		Fail(c, err)
		return
	}
	if existing == nil {
		Fail(c, apperr.NotFound("Report not found"))
		return
	}

	report, err := r.repo.Reports().Resolve(c.Request.Context(), req.ReportID, req.Status, actor.UserID)
	if err != nil {
		Fail(c, err)
		return
	}
	// Zero rows updated means another admin closed it first
	if report == nil {
		Fail(c, apperr.Conflict("Report has already been handled"))
		return
	}

	r.ledger.Record(c.Request.Context(), actor.UserID, "report_"+req.Status,
		moderation.TargetReport, report.ID, map[string]interface{}{
			"target_type": report.TargetType,
			"target_id":   report.TargetID,
		})

	OK(c, report)
}

type moderateRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// adminModeratePost handles PATCH /admin/moderation/posts/:postId
func (r *Router) adminModeratePost(c *gin.Context) {
	actor, err := r.requireAdmin(c)
	if err != nil {
		Fail(c, err)
		return
	}

	var req moderateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, apperr.Validation("Invalid request body"))
		return
	}
	switch req.Status {
	case models.PostStatusPublished, models.PostStatusHidden, models.PostStatusDeleted:
	default:
		Fail(c, apperr.Validation("Status must be published, hidden, or deleted"))
		return
	}

	post, err := r.repo.Posts().SetModerationStatus(c.Request.Context(), c.Param("postId"), req.Status, actor.UserID)
	if err != nil {
		Fail(c, err)
		return
	}
	if post == nil {
		Fail(c, apperr.NotFound("Post not found"))
		return
	}

	r.ledger.Record(c.Request.Context(), actor.UserID, "moderate_post_"+req.Status,
		moderation.TargetPost, post.ID, moderationMeta(req.Reason))

	OK(c, post)
}

// adminModerateComment handles PATCH /admin/moderation/comments/:commentId
func (r *Router) adminModerateComment(c *gin.Context) {
	actor, err := r.requireAdmin(c)
	if err != nil {
		Fail(c, err)
		return
	}

	var req moderateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, apperr.Validation("Invalid request body"))
		return
	}
	switch req.Status {
	case models.CommentStatusPublished, models.CommentStatusHidden, models.CommentStatusDeleted:
	default:
		Fail(c, apperr.Validation("Status must be published, hidden, or deleted"))
		return
	}

	comment, err := r.repo.Comments().SetModerationStatus(c.Request.Context(), c.Param("commentId"), req.Status, actor.UserID)
	if err != nil {
		Fail(c, err)
		return
	}
	if comment == nil {
		Fail(c, apperr.NotFound("Comment not found"))
		return
	}

	r.ledger.Record(c.Request.Context(), actor.UserID, "moderate_comment_"+req.Status,
		moderation.TargetComment, comment.ID, moderationMeta(req.Reason))

	OK(c, comment)
}

func moderationMeta(reason string) map[string]interface{} {
	if reason == "" {
		return nil
	}
	return map[string]interface{}{"reason": reason}
}

type createBoardRequest struct {
	Slug                string `json:"slug"`
	Name                string `json:"name"`
	Description         string `json:"description"`
	IsPublic            *bool  `json:"is_public"`
	AllowPost           *bool  `json:"allow_post"`
	AllowComment        *bool  `json:"allow_comment"`
	RequirePostApproval *bool  `json:"require_post_approval"`
}

// adminCreateBoard handles POST /admin/boards/create
func (r *Router) adminCreateBoard(c *gin.Context) {
	actor, err := r.requireAdmin(c)
	if err != nil {
		Fail(c, err)
		return
	}

	var req createBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, apperr.Validation("Invalid request body"))
		return
	}
	if n := len(req.Name); n < 1 || n > 100 {
		Fail(c, apperr.Validation("Name must be between 1 and 100 characters"))
		return
	}
	if len(req.Description) > 1000 {
		Fail(c, apperr.Validation("Description must be at most 1000 characters"))
		return
	}

	slug := slugger.ToSlug(req.Slug)
	if slug == "" {
		Fail(c, apperr.Validation("Slug must contain letters or digits"))
		return
	}

	taken, err := r.repo.Boards().SlugExists(c.Request.Context(), slug)
	if err != nil {
		Fail(c, err)
		return
	}
	if taken {
		Fail(c, apperr.Conflict(fmt.Sprintf("Slug %q is already in use", slug)))
		return
	}

	now := time.Now().UTC()
	board := &models.Board{
		ID:                  uuid.NewString(),
		Slug:                slug,
		Name:                req.Name,
		Description:         req.Description,
		IsPublic:            boolOr(req.IsPublic, true),
		AllowPost:           boolOr(req.AllowPost, true),
		AllowComment:        boolOr(req.AllowComment, true),
		RequirePostApproval: boolOr(req.RequirePostApproval, false),
		CreatedBy:           actor.UserID,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := r.repo.Boards().Create(c.Request.Context(), board); err != nil {
		if apperr.IsDuplicateKey(err) {
			Fail(c, apperr.Conflict(fmt.Sprintf("Slug %q is already in use", slug)))
			return
		}
		Fail(c, err)
		return
	}

	r.invalidateBoardList(c)
	r.ledger.Record(c.Request.Context(), actor.UserID, models.ActionCreateBoard,
		moderation.TargetBoard, board.ID, map[string]interface{}{"slug": board.Slug})

	Created(c, board)
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

type cloneBoardRequest struct {
	TemplateID          string  `json:"template_id"`
	SourceBoardSlug     string  `json:"source_board_slug"`
	NewSlugBase         string  `json:"new_slug_base"`
	NewName             string  `json:"new_name"`
	Description         *string `json:"description"`
	IsPublic            *bool   `json:"is_public"`
	AllowPost           *bool   `json:"allow_post"`
	AllowComment        *bool   `json:"allow_comment"`
	RequirePostApproval *bool   `json:"require_post_approval"`
}

// templateSettings is the shape of board_templates.settings
type templateSettings struct {
	Description         *string `json:"description"`
	IsPublic            *bool   `json:"is_public"`
	AllowPost           *bool   `json:"allow_post"`
	AllowComment        *bool   `json:"allow_comment"`
	RequirePostApproval *bool   `json:"require_post_approval"`
}

// adminCloneBoard handles POST /admin/boards/clone
func (r *Router) adminCloneBoard(c *gin.Context) {
	actor, err := r.requireAdmin(c)
	if err != nil {
		Fail(c, err)
		return
	}

	var req cloneBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, apperr.Validation("Invalid request body"))
		return
	}
	if (req.TemplateID == "") == (req.SourceBoardSlug == "") {
		Fail(c, apperr.Validation("Exactly one of template_id or source_board_slug is required"))
		return
	}
	if n := len(req.NewName); n < 1 || n > 100 {
		Fail(c, apperr.Validation("Name must be between 1 and 100 characters"))
		return
	}

	// Source defaults, overridable per field from the request
	base := templateSettings{}
	if req.TemplateID != "" {
		tpl, err := r.repo.Boards().GetTemplate(c.Request.Context(), req.TemplateID)
		if err != nil {
			Fail(c, err)
			return
		}
		if tpl == nil {
			Fail(c, apperr.NotFound("Board template not found"))
			return
		}
		if tpl.Settings.Valid && tpl.Settings.String != "" {
			if err := json.Unmarshal([]byte(tpl.Settings.String), &base); err != nil {
				Fail(c, apperr.Validation("Board template settings are malformed"))
				return
			}
		}
	} else {
		source, err := r.repo.Boards().GetBySlug(c.Request.Context(), req.SourceBoardSlug)
		if err != nil {
			Fail(c, err)
			return
		}
		if source == nil {
			Fail(c, apperr.NotFound("Source board not found"))
			return
		}
		base = templateSettings{
			Description:         &source.Description,
			IsPublic:            &source.IsPublic,
			AllowPost:           &source.AllowPost,
			AllowComment:        &source.AllowComment,
			RequirePostApproval: &source.RequirePostApproval,
		}
	}

	if req.Description != nil {
		base.Description = req.Description
	}
	if req.IsPublic != nil {
		base.IsPublic = req.IsPublic
	}
	if req.AllowPost != nil {
		base.AllowPost = req.AllowPost
	}
	if req.AllowComment != nil {
		base.AllowComment = req.AllowComment
	}

	if req.RequirePostApproval != nil {
		base.RequirePostApproval = req.RequirePostApproval
	}

	description := ""
	if base.Description != nil {
		description = *base.Description
	}
	if len(description) > 1000 {
		Fail(c, apperr.Validation("Description must be at most 1000 characters"))
		return
	}

	board, err := r.insertClonedBoard(c, actor, req.NewSlugBase, req.NewName, description, base)
	if err != nil {
		Fail(c, err)
		return
	}

	r.invalidateBoardList(c)
	r.ledger.Record(c.Request.Context(), actor.UserID, models.ActionCloneBoard,
		moderation.TargetBoard, board.ID, map[string]interface{}{
			"slug":              board.Slug,
			"template_id":       req.TemplateID,
			"source_board_slug": req.SourceBoardSlug,
		})

	Created(c, board)
}

// insertClonedBoard allocates a unique slug and inserts the board. The
// allocator probe is advisory; a concurrent insert can still steal the
// slug, so a duplicate-key failure re-allocates once.
func (r *Router) insertClonedBoard(c *gin.Context, actor *auth.Actor, slugBase, name, description string, settings templateSettings) (*models.Board, error) {
	ctx := c.Request.Context()
	exists := func(ctx context.Context, slug string) (bool, error) {
		return r.repo.Boards().SlugExists(ctx, slug)
	}

	for attempt := 0; attempt < 2; attempt++ {
		slug, err := slugger.GenerateUnique(ctx, slugBase, exists)
		if err != nil {
			return nil, err
		}

		now := time.Now().UTC()
		board := &models.Board{
			ID:                  uuid.NewString(),
			Slug:                slug,
			Name:                name,
			Description:         description,
			IsPublic:            boolOr(settings.IsPublic, true),
			AllowPost:           boolOr(settings.AllowPost, true),
			AllowComment:        boolOr(settings.AllowComment, true),
			RequirePostApproval: boolOr(settings.RequirePostApproval, false),
			CreatedBy:           actor.UserID,
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		err = r.repo.Boards().Create(ctx, board)
		if err == nil {
			return board, nil
		}
		if !apperr.IsDuplicateKey(err) {
			return nil, err
		}
	}
	return nil, apperr.Conflict("Could not allocate a unique board slug")
}
