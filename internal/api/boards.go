package api

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agoraboard/agora/internal/apperr"
	"github.com/agoraboard/agora/internal/auth"
	"github.com/agoraboard/agora/internal/cache"
	"github.com/agoraboard/agora/internal/db"
	"github.com/agoraboard/agora/internal/models"
	"github.com/agoraboard/agora/internal/policy"
	"github.com/agoraboard/agora/internal/ratelimit"
)

const (
	boardPageSize = 20

	boardListCacheKey = "boards:public"
	boardListCacheTTL = 60 * time.Second
)

// policyActor maps a resolved actor to its access-decision view.
// Anonymous actors map to the zero value.
func policyActor(actor *auth.Actor) policy.Actor {
	if actor == nil {
		return policy.Actor{}
	}
	return policy.Actor{UserID: actor.UserID, IsAdmin: actor.IsAdmin}
}

// listBoards handles GET /boards
func (r *Router) listBoards(c *gin.Context) {
	actor := actorFrom(c)
	isAdmin := actor != nil && actor.IsAdmin

	// Non-admin viewers all see the same list; serve it from cache
	if !isAdmin {
		var cached []*models.Board
		if err := r.cache.GetJSON(c.Request.Context(), boardListCacheKey, &cached); err == nil {
			OK(c, gin.H{"boards": cached})
			return
		}
	}

	boards, err := r.repo.Boards().List(c.Request.Context(), isAdmin)
	if err != nil {
		Fail(c, err)
		return
	}

	if !isAdmin {
		if err := r.cache.SetJSON(c.Request.Context(), boardListCacheKey, boards, boardListCacheTTL); err != nil && err != cache.ErrCacheDisabled {
			r.logger.Warn("failed to cache board list", zap.Error(err))
		}
	}

	OK(c, gin.H{"boards": boards})
}

// invalidateBoardList drops the cached public board list
func (r *Router) invalidateBoardList(c *gin.Context) {
	if err := r.cache.Delete(c.Request.Context(), boardListCacheKey); err != nil && err != cache.ErrCacheDisabled {
		r.logger.Warn("failed to invalidate board list cache", zap.Error(err))
	}
}

// loadBoardBySlug resolves a readable board for the actor. Deleted and
// unknown boards are indistinguishable; private boards are admin-only.
func (r *Router) loadBoardBySlug(c *gin.Context, slug string, actor *auth.Actor) (*models.Board, error) {
	board, err := r.repo.Boards().GetBySlug(c.Request.Context(), slug)
	if err != nil {
		return nil, err
	}
	if board == nil {
		return nil, apperr.NotFound("Board not found")
	}
	if !board.IsPublic && (actor == nil || !actor.IsAdmin) {
		return nil, apperr.Forbidden("")
	}
	return board, nil
}

// listBoardPosts handles GET /boards/:slug/posts
func (r *Router) listBoardPosts(c *gin.Context) {
	actor := actorFrom(c)

	board, err := r.loadBoardBySlug(c, c.Param("slug"), actor)
	if err != nil {
		Fail(c, err)
		return
	}

	page, _ := strconv.Atoi(c.Query("page"))
	if page < 1 {
		page = 1
	}

	isAdmin := actor != nil && actor.IsAdmin
	rows, total, err := r.repo.Posts().ListBoardPage(c.Request.Context(), db.BoardPostsQuery{
		BoardID:            board.ID,
		Page:               page,
		PageSize:           boardPageSize,
		Search:             c.Query("q"),
		IncludeAllStatuses: isAdmin,
	})
	if err != nil {
		Fail(c, err)
		return
	}

	OK(c, gin.H{
		"board":     board,
		"posts":     rows,
		"page":      page,
		"page_size": boardPageSize,
		"total":     total,
	})
}

type createPostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// createPost handles POST /boards/:slug/posts
func (r *Router) createPost(c *gin.Context) {
	actor, err := requireActor(c)
	if err != nil {
		Fail(c, err)
		return
	}
	if err := policy.AssertNotSuspended(actor.Profile, time.Now()); err != nil {
		Fail(c, err)
		return
	}

	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, apperr.Validation("Invalid request body"))
		return
	}
	if n := len(req.Title); n < 1 || n > 200 {
		Fail(c, apperr.Validation("Title must be between 1 and 200 characters"))
		return
	}
	if n := len(req.Content); n < 1 || n > 20000 {
		Fail(c, apperr.Validation("Content must be between 1 and 20000 characters"))
		return
	}

	board, err := r.repo.Boards().GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		Fail(c, err)
		return
	}
	if board == nil {
		Fail(c, apperr.NotFound("Board not found"))
		return
	}
	if err := policy.AssertBoardWriteAccess(board, policyActor(actor), policy.ActionCreatePost); err != nil {
		Fail(c, err)
		return
	}

	if err := r.consumeRate(c, ratelimit.ActionCreatePost,
		ratelimit.ActorKey("user:"+actor.UserID),
		ratelimit.ActorKey("ip:"+clientIP(c))); err != nil {
		Fail(c, err)
		return
	}

	status := models.PostStatusPublished
	if board.RequirePostApproval {
		status = models.PostStatusPending
	}

	now := time.Now().UTC()
	post := &models.Post{
		ID:        uuid.NewString(),
		BoardID:   board.ID,
		AuthorID:  actor.UserID,
		Title:     req.Title,
		Content:   req.Content,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.repo.Posts().Create(c.Request.Context(), post); err != nil {
		Fail(c, err)
		return
	}

	Created(c, post)
}
