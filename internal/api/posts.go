package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agoraboard/agora/internal/apperr"
	"github.com/agoraboard/agora/internal/auth"
	"github.com/agoraboard/agora/internal/db"
	"github.com/agoraboard/agora/internal/models"
	"github.com/agoraboard/agora/internal/policy"
	"github.com/agoraboard/agora/internal/ratelimit"
)

// commentNode is a comment with its direct replies
type commentNode struct {
	*db.CommentRow
	Replies []*db.CommentRow `json:"replies"`
}

// loadVisiblePost resolves a post the actor may read, together with
// its live board. Unknown, deleted, and unreadable all surface as 404
// so existence never leaks.
func (r *Router) loadVisiblePost(c *gin.Context, postID string, actor *auth.Actor) (*models.Post, *models.Board, error) {
	post, err := r.repo.Posts().GetByID(c.Request.Context(), postID)
	if err != nil {
		return nil, nil, err
	}
	if post == nil {
		return nil, nil, apperr.NotFound("Post not found")
	}

	isAdmin := actor != nil && actor.IsAdmin
	isAuthor := actor != nil && actor.UserID == post.AuthorID
	if post.Status != models.PostStatusPublished && !isAdmin && !isAuthor {
		return nil, nil, apperr.NotFound("Post not found")
	}

	board, err := r.repo.Boards().GetByID(c.Request.Context(), post.BoardID)
	if err != nil {
		return nil, nil, err
	}
	if board == nil {
		return nil, nil, apperr.NotFound("Post not found")
	}
	if !board.IsPublic && !isAdmin && !isAuthor {
		return nil, nil, apperr.NotFound("Post not found")
	}

	return post, board, nil
}

// getPost handles GET /posts/:postId
func (r *Router) getPost(c *gin.Context) {
	actor := actorFrom(c)

	post, board, err := r.loadVisiblePost(c, c.Param("postId"), actor)
	if err != nil {
		Fail(c, err)
		return
	}

	isAdmin := actor != nil && actor.IsAdmin
	rows, err := r.repo.Comments().ListByPost(c.Request.Context(), post.ID, isAdmin)
	if err != nil {
		Fail(c, err)
		return
	}

	OK(c, gin.H{
		"post":     post,
		"board":    board,
		"comments": buildCommentTree(rows),
	})
}

// buildCommentTree nests replies one level under their roots. Replies
// whose root is not visible are dropped with it.
func buildCommentTree(rows []*db.CommentRow) []*commentNode {
	nodes := make([]*commentNode, 0, len(rows))
	byID := make(map[string]*commentNode, len(rows))

	for _, row := range rows {
		if !row.ParentID.Valid {
			node := &commentNode{CommentRow: row, Replies: []*db.CommentRow{}}
			nodes = append(nodes, node)
			byID[row.ID] = node
		}
	}
	for _, row := range rows {
		if row.ParentID.Valid {
			if parent, ok := byID[row.ParentID.String]; ok {
				parent.Replies = append(parent.Replies, row)
			}
		}
	}
	return nodes
}

type updatePostRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// updatePost handles PATCH /posts/:postId
func (r *Router) updatePost(c *gin.Context) {
	actor, err := requireActor(c)
	if err != nil {
		Fail(c, err)
		return
	}

	var req updatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, apperr.Validation("Invalid request body"))
		return
	}
	if req.Title == nil && req.Content == nil {
		Fail(c, apperr.Validation("At least one of title or content is required"))
		return
	}

	fields := map[string]interface{}{"updated_at": time.Now().UTC()}
	if req.Title != nil {
		if n := len(*req.Title); n < 1 || n > 200 {
			Fail(c, apperr.Validation("Title must be between 1 and 200 characters"))
			return
		}
		fields["title"] = *req.Title
	}
	if req.Content != nil {
		if n := len(*req.Content); n < 1 || n > 20000 {
			Fail(c, apperr.Validation("Content must be between 1 and 20000 characters"))
			return
		}
		fields["content"] = *req.Content
	}

	post, board, err := r.loadVisiblePost(c, c.Param("postId"), actor)
	if err != nil {
		Fail(c, err)
		return
	}
	if err := policy.AssertBoardMutable(board, policyActor(actor)); err != nil {
		Fail(c, err)
		return
	}
	if err := policy.AssertOwnerOrAdmin(policyActor(actor), post.AuthorID); err != nil {
		Fail(c, err)
		return
	}

	updated, err := r.repo.Posts().UpdateFields(c.Request.Context(), post.ID, fields)
	if err != nil {
		Fail(c, err)
		return
	}

	OK(c, updated)
}

// deletePost handles DELETE /posts/:postId
func (r *Router) deletePost(c *gin.Context) {
	actor, err := requireActor(c)
	if err != nil {
		Fail(c, err)
		return
	}

	post, board, err := r.loadVisiblePost(c, c.Param("postId"), actor)
	if err != nil {
		Fail(c, err)
		return
	}
	if err := policy.AssertBoardMutable(board, policyActor(actor)); err != nil {
		Fail(c, err)
		return
	}
	if err := policy.AssertOwnerOrAdmin(policyActor(actor), post.AuthorID); err != nil {
		Fail(c, err)
		return
	}

	if err := r.repo.Posts().SoftDelete(c.Request.Context(), post.ID, actor.UserID); err != nil {
		Fail(c, err)
		return
	}

	OK(c, gin.H{"deleted": true})
}

// likePost handles POST /posts/:postId/like
func (r *Router) likePost(c *gin.Context) {
	actor, err := requireActor(c)
	if err != nil {
		Fail(c, err)
		return
	}
	if err := policy.AssertNotSuspended(actor.Profile, time.Now()); err != nil {
		Fail(c, err)
		return
	}

	post, err := r.repo.Posts().GetByID(c.Request.Context(), c.Param("postId"))
	if err != nil {
		Fail(c, err)
		return
	}
	if post == nil || post.Status != models.PostStatusPublished {
		Fail(c, apperr.NotFound("Post not found"))
		return
	}

	board, err := r.repo.Boards().GetByID(c.Request.Context(), post.BoardID)
	if err != nil {
		Fail(c, err)
		return
	}
	if board == nil {
		Fail(c, apperr.NotFound("Post not found"))
		return
	}
	if err := policy.AssertBoardWriteAccess(board, policyActor(actor), policy.ActionLikePost); err != nil {
		Fail(c, err)
		return
	}

	liked, count, err := r.repo.Posts().ToggleLike(c.Request.Context(), post.ID, actor.UserID)
	if err != nil {
		Fail(c, err)
		return
	}

	OK(c, gin.H{"liked": liked, "like_count": count})
}

type createCommentRequest struct {
	Content  string `json:"content"`
	ParentID string `json:"parent_id"`
}

// createComment handles POST /posts/:postId/comments
func (r *Router) createComment(c *gin.Context) {
	actor, err := requireActor(c)
	if err != nil {
		Fail(c, err)
		return
	}
	if err := policy.AssertNotSuspended(actor.Profile, time.Now()); err != nil {
		Fail(c, err)
		return
	}

	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, apperr.Validation("Invalid request body"))
		return
	}
	if n := len(req.Content); n < 1 || n > 5000 {
		Fail(c, apperr.Validation("Content must be between 1 and 5000 characters"))
		return
	}

	post, err := r.repo.Posts().GetByID(c.Request.Context(), c.Param("postId"))
	if err != nil {
		Fail(c, err)
		return
	}
	if post == nil || post.Status != models.PostStatusPublished {
		Fail(c, apperr.NotFound("Post not found"))
		return
	}

	board, err := r.repo.Boards().GetByID(c.Request.Context(), post.BoardID)
	if err != nil {
		Fail(c, err)
		return
	}
	if board == nil {
		Fail(c, apperr.NotFound("Post not found"))
		return
	}
	if err := policy.AssertBoardWriteAccess(board, policyActor(actor), policy.ActionCreateComment); err != nil {
		Fail(c, err)
		return
	}

	// Threading is one level deep: a reply's parent must be a root
	// comment on the same post, still published
	parentID := ""
	if req.ParentID != "" {
		parent, err := r.repo.Comments().GetByID(c.Request.Context(), req.ParentID)
		if err != nil {
			Fail(c, err)
			return
		}
		if parent == nil || parent.PostID != post.ID || parent.Status != models.CommentStatusPublished {
			Fail(c, apperr.Validation("Parent comment is not available"))
			return
		}
		if parent.ParentID.Valid {
			Fail(c, apperr.Validation("Replies cannot be nested further"))
			return
		}
		parentID = parent.ID
	}

	if err := r.consumeRate(c, ratelimit.ActionCreateComment,
		ratelimit.ActorKey("user:"+actor.UserID),
		ratelimit.ActorKey("ip:"+clientIP(c))); err != nil {
		Fail(c, err)
		return
	}

	now := time.Now().UTC()
	comment := &models.Comment{
		ID:        uuid.NewString(),
		PostID:    post.ID,
		AuthorID:  actor.UserID,
		Content:   req.Content,
		Status:    models.CommentStatusPublished,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if parentID != "" {
		comment.ParentID.String = parentID
		comment.ParentID.Valid = true
	}
	if err := r.repo.Comments().Create(c.Request.Context(), comment); err != nil {
		Fail(c, err)
		return
	}

	Created(c, comment)
}
