package api

import (
	"github.com/gin-gonic/gin"

	"github.com/agoraboard/agora/internal/apperr"
	"github.com/agoraboard/agora/internal/auth"
	"github.com/agoraboard/agora/internal/models"
	"github.com/agoraboard/agora/internal/policy"
)

type updateCommentRequest struct {
	Content string `json:"content"`
}

// commentWriteAccess decides whether the actor may modify the comment,
// given its post and board rows. A nil row means it is gone or
// soft-deleted, which hides the comment from writes too.
func commentWriteAccess(actor *auth.Actor, comment *models.Comment, post *models.Post, board *models.Board) error {
	if comment == nil {
		return apperr.NotFound("Comment not found")
	}
	if post == nil {
		return apperr.NotFound("Post not found")
	}
	if board == nil {
		return apperr.NotFound("Board not found")
	}
	if err := policy.AssertBoardMutable(board, policyActor(actor)); err != nil {
		return err
	}
	return policy.AssertOwnerOrAdmin(policyActor(actor), comment.AuthorID)
}

// loadCommentForWrite resolves a comment the actor may modify, walking
// up to its post and board so board-state gates apply to comment
// writes exactly as they do to post writes.
func (r *Router) loadCommentForWrite(c *gin.Context, commentID string, actor *auth.Actor) (*models.Comment, error) {
	ctx := c.Request.Context()

	comment, err := r.repo.Comments().GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}

	var post *models.Post
	var board *models.Board
	if comment != nil {
		post, err = r.repo.Posts().GetByID(ctx, comment.PostID)
		if err != nil {
			return nil, err
		}
	}
	if post != nil {
		board, err = r.repo.Boards().GetByID(ctx, post.BoardID)
		if err != nil {
			return nil, err
		}
	}

	if err := commentWriteAccess(actor, comment, post, board); err != nil {
		return nil, err
	}
	return comment, nil
}

// updateComment handles PATCH /comments/:commentId
func (r *Router) updateComment(c *gin.Context) {
	actor, err := requireActor(c)
	if err != nil {
		Fail(c, err)
		return
	}

	var req updateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, apperr.Validation("Invalid request body"))
		return
	}
	if n := len(req.Content); n < 1 || n > 5000 {
		Fail(c, apperr.Validation("Content must be between 1 and 5000 characters"))
		return
	}

	comment, err := r.loadCommentForWrite(c, c.Param("commentId"), actor)
	if err != nil {
		Fail(c, err)
		return
	}

	updated, err := r.repo.Comments().UpdateContent(c.Request.Context(), comment.ID, req.Content)
	if err != nil {
		Fail(c, err)
		return
	}

	OK(c, updated)
}

// deleteComment handles DELETE /comments/:commentId
func (r *Router) deleteComment(c *gin.Context) {
	actor, err := requireActor(c)
	if err != nil {
		Fail(c, err)
		return
	}

	comment, err := r.loadCommentForWrite(c, c.Param("commentId"), actor)
	if err != nil {
		Fail(c, err)
		return
	}

	if err := r.repo.Comments().SoftDelete(c.Request.Context(), comment.ID, actor.UserID); err != nil {
		Fail(c, err)
		return
	}

	OK(c, gin.H{"deleted": true})
}
