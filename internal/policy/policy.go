// Package policy holds the pure access decisions that gate every
// mutating operation. Nothing here performs I/O: callers load the rows,
// these functions decide.
package policy

import (
	"time"

	"github.com/agoraboard/agora/internal/apperr"
	"github.com/agoraboard/agora/internal/models"
)

// Actor is the authenticated caller of an operation
type Actor struct {
	UserID  string
	IsAdmin bool
}

// BoardWriteAction enumerates write actions gated per board
type BoardWriteAction string

// Board write actions
const (
	ActionCreatePost    BoardWriteAction = "create_post"
	ActionCreateComment BoardWriteAction = "create_comment"
	ActionLikePost      BoardWriteAction = "like_post"
	ActionReport        BoardWriteAction = "report"
)

// AssertNotSuspended fails with SUSPENDED while the profile's
// suspension window is still open. An elapsed window lifts the
// suspension with no further action.
func AssertNotSuspended(profile *models.Profile, now time.Time) error {
	if profile.IsSuspended(now) {
		return apperr.Suspended("")
	}
	return nil
}

// RequireAdmin fails with FORBIDDEN for non-admin actors
func RequireAdmin(actor Actor) error {
	if !actor.IsAdmin {
		return apperr.Forbidden("")
	}
	return nil
}

// AssertBoardWriteAccess decides whether the actor may perform the
// given write action on the board. Deleted boards are invisible;
// private boards accept writes from admins only; posting and commenting
// honor the board feature flags.
func AssertBoardWriteAccess(board *models.Board, actor Actor, action BoardWriteAction) error {
	if board.IsDeleted() {
		return apperr.NotFound("Board not found")
	}

	if !board.IsPublic && !actor.IsAdmin {
		return apperr.Forbidden("Private board write actions are admin-only")
	}

	if action == ActionCreatePost && !board.AllowPost {
		return apperr.Forbidden("Posting is disabled for this board")
	}

	if action == ActionCreateComment && !board.AllowComment {
		return apperr.Forbidden("Comments are disabled for this board")
	}

	return nil
}

// AssertBoardMutable gates edits and deletions of existing content on
// the board's state: deleted boards are invisible and private boards
// accept writes from admins only, owners included.
func AssertBoardMutable(board *models.Board, actor Actor) error {
	if board.IsDeleted() {
		return apperr.NotFound("Board not found")
	}
	if !board.IsPublic && !actor.IsAdmin {
		return apperr.Forbidden("Private board write actions are admin-only")
	}
	return nil
}

// AssertOwnerOrAdmin allows the resource owner and admins, nobody else
func AssertOwnerOrAdmin(actor Actor, authorID string) error {
	if actor.UserID == authorID || actor.IsAdmin {
		return nil
	}
	return apperr.Forbidden("")
}
