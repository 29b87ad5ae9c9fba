package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agoraboard/agora/internal/apperr"
	"github.com/agoraboard/agora/internal/policy"
)

type updateMeRequest struct {
	Nickname string `json:"nickname"`
}

// getMe handles GET /me
func (r *Router) getMe(c *gin.Context) {
	actor, err := requireActor(c)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, actor.Profile)
}

// updateMe handles PATCH /me
func (r *Router) updateMe(c *gin.Context) {
	actor, err := requireActor(c)
	if err != nil {
		Fail(c, err)
		return
	}
	if err := policy.AssertNotSuspended(actor.Profile, time.Now()); err != nil {
		Fail(c, err)
		return
	}

	var req updateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, apperr.Validation("Invalid request body"))
		return
	}
	if !nicknameRe.MatchString(req.Nickname) {
		Fail(c, apperr.Validation("Nickname must be 2-40 characters of letters, digits, or underscore"))
		return
	}

	profile := actor.Profile
	profile.Nickname = req.Nickname
	profile.UpdatedAt = time.Now().UTC()
	if err := r.repo.Profiles().Update(c.Request.Context(), profile); err != nil {
		Fail(c, err)
		return
	}

	OK(c, profile)
}
