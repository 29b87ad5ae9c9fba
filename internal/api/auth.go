package api

import (
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agoraboard/agora/internal/apperr"
	"github.com/agoraboard/agora/internal/ratelimit"
)

var nicknameRe = regexp.MustCompile(`^[A-Za-z0-9_]{2,40}$`)

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// signup handles POST /auth/signup
func (r *Router) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, apperr.Validation("Invalid request body"))
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		Fail(c, apperr.Validation("A valid email is required"))
		return
	}
	if n := len(req.Password); n < 8 || n > 128 {
		Fail(c, apperr.Validation("Password must be between 8 and 128 characters"))
		return
	}
	if !nicknameRe.MatchString(req.Nickname) {
		Fail(c, apperr.Validation("Nickname must be 2-40 characters of letters, digits, or underscore"))
		return
	}

	if err := r.consumeRate(c, ratelimit.ActionSignup,
		ratelimit.ActorKey("ip:"+clientIP(c)),
		ratelimit.ActorKey("email:"+req.Email)); err != nil {
		Fail(c, err)
		return
	}

	profile, session, err := r.identity.SignUp(c.Request.Context(), req.Email, req.Password, req.Nickname)
	if err != nil {
		Fail(c, err)
		return
	}

	Created(c, gin.H{"user": profile, "session": session})
}

// login handles POST /auth/login
func (r *Router) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, apperr.Validation("Invalid request body"))
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		Fail(c, apperr.Validation("Email and password are required"))
		return
	}

	if err := r.consumeRate(c, ratelimit.ActionLogin,
		ratelimit.ActorKey("ip:"+clientIP(c)),
		ratelimit.ActorKey("email:"+req.Email)); err != nil {
		Fail(c, err)
		return
	}

	profile, session, err := r.identity.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		Fail(c, err)
		return
	}

	OK(c, gin.H{"user": profile, "session": session})
}

// consumeRate checks every key against the action budget. Counter
// store failures admit the request; availability beats strictness here.
func (r *Router) consumeRate(c *gin.Context, action ratelimit.Action, keys ...string) error {
	allowed, err := r.limiter.ConsumeAll(c.Request.Context(), action, keys...)
	if err != nil {
		r.logger.Warn("rate limit check failed, admitting request",
			zap.String("action", string(action)),
			zap.Error(err))
		return nil
	}
	if !allowed {
		return apperr.RateLimited("")
	}
	return nil
}
