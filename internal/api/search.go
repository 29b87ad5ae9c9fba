package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// searchPosts handles GET /search
func (r *Router) searchPosts(c *gin.Context) {
	actor := actorFrom(c)
	isAdmin := actor != nil && actor.IsAdmin

	page, _ := strconv.Atoi(c.Query("page"))

	result, err := r.search.Search(c.Request.Context(), c.Query("q"), page, isAdmin)
	if err != nil {
		Fail(c, err)
		return
	}

	OK(c, result)
}
