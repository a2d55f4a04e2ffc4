package router

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetIDParam parses a positive integer path parameter. On failure it writes a
// 400 and returns false.
func GetIDParam(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		RespondProblemWithCode(c, http.StatusBadRequest, ErrBadRequestCode, ErrMsgInvalidID)
		return 0, false
	}
	return id, true
}
