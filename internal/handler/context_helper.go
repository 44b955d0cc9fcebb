package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/institute-api/pkg/errors"
	"github.com/noah-isme/institute-api/pkg/response"
	"github.com/noah-isme/institute-api/pkg/validation"
)

// bindJSON decodes the request body into dst and writes a validation error on failure.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return false
	}
	return true
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// queryBool returns nil unless the parameter is exactly true or false.
func queryBool(c *gin.Context, key string) *bool {
	switch strings.ToLower(strings.TrimSpace(c.Query(key))) {
	case "true":
		v := true
		return &v
	case "false":
		v := false
		return &v
	}
	return nil
}

// pathID returns the :id parameter. Anything that is not a UUID cannot name
// a stored record, so it answers 404 without reaching the database.
func pathID(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if !validation.IsUUID(id) {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "resource not found"))
		return "", false
	}
	return id, true
}

// queryCourseID returns the optional course_id filter, rejecting values that are not UUIDs.
func queryCourseID(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.Query("course_id"))
	if id != "" && !validation.IsUUID(id) {
		response.Error(c, appErrors.WithDetails(appErrors.ErrValidation, map[string]string{
			"course_id": "course_id must be a course id",
		}))
		return "", false
	}
	return id, true
}
