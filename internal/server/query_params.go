package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/export"
	"github.com/gin-gonic/gin"
)

func pathID(c *gin.Context) (snowflake.ID, error) {
	return parseSnowflakeID(c.Param("id"))
}

func parseSnowflakeID(value string) (snowflake.ID, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || parsed == 0 {
		return 0, newValidationError("id", "invalid_id", "invalid id")
	}
	return parsed, nil
}

// sendFile serves an export as a download.
func sendFile(c *gin.Context, file *export.File) {
	contentType := "text/csv; charset=utf-8"
	if strings.HasSuffix(file.Name, ".pdf") {
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", `attachment; filename="`+file.Name+`"`)
	c.Data(http.StatusOK, contentType, file.Data)
}
