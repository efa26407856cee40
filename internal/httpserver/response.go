package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const loginPath = "/admin/login"

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": data})
}

func created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{"ok": true, "data": data})
}

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"ok": false, "error": msg})
}

func failFields(c *gin.Context, msg string, fields map[string]string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"ok": false, "error": msg, "fields": fields})
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": msg, "redirect": loginPath})
}
