package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func JSON200(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

func JSON201(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

func JSON400(c *gin.Context, data interface{}) {
	jsonError(c, http.StatusBadRequest, data)
}

func JSON401(c *gin.Context, data interface{}) {
	jsonError(c, http.StatusUnauthorized, data)
}

func JSON403(c *gin.Context, data interface{}) {
	jsonError(c, http.StatusForbidden, data)
}

func JSON404(c *gin.Context, data interface{}) {
	jsonError(c, http.StatusNotFound, data)
}

func JSON409(c *gin.Context, data interface{}) {
	jsonError(c, http.StatusConflict, data)
}

func JSON413(c *gin.Context, data interface{}) {
	jsonError(c, http.StatusRequestEntityTooLarge, data)
}

func JSON500(c *gin.Context, data interface{}) {
	jsonError(c, http.StatusInternalServerError, data)
}

func JSON503(c *gin.Context, data interface{}) {
	jsonError(c, http.StatusServiceUnavailable, data)
}

// jsonError wraps a plain message as {"error": message}; anything else is sent as is.
func jsonError(c *gin.Context, status int, data interface{}) {
	if msg, ok := data.(string); ok {
		c.AbortWithStatusJSON(status, gin.H{"error": msg})
		return
	}
	c.AbortWithStatusJSON(status, data)
}
