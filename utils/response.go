package utils

import "github.com/gin-gonic/gin"

func JSONSuccess(c *gin.Context, code int, data interface{}) {
	c.JSON(code, gin.H{"success": true, "data": data})
}

// JSONError writes {"success":false,"error":{"code","message",...extra}}.
func JSONError(c *gin.Context, code int, errCode, message string, extra gin.H) {
	body := gin.H{"code": errCode, "message": message}
	for k, v := range extra {
		body[k] = v
	}
	c.AbortWithStatusJSON(code, gin.H{"success": false, "error": body})
}
