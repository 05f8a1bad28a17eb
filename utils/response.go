package utils

import "github.com/gin-gonic/gin"

func JSONSuccess(c *gin.Context, code int, data interface{}) {
	c.JSON(code, gin.H{"success": true, "data": data})
}

// JSONError writes the error envelope: {"success":false,"error":{"code","message"}}.
// extra keys are merged into the error object.
func JSONError(c *gin.Context, code int, errCode, message string, extra ...gin.H) {
	body := gin.H{"code": errCode, "message": message}
	for _, e := range extra {
		for k, v := range e {
			body[k] = v
		}
	}
	c.JSON(code, gin.H{"success": false, "error": body})
}
