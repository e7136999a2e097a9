package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const statusSuccess = "success"

// respondData: {"status":"success","data":{key: value}}
func respondData(c *gin.Context, code int, key string, value interface{}) {
	c.JSON(code, gin.H{
		"status": statusSuccess,
		"data":   gin.H{key: value},
	})
}

// respondList добавляет results - число записей в выборке
func respondList(c *gin.Context, key string, value interface{}, results int) {
	c.JSON(http.StatusOK, gin.H{
		"status":  statusSuccess,
		"results": results,
		"data":    gin.H{key: value},
	})
}

func respondOne(c *gin.Context, code int, doc interface{}) {
	respondData(c, code, "data", doc)
}

func respondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func respondMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{
		"status":  statusSuccess,
		"message": message,
	})
}
