package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type IndexHandler struct {
	title   string
	apiPath string
}

func NewIndexHandler(title, apiPath string) *IndexHandler {
	return &IndexHandler{title: title, apiPath: apiPath}
}

func (h *IndexHandler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Title":   h.title,
		"APIPath": h.apiPath,
	})
}
