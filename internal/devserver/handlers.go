package devserver

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	middleware "github.com/kochabx/carelink/middleware/http"
	transport "github.com/kochabx/carelink/transport/http"
)

type collectionHandler struct {
	name string
	c    *collection
}

func (h *collectionHandler) list(c *gin.Context) {
	transport.JSON(c, http.StatusOK, h.c.list(parseQuery(c.Request.URL.Query())))
}

func (h *collectionHandler) get(c *gin.Context) {
	item, err := h.c.get(c.Param("id"))
	if err != nil {
		transport.Error(c, 0, err)
		return
	}
	transport.JSON(c, http.StatusOK, item)
}

func (h *collectionHandler) create(c *gin.Context) {
	var item record
	if err := c.ShouldBindJSON(&item); err != nil || item == nil {
		transport.Error(c, 0, errNotAnObject)
		return
	}

	owner := ""
	if u := middleware.CurrentUser(c); u != nil {
		owner = u.ID
	}
	transport.JSON(c, http.StatusCreated, h.c.create(item, owner))
}

func (h *collectionHandler) update(c *gin.Context) {
	var fields record
	if err := c.ShouldBindJSON(&fields); err != nil || fields == nil {
		transport.Error(c, 0, errNotAnObject)
		return
	}

	item, err := h.c.update(c.Param("id"), fields)
	if err != nil {
		transport.Error(c, 0, err)
		return
	}
	transport.JSON(c, http.StatusOK, item)
}

func (h *collectionHandler) delete(c *gin.Context) {
	if err := h.c.delete(c.Param("id")); err != nil {
		transport.Error(c, 0, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *collectionHandler) export(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")

	var buf bytes.Buffer
	if err := h.c.export(parseQuery(c.Request.URL.Query()), format, &buf); err != nil {
		transport.Error(c, 0, err)
		return
	}

	contentType := "text/csv; charset=utf-8"
	if format == "json" {
		contentType = "application/json; charset=utf-8"
	}
	c.Header("Content-Disposition", `attachment; filename="`+strings.TrimPrefix(h.name, "/")+"."+format+`"`)
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
