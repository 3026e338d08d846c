package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	headerDocumentRevision = "X-Document-Revision"
	headerDocumentSource   = "X-Document-Source"
)

// GetDocument streams the SPK PDF for the work order's current revision.
// ?download=1 switches the disposition to attachment.
func (s *Server) GetDocument(c *gin.Context) {
	doc, err := s.documentSvc.Retrieve(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	disposition := "inline"
	if download, _ := strconv.ParseBool(c.Query("download")); download {
		disposition = "attachment"
	}
	c.Header("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, doc.FileName))
	c.Header("Cache-Control", "private, max-age=0, must-revalidate")
	c.Header(headerDocumentRevision, strconv.FormatInt(doc.Revision, 10))
	c.Header(headerDocumentSource, string(doc.Source))
	c.Data(http.StatusOK, doc.ContentType, doc.Data)
}

func (s *Server) InvalidateDocument(c *gin.Context) {
	if err := s.documentSvc.Invalidate(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	respondOK(c, nil)
}
