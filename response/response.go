// Package response is the single choke point every handler writes its HTTP
// body through: one place that sets the status code and JSON-encodes the
// body, using a title/description/errors envelope shape.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/forbearing/crud6/internal/crud6/sprunje"
	"github.com/forbearing/crud6/types"
	"github.com/forbearing/crud6/types/consts"
)

// JSON writes body at status, tagging it with the in-flight request id.
func JSON(c *gin.Context, status int, body gin.H) {
	body[consts.CTX_REQUEST_ID] = c.GetString(consts.CTX_REQUEST_ID)
	c.JSON(status, body)
}

// StateChange writes a successful state-changing response, e.g.
// create/update/delete. extras are merged in verbatim (e.g. "model", "id",
// "data").
func StateChange(c *gin.Context, status int, title, description string, extras gin.H) {
	body := gin.H{"title": title, "description": description}
	for k, v := range extras {
		body[k] = v
	}
	JSON(c, status, body)
}

// Read writes the read-response shape.
func Read(c *gin.Context, model, modelDisplayName, id string, data map[string]any, breadcrumb string) {
	JSON(c, http.StatusOK, gin.H{
		"message":          "ok",
		"model":            model,
		"modelDisplayName": modelDisplayName,
		"id":               id,
		"data":             data,
		"breadcrumb":       breadcrumb,
	})
}

// Schema writes the schema-response shape.
func Schema(c *gin.Context, model, modelDisplayName string, schemaBody any, modelTitle, singularTitle string) {
	JSON(c, http.StatusOK, gin.H{
		"message":          "ok",
		"model":            model,
		"modelDisplayName": modelDisplayName,
		"schema":           schemaBody,
		"breadcrumb":       gin.H{"modelTitle": modelTitle, "singularTitle": singularTitle},
	})
}

// List writes a sprunje page verbatim.
func List(c *gin.Context, page *sprunje.Page) {
	JSON(c, http.StatusOK, gin.H{
		"count":          page.Count,
		"count_filtered": page.CountFiltered,
		"rows":           page.Rows,
		"listable":       page.Listable,
		"sortable":       page.Sortable,
		"filterable":     page.Filterable,
		"sorts":          page.Sorts,
		"filters":        page.Filters,
		"size":           page.Size,
		"page":           page.Page,
	})
}

// Error writes the error shape for a *types.Error, deriving the status
// code from its Kind and attaching Fields as "errors" when present.
func Error(c *gin.Context, err error) {
	e := types.AsError(err)
	body := gin.H{"title": e.Title, "description": e.Description}
	if len(e.Fields) > 0 {
		body["errors"] = e.Fields
	}
	JSON(c, e.Kind.Status(), body)
}
