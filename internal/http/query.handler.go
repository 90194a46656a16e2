package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gtxykn0504/penguin-query/internal/appcontext"
	"github.com/gtxykn0504/penguin-query/internal/dataset"
	"github.com/gtxykn0504/penguin-query/internal/querylink"
)

// The two handlers below are the whole anonymous surface. Storage failures
// stay opaque here; only validation failures carry detail.

func GetQueryConditions(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		title, conditions, err := ctx.Resolver.Resolve(c.Param("slug"))
		if err != nil {
			if errors.Is(err, querylink.ErrNotFound) || errors.Is(err, dataset.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Link not found"})
				return
			}
			ctx.Logger.Error("Failed to resolve query conditions", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load conditions"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":    true,
			"title":      title,
			"conditions": conditions,
		})
	}
}

func ExecuteQuery(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		var values map[string]string
		if err := c.BindJSON(&values); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to bind request"})
			return
		}

		results, err := ctx.Compiler.Execute(c.Param("slug"), values)
		if err != nil {
			var missing *querylink.MissingRequiredFieldError
			switch {
			case errors.As(err, &missing):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Required field missing: " + missing.Field})
			case errors.Is(err, querylink.ErrNotFound), errors.Is(err, dataset.ErrNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "Query link not found"})
			default:
				ctx.Logger.Error("Failed to execute query", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Query failed"})
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"results": results,
			"count":   len(results),
		})
	}
}
