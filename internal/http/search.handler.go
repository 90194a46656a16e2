package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"go.uber.org/zap"

	"github.com/gtxykn0504/penguin-query/internal/appcontext"
	"github.com/gtxykn0504/penguin-query/internal/utils"
)

const searchIndex = "resources"

// SearchResources queries the optional metadata index for the caller's own
// datasets and query links. Only metadata is searchable; imported row data
// never reaches the index.
func SearchResources(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ctx.MeilisearchClient == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Search is not configured"})
			return
		}

		query := c.Query("q")
		if query == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing search query"})
			return
		}

		userID, err := utils.GetUserIDFromClaims(c)
		if err != nil {
			ctx.Logger.Error("Failed to get user ID from claims", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		searchParams := &meilisearch.SearchRequest{
			Query:  query,
			Filter: fmt.Sprintf("created_by = %s", userID),
		}

		searchResult, err := ctx.MeilisearchClient.Index(searchIndex).Search(query, searchParams)
		if err != nil {
			ctx.Logger.Error("Failed to perform search", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to perform search"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"results": searchResult.Hits})
	}
}

// indexDocument and removeDocument keep the metadata index in step with
// mutations. Both are best effort: search lags behind rather than failing the
// operation that triggered it.

func indexDocument(ctx *appcontext.Context, document map[string]interface{}) {
	if ctx.MeilisearchClient == nil {
		return
	}
	if _, err := ctx.MeilisearchClient.Index(searchIndex).AddDocuments([]map[string]interface{}{document}); err != nil {
		ctx.Logger.Warn("Failed to index document", zap.Error(err))
	}
}

func removeDocument(ctx *appcontext.Context, id string) {
	if ctx.MeilisearchClient == nil {
		return
	}
	if _, err := ctx.MeilisearchClient.Index(searchIndex).DeleteDocument(id); err != nil {
		ctx.Logger.Warn("Failed to remove document from index", zap.Error(err))
	}
}
