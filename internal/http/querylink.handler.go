package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gtxykn0504/penguin-query/internal/appcontext"
	"github.com/gtxykn0504/penguin-query/internal/dataset"
	"github.com/gtxykn0504/penguin-query/internal/querylink"
	"github.com/gtxykn0504/penguin-query/internal/utils"
)

func CreateQueryLink(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := utils.GetUserIDFromClaims(c)
		if err != nil {
			ctx.Logger.Error("Failed to get user ID from claims", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		var request struct {
			DatasetID  uuid.UUID             `json:"datasetId"`
			Slug       string                `json:"slug"`
			Title      string                `json:"title"`
			Conditions []querylink.Condition `json:"conditions"`
		}
		if err := c.BindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to bind request"})
			return
		}
		if len(request.Conditions) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "At least one condition is required"})
			return
		}

		// The dataset must exist and belong to the caller; conditions are not
		// re-validated against its columns here, resolution narrows them later.
		if _, err := ctx.Datasets.GetForOwner(request.DatasetID, userID); err != nil {
			if errors.Is(err, dataset.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Dataset not found"})
				return
			}
			ctx.Logger.Error("Failed to fetch dataset", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate link"})
			return
		}

		link, err := ctx.Links.Create(userID, request.DatasetID, request.Slug, request.Title, request.Conditions)
		if err != nil {
			switch {
			case errors.Is(err, querylink.ErrDuplicateSlug):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Slug is already in use"})
			case errors.Is(err, querylink.ErrEmptySlug):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Slug must not be empty"})
			default:
				ctx.Logger.Error("Failed to create query link", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate link"})
			}
			return
		}

		if doc, err := utils.QueryLinkToDocument(ctx.DB, link); err == nil {
			indexDocument(ctx, doc)
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "link": "/q/" + link.Slug})
	}
}

func GetQueryLinks(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := utils.GetUserIDFromClaims(c)
		if err != nil {
			ctx.Logger.Error("Failed to get user ID from claims", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		links, err := ctx.Links.ListForOwner(userID)
		if err != nil {
			ctx.Logger.Error("Failed to list query links", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch links"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "links": links})
	}
}

func GetQueryLink(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := utils.GetUserIDFromClaims(c)
		if err != nil {
			ctx.Logger.Error("Failed to get user ID from claims", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		linkID, err := uuid.Parse(c.Param("linkID"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Link not found"})
			return
		}

		link, err := ctx.Links.GetForOwner(linkID, userID)
		if err != nil {
			if errors.Is(err, querylink.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Link not found"})
				return
			}
			ctx.Logger.Error("Failed to fetch query link", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get link"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "link": link})
	}
}

func UpdateQueryLink(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := utils.GetUserIDFromClaims(c)
		if err != nil {
			ctx.Logger.Error("Failed to get user ID from claims", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		linkID, err := uuid.Parse(c.Param("linkID"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Link not found"})
			return
		}

		var request struct {
			Slug  string `json:"slug"`
			Title string `json:"title"`
		}
		if err := c.BindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to bind request"})
			return
		}

		if err := ctx.Links.Rename(linkID, userID, request.Slug, request.Title); err != nil {
			switch {
			case errors.Is(err, querylink.ErrNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "Link not found"})
			case errors.Is(err, querylink.ErrDuplicateSlug):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Slug is already in use"})
			case errors.Is(err, querylink.ErrEmptySlug):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Slug must not be empty"})
			default:
				ctx.Logger.Error("Failed to update query link", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update link"})
			}
			return
		}

		if link, err := ctx.Links.GetForOwner(linkID, userID); err == nil {
			if doc, err := utils.QueryLinkToDocument(ctx.DB, link); err == nil {
				indexDocument(ctx, doc)
			}
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Link updated"})
	}
}

func DeleteQueryLink(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := utils.GetUserIDFromClaims(c)
		if err != nil {
			ctx.Logger.Error("Failed to get user ID from claims", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		linkID, err := uuid.Parse(c.Param("linkID"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Link not found"})
			return
		}

		if err := ctx.Links.Delete(linkID, userID); err != nil {
			ctx.Logger.Error("Failed to delete query link", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete link"})
			return
		}

		removeDocument(ctx, linkID.String())

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
