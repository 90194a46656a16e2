package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gtxykn0504/penguin-query/internal/appcontext"
	"github.com/gtxykn0504/penguin-query/internal/dataset"
	"github.com/gtxykn0504/penguin-query/internal/utils"
)

func GetDatasetData(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := utils.GetUserIDFromClaims(c)
		if err != nil {
			ctx.Logger.Error("Failed to get user ID from claims", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		ds, ok := datasetFromPath(ctx, c, userID)
		if !ok {
			return
		}

		columns, err := ctx.Datasets.ListColumns(ds)
		if err != nil {
			ctx.Logger.Error("Failed to introspect dataset columns", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get dataset data"})
			return
		}

		rows, err := ctx.Datasets.ListRows(ds)
		if err != nil {
			ctx.Logger.Error("Failed to read dataset rows", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get dataset data"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"dataset": ds,
			"columns": columns,
			"data":    rows,
		})
	}
}

func UpdateDatasetCell(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := utils.GetUserIDFromClaims(c)
		if err != nil {
			ctx.Logger.Error("Failed to get user ID from claims", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		var request struct {
			RowID      int64  `json:"rowId"`
			ColumnName string `json:"columnName"`
			Value      string `json:"value"`
		}
		if err := c.BindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to bind request"})
			return
		}
		if request.RowID == 0 || request.ColumnName == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
			return
		}

		ds, ok := datasetFromPath(ctx, c, userID)
		if !ok {
			return
		}

		if err := ctx.Datasets.UpdateCell(ds, request.RowID, request.ColumnName, request.Value); err != nil {
			var invalidCol *dataset.InvalidColumnError
			switch {
			case errors.As(err, &invalidCol):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid column name"})
			case errors.Is(err, dataset.ErrRowNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "Row not found"})
			default:
				ctx.Logger.Error("Failed to update cell", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update dataset data"})
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Cell updated"})
	}
}
