package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gtxykn0504/penguin-query/internal/appcontext"
	"github.com/gtxykn0504/penguin-query/internal/dataset"
	"github.com/gtxykn0504/penguin-query/internal/entity"
	"github.com/gtxykn0504/penguin-query/internal/upload"
	"github.com/gtxykn0504/penguin-query/internal/utils"
)

func UploadDataset(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := utils.GetUserIDFromClaims(c)
		if err != nil {
			ctx.Logger.Error("Failed to get user ID from claims", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		name := utils.SanitizeInput(c.PostForm("name"))
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Dataset name is required"})
			return
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			ctx.Logger.Error("Failed to get file from request", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to get file from request"})
			return
		}

		src, err := fileHeader.Open()
		if err != nil {
			ctx.Logger.Error("Failed to open uploaded file", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open uploaded file"})
			return
		}
		defer src.Close()

		fileData, err := io.ReadAll(src)
		if err != nil {
			ctx.Logger.Error("Failed to read uploaded file", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read uploaded file"})
			return
		}

		sheet, err := upload.Parse(fileHeader.Filename, bytes.NewReader(fileData))
		if err != nil {
			switch {
			case errors.Is(err, upload.ErrUnsupportedFormat):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Only XLSX and CSV files are supported"})
			case errors.Is(err, upload.ErrNoData):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Uploaded file is empty"})
			default:
				ctx.Logger.Error("Failed to parse uploaded file", zap.Error(err))
				c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse uploaded file"})
			}
			return
		}

		ds, err := ctx.Datasets.CreateFromRows(userID, name, sheet)
		if err != nil {
			var invalidCol *dataset.InvalidColumnError
			var dupCol *dataset.DuplicateColumnError
			switch {
			case errors.As(err, &invalidCol), errors.As(err, &dupCol):
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			case errors.Is(err, dataset.ErrEmptySheet):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Uploaded file is empty"})
			default:
				ctx.Logger.Error("Failed to create dataset", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Upload failed"})
			}
			return
		}

		archiveSourceFile(ctx, ds.ID, fileHeader.Filename, fileData)
		indexDocument(ctx, utils.DatasetToDocument(ds))

		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"datasetId": ds.ID,
			"columns":   sheet.Columns,
			"rowCount":  ds.TotalRows,
			"message":   "Dataset uploaded successfully",
		})
	}
}

// archiveSourceFile keeps the original upload in GCS for later download. Best
// effort: the dataset is already committed, a failed archive only loses the
// source copy.
func archiveSourceFile(ctx *appcontext.Context, datasetID uuid.UUID, filename string, data []byte) {
	if ctx.GCSClient == nil || ctx.GCSBucketName == "" {
		return
	}

	objectPath := datasetID.String() + "/source" + strings.ToLower(filepath.Ext(filename))
	w := ctx.GCSClient.Bucket(ctx.GCSBucketName).Object(objectPath).NewWriter(context.Background())

	if _, err := w.Write(data); err != nil {
		ctx.Logger.Warn("Failed to archive source file to GCS", zap.Error(err))
		return
	}
	if err := w.Close(); err != nil {
		ctx.Logger.Warn("Failed to close GCS writer", zap.Error(err))
	}
}

func GetDatasets(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := utils.GetUserIDFromClaims(c)
		if err != nil {
			ctx.Logger.Error("Failed to get user ID from claims", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		datasets, err := ctx.Datasets.ListForOwner(userID)
		if err != nil {
			ctx.Logger.Error("Failed to list datasets", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch datasets"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "datasets": datasets})
	}
}

func GetDataset(ctx *appcontext.Context) gin.HandlerFunc {
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
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch dataset"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "dataset": ds, "columns": columns})
	}
}

func RenameDataset(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := utils.GetUserIDFromClaims(c)
		if err != nil {
			ctx.Logger.Error("Failed to get user ID from claims", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		datasetID, err := uuid.Parse(c.Param("datasetID"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Dataset not found"})
			return
		}

		var request struct {
			Name string `json:"name"`
		}
		if err := c.BindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to bind request"})
			return
		}

		name := utils.SanitizeInput(request.Name)
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Dataset name is required"})
			return
		}

		if err := ctx.Datasets.Rename(datasetID, userID, name); err != nil {
			if errors.Is(err, dataset.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Dataset not found"})
				return
			}
			ctx.Logger.Error("Failed to rename dataset", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update dataset"})
			return
		}

		if ds, err := ctx.Datasets.GetForOwner(datasetID, userID); err == nil {
			indexDocument(ctx, utils.DatasetToDocument(ds))
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Dataset renamed"})
	}
}

func DeleteDataset(ctx *appcontext.Context) gin.HandlerFunc {
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

		// Link ids are collected up front so their search documents can be
		// removed after the cascade delete.
		links, err := ctx.Links.ListForDataset(ds.ID)
		if err != nil {
			ctx.Logger.Error("Failed to list query links for dataset", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete dataset"})
			return
		}

		if err := ctx.Datasets.Drop(ds); err != nil {
			ctx.Logger.Error("Failed to drop dataset", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete dataset"})
			return
		}

		removeDocument(ctx, ds.ID.String())
		for _, link := range links {
			removeDocument(ctx, link.ID.String())
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// datasetFromPath parses the datasetID path parameter and fetches the dataset
// for the authenticated owner, writing the error response itself on failure.
func datasetFromPath(ctx *appcontext.Context, c *gin.Context, userID uuid.UUID) (*entity.Dataset, bool) {
	datasetID, err := uuid.Parse(c.Param("datasetID"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Dataset not found"})
		return nil, false
	}

	found, err := ctx.Datasets.GetForOwner(datasetID, userID)
	if err != nil {
		if errors.Is(err, dataset.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Dataset not found"})
			return nil, false
		}
		ctx.Logger.Error("Failed to fetch dataset", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch dataset"})
		return nil, false
	}
	return found, true
}
