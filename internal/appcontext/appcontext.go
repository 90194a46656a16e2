package appcontext

import (
	"cloud.google.com/go/storage"
	"github.com/meilisearch/meilisearch-go"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"github.com/gtxykn0504/penguin-query/internal/dataset"
	"github.com/gtxykn0504/penguin-query/internal/querylink"
)

type Context struct {
	DB     *gorm.DB
	Logger *zap.Logger

	Datasets *dataset.Manager
	Links    *querylink.Registry
	Resolver *querylink.Resolver
	Compiler *querylink.Compiler

	// Optional collaborators; nil/empty when not configured.
	GCSClient         *storage.Client
	GCSBucketName     string
	MeilisearchClient *meilisearch.Client

	OAuth2Config *oauth2.Config
	FrontendURL  string
}
