package api

import (
	"github.com/lysyi3m/feed-ingest/app/database"
	"github.com/lysyi3m/feed-ingest/app/importer"
)

type Handler struct {
	users    database.UserRepository
	articles database.ArticleRepository
	importer *importer.Importer
	version  string
}
