package notionsync

import (
	"context"

	"github.com/jomei/notionapi"
)

// NotionService defines the interface for interacting with Notion API.
// This interface enables mocking and testing of Notion operations.
type NotionService interface {
	// CreatePage creates a new page in a Notion database with the given properties.
	CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error)

	// UpdatePage replaces the given properties on an existing page.
	UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error)

	// QueryDatabase returns one page of database results.
	QueryDatabase(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)

	// ArchivePage archives a page. Notion has no hard delete.
	ArchivePage(ctx context.Context, pageID string) error
}
