package notionsync

import (
	"context"
	"fmt"

	"github.com/dvloznov/ledger/internal/domain"
	"github.com/dvloznov/ledger/internal/logger"
	"github.com/jomei/notionapi"
)

// QueryPageSize is the page size used when listing the database.
const QueryPageSize = 100

// SyncResult counts the page operations performed by a sync.
type SyncResult struct {
	Created  int
	Updated  int
	Archived int
	Failed   int
}

// SyncTransactions mirrors a ledger snapshot into a Notion database.
//
// Pages are matched to transactions by their Transaction ID property.
// Matching pages are updated, missing ones are created, and pages whose id is
// absent from the snapshot (or that carry no id) are archived. A failure on a
// single page is logged and counted; the sync carries on with the next one.
// With dryRun set nothing is written and the result reports what would change.
func SyncTransactions(ctx context.Context, txs []domain.Transaction, svc NotionService, databaseID string, dryRun bool) (SyncResult, error) {
	log := logger.FromContext(ctx)
	var res SyncResult

	log.Info().
		Int("transaction_count", len(txs)).
		Bool("dry_run", dryRun).
		Msg("Starting transaction sync to Notion")

	pages, err := queryAllNotionPages(ctx, svc, databaseID)
	if err != nil {
		return res, fmt.Errorf("SyncTransactions: %w", err)
	}

	log.Info().Int("notion_page_count", len(pages)).Msg("Retrieved existing Notion pages")

	wanted := make(map[int]bool, len(txs))
	for _, tx := range txs {
		wanted[tx.ID] = true
	}

	existing := make(map[int]string, len(pages))
	for _, page := range pages {
		id, ok := transactionIDFromPage(page)
		if ok && wanted[id] {
			if _, dup := existing[id]; !dup {
				existing[id] = string(page.ID)
				continue
			}
		}

		if err := ctx.Err(); err != nil {
			return res, err
		}

		if dryRun {
			log.Info().Str("page_id", string(page.ID)).Msg("[DRY RUN] Would archive stale Notion page")
			res.Archived++
			continue
		}
		if err := svc.ArchivePage(ctx, string(page.ID)); err != nil {
			log.Warn().Err(err).Str("page_id", string(page.ID)).Msg("Failed to archive stale Notion page")
			res.Failed++
			continue
		}
		res.Archived++
	}

	for _, tx := range txs {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		pageID, found := existing[tx.ID]

		if dryRun {
			if found {
				log.Info().Int("transaction_id", tx.ID).Str("page_id", pageID).Msg("[DRY RUN] Would update Notion page")
				res.Updated++
			} else {
				log.Info().Int("transaction_id", tx.ID).Msg("[DRY RUN] Would create Notion page")
				res.Created++
			}
			continue
		}

		props := TransactionToNotionProperties(tx)

		if found {
			if _, err := svc.UpdatePage(ctx, pageID, props); err != nil {
				log.Warn().Err(err).Int("transaction_id", tx.ID).Str("page_id", pageID).Msg("Failed to update Notion page")
				res.Failed++
				continue
			}
			res.Updated++
			continue
		}

		page, err := svc.CreatePage(ctx, databaseID, props)
		if err != nil {
			log.Warn().Err(err).Int("transaction_id", tx.ID).Msg("Failed to create Notion page")
			res.Failed++
			continue
		}
		log.Debug().Int("transaction_id", tx.ID).Str("page_id", string(page.ID)).Msg("Created Notion page")
		res.Created++
	}

	log.Info().
		Int("created", res.Created).
		Int("updated", res.Updated).
		Int("archived", res.Archived).
		Int("failed", res.Failed).
		Msg("Transaction sync completed")

	return res, nil
}

// queryAllNotionPages follows the database cursor until every page is read.
func queryAllNotionPages(ctx context.Context, svc NotionService, databaseID string) ([]notionapi.Page, error) {
	var allPages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			PageSize: QueryPageSize,
		}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := svc.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllNotionPages: %w", err)
		}

		allPages = append(allPages, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return allPages, nil
}
