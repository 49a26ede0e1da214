// Package categorize suggests categories for transactions that were imported
// without one.
package categorize

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dvloznov/ledger/internal/domain"
	"github.com/dvloznov/ledger/internal/ledger"
	"github.com/dvloznov/ledger/internal/logger"
)

// Categorizer maps payees to category names.
type Categorizer interface {
	// Suggest returns a category for each payee it can classify. Payees it
	// cannot classify are left out of the result. known lists the categories
	// already in use so suggestions can reuse them.
	Suggest(ctx context.Context, payees []string, known []string) (map[string]string, error)
}

// Apply asks c for categories for every Uncategorized transaction in repo and
// stores the suggestions. It returns the number of transactions updated.
func Apply(ctx context.Context, repo ledger.Repository, c Categorizer) (int, error) {
	log := logger.FromContext(ctx)

	snapshot := repo.Snapshot()

	payeeSet := make(map[string]struct{})
	knownSet := make(map[string]struct{})
	var pending []domain.Transaction
	for _, tx := range snapshot {
		if strings.EqualFold(tx.Category, domain.DefaultCategory) {
			pending = append(pending, tx)
			payeeSet[tx.Payee] = struct{}{}
			continue
		}
		knownSet[tx.Category] = struct{}{}
	}

	if len(pending) == 0 {
		log.Info().Msg("No uncategorized transactions")
		return 0, nil
	}

	payees := sortedKeys(payeeSet)
	known := sortedKeys(knownSet)

	log.Info().
		Int("transactions", len(pending)).
		Int("payees", len(payees)).
		Msg("Requesting category suggestions")

	suggestions, err := c.Suggest(ctx, payees, known)
	if err != nil {
		return 0, fmt.Errorf("Apply: %w", err)
	}

	updated := 0
	for _, tx := range pending {
		category := strings.TrimSpace(suggestions[tx.Payee])
		if category == "" || strings.EqualFold(category, domain.DefaultCategory) {
			continue
		}
		// The record may have been removed or edited since the snapshot.
		current, ok := repo.Get(tx.ID)
		if !ok || !strings.EqualFold(current.Category, domain.DefaultCategory) {
			continue
		}
		if repo.SetCategory(tx.ID, category) {
			updated++
		}
	}

	log.Info().Int("updated", updated).Msg("Category suggestions applied")
	return updated, nil
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
