package service

import (
	"context"
	"fmt"
	"log"

	"applicant-review-api/internal/cache"
	"applicant-review-api/internal/model"

	"github.com/google/uuid"
)

func statusCacheKey(accountID uuid.UUID, category model.Category) string {
	return fmt.Sprintf("status:%s:%s", accountID, category)
}

const statsCacheKey = "stats:submissions"

// invalidateAccountCaches drops the cached status summaries for an
// account plus the shared stats payload. Called after every committed
// ledger write; a failed invalidation is logged and tolerated because
// entries expire by TTL anyway.
func invalidateAccountCaches(ctx context.Context, c cache.Cache, accountID uuid.UUID) {
	if c == nil {
		return
	}
	err := c.Delete(ctx,
		statusCacheKey(accountID, model.CategoryProvider),
		statusCacheKey(accountID, model.CategoryRequester),
		statsCacheKey,
	)
	if err != nil {
		log.Printf("cache: failed to invalidate account %s: %v", accountID, err)
	}
}
