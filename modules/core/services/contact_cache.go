package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ferrumlabs/backoffice/pkg/cache"
)

const contactCacheExpiry = 24 * time.Hour

// ContactCache maps a tenant's admin contact phone to its tenant id so OTP
// login can locate the tenant without a cross-tenant table scan. Entries are
// evicted when the owning tenant is deleted.
type ContactCache struct {
	cache cache.Cache
}

func NewContactCache(c cache.Cache) *ContactCache {
	return &ContactCache{cache: c}
}

func contactKey(phone string) string {
	return "tenant:contact:" + phone
}

func (c *ContactCache) TenantIDByPhone(ctx context.Context, phone string) (uuid.UUID, bool, error) {
	v, err := c.cache.Get(ctx, contactKey(phone), 0)
	if errors.Is(err, cache.ErrMiss) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, false, err
	}
	return id, true, nil
}

func (c *ContactCache) Remember(ctx context.Context, phone string, tenantID uuid.UUID) error {
	return c.cache.Set(ctx, contactKey(phone), tenantID.String(), contactCacheExpiry)
}

func (c *ContactCache) Evict(ctx context.Context, phones ...string) error {
	keys := make([]string, len(phones))
	for i, phone := range phones {
		keys[i] = contactKey(phone)
	}
	return c.cache.Delete(ctx, keys...)
}
