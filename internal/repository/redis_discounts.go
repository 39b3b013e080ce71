package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/odlcinemas/booking-ledger/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisDiscountRepository keeps discount codes as redis hashes, one per code.
// Fields: kind, amount, description, usage_limit, used, expires_at. A key TTL
// mirrors expires_at so stale codes eventually vanish on their own; the
// expires_at field is what lets a recently-expired code still answer
// "expired" rather than "invalid".
type RedisDiscountRepository struct {
	redis redis.UniversalClient
}

func NewRedisDiscountRepository(client redis.UniversalClient) *RedisDiscountRepository {
	return &RedisDiscountRepository{
		redis: client,
	}
}

func discountKey(code string) string {
	return fmt.Sprintf("coupon:%s", strings.ToUpper(code))
}

func (r *RedisDiscountRepository) Resolve(ctx context.Context, code string) (*domain.Discount, error) {
	fields, err := r.redis.HGetAll(ctx, discountKey(code)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	if len(fields) == 0 {
		return nil, domain.ErrDiscountInvalid
	}

	if expiresAt := fields["expires_at"]; expiresAt != "" {
		t, err := time.Parse(time.RFC3339, expiresAt)
		if err != nil {
			return nil, domain.ErrDiscountInvalid
		}
		if time.Now().After(t) {
			return nil, domain.ErrDiscountExpired
		}
	}

	usageLimit, _ := strconv.ParseInt(fields["usage_limit"], 10, 64)
	used, _ := strconv.ParseInt(fields["used"], 10, 64)
	if usageLimit > 0 && used >= usageLimit {
		return nil, domain.ErrDiscountExpired
	}

	amount, err := strconv.ParseInt(fields["amount"], 10, 64)
	if err != nil || amount < 0 {
		return nil, domain.ErrDiscountInvalid
	}

	kind := domain.DiscountKind(fields["kind"])
	switch kind {
	case domain.DiscountFlat:
	case domain.DiscountPercent:
		if amount > 100 {
			return nil, domain.ErrDiscountInvalid
		}
	default:
		return nil, domain.ErrDiscountInvalid
	}

	return &domain.Discount{
		Code:        strings.ToUpper(code),
		Kind:        kind,
		Amount:      amount,
		Description: fields["description"],
	}, nil
}

func (r *RedisDiscountRepository) MarkUsed(ctx context.Context, code string) error {
	err := r.redis.HIncrBy(ctx, discountKey(code), "used", 1).Err()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	return nil
}

// Save seeds or updates a discount code. Used by admin tooling and tests.
func (r *RedisDiscountRepository) Save(ctx context.Context, d domain.Discount, usageLimit int64, expiresAt *time.Time) error {
	key := discountKey(d.Code)

	fields := map[string]any{
		"kind":        string(d.Kind),
		"amount":      d.Amount,
		"description": d.Description,
		"usage_limit": usageLimit,
	}
	if expiresAt != nil {
		fields["expires_at"] = expiresAt.Format(time.RFC3339)
	}

	pipe := r.redis.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.HSetNX(ctx, key, "used", 0)
	if expiresAt != nil {
		pipe.ExpireAt(ctx, key, *expiresAt)
	}

	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	return nil
}
