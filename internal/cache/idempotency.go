package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	apperrors "airport-booking/pkg/app_errors"

	"github.com/redis/go-redis/v9"
)

const (
	claimPending = "pending"
	// pendingClaimTTL 佔用中的 key 存活時間，逾時後的重送由 orders 的 (user_id, request_id) 唯一索引找回原訂單
	pendingClaimTTL = 30 * time.Second
)

// ClaimResult Claim 的結果：Claimed 為 true 代表由本次請求負責建立訂單；
// 否則 OrderID 為先前已建立的訂單
type ClaimResult struct {
	Claimed bool
	OrderID int
}

// IdempotencyStore request id 以使用者為範圍
type IdempotencyStore interface {
	// 佔用：同一個 request id 只有一個請求能取得建立訂單的權利
	Claim(ctx context.Context, userID int, requestID string) (ClaimResult, error)
	// 完成：記錄 request id 對應的訂單，之後的重送直接回傳該訂單
	Complete(ctx context.Context, userID int, requestID string, orderID int) error
	// 釋放：建立失敗時移除佔用，讓用戶端可以重試
	Release(ctx context.Context, userID int, requestID string) error
}

type RedisIdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisIdempotencyStore(client *redis.Client, ttl time.Duration) IdempotencyStore {
	return &RedisIdempotencyStore{
		client: client,
		ttl:    ttl,
	}
}

func (s *RedisIdempotencyStore) getKey(userID int, requestID string) string {
	return fmt.Sprintf("order:request:%d:%s", userID, requestID)
}

func (s *RedisIdempotencyStore) pendingTTL() time.Duration {
	if s.ttl <= 0 {
		return pendingClaimTTL
	}
	return min(s.ttl, pendingClaimTTL)
}

/*
佔用 request id (使用Lua腳本確保原子性)
 1. key 不存在：寫入 pending 並設定較短的過期時間
 2. 值為 pending：另一個請求仍在處理
 3. 其他：值為已建立的訂單 id
*/
func (s *RedisIdempotencyStore) Claim(ctx context.Context, userID int, requestID string) (ClaimResult, error) {
	script := `
		local key = KEYS[1]
		local ttl = tonumber(ARGV[1])

		local current = redis.call('GET', key)
		if not current then
			redis.call('SET', key, 'pending', 'PX', ttl)
			return {1, ''}
		end

		if current == 'pending' then
			return {0, ''} -- 處理中
		end

		return {2, current} -- 已完成
	`

	result, err := s.client.Eval(ctx, script, []string{s.getKey(userID, requestID)}, s.pendingTTL().Milliseconds()).Result()
	if err != nil {
		return ClaimResult{}, err
	}

	resSlice, ok := result.([]interface{})
	if !ok || len(resSlice) != 2 {
		return ClaimResult{}, errors.New("unexpected result")
	}
	code, _ := resSlice[0].(int64)
	value, _ := resSlice[1].(string)

	switch code {
	case 1:
		return ClaimResult{Claimed: true}, nil
	case 0:
		return ClaimResult{}, apperrors.ErrDuplicateRequest
	case 2:
		orderID, err := strconv.Atoi(value)
		if err != nil {
			return ClaimResult{}, fmt.Errorf("invalid order id %q: %w", value, err)
		}
		return ClaimResult{OrderID: orderID}, nil
	default:
		return ClaimResult{}, errors.New("unexpected result")
	}
}

func (s *RedisIdempotencyStore) Complete(ctx context.Context, userID int, requestID string, orderID int) error {
	return s.client.Set(ctx, s.getKey(userID, requestID), orderID, s.ttl).Err()
}

func (s *RedisIdempotencyStore) Release(ctx context.Context, userID int, requestID string) error {
	script := `
		if redis.call('GET', KEYS[1]) == ARGV[1] then
			return redis.call('DEL', KEYS[1])
		end
		return 0
	`

	return s.client.Eval(ctx, script, []string{s.getKey(userID, requestID)}, claimPending).Err()
}
