package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/redis/go-redis/v9"
)

const cartKeyPrefix = "cart:"

// カートをユーザーごとに1つのJSON blobで保存する。
type CartRedisStore struct {
	client *redis.Client
}

// DI
func NewCartRedisStore(client *redis.Client) repo.CartStore {
	return &CartRedisStore{client: client}
}

func cartKey(userID int64) string {
	return fmt.Sprintf("%s%d", cartKeyPrefix, userID)
}

// Load はカートを読み込む。未存在・破損は空カートを返す。
// エラーはRedis自体に到達できない場合だけ。
func (s *CartRedisStore) Load(ctx context.Context, userID int64) (model.Cart, error) {
	raw, err := s.client.Get(ctx, cartKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Cart{}, nil
	}
	if err != nil {
		return model.Cart{}, err
	}

	return decodeCart(raw), nil
}

func (s *CartRedisStore) Save(ctx context.Context, userID int64, cart model.Cart) error {
	b, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, cartKey(userID), b, 0).Err()
}

func (s *CartRedisStore) Clear(ctx context.Context, userID int64) error {
	return s.client.Del(ctx, cartKey(userID)).Err()
}

// decodeCart はblobをカートに戻す。壊れたデータは空カートに落とす。
// 既定値への変換はこの境界だけで行う。
func decodeCart(raw []byte) model.Cart {
	var cart model.Cart
	if err := json.Unmarshal(raw, &cart); err != nil {
		return model.Cart{}
	}
	return cart
}
