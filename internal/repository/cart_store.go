package repository

import (
	"context"

	"app/internal/domain/model"
)

// セッションカートの保存先。ユーザーごとに1つのblobを持つ。
// Loadはデータ破損・未存在を空カートとして返し、エラーにしない。
type CartStore interface {
	Load(ctx context.Context, userID int64) (model.Cart, error)
	Save(ctx context.Context, userID int64, cart model.Cart) error
	Clear(ctx context.Context, userID int64) error
}
