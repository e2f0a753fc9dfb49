package repository

import (
	"app/internal/domain/model"
	"context"
	"errors"
)

var ErrUserNotFound = errors.New("user not found")

// ユーザーの保存・取得を約束
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// アクティブ状態・ロール・最終ログインなどの更新
	Update(ctx context.Context, user *model.User) error
	// 強制ログアウト用にtoken_versionを+1
	IncrementTokenVersion(ctx context.Context, userID int64) error
}
