package usecase

import (
	"context"
	"net/http"

	"app/internal/domain/model"
	"app/internal/domain/purchase"
	repo "app/internal/repository"
)

// 1リクエストで受け付ける数量の上限。
// これを超える値は合算時にint64が溢れて負数になり得るので入口で弾く。
const maxRequestQuantity int64 = 1000

// CartUsecase は /cart の業務ロジックです。
// カート本体はユーザーごとのblob（CartStore）、上限判定はpurchase.Evaluateに寄せる。
type CartUsecase struct {
	store       repo.CartStore
	productRepo repo.ProductRepository
	history     PurchaseHistorySource
}

func NewCartUsecase(
	store repo.CartStore,
	productRepo repo.ProductRepository,
	history PurchaseHistorySource,
) *CartUsecase {
	return &CartUsecase{
		store:       store,
		productRepo: productRepo,
		history:     history,
	}
}

// priceは追加時点のスナップショットを返す。
type CartLineResponse struct {
	Index     int    `json:"index"`
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
	Stock     int64  `json:"stock"`
	ImageURL  string `json:"image_url,omitempty"`
	Subtotal  int64  `json:"subtotal"`
}

type CartResponse struct {
	Items []CartLineResponse `json:"items"`
	Total int64              `json:"total"`
}

type AddCartInput struct {
	ProductID int64
	Quantity  int64
	Size      string
	Color     string
}

type UpdateCartLineInput struct {
	Quantity int64
}

// GetCart はカート取得。破損・未保存のblobは空カートとして返る。
func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	cart, err := u.store.Load(ctx, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "cart store error")
	}

	return toCartResponse(cart), nil
}

// AddToCart はカートに追加（同一商品＋同一バリアントは数量加算）。
// 入力検証→在庫→バリアント→購入上限の順で弾き、全部通ったときだけ保存する。
func (u *CartUsecase) AddToCart(ctx context.Context, userID int64, in AddCartInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.ProductID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if in.Quantity < 1 || in.Quantity > maxRequestQuantity {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	// 商品チェック（公開のみ）
	p, err := u.productRepo.FindByID(ctx, in.ProductID)
	if err == repo.ErrNotFound {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !p.IsActive {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid")
	}

	if p.Stock <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "out of stock")
	}

	// バリアント必須チェック（選択肢がある商品は選択必須、選択肢外は不可）
	if p.RequiresSize() && in.Size == "" {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "size required")
	}
	if in.Size != "" && !p.Sizes.Contains(in.Size) {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid size")
	}
	if p.RequiresColor() && in.Color == "" {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "color required")
	}
	if in.Color != "" && !p.Colors.Contains(in.Color) {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid color")
	}

	cart, err := u.store.Load(ctx, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "cart store error")
	}

	// マージ後の商品合計（差分ではない）で在庫と上限を判定する
	merged := cart.QuantityOf(in.ProductID) + in.Quantity
	if merged > p.Stock {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "stock exceeded")
	}

	decision := purchase.Evaluate(in.ProductID, merged, u.snapshotOrNil(ctx, userID))
	if !decision.Allowed {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, decision.Reason)
	}

	cart.Upsert(model.CartLine{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Quantity:  in.Quantity,
		Size:      in.Size,
		Color:     in.Color,
		Stock:     p.Stock,
		ImageURL:  p.ImageURL,
	})

	if err := u.store.Save(ctx, userID, cart); err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "cart store error")
	}

	return toCartResponse(cart), nil
}

// 数量変更。0以下は無条件で行削除（上限判定はしない）。
func (u *CartUsecase) UpdateQuantity(ctx context.Context, userID int64, lineIndex int, in UpdateCartLineInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	cart, err := u.store.Load(ctx, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "cart store error")
	}
	if lineIndex < 0 || lineIndex >= len(cart.Lines) {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	if in.Quantity <= 0 {
		cart.RemoveAt(lineIndex)
		if err := u.store.Save(ctx, userID, cart); err != nil {
			return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "cart store error")
		}
		return toCartResponse(cart), nil
	}

	if in.Quantity > maxRequestQuantity {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	line := cart.Lines[lineIndex]

	// 在庫は最新の値で再チェック
	p, err := u.productRepo.FindByID(ctx, line.ProductID)
	if err == repo.ErrNotFound {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !p.IsActive {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid")
	}

	// 変更後の商品合計（他バリアント行も含む）
	prospective := cart.QuantityOf(line.ProductID) - line.Quantity + in.Quantity
	if prospective > p.Stock {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "stock exceeded")
	}

	decision := purchase.Evaluate(line.ProductID, prospective, u.snapshotOrNil(ctx, userID))
	if !decision.Allowed {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, decision.Reason)
	}

	cart.Lines[lineIndex].Quantity = in.Quantity
	cart.Lines[lineIndex].Stock = p.Stock

	if err := u.store.Save(ctx, userID, cart); err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "cart store error")
	}

	return toCartResponse(cart), nil
}

// 行削除（無条件）
func (u *CartUsecase) RemoveLine(ctx context.Context, userID int64, lineIndex int) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	cart, err := u.store.Load(ctx, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "cart store error")
	}
	if !cart.RemoveAt(lineIndex) {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	if err := u.store.Save(ctx, userID, cart); err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "cart store error")
	}

	return toCartResponse(cart), nil
}

// カートを空にする
func (u *CartUsecase) EmptyCart(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	if err := u.store.Clear(ctx, userID); err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "cart store error")
	}

	return toCartResponse(model.Cart{}), nil
}

// 履歴が取れないときはnil（購入上限は寛容な既定値になる）
func (u *CartUsecase) snapshotOrNil(ctx context.Context, userID int64) *purchase.HistorySnapshot {
	snap, err := u.history.Snapshot(ctx, userID)
	if err != nil {
		return nil
	}
	return snap
}

func toCartResponse(cart model.Cart) CartResponse {
	items := make([]CartLineResponse, 0, len(cart.Lines))
	for i, l := range cart.Lines {
		items = append(items, CartLineResponse{
			Index:     i,
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     l.UnitPrice,
			Quantity:  l.Quantity,
			Size:      l.Size,
			Color:     l.Color,
			Stock:     l.Stock,
			ImageURL:  l.ImageURL,
			Subtotal:  l.UnitPrice * l.Quantity,
		})
	}
	return CartResponse{Items: items, Total: cart.Total()}
}
