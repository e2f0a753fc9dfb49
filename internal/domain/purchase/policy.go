package purchase

import "fmt"

// 購入上限。完了済み請求書の履歴と、カート反映後の数量に対して判定する。
const (
	// 全商品通算の生涯上限
	LifetimeTotalLimit int64 = 20
	// 1商品あたりの生涯上限（履歴＋今回）
	PerProductLimit int64 = 5
	// 1回の購入で同一商品に入れられる上限
	PerPurchaseLimit int64 = 3
)

// 完了済み請求書から集計した購入履歴のスナップショット。
// 読み取り専用。チェックアウト成功後に作り直す。
type HistorySnapshot struct {
	// 商品ID → 累計購入数量
	PerProduct map[int64]int64
	// 全商品の累計購入数量
	TotalQuantity int64
}

// 商品の履歴数量（未購入は0）
func (s *HistorySnapshot) QuantityOf(productID int64) int64 {
	if s == nil || s.PerProduct == nil {
		return 0
	}
	return s.PerProduct[productID]
}

// 判定結果。Allowedがfalseの時だけReasonが入る。
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Evaluate は購入上限を優先順位どおりに判定する。
// requestedQty は「カートに反映した後のその商品の合計数量」。差分ではない。
// 履歴が取れない場合は snapshot=nil で呼び、1回3個の上限のみ適用する。
func Evaluate(productID int64, requestedQty int64, snapshot *HistorySnapshot) Decision {
	// 履歴なしは寛容な既定値（1回の上限だけ）
	if snapshot == nil {
		if requestedQty > PerPurchaseLimit {
			return deny(perPurchaseMessage())
		}
		return allow()
	}

	// 1. 生涯の全体上限
	if snapshot.TotalQuantity >= LifetimeTotalLimit {
		return deny(fmt.Sprintf("you have reached the maximum total purchase limit (%d units)", LifetimeTotalLimit))
	}

	// 2. 商品ごとの生涯上限（履歴＋今回）
	historical := snapshot.QuantityOf(productID)
	if historical+requestedQty > PerProductLimit {
		if historical >= PerProductLimit {
			return deny(fmt.Sprintf("you have already purchased the maximum %d units of this product", PerProductLimit))
		}
		remaining := PerProductLimit - historical
		if remaining < 0 {
			remaining = 0
		}
		return deny(fmt.Sprintf("only %d more unit(s) of this product allowed", remaining))
	}

	// 3. 1回の購入あたりの上限
	if requestedQty > PerPurchaseLimit {
		return deny(perPurchaseMessage())
	}

	return allow()
}

func perPurchaseMessage() string {
	return fmt.Sprintf("cannot add more than %d units of the same product in a single purchase", PerPurchaseLimit)
}
