package model

// カート明細。商品ID＋サイズ＋カラーの組が1行のキー。
// UnitPriceは追加時点の価格、Stockは追加時点の既知在庫。
type CartLine struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int64  `json:"quantity"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
	Stock     int64  `json:"stock"`
	ImageURL  string `json:"image_url,omitempty"`
}

// 同一行とみなすキーが一致するか
func (l CartLine) SameKey(productID int64, size string, color string) bool {
	return l.ProductID == productID && l.Size == size && l.Color == color
}

// セッションカート。行の順序は追加順を保つ。
type Cart struct {
	Lines []CartLine `json:"lines"`
}

// キー一致の行indexを返す（無ければ-1）
func (c *Cart) FindLine(productID int64, size string, color string) int {
	for i, l := range c.Lines {
		if l.SameKey(productID, size, color) {
			return i
		}
	}
	return -1
}

// 同一キーは数量加算、無ければ末尾に追加
func (c *Cart) Upsert(line CartLine) {
	if i := c.FindLine(line.ProductID, line.Size, line.Color); i >= 0 {
		c.Lines[i].Quantity += line.Quantity
		c.Lines[i].Stock = line.Stock
		return
	}
	c.Lines = append(c.Lines, line)
}

// 指定indexの行を削除
func (c *Cart) RemoveAt(index int) bool {
	if index < 0 || index >= len(c.Lines) {
		return false
	}
	c.Lines = append(c.Lines[:index], c.Lines[index+1:]...)
	return true
}

// 商品IDごとのカート内数量
func (c *Cart) QuantityOf(productID int64) int64 {
	var total int64
	for _, l := range c.Lines {
		if l.ProductID == productID {
			total += l.Quantity
		}
	}
	return total
}

// 単価×数量の合計
func (c *Cart) Total() int64 {
	var total int64
	for _, l := range c.Lines {
		total += l.UnitPrice * l.Quantity
	}
	return total
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}
