package model

// ProductResponse is the payload for GET /api/v1/products/:id.
// Price serializes with exactly two fractional digits.
type ProductResponse struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Price          string `json:"price"`
	StockTotal     int64  `json:"stock_total"`
	StockSold      int64  `json:"stock_sold"`
	AvailableStock int64  `json:"available_stock"`
}

// ToResponse builds the API view of a product together with its derived
// available stock.
func (p *Product) ToResponse(availableStock int64) ProductResponse {
	return ProductResponse{
		ID:             p.ID,
		Name:           p.Name,
		Price:          p.Price.StringFixed(2),
		StockTotal:     p.StockTotal,
		StockSold:      p.StockSold,
		AvailableStock: availableStock,
	}
}
