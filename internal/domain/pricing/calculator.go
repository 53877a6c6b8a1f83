package pricing

// 手数料率・税率は計算機の固定定数
const (
	ServiceFeeRate = 0.05
	TaxRate        = 0.06
)

// 払い戻し率のしきい値（イベント開始までの残り時間）
const (
	fullRefundHours    = 72
	partialRefundHours = 48
	halfRefundHours    = 24
)

// Breakdown は価格の内訳を表す
type Breakdown struct {
	BasePrice  float64
	ServiceFee float64
	Tax        float64
	Discount   float64
	TotalPrice float64
}

// Calculator は価格内訳と払い戻し額の計算を行う
// 純粋な算術のみで状態を持たず、丸めは行わない（表示側の責務）
type Calculator struct{}

// NewCalculator は Calculator を作成する
func NewCalculator() *Calculator {
	return &Calculator{}
}

// CalculateTotalPrice は価格内訳を計算する
// 各手数料は直前のステップの小計に対して順に適用される:
// 基本料金 → サービス手数料 → 割引 → 税
// 負の入力の検証は行わない（呼び出し側の責務）
func (c *Calculator) CalculateTotalPrice(pricePerSeat float64, quantity int, applyServiceFee, applyTax bool, discountPercentage float64) Breakdown {
	basePrice := pricePerSeat * float64(quantity)

	var serviceFee float64
	if applyServiceFee {
		serviceFee = basePrice * ServiceFeeRate
	}
	subtotalAfterFee := basePrice + serviceFee

	discount := subtotalAfterFee * (discountPercentage / 100.0)
	taxableAmount := subtotalAfterFee - discount

	var tax float64
	if applyTax {
		tax = taxableAmount * TaxRate
	}

	return Breakdown{
		BasePrice:  basePrice,
		ServiceFee: serviceFee,
		Tax:        tax,
		Discount:   discount,
		TotalPrice: taxableAmount + tax,
	}
}

// CalculateRefundAmount はイベント開始までの残り時間に応じた払い戻し額を計算する
// 72時間以上前: 全額 / 48時間以上前: 75% / 24時間以上前: 50% / それ未満: 払い戻しなし
func (c *Calculator) CalculateRefundAmount(totalPrice, hoursUntilEvent float64) float64 {
	switch {
	case hoursUntilEvent >= fullRefundHours:
		return totalPrice
	case hoursUntilEvent >= partialRefundHours:
		return totalPrice * 0.75
	case hoursUntilEvent >= halfRefundHours:
		return totalPrice * 0.50
	default:
		return 0
	}
}
