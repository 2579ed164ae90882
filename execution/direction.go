package execution

// Direction is the side a fill is priced for. Buyers pay the ask, sellers
// receive the bid, so direction decides which way spread and slippage move
// the price.
type Direction string

const (
	Buy  Direction = "buy"
	Sell Direction = "sell"
)
