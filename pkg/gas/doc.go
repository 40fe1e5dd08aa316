// Package gas prices transactions from current block congestion.
//
// The estimator scales eth_gasPrice by 1.2 + 0.8*u², where u is the gas
// utilization of the latest block, so the result stays between 1.2x and 2x
// the base price:
//
//	price := gas.NewEstimator(router).Estimate(ctx) // decimal wei string
//
// When the latest block is unavailable the base price is doubled; when the
// base price itself is unavailable, FloorGasPrice (10 gwei) or the floor set
// with WithFloor is returned. Estimate never fails.
package gas
