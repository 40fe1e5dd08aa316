package gas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shamank/evm-txkit-go/pkg/blockchain"
	"github.com/shamank/evm-txkit-go/pkg/provider"
	"go.uber.org/zap"
)

// FloorGasPrice is returned when not even the base gas price can be read
// (10 gwei).
const FloorGasPrice = "10000000000"

const (
	minMultiplier   = 1.2
	multiplierRange = 0.8
	// degradedPercent is applied when block utilization is unknown.
	degradedPercent = 200
)

// Sample is the network state a single pricing decision is based on.
type Sample struct {
	BaseGasPrice  *big.Int
	BlockGasUsed  uint64
	BlockGasLimit uint64
}

// Utilization returns gasUsed/gasLimit clamped to [0,1].
func (s Sample) Utilization() float64 {
	if s.BlockGasLimit == 0 {
		return 1
	}
	return clamp(float64(s.BlockGasUsed) / float64(s.BlockGasLimit))
}

// Price applies the utilization multiplier to the base price.
func (s Sample) Price() *big.Int {
	return Scale(s.BaseGasPrice, s.Utilization())
}

func clamp(u float64) float64 {
	switch {
	case math.IsNaN(u) || u < 0:
		return 0
	case u > 1:
		return 1
	}
	return u
}

// Multiplier returns 1.2 + 0.8*u² for u clamped to [0,1], i.e. a value in
// [1.2, 2.0].
func Multiplier(utilization float64) float64 {
	u := clamp(utilization)
	return minMultiplier + multiplierRange*u*u
}

// percent rounds the multiplier to two decimals and expresses it in percent.
// It is the only place floating point touches the price.
func percent(utilization float64) int64 {
	return int64(math.Round(Multiplier(utilization) * 100))
}

// Scale returns base * round(Multiplier(u)*100) / 100 computed on big
// integers. A nil base yields nil.
func Scale(base *big.Int, utilization float64) *big.Int {
	return scalePercent(base, percent(utilization))
}

func scalePercent(base *big.Int, pct int64) *big.Int {
	if base == nil {
		return nil
	}
	out := new(big.Int).Mul(base, big.NewInt(pct))
	return out.Quo(out, big.NewInt(100))
}

// Estimator derives congestion aware gas prices from a read transport.
// It holds no mutable state.
type Estimator struct {
	reader provider.Requester
	floor  *big.Int
}

// Option customises an Estimator.
type Option func(*Estimator)

// WithFloor overrides the price returned when the base price is unavailable.
func WithFloor(floor *big.Int) Option {
	return func(e *Estimator) {
		if floor != nil && floor.Sign() > 0 {
			e.floor = new(big.Int).Set(floor)
		}
	}
}

// NewEstimator creates an estimator querying reader for eth_gasPrice and the
// latest block.
func NewEstimator(reader provider.Requester, opts ...Option) *Estimator {
	floor, _ := new(big.Int).SetString(FloorGasPrice, 10)
	e := &Estimator{reader: reader, floor: floor}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Estimate returns the gas price in wei as a decimal string. It never fails:
// without block data it assumes full blocks (2x base), without a base price it
// returns the floor.
func (e *Estimator) Estimate(ctx context.Context) string {
	return e.GasPrice(ctx).String()
}

// GasPrice is Estimate returning a fresh *big.Int.
func (e *Estimator) GasPrice(ctx context.Context) *big.Int {
	base, err := e.baseGasPrice(ctx)
	if err != nil {
		zap.L().Warn("gas estimation degraded: base price unavailable, using floor",
			zap.String("floorGwei", blockchain.WeiToGwei(e.floor).String()),
			zap.Error(err))
		return new(big.Int).Set(e.floor)
	}

	used, limit, err := e.latestBlockGas(ctx)
	if err != nil {
		price := scalePercent(base, degradedPercent)
		zap.L().Warn("gas estimation degraded: block utilization unavailable, assuming full blocks",
			zap.String("baseGwei", blockchain.WeiToGwei(base).String()),
			zap.String("priceGwei", blockchain.WeiToGwei(price).String()),
			zap.Error(err))
		return price
	}

	sample := Sample{BaseGasPrice: base, BlockGasUsed: used, BlockGasLimit: limit}
	price := sample.Price()
	zap.L().Debug("gas price estimated",
		zap.Float64("utilization", sample.Utilization()),
		zap.String("baseGwei", blockchain.WeiToGwei(base).String()),
		zap.String("priceGwei", blockchain.WeiToGwei(price).String()))
	return price
}

func (e *Estimator) baseGasPrice(ctx context.Context) (*big.Int, error) {
	if e.reader == nil {
		return nil, errors.New("no transport configured")
	}
	raw, err := e.reader.Request(ctx, "eth_gasPrice")
	if err != nil {
		return nil, err
	}
	var price hexutil.Big
	if err := json.Unmarshal(raw, &price); err != nil {
		return nil, fmt.Errorf("decode eth_gasPrice: %w", err)
	}
	return price.ToInt(), nil
}

// blockGas is the subset of a block needed for utilization.
type blockGas struct {
	GasUsed  *hexutil.Uint64 `json:"gasUsed"`
	GasLimit *hexutil.Uint64 `json:"gasLimit"`
}

func (e *Estimator) latestBlockGas(ctx context.Context) (uint64, uint64, error) {
	raw, err := e.reader.Request(ctx, "eth_getBlockByNumber", "latest", false)
	if err != nil {
		return 0, 0, err
	}
	var b *blockGas
	if err := json.Unmarshal(raw, &b); err != nil {
		return 0, 0, fmt.Errorf("decode latest block: %w", err)
	}
	if b == nil || b.GasUsed == nil || b.GasLimit == nil {
		return 0, 0, errors.New("latest block carries no gas data")
	}
	if *b.GasLimit == 0 {
		return 0, 0, errors.New("latest block has zero gas limit")
	}
	return uint64(*b.GasUsed), uint64(*b.GasLimit), nil
}
