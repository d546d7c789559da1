package eth

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Reswap-DEX/reswap-periphery/pkg/uniswapv2"
)

// Storage layout of the V2 pair contract:
//
//	address public token0;              // slot 6
//	address public token1;              // slot 7
//	uint112 private reserve0;           // slot 8, low bits
//	uint112 private reserve1;           // slot 8
//	uint32  private blockTimestampLast; // slot 8, high bits
const (
	slotToken0   = 6
	slotToken1   = 7
	slotReserves = 8
)

// PairState is what ReadPair loads from a pair's storage.
type PairState struct {
	Token0             common.Address
	Token1             common.Address
	Reserve0           *big.Int
	Reserve1           *big.Int
	BlockTimestampLast uint32
}

// Reserves orients the reserves so that reserveIn belongs to tokenIn.
func (s PairState) Reserves(tokenIn, tokenOut common.Address) (reserveIn, reserveOut *big.Int, ok bool) {
	switch {
	case tokenIn == s.Token0 && tokenOut == s.Token1:
		return s.Reserve0, s.Reserve1, true
	case tokenIn == s.Token1 && tokenOut == s.Token0:
		return s.Reserve1, s.Reserve0, true
	default:
		return nil, nil, false
	}
}

// ReadPair loads token0, token1 and the packed reserves of pair at block. A
// nil block reads the latest state.
func ReadPair(ctx context.Context, c StorageReader, pair common.Address, block *big.Int) (PairState, error) {
	b0, err := readSlot(ctx, c, pair, block, slotToken0)
	if err != nil {
		return PairState{}, err
	}
	b1, err := readSlot(ctx, c, pair, block, slotToken1)
	if err != nil {
		return PairState{}, err
	}
	br, err := readSlot(ctx, c, pair, block, slotReserves)
	if err != nil {
		return PairState{}, err
	}
	s := PairState{Token0: common.BytesToAddress(b0), Token1: common.BytesToAddress(b1)}
	s.Reserve0, s.Reserve1, s.BlockTimestampLast = parseReserves(br)
	return s, nil
}

func readSlot(ctx context.Context, c StorageReader, pair common.Address, block *big.Int, slot uint64) ([]byte, error) {
	key := common.BigToHash(new(big.Int).SetUint64(slot))
	b, err := c.StorageAt(ctx, pair, key, block)
	if err != nil {
		return nil, fmt.Errorf("storageAt slot %d (pair %s, block %v): %w", slot, pair.Hex(), block, err)
	}
	return b, nil
}

// parseReserves unpacks the reserve word, big-endian within 256 bits:
//
//	[ 32 bits timestamp | 112 bits reserve1 | 112 bits reserve0 ]
func parseReserves(b []byte) (reserve0, reserve1 *big.Int, blockTimestampLast uint32) {
	v := new(big.Int).SetBytes(b)
	mask112 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 112), big.NewInt(1))

	reserve0 = new(big.Int).And(v, mask112)
	v.Rsh(v, 112)
	reserve1 = new(big.Int).And(v, mask112)
	v.Rsh(v, 112)
	return reserve0, reserve1, uint32(v.Uint64())
}

// PairReader locates pairs by CREATE2 address and reads their reserves. It
// implements uniswapv2.ReserveSource.
type PairReader struct {
	client       StorageReader
	factory      common.Address
	initCodeHash common.Hash
	block        *big.Int
}

// NewPairReader reads pairs deployed by factory with the given init code
// hash at the latest block.
func NewPairReader(client StorageReader, factory common.Address, initCodeHash common.Hash) *PairReader {
	return &PairReader{client: client, factory: factory, initCodeHash: initCodeHash}
}

// At returns a reader pinned to block, so that every hop of a path is
// priced from the same state.
func (r *PairReader) At(block *big.Int) *PairReader {
	pinned := *r
	pinned.block = block
	return &pinned
}

// Latest pins the reader to the node's current block.
func (r *PairReader) Latest(ctx context.Context) (*PairReader, error) {
	bn, err := r.client.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("block number: %w", err)
	}
	return r.At(new(big.Int).SetUint64(bn)), nil
}

// Pair computes the pair address of tokenA and tokenB and reads its state.
func (r *PairReader) Pair(ctx context.Context, tokenA, tokenB common.Address) (common.Address, PairState, error) {
	addr, err := uniswapv2.PairFor(nil, r.factory, r.initCodeHash, tokenA, tokenB)
	if err != nil {
		return common.Address{}, PairState{}, err
	}
	s, err := ReadPair(ctx, r.client, addr, r.block)
	if err != nil {
		return common.Address{}, PairState{}, err
	}
	if s.Token0 == (common.Address{}) {
		return common.Address{}, PairState{}, fmt.Errorf("%w: %s/%s at %s", ErrPairNotDeployed, tokenA.Hex(), tokenB.Hex(), addr.Hex())
	}
	return addr, s, nil
}

func (r *PairReader) GetReserves(ctx context.Context, tokenA, tokenB common.Address) (*big.Int, *big.Int, error) {
	_, s, err := r.Pair(ctx, tokenA, tokenB)
	if err != nil {
		return nil, nil, err
	}
	reserveA, reserveB, ok := s.Reserves(tokenA, tokenB)
	if !ok {
		return nil, nil, fmt.Errorf("pair %s/%s holds %s/%s", tokenA.Hex(), tokenB.Hex(), s.Token0.Hex(), s.Token1.Hex())
	}
	return reserveA, reserveB, nil
}

var _ uniswapv2.ReserveSource = (*PairReader)(nil)
