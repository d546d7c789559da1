// Package ethtest serves pair storage over an in-process JSON-RPC server so
// code built on ethclient can be tested without a node.
package ethtest

import (
	"context"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
)

// Node holds the chain head and contract storage served to clients.
type Node struct {
	mu          sync.Mutex
	blockNumber uint64
	// storage[address][positionHash] = 32-byte value
	storage map[common.Address]map[common.Hash][]byte
	// blocks records the block argument of every storage read.
	blocks []string
	// stall, when non-nil, holds storage reads until it is closed or the
	// caller gives up.
	stall chan struct{}
}

func NewNode(blockNumber uint64) *Node {
	return &Node{blockNumber: blockNumber, storage: map[common.Address]map[common.Hash][]byte{}}
}

// api is registered in the eth namespace: eth_blockNumber and
// eth_getStorageAt.
type api struct {
	n *Node
}

func (a api) BlockNumber(ctx context.Context) (hexutil.Uint64, error) {
	n := a.n
	n.mu.Lock()
	defer n.mu.Unlock()
	return hexutil.Uint64(n.blockNumber), nil
}

func (a api) GetStorageAt(ctx context.Context, addr common.Address, position common.Hash, block gethrpc.BlockNumberOrHash) (hexutil.Bytes, error) {
	n := a.n
	n.mu.Lock()
	stall := n.stall
	n.mu.Unlock()
	if stall != nil {
		select {
		case <-stall:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.blocks = append(n.blocks, block.String())
	if v, ok := n.storage[addr][position]; ok {
		return hexutil.Bytes(v), nil
	}
	// default empty 32 bytes
	return hexutil.Bytes(make([]byte, 32)), nil
}

// SetPair writes the token and reserve slots of a V2 pair at addr.
func (n *Node) SetPair(addr, token0, token1 common.Address, reserve0, reserve1 *big.Int, blockTimestampLast uint32) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.storage[addr] = map[common.Hash][]byte{
		slot(6): rightAlignAddress(token0),
		slot(7): rightAlignAddress(token1),
		slot(8): PackReserves(reserve0, reserve1, blockTimestampLast),
	}
}

// SetBlockNumber moves the chain head.
func (n *Node) SetBlockNumber(bn uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.blockNumber = bn
}

// Stall makes storage reads hang until the test ends.
func (n *Node) Stall(t testing.TB) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.stall == nil {
		n.stall = make(chan struct{})
		t.Cleanup(func() { close(n.stall) })
	}
}

// Blocks returns the block argument of every storage read so far.
func (n *Node) Blocks() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.blocks...)
}

// Client dials the node in process.
func (n *Node) Client(t testing.TB) *ethclient.Client {
	t.Helper()
	srv := gethrpc.NewServer()
	// Register under the standard "eth" namespace so methods map to eth_*
	if err := srv.RegisterName("eth", api{n}); err != nil {
		t.Fatalf("register rpc service: %v", err)
	}
	c := ethclient.NewClient(gethrpc.DialInProc(srv))
	t.Cleanup(func() {
		c.Close()
		srv.Stop()
	})
	return c
}

func slot(i uint64) common.Hash {
	return common.BigToHash(new(big.Int).SetUint64(i))
}

// PackReserves builds the reserve storage word.
func PackReserves(reserve0, reserve1 *big.Int, ts uint32) []byte {
	v := new(big.Int).SetUint64(uint64(ts))
	v.Lsh(v, 112)
	v.Or(v, reserve1)
	v.Lsh(v, 112)
	v.Or(v, reserve0)
	return common.BigToHash(v).Bytes()
}

func rightAlignAddress(addr common.Address) []byte {
	// Address is right-aligned in 32 bytes when read from storage
	return common.BytesToHash(addr.Bytes()).Bytes()
}
