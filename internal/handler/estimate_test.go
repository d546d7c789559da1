package handler

import (
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v3"

	"github.com/Reswap-DEX/reswap-periphery/internal/eth/ethtest"
	"github.com/Reswap-DEX/reswap-periphery/internal/service"
	"github.com/Reswap-DEX/reswap-periphery/pkg/uniswapv2"
)

var (
	token0 = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	token1 = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	token2 = common.HexToAddress("0x00000000000000000000000000000000000000cc")
	pool   = common.HexToAddress("0x0000000000000000000000000000000000000abc")
)

func newEstimateApp(t *testing.T) *fiber.App {
	t.Helper()
	app, _ := newEstimateAppWithNode(t, 0)
	return app
}

func newEstimateAppWithNode(t *testing.T, timeout time.Duration) (*fiber.App, *ethtest.Node) {
	t.Helper()
	node := ethtest.NewNode(42)
	node.SetPair(pool, token0, token1, big.NewInt(1_000_000), big.NewInt(2_000_000), 0)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewEstimateService(logger, node.Client(t), uniswapv2.DefaultFee)
	h := NewEstimateHandler(logger, svc)
	if timeout > 0 {
		h.timeout = timeout
	}

	app := fiber.New()
	app.Get("/estimate", h.Handle())
	return app, node
}

func get(t *testing.T, app *fiber.App, target string) (int, string) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(body)
}

func TestEstimateHandler_OK(t *testing.T) {
	app := newEstimateApp(t)

	code, body := get(t, app, "/estimate?pool="+pool.Hex()+"&src="+token0.Hex()+"&dst="+token1.Hex()+"&src_amount=1000")
	if code != http.StatusOK {
		t.Fatalf("unexpected status: %d (%s)", code, body)
	}
	want, _ := uniswapv2.GetAmountOut(big.NewInt(1000), big.NewInt(1_000_000), big.NewInt(2_000_000))
	if body != want.String() {
		t.Fatalf("unexpected body %q, want %s", body, want)
	}
}

func TestEstimateHandler_Validation(t *testing.T) {
	app := newEstimateApp(t)
	base := "/estimate?pool=" + pool.Hex()

	tests := []struct {
		name   string
		target string
		code   int
	}{
		{"missing params", "/estimate", http.StatusBadRequest},
		{"bad src", base + "&src=0x12&dst=" + token1.Hex() + "&src_amount=1", http.StatusBadRequest},
		{"same token", base + "&src=" + token0.Hex() + "&dst=" + token0.Hex() + "&src_amount=1", http.StatusBadRequest},
		{"zero amount", base + "&src=" + token0.Hex() + "&dst=" + token1.Hex() + "&src_amount=0", http.StatusBadRequest},
		{"foreign token", base + "&src=" + token0.Hex() + "&dst=" + token2.Hex() + "&src_amount=1", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code, body := get(t, app, tt.target); code != tt.code {
				t.Fatalf("expected %d, got %d (%s)", tt.code, code, body)
			}
		})
	}
}

func TestEstimateHandler_NodeTimeout(t *testing.T) {
	app, node := newEstimateAppWithNode(t, 50*time.Millisecond)
	node.Stall(t)

	target := "/estimate?pool=" + pool.Hex() + "&src=" + token0.Hex() + "&dst=" + token1.Hex() + "&src_amount=1000"
	if code, body := get(t, app, target); code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %d (%s)", code, body)
	}
}
