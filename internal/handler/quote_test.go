package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Reswap-DEX/reswap-periphery/internal/eth"
	"github.com/Reswap-DEX/reswap-periphery/internal/eth/ethtest"
	"github.com/Reswap-DEX/reswap-periphery/internal/metrics"
	"github.com/Reswap-DEX/reswap-periphery/internal/service"
	"github.com/Reswap-DEX/reswap-periphery/pkg/uniswapv2"
)

var (
	factory      = common.HexToAddress("0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f")
	initCodeHash = common.HexToHash("0x96e8ac4277198ff8b6f785478aa9a39f403cb768dd02cbee326c3e7da348845f")
)

func newQuoteApp(t *testing.T) (*fiber.App, *metrics.API) {
	t.Helper()
	app, m, _ := newQuoteAppWithNode(t, 0)
	return app, m
}

func newQuoteAppWithNode(t *testing.T, timeout time.Duration) (*fiber.App, *metrics.API, *ethtest.Node) {
	t.Helper()
	node := ethtest.NewNode(9)
	addr, err := uniswapv2.PairFor(nil, factory, initCodeHash, token0, token1)
	if err != nil {
		t.Fatalf("PairFor: %v", err)
	}
	node.SetPair(addr, token0, token1, big.NewInt(10_000), big.NewInt(10_000), 0)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewQuoteService(logger, eth.NewPairReader(node.Client(t), factory, initCodeHash), uniswapv2.DefaultFee)
	h := NewQuoteHandler(logger, svc)
	if timeout > 0 {
		h.timeout = timeout
	}
	m, err := metrics.NewAPI(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}

	app := fiber.New()
	app.Use(Metrics(m))
	app.Get("/quote", h.HandleQuote())
	app.Get("/amounts/out", h.HandleAmountsOut())
	app.Get("/amounts/in", h.HandleAmountsIn())
	return app, m, node
}

func path(tokens ...common.Address) string {
	s := make([]string, len(tokens))
	for i, tok := range tokens {
		s[i] = tok.Hex()
	}
	return strings.Join(s, ",")
}

func TestQuoteHandler_Quote(t *testing.T) {
	app, _ := newQuoteApp(t)

	if code, body := get(t, app, "/quote?amount=1&reserve_a=100&reserve_b=200"); code != http.StatusOK || body != "2" {
		t.Fatalf("unexpected response %d %q", code, body)
	}
	if code, _ := get(t, app, "/quote?amount=1&reserve_a=0&reserve_b=200"); code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for a zero reserve, got %d", code)
	}
	if code, _ := get(t, app, "/quote?amount=1&reserve_a=100&reserve_b=0"); code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for a zero reserve, got %d", code)
	}
	if code, _ := get(t, app, "/quote?amount=1&reserve_a=-5&reserve_b=200"); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a negative reserve, got %d", code)
	}
	if code, _ := get(t, app, "/quote?amount=abc&reserve_a=1&reserve_b=1"); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a malformed amount, got %d", code)
	}
}

func TestQuoteHandler_Amounts(t *testing.T) {
	app, m := newQuoteApp(t)

	code, body := get(t, app, "/amounts/out?amount=2&path="+path(token0, token1))
	if code != http.StatusOK {
		t.Fatalf("unexpected status %d (%s)", code, body)
	}
	var resp AmountsResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if strings.Join(resp.Amounts, ",") != "2,1" || resp.Formatted != nil {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.Path[0] != token0.Hex() || resp.Path[1] != token1.Hex() {
		t.Fatalf("unexpected path %v", resp.Path)
	}

	code, body = get(t, app, "/amounts/in?amount=1&decimals=1&path="+path(token0, token1))
	if code != http.StatusOK {
		t.Fatalf("unexpected status %d (%s)", code, body)
	}
	resp = AmountsResponse{}
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if strings.Join(resp.Amounts, ",") != "2,1" || strings.Join(resp.Formatted, ",") != "0.2,0.1" {
		t.Fatalf("unexpected response %+v", resp)
	}

	if got := testutil.ToFloat64(m.Requests.WithLabelValues("/amounts/out", "200")); got != 1 {
		t.Fatalf("expected one counted request, got %v", got)
	}
}

func TestQuoteHandler_AmountsErrors(t *testing.T) {
	app, m := newQuoteApp(t)

	tests := []struct {
		name   string
		target string
		code   int
	}{
		{"missing path", "/amounts/out?amount=1", http.StatusBadRequest},
		{"bad address", "/amounts/out?amount=1&path=" + token0.Hex() + ",0xzz", http.StatusBadRequest},
		{"single token", "/amounts/out?amount=1&path=" + path(token0), http.StatusBadRequest},
		{"repeated hop", "/amounts/out?amount=1&path=" + path(token0, token0), http.StatusBadRequest},
		{"no pair", "/amounts/out?amount=1&path=" + path(token0, token2), http.StatusNotFound},
		{"drains reserve", "/amounts/in?amount=10000&path=" + path(token0, token1), http.StatusUnprocessableEntity},
		{"decimals count", "/amounts/out?amount=1&decimals=18,6,8&path=" + path(token0, token1), http.StatusBadRequest},
		{"decimals range", "/amounts/out?amount=1&decimals=78&path=" + path(token0, token1), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code, body := get(t, app, tt.target); code != tt.code {
				t.Fatalf("expected %d, got %d (%s)", tt.code, code, body)
			}
		})
	}

	if got := testutil.ToFloat64(m.Requests.WithLabelValues("/amounts/out", "404")); got != 1 {
		t.Fatalf("expected the missing pair to be counted, got %v", got)
	}
}

func TestQuoteHandler_NodeTimeout(t *testing.T) {
	app, _, node := newQuoteAppWithNode(t, 50*time.Millisecond)
	node.Stall(t)

	start := time.Now()
	code, body := get(t, app, "/amounts/out?amount=1&path="+path(token0, token1))
	if code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %d (%s)", code, body)
	}
	if elapsed := time.Since(start); elapsed > 900*time.Millisecond {
		t.Fatalf("request outlived its timeout: %s", elapsed)
	}
}
