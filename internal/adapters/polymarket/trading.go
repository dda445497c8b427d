package polymarket

// trading.go: ejecución real de órdenes contra el CLOB.
//
// Implementa ports.OrderExecutor sobre AuthClient. Todas las órdenes son
// BUY límite GTC al precio máximo aceptable calculado por el sizer.

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/alejandrodnm/copybot/internal/domain"
)

const (
	usdcEAddress = "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174"

	// cursor que marca la última página en los listados del CLOB
	endCursor = "LTE="
)

// clobOrderRequest es el body de POST /order.
type clobOrderRequest struct {
	Order     clobOrderBody `json:"order"`
	Owner     string        `json:"owner"`
	OrderType string        `json:"orderType"`
}

type clobOrderBody struct {
	Salt          json.Number `json:"salt"`
	Maker         string      `json:"maker"`
	Signer        string      `json:"signer"`
	Taker         string      `json:"taker"`
	TokenID       string      `json:"tokenId"`
	MakerAmount   string      `json:"makerAmount"`
	TakerAmount   string      `json:"takerAmount"`
	Expiration    string      `json:"expiration"`
	Nonce         string      `json:"nonce"`
	FeeRateBps    string      `json:"feeRateBps"`
	Side          string      `json:"side"`
	SignatureType int         `json:"signatureType"`
	Signature     string      `json:"signature"`
}

type clobOrderResponse struct {
	ErrorMsg     string `json:"errorMsg"`
	OrderID      string `json:"orderID"`
	TakingAmount string `json:"takingAmount"`
	MakingAmount string `json:"makingAmount"`
	Status       string `json:"status"`
	Success      bool   `json:"success"`
}

type clobOpenOrder struct {
	ID           string `json:"id"`
	AssetID      string `json:"asset_id"`
	Market       string `json:"market"`
	Side         string `json:"side"`
	OriginalSize string `json:"original_size"`
	SizeMatched  string `json:"size_matched"`
	Price        string `json:"price"`
	Status       string `json:"status"`
	Outcome      string `json:"outcome"`
}

type clobOrdersResponse struct {
	Data       []clobOpenOrder `json:"data"`
	NextCursor string          `json:"next_cursor"`
}

var balanceOfABI abi.ABI

func init() {
	var err error
	balanceOfABI, err = abi.JSON(strings.NewReader(`[{
		"name":"balanceOf","type":"function",
		"inputs":[{"name":"account","type":"address"}],
		"outputs":[{"name":"","type":"uint256"}]
	}]`))
	if err != nil {
		panic("balanceOf abi: " + err.Error())
	}
}

// contractCaller is the subset of ethclient used for balance reads.
type contractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// TradingClient implements ports.OrderExecutor against the live CLOB.
type TradingClient struct {
	auth *AuthClient
	rpc  contractCaller
}

// NewTradingClient creates a TradingClient. rpcURL is the Polygon RPC used
// for the on-chain USDC.e balance.
func NewTradingClient(auth *AuthClient, rpcURL string) (*TradingClient, error) {
	rpc, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("trading: dial rpc: %w", err)
	}
	return &TradingClient{auth: auth, rpc: rpc}, nil
}

// SubmitOrder signs and posts a GTC BUY limit order: Stake USDC at MaxPrice.
func (tc *TradingClient) SubmitOrder(ctx context.Context, o domain.Order) (domain.PlacedOrder, error) {
	signed, err := tc.auth.buildSignedOrder(o.TokenID, o.MaxPrice, o.Stake.InexactFloat64(), o.NegRisk)
	if err != nil {
		return domain.PlacedOrder{}, fmt.Errorf("trading.SubmitOrder: sign: %w", err)
	}
	if err := tc.auth.EnsureCreds(ctx); err != nil {
		return domain.PlacedOrder{}, fmt.Errorf("trading.SubmitOrder: %w", err)
	}

	body := clobOrderRequest{
		Order: clobOrderBody{
			Salt:          json.Number(signed.Order.Salt.String()),
			Maker:         signed.Order.Maker.Hex(),
			Signer:        signed.Order.Signer.Hex(),
			Taker:         signed.Order.Taker.Hex(),
			TokenID:       o.TokenID,
			MakerAmount:   signed.Order.MakerAmount.String(),
			TakerAmount:   signed.Order.TakerAmount.String(),
			Expiration:    signed.Order.Expiration.String(),
			Nonce:         signed.Order.Nonce.String(),
			FeeRateBps:    signed.Order.FeeRateBps.String(),
			Side:          "BUY",
			SignatureType: int(signed.Order.SignatureType.Int64()),
			Signature:     "0x" + hex.EncodeToString(signed.Signature),
		},
		Owner:     tc.auth.credentials().APIKey,
		OrderType: "GTC",
	}

	var resp clobOrderResponse
	if err := tc.auth.doL2(ctx, http.MethodPost, "/order", body, &resp); err != nil {
		return domain.PlacedOrder{}, fmt.Errorf("trading.SubmitOrder: %w", err)
	}
	if !resp.Success || resp.ErrorMsg != "" {
		return domain.PlacedOrder{}, fmt.Errorf("trading.SubmitOrder: clob error: %s", resp.ErrorMsg)
	}
	if resp.OrderID == "" {
		return domain.PlacedOrder{}, fmt.Errorf("trading.SubmitOrder: empty order id")
	}

	return domain.PlacedOrder{
		VenueOrderID: resp.OrderID,
		Status:       resp.Status,
	}, nil
}

// CancelOrder cancels a single order by its CLOB order ID.
func (tc *TradingClient) CancelOrder(ctx context.Context, venueOrderID string) error {
	body := map[string]string{"orderID": venueOrderID}
	if err := tc.auth.doL2(ctx, http.MethodDelete, "/order", body, nil); err != nil {
		return fmt.Errorf("trading.CancelOrder %s: %w", venueOrderID, err)
	}
	return nil
}

// GetOpenOrders pages through /data/orders until the end cursor.
func (tc *TradingClient) GetOpenOrders(ctx context.Context) ([]domain.VenueOrder, error) {
	var out []domain.VenueOrder
	cursor := ""
	for {
		path := "/data/orders"
		if cursor != "" {
			path += "?next_cursor=" + url.QueryEscape(cursor)
		}
		var resp clobOrdersResponse
		if err := tc.auth.doL2(ctx, http.MethodGet, path, nil, &resp); err != nil {
			return nil, fmt.Errorf("trading.GetOpenOrders: %w", err)
		}
		for _, o := range resp.Data {
			out = append(out, mapVenueOrder(o))
		}
		if resp.NextCursor == "" || resp.NextCursor == endCursor || resp.NextCursor == cursor {
			break
		}
		cursor = resp.NextCursor
	}
	return out, nil
}

// GetOrder returns one order whatever its state.
func (tc *TradingClient) GetOrder(ctx context.Context, venueOrderID string) (domain.VenueOrder, error) {
	var o clobOpenOrder
	if err := tc.auth.doL2(ctx, http.MethodGet, "/data/order/"+venueOrderID, nil, &o); err != nil {
		return domain.VenueOrder{}, fmt.Errorf("trading.GetOrder %s: %w", venueOrderID, err)
	}
	if o.ID == "" {
		return domain.VenueOrder{}, fmt.Errorf("trading.GetOrder %s: %w", venueOrderID, domain.ErrNotFound)
	}
	return mapVenueOrder(o), nil
}

// GetBalance returns the on-chain USDC.e balance of the wallet.
func (tc *TradingClient) GetBalance(ctx context.Context) (float64, error) {
	callData, err := balanceOfABI.Pack("balanceOf", tc.auth.address)
	if err != nil {
		return 0, fmt.Errorf("trading.GetBalance: pack: %w", err)
	}

	token := common.HexToAddress(usdcEAddress)
	result, err := tc.rpc.CallContract(ctx, ethereum.CallMsg{To: &token, Data: callData}, nil)
	if err != nil {
		return 0, fmt.Errorf("trading.GetBalance: rpc call: %w", err)
	}

	vals, err := balanceOfABI.Unpack("balanceOf", result)
	if err != nil || len(vals) == 0 {
		return 0, fmt.Errorf("trading.GetBalance: unpack: %w", err)
	}
	raw, ok := vals[0].(*big.Int)
	if !ok {
		return 0, fmt.Errorf("trading.GetBalance: unexpected type %T", vals[0])
	}
	return microToUSDC(raw), nil
}

// mapVenueOrder convierte una orden del CLOB al estado del dominio.
// LIVE → OPEN, MATCHED → FILLED, CANCELED/INVALID/UNMATCHED → CANCELLED.
func mapVenueOrder(o clobOpenOrder) domain.VenueOrder {
	status := domain.StatusOpen
	upper := strings.ToUpper(o.Status)
	switch {
	case strings.Contains(upper, "UNMATCHED"),
		strings.Contains(upper, "CANCEL"),
		strings.Contains(upper, "INVALID"):
		status = domain.StatusCancelled
	case strings.Contains(upper, "MATCHED"):
		status = domain.StatusFilled
	}

	matched, _ := strconv.ParseFloat(o.SizeMatched, 64)
	return domain.VenueOrder{
		VenueOrderID: o.ID,
		TokenID:      o.AssetID,
		ConditionID:  o.Market,
		Status:       status,
		SizeMatched:  matched,
	}
}

// microToUSDC convierte micro-unidades (6 decimales) a USDC.
func microToUSDC(n *big.Int) float64 {
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(n), big.NewFloat(1e6)).Float64()
	return f
}
