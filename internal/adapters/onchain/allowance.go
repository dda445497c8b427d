package onchain

// allowance.go: comprobación y concesión del allowance de USDC.e.
//
// Las órdenes BUY del CLOB se liquidan contra los contratos de exchange,
// que deben poder mover el USDC.e del wallet. Antes de la primera orden
// live se comprueba el allowance y, si no alcanza, se envía un approve.

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

const (
	polygonChainID = int64(137)

	usdcEAddress = "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174"

	// exchanges que reciben el collateral de las órdenes BUY
	normalExchange  = "0x4bFb41d5B3570DeFd03C39a9A4D8dE6Bd8B8982E"
	negRiskExchange = "0xC5d563A36AE78145C45a50134d48A1215220f80a"

	approvalGasLimit = uint64(80_000)
	receiptTimeout   = 60 * time.Second
)

var erc20ABI abi.ABI

func init() {
	var err error
	erc20ABI, err = abi.JSON(strings.NewReader(`[
		{
			"name": "approve",
			"type": "function",
			"inputs": [
				{"name": "spender", "type": "address"},
				{"name": "amount", "type": "uint256"}
			],
			"outputs": [{"name": "", "type": "bool"}]
		},
		{
			"name": "allowance",
			"type": "function",
			"inputs": [
				{"name": "owner", "type": "address"},
				{"name": "spender", "type": "address"}
			],
			"outputs": [{"name": "", "type": "uint256"}]
		}
	]`))
	if err != nil {
		panic("erc20 abi parse: " + err.Error())
	}
}

// Chain es el subconjunto de ethclient que usa el cliente.
type Chain interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// AllowanceClient gestiona el allowance de USDC.e del wallet.
type AllowanceClient struct {
	chain      Chain
	privateKey *ecdsa.PrivateKey
	address    common.Address
	pollEvery  time.Duration
}

// Dial conecta al RPC de Polygon. privateKeyHex acepta el prefijo 0x.
func Dial(rpcURL, privateKeyHex string) (*AllowanceClient, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("onchain.Dial: rpc %s: %w", rpcURL, err)
	}
	return NewAllowanceClient(client, privateKeyHex)
}

// NewAllowanceClient crea el cliente sobre una Chain ya conectada.
func NewAllowanceClient(chain Chain, privateKeyHex string) (*AllowanceClient, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x"))
	if err != nil {
		return nil, fmt.Errorf("onchain: invalid private key: %w", err)
	}
	return &AllowanceClient{
		chain:      chain,
		privateKey: key,
		address:    crypto.PubkeyToAddress(key.PublicKey),
		pollEvery:  3 * time.Second,
	}, nil
}

// SetPollInterval cambia la frecuencia de consulta del receipt.
func (ac *AllowanceClient) SetPollInterval(d time.Duration) {
	ac.pollEvery = d
}

// EnsureAllowance comprueba que ambos exchanges pueden gastar al menos
// minUSDC del wallet. Si no, aprueba el máximo uint256.
// Devuelve el número de transacciones enviadas.
func (ac *AllowanceClient) EnsureAllowance(ctx context.Context, minUSDC float64) (int, error) {
	token := common.HexToAddress(usdcEAddress)
	minAllowance := usdcToMicro(minUSDC)
	maxUint256 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

	sent := 0
	for _, ex := range []string{normalExchange, negRiskExchange} {
		spender := common.HexToAddress(ex)
		allowance, err := ac.allowance(ctx, token, spender)
		if err != nil {
			return sent, fmt.Errorf("onchain.EnsureAllowance: check %s: %w", ex, err)
		}
		if allowance.Cmp(minAllowance) >= 0 {
			slog.Debug("onchain: USDC.e allowance sufficient", "exchange", ex)
			continue
		}

		slog.Info("onchain: approving USDC.e", "exchange", ex)
		if err := ac.approve(ctx, token, spender, maxUint256); err != nil {
			return sent, fmt.Errorf("onchain.EnsureAllowance: approve %s: %w", ex, err)
		}
		sent++
		slog.Info("onchain: USDC.e approval confirmed", "exchange", ex)
	}
	return sent, nil
}

func (ac *AllowanceClient) allowance(ctx context.Context, token, spender common.Address) (*big.Int, error) {
	callData, err := erc20ABI.Pack("allowance", ac.address, spender)
	if err != nil {
		return nil, err
	}
	result, err := ac.chain.CallContract(ctx, ethereum.CallMsg{To: &token, Data: callData}, nil)
	if err != nil {
		return nil, err
	}
	vals, err := erc20ABI.Unpack("allowance", result)
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return nil, fmt.Errorf("empty allowance result")
	}
	v, ok := vals[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected allowance type %T", vals[0])
	}
	return v, nil
}

func (ac *AllowanceClient) approve(ctx context.Context, token, spender common.Address, amount *big.Int) error {
	callData, err := erc20ABI.Pack("approve", spender, amount)
	if err != nil {
		return err
	}
	nonce, err := ac.chain.PendingNonceAt(ctx, ac.address)
	if err != nil {
		return fmt.Errorf("nonce: %w", err)
	}
	gasPrice, err := ac.gasPrice(ctx)
	if err != nil {
		return fmt.Errorf("gas price: %w", err)
	}

	tx := types.NewTransaction(nonce, token, big.NewInt(0), approvalGasLimit, gasPrice, callData)
	signed, err := types.SignTx(tx, types.NewEIP155Signer(big.NewInt(polygonChainID)), ac.privateKey)
	if err != nil {
		return err
	}
	if err := ac.chain.SendTransaction(ctx, signed); err != nil {
		return err
	}

	receiptCtx, cancel := context.WithTimeout(ctx, receiptTimeout)
	defer cancel()
	receipt, err := ac.waitForReceipt(receiptCtx, signed.Hash())
	if err != nil {
		return fmt.Errorf("wait receipt: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("approve tx %s reverted", signed.Hash().Hex())
	}
	return nil
}

// gasPrice añade un 10% al precio sugerido para entrar antes en bloque.
func (ac *AllowanceClient) gasPrice(ctx context.Context) (*big.Int, error) {
	price, err := ac.chain.SuggestGasPrice(ctx)
	if err != nil {
		return nil, err
	}
	buffered := new(big.Int).Mul(price, big.NewInt(11))
	return buffered.Div(buffered, big.NewInt(10)), nil
}

// waitForReceipt consulta el receipt hasta que se mina o vence ctx.
func (ac *AllowanceClient) waitForReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(ac.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			receipt, err := ac.chain.TransactionReceipt(ctx, txHash)
			if err != nil {
				continue // aún no minada
			}
			return receipt, nil
		}
	}
}

// usdcToMicro convierte USDC a micro-unidades (6 decimales).
func usdcToMicro(v float64) *big.Int {
	if v <= 0 {
		return big.NewInt(0)
	}
	f := new(big.Float).Mul(big.NewFloat(v), big.NewFloat(1e6))
	n, _ := f.Int(nil)
	return n
}
