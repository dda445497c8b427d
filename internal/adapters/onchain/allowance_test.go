package onchain_test

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/copybot/internal/adapters/onchain"
)

const testKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

// mockChain responde allowance con un valor fijo y registra las txs enviadas.
type mockChain struct {
	allowance *big.Int
	callErr   error
	sent      []*types.Transaction
	status    uint64
}

func (m *mockChain) CallContract(_ context.Context, _ ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if m.callErr != nil {
		return nil, m.callErr
	}
	return common.LeftPadBytes(m.allowance.Bytes(), 32), nil
}

func (m *mockChain) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return uint64(len(m.sent)), nil
}

func (m *mockChain) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(30_000_000_000), nil
}

func (m *mockChain) SendTransaction(_ context.Context, tx *types.Transaction) error {
	m.sent = append(m.sent, tx)
	return nil
}

func (m *mockChain) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	return &types.Receipt{Status: m.status}, nil
}

func newClient(t *testing.T, chain *mockChain) *onchain.AllowanceClient {
	t.Helper()
	ac, err := onchain.NewAllowanceClient(chain, "0x"+testKey)
	require.NoError(t, err)
	ac.SetPollInterval(time.Millisecond)
	return ac
}

func TestEnsureAllowance_Sufficient(t *testing.T) {
	chain := &mockChain{allowance: big.NewInt(1_000_000_000)} // 1000 USDC
	sent, err := newClient(t, chain).EnsureAllowance(context.Background(), 50)
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	assert.Empty(t, chain.sent)
}

func TestEnsureAllowance_ApprovesBothExchanges(t *testing.T) {
	chain := &mockChain{allowance: big.NewInt(0), status: types.ReceiptStatusSuccessful}
	sent, err := newClient(t, chain).EnsureAllowance(context.Background(), 50)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	require.Len(t, chain.sent, 2)

	usdc := common.HexToAddress("0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174")
	assert.Equal(t, usdc, *chain.sent[0].To())
	// gas sugerido + 10%
	assert.Equal(t, big.NewInt(33_000_000_000), chain.sent[0].GasPrice())
	assert.Equal(t, uint64(1), chain.sent[1].Nonce())
}

func TestEnsureAllowance_Reverted(t *testing.T) {
	chain := &mockChain{allowance: big.NewInt(0), status: types.ReceiptStatusFailed}
	sent, err := newClient(t, chain).EnsureAllowance(context.Background(), 50)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reverted")
	assert.Equal(t, 0, sent)
}

func TestEnsureAllowance_RPCError(t *testing.T) {
	chain := &mockChain{callErr: errors.New("rpc down")}
	_, err := newClient(t, chain).EnsureAllowance(context.Background(), 50)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rpc down")
}

func TestNewAllowanceClient_InvalidKey(t *testing.T) {
	_, err := onchain.NewAllowanceClient(&mockChain{}, "zz")
	require.Error(t, err)
}
