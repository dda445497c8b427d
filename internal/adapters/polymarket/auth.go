package polymarket

// auth.go: autenticación del CLOB en dos niveles.
//
//   L1: firma EIP-712 con la clave privada → deriva las credenciales API
//   L2: HMAC-SHA256 sobre cada request autenticada

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/polymarket/go-order-utils/pkg/builder"
	gomodel "github.com/polymarket/go-order-utils/pkg/model"
)

const (
	polygonChainID = int64(137)

	// Dominio EIP-712 de la autenticación del CLOB
	clobDomainName    = "ClobAuthDomain"
	clobDomainVersion = "1"
	clobAuthMessage   = "This message attests that I control the given wallet"

	// Taker cero = orden pública
	zeroAddress = "0x0000000000000000000000000000000000000000"
)

// Credentials son las credenciales L2 del CLOB. Si no se configuran se
// derivan de la clave privada en la primera llamada autenticada.
type Credentials struct {
	APIKey     string `json:"apiKey"`
	Secret     string `json:"secret"`
	Passphrase string `json:"passphrase"`
}

// Complete indica si las tres partes están presentes.
func (c Credentials) Complete() bool {
	return c.APIKey != "" && c.Secret != "" && c.Passphrase != ""
}

// AuthClient añade autenticación L1/L2 al Client base.
type AuthClient struct {
	*Client
	privateKey   *ecdsa.PrivateKey
	address      common.Address
	orderBuilder builder.ExchangeOrderBuilder

	mu    sync.Mutex
	creds *Credentials
}

// NewAuthClient crea un cliente autenticado sobre base.
// privateKeyHex acepta el prefijo 0x. creds puede venir vacío.
func NewAuthClient(base *Client, privateKeyHex string, creds Credentials) (*AuthClient, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x"))
	if err != nil {
		return nil, fmt.Errorf("auth: invalid private key: %w", err)
	}

	ac := &AuthClient{
		Client:       base,
		privateKey:   key,
		address:      crypto.PubkeyToAddress(key.PublicKey),
		orderBuilder: builder.NewExchangeOrderBuilderImpl(big.NewInt(polygonChainID), nil),
	}
	if creds.Complete() {
		ac.creds = &creds
	}
	return ac, nil
}

// Address devuelve la dirección del wallet.
func (ac *AuthClient) Address() string {
	return ac.address.Hex()
}

// EnsureCreds deriva las credenciales API vía L1 si aún no existen.
func (ac *AuthClient) EnsureCreds(ctx context.Context) error {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	if ac.creds != nil {
		return nil
	}

	ts := strconv.FormatInt(time.Now().Unix(), 10)
	sig, err := ac.signClobAuth(ts, "0")
	if err != nil {
		return fmt.Errorf("auth: sign l1: %w", err)
	}

	var creds Credentials
	err = ac.doWithRetry(ctx, ac.clobLimiter, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, ac.clobBase+"/auth/derive-api-key", nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("POLY_ADDRESS", ac.address.Hex())
		req.Header.Set("POLY_SIGNATURE", sig)
		req.Header.Set("POLY_TIMESTAMP", ts)
		req.Header.Set("POLY_NONCE", "0")
		return ac.http.Do(req)
	}, &creds)
	if err != nil {
		return fmt.Errorf("auth: derive-api-key: %w", err)
	}
	if !creds.Complete() {
		return fmt.Errorf("auth: derive-api-key returned incomplete credentials")
	}
	ac.creds = &creds
	return nil
}

func (ac *AuthClient) credentials() *Credentials {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	return ac.creds
}

// Hashes de tipo EIP-712 (calculados una vez).
var (
	eip712DomainTypeHash = crypto.Keccak256Hash([]byte(
		"EIP712Domain(string name,string version,uint256 chainId)",
	))
	clobAuthTypeHash = crypto.Keccak256Hash([]byte(
		"ClobAuth(address address,string timestamp,uint256 nonce,string message)",
	))
)

func clobAuthDomainSeparator() common.Hash {
	var buf []byte
	buf = append(buf, eip712DomainTypeHash.Bytes()...)
	buf = append(buf, crypto.Keccak256Hash([]byte(clobDomainName)).Bytes()...)
	buf = append(buf, crypto.Keccak256Hash([]byte(clobDomainVersion)).Bytes()...)
	buf = append(buf, common.LeftPadBytes(big.NewInt(polygonChainID).Bytes(), 32)...)
	return crypto.Keccak256Hash(buf)
}

// signClobAuth firma el mensaje ClobAuth EIP-712 de L1.
func (ac *AuthClient) signClobAuth(timestamp, nonce string) (string, error) {
	nonceInt, ok := new(big.Int).SetString(nonce, 10)
	if !ok {
		return "", fmt.Errorf("invalid nonce: %s", nonce)
	}

	var structBuf []byte
	structBuf = append(structBuf, clobAuthTypeHash.Bytes()...)
	structBuf = append(structBuf, common.LeftPadBytes(ac.address.Bytes(), 32)...)
	structBuf = append(structBuf, crypto.Keccak256Hash([]byte(timestamp)).Bytes()...)
	structBuf = append(structBuf, common.LeftPadBytes(nonceInt.Bytes(), 32)...)
	structBuf = append(structBuf, crypto.Keccak256Hash([]byte(clobAuthMessage)).Bytes()...)

	digest := crypto.Keccak256Hash(
		[]byte{0x19, 0x01},
		clobAuthDomainSeparator().Bytes(),
		crypto.Keccak256Hash(structBuf).Bytes(),
	)

	sig, err := crypto.Sign(digest.Bytes(), ac.privateKey)
	if err != nil {
		return "", err
	}
	sig[64] += 27
	return fmt.Sprintf("0x%x", sig), nil
}

// signL2 firma method+path+body con el secreto HMAC y añade las cabeceras L2.
func (ac *AuthClient) signL2(req *http.Request, path, body string) error {
	creds := ac.credentials()
	if creds == nil {
		return fmt.Errorf("auth: credentials not derived yet")
	}

	secret, err := base64.URLEncoding.DecodeString(creds.Secret)
	if err != nil {
		return fmt.Errorf("auth: decode secret: %w", err)
	}

	ts := strconv.FormatInt(time.Now().Unix(), 10)
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(ts + strings.ToUpper(req.Method) + path + body))

	req.Header.Set("POLY_ADDRESS", ac.address.Hex())
	req.Header.Set("POLY_SIGNATURE", base64.URLEncoding.EncodeToString(mac.Sum(nil)))
	req.Header.Set("POLY_TIMESTAMP", ts)
	req.Header.Set("POLY_API_KEY", creds.APIKey)
	req.Header.Set("POLY_PASSPHRASE", creds.Passphrase)
	return nil
}

// doL2 ejecuta una request autenticada L2. Las cabeceras HMAC se regeneran
// en cada intento para que el timestamp no caduque entre retries.
func (ac *AuthClient) doL2(ctx context.Context, method, path string, reqBody, out any) error {
	if err := ac.EnsureCreds(ctx); err != nil {
		return err
	}

	var body []byte
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshal: %w", err)
		}
		body = b
	}

	return ac.doWithRetry(ctx, ac.clobLimiter, func() (*http.Response, error) {
		var r io.Reader
		if body != nil {
			r = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, ac.clobBase+path, r)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		// el path firmado no incluye la query string
		signed, _, _ := strings.Cut(path, "?")
		if err := ac.signL2(req, signed, string(body)); err != nil {
			return nil, err
		}
		return ac.http.Do(req)
	}, out)
}

// buildSignedOrder crea una orden BUY firmada EIP-712.
// price es el límite por share; notional es el USDC a gastar.
// Usa aritmética entera: el CLOB exige makerAmount == price × takerAmount exacto.
func (ac *AuthClient) buildSignedOrder(tokenID string, price, notional float64, negRisk bool) (*gomodel.SignedOrder, error) {
	if price <= 0 || price >= 1 {
		return nil, fmt.Errorf("invalid price %.4f", price)
	}
	pricePrecision := detectPricePrecision(price)
	priceInt := int64(math.Round(price * float64(pricePrecision)))
	sharesCents := int64(math.Floor(notional / price * 100))

	amountFactor := int64(1_000_000) / (100 * pricePrecision)
	makerAmount := sharesCents * priceInt * amountFactor
	takerAmount := sharesCents * 10000

	if makerAmount <= 0 || takerAmount <= 0 {
		return nil, fmt.Errorf("invalid amounts: maker=%d taker=%d (price=%.4f notional=%.4f)", makerAmount, takerAmount, price, notional)
	}

	verifyingContract := gomodel.CTFExchange
	if negRisk {
		verifyingContract = gomodel.NegRiskCTFExchange
	}

	orderData := &gomodel.OrderData{
		Maker:         ac.address.Hex(),
		Taker:         zeroAddress,
		TokenId:       tokenID,
		MakerAmount:   strconv.FormatInt(makerAmount, 10),
		TakerAmount:   strconv.FormatInt(takerAmount, 10),
		FeeRateBps:    "0",
		Nonce:         "0",
		Signer:        ac.address.Hex(),
		Expiration:    "0",
		Side:          gomodel.BUY,
		SignatureType: gomodel.EOA,
	}

	signed, err := ac.orderBuilder.BuildSignedOrder(ac.privateKey, orderData, verifyingContract)
	if err != nil {
		return nil, fmt.Errorf("build signed order: %w", err)
	}
	return signed, nil
}

// detectPricePrecision devuelve el multiplicador del tick del precio.
// 0.60 → 100 (tick 0.01), 0.673 → 1000 (tick 0.001).
func detectPricePrecision(price float64) int64 {
	for _, prec := range []int64{100, 1000, 10000} {
		rounded := math.Round(price * float64(prec))
		if math.Abs(rounded/float64(prec)-price) < 1e-10 {
			return prec
		}
	}
	return 100
}
