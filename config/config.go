package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del bot.
type Config struct {
	Trading  TradingConfig  `yaml:"trading"`
	API      APIConfig      `yaml:"api"`
	AI       AIConfig       `yaml:"ai"`
	Wallet   WalletConfig   `yaml:"wallet"`
	Playbook PlaybookConfig `yaml:"playbook"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
}

// TradingConfig controla la sesión de trading y el análisis de traders.
type TradingConfig struct {
	MaxIterations         int     `yaml:"max_iterations"`
	IterationDelaySeconds int     `yaml:"iteration_delay_seconds"`
	MaxBetPct             float64 `yaml:"max_bet_pct"`         // fracción del saldo disponible por apuesta
	MaxMarketExposure     float64 `yaml:"max_market_exposure"` // fracción máxima del portfolio en un mercado
	MinStake              float64 `yaml:"min_stake"`           // USDC; por debajo se omite la apuesta
	MinConfidence         float64 `yaml:"min_confidence"`
	MinTraders            int     `yaml:"min_traders"` // traders que deben coincidir para un consenso
	TopK                  int     `yaml:"top_k"`
	SampleSize            int     `yaml:"sample_size"` // traders del leaderboard puntuados al arrancar
	MinSamples            int     `yaml:"min_samples"`
	TradeLimit            int     `yaml:"trade_limit"`
	SlippageBps           int     `yaml:"slippage_bps"`
	DryRunBalance         float64 `yaml:"dry_run_balance"`
	OrderTTLMinutes       int     `yaml:"order_ttl_minutes"` // 0 = las órdenes no expiran
	Workers               int     `yaml:"workers"`
	NewsLimit             int     `yaml:"news_limit"`
	MaxRejections         int     `yaml:"max_rejections"` // rechazos seguidos del venue que cortan la sesión; -1 = sin límite
}

// APIConfig contiene los base URLs de las APIs.
type APIConfig struct {
	CLOBBase  string `yaml:"clob_base"`
	GammaBase string `yaml:"gamma_base"`
	DataBase  string `yaml:"data_base"`
	NewsBase  string `yaml:"news_base"`
}

// AIConfig selecciona el proveedor de IA.
type AIConfig struct {
	Provider       string `yaml:"provider"` // openai | anthropic | offline
	Model          string `yaml:"model"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	OpenAIKey      string `yaml:"-"` // solo por entorno
	AnthropicKey   string `yaml:"-"`
}

// WalletConfig contiene las credenciales del modo live. Solo por entorno.
type WalletConfig struct {
	PrivateKey    string `yaml:"-"`
	APIKey        string `yaml:"-"`
	APISecret     string `yaml:"-"`
	APIPassphrase string `yaml:"-"`
	RPCURL        string `yaml:"rpc_url"`
}

// PlaybookConfig apunta al knowledge base de estrategias.
type PlaybookConfig struct {
	Path string `yaml:"path"`
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// OrderTTL devuelve la caducidad de las órdenes abiertas.
func (c *Config) OrderTTL() time.Duration {
	return time.Duration(c.Trading.OrderTTLMinutes) * time.Minute
}

// IterationDelay devuelve la pausa entre iteraciones.
func (c *Config) IterationDelay() time.Duration {
	return time.Duration(c.Trading.IterationDelaySeconds) * time.Second
}

// AITimeout devuelve el timeout HTTP del proveedor de IA.
func (c *Config) AITimeout() time.Duration {
	return time.Duration(c.AI.TimeoutSeconds) * time.Second
}

// AIKey devuelve la API key del proveedor seleccionado.
func (c *Config) AIKey() string {
	switch strings.ToLower(c.AI.Provider) {
	case "openai":
		return c.AI.OpenAIKey
	case "anthropic", "claude":
		return c.AI.AnthropicKey
	}
	return ""
}

// Validate comprueba rangos y credenciales. live exige la clave del wallet.
func (c *Config) Validate(live bool) error {
	var errs []error
	t := c.Trading
	if t.MaxBetPct < 0 || t.MaxBetPct > 1 {
		errs = append(errs, fmt.Errorf("trading.max_bet_pct must be in [0,1], got %.3f", t.MaxBetPct))
	}
	if t.MaxMarketExposure <= 0 || t.MaxMarketExposure > 1 {
		errs = append(errs, fmt.Errorf("trading.max_market_exposure must be in (0,1], got %.3f", t.MaxMarketExposure))
	}
	if t.MinConfidence < 0 || t.MinConfidence > 1 {
		errs = append(errs, fmt.Errorf("trading.min_confidence must be in [0,1], got %.3f", t.MinConfidence))
	}
	if t.SlippageBps < 0 || t.SlippageBps > 5000 {
		errs = append(errs, fmt.Errorf("trading.slippage_bps must be in [0,5000], got %d", t.SlippageBps))
	}
	if t.MinTraders < 2 {
		errs = append(errs, fmt.Errorf("trading.min_traders must be >= 2, got %d", t.MinTraders))
	}

	switch strings.ToLower(c.AI.Provider) {
	case "offline":
	case "openai", "anthropic", "claude":
		if c.AIKey() == "" {
			errs = append(errs, fmt.Errorf("ai.provider %q requires its API key in the environment", c.AI.Provider))
		}
	default:
		errs = append(errs, fmt.Errorf("ai.provider %q is not supported (openai, anthropic, offline)", c.AI.Provider))
	}

	if live && c.Wallet.PrivateKey == "" {
		errs = append(errs, errors.New("POLYMARKET_PRIVATE_KEY is required for live trading"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config.Validate: %w", err)
	}
	return nil
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	overrides := []struct {
		env string
		dst *string
	}{
		{"AI_PROVIDER", &cfg.AI.Provider},
		{"AI_MODEL", &cfg.AI.Model},
		{"OPENAI_API_KEY", &cfg.AI.OpenAIKey},
		{"ANTHROPIC_API_KEY", &cfg.AI.AnthropicKey},
		{"POLYMARKET_PRIVATE_KEY", &cfg.Wallet.PrivateKey},
		{"POLYMARKET_API_KEY", &cfg.Wallet.APIKey},
		{"POLYMARKET_SECRET", &cfg.Wallet.APISecret},
		{"POLYMARKET_PASSPHRASE", &cfg.Wallet.APIPassphrase},
		{"POLYGON_RPC_URL", &cfg.Wallet.RPCURL},
		{"LOG_LEVEL", &cfg.Log.Level},
		{"LOG_FORMAT", &cfg.Log.Format},
	}
	for _, o := range overrides {
		if v := strings.TrimSpace(os.Getenv(o.env)); v != "" {
			*o.dst = v
		}
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	t := &cfg.Trading
	if t.MaxIterations <= 0 {
		t.MaxIterations = 20
	}
	if t.IterationDelaySeconds <= 0 {
		t.IterationDelaySeconds = 1
	}
	if t.MaxBetPct == 0 {
		t.MaxBetPct = 0.5
	}
	if t.MaxMarketExposure == 0 {
		t.MaxMarketExposure = 0.5
	}
	if t.MinStake <= 0 {
		t.MinStake = 1 // mínimo del CLOB en USDC
	}
	if t.MinConfidence == 0 {
		t.MinConfidence = 0.6
	}
	if t.MinTraders == 0 {
		t.MinTraders = 3
	}
	if t.TopK <= 0 {
		t.TopK = 10
	}
	if t.SampleSize <= 0 {
		t.SampleSize = 50
	}
	if t.MinSamples <= 0 {
		t.MinSamples = 5
	}
	if t.TradeLimit <= 0 {
		t.TradeLimit = 500
	}
	if t.SlippageBps == 0 {
		t.SlippageBps = 200
	}
	if t.DryRunBalance <= 0 {
		t.DryRunBalance = 50
	}
	if t.Workers <= 0 {
		t.Workers = 8
	}
	if t.NewsLimit <= 0 {
		t.NewsLimit = 5
	}

	if cfg.API.CLOBBase == "" {
		cfg.API.CLOBBase = "https://clob.polymarket.com"
	}
	if cfg.API.GammaBase == "" {
		cfg.API.GammaBase = "https://gamma-api.polymarket.com"
	}
	if cfg.API.DataBase == "" {
		cfg.API.DataBase = "https://data-api.polymarket.com"
	}
	if cfg.API.NewsBase == "" {
		cfg.API.NewsBase = "https://news.google.com"
	}

	if cfg.AI.Provider == "" {
		cfg.AI.Provider = "offline"
	}
	cfg.AI.Provider = strings.ToLower(cfg.AI.Provider)
	if cfg.AI.TimeoutSeconds <= 0 {
		cfg.AI.TimeoutSeconds = 60
	}

	if cfg.Wallet.RPCURL == "" {
		cfg.Wallet.RPCURL = "https://polygon-rpc.com"
	}
	if cfg.Playbook.Path == "" {
		cfg.Playbook.Path = "config/kb.txt"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "copybot.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
