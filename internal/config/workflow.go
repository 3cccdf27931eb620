package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Attestation modes accepted by the proof-of-reserve workflow.
const (
	AttestationPublic       = "public"
	AttestationConfidential = "confidential"
)

var (
	apiURLPattern  = regexp.MustCompile(`^https?://\S+$`)
	addressPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)
)

// WorkflowConfig is the YAML document driving the oracle workflows.
type WorkflowConfig struct {
	APIBaseURL       string  `yaml:"apiBaseUrl"`
	ContractAddress  string  `yaml:"contractAddress"`
	ChainSelector    string  `yaml:"chainSelector"`
	RPCURL           string  `yaml:"rpcUrl"`
	TokensPerCask    int64   `yaml:"tokensPerCask"`
	AttestationMode  string  `yaml:"attestationMode"`
	TokenSupplyUnits *int64  `yaml:"tokenSupplyUnits"`
	SubmitReports    *bool   `yaml:"submitReports"`
	ReportGasLimit   *uint64 `yaml:"reportGasLimit"`

	ProofOfReserve     ProofOfReserveConfig     `yaml:"proofOfReserve"`
	PhysicalAttributes PhysicalAttributesConfig `yaml:"physicalAttributes"`
	LifecycleReconcile LifecycleReconcileConfig `yaml:"lifecycleReconcile"`
	LifecycleWebhook   LifecycleWebhookConfig   `yaml:"lifecycleWebhook"`

	// Secrets come from the environment, never from the YAML file.
	ChainPrivateKey string         `yaml:"-"`
	LifecycleAPIKey string         `yaml:"-"`
	WhatsApp        WhatsAppConfig `yaml:"-"`
	Sheets          SheetsConfig   `yaml:"-"`
	MongoDB         MongoDBConfig  `yaml:"-"`
}

// ProofOfReserveConfig schedules the reserve attestation.
type ProofOfReserveConfig struct {
	Schedule string `yaml:"schedule"`
}

// PhysicalAttributesConfig schedules the cask attribute sync.
type PhysicalAttributesConfig struct {
	Schedule     string `yaml:"schedule"`
	MaxBatchSize int    `yaml:"maxBatchSize"`
}

// LifecycleReconcileConfig schedules lifecycle replay.
type LifecycleReconcileConfig struct {
	Schedule             string `yaml:"schedule"`
	ScanLimit            int    `yaml:"scanLimit"`
	ReconcileWindowHours int    `yaml:"reconcileWindowHours"`
}

// LifecycleWebhookConfig configures the HTTP trigger.
type LifecycleWebhookConfig struct {
	ListenAddr     string   `yaml:"listenAddr"`
	AuthorizedKeys []string `yaml:"authorizedKeys"`
}

// ShouldSubmit reports whether encoded reports are broadcast.
func (c *WorkflowConfig) ShouldSubmit() bool {
	return c.SubmitReports == nil || *c.SubmitReports
}

// GasLimit returns the configured report gas limit, 0 meaning estimate.
func (c *WorkflowConfig) GasLimit() uint64 {
	if c.ReportGasLimit == nil {
		return 0
	}
	return *c.ReportGasLimit
}

// LoadWorkflow reads the workflow YAML at path (WORKFLOW_CONFIG_PATH or
// config/workflows.yaml when empty), applies defaults, merges env secrets and validates.
func LoadWorkflow(path string) (*WorkflowConfig, error) {
	// Missing .env files are fine when secrets come from the environment.
	_ = godotenv.Load()

	if path == "" {
		path = getenvWithDefault("WORKFLOW_CONFIG_PATH", "config/workflows.yaml")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workflow config %s: %w", path, err)
	}

	cfg, err := ParseWorkflow(raw)
	if err != nil {
		return nil, fmt.Errorf("workflow config %s: %w", path, err)
	}

	cfg.ChainPrivateKey = os.Getenv("CHAIN_PRIVATE_KEY")
	cfg.LifecycleAPIKey = os.Getenv("LIFECYCLE_API_KEY")
	cfg.WhatsApp = WhatsAppConfig{
		AccessToken:   os.Getenv("WHATSAPP_TOKEN"),
		PhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
		BaseURL:       getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
		APIVersion:    getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
		AlertTo:       os.Getenv("WHATSAPP_ALERT_TO"),
	}
	cfg.Sheets = SheetsConfig{
		CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
		SpreadsheetID:   os.Getenv("GOOGLE_SHEET_LEDGER_ID"),
	}
	cfg.MongoDB = MongoDBConfig{
		URI:    os.Getenv("MONGODB_URI"),
		DBName: getenvWithDefault("MONGODB_DB_NAME", "caskwarehouse"),
	}

	return cfg, nil
}

// ParseWorkflow decodes YAML bytes, applies defaults and validates.
func ParseWorkflow(raw []byte) (*WorkflowConfig, error) {
	raw = []byte(strings.TrimPrefix(string(raw), "\ufeff"))

	var cfg WorkflowConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *WorkflowConfig) applyDefaults() {
	if c.TokensPerCask == 0 {
		c.TokensPerCask = 1000
	}
	if c.AttestationMode == "" {
		c.AttestationMode = AttestationPublic
	}
	if c.ProofOfReserve.Schedule == "" {
		c.ProofOfReserve.Schedule = "0 0 * * * *"
	}
	if c.PhysicalAttributes.Schedule == "" {
		c.PhysicalAttributes.Schedule = "0 0 3 * * *"
	}
	if c.PhysicalAttributes.MaxBatchSize == 0 {
		c.PhysicalAttributes.MaxBatchSize = 20
	}
	if c.LifecycleReconcile.Schedule == "" {
		c.LifecycleReconcile.Schedule = "0 10 3 * * *"
	}
	if c.LifecycleReconcile.ScanLimit == 0 {
		c.LifecycleReconcile.ScanLimit = 100
	}
	if c.LifecycleReconcile.ReconcileWindowHours == 0 {
		c.LifecycleReconcile.ReconcileWindowHours = 48
	}
	if c.LifecycleWebhook.ListenAddr == "" {
		c.LifecycleWebhook.ListenAddr = ":8090"
	}
}

// Validate checks the shared and per-workflow settings.
func (c *WorkflowConfig) Validate() error {
	if c == nil {
		return errors.New("workflow config is nil")
	}
	if !apiURLPattern.MatchString(c.APIBaseURL) {
		return fmt.Errorf("apiBaseUrl must be an http(s) URL, got %q", c.APIBaseURL)
	}
	if !addressPattern.MatchString(c.ContractAddress) {
		return fmt.Errorf("contractAddress must be a 0x-prefixed 20-byte hex address, got %q", c.ContractAddress)
	}
	if c.ChainSelector == "" {
		return errors.New("chainSelector must not be empty")
	}
	if c.TokensPerCask <= 0 {
		return errors.New("tokensPerCask must be > 0")
	}
	if c.AttestationMode != AttestationPublic && c.AttestationMode != AttestationConfidential {
		return fmt.Errorf("attestationMode must be public or confidential, got %q", c.AttestationMode)
	}
	if c.TokenSupplyUnits != nil && *c.TokenSupplyUnits < 0 {
		return errors.New("tokenSupplyUnits must be >= 0")
	}
	if c.ReportGasLimit != nil && *c.ReportGasLimit == 0 {
		return errors.New("reportGasLimit must be > 0")
	}
	if c.PhysicalAttributes.MaxBatchSize < 1 || c.PhysicalAttributes.MaxBatchSize > 50 {
		return errors.New("physicalAttributes.maxBatchSize must be within [1, 50]")
	}
	if c.LifecycleReconcile.ScanLimit < 1 || c.LifecycleReconcile.ScanLimit > 200 {
		return errors.New("lifecycleReconcile.scanLimit must be within [1, 200]")
	}
	if c.LifecycleReconcile.ReconcileWindowHours < 1 || c.LifecycleReconcile.ReconcileWindowHours > 24*30 {
		return errors.New("lifecycleReconcile.reconcileWindowHours must be within [1, 720]")
	}
	for _, key := range c.LifecycleWebhook.AuthorizedKeys {
		if !addressPattern.MatchString(key) {
			return fmt.Errorf("lifecycleWebhook.authorizedKeys entry %q is not an EVM address", key)
		}
	}
	return nil
}
