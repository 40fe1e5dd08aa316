// Package config defines the runtime configuration of the toolkit: chain
// endpoints, signer selection, storage gateways, gas policy and timeouts. It
// also provides validation, defaulting and YAML loading.
package config

import (
	"errors"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Config holds all settings required to build a Core. Use Validate to fill
// implicit defaults and to check for required fields.
type Config struct {
	// Network selects the target chain (chain ID and human-readable name).
	Network Network `json:"network" yaml:"network"`
	// RPCAddr is the read endpoint, HTTP(S) or WS(S) (required).
	RPCAddr string `json:"rpc_addr" yaml:"rpc_addr"`
	// WalletAddr is an optional endpoint for wallet-interactive methods
	// (eth_sendTransaction, eth_accounts, ...). Empty means no write transport.
	WalletAddr string `json:"wallet_addr" yaml:"wallet_addr"`
	// PrivateKey is the hex-encoded ECDSA key of the local signing account.
	PrivateKey string `json:"private_key" yaml:"private_key"`
	// Signer configures a remote signing service used instead of PrivateKey.
	Signer Signer `json:"signer" yaml:"signer"`
	// LighthouseURL is the HTTP gateway used to fetch Filecoin-backed artifacts.
	// Default: https://gateway.lighthouse.storage/ipfs/
	LighthouseURL string `json:"lighthouse_url" yaml:"lighthouse_url"`
	// IpfsURL is the HTTP API endpoint of the IPFS node used for artifacts.
	// Empty disables IPFS.
	IpfsURL string `json:"ipfs_url" yaml:"ipfs_url"`
	// Debug enables verbose logging.
	Debug bool `json:"debug" yaml:"debug"`
	// Timeouts configures per-operation timeouts. See Timeouts.WithDefaults.
	Timeouts Timeouts `json:"timeouts" yaml:"timeouts"`
	// Gas configures the fixed gas limits and confirmation watching.
	Gas Gas `json:"gas" yaml:"gas"`
	// WriteMethods replaces the default set of methods routed to the wallet
	// endpoint. Empty keeps the defaults.
	WriteMethods []string `json:"write_methods" yaml:"write_methods"`
}

// Network describes a blockchain network. ChainID is used for EIP-155
// signing; Name is informational.
type Network struct {
	ChainID string `json:"chain_id" yaml:"chain_id"`
	Name    string `json:"network_name" yaml:"network_name"`
}

// ChainIDBig parses ChainID.
func (n Network) ChainIDBig() (*big.Int, error) {
	id, ok := new(big.Int).SetString(n.ChainID, 10)
	if !ok || id.Sign() <= 0 {
		return nil, fmt.Errorf("invalid chain id %q", n.ChainID)
	}
	return id, nil
}

// Sepolia is a predefined Network for Ethereum Sepolia testnet.
var Sepolia = Network{
	ChainID: "11155111",
	Name:    "sepolia",
}

// Main is a predefined Network for Ethereum mainnet.
var Main = Network{
	ChainID: "1",
	Name:    "main",
}

// Signer points at a remote Signer gRPC service.
type Signer struct {
	// Addr is the service endpoint; the scheme selects TLS (https://) or
	// plaintext.
	Addr string `json:"addr" yaml:"addr"`
	// Token is sent as a bearer token on every call.
	Token string `json:"token" yaml:"token"`
	// ProtoURI optionally overrides the embedded service definition. It is
	// read through storage (file://, ipfs://, filecoin://) and may be a tar
	// archive.
	ProtoURI string `json:"proto_uri" yaml:"proto_uri"`
	// Address pins the expected account address. Empty asks the service.
	Address string `json:"address" yaml:"address"`
}

// Enabled reports whether a remote signer is configured.
func (s Signer) Enabled() bool { return s.Addr != "" }

// Gas configures transaction gas limits and confirmation watching. Zero
// values take the dispatcher defaults.
type Gas struct {
	SendLimit        uint64        `json:"send_limit" yaml:"send_limit"`
	DeployLimit      uint64        `json:"deploy_limit" yaml:"deploy_limit"`
	FloorGwei        string        `json:"floor_gwei" yaml:"floor_gwei"`
	MaxConfirmations uint64        `json:"max_confirmations" yaml:"max_confirmations"`
	PollInterval     time.Duration `json:"poll_interval" yaml:"poll_interval"`
	MaxPollInterval  time.Duration `json:"max_poll_interval" yaml:"max_poll_interval"`
}

// Timeouts controls operation deadlines.
// Zero values will be replaced by defaults in WithDefaults.
type Timeouts struct {
	Dial        time.Duration `json:"dial" yaml:"dial"`                 // RPC and signer connect
	ChainRead   time.Duration `json:"chain_read" yaml:"chain_read"`     // eth_call, chain id
	ChainSubmit time.Duration `json:"chain_submit" yaml:"chain_submit"` // sign and broadcast
	ReceiptWait time.Duration `json:"receipt_wait" yaml:"receipt_wait"` // wait for a receipt
	SignerCall  time.Duration `json:"signer_call" yaml:"signer_call"`   // remote signer RPC
	Storage     time.Duration `json:"storage" yaml:"storage"`           // artifact fetch
}

// Validate normalizes the configuration by applying implicit defaults for
// LighthouseURL and Network (defaults to Sepolia) and checks the remaining
// fields. Returns an error when RPCAddr is empty, the chain id or signer
// address is malformed, or both a private key and a remote signer are set.
func (c *Config) Validate() error {
	if c.LighthouseURL == "" {
		c.LighthouseURL = "https://gateway.lighthouse.storage/ipfs/"
	}

	if c.Network.ChainID == "" {
		c.Network = Sepolia
	}

	if c.RPCAddr == "" {
		return errors.New("RPC address is required")
	}

	if _, err := c.Network.ChainIDBig(); err != nil {
		return err
	}

	if c.PrivateKey != "" && c.Signer.Enabled() {
		return errors.New("private key and remote signer are mutually exclusive")
	}

	if c.Signer.Address != "" && !common.IsHexAddress(c.Signer.Address) {
		return fmt.Errorf("invalid signer address %q", c.Signer.Address)
	}

	c.Timeouts = c.Timeouts.WithDefaults()
	return nil
}

// WithDefaults returns a copy of t with zero values replaced by defaults:
//
//	Dial:        5s
//	ChainRead:   12s
//	ChainSubmit: 25s
//	ReceiptWait: 90s
//	SignerCall:  10s
//	Storage:     60s
func (t Timeouts) WithDefaults() Timeouts {
	tt := t
	if tt.Dial == 0 {
		tt.Dial = 5 * time.Second
	}
	if tt.ChainRead == 0 {
		tt.ChainRead = 12 * time.Second
	}
	if tt.ChainSubmit == 0 {
		tt.ChainSubmit = 25 * time.Second
	}
	if tt.ReceiptWait == 0 {
		tt.ReceiptWait = 90 * time.Second
	}
	if tt.SignerCall == 0 {
		tt.SignerCall = 10 * time.Second
	}
	if tt.Storage == 0 {
		tt.Storage = 60 * time.Second
	}
	return tt
}

// Load reads a YAML configuration file and validates it. Environment
// variables in the file are expanded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		zap.L().Error("failed to read config", zap.String("path", path), zap.Error(err))
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and validates YAML configuration.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
