package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
)

// Deployment records where an artifact lives on one network.
type Deployment struct {
	Address         common.Address `json:"address"`
	TransactionHash common.Hash    `json:"transactionHash,omitempty"`
}

// Artifact is a compiled contract in the usual build-artifact layout:
// contract name, JSON ABI, creation bytecode and deployments keyed by chain
// id.
type Artifact struct {
	ContractName string                `json:"contractName"`
	ABI          json.RawMessage       `json:"abi"`
	Bytecode     hexutil.Bytes         `json:"bytecode"`
	Networks     map[string]Deployment `json:"networks,omitempty"`
}

// ParseArtifact decodes and checks an artifact. The ABI must parse; the
// bytecode may be empty for interface-only artifacts.
func ParseArtifact(data []byte) (*Artifact, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if len(a.ABI) == 0 {
		return nil, errors.New("artifact has no abi")
	}
	if _, err := a.ParsedABI(); err != nil {
		return nil, err
	}
	return &a, nil
}

// ParsedABI parses the artifact's ABI.
func (a *Artifact) ParsedABI() (abi.ABI, error) {
	parsed, err := abi.JSON(bytes.NewReader(a.ABI))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parse abi of %s: %w", a.ContractName, err)
	}
	return parsed, nil
}

// AddressFor returns the deployment address recorded for chainID.
func (a *Artifact) AddressFor(chainID *big.Int) (common.Address, bool) {
	if chainID == nil || a.Networks == nil {
		return common.Address{}, false
	}
	d, ok := a.Networks[chainID.String()]
	if !ok || d.Address == (common.Address{}) {
		return common.Address{}, false
	}
	return d.Address, true
}

// SetDeployment records a deployment on chainID.
func (a *Artifact) SetDeployment(chainID *big.Int, d Deployment) {
	if a.Networks == nil {
		a.Networks = make(map[string]Deployment)
	}
	a.Networks[chainID.String()] = d
}

// LoadArtifact reads and parses an artifact from any supported URI.
func (s *Client) LoadArtifact(ctx context.Context, uri string) (*Artifact, error) {
	data, err := s.ReadFile(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("load artifact %s: %w", uri, err)
	}
	a, err := ParseArtifact(data)
	if err != nil {
		zap.L().Error("invalid artifact", zap.String("uri", uri), zap.Error(err))
		return nil, err
	}
	zap.L().Debug("Loaded artifact", zap.String("uri", uri), zap.String("contract", a.ContractName))
	return a, nil
}

// PublishArtifact uploads a to IPFS and returns its ipfs:// URI.
func (s *Client) PublishArtifact(ctx context.Context, a *Artifact) (string, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if s.ipfs == nil {
		s.ipfs = newIPFSFetcher(s.api)
	}
	return s.ipfs.Upload(ctx, data)
}
