package storage

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/ipfs/kubo/client/rpc"
	"go.uber.org/zap"
)

const (
	// IpfsPrefix is the URI scheme prefix recognized for IPFS content.
	IpfsPrefix = "ipfs://"
	// FilecoinPrefix is the URI scheme prefix recognized for Filecoin/Lighthouse content.
	FilecoinPrefix = "filecoin://"
	// FilePrefix is the URI scheme prefix recognized for local files.
	FilePrefix = "file://"
)

// LighthouseFetcher fetches content from a Lighthouse gateway.
type LighthouseFetcher interface {
	Fetch(ctx context.Context, endpoint, cid string) ([]byte, error)
}

// IPFSFetcher fetches and stores content addressed by CID on IPFS.
type IPFSFetcher interface {
	Fetch(ctx context.Context, hash string) ([]byte, error)
	Upload(ctx context.Context, data []byte) (string, error)
}

// Client aggregates the configured storage backends.
type Client struct {
	// LighthouseURL is the base URL of the Lighthouse HTTP gateway.
	LighthouseURL string

	api        *rpc.HttpApi
	lighthouse LighthouseFetcher
	ipfs       IPFSFetcher
}

// NewStorage constructs a Client using the provided IPFS API endpoint and
// Lighthouse gateway URL. An empty or unusable IPFS endpoint is logged and
// leaves the client able to serve Lighthouse and local files only.
func NewStorage(ipfsURL, lighthouseURL string) *Client {
	s := &Client{LighthouseURL: lighthouseURL, lighthouse: defaultLighthouseFetcher{}}
	if ipfsURL != "" {
		api, err := NewIPFSClient(ipfsURL)
		if err != nil {
			zap.L().Error("IPFS client unavailable", zap.String("url", ipfsURL), zap.Error(err))
		}
		s.api = api
	}
	s.ipfs = newIPFSFetcher(s.api)
	return s
}

// NewStorageWithFetchers builds a Client over custom backends.
func NewStorageWithFetchers(ipfs IPFSFetcher, lighthouse LighthouseFetcher, lighthouseURL string) *Client {
	return &Client{LighthouseURL: lighthouseURL, ipfs: ipfs, lighthouse: lighthouse}
}

// ReadFile fetches the content identified by uri:
//   - "file://<path>" is read from disk,
//   - "filecoin://<cid>" is retrieved via the Lighthouse gateway,
//   - anything else ("ipfs://<cid>" or a bare CID) is fetched from IPFS.
func (s *Client) ReadFile(ctx context.Context, uri string) ([]byte, error) {
	if s.lighthouse == nil {
		s.lighthouse = defaultLighthouseFetcher{}
	}
	if s.ipfs == nil {
		s.ipfs = newIPFSFetcher(s.api)
	}

	switch {
	case strings.HasPrefix(uri, FilePrefix):
		path := strings.TrimPrefix(uri, FilePrefix)
		data, err := os.ReadFile(path)
		if err != nil {
			zap.L().Error("failed to read local file", zap.String("path", path), zap.Error(err))
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return data, nil
	case strings.HasPrefix(uri, FilecoinPrefix):
		return s.lighthouse.Fetch(ctx, s.LighthouseURL, formatHash(uri))
	}
	return s.ipfs.Fetch(ctx, formatHash(uri))
}

// defaultLighthouseFetcher is the production implementation of LighthouseFetcher.
type defaultLighthouseFetcher struct{}

func (defaultLighthouseFetcher) Fetch(ctx context.Context, endpoint, cid string) ([]byte, error) {
	return GetLighthouseFile(ctx, endpoint, cid)
}

var specialCharacters = regexp.MustCompile("[^a-zA-Z0-9=]")

// formatHash removes known URI scheme prefixes and any non-alphanumeric
// characters (except '=') to produce a clean CID.
func formatHash(hash string) string {
	hash = strings.TrimPrefix(hash, IpfsPrefix)
	hash = strings.TrimPrefix(hash, FilecoinPrefix)
	return specialCharacters.ReplaceAllString(hash, "")
}
