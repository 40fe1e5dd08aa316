package storage

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ipfs/go-cid"
	"github.com/ipfs/kubo/client/rpc"
	"go.uber.org/zap"
)

const defaultIPFSTimeout = 60 * time.Second

// ParseProtoFiles returns the .proto files of a tar archive, gzip-compressed
// or not, keyed by their path inside the archive.
func ParseProtoFiles(archive []byte) (map[string]string, error) {
	return extractFiles(archive, ".proto")
}

func extractFiles(archive []byte, suffix string) (map[string]string, error) {
	var r io.Reader = bytes.NewReader(archive)
	if isGzipFile(archive) {
		gzr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("open gzip stream: %w", err)
		}
		defer gzr.Close()
		r = gzr
	}

	files := make(map[string]string)
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return files, nil
		}
		if err != nil {
			zap.L().Error("Failed to read archive", zap.Error(err))
			return nil, fmt.Errorf("read archive: %w", err)
		}
		if hdr.Typeflag == tar.TypeDir {
			continue
		}
		if hdr.Typeflag != tar.TypeReg {
			return nil, fmt.Errorf("unsupported entry %s of type %c", hdr.Name, hdr.Typeflag)
		}
		if !strings.HasSuffix(hdr.Name, suffix) {
			zap.L().Debug("Skipping archive entry", zap.String("name", hdr.Name))
			continue
		}
		body, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", hdr.Name, err)
		}
		files[hdr.Name] = string(body)
	}
}

func isGzipFile(data []byte) bool {
	return len(data) > 2 && data[0] == 0x1F && data[1] == 0x8B
}

// ipfsFetcher implements IPFSFetcher on the Kubo HTTP API.
type ipfsFetcher struct {
	api *rpc.HttpApi
}

func newIPFSFetcher(api *rpc.HttpApi) IPFSFetcher {
	return &ipfsFetcher{api: api}
}

func withDefaultTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, defaultIPFSTimeout)
}

// Fetch retrieves content by CID with `ipfs cat`. The hash must parse as a
// CID (v0 or v1).
func (f *ipfsFetcher) Fetch(ctx context.Context, hash string) ([]byte, error) {
	ctx, cancel := withDefaultTimeout(ctx)
	defer cancel()

	hash = formatHash(hash)
	zap.L().Debug("Hash Used to retrieve from IPFS", zap.String("hash", hash))

	if f.api == nil {
		return nil, errors.New("ipfs client not configured")
	}

	cID, err := cid.Parse(hash)
	if err != nil {
		zap.L().Error("error parsing the ipfs hash", zap.String("hash", hash), zap.Error(err))
		return nil, fmt.Errorf("invalid cid %q: %w", hash, err)
	}

	resp, err := f.api.Request("cat", cID.String()).Send(ctx)
	if err != nil {
		zap.L().Error("error executing the cat command in ipfs", zap.String("hash", hash), zap.Error(err))
		return nil, err
	}
	defer func(resp *rpc.Response) {
		if err := resp.Close(); err != nil {
			zap.L().Error("error closing response in ipfs", zap.String("hash", hash), zap.Error(err))
		}
	}(resp)

	if resp.Error != nil {
		zap.L().Error("ipfs cat returned error", zap.String("hash", hash), zap.Error(resp.Error))
		return nil, resp.Error
	}
	content, err := io.ReadAll(resp.Output)
	if err != nil {
		zap.L().Error("error reading ipfs content", zap.String("hash", hash), zap.Error(err))
		return nil, err
	}
	zap.L().Debug("Fetched from IPFS",
		zap.String("cid", cID.String()),
		zap.Uint64("version", cID.Version()),
		zap.Int("size", len(content)))
	return content, nil
}

// Upload adds data with `ipfs add` and returns its URI (ipfs://<cid>).
func (f *ipfsFetcher) Upload(ctx context.Context, data []byte) (string, error) {
	ctx, cancel := withDefaultTimeout(ctx)
	defer cancel()

	if f.api == nil {
		return "", errors.New("ipfs client not configured")
	}

	resp, err := f.api.Request("add").FileBody(bytes.NewReader(data)).Send(ctx)
	if err != nil {
		zap.L().Error("error uploading to ipfs", zap.Error(err))
		return "", err
	}
	defer func(resp *rpc.Response) {
		if err := resp.Close(); err != nil {
			zap.L().Error("error closing ipfs response", zap.Error(err))
		}
	}(resp)

	if resp.Error != nil {
		zap.L().Error("ipfs add command returned error", zap.Error(resp.Error))
		return "", resp.Error
	}

	var addResp struct {
		Hash string `json:"Hash"`
	}
	if err := json.NewDecoder(resp.Output).Decode(&addResp); err != nil {
		zap.L().Error("error decoding ipfs add response", zap.Error(err))
		return "", err
	}
	if _, err := cid.Decode(addResp.Hash); err != nil {
		return "", fmt.Errorf("ipfs add returned invalid cid %q: %w", addResp.Hash, err)
	}

	zap.L().Debug("Successfully uploaded to IPFS", zap.String("hash", addResp.Hash))
	return IpfsPrefix + addResp.Hash, nil
}

// NewIPFSClient constructs a Kubo HTTP API client pointed at url.
func NewIPFSClient(url string) (*rpc.HttpApi, error) {
	httpClient := http.Client{
		Timeout: 5 * time.Second,
	}
	client, err := rpc.NewURLApiWithClient(url, &httpClient)
	if err != nil {
		zap.L().Error("Connection failed to IPFS", zap.String("url", url), zap.Error(err))
		return nil, err
	}
	return client, nil
}
