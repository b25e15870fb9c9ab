package images

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"smartcook/internal/config"
	"smartcook/internal/logging"
	"strconv"
	"time"
)

const (
	cloudflareAPI      = "https://api.cloudflare.com/client/v4"
	cloudflareDelivery = "https://imagedelivery.net"
)

// Cloudflare implements Host with Cloudflare Images.
type Cloudflare struct {
	accountID   string
	accountHash string
	apiToken    string
	signingKey  string
	ttl         time.Duration

	apiBase      string
	deliveryBase string
	httpClient   *http.Client
	now          func() time.Time
}

// NewCloudflare creates a Cloudflare host from cfg.
func NewCloudflare(cfg config.ImagesConfig) *Cloudflare {
	return &Cloudflare{
		accountID:    cfg.AccountID,
		accountHash:  cfg.AccountHash,
		apiToken:     cfg.APIToken,
		signingKey:   cfg.SigningKey,
		ttl:          cfg.GetSignedURLTTL(),
		apiBase:      cloudflareAPI,
		deliveryBase: cloudflareDelivery,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		now:          time.Now,
	}
}

type directUploadResponse struct {
	Success bool `json:"success"`
	Result  struct {
		ID        string `json:"id"`
		UploadURL string `json:"uploadURL"`
	} `json:"result"`
	Errors []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// DirectUpload requests a one-time upload URL for an image that requires signed delivery.
func (c *Cloudflare) DirectUpload(ctx context.Context, metadata map[string]any) (Upload, error) {
	timer := logging.StartTimer(logging.CategoryImages, "DirectUpload")
	defer timer.Stop()

	meta, err := json.Marshal(metadata)
	if err != nil {
		return Upload{}, fmt.Errorf("encode metadata: %w", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("requireSignedURLs", "true"); err != nil {
		return Upload{}, err
	}
	if err := mw.WriteField("metadata", string(meta)); err != nil {
		return Upload{}, err
	}
	if err := mw.Close(); err != nil {
		return Upload{}, err
	}

	endpoint := fmt.Sprintf("%s/accounts/%s/images/v2/direct_upload", c.apiBase, url.PathEscape(c.accountID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return Upload{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logging.Get(logging.CategoryImages).Error("Direct upload request failed: %v", err)
		return Upload{}, fmt.Errorf("%w: %v", ErrUploadURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Upload{}, fmt.Errorf("%w: %v", ErrUploadURL, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logging.Get(logging.CategoryImages).Error("Direct upload rejected (%d): %s", resp.StatusCode, data)
		return Upload{}, fmt.Errorf("%w: status %d", ErrUploadURL, resp.StatusCode)
	}

	var out directUploadResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return Upload{}, fmt.Errorf("%w: decode response: %v", ErrUploadURL, err)
	}
	if !out.Success || out.Result.ID == "" {
		return Upload{}, fmt.Errorf("%w: %+v", ErrUploadURL, out.Errors)
	}

	logging.ImagesDebug("Issued upload slot for image %s", out.Result.ID)
	return Upload{ImageID: out.Result.ID, UploadURL: out.Result.UploadURL}, nil
}

// SignedURL returns a delivery URL valid for the configured TTL.
// The signature is hex(HMAC-SHA256(key, path + "?exp=<unix>")).
func (c *Cloudflare) SignedURL(_ context.Context, imageID, variant string) (string, error) {
	if c.accountHash == "" || c.signingKey == "" {
		return "", ErrNotConfigured
	}
	if imageID == "" {
		return "", fmt.Errorf("image id is required")
	}
	if variant == "" {
		variant = DefaultVariant
	}

	u, err := url.Parse(c.deliveryBase)
	if err != nil {
		return "", err
	}
	u = u.JoinPath(c.accountHash, imageID, variant)

	exp := strconv.FormatInt(c.now().Add(c.ttl).Unix(), 10)
	query := "exp=" + exp

	mac := hmac.New(sha256.New, []byte(c.signingKey))
	mac.Write([]byte(u.EscapedPath() + "?" + query))
	u.RawQuery = query + "&sig=" + hex.EncodeToString(mac.Sum(nil))

	return u.String(), nil
}
