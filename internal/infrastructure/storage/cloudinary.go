package storage

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/admin"
	"golang.org/x/time/rate"

	"github.com/medifocal/catalog/internal/domain"
)

// maxImagesPerItem bounds one Admin API listing
const maxImagesPerItem = 50

// assetLister is the slice of the Cloudinary Admin API we use
type assetLister interface {
	Assets(ctx context.Context, params admin.AssetsParams) (*admin.AssetsResult, error)
}

// Config holds object storage settings
type Config struct {
	CloudName    string
	APIKey       string
	APISecret    string
	FolderPrefix string
	// RatePerHour is the Admin API allowance shared by all lookups
	RatePerHour int
	Timeout     time.Duration
}

// CloudinaryImages lists product images stored under <prefix>/<itemNumber>/
type CloudinaryImages struct {
	admin       assetLister
	prefix      string
	rateLimiter *rate.Limiter
	timeout     time.Duration
}

// NewCloudinaryImages creates an image store from credentials
func NewCloudinaryImages(cfg Config) (*CloudinaryImages, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary client: %w", err)
	}
	return newCloudinaryImages(&cld.Admin, cfg), nil
}

func newCloudinaryImages(lister assetLister, cfg Config) *CloudinaryImages {
	perHour := cfg.RatePerHour
	if perHour <= 0 {
		perHour = 500 // Cloudinary Admin API default allowance
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	prefix := strings.Trim(cfg.FolderPrefix, "/")
	if prefix == "" {
		prefix = "products"
	}

	return &CloudinaryImages{
		admin:       lister,
		prefix:      prefix,
		rateLimiter: rate.NewLimiter(rate.Limit(float64(perHour)/3600), 10), // burst of 10 lookups
		timeout:     timeout,
	}
}

// ListImages implements domain.ImageStore. Secure URLs come back sorted by
// public id so numbered uploads keep their order.
func (c *CloudinaryImages) ListImages(ctx context.Context, itemNumber string) ([]string, error) {
	if strings.TrimSpace(itemNumber) == "" {
		return nil, domain.ErrInvalidRequest
	}

	// Lookups are best effort: never queue behind the limiter
	if !c.rateLimiter.Allow() {
		return nil, fmt.Errorf("image lookup for %s: rate limited", itemNumber)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	res, err := c.admin.Assets(ctx, admin.AssetsParams{
		AssetType:    api.Image,
		DeliveryType: string(api.Upload),
		Prefix:       c.folder(itemNumber) + "/",
		MaxResults:   maxImagesPerItem,
	})
	if err != nil {
		return nil, fmt.Errorf("list assets for %s: %w", itemNumber, err)
	}
	if res == nil {
		return nil, domain.ErrImagesNotFound
	}
	if res.Error.Message != "" {
		return nil, classifyError(itemNumber, res.Error.Message)
	}

	return assetURLs(res.Assets)
}

func (c *CloudinaryImages) folder(itemNumber string) string {
	return path.Join(c.prefix, strings.Trim(itemNumber, "/"))
}

// assetURLs maps listed assets to their delivery URLs
func assetURLs(assets []api.BriefAssetResult) ([]string, error) {
	sorted := make([]api.BriefAssetResult, len(assets))
	copy(sorted, assets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PublicID < sorted[j].PublicID
	})

	urls := make([]string, 0, len(sorted))
	for _, a := range sorted {
		if a.SecureURL != "" {
			urls = append(urls, a.SecureURL)
		}
	}
	if len(urls) == 0 {
		return nil, domain.ErrImagesNotFound
	}
	return urls, nil
}

// classifyError maps Admin API error messages onto domain errors
func classifyError(itemNumber, message string) error {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "not found"):
		return fmt.Errorf("%w: %s: %s", domain.ErrImagesNotFound, itemNumber, message)
	case strings.Contains(lower, "unauthorized"),
		strings.Contains(lower, "invalid api_key"),
		strings.Contains(lower, "invalid signature"),
		strings.Contains(lower, "not allowed"):
		return fmt.Errorf("%w: %s", domain.ErrStorageUnauthorized, message)
	}
	return fmt.Errorf("list assets for %s: %s", itemNumber, message)
}
