package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/medifocal/catalog/internal/domain"
	"github.com/medifocal/catalog/internal/logger"
	"github.com/medifocal/catalog/internal/metrics"
)

// excludedManufacturers are never shown on the storefront (lower-cased)
var excludedManufacturers = map[string]bool{
	"bluetti": true,
}

// dentalChairCategory marks imports whose first secondary image is the real primary
const dentalChairCategory = "dental chair"

// IsExcludedManufacturer reports whether products of this manufacturer are hidden
func IsExcludedManufacturer(manufacturer string) bool {
	return excludedManufacturers[strings.ToLower(strings.TrimSpace(manufacturer))]
}

// ProductNormalizer reshapes stored products for display
type ProductNormalizer struct {
	images domain.ImageStore
	log    *zap.Logger
}

// NewProductNormalizer creates a normalizer. images may be nil, in which case
// no storage lookups are made.
func NewProductNormalizer(images domain.ImageStore, log *zap.Logger) *ProductNormalizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProductNormalizer{images: images, log: log}
}

// Normalize returns the display form of a product, or false when the product
// must not be shown. loadImages enables the object storage fallback for
// records without images.
func (n *ProductNormalizer) Normalize(ctx context.Context, raw domain.Product, loadImages bool) (domain.Product, bool) {
	if IsExcludedManufacturer(raw.Manufacturer) {
		return domain.Product{}, false
	}

	p := raw
	p.Images = cloneStrings(raw.Images)

	if !p.HasImages() && loadImages {
		if urls := n.lookupImages(ctx, storageKey(p.ItemNumber, p.ID)); len(urls) > 0 {
			p.Images = urls
		}
	}
	if p.ImageURL == "" && len(p.Images) > 0 {
		p.ImageURL = p.Images[0]
	}

	if len(raw.Variants) > 0 {
		p.Variants = make([]domain.Variant, len(raw.Variants))
		for i, v := range raw.Variants {
			p.Variants[i] = n.normalizeVariant(ctx, v, loadImages)
		}
	}

	if strings.Contains(strings.ToLower(p.Category), dentalChairCategory) && len(p.Images) > 0 {
		if !containsString(p.Images, p.ImageURL) {
			p.ImageURL = p.Images[0]
		}
	}

	return p, true
}

func (n *ProductNormalizer) normalizeVariant(ctx context.Context, v domain.Variant, loadImages bool) domain.Variant {
	v.Images = cloneStrings(v.Images)
	if !v.HasImages() && loadImages && v.ItemNumber != "" {
		if urls := n.lookupImages(ctx, v.ItemNumber); len(urls) > 0 {
			v.Images = urls
		}
	}
	if v.ImageURL == "" && len(v.Images) > 0 {
		v.ImageURL = v.Images[0]
	}
	return v
}

// NormalizeAll normalizes a page of products concurrently, one goroutine per
// record, keeping input order and dropping excluded products.
func (n *ProductNormalizer) NormalizeAll(ctx context.Context, raws []domain.Product, loadImages bool) []domain.Product {
	if len(raws) == 0 {
		return []domain.Product{}
	}

	type slot struct {
		product domain.Product
		ok      bool
	}
	slots := make([]slot, len(raws))

	if !loadImages || n.images == nil {
		for i := range raws {
			slots[i].product, slots[i].ok = n.Normalize(ctx, raws[i], false)
		}
	} else {
		var wg sync.WaitGroup
		for i := range raws {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				slots[i].product, slots[i].ok = n.Normalize(ctx, raws[i], true)
			}(i)
		}
		wg.Wait()
	}

	out := make([]domain.Product, 0, len(raws))
	for _, s := range slots {
		if s.ok {
			out = append(out, s.product)
		}
	}
	return out
}

// lookupImages is best effort: every failure reads as "no stored images"
func (n *ProductNormalizer) lookupImages(ctx context.Context, key string) []string {
	if n.images == nil || key == "" {
		return nil
	}

	urls, err := n.images.ListImages(ctx, key)
	if err != nil {
		outcome := metrics.ImageError
		switch {
		case errors.Is(err, domain.ErrImagesNotFound):
			outcome = metrics.ImageNotFound
		case errors.Is(err, domain.ErrStorageUnauthorized):
			outcome = metrics.ImageUnauthorized
		}
		metrics.IncImageLookup(outcome)
		logger.FromContext(ctx, n.log).Debug("image lookup skipped",
			zap.String("item", key), zap.String("outcome", outcome), zap.Error(err))
		return nil
	}

	metrics.IncImageLookup(metrics.ImageFound)
	return urls
}

// storageKey picks the object storage folder name for a product
func storageKey(itemNumber, id string) string {
	if itemNumber != "" {
		return itemNumber
	}
	return id
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
