package products

import (
	"context"
	"fmt"
	"strings"

	"github.com/tillpoint/tillpoint/internal/shared"
)

func normalize(in Input) (Input, error) {
	in.SKU = strings.TrimSpace(in.SKU)
	in.Name = strings.TrimSpace(in.Name)
	in.Unit = strings.TrimSpace(in.Unit)
	if in.Barcode != nil {
		code := strings.TrimSpace(*in.Barcode)
		if code == "" {
			in.Barcode = nil
		} else {
			in.Barcode = &code
		}
	}
	if in.BrandID != nil && strings.TrimSpace(*in.BrandID) == "" {
		in.BrandID = nil
	}
	switch {
	case in.SKU == "":
		return in, fmt.Errorf("%w: sku is required", shared.ErrValidation)
	case in.Name == "":
		return in, fmt.Errorf("%w: product name is required", shared.ErrValidation)
	case in.CategoryID == "":
		return in, fmt.Errorf("%w: categoryId is required", shared.ErrValidation)
	case in.BuyingPrice.IsNegative() || in.SellingPrice.IsNegative():
		return in, fmt.Errorf("%w: prices must not be negative", shared.ErrValidation)
	case in.StockLevel < 0 || in.MinStockLevel < 0:
		return in, fmt.Errorf("%w: stock levels must not be negative", shared.ErrValidation)
	}
	if in.Unit == "" {
		in.Unit = defaultUnit
	}
	if in.Images == nil {
		in.Images = []string{}
	}
	return in, nil
}

func (s *Service) checkLinks(ctx context.Context, in Input) error {
	categoryOK, brandOK, err := s.repo.LinksExist(ctx, in.StoreID, in.CategoryID, in.BrandID)
	if err != nil {
		return err
	}
	if !categoryOK {
		return fmt.Errorf("%w: category %s not found in store", shared.ErrValidation, in.CategoryID)
	}
	if !brandOK {
		return fmt.Errorf("%w: brand %s not found in store", shared.ErrValidation, *in.BrandID)
	}
	return nil
}
