package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/floraweave/floraweave-backend/api/responses"
	"github.com/floraweave/floraweave-backend/api/validators"
	productsvc "github.com/floraweave/floraweave-backend/internal/products"
	"github.com/floraweave/floraweave-backend/pkg/enums"
	pkgerrors "github.com/floraweave/floraweave-backend/pkg/errors"
	"github.com/floraweave/floraweave-backend/pkg/logger"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func parseListInput(r *http.Request, adminView bool) (productsvc.ListInput, error) {
	input := productsvc.ListInput{AdminView: adminView}

	limit, err := validators.ParseQueryInt(r, "limit", defaultPageSize, 1, maxPageSize)
	if err != nil {
		return input, err
	}
	input.Limit = limit
	input.Cursor = strings.TrimSpace(r.URL.Query().Get("cursor"))
	input.Query = validators.SanitizeString(r.URL.Query().Get("q"), 200)

	if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
		kind, err := enums.ParseProductKind(raw)
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product type")
		}
		input.Kind = &kind
	}

	if input.CategoryID, err = validators.ParseQueryUUID(r, "category_id"); err != nil {
		return input, err
	}
	if input.SubcategoryID, err = validators.ParseQueryUUID(r, "subcategory_id"); err != nil {
		return input, err
	}

	if input.MinPrice, err = parseQueryDecimal(r, "min_price"); err != nil {
		return input, err
	}
	if input.MaxPrice, err = parseQueryDecimal(r, "max_price"); err != nil {
		return input, err
	}

	return input, nil
}

func parseQueryDecimal(r *http.Request, key string) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be a number").WithDetails(map[string]any{"field": key})
	}
	return &value, nil
}

// CatalogProducts lists active products for the storefront.
func CatalogProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, err := parseListInput(r, false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListProducts(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}

// CatalogProductDetail returns the full aggregate by storefront slug.
func CatalogProductDetail(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := strings.TrimSpace(chi.URLParam(r, "slug"))
		if slug == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "slug is required"))
			return
		}

		product, err := svc.GetProductBySlug(r.Context(), slug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// AdminProducts lists the catalog including inactive rows.
func AdminProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, err := parseListInput(r, true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListProducts(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}
