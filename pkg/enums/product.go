package enums

import "fmt"

// ProductKind identifies how a product is priced and fulfilled.
type ProductKind string

const (
	ProductKindPlain    ProductKind = "PLAIN"
	ProductKindDesigned ProductKind = "DESIGNED"
	ProductKindDigital  ProductKind = "DIGITAL"
)

var validProductKinds = []ProductKind{
	ProductKindPlain,
	ProductKindDesigned,
	ProductKindDigital,
}

// String implements fmt.Stringer.
func (k ProductKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known ProductKind.
func (k ProductKind) IsValid() bool {
	for _, candidate := range validProductKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseProductKind converts raw input into a ProductKind.
func ParseProductKind(value string) (ProductKind, error) {
	for _, candidate := range validProductKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product kind %q", value)
}

// ProductStatus marks whether a product is visible on the storefront.
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

var validProductStatuses = []ProductStatus{
	ProductStatusActive,
	ProductStatusInactive,
}

// String implements fmt.Stringer.
func (s ProductStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ProductStatus.
func (s ProductStatus) IsValid() bool {
	for _, candidate := range validProductStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseProductStatus converts raw input into a ProductStatus.
func ParseProductStatus(value string) (ProductStatus, error) {
	for _, candidate := range validProductStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product status %q", value)
}

// DiscountType selects how a pricing slab reduces the base per-meter price.
type DiscountType string

const (
	DiscountTypeFixedAmount DiscountType = "FIXED_AMOUNT"
	DiscountTypePercentage  DiscountType = "PERCENTAGE"
)

var validDiscountTypes = []DiscountType{
	DiscountTypeFixedAmount,
	DiscountTypePercentage,
}

// String implements fmt.Stringer.
func (d DiscountType) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DiscountType.
func (d DiscountType) IsValid() bool {
	for _, candidate := range validDiscountTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDiscountType converts raw input into a DiscountType.
func ParseDiscountType(value string) (DiscountType, error) {
	for _, candidate := range validDiscountTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid discount type %q", value)
}

// MediaType distinguishes product gallery entries.
type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

var validMediaTypes = []MediaType{
	MediaTypeImage,
	MediaTypeVideo,
}

// String implements fmt.Stringer.
func (m MediaType) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MediaType.
func (m MediaType) IsValid() bool {
	for _, candidate := range validMediaTypes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMediaType converts raw input into a MediaType.
func ParseMediaType(value string) (MediaType, error) {
	for _, candidate := range validMediaTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid media type %q", value)
}

// CustomFieldType constrains the input widget rendered for a custom field.
type CustomFieldType string

const (
	CustomFieldTypeText   CustomFieldType = "text"
	CustomFieldTypeNumber CustomFieldType = "number"
	CustomFieldTypeURL    CustomFieldType = "url"
	CustomFieldTypeImage  CustomFieldType = "image"
)

var validCustomFieldTypes = []CustomFieldType{
	CustomFieldTypeText,
	CustomFieldTypeNumber,
	CustomFieldTypeURL,
	CustomFieldTypeImage,
}

// String implements fmt.Stringer.
func (c CustomFieldType) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CustomFieldType.
func (c CustomFieldType) IsValid() bool {
	for _, candidate := range validCustomFieldTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCustomFieldType converts raw input into a CustomFieldType.
func ParseCustomFieldType(value string) (CustomFieldType, error) {
	for _, candidate := range validCustomFieldTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid custom field type %q", value)
}
