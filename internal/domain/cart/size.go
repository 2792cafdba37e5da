package cart

import "github.com/storefront/backend/internal/domain/shared"

// Size represents a portion size for a line item
type Size string

const (
	SizeS   Size = "S"
	SizeM   Size = "M"
	SizeL   Size = "L"
	SizeXL  Size = "XL"
	SizeXXL Size = "XXL"
)

// Sizes lists all valid sizes in display order
var Sizes = []Size{SizeS, SizeM, SizeL, SizeXL, SizeXXL}

// ParseSize converts a string into a Size, rejecting anything outside the
// fixed set
func ParseSize(s string) (Size, error) {
	switch Size(s) {
	case SizeS, SizeM, SizeL, SizeXL, SizeXXL:
		return Size(s), nil
	}
	return "", shared.NewDomainError("INVALID_SIZE", "Size must be one of S, M, L, XL, XXL")
}
