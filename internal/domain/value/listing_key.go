package value

import (
	"errors"
	"strings"
)

// ListingKeyDelimiter joins collection and asset identifiers. Identifiers that
// contain it collide into the same key; the format is kept as is.
const ListingKeyDelimiter = ":"

var ErrEmptyIdentifier = errors.New("collection and asset identifiers must not be empty")

type ListingKey string

func NewListingKey(collectionID, assetID string) (ListingKey, error) {
	if strings.TrimSpace(collectionID) == "" || strings.TrimSpace(assetID) == "" {
		return "", ErrEmptyIdentifier
	}

	return ListingKey(collectionID + ListingKeyDelimiter + assetID), nil
}

func (k ListingKey) String() string {
	return string(k)
}
