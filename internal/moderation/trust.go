package moderation

import (
	"context"

	"github.com/blog-comments-api/internal/models"
)

// ApprovedLookup finds any approved comment by an author
type ApprovedLookup interface {
	FindApprovedByEmail(ctx context.Context, email string) (*models.Comment, error)
}

// TrustStore answers whether an author has been approved before. One prior
// approval is enough; there is no recency or volume limit.
type TrustStore struct {
	lookup ApprovedLookup
}

// NewTrustStore creates a TrustStore over lookup
func NewTrustStore(lookup ApprovedLookup) *TrustStore {
	return &TrustStore{lookup: lookup}
}

// IsTrusted expects an already normalized email
func (t *TrustStore) IsTrusted(ctx context.Context, email string) (bool, error) {
	prior, err := t.lookup.FindApprovedByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	return prior != nil, nil
}
