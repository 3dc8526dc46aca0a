package backend

import (
	"context"
	"fmt"
	"net/http"

	"phone-storefront/internal/models"
)

// ListListings fetches one page of listings
func (c *Client) ListListings(ctx context.Context, fp models.Fingerprint) (models.Page[models.Listing], error) {
	var page models.Page[models.Listing]
	err := c.getJSON(ctx, "/listings", pageQuery("/listings", fp.Page, fp.Size), "Failed to load listings", &page)
	if err != nil {
		return models.Page[models.Listing]{}, err
	}
	if page.Content == nil {
		page.Content = []models.Listing{}
	}
	return page, nil
}

// GetListing fetches a single listing
func (c *Client) GetListing(ctx context.Context, id int64) (models.Listing, error) {
	var out models.Listing
	err := c.getJSON(ctx, "/listings/{id}", fmt.Sprintf("/listings/%d", id), "Failed to load listing", &out)
	return out, err
}

// CreateListing creates a listing
func (c *Client) CreateListing(ctx context.Context, in models.ListingInput) (models.Listing, error) {
	var out models.Listing
	_, err := c.sendJSON(ctx, http.MethodPost, "/listings", "/listings", in, "Failed to create listing", &out)
	return out, err
}

// UpdateListing updates a listing and returns only the fields the server sent back
func (c *Client) UpdateListing(ctx context.Context, id int64, in models.ListingUpdate) (models.ListingPatch, error) {
	var out models.ListingPatch
	_, err := c.sendJSON(ctx, http.MethodPut, "/listings/{id}", fmt.Sprintf("/listings/%d", id), in, "Failed to update listing", &out)
	if err != nil {
		return models.ListingPatch{}, err
	}
	if out.ID == 0 {
		out.ID = id
	}
	return out, nil
}

// DeleteListing deletes a listing owned by sellerID
func (c *Client) DeleteListing(ctx context.Context, id, sellerID int64) error {
	path := fmt.Sprintf("/listings/%d?sellerId=%d", id, sellerID)
	_, err := c.sendJSON(ctx, http.MethodDelete, "/listings/{id}", path, nil, "Failed to delete listing", nil)
	return err
}
