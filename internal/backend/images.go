package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"phone-storefront/internal/models"
)

// ListVariantImages fetches image metadata of a variant
func (c *Client) ListVariantImages(ctx context.Context, variantID int64) ([]models.Image, error) {
	path := fmt.Sprintf("/variants/%d/images", variantID)
	return listCollection[models.Image](ctx, c, "/variants/{id}/images", path, "Failed to load images")
}

// GetImage fetches image metadata
func (c *Client) GetImage(ctx context.Context, id int64) (models.Image, error) {
	var out models.Image
	err := c.getJSON(ctx, "/images/{id}", fmt.Sprintf("/images/%d", id), "Failed to load image", &out)
	return out, err
}

// UploadVariantImage uploads one image as multipart form data
func (c *Client) UploadVariantImage(ctx context.Context, variantID int64, fileName string, r io.Reader, primary bool) (models.Image, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return models.Image{}, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return models.Image{}, fmt.Errorf("failed to read upload: %w", err)
	}
	if err := mw.WriteField("primary", strconv.FormatBool(primary)); err != nil {
		return models.Image{}, err
	}
	if err := mw.Close(); err != nil {
		return models.Image{}, err
	}

	path := fmt.Sprintf("/variants/%d/images", variantID)
	b, _, err := c.roundTrip(ctx, http.MethodPost, "/variants/{id}/images", path, &buf, mw.FormDataContentType(), "Failed to upload image")
	if err != nil {
		return models.Image{}, err
	}

	var out models.Image
	if err := decodeBody(b, &out); err != nil {
		return models.Image{}, err
	}
	return out, nil
}

// SetPrimaryImage marks an image as the primary one of its variant
func (c *Client) SetPrimaryImage(ctx context.Context, id int64) error {
	_, err := c.sendJSON(ctx, http.MethodPut, "/images/{id}/primary", fmt.Sprintf("/images/%d/primary", id), nil, "Failed to set primary image", nil)
	return err
}

// DeleteImage deletes an image
func (c *Client) DeleteImage(ctx context.Context, id int64) error {
	_, err := c.sendJSON(ctx, http.MethodDelete, "/images/{id}", fmt.Sprintf("/images/%d", id), nil, "Failed to delete image", nil)
	return err
}

// ImageBytes downloads the image content and its content type
func (c *Client) ImageBytes(ctx context.Context, id int64) ([]byte, string, error) {
	b, header, err := c.roundTrip(ctx, http.MethodGet, "/images/{id}/bytes", fmt.Sprintf("/images/%d/bytes", id), nil, "", "Failed to load image")
	if err != nil {
		return nil, "", err
	}
	return b, header.Get("Content-Type"), nil
}
