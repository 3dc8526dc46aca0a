package backend

import (
	"context"
	"fmt"
	"net/http"

	"phone-storefront/internal/models"
)

// ListBrands fetches all brands
func (c *Client) ListBrands(ctx context.Context) ([]models.Brand, error) {
	return listCollection[models.Brand](ctx, c, "/brands", "/brands", "Failed to load brands")
}

// GetBrand fetches a brand
func (c *Client) GetBrand(ctx context.Context, id int64) (models.Brand, error) {
	var out models.Brand
	err := c.getJSON(ctx, "/brands/{id}", fmt.Sprintf("/brands/%d", id), "Failed to load brand", &out)
	return out, err
}

// UpdateBrand renames a brand
func (c *Client) UpdateBrand(ctx context.Context, id int64, in models.BrandInput) (models.Brand, error) {
	var out models.Brand
	_, err := c.sendJSON(ctx, http.MethodPut, "/brands/{id}", fmt.Sprintf("/brands/%d", id), in, "Failed to update brand", &out)
	if err == nil && out.ID == 0 {
		out = models.Brand{ID: id, Name: in.Name}
	}
	return out, err
}

// ListDeviceModels fetches all device models
func (c *Client) ListDeviceModels(ctx context.Context) ([]models.DeviceModel, error) {
	return listCollection[models.DeviceModel](ctx, c, "/device-models", "/device-models", "Failed to load device models")
}

// GetDeviceModel fetches a device model
func (c *Client) GetDeviceModel(ctx context.Context, id int64) (models.DeviceModel, error) {
	var out models.DeviceModel
	err := c.getJSON(ctx, "/device-models/{id}", fmt.Sprintf("/device-models/%d", id), "Failed to load device model", &out)
	return out, err
}

// CreateDeviceModel creates a device model
func (c *Client) CreateDeviceModel(ctx context.Context, in models.DeviceModelInput) (models.DeviceModel, error) {
	var out models.DeviceModel
	_, err := c.sendJSON(ctx, http.MethodPost, "/device-models", "/device-models", in, "Failed to create device model", &out)
	return out, err
}

// UpdateDeviceModel updates a device model
func (c *Client) UpdateDeviceModel(ctx context.Context, id int64, in models.DeviceModelInput) (models.DeviceModel, error) {
	var out models.DeviceModel
	_, err := c.sendJSON(ctx, http.MethodPut, "/device-models/{id}", fmt.Sprintf("/device-models/%d", id), in, "Failed to update device model", &out)
	return out, err
}

// ListVariants fetches all variants
func (c *Client) ListVariants(ctx context.Context) ([]models.Variant, error) {
	return listCollection[models.Variant](ctx, c, "/variants", "/variants", "Failed to load variants")
}

// GetVariant fetches a variant
func (c *Client) GetVariant(ctx context.Context, id int64) (models.Variant, error) {
	var out models.Variant
	err := c.getJSON(ctx, "/variants/{id}", fmt.Sprintf("/variants/%d", id), "Failed to load variant", &out)
	return out, err
}

// CreateVariant creates a variant
func (c *Client) CreateVariant(ctx context.Context, in models.VariantInput) (models.Variant, error) {
	var out models.Variant
	_, err := c.sendJSON(ctx, http.MethodPost, "/variants", "/variants", in, "Failed to create variant", &out)
	return out, err
}

// UpdateVariant updates a variant
func (c *Client) UpdateVariant(ctx context.Context, id int64, in models.VariantInput) (models.Variant, error) {
	var out models.Variant
	_, err := c.sendJSON(ctx, http.MethodPut, "/variants/{id}", fmt.Sprintf("/variants/%d", id), in, "Failed to update variant", &out)
	return out, err
}
