package api

import (
	"net/http"
	"strconv"

	"phone-storefront/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) listSellers(c *gin.Context) {
	sellers, err := h.sf.Backend.ListSellers(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sellers)
}

func (h *Handler) mySeller(c *gin.Context) {
	s, err := h.sf.Backend.GetMySeller(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *Handler) createSeller(c *gin.Context) {
	var in models.SellerInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}
	s, err := h.sf.Backend.CreateSeller(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

func (h *Handler) updateSeller(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in models.SellerInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}
	s, err := h.sf.Backend.UpdateSeller(c.Request.Context(), id, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *Handler) listImages(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	images, err := h.sf.Backend.ListVariantImages(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, images)
}

// uploadImage forwards the "file" form part of a multipart request
func (h *Handler) uploadImage(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "Missing file", err)
		return
	}
	primary, _ := strconv.ParseBool(c.PostForm("primary"))

	f, err := fh.Open()
	if err != nil {
		badRequest(c, "Unreadable file", err)
		return
	}
	defer f.Close()

	img, err := h.sf.Backend.UploadVariantImage(c.Request.Context(), id, fh.Filename, f, primary)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, img)
}

func (h *Handler) setPrimaryImage(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.sf.Backend.SetPrimaryImage(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) deleteImage(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.sf.Backend.DeleteImage(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) imageBytes(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	b, contentType, err := h.sf.Backend.ImageBytes(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if contentType == "" {
		contentType = http.DetectContentType(b)
	}
	c.Data(http.StatusOK, contentType, b)
}
