package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/appliancevault/appliance-vault-backend/internal/appliance/domain"
	"github.com/appliancevault/appliance-vault-backend/internal/appliance/service"
	"github.com/appliancevault/appliance-vault-backend/internal/auth"
	authdomain "github.com/appliancevault/appliance-vault-backend/internal/auth/domain"
)

// Add runs the add-appliance pipeline over a multipart request.
func (h *Handler) Add(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form is required"})
		return
	}

	in := &service.AddApplianceInput{
		Name:         c.PostForm("name"),
		ModelNumber:  c.PostForm("modelNumber"),
		PurchaseDate: c.PostForm("purchaseDate"),
		Files:        firstFiles(form),
	}
	if values, ok := form.Value["companyName"]; ok && len(values) > 0 {
		in.CompanyName = &values[0]
	}

	created, err := h.applianceService.AddAppliance(c.Request.Context(), auth.UserID(c), in)
	if err != nil {
		h.respondError(c, err, "failed to add appliance")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"appliance": created})
}

// List returns the caller's appliances, optionally filtered by the
// `filter` query parameter (case-insensitive name substring).
func (h *Handler) List(c *gin.Context) {
	appliances, err := h.applianceService.ListAppliances(c.Request.Context(), auth.UserID(c), c.Query("filter"))
	if err != nil {
		h.respondError(c, err, "failed to list appliances")
		return
	}

	c.JSON(http.StatusOK, gin.H{"appliances": appliances})
}

// Get returns a single owned appliance with decompressed assets.
func (h *Handler) Get(c *gin.Context) {
	a, err := h.applianceService.GetAppliance(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "failed to load appliance")
		return
	}

	c.JSON(http.StatusOK, gin.H{"appliance": a})
}

// Update applies a partial field update. companyName is tri-state:
// absent keeps the stored value, an explicit null clears it.
func (h *Handler) Update(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	var req updateReq
	if err := json.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(body, &keys); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	_, companySet := keys["companyName"]

	update := &domain.UpdateApplianceRequest{
		Name:           req.Name,
		CompanyName:    req.CompanyName,
		CompanyNameSet: companySet,
		ModelNumber:    req.ModelNumber,
	}

	if req.PurchaseDate != nil {
		parsed, err := time.Parse("2006-01-02", *req.PurchaseDate)
		if err != nil {
			verr := &domain.ValidationError{}
			verr.Add("purchaseDate", "format", "purchase date must be a valid YYYY-MM-DD date")
			h.respondError(c, verr, "")
			return
		}
		update.PurchaseDate = &parsed
	}

	a, err := h.applianceService.UpdateAppliance(c.Request.Context(), auth.UserID(c), c.Param("id"), update)
	if err != nil {
		h.respondError(c, err, "failed to update appliance")
		return
	}

	c.JSON(http.StatusOK, gin.H{"appliance": a})
}

// Delete removes an owned appliance and its embedded receipts.
func (h *Handler) Delete(c *gin.Context) {
	if err := h.applianceService.DeleteAppliance(c.Request.Context(), auth.UserID(c), c.Param("id")); err != nil {
		h.respondError(c, err, "failed to delete appliance")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "appliance deleted"})
}

// AppendReceipt embeds an additional receipt on an owned appliance.
func (h *Handler) AppendReceipt(c *gin.Context) {
	fh, err := c.FormFile(service.FieldOriginalReceipt)
	if err != nil {
		verr := &domain.ValidationError{}
		verr.Add(service.FieldOriginalReceipt, "required", "file is required")
		h.respondError(c, verr, "")
		return
	}

	a, err := h.applianceService.AppendReceipt(c.Request.Context(), auth.UserID(c), c.Param("id"), fh)
	if err != nil {
		h.respondError(c, err, "failed to append receipt")
		return
	}

	c.JSON(http.StatusOK, gin.H{"appliance": a})
}

// Download streams one receipt's raw decompressed bytes. The token
// travels as a query parameter so <img>/<iframe> embeds can use this
// route; ownership comes solely from the decoded token.
func (h *Handler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	receipt, raw, err := h.applianceService.DownloadReceipt(
		c.Request.Context(), token, c.Param("id"), c.Param("receiptId"))
	if err != nil {
		switch {
		case errors.Is(err, authdomain.ErrTokenExpired):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token expired"})
		case errors.Is(err, authdomain.ErrTokenInvalid):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		case errors.Is(err, domain.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "receipt not found"})
		default:
			h.respondError(c, err, "failed to download receipt")
		}
		return
	}

	contentType := receipt.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", receipt.FileName))
	c.Data(http.StatusOK, contentType, raw)
}

// respondError maps the error taxonomy onto status codes; internal
// detail is hidden in production.
func (h *Handler) respondError(c *gin.Context, err error, msg string) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": verr.Fields})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "appliance not found"})
	case h.production:
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg, "details": err.Error()})
	}
}

// firstFiles flattens the multipart file map to one header per field.
func firstFiles(form *multipart.Form) map[string]*multipart.FileHeader {
	files := make(map[string]*multipart.FileHeader, len(form.File))
	for field, headers := range form.File {
		if len(headers) > 0 {
			files[field] = headers[0]
		}
	}
	return files
}
