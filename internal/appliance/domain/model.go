package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrNotFound = errors.New("appliance not found")

// MaxAssetSize is the upload ceiling for a single binary part.
const MaxAssetSize = 5 << 20 // 5 MiB

// Asset is an embedded binary attachment. Data holds the compressed
// bytes re-encoded as base64; FileSize stays the size of the original
// upload, so the two are intentionally decoupled.
type Asset struct {
	Data        string `json:"data"`
	ContentType string `json:"contentType"`
	FileName    string `json:"fileName"`
	FileSize    int64  `json:"fileSize"`
}

// ReceiptAsset is an Asset with an identity of its own so single
// receipts can be addressed for download.
type ReceiptAsset struct {
	Asset
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Appliance is an owner-scoped inventory record. The product image and
// receipts are embedded; deleting the appliance removes them with it.
type Appliance struct {
	ID           string         `json:"id"`
	OwnerUserID  string         `json:"ownerUserId"`
	Name         string         `json:"name"`
	CompanyName  *string        `json:"companyName"`
	ModelNumber  string         `json:"modelNumber"`
	PurchaseDate time.Time      `json:"purchaseDate"`
	ProductImage Asset          `json:"productImage"`
	Receipts     []ReceiptAsset `json:"receipts"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// UpdateApplianceRequest is a partial field update. Nil pointers keep
// the stored value; CompanyName is tri-state (absent = keep, null =
// clear, value = set), carried by CompanyNameSet.
type UpdateApplianceRequest struct {
	Name           *string
	CompanyName    *string
	CompanyNameSet bool
	ModelNumber    *string
	PurchaseDate   *time.Time
}

// FieldError identifies which field and which rule a validation
// failure hit.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError accumulates every field failure of a request so the
// client sees them all at once.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add appends a field failure.
func (e *ValidationError) Add(field, rule, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Rule: rule, Message: message})
}

// HasErrors reports whether any field failed.
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}
