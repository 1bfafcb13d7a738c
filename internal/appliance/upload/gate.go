// Package upload validates incoming multipart parts before any
// compression or storage work happens.
package upload

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/appliancevault/appliance-vault-backend/internal/appliance/domain"
)

// Content types accepted for each kind of part.
var (
	ImageTypes   = []string{"image/jpeg", "image/png"}
	ReceiptTypes = []string{"image/jpeg", "image/png", "application/pdf"}
)

// Extensions accepted as a fallback when a part arrives without a
// usable declared content type.
var fallbackExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".pdf":  "application/pdf",
}

// Rule is the per-field validation policy.
type Rule struct {
	Required     bool
	AllowedTypes []string
	// AllowExtFallback accepts the part when its filename extension
	// maps to an allowed type even though the declared content type
	// does not.
	AllowExtFallback bool
}

// Gate checks a set of named multipart parts against per-field rules.
// Every violation is accumulated; the returned *domain.ValidationError
// is nil when all parts pass.
func Gate(files map[string]*multipart.FileHeader, rules map[string]Rule) *domain.ValidationError {
	verr := &domain.ValidationError{}

	for field, rule := range rules {
		fh, ok := files[field]
		if !ok || fh == nil {
			if rule.Required {
				verr.Add(field, "required", "file is required")
			}
			continue
		}

		if !typeAllowed(fh, rule) {
			verr.Add(field, "content_type",
				fmt.Sprintf("content type %q is not allowed", declaredType(fh)))
		}

		if fh.Size > domain.MaxAssetSize {
			verr.Add(field, "max_size",
				fmt.Sprintf("file exceeds the %d byte limit", domain.MaxAssetSize))
		}
	}

	if !verr.HasErrors() {
		return nil
	}
	return verr
}

func declaredType(fh *multipart.FileHeader) string {
	ct := fh.Header.Get("Content-Type")
	// strip parameters like "; charset=..."
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

func typeAllowed(fh *multipart.FileHeader, rule Rule) bool {
	ct := declaredType(fh)
	for _, allowed := range rule.AllowedTypes {
		if ct == allowed {
			return true
		}
	}

	if !rule.AllowExtFallback {
		return false
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	mapped, ok := fallbackExtensions[ext]
	if !ok {
		return false
	}
	for _, allowed := range rule.AllowedTypes {
		if mapped == allowed {
			return true
		}
	}
	return false
}
