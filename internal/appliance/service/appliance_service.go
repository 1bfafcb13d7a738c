package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/appliancevault/appliance-vault-backend/internal/appliance/domain"
	"github.com/appliancevault/appliance-vault-backend/internal/appliance/upload"
	authservice "github.com/appliancevault/appliance-vault-backend/internal/auth/service"
	"github.com/appliancevault/appliance-vault-backend/internal/codec"
)

// Multipart field names of the add-appliance endpoint.
const (
	FieldProductImage     = "productImage"
	FieldOriginalReceipt  = "originalReceipt"
	FieldInsuranceReceipt = "insuranceReceipt"
)

const purchaseDateLayout = "2006-01-02"

// Store is the persistence contract the pipeline depends on.
type Store interface {
	Create(ctx context.Context, a *domain.Appliance) (*domain.Appliance, error)
	ListByOwner(ctx context.Context, ownerID, nameFilter string) ([]domain.Appliance, error)
	GetByOwnerAndID(ctx context.Context, ownerID, id string) (*domain.Appliance, error)
	Update(ctx context.Context, ownerID, id string, req *domain.UpdateApplianceRequest) (*domain.Appliance, error)
	Delete(ctx context.Context, ownerID, id string) error
	AppendReceipt(ctx context.Context, ownerID, id string, receipt *domain.ReceiptAsset) (*domain.Appliance, error)
}

// AddApplianceInput carries the parsed multipart request: structured
// fields plus the binary parts by field name.
type AddApplianceInput struct {
	Name         string
	CompanyName  *string
	ModelNumber  string
	PurchaseDate string
	Files        map[string]*multipart.FileHeader
}

// ApplianceService runs the asset pipeline: upload gate, codec and
// store on write; store, codec and transport re-encoding on read.
type ApplianceService struct {
	store  Store
	tokens *authservice.TokenService
}

func NewApplianceService(store Store, tokens *authservice.TokenService) *ApplianceService {
	return &ApplianceService{store: store, tokens: tokens}
}

// AddAppliance validates, compresses and persists a new appliance with
// its product image and receipts. Nothing is written unless every part
// passes the gate and compresses; the insert itself is one atomic
// document write.
func (s *ApplianceService) AddAppliance(ctx context.Context, ownerID string, in *AddApplianceInput) (*domain.Appliance, error) {
	// Received → Rejected: without the original receipt nothing else
	// is worth validating.
	if in.Files[FieldOriginalReceipt] == nil {
		verr := &domain.ValidationError{}
		verr.Add(FieldOriginalReceipt, "required", "original receipt is required")
		return nil, verr
	}

	// Validated: accumulate every field failure before reporting.
	verr := &domain.ValidationError{}

	if strings.TrimSpace(in.Name) == "" {
		verr.Add("name", "required", "name must not be empty")
	}
	if strings.TrimSpace(in.ModelNumber) == "" {
		verr.Add("modelNumber", "required", "model number must not be empty")
	}

	purchaseDate, err := time.Parse(purchaseDateLayout, in.PurchaseDate)
	if err != nil {
		verr.Add("purchaseDate", "format", "purchase date must be a valid YYYY-MM-DD date")
	}

	if gateErr := upload.Gate(in.Files, map[string]upload.Rule{
		FieldProductImage:     {Required: true, AllowedTypes: upload.ImageTypes},
		FieldOriginalReceipt:  {Required: true, AllowedTypes: upload.ReceiptTypes},
		FieldInsuranceReceipt: {Required: false, AllowedTypes: upload.ReceiptTypes},
	}); gateErr != nil {
		verr.Fields = append(verr.Fields, gateErr.Fields...)
	}

	if verr.HasErrors() {
		return nil, verr
	}

	// Compressed: the parts are independent, so they compress
	// concurrently; any failure aborts before anything is persisted.
	fields := []string{FieldProductImage, FieldOriginalReceipt}
	if in.Files[FieldInsuranceReceipt] != nil {
		fields = append(fields, FieldInsuranceReceipt)
	}

	assets, err := s.compressParts(in.Files, fields)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	receipts := []domain.ReceiptAsset{{
		Asset:     assets[FieldOriginalReceipt],
		ID:        uuid.NewString(),
		Name:      FieldOriginalReceipt,
		CreatedAt: now,
	}}
	if a, ok := assets[FieldInsuranceReceipt]; ok {
		receipts = append(receipts, domain.ReceiptAsset{
			Asset:     a,
			ID:        uuid.NewString(),
			Name:      FieldInsuranceReceipt,
			CreatedAt: now,
		})
	}

	// Persisted: one document insert carries the image and all
	// receipts.
	created, err := s.store.Create(ctx, &domain.Appliance{
		OwnerUserID:  ownerID,
		Name:         strings.TrimSpace(in.Name),
		CompanyName:  in.CompanyName,
		ModelNumber:  strings.TrimSpace(in.ModelNumber),
		PurchaseDate: purchaseDate,
		ProductImage: assets[FieldProductImage],
		Receipts:     receipts,
	})
	if err != nil {
		return nil, fmt.Errorf("persist appliance: %w", err)
	}

	return s.transportAppliance(created), nil
}

// ListAppliances returns the owner's appliances, filtered by an
// optional case-insensitive name substring, with assets decompressed
// for transport.
func (s *ApplianceService) ListAppliances(ctx context.Context, ownerID, nameFilter string) ([]domain.Appliance, error) {
	appliances, err := s.store.ListByOwner(ctx, ownerID, nameFilter)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Appliance, len(appliances))
	for i := range appliances {
		out[i] = *s.transportAppliance(&appliances[i])
	}
	return out, nil
}

// GetAppliance returns one owner-scoped appliance with assets
// decompressed for transport.
func (s *ApplianceService) GetAppliance(ctx context.Context, ownerID, id string) (*domain.Appliance, error) {
	a, err := s.store.GetByOwnerAndID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	return s.transportAppliance(a), nil
}

// UpdateAppliance applies a partial field update.
func (s *ApplianceService) UpdateAppliance(ctx context.Context, ownerID, id string, req *domain.UpdateApplianceRequest) (*domain.Appliance, error) {
	verr := &domain.ValidationError{}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		verr.Add("name", "required", "name must not be empty")
	}
	if req.ModelNumber != nil && strings.TrimSpace(*req.ModelNumber) == "" {
		verr.Add("modelNumber", "required", "model number must not be empty")
	}
	if verr.HasErrors() {
		return nil, verr
	}

	a, err := s.store.Update(ctx, ownerID, id, req)
	if err != nil {
		return nil, err
	}
	return s.transportAppliance(a), nil
}

// DeleteAppliance removes an owner-scoped appliance and its embedded
// receipts.
func (s *ApplianceService) DeleteAppliance(ctx context.Context, ownerID, id string) error {
	return s.store.Delete(ctx, ownerID, id)
}

// AppendReceipt validates, compresses and embeds an additional receipt
// on an owned appliance. This endpoint tolerates a missing declared
// content type when the filename extension is recognizable.
func (s *ApplianceService) AppendReceipt(ctx context.Context, ownerID, id string, fh *multipart.FileHeader) (*domain.Appliance, error) {
	files := map[string]*multipart.FileHeader{FieldOriginalReceipt: fh}
	if verr := upload.Gate(files, map[string]upload.Rule{
		FieldOriginalReceipt: {Required: true, AllowedTypes: upload.ReceiptTypes, AllowExtFallback: true},
	}); verr != nil {
		return nil, verr
	}

	asset, err := s.compressPart(fh)
	if err != nil {
		return nil, err
	}

	receipt := &domain.ReceiptAsset{
		Asset:     *asset,
		ID:        uuid.NewString(),
		Name:      receiptName(fh.Filename),
		CreatedAt: time.Now().UTC(),
	}

	a, err := s.store.AppendReceipt(ctx, ownerID, id, receipt)
	if err != nil {
		return nil, err
	}
	return s.transportAppliance(a), nil
}

// DownloadReceipt serves the direct-download path. The credential
// arrives as a query parameter because embedded <img>/<iframe> clients
// cannot set headers; ownership is re-derived solely from the decoded
// token rather than through the standard bearer gate.
func (s *ApplianceService) DownloadReceipt(ctx context.Context, rawToken, applianceID, receiptID string) (*domain.ReceiptAsset, []byte, error) {
	claims, err := s.tokens.Verify(rawToken)
	if err != nil {
		return nil, nil, err
	}

	a, err := s.store.GetByOwnerAndID(ctx, claims.UserID, applianceID)
	if err != nil {
		return nil, nil, err
	}

	for i := range a.Receipts {
		if a.Receipts[i].ID == receiptID {
			raw := s.decodeAssetBytes(&a.Receipts[i].Asset, "receipt "+receiptID)
			return &a.Receipts[i], raw, nil
		}
	}
	return nil, nil, domain.ErrNotFound
}

// compressParts runs the codec over the given parts concurrently and
// joins the results; the first failure wins and nothing is persisted.
func (s *ApplianceService) compressParts(files map[string]*multipart.FileHeader, fields []string) (map[string]domain.Asset, error) {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		assets   = make(map[string]domain.Asset, len(fields))
		firstErr error
	)

	for _, field := range fields {
		wg.Add(1)
		go func(field string, fh *multipart.FileHeader) {
			defer wg.Done()

			asset, err := s.compressPart(fh)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("%s: %w", field, err)
				}
				return
			}
			assets[field] = *asset
		}(field, files[field])
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return assets, nil
}

// compressPart reads one uploaded part, enforces the size ceiling on
// the actual bytes and produces the stored asset form: compressed
// bytes, base64-encoded, with the original size kept in FileSize.
func (s *ApplianceService) compressPart(fh *multipart.FileHeader) (*domain.Asset, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	raw, err := io.ReadAll(io.LimitReader(f, domain.MaxAssetSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(raw)) > domain.MaxAssetSize {
		verr := &domain.ValidationError{}
		verr.Add(fh.Filename, "max_size", fmt.Sprintf("file exceeds the %d byte limit", domain.MaxAssetSize))
		return nil, verr
	}

	compressed, err := codec.Compress(raw)
	if err != nil {
		return nil, err
	}

	return &domain.Asset{
		Data:        base64.StdEncoding.EncodeToString(compressed),
		ContentType: fh.Header.Get("Content-Type"),
		FileName:    fh.Filename,
		FileSize:    int64(len(raw)),
	}, nil
}

// transportAppliance returns a copy of the appliance with every
// embedded asset rewritten from stored form (base64 of compressed
// bytes) to transport form (base64 of original bytes). The input is
// left untouched; the store may hand back the record it holds, and the
// persisted form must stay compressed. Degraded reads are logged and
// served as stored.
func (s *ApplianceService) transportAppliance(a *domain.Appliance) *domain.Appliance {
	out := *a

	raw := s.decodeAssetBytes(&a.ProductImage, "product image of appliance "+a.ID)
	out.ProductImage.Data = base64.StdEncoding.EncodeToString(raw)

	out.Receipts = make([]domain.ReceiptAsset, len(a.Receipts))
	for i := range a.Receipts {
		out.Receipts[i] = a.Receipts[i]
		raw := s.decodeAssetBytes(&a.Receipts[i].Asset, "receipt "+a.Receipts[i].ID)
		out.Receipts[i].Data = base64.StdEncoding.EncodeToString(raw)
	}
	return &out
}

// decodeAssetBytes returns the asset's original bytes on the happy
// path and whatever is stored otherwise; it never fails the response.
func (s *ApplianceService) decodeAssetBytes(asset *domain.Asset, what string) []byte {
	stored, err := base64.StdEncoding.DecodeString(asset.Data)
	if err != nil {
		log.Printf("[assets] %s: stored data is not valid base64, serving as-is", what)
		return []byte(asset.Data)
	}

	raw, degraded := codec.Decompress(stored)
	if degraded {
		log.Printf("[assets] %s: degraded decompression, serving stored bytes", what)
	}
	return raw
}

func receiptName(filename string) string {
	base := filepath.Base(filename)
	if name := strings.TrimSuffix(base, filepath.Ext(base)); name != "" {
		return name
	}
	return FieldOriginalReceipt
}
