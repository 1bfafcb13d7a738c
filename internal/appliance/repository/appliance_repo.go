package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/appliancevault/appliance-vault-backend/internal/appliance/domain"
)

// ApplianceRepository persists appliance documents. The product image
// and receipt list are embedded as jsonb, so one row insert/update is
// one atomic document write.
type ApplianceRepository struct {
	db *pgxpool.Pool
}

func NewApplianceRepository(db *pgxpool.Pool) *ApplianceRepository {
	return &ApplianceRepository{db: db}
}

const applianceColumns = `
id, user_id, name, company_name, model_number, purchase_date,
product_image, receipts, created_at, updated_at`

// validID guards the $n::uuid casts: a malformed path id is simply a
// record that does not exist, not a database error.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// escapeLike makes the user-supplied substring literal inside an ILIKE
// pattern.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Create inserts a complete appliance document in one statement.
func (r *ApplianceRepository) Create(ctx context.Context, a *domain.Appliance) (*domain.Appliance, error) {
	imageJSON, err := json.Marshal(a.ProductImage)
	if err != nil {
		return nil, fmt.Errorf("marshal product image: %w", err)
	}
	receiptsJSON, err := json.Marshal(a.Receipts)
	if err != nil {
		return nil, fmt.Errorf("marshal receipts: %w", err)
	}

	q := `
INSERT INTO appliances (user_id, name, company_name, model_number, purchase_date, product_image, receipts)
VALUES ($1::uuid, $2, $3, $4, $5, $6, $7)
RETURNING` + applianceColumns + `;`

	row := r.db.QueryRow(ctx, q,
		a.OwnerUserID, a.Name, a.CompanyName, a.ModelNumber, a.PurchaseDate, imageJSON, receiptsJSON)
	return scanAppliance(row)
}

// ListByOwner returns the owner's appliances, optionally filtered by a
// case-insensitive name substring. The empty filter matches all; order
// is stable across calls.
func (r *ApplianceRepository) ListByOwner(ctx context.Context, ownerID, nameFilter string) ([]domain.Appliance, error) {
	q := `
SELECT` + applianceColumns + `
FROM appliances
WHERE user_id = $1::uuid
  AND ($2 = '' OR name ILIKE '%' || $2 || '%')
ORDER BY created_at DESC, id;`

	rows, err := r.db.Query(ctx, q, ownerID, escapeLike(nameFilter))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Appliance, 0, 16)
	for rows.Next() {
		a, err := scanAppliance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// GetByOwnerAndID fetches one appliance scoped by owner.
func (r *ApplianceRepository) GetByOwnerAndID(ctx context.Context, ownerID, id string) (*domain.Appliance, error) {
	if !validID(id) {
		return nil, domain.ErrNotFound
	}

	q := `
SELECT` + applianceColumns + `
FROM appliances
WHERE id = $1::uuid AND user_id = $2::uuid;`

	a, err := scanAppliance(r.db.QueryRow(ctx, q, id, ownerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return a, err
}

// Update applies a partial merge scoped by owner. CompanyName is
// tri-state: when set is false the stored value is kept, otherwise the
// provided value (possibly null) replaces it.
func (r *ApplianceRepository) Update(ctx context.Context, ownerID, id string, req *domain.UpdateApplianceRequest) (*domain.Appliance, error) {
	if !validID(id) {
		return nil, domain.ErrNotFound
	}

	q := `
UPDATE appliances
SET name          = COALESCE($3, name),
    model_number  = COALESCE($4, model_number),
    purchase_date = COALESCE($5, purchase_date),
    company_name  = CASE WHEN $6 THEN $7 ELSE company_name END,
    updated_at    = NOW()
WHERE id = $1::uuid AND user_id = $2::uuid
RETURNING` + applianceColumns + `;`

	row := r.db.QueryRow(ctx, q,
		id, ownerID, req.Name, req.ModelNumber, req.PurchaseDate, req.CompanyNameSet, req.CompanyName)
	a, err := scanAppliance(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return a, err
}

// Delete removes an appliance scoped by owner; embedded receipts go
// with it.
func (r *ApplianceRepository) Delete(ctx context.Context, ownerID, id string) error {
	if !validID(id) {
		return domain.ErrNotFound
	}

	const q = `DELETE FROM appliances WHERE id = $1::uuid AND user_id = $2::uuid;`
	ct, err := r.db.Exec(ctx, q, id, ownerID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AppendReceipt adds a receipt to the embedded list in one atomic
// document update scoped by owner.
func (r *ApplianceRepository) AppendReceipt(ctx context.Context, ownerID, id string, receipt *domain.ReceiptAsset) (*domain.Appliance, error) {
	if !validID(id) {
		return nil, domain.ErrNotFound
	}

	receiptJSON, err := json.Marshal(receipt)
	if err != nil {
		return nil, fmt.Errorf("marshal receipt: %w", err)
	}

	q := `
UPDATE appliances
SET receipts   = receipts || $3::jsonb,
    updated_at = NOW()
WHERE id = $1::uuid AND user_id = $2::uuid
RETURNING` + applianceColumns + `;`

	a, err := scanAppliance(r.db.QueryRow(ctx, q, id, ownerID, receiptJSON))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return a, err
}

func scanAppliance(row pgx.Row) (*domain.Appliance, error) {
	var (
		a            domain.Appliance
		imageJSON    []byte
		receiptsJSON []byte
	)
	err := row.Scan(
		&a.ID,
		&a.OwnerUserID,
		&a.Name,
		&a.CompanyName,
		&a.ModelNumber,
		&a.PurchaseDate,
		&imageJSON,
		&receiptsJSON,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(imageJSON, &a.ProductImage); err != nil {
		return nil, fmt.Errorf("unmarshal product image: %w", err)
	}
	if len(receiptsJSON) > 0 {
		if err := json.Unmarshal(receiptsJSON, &a.Receipts); err != nil {
			return nil, fmt.Errorf("unmarshal receipts: %w", err)
		}
	}
	if a.Receipts == nil {
		a.Receipts = []domain.ReceiptAsset{}
	}

	return &a, nil
}
