package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appliancevault/appliance-vault-backend/internal/appliance/domain"
)

const testOwnerID = "5d2f0a51-7c5e-4c2b-9f6a-3b8d1c4e9a10"

// A malformed path id must read as "no such record" and never reach
// the database, so a nil pool proves the short circuit.
func TestMalformedIDReadsAsNotFound(t *testing.T) {
	repo := NewApplianceRepository(nil)
	ctx := context.Background()

	_, err := repo.GetByOwnerAndID(ctx, testOwnerID, "abc")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = repo.Update(ctx, testOwnerID, "not-a-uuid", &domain.UpdateApplianceRequest{})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = repo.Delete(ctx, testOwnerID, "../etc")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = repo.AppendReceipt(ctx, testOwnerID, "", &domain.ReceiptAsset{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEscapeLike(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"fridge", "fridge"},
		{"100%", `100\%`},
		{"RF_100", `RF\_100`},
		{`a\b`, `a\\b`},
		{"", ""},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, escapeLike(tc.in), tc.in)
	}
}
