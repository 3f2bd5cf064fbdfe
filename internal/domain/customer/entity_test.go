//go:build unit

package customer_test

import (
	"testing"
	"time"

	"order-pipeline/internal/domain/customer"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func TestIdentityValidate(t *testing.T) {
	id := uuid.New()

	cases := []struct {
		name     string
		identity customer.Identity
		errIs    error
	}{
		{name: "existing customer without contact", identity: customer.Identity{ID: &id}},
		{name: "existing customer with contact refresh", identity: customer.Identity{ID: &id, Contact: customer.Contact{Phone: ptr("555-0100")}}},
		{name: "manual customer with name", identity: customer.Identity{Contact: customer.Contact{Name: ptr("Jane")}}},
		{name: "nothing supplied", identity: customer.Identity{}, errIs: customer.ErrIdentityRequired},
		{name: "manual customer without name", identity: customer.Identity{Contact: customer.Contact{Email: ptr("a@b.io")}}, errIs: customer.ErrNameRequired},
		{name: "manual customer with blank name", identity: customer.Identity{Contact: customer.Contact{Name: ptr("  ")}}, errIs: customer.ErrNameRequired},
		{name: "malformed email", identity: customer.Identity{ID: &id, Contact: customer.Contact{Email: ptr("not-an-email")}}, errIs: customer.ErrInvalidEmail},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.identity.Validate()
			if tc.errIs == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.errIs)
		})
	}
}

func TestIdentitySnapshot(t *testing.T) {
	t.Run("manual customer is frozen", func(t *testing.T) {
		addr := &customer.Address{Line1: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US"}
		got := customer.Identity{Contact: customer.Contact{
			Name:            ptr(" Jane "),
			Email:           ptr("jane@example.com"),
			DeliveryAddress: addr,
		}}.Snapshot()

		want := &customer.Snapshot{Name: "Jane", Email: "jane@example.com", DeliveryAddress: addr}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Snapshot mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("existing customer has no snapshot", func(t *testing.T) {
		id := uuid.New()
		assert.Nil(t, customer.Identity{ID: &id, Contact: customer.Contact{Name: ptr("Jane")}}.Snapshot())
	})
}

func TestCustomerRefresh(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := created.Add(time.Hour)
	c := customer.Reconstruct(uuid.New(), "t1", "Old Name", "111", "old@example.com", nil, created)

	c.Refresh(customer.Contact{
		Email:           ptr("new@example.com"),
		DeliveryAddress: &customer.Address{Line1: "2 Side St", City: "Shelbyville", PostalCode: "54321", Country: "US"},
	}, now)

	assert.Equal(t, "Old Name", c.Name(), "unsupplied fields are kept")
	assert.Equal(t, "111", c.Phone())
	assert.Equal(t, "new@example.com", c.Email())
	require.NotNil(t, c.DeliveryAddress())
	assert.Equal(t, "Shelbyville", c.DeliveryAddress().City)
	assert.Equal(t, now, c.UpdatedAt())
}
