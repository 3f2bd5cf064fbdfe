package customer

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrIdentityRequired = errors.New("either customer id or inline customer details are required")
	ErrNameRequired     = errors.New("customer name is required for a manual customer")
	ErrInvalidEmail     = errors.New("invalid email format")
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// Contact holds optional contact fields. nil means "not supplied".
type Contact struct {
	Name            *string
	Phone           *string
	Email           *string
	DeliveryAddress *Address
}

func (c Contact) IsEmpty() bool {
	return c.Name == nil && c.Phone == nil && c.Email == nil && c.DeliveryAddress == nil
}

func (c Contact) validate() error {
	if c.Email != nil && !emailRegex.MatchString(strings.TrimSpace(*c.Email)) {
		return ErrInvalidEmail
	}
	return nil
}

// Identity is how an order names its buyer: an existing customer (whose contact
// is refreshed with Contact) or, when ID is nil, an inline manual customer.
type Identity struct {
	ID      *uuid.UUID
	Contact Contact
}

func (i Identity) Validate() error {
	if i.ID == nil && i.Contact.IsEmpty() {
		return ErrIdentityRequired
	}
	if err := i.Contact.validate(); err != nil {
		return err
	}
	if i.ID == nil && (i.Contact.Name == nil || strings.TrimSpace(*i.Contact.Name) == "") {
		return ErrNameRequired
	}
	return nil
}

func (i Identity) IsExisting() bool {
	return i.ID != nil
}

// Snapshot freezes the inline details. Only meaningful for manual customers.
func (i Identity) Snapshot() *Snapshot {
	if i.ID != nil {
		return nil
	}
	return &Snapshot{
		Name:            strings.TrimSpace(valueOr(i.Contact.Name, "")),
		Phone:           valueOr(i.Contact.Phone, ""),
		Email:           valueOr(i.Contact.Email, ""),
		DeliveryAddress: i.Contact.DeliveryAddress,
	}
}

// Snapshot is the immutable manual-customer copy embedded in an order.
type Snapshot struct {
	Name            string   `json:"name"`
	Phone           string   `json:"phone,omitempty"`
	Email           string   `json:"email,omitempty"`
	DeliveryAddress *Address `json:"deliveryAddress,omitempty"`
}

type Customer struct {
	id              uuid.UUID
	tenantID        string
	name            string
	phone           string
	email           string
	deliveryAddress *Address
	updatedAt       time.Time
}

func Reconstruct(id uuid.UUID, tenantID, name, phone, email string, addr *Address, updatedAt time.Time) *Customer {
	return &Customer{
		id:              id,
		tenantID:        tenantID,
		name:            name,
		phone:           phone,
		email:           email,
		deliveryAddress: addr,
		updatedAt:       updatedAt,
	}
}

// Refresh overwrites the supplied contact fields and keeps the rest.
func (c *Customer) Refresh(contact Contact, now time.Time) {
	c.name = valueOr(contact.Name, c.name)
	c.phone = valueOr(contact.Phone, c.phone)
	c.email = valueOr(contact.Email, c.email)
	if contact.DeliveryAddress != nil {
		addr := *contact.DeliveryAddress
		c.deliveryAddress = &addr
	}
	c.updatedAt = now
}

func (c *Customer) ID() uuid.UUID             { return c.id }
func (c *Customer) TenantID() string          { return c.tenantID }
func (c *Customer) Name() string              { return c.name }
func (c *Customer) Phone() string             { return c.phone }
func (c *Customer) Email() string             { return c.email }
func (c *Customer) DeliveryAddress() *Address { return c.deliveryAddress }
func (c *Customer) UpdatedAt() time.Time      { return c.updatedAt }

// valueOr dereferences p, treating nil as "not supplied".
func valueOr[T any](p *T, fallback T) T {
	if p != nil {
		return *p
	}
	return fallback
}
