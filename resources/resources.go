// Package resources wraps the business endpoints the authenticated client
// carries. These are thin typed calls over the refreshing transport; none
// of them knows anything about tokens or retries.
package resources

import (
	"context"
	"fmt"
	"time"

	"github.com/masterfulhomes/dashwise-go/httpclient"
)

// Client groups the resource calls.
type Client struct {
	http *httpclient.Client
}

// NewClient wraps an authenticated transport.
func NewClient(http *httpclient.Client) *Client {
	return &Client{http: http}
}

// Installation is a scheduled installation job.
type Installation struct {
	ID            int        `json:"id"`
	CustomerID    int        `json:"customer_id"`
	CustomerName  string     `json:"customer_name"`
	PackageType   string     `json:"package_type"`
	Status        string     `json:"status"`
	TechnicianID  int        `json:"technician_id,omitempty"`
	ScheduledDate *time.Time `json:"scheduled_date,omitempty"`
	EndDate       *time.Time `json:"end_date,omitempty"`
	Price         float64    `json:"price,omitempty"`
	InvoiceID     int        `json:"invoice_id,omitempty"`
}

// Invoice is a customer invoice.
type Invoice struct {
	ID         int     `json:"id"`
	Amount     float64 `json:"amount"`
	Status     string  `json:"status"`
	OwnerID    int     `json:"owner_id,omitempty"`
	CustomerID int     `json:"customer_id"`
}

// Customer is a customer record.
type Customer struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// Customer360 is the aggregate view returned for a single customer.
type Customer360 struct {
	Profile       Customer       `json:"profile"`
	Installations []Installation `json:"installations"`
	Invoices      []Invoice      `json:"invoices"`
}

// Notification is an in-app notification.
type Notification struct {
	ID        int       `json:"id"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// TimeEntry is one clock-in/clock-out span.
type TimeEntry struct {
	ID        int        `json:"id"`
	UserID    int        `json:"user_id"`
	TenantID  string     `json:"tenant_id,omitempty"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Notes     string     `json:"notes,omitempty"`
}

// Raw fetches an arbitrary API path into out, for endpoints without a
// typed wrapper.
func (c *Client) Raw(ctx context.Context, path string, out any) error {
	return c.http.Get(ctx, path, out)
}

// ListInstallations fetches all installations visible to the session.
func (c *Client) ListInstallations(ctx context.Context) ([]Installation, error) {
	var installations []Installation
	if err := c.http.Get(ctx, "/installations", &installations); err != nil {
		return nil, err
	}
	return installations, nil
}

// CreateInstallation creates an installation job.
func (c *Client) CreateInstallation(ctx context.Context, installation *Installation) (*Installation, error) {
	var created Installation
	if err := c.http.Post(ctx, "/installations", installation, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateInstallation updates an installation job.
func (c *Client) UpdateInstallation(ctx context.Context, id int, updates *Installation) (*Installation, error) {
	var updated Installation
	if err := c.http.Put(ctx, fmt.Sprintf("/installations/%d", id), updates, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// ListInvoices fetches all invoices visible to the session.
func (c *Client) ListInvoices(ctx context.Context) ([]Invoice, error) {
	var invoices []Invoice
	if err := c.http.Get(ctx, "/invoices", &invoices); err != nil {
		return nil, err
	}
	return invoices, nil
}

// CreateInvoice creates an invoice.
func (c *Client) CreateInvoice(ctx context.Context, invoice *Invoice) (*Invoice, error) {
	var created Invoice
	if err := c.http.Post(ctx, "/invoices", invoice, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// DeleteInvoice deletes an invoice.
func (c *Client) DeleteInvoice(ctx context.Context, id int) error {
	return c.http.Delete(ctx, fmt.Sprintf("/invoices/%d", id))
}

// ListCustomers fetches customer records.
func (c *Client) ListCustomers(ctx context.Context) ([]Customer, error) {
	var customers []Customer
	if err := c.http.Get(ctx, "/customers", &customers); err != nil {
		return nil, err
	}
	return customers, nil
}

// GetCustomer360 fetches the aggregate view for one customer.
func (c *Client) GetCustomer360(ctx context.Context, id int) (*Customer360, error) {
	var view Customer360
	if err := c.http.Get(ctx, fmt.Sprintf("/customers/%d", id), &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// ListNotifications fetches recent notifications.
func (c *Client) ListNotifications(ctx context.Context, limit, offset int) ([]Notification, error) {
	var notifications []Notification
	path := fmt.Sprintf("/notifications/?limit=%d&offset=%d", limit, offset)
	if err := c.http.Get(ctx, path, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

// UnreadCount fetches the unread notification count.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var out struct {
		UnreadCount int `json:"unread_count"`
	}
	if err := c.http.Get(ctx, "/notifications/unread_count", &out); err != nil {
		return 0, err
	}
	return out.UnreadCount, nil
}

// MarkNotificationRead marks one notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id int) error {
	return c.http.Post(ctx, fmt.Sprintf("/notifications/read/%d", id), nil, nil)
}

// ClockIn starts a time entry; the backend derives user and tenant from
// the access token.
func (c *Client) ClockIn(ctx context.Context, startTime *time.Time) (*TimeEntry, error) {
	body := map[string]any{}
	if startTime != nil {
		body["start_time"] = startTime
	}
	var entry TimeEntry
	if err := c.http.Post(ctx, "/time/clock-in", body, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// ClockOut closes the open time entry.
func (c *Client) ClockOut(ctx context.Context, notes string) (*TimeEntry, error) {
	body := map[string]any{}
	if notes != "" {
		body["notes"] = notes
	}
	var entry TimeEntry
	if err := c.http.Post(ctx, "/time/clock-out", body, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}
