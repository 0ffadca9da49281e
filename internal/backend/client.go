package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"vetclinic/internal/entities"
	apperrors "vetclinic/internal/errors"
)

// SessionCookieName is the cookie the clinic backend expects on every call.
const SessionCookieName = "clinic_session"

// Client talks to the remote clinic REST backend. The backend is the
// authoritative store for carts, veterinarians and appointments; this client
// only forwards credentials and normalizes the loosely shaped responses into
// canonical entities.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Credentials carries the caller's clinic session cookie and bearer token.
type Credentials struct {
	SessionCookie string
	Token         string
}

func (c *Client) GetCart(ctx context.Context, creds Credentials, userID string) ([]entities.CartLine, error) {
	var payload []ProductPayload
	q := url.Values{"userId": {userID}}
	if err := c.do(ctx, creds, http.MethodGet, "/cart", q, nil, &payload); err != nil {
		return nil, err
	}
	lines := make([]entities.CartLine, 0, len(payload))
	for _, p := range payload {
		lines = append(lines, p.CartLine())
	}
	return lines, nil
}

func (c *Client) AddCartItem(ctx context.Context, creds Credentials, userID, productID string, quantity int) error {
	body := map[string]any{
		"userId":    userID,
		"productId": productID,
		"quantity":  quantity,
	}
	return c.do(ctx, creds, http.MethodPost, "/cart/items", nil, body, nil)
}

func (c *Client) RemoveCartItem(ctx context.Context, creds Credentials, productID string) error {
	return c.do(ctx, creds, http.MethodDelete, "/cart/items/"+url.PathEscape(productID), nil, nil, nil)
}

func (c *Client) ClearCart(ctx context.Context, creds Credentials, userID string) error {
	return c.do(ctx, creds, http.MethodDelete, "/cart", url.Values{"userId": {userID}}, nil, nil)
}

func (c *Client) ListVeterinarians(ctx context.Context) ([]entities.Veterinarian, error) {
	var payload []veterinarianPayload
	if err := c.do(ctx, Credentials{}, http.MethodGet, "/veterinarians", nil, nil, &payload); err != nil {
		return nil, err
	}
	vets := make([]entities.Veterinarian, 0, len(payload))
	for _, p := range payload {
		vets = append(vets, p.Veterinarian())
	}
	return vets, nil
}

func (c *Client) BookedTimes(ctx context.Context, date, veterinarianID string) ([]string, error) {
	var payload []struct {
		Time string `json:"time"`
	}
	q := url.Values{"date": {date}, "veterinarianId": {veterinarianID}}
	if err := c.do(ctx, Credentials{}, http.MethodGet, "/appointments", q, nil, &payload); err != nil {
		return nil, err
	}
	times := make([]string, 0, len(payload))
	for _, p := range payload {
		times = append(times, p.Time)
	}
	return times, nil
}

func (c *Client) CreateAppointment(ctx context.Context, creds Credentials, req entities.AppointmentRequest) error {
	return c.do(ctx, creds, http.MethodPost, "/appointments", nil, req, nil)
}

func (c *Client) do(ctx context.Context, creds Credentials, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if creds.SessionCookie != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: creds.SessionCookie})
	}
	if creds.Token != "" {
		req.Header.Set("Authorization", "Bearer "+creds.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &apperrors.BackendError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &apperrors.BackendError{
			StatusCode: resp.StatusCode,
			Message:    readMessage(resp.Body),
		}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &apperrors.BackendError{Err: fmt.Errorf("decoding response from %s: %w", path, err)}
		}
	}
	return nil
}

// readMessage pulls the "message" field out of a non-2xx body so it can be
// surfaced to the user verbatim.
func readMessage(r io.Reader) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return ""
	}
	return payload.Message
}
