package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/snackdash/snackdash-core/internal/cart"
	"github.com/snackdash/snackdash-core/pkg/config"
	"github.com/snackdash/snackdash-core/pkg/enums"
	pkgerrors "github.com/snackdash/snackdash-core/pkg/errors"
	"github.com/snackdash/snackdash-core/pkg/logger"
	"github.com/snackdash/snackdash-core/pkg/types"
)

var errBaseURLRequired = errors.New("gateway base url is required")

// Client talks JSON over HTTP to the cart store service. It implements both
// CartGateway and OrderGateway.
type Client struct {
	baseURL string
	http    *http.Client
	logg    *logger.Logger
}

// NewClient builds the HTTP gateway from config.
func NewClient(cfg config.GatewayConfig, logg *logger.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errBaseURLRequired
	}
	return &Client{
		baseURL: base,
		http:    &http.Client{Timeout: cfg.RequestTimeout},
		logg:    logg,
	}, nil
}

// LineDTO is the wire shape of a cart line.
type LineDTO struct {
	ID            uuid.UUID         `json:"id"`
	ItemRef       string            `json:"item_ref"`
	RestaurantRef string            `json:"restaurant_ref"`
	UnitPrice     decimal.Decimal   `json:"unit_price"`
	Quantity      int               `json:"quantity"`
	Options       types.LineOptions `json:"options,omitempty"`
}

// ToLine converts the wire shape into the domain line.
func (d LineDTO) ToLine() cart.Line {
	return cart.Line{
		ID:            d.ID,
		ItemRef:       d.ItemRef,
		RestaurantRef: d.RestaurantRef,
		UnitPrice:     d.UnitPrice,
		Quantity:      d.Quantity,
		Options:       d.Options,
	}
}

// LineToDTO converts a domain line into its wire shape.
func LineToDTO(line cart.Line) LineDTO {
	return LineDTO{
		ID:            line.ID,
		ItemRef:       line.ItemRef,
		RestaurantRef: line.RestaurantRef,
		UnitPrice:     line.UnitPrice,
		Quantity:      line.Quantity,
		Options:       line.Options,
	}
}

type quantityPatch struct {
	Quantity int `json:"quantity"`
}

// OrderDTO is the wire shape of an order header.
type OrderDTO struct {
	ID                 uuid.UUID           `json:"id"`
	CartKey            string              `json:"cart_key"`
	RestaurantRef      string              `json:"restaurant_ref"`
	Status             enums.OrderStatus   `json:"status"`
	Subtotal           decimal.Decimal     `json:"subtotal"`
	DeliveryFee        decimal.Decimal     `json:"delivery_fee"`
	Discount           decimal.Decimal     `json:"discount"`
	Total              decimal.Decimal     `json:"total"`
	PaymentMethod      enums.PaymentMethod `json:"payment_method"`
	DeliveryAddressRef string              `json:"delivery_address_ref"`
}

// OrderLineDTO is the wire shape of an order line snapshot.
type OrderLineDTO struct {
	ItemRef   string            `json:"item_ref"`
	UnitPrice decimal.Decimal   `json:"unit_price"`
	Quantity  int               `json:"quantity"`
	Options   types.LineOptions `json:"options,omitempty"`
}

type orderLinesRequest struct {
	Lines []OrderLineDTO `json:"lines"`
}

// FetchAll implements CartGateway.
func (c *Client) FetchAll(ctx context.Context, key string) ([]cart.Line, error) {
	var dtos []LineDTO
	path := fmt.Sprintf("/v1/carts/%s/lines", key)
	if err := c.do(ctx, http.MethodGet, path, nil, &dtos); err != nil {
		return nil, err
	}
	lines := make([]cart.Line, len(dtos))
	for i, dto := range dtos {
		lines[i] = dto.ToLine()
	}
	return lines, nil
}

// CreateLine implements CartGateway.
func (c *Client) CreateLine(ctx context.Context, key string, line cart.Line) (cart.Line, error) {
	var created LineDTO
	path := fmt.Sprintf("/v1/carts/%s/lines", key)
	if err := c.do(ctx, http.MethodPut, path, LineToDTO(line), &created); err != nil {
		return cart.Line{}, err
	}
	return created.ToLine(), nil
}

// UpsertQuantity implements CartGateway.
func (c *Client) UpsertQuantity(ctx context.Context, lineID uuid.UUID, quantity int) error {
	path := fmt.Sprintf("/v1/lines/%s", lineID)
	return c.do(ctx, http.MethodPatch, path, quantityPatch{Quantity: quantity}, nil)
}

// DeleteLine implements CartGateway.
func (c *Client) DeleteLine(ctx context.Context, lineID uuid.UUID) error {
	path := fmt.Sprintf("/v1/lines/%s", lineID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// DeleteAll implements CartGateway.
func (c *Client) DeleteAll(ctx context.Context, key string) error {
	path := fmt.Sprintf("/v1/carts/%s", key)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// CreateOrder implements OrderGateway.
func (c *Client) CreateOrder(ctx context.Context, draft OrderDraft) (uuid.UUID, error) {
	payload := OrderDTO{
		CartKey:            draft.CartKey,
		RestaurantRef:      draft.RestaurantRef,
		Subtotal:           draft.Subtotal,
		DeliveryFee:        draft.DeliveryFee,
		Discount:           draft.Discount,
		Total:              draft.Total,
		PaymentMethod:      draft.PaymentMethod,
		DeliveryAddressRef: draft.DeliveryAddressRef,
	}
	var created OrderDTO
	if err := c.do(ctx, http.MethodPost, "/v1/orders", payload, &created); err != nil {
		return uuid.Nil, err
	}
	return created.ID, nil
}

// CreateOrderLines implements OrderGateway.
func (c *Client) CreateOrderLines(ctx context.Context, orderID uuid.UUID, lines []OrderLineDraft) error {
	payload := orderLinesRequest{Lines: make([]OrderLineDTO, len(lines))}
	for i, line := range lines {
		payload.Lines[i] = OrderLineDTO{
			ItemRef:   line.ItemRef,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
			Options:   line.Options,
		}
	}
	path := fmt.Sprintf("/v1/orders/%s/lines", orderID)
	return c.do(ctx, http.MethodPost, path, payload, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body any, dest any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "encode request body")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeRemoteUnavailable, err, fmt.Sprintf("%s %s", method, path))
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if dest == nil {
			return nil
		}
		var envelope types.RawEnvelope
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeRemoteUnavailable, err, "decode response envelope")
		}
		if err := json.Unmarshal(envelope.Data, dest); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeRemoteUnavailable, err, "decode response data")
		}
		return nil
	}

	return c.errorFromResponse(resp, method, path)
}

func (c *Client) errorFromResponse(resp *http.Response, method, path string) error {
	var envelope types.ErrorEnvelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&envelope)

	msg := fmt.Sprintf("%s %s returned %d", method, path, resp.StatusCode)
	if decodeErr == nil && envelope.Error.Message != "" {
		msg = envelope.Error.Message
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return pkgerrors.New(pkgerrors.CodeNotFound, msg)
	case resp.StatusCode >= 500:
		return pkgerrors.New(pkgerrors.CodeRemoteUnavailable, msg)
	case decodeErr == nil && envelope.Error.Code != "":
		return pkgerrors.New(pkgerrors.Code(envelope.Error.Code), msg)
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, msg)
	}
}
