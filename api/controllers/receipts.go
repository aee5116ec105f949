package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tabsplit/tabsplit-backend/api/responses"
	"github.com/tabsplit/tabsplit-backend/api/validators"
	receiptsvc "github.com/tabsplit/tabsplit-backend/internal/receipts"
	"github.com/tabsplit/tabsplit-backend/pkg/db/models"
	pkgerrors "github.com/tabsplit/tabsplit-backend/pkg/errors"
	"github.com/tabsplit/tabsplit-backend/pkg/logger"
	"github.com/tabsplit/tabsplit-backend/pkg/pagination"
)

// ReceiptCreate stores a decoded receipt with its line items.
func ReceiptCreate(svc receiptsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "receipts service unavailable"))
			return
		}

		var payload createReceiptRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toCreateInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		receipt, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, receiptResponse(receipt))
	}
}

// ReceiptGet returns one receipt with items in position order.
func ReceiptGet(svc receiptsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "receipts service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "receiptId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid receipt id"))
			return
		}

		receipt, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, receiptResponse(receipt))
	}
}

// ReceiptList returns a cursor page of receipts, newest first.
func ReceiptList(svc receiptsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "receipts service unavailable"))
			return
		}

		params := pagination.Params{Cursor: r.URL.Query().Get("cursor")}
		if raw := r.URL.Query().Get("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid limit"))
				return
			}
			params.Limit = limit
		}

		list, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]receiptPayload, len(list.Receipts))
		for i := range list.Receipts {
			items[i] = receiptResponse(&list.Receipts[i])
		}
		responses.WriteSuccess(w, receiptListPayload{
			Receipts:   items,
			NextCursor: list.NextCursor,
		})
	}
}

type createReceiptRequest struct {
	StoreName   string                     `json:"store_name" validate:"required"`
	TotalAmount string                     `json:"total_amount" validate:"required"`
	PurchasedAt *time.Time                 `json:"purchased_at,omitempty"`
	Items       []createReceiptItemRequest `json:"items" validate:"required,min=1,dive"`
}

type createReceiptItemRequest struct {
	Name      string `json:"name" validate:"required"`
	UnitPrice string `json:"unit_price" validate:"required"`
	Quantity  int    `json:"quantity" validate:"omitempty,min=1"`
}

func (req createReceiptRequest) toCreateInput() (receiptsvc.CreateReceiptInput, error) {
	total, err := decimal.NewFromString(req.TotalAmount)
	if err != nil {
		return receiptsvc.CreateReceiptInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "total_amount must be a decimal string")
	}
	input := receiptsvc.CreateReceiptInput{
		StoreName:   req.StoreName,
		TotalAmount: total,
	}
	if req.PurchasedAt != nil {
		input.PurchasedAt = *req.PurchasedAt
	}
	for i, item := range req.Items {
		price, err := decimal.NewFromString(item.UnitPrice)
		if err != nil {
			return receiptsvc.CreateReceiptInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unit_price must be a decimal string").
				WithDetails(map[string]any{"position": i})
		}
		input.Items = append(input.Items, receiptsvc.CreateReceiptItem{
			Name:      item.Name,
			UnitPrice: price,
			Quantity:  item.Quantity,
		})
	}
	return input, nil
}

type receiptPayload struct {
	ID          string               `json:"id"`
	StoreName   string               `json:"store_name"`
	TotalAmount string               `json:"total_amount"`
	PurchasedAt time.Time            `json:"purchased_at"`
	Items       []receiptItemPayload `json:"items"`
	CreatedAt   time.Time            `json:"created_at"`
}

type receiptItemPayload struct {
	ID        string `json:"id"`
	Position  int    `json:"position"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

type receiptListPayload struct {
	Receipts   []receiptPayload `json:"receipts"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

func receiptResponse(receipt *models.Receipt) receiptPayload {
	payload := receiptPayload{
		ID:          receipt.ID.String(),
		StoreName:   receipt.StoreName,
		TotalAmount: receipt.TotalAmount.StringFixed(2),
		PurchasedAt: receipt.PurchasedAt,
		CreatedAt:   receipt.CreatedAt,
	}
	for _, item := range receipt.Items {
		payload.Items = append(payload.Items, receiptItemPayload{
			ID:        item.ID.String(),
			Position:  item.Position,
			Name:      item.Name,
			UnitPrice: item.UnitPrice.StringFixed(2),
			Quantity:  item.Quantity,
		})
	}
	return payload
}
