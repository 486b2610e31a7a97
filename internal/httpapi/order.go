package httpapi

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/breccia/storefront/internal/domain/order"
)

// maxOrderBody bounds request bodies on the order endpoints. Carts are small;
// anything beyond this is not a legitimate submission.
const maxOrderBody = 1 << 20

// submitOrder prices and persists a shopper order. Prices in the request are
// ignored; the service recomputes everything from the catalog.
func (h *Handler) submitOrder(w http.ResponseWriter, r *http.Request) {
	req, err := decodeSubmitRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	receipt, err := h.orders.Submit(r.Context(), *req)
	if err != nil {
		h.writeOrderError(r, w, err)
		return
	}
	writeReceipt(w, http.StatusCreated, receipt)
}

// listOrders returns recent orders with their items.
func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, 200)
	}

	orders, err := h.orders.List(r.Context(), limit)
	if err != nil {
		zctx.From(r.Context()).Error("list orders", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for i := range orders {
			encodeOrder(e, &orders[i])
		}
		e.ArrEnd()
	})
}

// recordOrder stores an already-priced order as-is. This is the admin import
// path; unlike submitOrder it trusts the prices and total in the request.
func (h *Handler) recordOrder(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRecordRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	receipt, err := h.orders.Record(r.Context(), *req)
	if err != nil {
		h.writeOrderError(r, w, err)
		return
	}
	writeReceipt(w, http.StatusCreated, receipt)
}

// updateOrderStatus moves an order to a new fulfillment status.
func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	status, err := decodeStatusRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	if err := h.orders.UpdateStatus(r.Context(), r.PathValue("id"), status); err != nil {
		h.writeOrderError(r, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// deleteOrder removes an order and its items.
func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.writeOrderError(r, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeOrderError maps domain errors onto the error envelope. Input problems
// keep their message; storage failures are logged with their stage and
// surfaced generically.
func (h *Handler) writeOrderError(r *http.Request, w http.ResponseWriter, err error) {
	var (
		validationErr *order.ValidationError
		quantityErr   *order.InvalidQuantityError
		unlinkedErr   *order.UnlinkedItemError
		notFoundErr   *order.ProductNotFoundError
		persistErr    *order.PersistenceError
	)
	switch {
	case errors.Is(err, order.ErrEmptyItems):
		writeError(w, http.StatusBadRequest, "items required")
	case errors.As(err, &validationErr),
		errors.As(err, &quantityErr),
		errors.As(err, &unlinkedErr):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &notFoundErr):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, order.ErrNotFound):
		writeError(w, http.StatusNotFound, "order not found")
	case errors.As(err, &persistErr):
		zctx.From(r.Context()).Error("order persistence",
			zap.String("stage", string(persistErr.Stage)), zap.Error(persistErr.Err))
		writeError(w, http.StatusInternalServerError, "could not save the order, please try again")
	default:
		zctx.From(r.Context()).Error("order request", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeReceipt(w http.ResponseWriter, status int, receipt *order.Receipt) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("orderId")
		e.Str(receipt.OrderID)
		e.FieldStart("orderNumber")
		e.Int64(receipt.OrderNumber)
		fieldDecimal(e, "total", receipt.Total)
		e.ObjEnd()
	})
}

func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(o.ID)
	e.FieldStart("orderNumber")
	e.Int64(o.OrderNumber)
	e.FieldStart("email")
	if o.UserEmail != nil {
		e.Str(*o.UserEmail)
	} else {
		e.Null()
	}
	fieldDecimal(e, "total", o.Total)
	e.FieldStart("status")
	e.Str(string(o.Status))
	e.FieldStart("shipping")
	e.ObjStart()
	e.FieldStart("name")
	e.Str(o.Shipping.Name)
	e.FieldStart("address")
	e.Str(o.Shipping.Address)
	e.FieldStart("city")
	e.Str(o.Shipping.City)
	e.FieldStart("postalCode")
	e.Str(o.Shipping.PostalCode)
	e.FieldStart("phone")
	e.Str(o.Shipping.Phone)
	e.ObjEnd()
	e.FieldStart("createdAt")
	e.Str(o.CreatedAt.UTC().Format(time.RFC3339))
	e.FieldStart("items")
	e.ArrStart()
	for _, it := range o.Items {
		e.ObjStart()
		e.FieldStart("productId")
		e.Str(it.ProductID)
		e.FieldStart("name")
		e.Str(it.ProductName)
		fieldDecimal(e, "unitPrice", it.UnitPrice)
		e.FieldStart("quantity")
		e.Int(it.Quantity)
		e.FieldStart("image")
		if it.ImageURL != nil {
			e.Str(*it.ImageURL)
		} else {
			e.Null()
		}
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
}

func decodeSubmitRequest(r *http.Request) (*order.SubmitRequest, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxOrderBody))
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}

	var req order.SubmitRequest
	d := jx.DecodeBytes(body)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "email":
			s, err := d.Str()
			if err != nil {
				return err
			}
			req.ContactEmail = s
			return nil
		case "items":
			return d.Arr(func(d *jx.Decoder) error {
				var item order.SubmitItem
				if err := d.Obj(func(d *jx.Decoder, key string) error {
					switch key {
					case "productId":
						s, err := d.Str()
						if err != nil {
							return err
						}
						item.ProductID = s
						return nil
					case "quantity":
						n, err := d.Int()
						if err != nil {
							return err
						}
						item.Quantity = n
						return nil
					default:
						return d.Skip()
					}
				}); err != nil {
					return err
				}
				req.Items = append(req.Items, item)
				return nil
			})
		case "shipping":
			return decodeShipping(d, &req.Shipping)
		default:
			return d.Skip()
		}
	}); err != nil {
		return nil, errors.Wrap(err, "decode order request")
	}
	return &req, nil
}

func decodeRecordRequest(r *http.Request) (*order.RecordRequest, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxOrderBody))
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}

	var req order.RecordRequest
	d := jx.DecodeBytes(body)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "email":
			s, err := d.Str()
			if err != nil {
				return err
			}
			req.ContactEmail = s
			return nil
		case "total":
			v, err := decodeDecimal(d)
			if err != nil {
				return err
			}
			req.Total = v
			return nil
		case "status":
			s, err := d.Str()
			if err != nil {
				return err
			}
			req.Status = order.Status(s)
			return nil
		case "items":
			return d.Arr(func(d *jx.Decoder) error {
				var item order.RecordItem
				if err := d.Obj(func(d *jx.Decoder, key string) error {
					switch key {
					case "productId":
						s, err := d.Str()
						if err != nil {
							return err
						}
						item.ProductID = s
						return nil
					case "name":
						s, err := d.Str()
						if err != nil {
							return err
						}
						item.ProductName = s
						return nil
					case "unitPrice":
						v, err := decodeDecimal(d)
						if err != nil {
							return err
						}
						item.UnitPrice = v
						return nil
					case "quantity":
						n, err := d.Int()
						if err != nil {
							return err
						}
						item.Quantity = n
						return nil
					case "image":
						if d.Next() == jx.Null {
							return d.Null()
						}
						s, err := d.Str()
						if err != nil {
							return err
						}
						item.ImageURL = &s
						return nil
					default:
						return d.Skip()
					}
				}); err != nil {
					return err
				}
				req.Items = append(req.Items, item)
				return nil
			})
		case "shipping":
			return decodeShipping(d, &req.Shipping)
		default:
			return d.Skip()
		}
	}); err != nil {
		return nil, errors.Wrap(err, "decode record request")
	}
	return &req, nil
}

func decodeShipping(d *jx.Decoder, s *order.ShippingDetails) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		v, err := d.Str()
		if err != nil {
			return err
		}
		switch key {
		case "name":
			s.Name = v
		case "address":
			s.Address = v
		case "city":
			s.City = v
		case "postalCode":
			s.PostalCode = v
		case "phone":
			s.Phone = v
		}
		return nil
	})
}

func decodeStatusRequest(r *http.Request) (order.Status, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxOrderBody))
	if err != nil {
		return "", errors.Wrap(err, "read body")
	}

	var status order.Status
	d := jx.DecodeBytes(body)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "status" {
			return d.Skip()
		}
		s, err := d.Str()
		if err != nil {
			return err
		}
		status = order.Status(s)
		return nil
	}); err != nil {
		return "", errors.Wrap(err, "decode status request")
	}
	return status, nil
}
