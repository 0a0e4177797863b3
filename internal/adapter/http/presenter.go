package http

import (
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/aq2208/growcery-api/internal/entity"
	"github.com/aq2208/growcery-api/internal/usecase"
)

// money renders prices and totals as JSON numbers without touching the
// package-wide decimal settings.
type money decimal.Decimal

func (m money) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(m).String()), nil
}

type productDTO struct {
	ID           string `json:"_id"`
	Name         string `json:"productName"`
	Description  string `json:"productDescription"`
	Type         int    `json:"productType"`
	Quantity     int    `json:"productQuantity"`
	QuantitySold int    `json:"quantitySold"`
	Price        money  `json:"price"`
	Image        string `json:"productImage"`
}

func toProductDTO(p *domain.Product) *productDTO {
	if p == nil {
		return nil
	}
	return &productDTO{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		Type:         int(p.Type),
		Quantity:     p.Quantity,
		QuantitySold: p.QuantitySold,
		Price:        money(p.Price),
		Image:        p.Image,
	}
}

func toProductDTOs(ps []domain.Product) []*productDTO {
	out := make([]*productDTO, 0, len(ps))
	for i := range ps {
		out = append(out, toProductDTO(&ps[i]))
	}
	return out
}

// Password hashes never leave the service.
type userDTO struct {
	ID         string `json:"_id"`
	FirstName  string `json:"firstName"`
	MiddleName string `json:"middleName,omitempty"`
	LastName   string `json:"lastName"`
	UserType   string `json:"userType"`
	Email      string `json:"email"`
}

func toUserDTOs(us []domain.User) []userDTO {
	out := make([]userDTO, 0, len(us))
	for _, u := range us {
		out = append(out, userDTO{
			ID:         u.ID,
			FirstName:  u.FirstName,
			MiddleName: u.MiddleName,
			LastName:   u.LastName,
			UserType:   string(u.Role),
			Email:      u.Email,
		})
	}
	return out
}

type userSummaryDTO struct {
	ID        string `json:"_id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

type cartItemDTO struct {
	ProductID *productDTO `json:"productId"` // null once the product is deleted
	Quantity  int         `json:"quantity"`
}

func toCartDTO(entries []usecase.CartEntry) []cartItemDTO {
	out := make([]cartItemDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, cartItemDTO{ProductID: toProductDTO(e.Product), Quantity: e.Quantity})
	}
	return out
}

// productId and userId hold either the raw id or the resolved object.
type orderItemDTO struct {
	ProductID any   `json:"productId"`
	Quantity  int   `json:"quantity"`
	Price     money `json:"price"`
}

type orderDTO struct {
	ID          string         `json:"_id"`
	UserID      any            `json:"userId"`
	Items       []orderItemDTO `json:"items"`
	TotalAmount money          `json:"totalAmount"`
	OrderStatus int            `json:"orderStatus"`
	DateOrdered time.Time      `json:"dateOrdered"`
	Time        string         `json:"time"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

func baseOrderDTO(o *domain.Order) orderDTO {
	return orderDTO{
		ID:          o.ID,
		UserID:      o.UserID,
		Items:       make([]orderItemDTO, 0, len(o.Items)),
		TotalAmount: money(o.TotalAmount),
		OrderStatus: int(o.Status),
		DateOrdered: o.CreatedAt,
		Time:        o.Time,
		UpdatedAt:   o.UpdatedAt,
	}
}

// toOrderDTO renders an order as stored, with plain ids.
func toOrderDTO(o *domain.Order) orderDTO {
	dto := baseOrderDTO(o)
	for _, it := range o.Items {
		dto.Items = append(dto.Items, orderItemDTO{ProductID: it.ProductID, Quantity: it.Quantity, Price: money(it.UnitPrice)})
	}
	return dto
}

func toOrderViewDTO(v *usecase.OrderView) orderDTO {
	dto := baseOrderDTO(&v.Order)
	if v.User != nil {
		dto.UserID = userSummaryDTO{ID: v.User.ID, FirstName: v.User.FirstName, LastName: v.User.LastName, Email: v.User.Email}
	}
	for _, l := range v.Lines {
		dto.Items = append(dto.Items, orderItemDTO{ProductID: toProductDTO(l.Product), Quantity: l.Quantity, Price: money(l.UnitPrice)})
	}
	return dto
}

func toOrderViewDTOs(vs []usecase.OrderView) []orderDTO {
	out := make([]orderDTO, 0, len(vs))
	for i := range vs {
		out = append(out, toOrderViewDTO(&vs[i]))
	}
	return out
}

type orderEventDTO struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	TotalAmount money     `json:"totalAmount"`
	At          time.Time `json:"at"`
}

func toHistoryDTO(evs []domain.OrderEvent) []orderEventDTO {
	out := make([]orderEventDTO, 0, len(evs))
	for _, ev := range evs {
		out = append(out, orderEventDTO{
			ID:          ev.ID,
			Type:        string(ev.Type),
			From:        ev.From.String(),
			To:          ev.To.String(),
			TotalAmount: money(ev.TotalAmount),
			At:          ev.At,
		})
	}
	return out
}
