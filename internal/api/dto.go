package api

import (
	"time"

	"github.com/xenking/minishop/internal/domain/cart"
	"github.com/xenking/minishop/internal/domain/order"
	"github.com/xenking/minishop/internal/domain/product"
	"github.com/xenking/minishop/internal/domain/user"
)

// Monetary values are emitted as JSON numbers with two decimal places of
// precision, matching what the decimal layer guarantees.

type productResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toProductResponse(p *product.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Price:       p.Price.InexactFloat64(),
		Stock:       p.Stock,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toProductResponses(products []product.Product) []productResponse {
	out := make([]productResponse, len(products))
	for i := range products {
		out[i] = toProductResponse(&products[i])
	}
	return out
}

type cartLineResponse struct {
	ProductID string           `json:"productId"`
	Quantity  int              `json:"quantity"`
	Product   *productResponse `json:"product,omitempty"`
}

type cartResponse struct {
	ID    string             `json:"id"`
	Items []cartLineResponse `json:"items"`
}

func toCartResponse(c *cart.Cart) cartResponse {
	items := make([]cartLineResponse, len(c.Lines))
	for i, l := range c.Lines {
		items[i] = cartLineResponse{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
		}
		if l.Product != nil {
			p := toProductResponse(l.Product)
			items[i].Product = &p
		}
	}
	return cartResponse{ID: c.ID, Items: items}
}

type orderLineResponse struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	Subtotal    float64 `json:"subtotal"`
}

type orderResponse struct {
	ID              string              `json:"id"`
	OrderNumber     string              `json:"orderNumber"`
	UserID          string              `json:"userId"`
	Items           []orderLineResponse `json:"items"`
	TotalAmount     float64             `json:"totalAmount"`
	Status          string              `json:"status"`
	PaymentStatus   string              `json:"paymentStatus"`
	ShippingAddress string              `json:"shippingAddress"`
	Notes           string              `json:"notes,omitempty"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

func toOrderResponse(o *order.Order) orderResponse {
	items := make([]orderLineResponse, len(o.Lines))
	for i, l := range o.Lines {
		items[i] = orderLineResponse{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Price:       l.UnitPrice.InexactFloat64(),
			Quantity:    l.Quantity,
			Subtotal:    l.Subtotal.InexactFloat64(),
		}
	}
	return orderResponse{
		ID:              o.ID,
		OrderNumber:     o.Number,
		UserID:          o.UserID,
		Items:           items,
		TotalAmount:     o.TotalAmount.InexactFloat64(),
		Status:          string(o.Status),
		PaymentStatus:   string(o.PaymentStatus),
		ShippingAddress: o.ShippingAddress,
		Notes:           o.Notes,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func toOrderResponses(orders []order.Order) []orderResponse {
	out := make([]orderResponse, len(orders))
	for i := range orders {
		out[i] = toOrderResponse(&orders[i])
	}
	return out
}

type userResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Role      string `json:"role"`
}

func toUserResponse(u *user.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      string(u.Role),
	}
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}
