package firestore

import (
	"time"

	"github.com/chung140204/storefront-api/internal/domain"
)

const (
	ordersCollection     = "orders"
	orderLinesCollection = "lines"
	productsCollection   = "products"
	categoriesCollection = "categories"
	returnsCollection    = "returnRequests"
	countersCollection   = "counters"
)

type customerDocument struct {
	Name    string `firestore:"name"`
	Email   string `firestore:"email"`
	Phone   string `firestore:"phone,omitempty"`
	Address string `firestore:"address"`
	Type    string `firestore:"type,omitempty"`
	Company string `firestore:"company,omitempty"`
	TaxCode string `firestore:"taxCode,omitempty"`
}

type orderDocument struct {
	Number       string           `firestore:"number"`
	UserID       string           `firestore:"userId"`
	Customer     customerDocument `firestore:"customer"`
	Status       string           `firestore:"status"`
	ReturnStatus string           `firestore:"returnStatus"`

	Subtotal        float64 `firestore:"subtotal"`
	VoucherCode     string  `firestore:"voucherCode,omitempty"`
	VoucherDiscount float64 `firestore:"voucherDiscount"`
	TotalVAT        float64 `firestore:"totalVat"`
	TotalAmount     float64 `firestore:"totalAmount"`

	CreatedAt   time.Time  `firestore:"createdAt"`
	PaidAt      *time.Time `firestore:"paidAt,omitempty"`
	CompletedAt *time.Time `firestore:"completedAt,omitempty"`
	CancelledAt *time.Time `firestore:"cancelledAt,omitempty"`
	RefundedAt  *time.Time `firestore:"refundedAt,omitempty"`
	UpdatedAt   time.Time  `firestore:"updatedAt"`
}

func (d orderDocument) toDomain(id string, lines []domain.OrderLine) domain.Order {
	return domain.Order{
		ID:     id,
		Number: d.Number,
		UserID: d.UserID,
		Customer: domain.CustomerInfo{
			Name:    d.Customer.Name,
			Email:   d.Customer.Email,
			Phone:   d.Customer.Phone,
			Address: d.Customer.Address,
			Type:    d.Customer.Type,
			Company: d.Customer.Company,
			TaxCode: d.Customer.TaxCode,
		},
		Status:          d.Status,
		ReturnStatus:    d.ReturnStatus,
		Subtotal:        d.Subtotal,
		VoucherCode:     d.VoucherCode,
		VoucherDiscount: d.VoucherDiscount,
		TotalVAT:        d.TotalVAT,
		TotalAmount:     d.TotalAmount,
		Lines:           lines,
		CreatedAt:       d.CreatedAt,
		PaidAt:          d.PaidAt,
		CompletedAt:     d.CompletedAt,
		CancelledAt:     d.CancelledAt,
		RefundedAt:      d.RefundedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func customerToDocument(c domain.CustomerInfo) customerDocument {
	return customerDocument{
		Name:    c.Name,
		Email:   c.Email,
		Phone:   c.Phone,
		Address: c.Address,
		Type:    c.Type,
		Company: c.Company,
		TaxCode: c.TaxCode,
	}
}

type orderLineDocument struct {
	ProductID         string    `firestore:"productId"`
	ProductName       string    `firestore:"productName"`
	Size              string    `firestore:"size,omitempty"`
	Color             string    `firestore:"color,omitempty"`
	Quantity          int       `firestore:"quantity"`
	UnitPrice         float64   `firestore:"unitPrice"`
	TaxRate           float64   `firestore:"taxRate"`
	EffectiveSubtotal float64   `firestore:"effectiveSubtotal"`
	TaxAmount         float64   `firestore:"taxAmount"`
	LineTotal         float64   `firestore:"lineTotal"`
	CreatedAt         time.Time `firestore:"createdAt"`
}

func (d orderLineDocument) toDomain(id string) domain.OrderLine {
	return domain.OrderLine{
		ID:                id,
		ProductID:         d.ProductID,
		ProductName:       d.ProductName,
		Size:              d.Size,
		Color:             d.Color,
		Quantity:          d.Quantity,
		UnitPrice:         d.UnitPrice,
		TaxRate:           d.TaxRate,
		EffectiveSubtotal: d.EffectiveSubtotal,
		TaxAmount:         d.TaxAmount,
		LineTotal:         d.LineTotal,
	}
}

type productDocument struct {
	Name       string    `firestore:"name"`
	Price      float64   `firestore:"price"`
	Stock      int64     `firestore:"stock"`
	CategoryID string    `firestore:"categoryId"`
	Active     bool      `firestore:"active"`
	UpdatedAt  time.Time `firestore:"updatedAt"`
}

func (d productDocument) toDomain(id string) domain.Product {
	return domain.Product{
		ID:         id,
		Name:       d.Name,
		Price:      d.Price,
		Stock:      int(d.Stock),
		CategoryID: d.CategoryID,
		Active:     d.Active,
		UpdatedAt:  d.UpdatedAt,
	}
}

type categoryDocument struct {
	Name      string    `firestore:"name"`
	TaxRate   float64   `firestore:"taxRate"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

func (d categoryDocument) toDomain(id string) domain.Category {
	return domain.Category{ID: id, Name: d.Name, TaxRate: d.TaxRate, UpdatedAt: d.UpdatedAt}
}

type returnRequestDocument struct {
	OrderID   string     `firestore:"orderId"`
	UserID    string     `firestore:"userId"`
	Reason    string     `firestore:"reason"`
	Status    string     `firestore:"status"`
	MediaRefs []string   `firestore:"mediaRefs,omitempty"`
	CreatedAt time.Time  `firestore:"createdAt"`
	DecidedAt *time.Time `firestore:"decidedAt,omitempty"`
}

func (d returnRequestDocument) toDomain(id string) domain.ReturnRequest {
	return domain.ReturnRequest{
		ID:        id,
		OrderID:   d.OrderID,
		UserID:    d.UserID,
		Reason:    d.Reason,
		Status:    d.Status,
		MediaRefs: append([]string(nil), d.MediaRefs...),
		CreatedAt: d.CreatedAt,
		DecidedAt: d.DecidedAt,
	}
}
