package handlers

import (
	"github.com/chung140204/storefront-api/internal/domain"
)

type customerPayload struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address"`
	Type    string `json:"type,omitempty"`
	Company string `json:"company,omitempty"`
	TaxCode string `json:"taxCode,omitempty"`
}

type orderLineResponse struct {
	ID                string  `json:"id"`
	ProductID         string  `json:"productId"`
	ProductName       string  `json:"productName"`
	Size              string  `json:"size,omitempty"`
	Color             string  `json:"color,omitempty"`
	Quantity          int     `json:"quantity"`
	UnitPrice         float64 `json:"unitPrice"`
	TaxRate           float64 `json:"taxRate"`
	EffectiveSubtotal float64 `json:"effectiveSubtotal"`
	TaxAmount         float64 `json:"taxAmount"`
	LineTotal         float64 `json:"lineTotal"`
}

type orderResponse struct {
	ID              string              `json:"id"`
	Number          string              `json:"number"`
	UserID          string              `json:"userId"`
	Customer        customerPayload     `json:"customer"`
	Status          string              `json:"status"`
	ReturnStatus    string              `json:"returnStatus"`
	Subtotal        float64             `json:"subtotal"`
	VoucherCode     string              `json:"voucherCode,omitempty"`
	VoucherDiscount float64             `json:"voucherDiscount"`
	TotalVAT        float64             `json:"totalVat"`
	TotalAmount     float64             `json:"totalAmount"`
	Lines           []orderLineResponse `json:"lines,omitempty"`
	CreatedAt       string              `json:"createdAt"`
	PaidAt          string              `json:"paidAt,omitempty"`
	CompletedAt     string              `json:"completedAt,omitempty"`
	CancelledAt     string              `json:"cancelledAt,omitempty"`
	RefundedAt      string              `json:"refundedAt,omitempty"`
	UpdatedAt       string              `json:"updatedAt"`
}

type returnRequestResponse struct {
	ID        string   `json:"id"`
	OrderID   string   `json:"orderId"`
	UserID    string   `json:"userId"`
	Reason    string   `json:"reason"`
	Status    string   `json:"status"`
	MediaRefs []string `json:"mediaRefs,omitempty"`
	CreatedAt string   `json:"createdAt"`
	DecidedAt string   `json:"decidedAt,omitempty"`
}

type productResponse struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Stock      int     `json:"stock"`
	CategoryID string  `json:"categoryId"`
	Active     bool    `json:"active"`
	UpdatedAt  string  `json:"updatedAt"`
}

type categoryResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	TaxRate   float64 `json:"taxRate"`
	UpdatedAt string  `json:"updatedAt"`
}

func toOrderResponse(order domain.Order) orderResponse {
	lines := make([]orderLineResponse, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, orderLineResponse{
			ID:                line.ID,
			ProductID:         line.ProductID,
			ProductName:       line.ProductName,
			Size:              line.Size,
			Color:             line.Color,
			Quantity:          line.Quantity,
			UnitPrice:         line.UnitPrice,
			TaxRate:           line.TaxRate,
			EffectiveSubtotal: line.EffectiveSubtotal,
			TaxAmount:         line.TaxAmount,
			LineTotal:         line.LineTotal,
		})
	}
	return orderResponse{
		ID:     order.ID,
		Number: order.Number,
		UserID: order.UserID,
		Customer: customerPayload{
			Name:    order.Customer.Name,
			Email:   order.Customer.Email,
			Phone:   order.Customer.Phone,
			Address: order.Customer.Address,
			Type:    order.Customer.Type,
			Company: order.Customer.Company,
			TaxCode: order.Customer.TaxCode,
		},
		Status:          order.Status,
		ReturnStatus:    order.ReturnStatus,
		Subtotal:        order.Subtotal,
		VoucherCode:     order.VoucherCode,
		VoucherDiscount: order.VoucherDiscount,
		TotalVAT:        order.TotalVAT,
		TotalAmount:     order.TotalAmount,
		Lines:           lines,
		CreatedAt:       formatTime(order.CreatedAt),
		PaidAt:          formatTimePtr(order.PaidAt),
		CompletedAt:     formatTimePtr(order.CompletedAt),
		CancelledAt:     formatTimePtr(order.CancelledAt),
		RefundedAt:      formatTimePtr(order.RefundedAt),
		UpdatedAt:       formatTime(order.UpdatedAt),
	}
}

func toReturnRequestResponse(request domain.ReturnRequest) returnRequestResponse {
	return returnRequestResponse{
		ID:        request.ID,
		OrderID:   request.OrderID,
		UserID:    request.UserID,
		Reason:    request.Reason,
		Status:    request.Status,
		MediaRefs: request.MediaRefs,
		CreatedAt: formatTime(request.CreatedAt),
		DecidedAt: formatTimePtr(request.DecidedAt),
	}
}

func toProductResponse(product domain.Product) productResponse {
	return productResponse{
		ID:         product.ID,
		Name:       product.Name,
		Price:      product.Price,
		Stock:      product.Stock,
		CategoryID: product.CategoryID,
		Active:     product.Active,
		UpdatedAt:  formatTime(product.UpdatedAt),
	}
}

func toCategoryResponse(category domain.Category) categoryResponse {
	return categoryResponse{
		ID:        category.ID,
		Name:      category.Name,
		TaxRate:   category.TaxRate,
		UpdatedAt: formatTime(category.UpdatedAt),
	}
}
