package document

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/wcpa/backend/internal/domain/partner"
	"github.com/wcpa/backend/internal/domain/trade"
)

// PurchaseOrderLine is one rendered row of the item table
type PurchaseOrderLine struct {
	SKU       string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
	LineTotal decimal.Decimal
}

// PurchaseOrderData is the input to the purchase-order template. Everything
// needed by the template is carried here; the renderer adds nothing of its
// own, so rendering the same data twice yields identical bytes.
type PurchaseOrderData struct {
	OrderNumber  string
	OrderDate    time.Time
	CustomerName string
	ShipTo       []string
	BillTo       []string
	Items        []PurchaseOrderLine
	Subtotal     decimal.Decimal
	Tax          decimal.Decimal
	Total        decimal.Decimal
}

// Generator renders order documents from HTML templates
type Generator struct {
	tmpl   *template.Template
	logger *zap.Logger
}

// NewGenerator creates a document generator with the purchase-order template parsed
func NewGenerator(logger *zap.Logger) (*Generator, error) {
	tmpl, err := template.New("purchase_order").Funcs(template.FuncMap{
		"formatMoney": formatMoney,
		"formatDate":  formatDate,
	}).Parse(purchaseOrderTemplate)
	if err != nil {
		return nil, fmt.Errorf("document: failed to parse purchase order template: %w", err)
	}
	return &Generator{tmpl: tmpl, logger: logger}, nil
}

// RenderPurchaseOrder renders the purchase-order document as HTML bytes
func (g *Generator) RenderPurchaseOrder(ctx context.Context, data PurchaseOrderData) ([]byte, error) {
	g.logger.Debug("Rendering purchase order document",
		zap.String("order_number", data.OrderNumber),
		zap.Int("item_count", len(data.Items)))

	var buf bytes.Buffer
	if err := g.tmpl.Execute(&buf, data); err != nil {
		g.logger.Error("Failed to render purchase order document",
			zap.String("order_number", data.OrderNumber),
			zap.Error(err))
		return nil, fmt.Errorf("document: failed to render purchase order: %w", err)
	}
	return buf.Bytes(), nil
}

// BuildPurchaseOrderData assembles template data from an order and the
// customer's addresses. Totals are derived from the order's line items;
// the order date is the order's creation time in UTC.
func BuildPurchaseOrderData(order *trade.Order, customerName string, shipTo, billTo *partner.Address) PurchaseOrderData {
	items := make([]PurchaseOrderLine, len(order.Items))
	for i, item := range order.Items {
		items[i] = PurchaseOrderLine{
			SKU:       item.SKU,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal(),
		}
	}

	subtotal := trade.Subtotal(order.Items)

	return PurchaseOrderData{
		OrderNumber:  OrderNumber(order),
		OrderDate:    order.CreatedAt.UTC(),
		CustomerName: customerName,
		ShipTo:       addressLines(shipTo),
		BillTo:       addressLines(billTo),
		Items:        items,
		Subtotal:     subtotal,
		Tax:          trade.Tax(subtotal),
		Total:        trade.GrandTotal(subtotal),
	}
}

// OrderNumber derives the customer-facing order number from the order ID
func OrderNumber(order *trade.Order) string {
	short := strings.ToUpper(strings.ReplaceAll(order.ID.String(), "-", ""))
	if len(short) > 8 {
		short = short[:8]
	}
	return "WCPA-" + short
}

func addressLines(a *partner.Address) []string {
	if a == nil {
		return nil
	}
	lines := []string{}
	name := strings.TrimSpace(a.FirstName + " " + a.LastName)
	if name != "" {
		lines = append(lines, name)
	}
	lines = append(lines, a.Line1)
	if a.Line2 != "" {
		lines = append(lines, a.Line2)
	}
	lines = append(lines, fmt.Sprintf("%s, %s %s", a.City, a.State, a.PostalCode))
	if a.Country != "" {
		lines = append(lines, a.Country)
	}
	return lines
}

func formatMoney(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func formatDate(t time.Time) string {
	return t.Format("January 2, 2006")
}

const purchaseOrderTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
body { font-family: Helvetica, Arial, sans-serif; color: #1a1a1a; margin: 40px; }
.header { border-bottom: 3px solid #0b5394; padding-bottom: 16px; margin-bottom: 24px; }
.header h1 { margin: 0; color: #0b5394; font-size: 24px; }
.header .tagline { color: #666; font-size: 12px; }
.meta { margin-bottom: 24px; }
.meta td { padding: 2px 16px 2px 0; font-size: 13px; }
.addresses { width: 100%; margin-bottom: 24px; }
.addresses td { vertical-align: top; width: 50%; font-size: 13px; }
.addresses h3 { margin: 0 0 6px 0; font-size: 13px; color: #0b5394; text-transform: uppercase; }
table.items { width: 100%; border-collapse: collapse; margin-bottom: 24px; }
table.items th { background: #0b5394; color: #fff; text-align: left; padding: 8px; font-size: 12px; }
table.items td { border-bottom: 1px solid #ddd; padding: 8px; font-size: 13px; }
.num { text-align: right; }
.totals { width: 280px; margin-left: auto; font-size: 13px; }
.totals td { padding: 4px 8px; }
.totals .grand { font-weight: bold; border-top: 2px solid #0b5394; }
.footer { margin-top: 40px; font-size: 11px; color: #888; border-top: 1px solid #ddd; padding-top: 12px; }
</style>
</head>
<body>
<div class="header">
<h1>WCPA Medical Supplies</h1>
<div class="tagline">Purchase Order</div>
</div>
<table class="meta">
<tr><td><strong>Order Number:</strong></td><td>{{.OrderNumber}}</td></tr>
<tr><td><strong>Order Date:</strong></td><td>{{formatDate .OrderDate}}</td></tr>
{{if .CustomerName}}<tr><td><strong>Customer:</strong></td><td>{{.CustomerName}}</td></tr>{{end}}
</table>
<table class="addresses">
<tr>
<td>
<h3>Ship To</h3>
{{range .ShipTo}}{{.}}<br>{{end}}
</td>
<td>
<h3>Bill To</h3>
{{range .BillTo}}{{.}}<br>{{end}}
</td>
</tr>
</table>
<table class="items">
<thead>
<tr><th>SKU</th><th>Description</th><th class="num">Unit Price</th><th class="num">Qty</th><th class="num">Amount</th></tr>
</thead>
<tbody>
{{range .Items}}
<tr><td>{{.SKU}}</td><td>{{.Name}}</td><td class="num">{{formatMoney .UnitPrice}}</td><td class="num">{{.Quantity}}</td><td class="num">{{formatMoney .LineTotal}}</td></tr>
{{end}}
</tbody>
</table>
<table class="totals">
<tr><td>Subtotal</td><td class="num">{{formatMoney .Subtotal}}</td></tr>
<tr><td>Tax (8%)</td><td class="num">{{formatMoney .Tax}}</td></tr>
<tr class="grand"><td>Total</td><td class="num">{{formatMoney .Total}}</td></tr>
</table>
<div class="footer">
Thank you for your order. Questions? Contact orders@wcpamedical.com.
</div>
</body>
</html>
`
