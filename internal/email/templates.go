package email

import (
	"bytes"
	"html/template"

	"github.com/shopspring/decimal"
)

// OrderItem represents an item in an order for email purposes
type OrderItem struct {
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
}

func (i OrderItem) LineTotal() string {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity))).StringFixed(2)
}

func (i OrderItem) Price() string {
	return i.UnitPrice.StringFixed(2)
}

// OrderSummary is what the confirmation email shows.
type OrderSummary struct {
	Number    string
	Items     []OrderItem
	Subtotal  decimal.Decimal
	Discount  decimal.Decimal
	Tax       decimal.Decimal
	Shipping  decimal.Decimal
	Total     decimal.Decimal
	PromoCode string
}

const layout = `<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<div style="background: #2f3e9e; padding: 30px; border-radius: 10px 10px 0 0;">
		<h1 style="color: white; margin: 0; font-size: 24px;">{{template "title" .}}</h1>
	</div>
	<div style="background: #fff; padding: 30px; border: 1px solid #eee; border-top: none; border-radius: 0 0 10px 10px;">
		<div style="background: #f8f9fa; padding: 15px; border-radius: 5px; margin: 0 0 20px 0;">
			<p style="margin: 0; font-size: 14px; color: #666;">Order number</p>
			<p style="margin: 5px 0 0 0; font-size: 18px; font-weight: bold; font-family: monospace;">{{.Number}}</p>
		</div>
		{{template "content" .}}
	</div>
</body>
</html>`

const confirmationContent = `{{define "title"}}Thank you for your order{{end}}
{{define "content"}}
<table style="width: 100%; border-collapse: collapse; margin: 20px 0;">
	<thead>
		<tr style="background: #f8f9fa;">
			<th style="padding: 12px; text-align: left;">Product</th>
			<th style="padding: 12px; text-align: center;">Qty</th>
			<th style="padding: 12px; text-align: right;">Price</th>
			<th style="padding: 12px; text-align: right;">Line total</th>
		</tr>
	</thead>
	<tbody>
	{{range .Items}}
		<tr>
			<td style="padding: 12px; border-bottom: 1px solid #eee;">{{.ProductID}}</td>
			<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: center;">{{.Quantity}}</td>
			<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right;">${{.Price}}</td>
			<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right;">${{.LineTotal}}</td>
		</tr>
	{{end}}
	</tbody>
</table>
<table style="width: 100%; border-collapse: collapse;">
	<tr><td style="padding: 4px 12px;">Subtotal</td><td style="padding: 4px 12px; text-align: right;">${{.Subtotal.StringFixed 2}}</td></tr>
	{{if .Discount.IsPositive}}<tr><td style="padding: 4px 12px;">Discount{{if .PromoCode}} ({{.PromoCode}}){{end}}</td><td style="padding: 4px 12px; text-align: right;">-${{.Discount.StringFixed 2}}</td></tr>{{end}}
	<tr><td style="padding: 4px 12px;">Tax</td><td style="padding: 4px 12px; text-align: right;">${{.Tax.StringFixed 2}}</td></tr>
	<tr><td style="padding: 4px 12px;">Shipping</td><td style="padding: 4px 12px; text-align: right;">{{if .Shipping.IsZero}}Free{{else}}${{.Shipping.StringFixed 2}}{{end}}</td></tr>
	<tr><td style="padding: 12px; font-weight: bold;">Total</td><td style="padding: 12px; text-align: right; font-weight: bold; font-size: 18px;">${{.Total.StringFixed 2}}</td></tr>
</table>
{{end}}`

// StatusUpdate is what a lifecycle notification shows.
type StatusUpdate struct {
	Number   string
	Headline string
	Message  string
}

const statusContent = `{{define "title"}}{{.Headline}}{{end}}
{{define "content"}}<p style="margin-top: 0;">{{.Message}}</p>{{end}}`

var (
	confirmationTemplate = template.Must(template.Must(template.New("layout").Parse(layout)).Parse(confirmationContent))
	statusTemplate       = template.Must(template.Must(template.New("layout").Parse(layout)).Parse(statusContent))
)

// BuildOrderConfirmationBody builds the HTML body for order confirmation email
func BuildOrderConfirmationBody(summary OrderSummary) (string, error) {
	var buf bytes.Buffer
	if err := confirmationTemplate.Execute(&buf, summary); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// BuildStatusUpdateBody builds the HTML body for a status change email
func BuildStatusUpdateBody(update StatusUpdate) (string, error) {
	var buf bytes.Buffer
	if err := statusTemplate.Execute(&buf, update); err != nil {
		return "", err
	}
	return buf.String(), nil
}
