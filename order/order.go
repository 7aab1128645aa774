// Package order renders a cart and delivery details into the order text
// handed to the messaging channel, and builds the deep link carrying it.
package order

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"cafe-cart/geo"
	models "cafe-cart/model"
)

const (
	DefaultShopName  = "Baloji's Cafe"
	DefaultCurrency  = "₹"
	DefaultBaseURL   = "https://wa.me"
	DefaultRecipient = "919620538708"
)

// validationError marks input the customer can correct and resubmit.
type validationError struct {
	message string
}

func (e validationError) Error() string { return e.message }

var (
	ErrEmptyCart      error = validationError{message: "your cart is empty"}
	ErrMissingMobile  error = validationError{message: "mobile number is required"}
	ErrMissingAddress error = validationError{message: "delivery address is required"}
)

// IsValidation separates re-prompt conditions from infrastructure failures.
func IsValidation(err error) bool {
	var v validationError
	return errors.As(err, &v)
}

// Payload is the rendered order.
type Payload struct {
	Text  string `json:"text"`
	URI   string `json:"uri"`
	Total int    `json:"total"`
}

// Formatter holds the shop branding and the messaging deep link target.
type Formatter struct {
	ShopName  string
	Currency  string
	BaseURL   string
	Recipient string
}

// NewFormatter fills blank fields with the defaults.
func NewFormatter(shop, currency, baseURL, recipient string) *Formatter {
	f := &Formatter{ShopName: shop, Currency: currency, BaseURL: baseURL, Recipient: recipient}
	if f.ShopName == "" {
		f.ShopName = DefaultShopName
	}
	if f.Currency == "" {
		f.Currency = DefaultCurrency
	}
	if f.BaseURL == "" {
		f.BaseURL = DefaultBaseURL
	}
	if f.Recipient == "" {
		f.Recipient = DefaultRecipient
	}
	return f
}

// Validate rejects an empty cart and blank contact fields, in that order.
func Validate(lines []models.CartLine, d models.DeliveryDetails) error {
	if len(lines) == 0 {
		return ErrEmptyCart
	}
	if strings.TrimSpace(d.Mobile) == "" {
		return ErrMissingMobile
	}
	if strings.TrimSpace(d.Address) == "" {
		return ErrMissingAddress
	}
	return nil
}

// Format validates its input and renders the order. total is the cart's
// own total for lines. The same input always gives the same payload.
func (f *Formatter) Format(lines []models.CartLine, total int, d models.DeliveryDetails) (Payload, error) {
	if err := Validate(lines, d); err != nil {
		return Payload{}, err
	}
	text := f.Text(lines, total, d)
	return Payload{Text: text, URI: f.URI(text), Total: total}, nil
}

// Text renders the message body without validating.
func (f *Formatter) Text(lines []models.CartLine, total int, d models.DeliveryDetails) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🍽️ *Order from %s*\n\n", f.ShopName)
	fmt.Fprintf(&b, "📱 *Mobile Number:* %s\n", d.Mobile)
	fmt.Fprintf(&b, "📍 *Delivery Location:* %s\n", d.Address)
	if d.Location != nil {
		fmt.Fprintf(&b, "🗺️ *Map Link:* %s\n", geo.MapLink(*d.Location))
	}

	b.WriteString("\n📋 *Order Details:*\n")
	for i, l := range lines {
		fmt.Fprintf(&b, "%d. %s × %d = %s%d\n", i+1, l.Name, l.Quantity, f.Currency, l.Subtotal())
	}

	fmt.Fprintf(&b, "\n💰 *Total Amount: %s%d*\n\n", f.Currency, total)
	fmt.Fprintf(&b, "Thank you for ordering from %s! 🎉", f.ShopName)
	return b.String()
}

// URI embeds text as the single text query parameter of the deep link.
func (f *Formatter) URI(text string) string {
	return BuildURI(f.BaseURL, f.Recipient, text)
}

// BuildURI returns <base>/<recipient>?text=<escaped text>.
func BuildURI(base, recipient, text string) string {
	return strings.TrimRight(base, "/") + "/" + url.PathEscape(recipient) + "?text=" + EscapeComponent(text)
}

// componentSafe are the punctuation marks a browser leaves bare when
// encoding a URI component; url.QueryEscape encodes them.
var componentSafe = strings.NewReplacer("+", "%20", "%21", "!", "%27", "'", "%28", "(", "%29", ")", "%2A", "*")

// EscapeComponent percent-encodes s the way encodeURIComponent does:
// UTF-8 bytes escaped, letters, digits and -_.!~*'() left alone.
func EscapeComponent(s string) string {
	return componentSafe.Replace(url.QueryEscape(s))
}

// Summary is the checkout preview: the lines with subtotals and the total.
type Summary struct {
	Lines     []SummaryLine `json:"lines"`
	Total     int           `json:"total"`
	ItemCount int           `json:"item_count"`
}

type SummaryLine struct {
	Index    int    `json:"index"`
	Name     string `json:"name"`
	Price    int    `json:"price"`
	Quantity int    `json:"quantity"`
	Subtotal int    `json:"subtotal"`
}

// Summarize builds the preview shown before the customer confirms.
func Summarize(lines []models.CartLine) Summary {
	s := Summary{Lines: make([]SummaryLine, 0, len(lines))}
	for i, l := range lines {
		s.Lines = append(s.Lines, SummaryLine{
			Index:    i,
			Name:     l.Name,
			Price:    l.Price,
			Quantity: l.Quantity,
			Subtotal: l.Subtotal(),
		})
		s.Total += l.Subtotal()
		s.ItemCount += l.Quantity
	}
	return s
}

// Amount prints a whole-unit price with the currency symbol.
func Amount(symbol string, n int) string {
	return symbol + strconv.Itoa(n)
}
