package bundled

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"goa.design/conductor/tools"
)

const taxRate = 0.08

type discount struct {
	Percentage  float64
	Fixed       float64
	Description string
}

// discountCodes are the promotional codes the billing agent may apply.
var discountCodes = map[string]discount{
	"FIRST10": {Percentage: 10, Description: "10% off first purchase"},
	"SAVE20":  {Percentage: 20, Description: "20% off"},
	"FLAT50":  {Fixed: 50, Description: "$50 off"},
	"VIP25":   {Percentage: 25, Description: "25% VIP discount"},
}

var paymentMethods = []string{"credit_card", "debit_card", "paypal", "bank_transfer"}

func (r *Registry) billingTools() []tools.Tool {
	return []tools.Tool{
		{
			Name:        "create_purchase",
			Description: "Create a purchase record for the selected items. Returns the purchase ID used by billing and delivery.",
			InputSchema: tools.ObjectSchema(map[string]any{
				"customer_id": tools.String("the customer's ID"),
				"items": map[string]any{
					"type":        "array",
					"description": "items with product_id, product_name, price and quantity",
					"items":       map[string]any{"type": "object"},
				},
			}, "customer_id", "items"),
			Invoke: func(_ context.Context, args json.RawMessage) (any, error) {
				var in struct {
					CustomerID string           `json:"customer_id"`
					Items      []map[string]any `json:"items"`
				}
				if err := decode(args, &in); err != nil {
					return nil, err
				}
				if len(in.Items) == 0 {
					return tools.Fail("At least one item is required"), nil
				}
				purchaseID, err := r.store.CreatePurchase(in.CustomerID, in.Items, nil)
				if err != nil {
					return nil, err
				}
				return tools.OK(map[string]any{
					"purchase_id": purchaseID,
					"message":     "Purchase " + purchaseID + " created",
				}), nil
			},
		},
		{
			Name:        "calculate_total",
			Description: "Calculate the purchase total: item breakdown, alteration cost, tax and grand total.",
			InputSchema: tools.ObjectSchema(map[string]any{
				"purchase_id": tools.String("the purchase ID"),
			}, "purchase_id"),
			Invoke: func(_ context.Context, args json.RawMessage) (any, error) {
				var in struct {
					PurchaseID string `json:"purchase_id"`
				}
				if err := decode(args, &in); err != nil {
					return nil, err
				}
				breakdown, result := r.purchaseTotal(in.PurchaseID)
				if result != nil {
					return *result, nil
				}
				return tools.OK(breakdown), nil
			},
		},
		{
			Name:        "apply_discount",
			Description: "Apply a discount code (FIRST10, SAVE20, FLAT50, VIP25) to a purchase.",
			InputSchema: tools.ObjectSchema(map[string]any{
				"purchase_id":   tools.String("the purchase ID"),
				"discount_code": tools.String("the promotional code"),
			}, "purchase_id", "discount_code"),
			Invoke: func(_ context.Context, args json.RawMessage) (any, error) {
				var in struct {
					PurchaseID   string `json:"purchase_id"`
					DiscountCode string `json:"discount_code"`
				}
				if err := decode(args, &in); err != nil {
					return nil, err
				}
				code := strings.ToUpper(in.DiscountCode)
				d, ok := discountCodes[code]
				if !ok {
					return tools.Fail("Invalid discount code: %s", in.DiscountCode), nil
				}
				breakdown, result := r.purchaseTotal(in.PurchaseID)
				if result != nil {
					return *result, nil
				}
				subtotal := breakdown["subtotal"].(float64)
				originalTotal := breakdown["total"].(float64)
				amount := d.Fixed
				if d.Percentage > 0 {
					amount = round2(subtotal * d.Percentage / 100)
				}
				newSubtotal := subtotal - amount
				newTotal := round2(newSubtotal + round2(newSubtotal*taxRate))
				if err := r.store.UpdatePurchase(in.PurchaseID, map[string]any{
					"discount_code":        code,
					"discount_amount":      amount,
					"discount_description": d.Description,
				}); err != nil {
					return nil, err
				}
				return tools.OK(map[string]any{
					"discount_applied":     true,
					"discount_code":        code,
					"discount_description": d.Description,
					"discount_amount":      amount,
					"original_total":       originalTotal,
					"new_total":            newTotal,
					"savings":              round2(originalTotal - newTotal),
				}), nil
			},
		},
		{
			Name:        "process_payment",
			Description: "Process payment for a purchase and record the billing details. Supports credit_card, debit_card, paypal and bank_transfer.",
			InputSchema: tools.ObjectSchema(map[string]any{
				"purchase_id":     tools.String("the purchase ID"),
				"payment_method":  tools.Enum("payment method", paymentMethods...),
				"payment_details": map[string]any{"type": "object", "description": "method-specific payment details"},
			}, "purchase_id", "payment_method"),
			Invoke: func(_ context.Context, args json.RawMessage) (any, error) {
				var in struct {
					PurchaseID     string         `json:"purchase_id"`
					PaymentMethod  string         `json:"payment_method"`
					PaymentDetails map[string]any `json:"payment_details"`
				}
				if err := decode(args, &in); err != nil {
					return nil, err
				}
				purchase, err := r.store.Purchase(in.PurchaseID)
				if err != nil {
					return tools.Fail("Purchase not found"), nil
				}
				breakdown, result := r.purchaseTotal(in.PurchaseID)
				if result != nil {
					return *result, nil
				}
				total := breakdown["total"].(float64)
				if amount, ok := purchase["discount_amount"].(float64); ok && amount > 0 {
					discounted := breakdown["subtotal"].(float64) - amount
					total = round2(discounted + round2(discounted*taxRate))
				}
				transactionID := "TXN-" + tail8(in.PurchaseID)
				if err := r.store.SaveBilling(in.PurchaseID, map[string]any{
					"payment_method":  in.PaymentMethod,
					"transaction_id":  transactionID,
					"amount_charged":  total,
					"currency":        "USD",
					"status":          "completed",
					"payment_details": in.PaymentDetails,
				}); err != nil {
					return nil, err
				}
				if err := r.store.UpdatePurchase(in.PurchaseID, map[string]any{
					"billing_complete": true,
					"payment_status":   "paid",
					"transaction_id":   transactionID,
				}); err != nil {
					return nil, err
				}
				return tools.OK(map[string]any{
					"payment_processed": true,
					"transaction_id":    transactionID,
					"amount_charged":    total,
					"payment_method":    in.PaymentMethod,
					"message":           "Payment processed successfully",
				}), nil
			},
		},
		{
			Name:        "generate_invoice",
			Description: "Generate an invoice summary for a purchase.",
			InputSchema: tools.ObjectSchema(map[string]any{
				"purchase_id": tools.String("the purchase ID"),
			}, "purchase_id"),
			Invoke: func(_ context.Context, args json.RawMessage) (any, error) {
				var in struct {
					PurchaseID string `json:"purchase_id"`
				}
				if err := decode(args, &in); err != nil {
					return nil, err
				}
				purchase, err := r.store.Purchase(in.PurchaseID)
				if err != nil {
					return tools.Fail("Purchase not found"), nil
				}
				breakdown, result := r.purchaseTotal(in.PurchaseID)
				if result != nil {
					return *result, nil
				}
				customer, _ := r.store.Customer(str(purchase["customer_id"]))
				invoice := map[string]any{
					"invoice_id":     "INV-" + tail8(in.PurchaseID),
					"purchase_id":    in.PurchaseID,
					"customer_name":  customer["name"],
					"customer_email": customer["email"],
					"items":          breakdown["item_breakdown"],
					"subtotal":       breakdown["subtotal"],
					"tax":            breakdown["tax"],
					"discount":       purchase["discount_amount"],
					"total":          breakdown["total"],
					"payment_status": purchase["payment_status"],
					"transaction_id": purchase["transaction_id"],
				}
				return tools.OK(map[string]any{"invoice": invoice}), nil
			},
		},
	}
}

// purchaseTotal computes the pre-discount breakdown for a purchase. A non-nil
// result carries the failure to return to the model.
func (r *Registry) purchaseTotal(purchaseID string) (map[string]any, *tools.Result) {
	purchase, err := r.store.Purchase(purchaseID)
	if err != nil {
		fail := tools.Fail("Purchase not found")
		return nil, &fail
	}
	var itemsTotal float64
	var itemBreakdown []map[string]any
	if items, ok := purchase["items"].([]any); ok {
		for _, raw := range items {
			item, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			price, _ := item["price"].(float64)
			quantity, ok := item["quantity"].(float64)
			if !ok {
				quantity = 1
			}
			subtotal := price * quantity
			itemsTotal += subtotal
			itemBreakdown = append(itemBreakdown, map[string]any{
				"product":  item["product_name"],
				"price":    price,
				"quantity": quantity,
				"subtotal": subtotal,
			})
		}
	}
	alterationCost, _ := purchase["alteration_cost"].(float64)
	subtotal := itemsTotal + alterationCost
	tax := round2(subtotal * taxRate)
	return map[string]any{
		"purchase_id":     purchaseID,
		"item_breakdown":  itemBreakdown,
		"items_total":     round2(itemsTotal),
		"alteration_cost": round2(alterationCost),
		"subtotal":        round2(subtotal),
		"tax":             tax,
		"tax_rate":        fmt.Sprintf("%g%%", taxRate*100),
		"total":           round2(subtotal + tax),
	}, nil
}

func tail8(s string) string {
	if len(s) <= 8 {
		return s
	}
	return s[len(s)-8:]
}
