package bundled

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"time"

	"goa.design/conductor/tools"
)

const restockingFeeRate = 0.15

func (r *Registry) refundTools() []tools.Tool {
	return []tools.Tool{
		{
			Name:        "get_order_details",
			Description: "Look up an order to verify it exists before assessing a refund.",
			InputSchema: tools.ObjectSchema(map[string]any{
				"order_id": tools.String("the order ID"),
			}, "order_id"),
			Invoke: func(_ context.Context, args json.RawMessage) (any, error) {
				var in struct {
					OrderID string `json:"order_id"`
				}
				if err := decode(args, &in); err != nil {
					return nil, err
				}
				order, err := r.store.Order(in.OrderID)
				if err != nil {
					return tools.Fail("Order not found"), nil
				}
				return tools.OK(map[string]any{"order": order}), nil
			},
		},
		{
			Name:        "check_refund_eligibility",
			Description: "Check whether an order is eligible for refund under the return policy.",
			InputSchema: tools.ObjectSchema(map[string]any{
				"order_id": tools.String("the order ID"),
				"reason":   tools.String("why the customer wants the refund"),
			}, "order_id", "reason"),
			Invoke: func(_ context.Context, args json.RawMessage) (any, error) {
				var in struct {
					OrderID string `json:"order_id"`
					Reason  string `json:"reason"`
				}
				if err := decode(args, &in); err != nil {
					return nil, err
				}
				order, err := r.store.Order(in.OrderID)
				if err != nil {
					return tools.Fail("Order not found"), nil
				}
				policy := r.store.ReturnPolicy()
				windowDays := 30
				if w, ok := policy["return_window_days"].(float64); ok {
					windowDays = int(w)
				}
				daysSince := -1
				if orderDate, err := time.Parse("2006-01-02", str(order["order_date"])); err == nil {
					daysSince = int(r.now().Sub(orderDate).Hours() / 24)
				}
				eligibility := map[string]any{
					"order_id":           in.OrderID,
					"days_since_order":   daysSince,
					"return_window_days": windowDays,
					"within_return_window": daysSince >= 0 &&
						daysSince <= windowDays,
					"reason": in.Reason,
				}
				reason := strings.ToLower(in.Reason)
				switch {
				case strings.Contains(reason, "defective") || strings.Contains(reason, "wrong item"):
					eligibility["eligible"] = true
					eligibility["exception_type"] = "defective_or_wrong_item"
					eligibility["refund_shipping"] = true
				case daysSince < 0 || daysSince > windowDays:
					eligibility["eligible"] = false
					eligibility["reason_declined"] = "Outside return window"
				default:
					eligibility["eligible"] = true
					eligibility["refund_shipping"] = false
				}
				return tools.OK(map[string]any{"eligibility": eligibility}), nil
			},
		},
		{
			Name:        "calculate_refund_amount",
			Description: "Calculate the refund amount for an order. Partial refunds carry a 15% restocking fee.",
			InputSchema: tools.ObjectSchema(map[string]any{
				"order_id":    tools.String("the order ID"),
				"refund_type": tools.Enum("refund type", "full", "partial"),
			}, "order_id"),
			Invoke: func(_ context.Context, args json.RawMessage) (any, error) {
				var in struct {
					OrderID    string `json:"order_id"`
					RefundType string `json:"refund_type"`
				}
				if err := decode(args, &in); err != nil {
					return nil, err
				}
				if in.RefundType == "" {
					in.RefundType = "full"
				}
				order, err := r.store.Order(in.OrderID)
				if err != nil {
					return tools.Fail("Order not found"), nil
				}
				total, _ := order["total"].(float64)
				amount := total
				var deductions []map[string]any
				if in.RefundType == "partial" {
					fee := round2(total * restockingFeeRate)
					amount = total - fee
					deductions = append(deductions, map[string]any{"type": "restocking_fee", "amount": fee})
				}
				policy := r.store.ReturnPolicy()
				return tools.OK(map[string]any{
					"refund_breakdown": map[string]any{
						"order_id":        in.OrderID,
						"original_total":  total,
						"refund_amount":   round2(amount),
						"refund_type":     in.RefundType,
						"deductions":      deductions,
						"processing_time": policy["refund_processing_time"],
					},
				}), nil
			},
		},
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
