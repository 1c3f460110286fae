package bundled

import (
	"context"
	"encoding/json"
	"sort"

	"goa.design/conductor/store"
	"goa.design/conductor/tools"
)

func (r *Registry) alterationTools() []tools.Tool {
	kinds := make([]string, 0, len(store.AlterationPricing))
	for kind := range store.AlterationPricing {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	return []tools.Tool{
		{
			Name:        "get_alteration_pricing",
			Description: "List available alteration types and their fixed prices.",
			InputSchema: tools.ObjectSchema(map[string]any{}),
			Invoke: func(_ context.Context, _ json.RawMessage) (any, error) {
				pricing := make([]map[string]any, 0, len(kinds))
				for _, kind := range kinds {
					pricing = append(pricing, map[string]any{
						"type":  kind,
						"price": store.AlterationPricing[kind],
					})
				}
				return tools.OK(map[string]any{"pricing": pricing}), nil
			},
		},
		{
			Name:        "calculate_alteration_cost",
			Description: "Calculate the total cost for a set of alteration types.",
			InputSchema: tools.ObjectSchema(map[string]any{
				"alteration_types": map[string]any{
					"type":        "array",
					"description": "alteration types to price",
					"items":       map[string]any{"type": "string"},
				},
			}, "alteration_types"),
			Invoke: func(_ context.Context, args json.RawMessage) (any, error) {
				var in struct {
					AlterationTypes []string `json:"alteration_types"`
				}
				if err := decode(args, &in); err != nil {
					return nil, err
				}
				var total float64
				breakdown := make([]map[string]any, 0, len(in.AlterationTypes))
				for _, kind := range in.AlterationTypes {
					price, ok := store.AlterationPricing[kind]
					if !ok {
						return tools.Fail("Unknown alteration type %s. Available: %v", kind, kinds), nil
					}
					total += price
					breakdown = append(breakdown, map[string]any{"type": kind, "price": price})
				}
				return tools.OK(map[string]any{
					"breakdown":  breakdown,
					"total_cost": round2(total),
				}), nil
			},
		},
		{
			Name:        "create_alteration_request",
			Description: "Create an alteration request for a purchased item. Each alteration needs a type and optional notes.",
			InputSchema: tools.ObjectSchema(map[string]any{
				"purchase_id": tools.String("the purchase ID"),
				"item_id":     tools.String("the item or product ID within the purchase"),
				"alterations": map[string]any{
					"type":        "array",
					"description": "alterations with type and optional notes",
					"items":       map[string]any{"type": "object"},
				},
			}, "purchase_id", "item_id", "alterations"),
			Invoke: func(_ context.Context, args json.RawMessage) (any, error) {
				var in struct {
					PurchaseID  string           `json:"purchase_id"`
					ItemID      string           `json:"item_id"`
					Alterations []map[string]any `json:"alterations"`
				}
				if err := decode(args, &in); err != nil {
					return nil, err
				}
				if _, err := r.store.Purchase(in.PurchaseID); err != nil {
					return tools.Fail("Purchase not found"), nil
				}
				var total float64
				for _, alt := range in.Alterations {
					kind := str(alt["type"])
					price, ok := store.AlterationPricing[kind]
					if !ok {
						return tools.Fail("Unknown alteration type %s. Available: %v", kind, kinds), nil
					}
					alt["price"] = price
					total += price
				}
				alterationID, err := r.store.CreateAlterationRequest(in.PurchaseID, in.ItemID, in.Alterations)
				if err != nil {
					return nil, err
				}
				if err := r.store.UpdatePurchase(in.PurchaseID, map[string]any{
					"alterations_requested": true,
					"alteration_cost":       round2(total),
				}); err != nil {
					return nil, err
				}
				return tools.OK(map[string]any{
					"alteration_id": alterationID,
					"total_cost":    round2(total),
					"message":       "Alteration request " + alterationID + " created",
				}), nil
			},
		},
		{
			Name:        "get_alteration_status",
			Description: "Look up an alteration request by ID.",
			InputSchema: tools.ObjectSchema(map[string]any{
				"alteration_id": tools.String("the alteration request ID"),
			}, "alteration_id"),
			Invoke: func(_ context.Context, args json.RawMessage) (any, error) {
				var in struct {
					AlterationID string `json:"alteration_id"`
				}
				if err := decode(args, &in); err != nil {
					return nil, err
				}
				alteration, err := r.store.Alteration(in.AlterationID)
				if err != nil {
					return tools.Fail("Alteration request not found"), nil
				}
				return tools.OK(map[string]any{"alteration": alteration}), nil
			},
		},
	}
}
