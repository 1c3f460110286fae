package bundled

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"goa.design/conductor/store"
	"goa.design/conductor/tools"
)

var serviceableStates = []string{"CA", "NY", "TX", "FL", "IL", "PA", "OH", "GA", "NC", "MI"}

func (r *Registry) deliveryTools() []tools.Tool {
	return []tools.Tool{
		{
			Name:        "get_delivery_options",
			Description: "List available delivery options with cost and business-day timing.",
			InputSchema: tools.ObjectSchema(map[string]any{}),
			Invoke: func(_ context.Context, _ json.RawMessage) (any, error) {
				names := make([]string, 0, len(store.DeliveryOptions))
				for name := range store.DeliveryOptions {
					names = append(names, name)
				}
				sort.Strings(names)
				options := make([]map[string]any, 0, len(names))
				for _, name := range names {
					opt := store.DeliveryOptions[name]
					options = append(options, map[string]any{
						"option":        name,
						"name":          opt.Name,
						"cost":          opt.Cost,
						"business_days": opt.Days,
					})
				}
				return tools.OK(map[string]any{"options": options}), nil
			},
		},
		{
			Name:        "validate_address",
			Description: "Validate a delivery address: required fields, ZIP format and serviceable state.",
			InputSchema: tools.ObjectSchema(map[string]any{
				"address": addressSchema(),
			}, "address"),
			Invoke: func(_ context.Context, args json.RawMessage) (any, error) {
				var in struct {
					Address map[string]string `json:"address"`
				}
				if err := decode(args, &in); err != nil {
					return nil, err
				}
				formatted, issue := validateAddress(in.Address)
				if issue != "" {
					return tools.OK(map[string]any{"valid": false, "issue": issue}), nil
				}
				return tools.OK(map[string]any{
					"valid":             true,
					"formatted_address": formatted,
					"message":           "Address validated successfully",
				}), nil
			},
		},
		{
			Name:        "schedule_delivery",
			Description: "Schedule delivery for a paid purchase to a validated address. Returns tracking number and scheduled date.",
			InputSchema: tools.ObjectSchema(map[string]any{
				"purchase_id":     tools.String("the purchase ID"),
				"delivery_option": tools.Enum("delivery option", "standard", "express", "overnight"),
				"address":         addressSchema(),
			}, "purchase_id", "delivery_option", "address"),
			Invoke: func(_ context.Context, args json.RawMessage) (any, error) {
				var in struct {
					PurchaseID     string            `json:"purchase_id"`
					DeliveryOption string            `json:"delivery_option"`
					Address        map[string]string `json:"address"`
				}
				if err := decode(args, &in); err != nil {
					return nil, err
				}
				purchase, err := r.store.Purchase(in.PurchaseID)
				if err != nil {
					return tools.Fail("Purchase not found"), nil
				}
				if complete, _ := purchase["billing_complete"].(bool); !complete {
					return tools.Fail("Cannot schedule delivery. Billing must be completed first."), nil
				}
				formatted, issue := validateAddress(in.Address)
				if issue != "" {
					return tools.Fail("%s", issue), nil
				}
				addr := make(map[string]any, len(in.Address))
				for k, v := range in.Address {
					addr[k] = v
				}
				schedule, err := r.store.ScheduleDelivery(in.PurchaseID, in.DeliveryOption, addr)
				if err != nil {
					return tools.Fail("Failed to schedule delivery: %v", err), nil
				}
				if err := r.store.UpdatePurchase(in.PurchaseID, map[string]any{
					"delivery_scheduled": true,
					"delivery_option":    in.DeliveryOption,
					"delivery_address":   formatted,
				}); err != nil {
					return nil, err
				}
				return tools.OK(map[string]any{
					"message":          "Delivery scheduled successfully",
					"purchase_id":      in.PurchaseID,
					"delivery_date":    schedule["scheduled_date"],
					"tracking_number":  schedule["tracking_number"],
					"delivery_address": formatted,
				}), nil
			},
		},
		{
			Name:        "get_delivery_status",
			Description: "Get the scheduled delivery details for a purchase.",
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
				schedule, err := r.store.DeliverySchedule(in.PurchaseID)
				if err != nil {
					return tools.Fail("No delivery scheduled for purchase"), nil
				}
				return tools.OK(map[string]any{"delivery": schedule}), nil
			},
		},
	}
}

func addressSchema() map[string]any {
	return map[string]any{
		"type":        "object",
		"description": "delivery address",
		"properties": map[string]any{
			"street":   tools.String("street address"),
			"city":     tools.String("city"),
			"state":    tools.String("two-letter state code"),
			"zip_code": tools.String("5-digit ZIP code"),
			"country":  tools.String("country"),
		},
		"required":             []string{"street", "city", "state", "zip_code", "country"},
		"additionalProperties": false,
	}
}

// validateAddress returns the formatted address, or a non-empty issue when
// the address cannot be delivered to.
func validateAddress(address map[string]string) (string, string) {
	for _, field := range []string{"street", "city", "state", "zip_code", "country"} {
		if address[field] == "" {
			return "", "Missing required field: " + field
		}
	}
	zip := address["zip_code"]
	if len(zip) != 5 || !isDigits(zip) {
		return "", "Invalid ZIP code format (must be 5 digits)"
	}
	state := strings.ToUpper(address["state"])
	serviceable := false
	for _, s := range serviceableStates {
		if s == state {
			serviceable = true
			break
		}
	}
	if !serviceable {
		return "", fmt.Sprintf("Delivery not available in %s. Serviceable states: %v", state, serviceableStates)
	}
	return fmt.Sprintf("%s, %s, %s %s, %s",
		address["street"], address["city"], state, zip, address["country"]), ""
}
