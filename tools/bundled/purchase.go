package bundled

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"goa.design/conductor/store"
	"goa.design/conductor/tools"
)

// purchaseTools builds the clothing purchase toolset for one gender. Male and
// female specialists share the mechanics; only the catalog slice and the
// measurement requirements differ.
func (r *Registry) purchaseTools(gender string) []tools.Tool {
	requirements := store.MaleMeasurementRequirements
	if gender == "female" {
		requirements = store.FemaleMeasurementRequirements
	}
	categories := make([]string, 0, len(requirements))
	for c := range requirements {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	return []tools.Tool{
		{
			Name:        "search_products",
			Description: fmt.Sprintf("List available %s clothing, optionally filtered by category.", gender),
			InputSchema: tools.ObjectSchema(map[string]any{
				"category": tools.String("optional garment category such as shirt or pants"),
			}),
			Invoke: func(_ context.Context, args json.RawMessage) (any, error) {
				var in struct {
					Category string `json:"category"`
				}
				if err := decode(args, &in); err != nil {
					return nil, err
				}
				products := r.store.SearchProducts(gender, in.Category)
				if len(products) == 0 {
					return tools.OK(map[string]any{
						"products": []any{},
						"message":  "No matching products in stock",
					}), nil
				}
				return tools.OK(map[string]any{"products": products}), nil
			},
		},
		{
			Name:        "get_product_details",
			Description: "Get full details for one product: sizes, colors, price and stock.",
			InputSchema: tools.ObjectSchema(map[string]any{
				"product_id": tools.String("the product ID"),
			}, "product_id"),
			Invoke: func(_ context.Context, args json.RawMessage) (any, error) {
				var in struct {
					ProductID string `json:"product_id"`
				}
				if err := decode(args, &in); err != nil {
					return nil, err
				}
				product, err := r.store.Product(in.ProductID)
				if err != nil {
					return tools.Fail("Product not found"), nil
				}
				if g := str(product["gender"]); g != "" && g != gender {
					return tools.Fail("Product %s is not in the %s catalog", in.ProductID, gender), nil
				}
				return tools.OK(map[string]any{"product": product}), nil
			},
		},
		{
			Name:        "get_measurement_requirements",
			Description: fmt.Sprintf("List the measurements required to fit a %s garment category.", gender),
			InputSchema: tools.ObjectSchema(map[string]any{
				"item_category": tools.Enum("garment category", categories...),
			}, "item_category"),
			Invoke: func(_ context.Context, args json.RawMessage) (any, error) {
				var in struct {
					ItemCategory string `json:"item_category"`
				}
				if err := decode(args, &in); err != nil {
					return nil, err
				}
				required, ok := requirements[in.ItemCategory]
				if !ok {
					return tools.Fail("Unknown category %s. Available: %v", in.ItemCategory, categories), nil
				}
				return tools.OK(map[string]any{
					"item_category":         in.ItemCategory,
					"required_measurements": required,
					"unit":                  "inches",
				}), nil
			},
		},
		{
			Name:        "save_measurements",
			Description: "Validate and save the customer's measurements for later sizing. All required measurements for the category must be present.",
			InputSchema: tools.ObjectSchema(map[string]any{
				"customer_id":   tools.String("the customer's ID"),
				"item_category": tools.Enum("garment category", categories...),
				"measurements": map[string]any{
					"type":                 "object",
					"description":          "measurement name to value in inches",
					"additionalProperties": map[string]any{"type": "number"},
				},
			}, "customer_id", "item_category", "measurements"),
			Invoke: func(_ context.Context, args json.RawMessage) (any, error) {
				var in struct {
					CustomerID   string             `json:"customer_id"`
					ItemCategory string             `json:"item_category"`
					Measurements map[string]float64 `json:"measurements"`
				}
				if err := decode(args, &in); err != nil {
					return nil, err
				}
				required, ok := requirements[in.ItemCategory]
				if !ok {
					return tools.Fail("Unknown category %s. Available: %v", in.ItemCategory, categories), nil
				}
				var missing, invalid []string
				for _, name := range required {
					v, ok := in.Measurements[name]
					switch {
					case !ok:
						missing = append(missing, name)
					case v <= 0 || v > 100:
						invalid = append(invalid, name)
					}
				}
				if len(missing) > 0 || len(invalid) > 0 {
					return tools.Fail("Measurements incomplete. Missing: %v, out of range: %v", missing, invalid), nil
				}
				saved := make(map[string]any, len(in.Measurements))
				for k, v := range in.Measurements {
					saved[k] = v
				}
				if err := r.store.SaveMeasurements(in.CustomerID, gender, saved); err != nil {
					return nil, err
				}
				return tools.OK(map[string]any{
					"validation_status": "complete",
					"measurements":      saved,
					"message":           "Measurements validated and saved",
				}), nil
			},
		},
		{
			Name:        "get_saved_measurements",
			Description: "Retrieve the customer's previously saved measurements.",
			InputSchema: tools.ObjectSchema(map[string]any{
				"customer_id": tools.String("the customer's ID"),
			}, "customer_id"),
			Invoke: func(_ context.Context, args json.RawMessage) (any, error) {
				var in struct {
					CustomerID string `json:"customer_id"`
				}
				if err := decode(args, &in); err != nil {
					return nil, err
				}
				measurements, err := r.store.CustomerMeasurements(in.CustomerID, gender)
				if err != nil {
					return tools.Fail("No saved measurements for customer"), nil
				}
				return tools.OK(map[string]any{"measurements": measurements}), nil
			},
		},
	}
}
