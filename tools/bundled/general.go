package bundled

import (
	"context"
	"encoding/json"

	"goa.design/conductor/tools"
)

func (r *Registry) generalTools() []tools.Tool {
	return []tools.Tool{
		{
			Name:        "search_faq",
			Description: "Search the FAQ for answers to common questions about shipping, returns and the company.",
			InputSchema: tools.ObjectSchema(map[string]any{
				"query": tools.String("the customer's question or keywords"),
			}, "query"),
			Invoke: func(_ context.Context, args json.RawMessage) (any, error) {
				var in struct {
					Query string `json:"query"`
				}
				if err := decode(args, &in); err != nil {
					return nil, err
				}
				matches := r.store.SearchFAQ(in.Query)
				if len(matches) == 0 {
					return tools.OK(map[string]any{
						"matches": []any{},
						"message": "No FAQ entries matched",
					}), nil
				}
				return tools.OK(map[string]any{"matches": matches}), nil
			},
		},
		{
			Name:        "get_return_policy",
			Description: "Get the full return policy: window, conditions, exceptions and processing time.",
			InputSchema: tools.ObjectSchema(map[string]any{}),
			Invoke: func(_ context.Context, _ json.RawMessage) (any, error) {
				return tools.OK(map[string]any{"policy": r.store.ReturnPolicy()}), nil
			},
		},
		{
			Name:        "get_account_info",
			Description: "Look up a customer's account profile and tier.",
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
				customer, err := r.store.Customer(in.CustomerID)
				if err != nil {
					return tools.Fail("Customer not found"), nil
				}
				return tools.OK(map[string]any{"account": customer}), nil
			},
		},
	}
}
