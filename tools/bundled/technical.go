package bundled

import (
	"context"
	"encoding/json"
	"time"

	"goa.design/conductor/tools"
)

const warrantyMonths = 12

func (r *Registry) technicalTools() []tools.Tool {
	return []tools.Tool{
		{
			Name:        "search_knowledge_base",
			Description: "Search the technical knowledge base for known issues and their troubleshooting steps.",
			InputSchema: tools.ObjectSchema(map[string]any{
				"issue_description": tools.String("description of the technical problem"),
			}, "issue_description"),
			Invoke: func(_ context.Context, args json.RawMessage) (any, error) {
				var in struct {
					IssueDescription string `json:"issue_description"`
				}
				if err := decode(args, &in); err != nil {
					return nil, err
				}
				matches := r.store.SearchKnowledgeBase(in.IssueDescription)
				if len(matches) == 0 {
					return tools.OK(map[string]any{
						"matches": []any{},
						"message": "No known issues matched. Gather symptoms and escalate if unresolvable.",
					}), nil
				}
				return tools.OK(map[string]any{"matches": matches}), nil
			},
		},
		{
			Name:        "check_warranty",
			Description: "Check whether a product is still under the standard 12-month warranty.",
			InputSchema: tools.ObjectSchema(map[string]any{
				"product_id":    tools.String("the product ID"),
				"purchase_date": tools.String("purchase date in YYYY-MM-DD format"),
			}, "product_id", "purchase_date"),
			Invoke: func(_ context.Context, args json.RawMessage) (any, error) {
				var in struct {
					ProductID    string `json:"product_id"`
					PurchaseDate string `json:"purchase_date"`
				}
				if err := decode(args, &in); err != nil {
					return nil, err
				}
				purchased, err := time.Parse("2006-01-02", in.PurchaseDate)
				if err != nil {
					return tools.Fail("Invalid purchase date, expected YYYY-MM-DD"), nil
				}
				expires := purchased.AddDate(0, warrantyMonths, 0)
				now := r.now()
				remaining := int(expires.Sub(now).Hours() / 24)
				if remaining < 0 {
					remaining = 0
				}
				return tools.OK(map[string]any{
					"product_id":      in.ProductID,
					"under_warranty":  now.Before(expires),
					"warranty_months": warrantyMonths,
					"expires":         expires.Format("2006-01-02"),
					"days_remaining":  remaining,
				}), nil
			},
		},
	}
}
