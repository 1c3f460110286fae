package store

// DeliveryOption describes one shipping tier.
type DeliveryOption struct {
	Name string
	Cost float64
	Days int
}

// DeliveryOptions are the shipping tiers the delivery agent may book.
var DeliveryOptions = map[string]DeliveryOption{
	"standard":  {Name: "Standard Delivery", Cost: 9.99, Days: 5},
	"express":   {Name: "Express Delivery", Cost: 19.99, Days: 2},
	"overnight": {Name: "Overnight Delivery", Cost: 39.99, Days: 1},
}

// AlterationPricing maps alteration kinds to their fixed price.
var AlterationPricing = map[string]float64{
	"hemming":             15.00,
	"taking_in":           25.00,
	"letting_out":         30.00,
	"sleeve_adjustment":   20.00,
	"waist_adjustment":    25.00,
	"shoulder_adjustment": 35.00,
	"length_adjustment":   20.00,
	"custom_alteration":   50.00,
}

// MaleMeasurementRequirements lists the measurements each male garment
// category needs before purchase.
var MaleMeasurementRequirements = map[string][]string{
	"shirt": {"chest", "waist", "shoulder_width", "sleeve_length", "neck"},
	"pants": {"waist", "inseam", "outseam", "hip", "thigh"},
	"suit":  {"chest", "waist", "shoulder_width", "sleeve_length", "neck", "inseam", "outseam"},
}

// FemaleMeasurementRequirements lists the measurements each female garment
// category needs before purchase.
var FemaleMeasurementRequirements = map[string][]string{
	"dress":  {"bust", "waist", "hip", "shoulder_width", "dress_length"},
	"blouse": {"bust", "waist", "shoulder_width", "sleeve_length"},
	"shirt":  {"bust", "waist", "shoulder_width", "sleeve_length"},
	"pants":  {"waist", "inseam", "hip", "thigh"},
	"skirt":  {"waist", "hip", "skirt_length"},
}

var defaultCatalog = map[string]any{
	"SHIRT-M-001": map[string]any{
		"product_id": "SHIRT-M-001", "name": "Classic Formal Shirt",
		"gender": "male", "category": "shirt", "price": 49.99,
		"sizes":  []any{"S", "M", "L", "XL", "XXL"},
		"colors": []any{"White", "Blue", "Black"},
		"requires_measurements": true, "alterable": true,
	},
	"SHIRT-M-002": map[string]any{
		"product_id": "SHIRT-M-002", "name": "Casual Cotton Shirt",
		"gender": "male", "category": "shirt", "price": 39.99,
		"sizes":  []any{"S", "M", "L", "XL", "XXL"},
		"colors": []any{"White", "Gray", "Navy", "Light Blue"},
		"requires_measurements": true, "alterable": true,
	},
	"PANTS-M-001": map[string]any{
		"product_id": "PANTS-M-001", "name": "Tailored Dress Pants",
		"gender": "male", "category": "pants", "price": 69.99,
		"sizes":  []any{"30", "32", "34", "36", "38"},
		"colors": []any{"Black", "Charcoal", "Navy"},
		"requires_measurements": true, "alterable": true,
	},
	"DRESS-F-001": map[string]any{
		"product_id": "DRESS-F-001", "name": "Evening Cocktail Dress",
		"gender": "female", "category": "dress", "price": 89.99,
		"sizes":  []any{"XS", "S", "M", "L", "XL"},
		"colors": []any{"Black", "Red", "Emerald"},
		"requires_measurements": true, "alterable": true,
	},
	"BLOUSE-F-001": map[string]any{
		"product_id": "BLOUSE-F-001", "name": "Silk Blouse",
		"gender": "female", "category": "blouse", "price": 59.99,
		"sizes":  []any{"XS", "S", "M", "L", "XL"},
		"colors": []any{"White", "Cream", "Pink"},
		"requires_measurements": true, "alterable": true,
	},
	"SKIRT-F-001": map[string]any{
		"product_id": "SKIRT-F-001", "name": "Pencil Skirt",
		"gender": "female", "category": "skirt", "price": 49.99,
		"sizes":  []any{"XS", "S", "M", "L", "XL"},
		"colors": []any{"Black", "Gray", "Burgundy"},
		"requires_measurements": true, "alterable": true,
	},
}

var defaultCustomers = map[string]any{
	"customer-456": map[string]any{
		"name": "John Doe", "email": "john.doe@example.com",
		"phone": "+1-555-0123", "tier": "Gold", "join_date": "2022-03-15",
		"preferences": map[string]any{
			"contact_method": "email", "language": "english", "timezone": "EST",
		},
	},
	"customer-789": map[string]any{
		"name": "Jane Smith", "email": "jane.smith@example.com",
		"phone": "+1-555-0124", "tier": "Platinum", "join_date": "2021-01-20",
		"preferences": map[string]any{
			"contact_method": "phone", "language": "english", "timezone": "PST",
		},
	},
}

var defaultOrders = map[string]any{
	"ORD-12345": map[string]any{
		"order_id": "ORD-12345", "customer_id": "customer-456",
		"status": "delivered", "order_date": "2024-09-15",
		"items": []any{map[string]any{"product_id": "SHIRT-M-001", "quantity": 1, "price": 49.99}},
		"total": 49.99,
		"shipping": map[string]any{
			"address": "123 Main St, Anytown, USA", "method": "Standard", "tracking": "TRK-789123",
		},
		"delivery_date": "2024-09-18",
	},
	"ORD-12346": map[string]any{
		"order_id": "ORD-12346", "customer_id": "customer-789",
		"status": "processing", "order_date": "2024-09-25",
		"items": []any{map[string]any{"product_id": "BLOUSE-F-001", "quantity": 1, "price": 59.99}},
		"total": 59.99,
		"shipping": map[string]any{
			"address": "456 Oak Ave, Somewhere, USA", "method": "Express", "tracking": nil,
		},
		"estimated_delivery": "2024-10-01",
	},
}

var defaultKnowledgeBase = map[string]any{
	"bluetooth_connection": map[string]any{
		"issue": "Bluetooth connection problems",
		"solutions": []any{
			"Reset Bluetooth settings on device",
			"Clear Bluetooth cache",
			"Ensure devices are within 30 feet",
			"Update device drivers",
			"Restart both devices",
		},
		"estimated_time": "10-15 minutes",
	},
	"battery_not_charging": map[string]any{
		"issue": "Battery not charging",
		"solutions": []any{
			"Check charging cable for damage",
			"Try different power outlet",
			"Clean charging ports",
			"Reset device to factory settings",
			"Contact technical support if under warranty",
		},
		"estimated_time": "15-30 minutes",
	},
	"refund_process": map[string]any{
		"issue": "How to request refund",
		"solutions": []any{
			"Items must be returned within 30 days",
			"Original packaging required",
			"Use return label provided",
			"Refund processed within 5-7 business days",
		},
		"estimated_time": "5-7 business days",
	},
}

var defaultReturnPolicy = map[string]any{
	"return_window_days":     30,
	"refund_processing_time": "5-7 business days",
	"return_shipping_cost":   9.99,
	"conditions": []any{
		"Item must be in original condition",
		"Original packaging required",
		"Receipt or order number required",
	},
	"non_returnable_items": []any{
		"Used electronics with signs of wear",
		"Items damaged by customer",
		"Items over return window",
	},
	"exceptions": map[string]any{
		"defective_items": "Full refund including shipping",
		"wrong_item_sent": "Full refund including return shipping",
	},
}

var defaultFAQ = map[string]any{
	"shipping": []any{
		map[string]any{
			"question": "How long does shipping take?",
			"answer":   "Standard shipping: 3-5 business days. Express: 1-2 business days.",
		},
		map[string]any{
			"question": "Can I change my shipping address?",
			"answer":   "Yes, if order hasn't been processed yet. Contact support immediately.",
		},
	},
	"returns": []any{
		map[string]any{
			"question": "What is your return policy?",
			"answer":   "30-day return window for items in original condition with packaging.",
		},
		map[string]any{
			"question": "How do I return an item?",
			"answer":   "Request a return label through your account or contact customer service.",
		},
	},
	"general": []any{
		map[string]any{
			"question": "What are your business hours?",
			"answer":   "Customer support is available Monday through Friday, 9am to 6pm EST.",
		},
		map[string]any{
			"question": "How do I update my account information?",
			"answer":   "Log into your account and go to 'Account Settings' to make changes.",
		},
	},
}
