package model

// MaxItemQuantity is the largest quantity a single bag entry or line item may hold.
const MaxItemQuantity = 99

// BagItemRequest is the payload of the add and adjust bag actions.
type BagItemRequest struct {
	Quantity    int    `json:"quantity"`
	ProductSize string `json:"product_size"`
	RedirectURL string `json:"redirect_url"`
}

// BagRemoveRequest is the payload of the remove bag action.
type BagRemoveRequest struct {
	ProductSize string `json:"product_size"`
}

// LineItemRequest is the payload of an order line item update.
type LineItemRequest struct {
	Quantity int `json:"quantity"`
}

// RedirectResponse is returned by actions that send the browser elsewhere.
type RedirectResponse struct {
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
	Redirect string `json:"redirect"`
}
