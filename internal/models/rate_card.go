package models

// RateCard represents one priced parking option at an airport
type RateCard struct {
	ID            Loose    `json:"id"`
	Name          string   `json:"name"`
	Location      string   `json:"location"`
	Country       string   `json:"country,omitempty"`
	Type          string   `json:"type,omitempty"`
	Price         Amount   `json:"price"`
	Reviews       FlexInt  `json:"reviews"`
	Icons         []string `json:"icons"`
	Features      []string `json:"features"`
	ExtraFeatures []string `json:"extraFeatures"`
	Logo          string   `json:"logo"`
}

// SearchRequest represents a parking search from the storefront
type SearchRequest struct {
	Location     string `json:"location" form:"location"`
	Dropoff      string `json:"dropoff" form:"dropoff"`
	Pickup       string `json:"pickup" form:"pickup"`
	PromoCode    string `json:"promo_code" form:"promo_code"`
	Vehicles     int    `json:"vehicles" form:"vehicles"`
	Cancellation bool   `json:"cancellation" form:"cancellation"`
	SortBy       string `json:"sort_by" form:"sort_by"` // "cheapest" or "reviews"
}

// Quote is one priced search result
type Quote struct {
	RateCard   RateCard      `json:"rate_card"`
	Intent     BookingIntent `json:"booking_intent"`
	FinalTotal float64       `json:"final_total"`
	Display    string        `json:"display_total"`
}

// SearchResponse represents the response for parking search
type SearchResponse struct {
	Quotes []Quote `json:"quotes"`
	Count  int     `json:"count"`
	// Set when the promo code in the request did not match any code.
	PromoNotFound bool `json:"promo_not_found,omitempty"`
}

// Catalog is the result of the initial load. Each source fails on its own;
// the error fields are empty when the source loaded.
type Catalog struct {
	RateCards          []RateCard  `json:"rate_cards"`
	PromoCodes         []PromoCode `json:"promo_codes"`
	GrandDiscount      float64     `json:"grand_discount"`
	RateCardsError     string      `json:"rate_cards_error,omitempty"`
	PromoCodesError    string      `json:"promo_codes_error,omitempty"`
	GrandDiscountError string      `json:"grand_discount_error,omitempty"`
}

// Complete reports whether all three sources loaded
func (c *Catalog) Complete() bool {
	return c.RateCardsError == "" && c.PromoCodesError == "" && c.GrandDiscountError == ""
}
