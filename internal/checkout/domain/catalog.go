package domain

import "github.com/shopspring/decimal"

// Product is the subset of a catalog entry the checkout reads: live price and stock.
type Product struct {
	ID     int64           `json:"id"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
	Stock  int             `json:"stock"`
	Active bool            `json:"active"`
}

// Address is a customer's saved postal address.
type Address struct {
	ID              int64  `json:"id"`
	CustomerID      int64  `json:"customer_id"`
	Type            string `json:"type"`
	Country         string `json:"country"`
	State           string `json:"state"`
	City            string `json:"city"`
	Pincode         string `json:"pincode"`
	StreetAddress   string `json:"street_address"`
	ApartmentNumber string `json:"apartment_number,omitempty"`
	PhoneNumber     string `json:"phone_number"`
	Active          bool   `json:"active"`
}

// Customer identifies the authenticated buyer.
type Customer struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Staff bool   `json:"staff"`
}
