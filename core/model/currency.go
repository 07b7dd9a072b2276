package model

import (
	"fmt"
	"strings"
)

// Currency is an ISO 4217 currency.
type Currency struct {
	Code   string `json:"code"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	// Digits is the number of minor unit digits.
	Digits int `json:"digits"`
}

var (
	EUR = Currency{Code: "EUR", Symbol: "€", Name: "Euro", Digits: 2}
	USD = Currency{Code: "USD", Symbol: "$", Name: "US Dollar", Digits: 2}
	GBP = Currency{Code: "GBP", Symbol: "£", Name: "Pound Sterling", Digits: 2}
	CHF = Currency{Code: "CHF", Symbol: "CHF", Name: "Swiss Franc", Digits: 2}
)

var currencies = map[string]Currency{"EUR": EUR, "USD": USD, "GBP": GBP, "CHF": CHF}

// ParseCurrency resolves an ISO 4217 code.
func ParseCurrency(code string) (Currency, error) {
	c, ok := currencies[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return Currency{}, fmt.Errorf("unknown currency %q", code)
	}
	return c, nil
}

func (c Currency) String() string { return c.Code }
