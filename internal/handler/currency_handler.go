package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ridwanfathin/invoicing-service/internal/currency"
	"github.com/ridwanfathin/invoicing-service/internal/money"
)

// CurrencyHandler exposes the exchange rates used by the receivables summary
type CurrencyHandler struct {
	currencyClient *currency.Client
	baseCurrency   string
}

// NewCurrencyHandler creates a new currency handler. baseCurrency is the
// default base of rate lookups.
func NewCurrencyHandler(client *currency.Client, baseCurrency string) *CurrencyHandler {
	return &CurrencyHandler{
		currencyClient: client,
		baseCurrency:   baseCurrency,
	}
}

// ConversionResponse is the result of a currency conversion
type ConversionResponse struct {
	Amount          float64 `json:"amount"`
	From            string  `json:"from"`
	To              string  `json:"to"`
	Rate            float64 `json:"rate"`
	ConvertedAmount float64 `json:"convertedAmount"`
}

// GetExchangeRates returns exchange rates for a base currency
// @Summary Get exchange rates
// @Description Get latest exchange rates for a base currency
// @Tags currency
// @Produce json
// @Security BearerAuth
// @Param base query string false "Base currency (default: the reporting currency)"
// @Success 200 {object} currency.ExchangeRates "Exchange rates"
// @Failure 502 {object} model.ErrorResponse "Rates unavailable"
// @Router /v1/currency/rates [get]
func (h *CurrencyHandler) GetExchangeRates(c *gin.Context) {
	baseCurrency := strings.ToUpper(c.DefaultQuery("base", h.baseCurrency))

	rates, err := h.currencyClient.GetLatestRates(c.Request.Context(), baseCurrency)
	if err != nil {
		logError(c, "fetch_rates_failed", err, map[string]interface{}{"base": baseCurrency})
		respondWithError(c, StatusBadGateway, "Failed to fetch exchange rates")
		return
	}

	respondOK(c, rates)
}

// ConvertCurrency converts an amount from one currency to another
// @Summary Convert currency
// @Description Convert an amount from one currency to another, rounded to the cent
// @Tags currency
// @Produce json
// @Security BearerAuth
// @Param amount query number true "Amount to convert"
// @Param from query string true "Source currency"
// @Param to query string true "Target currency"
// @Success 200 {object} ConversionResponse "Conversion result"
// @Failure 400 {object} model.ErrorResponse "Bad request"
// @Failure 502 {object} model.ErrorResponse "Rates unavailable"
// @Router /v1/currency/convert [get]
func (h *CurrencyHandler) ConvertCurrency(c *gin.Context) {
	amountStr := c.Query("amount")
	fromCurrency := strings.ToUpper(c.Query("from"))
	toCurrency := strings.ToUpper(c.Query("to"))

	if amountStr == "" || fromCurrency == "" || toCurrency == "" {
		respondBadRequest(c, "amount, from, and to parameters are required")
		return
	}

	amount, err := strconv.ParseFloat(amountStr, 64)
	if err != nil || !money.IsFinite(amount) {
		respondBadRequest(c, "Invalid amount", newErrorDetail("amount", "must be a number"))
		return
	}

	rate, err := h.currencyClient.Rate(c.Request.Context(), fromCurrency, toCurrency)
	if err != nil {
		logError(c, "convert_currency_failed", err, map[string]interface{}{"from": fromCurrency, "to": toCurrency})
		respondWithError(c, StatusBadGateway, "Failed to convert currency")
		return
	}

	respondOK(c, ConversionResponse{
		Amount:          amount,
		From:            fromCurrency,
		To:              toCurrency,
		Rate:            rate,
		ConvertedAmount: money.Round(amount * rate),
	})
}

// GetSupportedCurrencies returns a list of supported currencies
// @Summary Get supported currencies
// @Tags currency
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string][]string "List of currencies"
// @Failure 502 {object} model.ErrorResponse "Rates unavailable"
// @Router /v1/currency/supported [get]
func (h *CurrencyHandler) GetSupportedCurrencies(c *gin.Context) {
	currencies, err := h.currencyClient.GetSupportedCurrencies(c.Request.Context())
	if err != nil {
		logError(c, "fetch_currencies_failed", err, nil)
		respondWithError(c, StatusBadGateway, "Failed to fetch supported currencies")
		return
	}

	respondOK(c, gin.H{
		"currencies": currencies,
	})
}

// RegisterRoutes registers currency routes
func (h *CurrencyHandler) RegisterRoutes(router *gin.RouterGroup) {
	currencyGroup := router.Group("/currency")
	{
		currencyGroup.GET("/rates", h.GetExchangeRates)
		currencyGroup.GET("/convert", h.ConvertCurrency)
		currencyGroup.GET("/supported", h.GetSupportedCurrencies)
	}
}
