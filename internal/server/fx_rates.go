package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/invoicestudio/backend/internal/currency"
	"github.com/invoicestudio/backend/internal/fxrate"
)

// GetLatestRates serves the INR-base rate listing the invoice views use for
// display conversion. Symbols narrow the response; unknown symbols are
// dropped rather than erroring so one bad code cannot blank the whole page.
func (s *Server) GetLatestRates(c *gin.Context) {
	table, err := s.rates.LatestRatesINR(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	symbols := fxrate.DefaultSymbols
	if raw := strings.TrimSpace(c.Query("symbols")); raw != "" {
		symbols = strings.Split(raw, ",")
	}

	rates := make(map[string]float64, len(symbols))
	for _, symbol := range symbols {
		code := currency.NormalizeCode(symbol)
		rate, err := fxrate.RateFromINR(table, code)
		if err != nil {
			continue
		}
		rates[code] = rate
	}

	c.JSON(http.StatusOK, gin.H{
		"base":  currency.CanonicalCode,
		"rates": rates,
	})
}

// resolveRate turns a requested display currency into a (code, rate) pair,
// hitting the rate provider only for non-canonical codes.
func (s *Server) resolveRate(c *gin.Context, requested string) (string, float64, error) {
	code := currency.NormalizeCode(requested)
	if code == currency.CanonicalCode {
		return code, 1, nil
	}

	table, err := s.rates.LatestRatesINR(c.Request.Context())
	if err != nil {
		return "", 0, err
	}
	rate, err := fxrate.RateFromINR(table, code)
	if err != nil {
		return "", 0, err
	}
	return code, rate, nil
}
