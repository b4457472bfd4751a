package services

import (
	"encoding/json"
	"strconv"
	"strings"

	"bonus-hunt-service/models"

	"github.com/shopspring/decimal"
)

// NumberInput is a numeric form value exactly as the client sent it. It accepts
// a JSON number, a string, or null, and is parsed during validation.
type NumberInput string

func (n *NumberInput) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		*n = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = NumberInput(strings.TrimSpace(s))
		return nil
	}
	*n = NumberInput(raw)
	return nil
}

func (n NumberInput) IsEmpty() bool { return strings.TrimSpace(string(n)) == "" }

// HuntInput is the admin form for creating or replacing the active hunt.
type HuntInput struct {
	HuntID           NumberInput `json:"hunt_id"`
	BonusCount       NumberInput `json:"bonuses"`
	StartingBalance  NumberInput `json:"starting_bal"`
	EndingBalance    NumberInput `json:"ending_bal"`
	AllowGuesses     bool        `json:"allow_guesses"`
	AllowLeaderboard bool        `json:"allow_leaderboard"`
}

// Hunt validates the form and returns the hunt it describes, not yet activated.
// An empty bonus count means zero; an empty ending balance means not yet known.
func (in HuntInput) Hunt() (*models.Hunt, error) {
	if in.HuntID.IsEmpty() {
		return nil, &ValidationError{Field: "hunt_id", Reason: "is required"}
	}
	huntID, err := strconv.ParseInt(string(in.HuntID), 10, 64)
	if err != nil {
		return nil, &ValidationError{Field: "hunt_id", Reason: "must be a whole number"}
	}
	if huntID <= 0 {
		return nil, &ValidationError{Field: "hunt_id", Reason: "must be greater than zero"}
	}

	bonuses := 0
	if !in.BonusCount.IsEmpty() {
		if bonuses, err = strconv.Atoi(string(in.BonusCount)); err != nil {
			return nil, &ValidationError{Field: "bonuses", Reason: "must be a whole number"}
		}
		if bonuses < 0 {
			return nil, &ValidationError{Field: "bonuses", Reason: "must not be negative"}
		}
	}

	if in.StartingBalance.IsEmpty() {
		return nil, &ValidationError{Field: "starting_bal", Reason: "is required"}
	}
	start, err := parseAmount("starting_bal", in.StartingBalance)
	if err != nil {
		return nil, err
	}

	var end decimal.NullDecimal
	if !in.EndingBalance.IsEmpty() {
		amount, err := parseAmount("ending_bal", in.EndingBalance)
		if err != nil {
			return nil, err
		}
		end = decimal.NewNullDecimal(amount)
	}

	return &models.Hunt{
		HuntID:           huntID,
		BonusCount:       bonuses,
		StartingBalance:  start,
		EndingBalance:    end,
		AllowGuesses:     in.AllowGuesses,
		AllowLeaderboard: in.AllowLeaderboard,
	}, nil
}

// Money columns are numeric(14,2).
const (
	maxAmountDigits = 12
	maxAmountInput  = 32
)

var maxAmount = decimal.RequireFromString("999999999999.99")

// parseMoney parses v and rounds it to cents. The magnitude is checked before
// rounding so exponent notation like 1e5000000 is never expanded.
func parseMoney(field string, v NumberInput) (decimal.Decimal, error) {
	raw := strings.TrimSpace(string(v))
	if len(raw) > maxAmountInput {
		return decimal.Zero, &ValidationError{Field: field, Reason: "is too long"}
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: field, Reason: "must be a number"}
	}
	if d.IsZero() {
		return decimal.Zero, nil
	}

	// digits left of the decimal point
	intDigits := int64(d.NumDigits()) + int64(d.Exponent())
	switch {
	case intDigits > maxAmountDigits:
		return decimal.Zero, &ValidationError{Field: field, Reason: "must be at most " + maxAmount.StringFixed(2)}
	case intDigits < -2:
		return decimal.Zero, nil
	}

	d = d.Round(2)
	if d.Abs().GreaterThan(maxAmount) {
		return decimal.Zero, &ValidationError{Field: field, Reason: "must be at most " + maxAmount.StringFixed(2)}
	}
	return d, nil
}

// parseAmount parses a non-negative money value rounded to cents.
func parseAmount(field string, v NumberInput) (decimal.Decimal, error) {
	d, err := parseMoney(field, v)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, &ValidationError{Field: field, Reason: "must not be negative"}
	}
	return d, nil
}

// ParseGuessValue parses a guess. Values are kept to cents and must be positive after rounding.
func ParseGuessValue(v NumberInput) (decimal.Decimal, error) {
	if v.IsEmpty() {
		return decimal.Zero, &ValidationError{Field: "guess", Reason: "is required"}
	}
	d, err := parseMoney("guess", v)
	if err != nil {
		return decimal.Zero, err
	}
	if !d.IsPositive() {
		return decimal.Zero, &ValidationError{Field: "guess", Reason: "must be greater than zero"}
	}
	return d, nil
}
