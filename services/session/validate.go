package session

import (
	"log"
	"strconv"
	"time"

	"checkout-payment-api/models"
)

// ValidateCard checks inline card input before it ever reaches the
// provider: lengths, expiry in the future, Luhn.
func ValidateCard(card models.CardDetails) bool {
	if len(card.CardNumber) < 13 || len(card.CardNumber) > 19 {
		log.Printf("Invalid card number length: %d", len(card.CardNumber))
		return false
	}

	if len(card.CVV) < 3 || len(card.CVV) > 4 {
		log.Printf("Invalid CVV length: %d", len(card.CVV))
		return false
	}

	if !validateExpiry(card.ExpirationMonth, card.ExpirationYear) {
		log.Printf("Invalid expiry date: %s/%s", card.ExpirationMonth, card.ExpirationYear)
		return false
	}

	if len(card.CardholderName) < 3 {
		log.Printf("Invalid cardholder name length: %d", len(card.CardholderName))
		return false
	}

	if !validateLuhn(card.CardNumber) {
		log.Printf("Failed Luhn check for card number")
		return false
	}

	return true
}

func validateLuhn(cardNumber string) bool {
	sum := 0
	isEven := len(cardNumber)%2 == 0

	for i, r := range cardNumber {
		digit := int(r - '0')

		if digit < 0 || digit > 9 {
			return false
		}

		if isEven == (i%2 == 0) {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
	}

	return sum%10 == 0
}

func validateExpiry(month, year string) bool {
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return false
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return false
	}
	if y < 100 {
		y += 2000
	}

	// Card is valid through the last instant of its expiry month.
	expiry := time.Date(y, time.Month(m)+1, 0, 23, 59, 59, 0, time.UTC)
	return expiry.After(time.Now())
}
