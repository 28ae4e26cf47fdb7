package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCity is returned for any text outside the supported city list.
var ErrInvalidCity = errors.New("invalid city selection")

// Cities is the fixed list of regions the bot serves, in keyboard order.
var Cities = []string{
	"Toshkent",
	"Samarqand",
	"Namangan",
	"Buxoro",
	"Andijan",
	"Jizzax",
}

// IsCity reports whether s is exactly one of Cities.
func IsCity(s string) bool {
	for _, c := range Cities {
		if c == s {
			return true
		}
	}
	return false
}

// ValidateCity returns ErrInvalidCity unless city is a supported region.
func ValidateCity(city string) error {
	if !IsCity(strings.TrimSpace(city)) {
		return fmt.Errorf("%w: %q", ErrInvalidCity, city)
	}
	return nil
}
