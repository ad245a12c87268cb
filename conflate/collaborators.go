// Copyright 2026 The Overmatch Authors
// SPDX-License-Identifier: Apache-2.0

package conflate

import (
	"errors"
	"fmt"

	"github.com/nyaruka/phonenumbers"
	postal "github.com/openvenues/gopostal/parser"
)

var errNoComponents = errors.New("no address components recognized")

// LibpostalParser parses free-text addresses with libpostal. When the
// same label appears more than once the first occurrence wins.
type LibpostalParser struct{}

// Parse implements AddressParser.
func (LibpostalParser) Parse(address string) (map[string]string, error) {
	parsed := postal.ParseAddress(address)
	if len(parsed) == 0 {
		return nil, errNoComponents
	}

	components := make(map[string]string, len(parsed))

	for _, c := range parsed {
		if _, present := components[c.Label]; !present {
			components[c.Label] = c.Value
		}
	}

	return components, nil
}

// E164PhoneParser normalizes phone numbers to E.164 using the given
// default region for numbers written without a country code.
type E164PhoneParser struct {
	Region string // ISO 3166-1 alpha-2, e.g. "US"
}

// Parse implements PhoneParser.
func (p E164PhoneParser) Parse(raw string) (string, error) {
	region := p.Region
	if region == "" {
		region = "US"
	}

	num, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return "", fmt.Errorf("parsing phone %q: %w", raw, err)
	}

	if !phonenumbers.IsValidNumber(num) {
		return "", fmt.Errorf("phone %q is not a valid number", raw)
	}

	return phonenumbers.Format(num, phonenumbers.E164), nil
}
