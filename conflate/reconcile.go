// Copyright 2026 The Overmatch Authors
// SPDX-License-Identifier: Apache-2.0

package conflate

import (
	"log"
	"net/url"
	"strings"

	"github.com/overmatch/overmatch/overture"
)

// AddressParser splits a free-text address into labeled components
// (house_number, road, city, ...). Parse failures are soft: the caller
// keeps the unparsed value.
type AddressParser interface {
	Parse(address string) (map[string]string, error)
}

// PhoneParser normalizes a free-text phone number. Same soft-failure
// contract as AddressParser.
type PhoneParser interface {
	Parse(raw string) (string, error)
}

// TagMapper translates a stripped attribute bundle into a flat tag
// mapping. The mapping is assumed total; should it panic anyway the
// reconciler recovers and treats the candidate as tagless.
type TagMapper func(*overture.Bundle) map[string]any

// Reconciler turns the attribute bundle of an accepted candidate into
// output tags and applies the house-number conflict veto.
type Reconciler struct {
	Mapper    TagMapper
	Addresses AddressParser
	Phones    PhoneParser

	// Verbose enables debug logging of per-field soft failures.
	Verbose bool
}

// NewReconciler wires the default collaborators.
func NewReconciler(addresses AddressParser, phones PhoneParser) *Reconciler {
	return &Reconciler{
		Mapper:    overture.MapTags,
		Addresses: addresses,
		Phones:    phones,
	}
}

// gopostal labels worth carrying into the tag mapping.
var addressComponentTags = map[string]string{
	"house_number": "addr:housenumber",
	"road":         "addr:street",
	"unit":         "addr:unit",
	"city":         "addr:city",
	"postcode":     "addr:postcode",
	"state":        "addr:state",
}

// Reconcile produces the reconciled tag mapping for a candidate that
// already passed the distance and similarity stages. ok is false when
// the house-number conflict veto fires; the candidate must then be
// discarded instead of becoming a match record.
func (r *Reconciler) Reconcile(src *SourcePoint, ref *ReferencePoint) (tags map[string]any, ok bool) {
	tags = r.mapTags(ref.Bundle)

	r.normalizeAddress(ref.ID, tags)
	r.normalizePhone(ref.ID, tags)

	// Hard conflict: same street, different house number means a
	// different place no matter how similar the names are. Checked
	// after address normalization so parsing may change the outcome.
	srcNumber := src.Housenumber()
	refNumber, _ := tags["addr:housenumber"].(string)

	if srcNumber != "" && refNumber != "" && srcNumber != refNumber {
		return nil, false
	}

	cleanWebsite(tags)

	// Transient fields that must not reach output.
	delete(tags, "addr:country")
	delete(tags, "addr:full")
	delete(tags, "source")

	return tags, true
}

// mapTags invokes the schema-mapping collaborator, recovering from a
// panic by treating the candidate as having no reconciled tags.
func (r *Reconciler) mapTags(b *overture.Bundle) (tags map[string]any) {
	defer func() {
		if p := recover(); p != nil {
			log.Printf("Tag mapping panicked, continuing with empty tags: %v", p)

			tags = map[string]any{}
		}
	}()

	tags = r.Mapper(b)
	if tags == nil {
		tags = map[string]any{}
	}

	return tags
}

func (r *Reconciler) normalizeAddress(refID string, tags map[string]any) {
	full, _ := tags["addr:full"].(string)
	if full == "" || r.Addresses == nil {
		return
	}

	components, err := r.Addresses.Parse(full)
	if err != nil {
		if r.Verbose {
			log.Printf("Address parse failed for %s (%q): %s", refID, full, err)
		}

		return
	}

	for label, value := range components {
		key, known := addressComponentTags[label]
		if !known || value == "" {
			continue
		}

		if _, present := tags[key]; !present {
			tags[key] = value
		}
	}
}

func (r *Reconciler) normalizePhone(refID string, tags map[string]any) {
	raw, _ := tags["phone"].(string)
	if raw == "" || r.Phones == nil {
		return
	}

	normalized, err := r.Phones.Parse(raw)
	if err != nil {
		if r.Verbose {
			log.Printf("Phone parse failed for %s (%q): %s", refID, raw, err)
		}

		return
	}

	tags["phone"] = normalized
}

// aggregatorDomains lists hosts whose URLs describe a platform rather
// than the place itself: food delivery and ordering, reservations,
// reviews, maps, point-of-sale site builders, and social networks. A
// website on any of these (or a subdomain) is dropped entirely.
var aggregatorDomains = []string{
	// delivery and ordering
	"doordash.com",
	"ubereats.com",
	"grubhub.com",
	"seamless.com",
	"postmates.com",
	"chownow.com",
	"slicelife.com",
	"menufy.com",
	"ezcater.com",
	// reservations
	"opentable.com",
	"resy.com",
	"sevenrooms.com",
	// reviews
	"yelp.com",
	"tripadvisor.com",
	// maps
	"google.com",
	"goo.gl",
	"maps.apple.com",
	// point of sale site builders
	"toasttab.com",
	"square.site",
	"clover.com",
	// social
	"facebook.com",
	"instagram.com",
	"twitter.com",
	"x.com",
	"tiktok.com",
	"linktr.ee",
}

// trackingParams are query parameters stripped from kept websites:
// campaign attribution, ad click identifiers, and analytics/CRM noise.
var trackingParams = map[string]bool{
	"fbclid":  true,
	"gclid":   true,
	"gclsrc":  true,
	"dclid":   true,
	"msclkid": true,
	"twclid":  true,
	"ttclid":  true,
	"yclid":   true,
	"wbraid":  true,
	"gbraid":  true,
	"igshid":  true,
	"mc_cid":  true,
	"mc_eid":  true,
	"_hsenc":  true,
	"_hsmi":   true,
	"hsa_acc": true,
	"hsa_cam": true,
}

func isTrackingParam(key string) bool {
	return strings.HasPrefix(key, "utm_") || trackingParams[key]
}

func isAggregatorHost(host string) bool {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")

	for _, domain := range aggregatorDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}

	return false
}

// cleanWebsite drops aggregator-hosted websites and strips tracking
// query parameters from the rest, leaving the URL otherwise intact.
func cleanWebsite(tags map[string]any) {
	raw, _ := tags["website"].(string)
	if raw == "" {
		return
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		// Not enough structure to judge; leave it as supplied.
		return
	}

	if isAggregatorHost(u.Hostname()) {
		delete(tags, "website")

		return
	}

	if u.RawQuery == "" {
		return
	}

	// Filter the raw query directly instead of round-tripping through
	// url.Values, which would re-sort the surviving parameters.
	segments := strings.Split(u.RawQuery, "&")
	kept := segments[:0]

	for _, segment := range segments {
		key := segment
		if i := strings.Index(segment, "="); i >= 0 {
			key = segment[:i]
		}

		if decoded, err := url.QueryUnescape(key); err == nil {
			key = decoded
		}

		if !isTrackingParam(key) {
			kept = append(kept, segment)
		}
	}

	if len(kept) != len(segments) {
		u.RawQuery = strings.Join(kept, "&")
		tags["website"] = u.String()
	}
}
