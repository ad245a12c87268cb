// Copyright 2026 The Overmatch Authors
// SPDX-License-Identifier: Apache-2.0

package overture

import (
	"net/url"
	"strings"
)

// socialHosts maps social-network hosts to OSM contact keys.
var socialHosts = map[string]string{
	"facebook.com":  "contact:facebook",
	"instagram.com": "contact:instagram",
	"twitter.com":   "contact:twitter",
	"x.com":         "contact:twitter",
	"tiktok.com":    "contact:tiktok",
	"youtube.com":   "contact:youtube",
}

// MapTags translates a place attribute bundle into a flat OSM-style tag
// mapping. It is total and side-effect-free: a nil or empty bundle
// yields an empty map, partial bundles yield partial maps. Geometry,
// filename, operating status, confidence and the computed lon/lat
// caches never contribute tags.
func MapTags(b *Bundle) map[string]any {
	tags := make(map[string]any)

	if b == nil {
		return tags
	}

	if name := b.PrimaryName(); name != "" {
		tags["name"] = name
	}

	if b.Categories != nil {
		for k, v := range TagsForCategory(b.Categories.Primary) {
			tags[k] = v
		}
	}

	if len(b.Addresses) > 0 {
		mapAddress(b.Addresses[0], tags)
	}

	if len(b.Phones) > 0 && b.Phones[0] != "" {
		tags["phone"] = b.Phones[0]
	}

	if len(b.Websites) > 0 && b.Websites[0] != "" {
		tags["website"] = b.Websites[0]
	}

	if len(b.Emails) > 0 && b.Emails[0] != "" {
		tags["contact:email"] = b.Emails[0]
	}

	for _, social := range b.Socials {
		if key := socialKey(social); key != "" {
			if _, dup := tags[key]; !dup {
				tags[key] = social
			}
		}
	}

	if b.Brand != nil {
		if name := b.Brand.Names.primaryOrEmpty(); name != "" {
			tags["brand"] = name
		}

		if b.Brand.Wikidata != "" {
			tags["brand:wikidata"] = b.Brand.Wikidata
		}
	}

	if len(b.Sources) > 0 && b.Sources[0].Dataset != "" {
		tags["source"] = "overture/" + b.Sources[0].Dataset
	}

	return tags
}

func (n *Names) primaryOrEmpty() string {
	if n == nil {
		return ""
	}

	return n.Primary
}

func mapAddress(a Address, tags map[string]any) {
	if a.Freeform != "" {
		tags["addr:full"] = a.Freeform
	}

	if a.Locality != "" {
		tags["addr:city"] = a.Locality
	}

	if a.Postcode != "" {
		tags["addr:postcode"] = a.Postcode
	}

	if a.Region != "" {
		tags["addr:state"] = a.Region
	}

	if a.Country != "" {
		tags["addr:country"] = a.Country
	}
}

// socialKey picks the contact tag for a social profile URL, or "" when
// the host is not a known network.
func socialKey(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	for known, key := range socialHosts {
		if host == known || strings.HasSuffix(host, "."+known) {
			return key
		}
	}

	return ""
}
