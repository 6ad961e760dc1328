package core

import (
	"regexp"
	"strings"

	"vks.la/patrol/model"
)

// sitePattern matches embedded site references like "VKS25-061".
var sitePattern = regexp.MustCompile(`(?i)VKS\d+-\d+`)

// ResolveSite normalizes a raw QR/site reference to a canonical site code.
//
// Resolution is an ordered list of strategies, first match wins, all
// case-insensitive, and only active sites participate:
//
//  1. exact match against a site's id or code
//  2. a "VKS<digits>-<digits>" token inside the reference matched as a
//     substring of nameEN
//  3. the whole reference as a substring of nameEN
//
// No match returns the input unchanged: resolution is best-effort, the
// eventual site-existence check at write time owns correctness.
func ResolveSite(rawReference string, sites []model.Site) string {
	raw := strings.TrimSpace(rawReference)
	if raw == "" || len(sites) == 0 {
		return rawReference
	}

	active := make([]model.Site, 0, len(sites))
	for _, s := range sites {
		if s.IsActive() {
			active = append(active, s)
		}
	}

	for _, s := range active {
		if strings.EqualFold(s.ID, raw) || strings.EqualFold(s.Code, raw) {
			return s.Code
		}
	}

	if token := sitePattern.FindString(raw); token != "" {
		lower := strings.ToLower(token)
		for _, s := range active {
			if strings.Contains(strings.ToLower(s.NameEN), lower) {
				return s.Code
			}
		}
	}

	lower := strings.ToLower(raw)
	for _, s := range active {
		if s.NameEN != "" && strings.Contains(strings.ToLower(s.NameEN), lower) {
			return s.Code
		}
	}

	return rawReference
}

// FindSite returns the active site for a canonical code, if any.
func FindSite(code string, sites []model.Site) *model.Site {
	for i := range sites {
		if sites[i].IsActive() && strings.EqualFold(sites[i].Code, code) {
			return &sites[i]
		}
	}
	return nil
}
