package core

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vks.la/patrol/model"
)

func testDirectory() []model.Site {
	return []model.Site{
		{Code: "VKS-A-001", ID: "101", NameEN: "VKS25-061 Warehouse A", Status: "active"},
		{Code: "VKS-A-002", ID: "102", NameEN: "Riverside Depot", Status: "active"},
		{Code: "VKS-A-003", ID: "103", NameEN: "Closed Yard", Status: "inactive"},
	}
}

func TestResolveSite(t *testing.T) {
	sites := testDirectory()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "Exact code", raw: "VKS-A-001", want: "VKS-A-001"},
		{name: "Exact code different case", raw: "vks-a-001", want: "VKS-A-001"},
		{name: "Exact legacy id", raw: "102", want: "VKS-A-002"},
		{name: "Embedded VKS token", raw: "scan VKS25-061 main gate", want: "VKS-A-001"},
		{name: "Name substring", raw: "riverside", want: "VKS-A-002"},
		{name: "Inactive site ignored", raw: "Closed Yard", want: "Closed Yard"},
		{name: "No match returns raw", raw: "unknown-site", want: "unknown-site"},
		{name: "Empty returns empty", raw: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveSite(tt.raw, sites))
		})
	}
}

func TestResolveSiteIsFixedPointForAllCodes(t *testing.T) {
	sites := testDirectory()
	for _, s := range sites {
		if !s.IsActive() {
			continue
		}
		assert.Equal(t, s.Code, ResolveSite(s.Code, sites))
	}
}

func TestResolveSiteEmptyDirectory(t *testing.T) {
	assert.Equal(t, "garbage", ResolveSite("garbage", nil))
	assert.Equal(t, "", ResolveSite("", nil))
}

func TestFindSite(t *testing.T) {
	sites := testDirectory()
	assert.NotNil(t, FindSite("VKS-A-001", sites))
	assert.Nil(t, FindSite("VKS-A-003", sites)) // inactive
	assert.Nil(t, FindSite("missing", sites))
}
