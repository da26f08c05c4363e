package models

import (
	"strings"

	"github.com/guregu/null/v6"
)

// CompanyProfile is the company metadata query result. Any field may be absent.
type CompanyProfile struct {
	LongName    null.String `json:"long_name"`
	ShortName   null.String `json:"short_name"`
	Website     null.String `json:"website"`
	Description null.String `json:"description"`
	Beta        null.Float  `json:"beta"`
	TrailingPE  null.Float  `json:"trailing_pe"`
	Sector      null.String `json:"sector"`
	Industry    null.String `json:"industry"`
	MarketCap   null.Float  `json:"market_cap"`
	ForwardEPS  null.Float  `json:"forward_eps"`
}

// DisplayName prefers the long name, then the short name, then the ticker.
func (p CompanyProfile) DisplayName(ticker string) string {
	if p.LongName.Valid && p.LongName.String != "" {
		return p.LongName.String
	}
	if p.ShortName.Valid && p.ShortName.String != "" {
		return p.ShortName.String
	}
	return ticker
}

// LogoURL derives a clearbit logo from the website host, or "" without a website.
func (p CompanyProfile) LogoURL() string {
	if !p.Website.Valid || p.Website.String == "" {
		return ""
	}
	domain := strings.TrimPrefix(p.Website.String, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	domain = strings.SplitN(domain, "/", 2)[0]
	if domain == "" {
		return ""
	}
	return "https://logo.clearbit.com/" + domain + "?size=512"
}
