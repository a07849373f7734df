package source

import (
	"net/url"
	"strings"
)

// academicDomains are hosts treated as academic regardless of TLD.
var academicDomains = []string{
	"arxiv.org", "pubmed.ncbi.nlm.nih.gov", "scholar.google.com",
	"semanticscholar.org", "jstor.org", "springer.com", "sciencedirect.com",
	"nature.com", "ieee.org", "acm.org", "researchgate.net",
}

// referenceDomains are curated reference works and standards bodies.
var referenceDomains = []string{
	"britannica.com", "merriam-webster.com", "dictionary.com",
	"iso.org", "w3.org", "ietf.org", "rfc-editor.org", "unicode.org",
}

// wikiDomains are community-edited encyclopedias.
var wikiDomains = []string{
	"wikipedia.org", "wikimedia.org", "wiktionary.org", "wikidata.org",
	"fandom.com",
}

// technicalDomains are documentation and code hosts.
var technicalDomains = []string{
	"github.com", "gitlab.com", "stackoverflow.com", "stackexchange.com",
	"developer.mozilla.org", "docs.python.org", "go.dev", "pkg.go.dev",
	"readthedocs.io", "kubernetes.io", "docker.com", "medium.com",
	"dev.to", "hashicorp.com",
}

// newsDomains are established news outlets.
var newsDomains = []string{
	"reuters.com", "apnews.com", "bbc.com", "bbc.co.uk", "nytimes.com",
	"washingtonpost.com", "theguardian.com", "wsj.com", "bloomberg.com",
	"ft.com", "economist.com", "npr.org", "aljazeera.com", "cnn.com",
	"arstechnica.com", "theverge.com", "wired.com",
}

// commercialTLDs mark everything else with these suffixes as commercial.
var commercialTLDs = []string{".com", ".biz", ".shop", ".store", ".io", ".co"}

// Classify derives the source type and normalized host from a raw URL.
// Classification is best-effort: anything unmatched with a commercial TLD is
// Commercial, everything else Unknown. An unparsable URL yields ("", Unknown).
func Classify(rawURL string) (Type, string) {
	host := Host(rawURL)
	if host == "" {
		return Unknown, ""
	}

	switch {
	case strings.HasSuffix(host, ".edu") || hasDomain(host, academicDomains):
		return Academic, host
	case strings.HasSuffix(host, ".gov") || strings.HasSuffix(host, ".mil"):
		return Government, host
	case hasDomain(host, wikiDomains):
		return Wiki, host
	case hasDomain(host, referenceDomains):
		return Reference, host
	case hasDomain(host, technicalDomains):
		return Technical, host
	case hasDomain(host, newsDomains):
		return News, host
	}

	for _, tld := range commercialTLDs {
		if strings.HasSuffix(host, tld) {
			return Commercial, host
		}
	}
	return Unknown, host
}

// Host extracts the lowercase host from a URL, stripping a www. prefix
// and any port. Returns "" when the URL cannot be parsed.
func Host(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// hasDomain reports whether host equals or is a subdomain of any entry.
func hasDomain(host string, domains []string) bool {
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
