package webdav

import (
	"encoding/xml"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/readur/syncguard/internal/infra/source"
)

type multistatus struct {
	XMLName   xml.Name      `xml:"multistatus"`
	Responses []davResponse `xml:"response"`
}

type davResponse struct {
	Href     string     `xml:"href"`
	Propstat []propstat `xml:"propstat"`
}

type propstat struct {
	Status string `xml:"status"`
	Prop   prop   `xml:"prop"`
}

type prop struct {
	DisplayName   string       `xml:"displayname"`
	ResourceType  resourceType `xml:"resourcetype"`
	ContentLength string       `xml:"getcontentlength"`
	LastModified  string       `xml:"getlastmodified"`
	ETag          string       `xml:"getetag"`
}

type resourceType struct {
	Collection *struct{} `xml:"collection"`
}

// parseMultistatus converts a PROPFIND multistatus body into entries. The
// response for the requested directory itself is dropped.
func parseMultistatus(body []byte, requested string) ([]source.Entry, error) {
	var ms multistatus
	if err := xml.Unmarshal(body, &ms); err != nil {
		return nil, err
	}

	var entries []source.Entry
	for i, resp := range ms.Responses {
		href, err := url.PathUnescape(resp.Href)
		if err != nil {
			href = resp.Href
		}
		if samePath(href, requested) {
			continue
		}

		p := okProp(resp.Propstat)
		if p == nil {
			continue
		}

		// For the root listing the self href carries the server's DAV
		// mount prefix and never suffix-matches "/". Servers list the
		// requested collection first.
		if i == 0 && isRoot(requested) && p.ResourceType.Collection != nil {
			continue
		}

		name := p.DisplayName
		if name == "" {
			name = path.Base(strings.TrimSuffix(href, "/"))
		}

		entry := source.Entry{
			Name:  name,
			Path:  path.Join(requested, name),
			IsDir: p.ResourceType.Collection != nil,
			ETag:  strings.Trim(p.ETag, `"`),
		}
		if p.ContentLength != "" {
			if n, err := strconv.ParseInt(p.ContentLength, 10, 64); err == nil {
				entry.Size = n
			}
		}
		if p.LastModified != "" {
			if t, err := time.Parse(time.RFC1123, p.LastModified); err == nil {
				entry.Modified = t
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// okProp returns the prop block with a 200 status, if any.
func okProp(stats []propstat) *prop {
	for i := range stats {
		if strings.Contains(stats[i].Status, "200") {
			return &stats[i].Prop
		}
	}
	return nil
}

// samePath compares an href against the requested path ignoring server
// prefixes and trailing slashes. Hrefs may be absolute URLs or rooted at
// the server's DAV prefix.
func samePath(href, requested string) bool {
	h := strings.TrimSuffix(href, "/")
	r := strings.TrimSuffix(requested, "/")
	if isRoot(requested) {
		return h == "" || h == "/"
	}
	return h == r || strings.HasSuffix(h, r)
}

func isRoot(p string) bool {
	return p == "" || p == "/"
}
