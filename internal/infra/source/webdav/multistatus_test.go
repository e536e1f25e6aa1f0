package webdav

import (
	"testing"
)

const nextcloudResponse = `<?xml version="1.0"?>
<d:multistatus xmlns:d="DAV:" xmlns:oc="http://owncloud.org/ns">
  <d:response>
    <d:href>/remote.php/dav/files/alice/docs/</d:href>
    <d:propstat>
      <d:prop>
        <d:displayname>docs</d:displayname>
        <d:resourcetype><d:collection/></d:resourcetype>
      </d:prop>
      <d:status>HTTP/1.1 200 OK</d:status>
    </d:propstat>
  </d:response>
  <d:response>
    <d:href>/remote.php/dav/files/alice/docs/reports/</d:href>
    <d:propstat>
      <d:prop>
        <d:displayname>reports</d:displayname>
        <d:resourcetype><d:collection/></d:resourcetype>
      </d:prop>
      <d:status>HTTP/1.1 200 OK</d:status>
    </d:propstat>
  </d:response>
  <d:response>
    <d:href>/remote.php/dav/files/alice/docs/q3%20summary.pdf</d:href>
    <d:propstat>
      <d:prop>
        <d:displayname>q3 summary.pdf</d:displayname>
        <d:resourcetype/>
        <d:getcontentlength>48213</d:getcontentlength>
        <d:getlastmodified>Tue, 11 Aug 2026 09:30:00 GMT</d:getlastmodified>
        <d:getetag>"abc123"</d:getetag>
      </d:prop>
      <d:status>HTTP/1.1 200 OK</d:status>
    </d:propstat>
  </d:response>
</d:multistatus>`

func TestParseMultistatus(t *testing.T) {
	entries, err := parseMultistatus([]byte(nextcloudResponse), "/docs")
	if err != nil {
		t.Fatalf("parseMultistatus failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2 (self response must be dropped)", len(entries))
	}

	dir := entries[0]
	if dir.Name != "reports" || !dir.IsDir {
		t.Errorf("first entry = %+v, want directory 'reports'", dir)
	}
	if dir.Path != "/docs/reports" {
		t.Errorf("dir path = %q, want /docs/reports", dir.Path)
	}

	file := entries[1]
	if file.Name != "q3 summary.pdf" || file.IsDir {
		t.Errorf("second entry = %+v, want file 'q3 summary.pdf'", file)
	}
	if file.Size != 48213 {
		t.Errorf("size = %d, want 48213", file.Size)
	}
	if file.ETag != "abc123" {
		t.Errorf("etag = %q, want abc123 without quotes", file.ETag)
	}
	if file.Modified.IsZero() {
		t.Error("last modified must be parsed")
	}
}

func TestParseMultistatus_RootDropsSelf(t *testing.T) {
	const rootResponse = `<?xml version="1.0"?>
<d:multistatus xmlns:d="DAV:">
  <d:response>
    <d:href>/remote.php/dav/files/alice/</d:href>
    <d:propstat>
      <d:prop>
        <d:displayname>alice</d:displayname>
        <d:resourcetype><d:collection/></d:resourcetype>
      </d:prop>
      <d:status>HTTP/1.1 200 OK</d:status>
    </d:propstat>
  </d:response>
  <d:response>
    <d:href>/remote.php/dav/files/alice/inbox/</d:href>
    <d:propstat>
      <d:prop>
        <d:displayname>inbox</d:displayname>
        <d:resourcetype><d:collection/></d:resourcetype>
      </d:prop>
      <d:status>HTTP/1.1 200 OK</d:status>
    </d:propstat>
  </d:response>
</d:multistatus>`

	entries, err := parseMultistatus([]byte(rootResponse), "/")
	if err != nil {
		t.Fatalf("parseMultistatus failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "inbox" {
		t.Fatalf("got %+v, want only 'inbox'", entries)
	}
}

func TestParseMultistatus_Malformed(t *testing.T) {
	if _, err := parseMultistatus([]byte("<not-xml"), "/docs"); err == nil {
		t.Error("malformed body must return an error")
	}
}

func TestParseMultistatus_SkipsFailedPropstat(t *testing.T) {
	const body = `<?xml version="1.0"?>
<d:multistatus xmlns:d="DAV:">
  <d:response>
    <d:href>/dav/docs/</d:href>
    <d:propstat>
      <d:prop><d:resourcetype><d:collection/></d:resourcetype></d:prop>
      <d:status>HTTP/1.1 200 OK</d:status>
    </d:propstat>
  </d:response>
  <d:response>
    <d:href>/dav/docs/ghost.txt</d:href>
    <d:propstat>
      <d:prop/>
      <d:status>HTTP/1.1 404 Not Found</d:status>
    </d:propstat>
  </d:response>
</d:multistatus>`

	entries, err := parseMultistatus([]byte(body), "/docs")
	if err != nil {
		t.Fatalf("parseMultistatus failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("entries without a 200 propstat must be dropped, got %+v", entries)
	}
}
