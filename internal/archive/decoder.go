// Package archive decodes a serialized web archive (a MIME multipart
// container bundling an HTML resource and its sub-resources, the shape
// produced by a browser's "save as MHTML") down to the primary HTML string.
package archive

import (
	"bufio"
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/webindex/webindex/internal/errors"
)

// htmlContentTypeHeader is the lowercased header prefix the fallback decoder
// scans for when structured multipart parsing fails.
const htmlContentTypeHeader = "content-type:"

// Decode converts serialized web archive bytes to the primary HTML string.
//
// It fails with ErrCodeArchiveMalformed when the container has no text/html
// part. If structured multipart parsing fails outright, it falls back to a
// best-effort linear scan that never errors.
func Decode(data []byte) (string, error) {
	html, err := decodeMultipart(data)
	if err == nil {
		return html, nil
	}

	if fallback := scanForHTMLPart(data); fallback != "" {
		return fallback, nil
	}

	return "", errors.ArchiveError("archive has no text/html part", err)
}

// decodeMultipart parses data as a MIME multipart/related document and
// returns the body of its first text/html part, decoded from its declared
// or detected charset to UTF-8.
func decodeMultipart(data []byte) (string, error) {
	boundary, headerEnd, err := findBoundary(data)
	if err != nil {
		return "", err
	}

	reader := multipart.NewReader(bytes.NewReader(data[headerEnd:]), boundary)
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			return "", errors.ArchiveError("no text/html part found in archive", nil)
		}
		if err != nil {
			return "", err
		}

		contentType := part.Header.Get("Content-Type")
		mediaType, params, err := mime.ParseMediaType(contentType)
		if err != nil || !strings.HasPrefix(mediaType, "text/html") {
			continue
		}

		body, err := io.ReadAll(part)
		if err != nil {
			return "", err
		}

		return decodeCharset(body, params["charset"], contentType)
	}
}

// findBoundary extracts the multipart boundary parameter from the top-level
// Content-Type header at the start of data, and returns the byte offset
// immediately after the header block.
func findBoundary(data []byte) (boundary string, headerEnd int, err error) {
	sep, sepLen := headerBodySeparator(data)
	if sep < 0 {
		return "", 0, errors.ArchiveError("archive has no header/body separator", nil)
	}

	tp := textproto.NewReader(bufio.NewReader(bytes.NewReader(data[:sep+sepLen])))
	header, err := tp.ReadMIMEHeader()
	if err != nil && err != io.EOF {
		return "", 0, err
	}

	contentType := header.Get("Content-Type")
	if contentType == "" {
		return "", 0, errors.ArchiveError("archive has no top-level Content-Type header", nil)
	}

	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", 0, err
	}
	boundary = params["boundary"]
	if boundary == "" {
		return "", 0, errors.ArchiveError("archive Content-Type has no boundary parameter", nil)
	}

	return boundary, sep + sepLen, nil
}

// headerBodySeparator returns the offset and length of the first blank-line
// separator ("\n\n" or "\r\n\r\n") in data, or (-1, 0) if none is found.
func headerBodySeparator(data []byte) (offset, length int) {
	if i := bytes.Index(data, []byte("\r\n\r\n")); i >= 0 {
		return i, 4
	}
	if i := bytes.Index(data, []byte("\n\n")); i >= 0 {
		return i, 2
	}
	return -1, 0
}

// decodeCharset converts body from the declared charset to UTF-8. An empty
// declared charset falls back to sniffing via content, defaulting to UTF-8.
func decodeCharset(body []byte, declared, contentType string) (string, error) {
	if declared != "" && strings.EqualFold(declared, "utf-8") {
		return string(body), nil
	}

	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return string(body), nil
	}
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return string(body), nil
	}
	return string(decoded), nil
}

// scanForHTMLPart performs a best-effort linear scan for the first
// "Content-Type: text/html" part header and returns the body up to the next
// boundary-like marker (a line beginning with "--"). It never errors; an
// empty return means nothing was found.
func scanForHTMLPart(data []byte) string {
	lower := strings.ToLower(string(data))
	idx := strings.Index(lower, htmlContentTypeHeader+" text/html")
	if idx < 0 {
		idx = strings.Index(lower, htmlContentTypeHeader+"text/html")
	}
	if idx < 0 {
		return ""
	}

	bodyStart := idx
	if nl := strings.Index(lower[idx:], "\n\n"); nl >= 0 {
		bodyStart = idx + nl + 2
	} else if nl := strings.Index(lower[idx:], "\r\n\r\n"); nl >= 0 {
		bodyStart = idx + nl + 4
	} else {
		return ""
	}

	rest := lower[bodyStart:]
	end := len(rest)
	if next := strings.Index(rest, "\n--"); next >= 0 {
		end = next
	}

	return strings.TrimSpace(string(data[bodyStart : bodyStart+end]))
}
