package filter

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// maxNestedParts bounds multipart recursion
const maxNestedParts = 10

var linkPattern = regexp.MustCompile(`(?i)https?://[^\s<>"'()\[\]{}]+`)

// charsetReader returns a reader that decodes from the named charset to UTF-8
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	charset = strings.ToLower(strings.TrimSpace(charset))
	if charset == "" || charset == "utf-8" || charset == "us-ascii" {
		return input, nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", charset, err)
	}
	return transform.NewReader(input, enc.NewDecoder()), nil
}

// decodeEncodedHeader decodes RFC 2047 encoded words such as a Subject
func decodeEncodedHeader(value string) (string, error) {
	dec := mime.WordDecoder{CharsetReader: charsetReader}
	return dec.DecodeHeader(value)
}

// extractTextFromMessage returns the decoded subject and text parts of a
// message. Text and HTML parts are both kept since links live in either.
func extractTextFromMessage(msg *mail.Message) (string, error) {
	var text bytes.Buffer

	if subject := msg.Header.Get("Subject"); subject != "" {
		decoded, err := decodeEncodedHeader(subject)
		if err != nil {
			decoded = subject
		}
		text.WriteString(decoded)
		text.WriteString("\n")
	}

	err := extractPart(&text,
		msg.Header.Get("Content-Type"),
		msg.Header.Get("Content-Transfer-Encoding"),
		msg.Body, 0)
	if err != nil {
		return text.String(), err
	}
	return text.String(), nil
}

func extractPart(out *bytes.Buffer, contentType, transferEncoding string, body io.Reader, depth int) error {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		// Missing or broken Content-Type means plain US-ASCII text
		mediaType, params = "text/plain", map[string]string{}
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary, ok := params["boundary"]
		if !ok || depth >= maxNestedParts {
			return nil
		}
		mr := multipart.NewReader(body, boundary)
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				// Keep whatever was read before the broken part
				return nil
			}
			// multipart.Reader already undoes quoted-printable
			encoding := part.Header.Get("Content-Transfer-Encoding")
			if err := extractPart(out, part.Header.Get("Content-Type"), encoding, part, depth+1); err != nil {
				return err
			}
		}
	}

	if !strings.HasPrefix(mediaType, "text/") {
		return nil
	}

	decoded := decodeTransfer(transferEncoding, body)
	reader, err := charsetReader(params["charset"], decoded)
	if err != nil {
		// Unknown charsets still carry ASCII links
		reader = decoded
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to read %s part: %w", mediaType, err)
	}
	out.Write(data)
	out.WriteString("\n")
	return nil
}

func decodeTransfer(encoding string, body io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, body)
	case "quoted-printable":
		return quotedprintable.NewReader(body)
	default:
		return body
	}
}

// ExtractURLs returns the distinct http(s) links in text, in order of first
// appearance, capped at limit when limit > 0
func ExtractURLs(text string, limit int) []string {
	var urls []string
	seen := make(map[string]struct{})

	for _, match := range linkPattern.FindAllString(text, -1) {
		match = strings.TrimRight(match, ".,;:!?")
		key := strings.ToLower(match)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		urls = append(urls, match)
		if limit > 0 && len(urls) >= limit {
			break
		}
	}
	return urls
}
