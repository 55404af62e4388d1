package backend

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"sort"
	"strings"
)

// File is a binary upload inside a Form.
type File struct {
	Name        string // filename reported to the backend
	ContentType string
	Reader      io.Reader
}

// Form is a request body of mixed scalar and file fields. When it holds
// at least one *File, the client sends it as multipart/form-data and
// leaves the Content-Type boundary to the multipart writer; otherwise it
// is serialized as plain JSON.
type Form map[string]any

func (f Form) HasFile() bool {
	for _, v := range f {
		if _, ok := v.(*File); ok {
			return true
		}
	}
	return false
}

func (f Form) encodeMultipart() (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	// Sorted keys keep the encoded body deterministic.
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		switch v := f[key].(type) {
		case nil:
			continue
		case *File:
			header := make(textproto.MIMEHeader)
			header.Set("Content-Disposition",
				fmt.Sprintf(`form-data; name=%q; filename=%q`, escapeQuotes(key), escapeQuotes(v.Name)))
			if v.ContentType != "" {
				header.Set("Content-Type", v.ContentType)
			}
			part, err := writer.CreatePart(header)
			if err != nil {
				return nil, "", err
			}
			if _, err := io.Copy(part, v.Reader); err != nil {
				return nil, "", err
			}
		default:
			if err := writer.WriteField(key, fmt.Sprint(v)); err != nil {
				return nil, "", err
			}
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return &buf, writer.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
