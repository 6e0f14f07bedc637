package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
)

var errTooLarge = errors.New("upload too large")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func readBodyJSON(r *http.Request, maxBytes int64, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

// readUpload returns the uploaded workbook: the multipart "file" field,
// or the raw request body for any other content type.
func readUpload(w http.ResponseWriter, r *http.Request, maxBytes int64) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	var src io.Reader = r.Body
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if strings.HasPrefix(mediaType, "multipart/") {
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			return nil, uploadErr(err)
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf("missing file field: %w", err)
		}
		defer file.Close()
		src = file
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, uploadErr(err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("empty upload")
	}
	return data, nil
}

func uploadErr(err error) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return fmt.Errorf("%w: limit is %d bytes", errTooLarge, mbe.Limit)
	}
	// multipart parsing does not always wrap the reader error
	if strings.Contains(err.Error(), "request body too large") {
		return fmt.Errorf("%w: %v", errTooLarge, err)
	}
	return err
}
