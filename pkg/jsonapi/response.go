package jsonapi

import (
	"net/http"
)

// WriteDocument writes a JSON:API document to the response.
// The document is encoded before any header is written, so an encoding
// failure leaves the response untouched for the caller to report.
func WriteDocument(w http.ResponseWriter, status int, doc Document) error {
	body, err := Marshal(doc.ToMap())
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(status)
	_, err = w.Write(append(body, '\n'))
	return err
}

// WriteError writes an error response with one or more errors.
// The HTTP status is derived from the first error's status field.
func WriteError(w http.ResponseWriter, errs ...Error) error {
	if len(errs) == 0 {
		return WriteDocument(w, http.StatusInternalServerError, NewErrorDocument(ErrInternal("")))
	}

	status := errs[0].StatusCode()
	if status == 0 {
		status = http.StatusInternalServerError
	}

	return WriteDocument(w, status, NewErrorDocument(errs...))
}

// WriteNotFound is a convenience for 404 errors.
func WriteNotFound(w http.ResponseWriter, resourceType string) error {
	return WriteError(w, ErrNotFound(resourceType))
}
