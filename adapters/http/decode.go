package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/artpar/jsonview/pkg/jsonapi"
)

// MaxBodyBytes limits decoded request bodies.
const MaxBodyBytes = 10 << 20

// ErrEmptyBody is returned when a required document body is empty.
var ErrEmptyBody = errors.New("request body is empty")

// InvalidMediaTypeError is returned when a required document is not sent
// with the JSON:API media type.
type InvalidMediaTypeError struct {
	ContentTypes []string
}

func (e *InvalidMediaTypeError) Error() string {
	return fmt.Sprintf("invalid media type of request, %q expected, %q given",
		jsonapi.ContentType, strings.Join(e.ContentTypes, ", "))
}

// DecodeError wraps JSON decoding and document hydration failures.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "document decoding error: " + e.Err.Error() }

func (e *DecodeError) Unwrap() error { return e.Err }

// InvalidDocumentTypeError is returned when the body holds another kind of document.
type InvalidDocumentTypeError struct {
	Expected string
	Actual   string
}

func (e *InvalidDocumentTypeError) Error() string {
	return fmt.Sprintf("document of type %s expected, %s given", e.Expected, e.Actual)
}

// IsDecodeError reports whether err came from decoding a request document.
func IsDecodeError(err error) bool {
	var (
		media   *InvalidMediaTypeError
		decode  *DecodeError
		docType *InvalidDocumentTypeError
	)
	return errors.Is(err, ErrEmptyBody) ||
		errors.As(err, &media) ||
		errors.As(err, &decode) ||
		errors.As(err, &docType)
}

// DecodeDocument reads the request body as a JSON:API document.
//
// A required document must be sent as application/vnd.api+json and must not
// be empty. An optional document with an empty body yields (nil, nil).
func DecodeDocument(r *http.Request, optional bool) (jsonapi.Document, error) {
	contentTypes := r.Header.Values("Content-Type")
	if !optional && !isJSONAPI(contentTypes) {
		return nil, &InvalidMediaTypeError{ContentTypes: contentTypes}
	}

	var body []byte
	if r.Body != nil {
		b, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes))
		if err != nil {
			return nil, &DecodeError{Err: err}
		}
		body = b
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		if optional {
			return nil, nil
		}
		return nil, ErrEmptyBody
	}

	doc, err := jsonapi.Hydrate(body)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	return doc, nil
}

// DecodeInto decodes the body and requires a document of type D.
// Use jsonapi.Document for D to accept any kind.
func DecodeInto[D jsonapi.Document](r *http.Request, optional bool) (D, error) {
	var zero D
	doc, err := DecodeDocument(r, optional)
	if err != nil || doc == nil {
		return zero, err
	}
	typed, ok := doc.(D)
	if !ok {
		return zero, &InvalidDocumentTypeError{
			Expected: fmt.Sprintf("%T", zero),
			Actual:   jsonapi.Kind(doc),
		}
	}
	return typed, nil
}

func isJSONAPI(contentTypes []string) bool {
	for _, ct := range contentTypes {
		if strings.HasPrefix(strings.TrimLeft(ct, " \t"), jsonapi.ContentType) {
			return true
		}
	}
	return false
}

type documentKey struct{}

// RequireDocument decodes the body before next runs and stores the document
// in the request context. Decode failures are written through rs.
func RequireDocument(rs *Responder, optional bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			doc, err := DecodeDocument(r, optional)
			if err != nil {
				rs.Error(w, r, err)
				return
			}
			if doc != nil {
				r = r.WithContext(context.WithValue(r.Context(), documentKey{}, doc))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// DocumentFrom returns the document stored by RequireDocument.
func DocumentFrom(ctx context.Context) (jsonapi.Document, bool) {
	doc, ok := ctx.Value(documentKey{}).(jsonapi.Document)
	return doc, ok
}
