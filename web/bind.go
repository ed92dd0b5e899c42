package web

import (
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fusionstack/fusion"
)

// Binding declarations turn raw request values into typed, injectable
// dependencies. Each helper registers a request-scoped declaration whose
// provider reads from the seeded *http.Request, so handlers depend on the
// typed value and never touch the request directly.
//
// Values are matched by Go type, so each semantic value gets its own named
// type:
//
//	type UserID string
//	type PageSize int
//
//	web.PathParam[UserID](reg, "id")
//	web.Query[PageSize](reg, "page_size")
//
// Supported target types: string, bool, integer and float kinds, and any
// type implementing encoding.TextUnmarshaler. A pointer target makes the
// value optional: absent parameters yield nil instead of a BindError.

// PathParam registers T as a path parameter bound by name.
func PathParam[T any](r *fusion.Registry, name string) error {
	return r.Request(func(req *http.Request) (T, error) {
		value := chi.URLParam(req, name)
		return decodeParam[T]("path", name, value, value != "")
	})
}

// Query registers T as a query string parameter bound by name.
func Query[T any](r *fusion.Registry, name string) error {
	return r.Request(func(req *http.Request) (T, error) {
		values := req.URL.Query()
		return decodeParam[T]("query", name, values.Get(name), values.Has(name))
	})
}

// Header registers T as a request header bound by name.
func Header[T any](r *fusion.Registry, name string) error {
	return r.Request(func(req *http.Request) (T, error) {
		value := req.Header.Get(name)
		return decodeParam[T]("header", name, value, value != "")
	})
}

// Body registers T as the JSON-decoded request body.
func Body[T any](r *fusion.Registry) error {
	return r.Request(func(req *http.Request) (T, error) {
		var out T

		body, err := io.ReadAll(req.Body)
		if err != nil {
			return out, &BindError{Source: "body", Cause: err}
		}
		if len(body) == 0 {
			return out, &BindError{Source: "body", Cause: errors.New("request body is empty")}
		}

		if err := json.Unmarshal(body, &out); err != nil {
			return out, &BindError{Source: "body", Cause: err}
		}

		return out, nil
	})
}

// decodeParam converts one raw string into T. Pointer targets are optional;
// everything else is required.
func decodeParam[T any](source, name, raw string, present bool) (T, error) {
	var out T
	target := reflect.ValueOf(&out).Elem()

	if target.Kind() == reflect.Pointer {
		if !present {
			return out, nil // optional, absent
		}

		elem := reflect.New(target.Type().Elem())
		if err := decodeInto(elem.Elem(), raw); err != nil {
			return out, &BindError{Source: source, Name: name, Cause: err}
		}
		target.Set(elem)
		return out, nil
	}

	if !present {
		return out, &BindError{Source: source, Name: name, Cause: errors.New("required parameter is missing")}
	}

	if err := decodeInto(target, raw); err != nil {
		return out, &BindError{Source: source, Name: name, Cause: err}
	}

	return out, nil
}

var textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()

// decodeInto parses raw into a settable value of a basic kind or a
// TextUnmarshaler.
func decodeInto(target reflect.Value, raw string) error {
	if target.Addr().Type().Implements(textUnmarshalerType) {
		return target.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(raw))
	}

	switch target.Kind() {
	case reflect.String:
		target.SetString(raw)

	case reflect.Bool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid bool %q", raw)
		}
		target.SetBool(v)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v, err := strconv.ParseInt(raw, 10, target.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid integer %q", raw)
		}
		target.SetInt(v)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, err := strconv.ParseUint(raw, 10, target.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid unsigned integer %q", raw)
		}
		target.SetUint(v)

	case reflect.Float32, reflect.Float64:
		v, err := strconv.ParseFloat(raw, target.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid float %q", raw)
		}
		target.SetFloat(v)

	default:
		return fmt.Errorf("unsupported parameter type %s", target.Type())
	}

	return nil
}
