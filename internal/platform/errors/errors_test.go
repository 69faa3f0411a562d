package errors

import (
	stderrs "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusCodeMapping(t *testing.T) {
	cases := []struct {
		code ErrorCode
		want int
	}{
		{ErrorCodeNotFound, http.StatusNotFound},
		{ErrorCodeInvalidArgument, http.StatusUnprocessableEntity},
		{ErrorCodeDuplicateKey, http.StatusConflict},
		{ErrorCodeValidation, http.StatusBadRequest},
		{ErrorCodeJSON, http.StatusBadRequest},
		{ErrorCodeTooLarge, http.StatusRequestEntityTooLarge},
		{ErrorCodeUnavailable, http.StatusServiceUnavailable},
		{ErrorCodeDB, http.StatusInternalServerError},
		{ErrorCodePanic, http.StatusInternalServerError},
		{9999, http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := HTTPStatusCode(c.code); got != c.want {
			t.Fatalf("HTTPStatusCode(%v) = %d, want %d", c.code, got, c.want)
		}
	}
}

func TestWrapAndUnwrap(t *testing.T) {
	var nilErr *Error
	if nilErr.Error() != "<nil>" {
		t.Fatalf("nil render = %q", nilErr.Error())
	}

	base := stderrs.New("connection reset")
	err := Wrapf(base, ErrorCodeUnavailable, "insert lead %s", "l-1")
	if got := err.Error(); got != "insert lead l-1: connection reset" {
		t.Fatalf("Error() = %q", got)
	}
	if !stderrs.Is(err, base) || Root(err) != base {
		t.Fatalf("wrapped cause lost")
	}
	if CodeOf(err) != ErrorCodeUnavailable || HTTPStatus(err) != http.StatusServiceUnavailable {
		t.Fatalf("code mapping wrong: %v", CodeOf(err))
	}
	if WrapIf(nil, ErrorCodeDB, "x") != nil {
		t.Fatalf("WrapIf(nil) should be nil")
	}

	outer := fmt.Errorf("handler: %w", err)
	if e, ok := As(outer); !ok || e.Code() != ErrorCodeUnavailable {
		t.Fatalf("As through fmt wrap failed")
	}
}

func TestFieldOpAndWire(t *testing.T) {
	err := WithOp(WithField(InvalidArgf("bad email"), "email"), "leads.create")
	e, _ := As(err)
	if e.Field() != "email" || e.Op() != "leads.create" {
		t.Fatalf("field/op = %q/%q", e.Field(), e.Op())
	}
	w := WireFrom(err)
	if w.Code != ErrorCodeInvalidArgument || w.Message != "bad email" || w.Field != "email" {
		t.Fatalf("wire = %+v", w)
	}

	foreign := stderrs.New("plain")
	if WithField(foreign, "x") != foreign {
		t.Fatalf("foreign errors pass through")
	}
	if w := WireFrom(foreign); w.Code != ErrorCodeUnknown || w.Message != "plain" {
		t.Fatalf("foreign wire = %+v", w)
	}
	if w := WireFrom(nil); w != (Wire{}) {
		t.Fatalf("nil wire = %+v", w)
	}
}

func TestSugarAndHTTP(t *testing.T) {
	cases := []struct {
		err  error
		want ErrorCode
	}{
		{NotFoundf("lead %s", "x"), ErrorCodeNotFound},
		{TooLargef("batch of %d", 6000), ErrorCodeTooLarge},
		{DBf("db"), ErrorCodeDB},
		{JSONErrf("json"), ErrorCodeJSON},
		{PanicErrf("boom"), ErrorCodePanic},
		{Unavailablef("down"), ErrorCodeUnavailable},
	}
	for _, c := range cases {
		if !IsCode(c.err, c.want) {
			t.Fatalf("%v: code %v, want %v", c.err, CodeOf(c.err), c.want)
		}
	}

	status, wire := HTTP(NotFoundf("session missing"))
	if status != http.StatusNotFound || wire.Message != "session missing" {
		t.Fatalf("HTTP = %d %+v", status, wire)
	}
	if status, _ := HTTP(nil); status != http.StatusOK {
		t.Fatalf("HTTP(nil) = %d", status)
	}
}
