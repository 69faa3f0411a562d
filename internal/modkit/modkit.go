// Package modkit wires API modules: shared deps, build options, route
// mounting and cross-module ports
package modkit

import (
	"reflect"

	phttp "leadfunnel/internal/platform/net/http"
)

// Module is what the API composes
type Module interface {
	// MountRoutes attaches the module under its prefix
	MountRoutes(r phttp.Router)
	// Ports returns the module's port set for cross wiring, or nil
	Ports() any
	Name() string
}

// Builder constructs a Module from shared deps and options
type Builder func(Deps, ...Option) Module

// PortsOf finds a T in m.Ports(): either the value itself or one of its
// exported struct fields
func PortsOf[T any](m Module) (t T, ok bool) {
	p := m.Ports()
	if p == nil {
		return t, false
	}
	if v, ok := p.(T); ok {
		return v, true
	}
	rv := reflect.ValueOf(p)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return t, false
	}
	for i := range rv.NumField() {
		f := rv.Field(i)
		if !f.CanInterface() {
			continue
		}
		if v, ok := f.Interface().(T); ok {
			return v, true
		}
	}
	return t, false
}

// MustPortsOf panics when the port is missing; bootstrap only
func MustPortsOf[T any](m Module) T {
	if v, ok := PortsOf[T](m); ok {
		return v
	}
	panic("modkit: port " + reflect.TypeFor[T]().String() + " not found on module " + m.Name())
}
