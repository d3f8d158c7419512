package domain

import (
	"encoding/json"
	"errors"
)

var (
	ErrAnnotationID   = errors.New("annotation id missing or too long")
	ErrAnnotationKind = errors.New("unknown annotation kind")
	ErrAnnotationGeom = errors.New("annotation geometry missing")
)

const MaxAnnotationIDLen = 64

// Annotation is a transient markup event. The hub relays it and keeps
// nothing; geometry stays an opaque blob shaped by the client.
type Annotation struct {
	ID       string          `json:"id"`
	Kind     string          `json:"kind"`
	Page     int             `json:"page,omitempty"`
	Geometry json.RawMessage `json:"geometry"`
}

var annotationKinds = map[string]struct{}{
	"freehand":  {},
	"line":      {},
	"arrow":     {},
	"rect":      {},
	"ellipse":   {},
	"text":      {},
	"highlight": {},
}

// Validate checks the shape of an add/update event.
func (a *Annotation) Validate() error {
	if a.ID == "" || len(a.ID) > MaxAnnotationIDLen {
		return ErrAnnotationID
	}
	if _, ok := annotationKinds[a.Kind]; !ok {
		return ErrAnnotationKind
	}
	if len(a.Geometry) == 0 {
		return ErrAnnotationGeom
	}
	return nil
}
