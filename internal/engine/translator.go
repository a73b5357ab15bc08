package engine

import (
	"github.com/roach88/crosslink/internal/linkage"
)

// Translator converts an interaction payload into the apply-side payload
// for one target chart. Implementations must be pure and retain no state
// between calls - translators are invoked concurrently without
// coordination.
//
// The target parameter carries the chart the translated payload is
// destined for. The default translator ignores it; it exists so tests and
// specialized deployments can fail or reshape payloads per target without
// touching the engine.
type Translator interface {
	Translate(kind linkage.SyncKind, target linkage.ChartID, payload linkage.Payload) (linkage.Payload, error)
}

// PassthroughTranslator is the production translator. All four sync kinds
// carry self-describing payloads that apply 1:1 on the target side, so
// translation validates the variant against the kind and passes the
// payload through unchanged; the kind alone determines the outbound
// update verb.
type PassthroughTranslator struct{}

// Translate implements Translator.
//
// Fails with ErrCodeUnsupportedKind for kinds outside the closed
// enumeration and ErrCodePayloadMismatch when the payload variant does
// not belong to the kind.
func (PassthroughTranslator) Translate(kind linkage.SyncKind, _ linkage.ChartID, payload linkage.Payload) (linkage.Payload, error) {
	if !kind.Valid() {
		return nil, NewUnsupportedKindError(kind)
	}
	if payload == nil || payload.Kind() != kind {
		return nil, NewPayloadMismatchError(kind, payload)
	}
	return payload, nil
}

// TranslateFunc adapts a function to the Translator interface.
type TranslateFunc func(kind linkage.SyncKind, target linkage.ChartID, payload linkage.Payload) (linkage.Payload, error)

// Translate implements Translator.
func (f TranslateFunc) Translate(kind linkage.SyncKind, target linkage.ChartID, payload linkage.Payload) (linkage.Payload, error) {
	return f(kind, target, payload)
}
