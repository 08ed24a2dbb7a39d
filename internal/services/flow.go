package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"alfredoptarigan/resume-studio/internal/models"
)

// ShapePolicy decides what a flow does when the model answer violates the
// output schema.
type ShapePolicy int

const (
	// Propagate fails the call with the *ValidationError.
	Propagate ShapePolicy = iota
	// DefaultOnShapeViolation substitutes the flow's default output.
	DefaultOnShapeViolation
)

func (p ShapePolicy) String() string {
	if p == DefaultOnShapeViolation {
		return "default"
	}
	return "propagate"
}

// Flow binds an input schema, an output schema and a prompt template into a
// single stateless model call.
type Flow[In, Out any] struct {
	name    string
	invoker *ModelInvoker
	input   *Schema
	output  *Schema
	policy  ShapePolicy

	media     func(In) ([]models.DataURI, error)
	fallback  func() Out
	normalize func(Out) Out
}

type flowOption[In, Out any] func(*Flow[In, Out])

func withMedia[In, Out any](fn func(In) ([]models.DataURI, error)) flowOption[In, Out] {
	return func(f *Flow[In, Out]) { f.media = fn }
}

func withDefault[In, Out any](fallback func() Out) flowOption[In, Out] {
	return func(f *Flow[In, Out]) {
		f.policy = DefaultOnShapeViolation
		f.fallback = fallback
	}
}

func withNormalize[In, Out any](fn func(Out) Out) flowOption[In, Out] {
	return func(f *Flow[In, Out]) { f.normalize = fn }
}

func newFlow[In, Out any](name, schemaBase string, invoker *ModelInvoker, opts ...flowOption[In, Out]) (*Flow[In, Out], error) {
	in, err := LoadSchema(schemaBase + ".input")
	if err != nil {
		return nil, err
	}
	out, err := LoadSchema(schemaBase + ".output")
	if err != nil {
		return nil, err
	}

	f := &Flow[In, Out]{name: name, invoker: invoker, input: in, output: out}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

func (f *Flow[In, Out]) Name() string        { return f.name }
func (f *Flow[In, Out]) Policy() ShapePolicy { return f.policy }

// Run invokes the model once.
func (f *Flow[In, Out]) Run(ctx context.Context, in In) (Out, error) {
	out, _, err := f.Execute(ctx, in)
	return out, err
}

// Execute is Run that also reports a shape violation absorbed by the flow's
// policy. degraded is nil when the answer was used as is.
func (f *Flow[In, Out]) Execute(ctx context.Context, in In) (out Out, degraded *ValidationError, err error) {
	var media []models.DataURI
	if f.media != nil {
		if media, err = f.media(in); err != nil {
			return out, nil, fmt.Errorf("failed to prepare %s attachments: %w", f.name, err)
		}
	}

	raw, err := f.invoker.Invoke(ctx, f.name, in, media, f.input, f.output)
	if err == nil {
		out, err = Parse[Out](f.output, raw)
	}

	if err != nil {
		var verr *ValidationError
		isOutputViolation := errors.As(err, &verr) && verr.Schema == f.output.Name()
		if !isOutputViolation || f.policy != DefaultOnShapeViolation {
			var zero Out
			return zero, nil, err
		}
		log.Printf("⚠️  [%s] malformed model output, using default: %v\n", f.name, verr)
		out = f.fallback()
		degraded = verr
	}

	if f.normalize != nil {
		out = f.normalize(out)
	}
	return out, degraded, nil
}
