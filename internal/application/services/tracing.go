package services

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/avatarctic/anonymous-confessions/services"

// The global provider delegates, so a provider installed later still receives spans.
var tracer = otel.Tracer(tracerName)

func getTracer() trace.Tracer {
	return tracer
}
