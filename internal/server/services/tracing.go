package services

import "go.opentelemetry.io/otel"

var tracer = otel.Tracer("github.com/dmitrijs2005/studioportal/internal/server/services")
