package logging

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Processor rewrites the fields of a record before any handler sees it.
// Fields later in the slice win over earlier ones with the same key.
type Processor interface {
	Process(ent zapcore.Entry, fields []zapcore.Field) []zapcore.Field
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ent zapcore.Entry, fields []zapcore.Field) []zapcore.Field

func (f ProcessorFunc) Process(ent zapcore.Entry, fields []zapcore.Field) []zapcore.Field {
	return f(ent, fields)
}

// GlobalContextProcessor merges the current GlobalContext into each record.
// Global entries go first so fields given at the call site, or bound with
// With, override them.
type GlobalContextProcessor struct {
	global *GlobalContext
}

func NewGlobalContextProcessor(global *GlobalContext) *GlobalContextProcessor {
	return &GlobalContextProcessor{global: global}
}

func (p *GlobalContextProcessor) Process(_ zapcore.Entry, fields []zapcore.Field) []zapcore.Field {
	values := p.global.All()
	if len(values) == 0 {
		return fields
	}

	out := make([]zapcore.Field, 0, len(values)+len(fields))
	for _, k := range sortedKeys(values) {
		out = append(out, zap.Any(k, values[k]))
	}
	return append(out, fields...)
}

// UIDProcessor tags every record with the same random id in extra.uid, so
// lines written by one process can be told apart from another's.
type UIDProcessor struct {
	uid string
}

func NewUIDProcessor() *UIDProcessor {
	return &UIDProcessor{uid: uuid.NewString()}
}

func (p *UIDProcessor) UID() string { return p.uid }

func (p *UIDProcessor) Process(_ zapcore.Entry, fields []zapcore.Field) []zapcore.Field {
	return append(fields, Extra("uid", p.uid))
}
