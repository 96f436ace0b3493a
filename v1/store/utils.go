package store

import (
	"context"

	"github.com/Aleph-Alpha/polystore/v1/query"
)

// objectsFrom converts a decoded list value into objects. It reports false
// for values that are not lists of objects.
func objectsFrom(v any) ([]query.Object, bool) {
	switch tv := v.(type) {
	case []query.Object:
		return tv, true
	case []any:
		out := make([]query.Object, 0, len(tv))
		for _, e := range tv {
			obj, ok := query.Normalize(e).(map[string]any)
			if !ok {
				return nil, false
			}
			out = append(out, obj)
		}
		return out, true
	}
	if list, ok := query.Normalize(v).([]any); ok {
		return objectsFrom(list)
	}
	return nil, false
}

type nopLogger struct{}

func (nopLogger) Info(string, error, ...map[string]interface{})  {}
func (nopLogger) Debug(string, error, ...map[string]interface{}) {}
func (nopLogger) Warn(string, error, ...map[string]interface{})  {}
func (nopLogger) Error(string, error, ...map[string]interface{}) {}

func (nopLogger) InfoWithContext(context.Context, string, error, ...map[string]interface{})  {}
func (nopLogger) DebugWithContext(context.Context, string, error, ...map[string]interface{}) {}
func (nopLogger) WarnWithContext(context.Context, string, error, ...map[string]interface{})  {}
func (nopLogger) ErrorWithContext(context.Context, string, error, ...map[string]interface{}) {}
