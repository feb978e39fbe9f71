package telemetry

import (
	"context"
	"maps"
	"runtime/pprof"
	"sort"
	"strings"

	"github.com/grafana/pyroscope-go"
)

// Label keys used to slice profiling data in the Pyroscope UI.
const (
	ProfilingLabelController = "controller"
	ProfilingLabelRoute      = "route"
	ProfilingLabelMethod     = "method"
	ProfilingLabelTenantID   = "tenant_id"
	ProfilingLabelOperation  = "operation"
	ProfilingLabelRegion     = "region"
)

// MaxLabelValueLength caps label values so unbounded input cannot blow up
// series cardinality.
const MaxLabelValueLength = 128

// HighCardinalityLabels lists keys that are silently dropped from profiles.
// Each distinct label value is a separate series in Pyroscope, so per-request
// identifiers would exhaust its memory. tenant_id is deliberately absent:
// tenant counts stay low enough to label. Do not mutate at runtime.
var HighCardinalityLabels = map[string]bool{
	"user_id":    true,
	"request_id": true,
	"order_id":   true,
	"trace_id":   true,
	"span_id":    true,
	"session_id": true,
}

// WithProfilingLabels runs fn with the given labels attached to its profile
// samples. The map is copied before use, so callers may reuse it. Labels are
// sanitized first; if none survive, fn runs unlabeled.
//
//	telemetry.WithProfilingLabels(ctx, map[string]string{
//	    "controller": "StockHandler",
//	    "operation":  "Transfer",
//	}, func(c context.Context) {
//	    moveStock(c)
//	})
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := labelPairs(labels)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// WithPprofLabels is the same operation through Go's native pprof API, for
// callers that want labels visible to standard Go profiling tools. Both
// variants produce identical label behavior.
func WithPprofLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := labelPairs(labels)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pprof.Do(ctx, pprof.Labels(pairs...), fn)
}

// labelPairs copies, sanitizes and flattens a label map into the
// alternating key/value slice both label APIs take. Keys come out sorted
// so output is deterministic.
func labelPairs(labels map[string]string) []string {
	if len(labels) == 0 {
		return nil
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(labels)*2)
	for _, key := range keys {
		value := labels[key]
		if key == "" || value == "" || HighCardinalityLabels[key] {
			continue
		}
		if len(value) > MaxLabelValueLength {
			value = value[:MaxLabelValueLength]
		}
		if sanitized := sanitizeLabelKey(key); sanitized != "" {
			pairs = append(pairs, sanitized, value)
		}
	}
	return pairs
}

// sanitizeLabelKey normalizes a key to snake_case and strips anything that
// is not alphanumeric or underscore.
func sanitizeLabelKey(key string) string {
	key = strings.ToLower(key)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			return r
		case r == ' ', r == '-':
			return '_'
		default:
			return -1
		}
	}, key)
}

// ProfilingScope accumulates labels incrementally before running a labeled
// function.
type ProfilingScope struct {
	labels map[string]string
}

// NewProfilingScope creates a scope seeded with the given labels.
func NewProfilingScope(labels map[string]string) *ProfilingScope {
	scope := &ProfilingScope{labels: make(map[string]string, len(labels))}
	maps.Copy(scope.labels, labels)
	return scope
}

// WithLabel adds a single label to the scope.
func (s *ProfilingScope) WithLabel(key, value string) *ProfilingScope {
	s.labels[key] = value
	return s
}

// WithController adds the controller label.
func (s *ProfilingScope) WithController(controller string) *ProfilingScope {
	return s.WithLabel(ProfilingLabelController, controller)
}

// WithRoute adds the route label.
func (s *ProfilingScope) WithRoute(route string) *ProfilingScope {
	return s.WithLabel(ProfilingLabelRoute, route)
}

// WithMethod adds the HTTP method label.
func (s *ProfilingScope) WithMethod(method string) *ProfilingScope {
	return s.WithLabel(ProfilingLabelMethod, method)
}

// WithTenantID adds the tenant_id label.
func (s *ProfilingScope) WithTenantID(tenantID string) *ProfilingScope {
	return s.WithLabel(ProfilingLabelTenantID, tenantID)
}

// WithOperation adds the operation label.
func (s *ProfilingScope) WithOperation(operation string) *ProfilingScope {
	return s.WithLabel(ProfilingLabelOperation, operation)
}

// WithRegion adds the region label for code regions like db_query.
func (s *ProfilingScope) WithRegion(region string) *ProfilingScope {
	return s.WithLabel(ProfilingLabelRegion, region)
}

// Labels returns a copy of the accumulated labels.
func (s *ProfilingScope) Labels() map[string]string {
	result := make(map[string]string, len(s.labels))
	maps.Copy(result, s.labels)
	return result
}

// Run executes fn with the accumulated labels.
func (s *ProfilingScope) Run(ctx context.Context, fn func(context.Context)) {
	WithProfilingLabels(ctx, s.labels, fn)
}

// HTTPRequestLabels builds the standard label set for HTTP request
// profiling. Empty values are left out.
func HTTPRequestLabels(controller, route, method, tenantID string) map[string]string {
	labels := make(map[string]string, 4)
	for key, value := range map[string]string{
		ProfilingLabelController: controller,
		ProfilingLabelRoute:      route,
		ProfilingLabelMethod:     method,
		ProfilingLabelTenantID:   tenantID,
	} {
		if value != "" {
			labels[key] = value
		}
	}
	return labels
}

// OperationLabels builds labels for a named operation.
func OperationLabels(operation string, extraLabels map[string]string) map[string]string {
	labels := make(map[string]string, len(extraLabels)+1)
	labels[ProfilingLabelOperation] = operation
	maps.Copy(labels, extraLabels)
	return labels
}

// RegionLabels builds labels for a code region such as a database call.
func RegionLabels(region string, extraLabels map[string]string) map[string]string {
	labels := make(map[string]string, len(extraLabels)+1)
	labels[ProfilingLabelRegion] = region
	maps.Copy(labels, extraLabels)
	return labels
}
