// Package consts holds the small vocabulary of constants shared across the
// crud6 engine: gin.Context keys, query string keys, audit operation names
// and request phase names.
package consts

// gin.Context keys set by middleware and read by handlers/loggers.
const (
	CTX_PRINCIPAL  = "crud6_principal"
	CTX_ROUTE      = "crud6_route"
	CTX_REQUEST_ID = "crud6_request_id"
	CTX_TRACE_ID   = "crud6_trace_id"
	CTX_SCHEMA     = "crud6_schema"
	CTX_HANDLE     = "crud6_handle"
	CTX_PARAMS     = "crud6_params"
)

// Query string keys recognized by the sprunje.
const (
	QUERY_PAGE    = "page"
	QUERY_SIZE    = "size"
	QUERY_SEARCH  = "search"
	QUERY_CONTEXT = "context"
	QUERY_SORTS   = "sorts"
	QUERY_FILTERS = "filters"
)

// Phase names, one per action handler. No log field or OTEL span name in the
// module uses them.
type Phase string

const (
	PHASE_LIST       Phase = "list"
	PHASE_READ       Phase = "read"
	PHASE_SCHEMA     Phase = "schema"
	PHASE_CREATE     Phase = "create"
	PHASE_UPDATE     Phase = "update"
	PHASE_PATCH      Phase = "patch_field"
	PHASE_DELETE     Phase = "delete"
	PHASE_CUSTOM     Phase = "custom_action"
	PHASE_RELATION   Phase = "relation"
)

// OP is the audit log operation vocabulary, matching config.Audit's
// ExcludeOperations list (config/audit.go).
type OP string

const (
	OP_LIST   OP = "list"
	OP_READ   OP = "read"
	OP_CREATE OP = "create"
	OP_UPDATE OP = "update"
	OP_PATCH  OP = "patch"
	OP_DELETE OP = "delete"
	OP_ACTION OP = "action"
)

// View contexts accepted by the schema loader's FilterForContext.
const (
	ContextList   = "list"
	ContextForm   = "form"
	ContextDetail = "detail"
	ContextMeta   = "meta"
)

// DateTimeLayout is a date-time layout string. Nothing in the module uses it;
// the sprunje parses no time-range query parameters.
const DateTimeLayout = "2006-01-02 15:04:05"
