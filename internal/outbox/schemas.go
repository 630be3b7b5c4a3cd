package outbox

const recordStartedSchema = `{
  "type": "object",
  "title": "RecordStarted",
  "properties": {
    "record_id": {"type": "string"},
    "operator_id": {"type": "string"},
    "operator_name": {"type": "string"},
    "operator_email": {"type": "string"},
    "name": {"type": "string"},
    "detail": {"type": "string"},
    "shift": {"type": "string"},
    "started_at": {"type": "string", "format": "date-time"},
    "date": {"type": "string"},
    "created_at": {"type": "string", "format": "date-time"}
  },
  "required": ["record_id", "operator_id", "operator_name", "operator_email", "name", "started_at", "date", "created_at"],
  "additionalProperties": false
}`

const recordStateChangedSchema = `{
  "type": "object",
  "title": "RecordStateChanged",
  "properties": {
    "record_id": {"type": "string"},
    "operator_id": {"type": "string"},
    "state": {"type": "string"},
    "paused_at": {"type": "string", "format": "date-time"},
    "resumed_at": {"type": "string", "format": "date-time"},
    "ended_at": {"type": "string", "format": "date-time"},
    "duration_minutes": {"type": "integer"},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["record_id", "operator_id", "state", "occurred_at"],
  "additionalProperties": false
}`

// SchemaCatalogEntry maps an event type to its schema definition.
type SchemaCatalogEntry struct {
	Schema string
}

var schemaCatalog = map[string]SchemaCatalogEntry{
	"record.started": {
		Schema: recordStartedSchema,
	},
	"record.state_changed": {
		Schema: recordStateChangedSchema,
	},
}
