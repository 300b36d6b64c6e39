package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldStore       = "store"
	FieldVersion     = "version"
	FieldBackend     = "backend"
	FieldID          = "id"
	FieldSum         = "sum"
	FieldCategory    = "category"
	FieldDescription = "description"
	FieldDate        = "date"
	FieldPeriod      = "period"
	FieldCount       = "count"
	FieldFormat      = "format"
	FieldEvent       = "event"
	FieldRunID       = "run_id"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentCLI     = "cli"
	ComponentExpense = "expense"
	ComponentStorage = "storage"
	ComponentReport  = "report"
	ComponentAMQP    = "amqp"
	ComponentExport  = "export"
	ComponentBackend = "backend"
)

// Operations defines standard operation names
const (
	OpInsert   = "insert"
	OpList     = "list"
	OpClear    = "clear"
	OpReport   = "report"
	OpExport   = "export"
	OpPublish  = "publish"
	OpValidate = "validate"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)

// LogFields provides a builder pattern for structured log fields. Fields keep
// the order they were added in.
type LogFields []any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields, 0, 16)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	return append(f, FieldComponent, component)
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f = append(f, FieldError, err.Error())
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	return append(f, FieldOperation, op)
}

// WithExpense adds expense-related fields
func (f LogFields) WithExpense(id int64, sum, category, description, date string) LogFields {
	return append(f,
		FieldID, id,
		FieldSum, sum,
		FieldCategory, category,
		FieldDescription, description,
		FieldDate, date)
}

// WithStore adds the store name and version
func (f LogFields) WithStore(name string, version uint) LogFields {
	return append(f, FieldStore, name, FieldVersion, version)
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	return []any(f)
}
