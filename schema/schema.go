// Package schema defines the closed value sets of the ddbgen schema language:
// field kinds, operations, range conditions, projections and return shapes.
// The loader reads these as plain strings; the validator checks membership
// here so every enum violation can carry a nearest-match suggestion.
package schema

// FieldKind is the closed set of entity field kinds.
type FieldKind string

const (
	KindText       FieldKind = "text"
	KindInteger    FieldKind = "integer"
	KindDecimal    FieldKind = "decimal"
	KindBoolean    FieldKind = "boolean"
	KindList       FieldKind = "list"
	KindMap        FieldKind = "map"
	KindIdentifier FieldKind = "identifier"
)

// fieldKinds is ordered for stable diagnostics output.
var fieldKinds = []FieldKind{
	KindText, KindInteger, KindDecimal, KindBoolean, KindList, KindMap, KindIdentifier,
}

// Valid reports whether k is a member of the closed set.
func (k FieldKind) Valid() bool {
	for _, v := range fieldKinds {
		if k == v {
			return true
		}
	}
	return false
}

// Numeric reports whether values of this kind sort natively as numbers.
// Numeric single-field key templates are passthrough-eligible: the generated
// key builder returns the raw value so the store's numeric ordering applies.
func (k FieldKind) Numeric() bool {
	return k == KindInteger || k == KindDecimal
}

// String returns the kind name.
func (k FieldKind) String() string { return string(k) }

// FieldKinds returns the valid field kind names in stable order.
func FieldKinds() []string { return names(fieldKinds) }

// Operation is the closed set of access pattern operations.
type Operation string

const (
	OpGet        Operation = "get"
	OpPut        Operation = "put"
	OpDelete     Operation = "delete"
	OpQuery      Operation = "query"
	OpScan       Operation = "scan"
	OpUpdate     Operation = "update"
	OpBatchGet   Operation = "batch_get"
	OpBatchWrite Operation = "batch_write"

	// Cross-table transaction operations. Valid only on
	// cross_table_access_patterns, never on per-entity patterns.
	OpTransactWrite Operation = "transact_write"
	OpTransactGet   Operation = "transact_get"
)

var entityOperations = []Operation{
	OpGet, OpPut, OpDelete, OpQuery, OpScan, OpUpdate, OpBatchGet, OpBatchWrite,
}

var transactOperations = []Operation{OpTransactWrite, OpTransactGet}

// ValidForEntity reports whether op may appear on a per-entity access pattern.
func (op Operation) ValidForEntity() bool {
	for _, v := range entityOperations {
		if op == v {
			return true
		}
	}
	return false
}

// ValidForTransaction reports whether op may appear on a cross-table pattern.
func (op Operation) ValidForTransaction() bool {
	return op == OpTransactWrite || op == OpTransactGet
}

// Read reports whether the operation reads rather than writes.
func (op Operation) Read() bool {
	switch op {
	case OpGet, OpQuery, OpScan, OpBatchGet, OpTransactGet:
		return true
	}
	return false
}

// String returns the operation name.
func (op Operation) String() string { return string(op) }

// EntityOperations returns the valid per-entity operation names in stable order.
func EntityOperations() []string { return names(entityOperations) }

// TransactOperations returns the valid cross-table operation names.
func TransactOperations() []string { return names(transactOperations) }

// RangeCondition is the closed set of sort-key comparisons for queries.
type RangeCondition string

const (
	RangePrefix  RangeCondition = "prefix"
	RangeBetween RangeCondition = "between"
	RangeGT      RangeCondition = "gt"
	RangeGTE     RangeCondition = "gte"
	RangeLT      RangeCondition = "lt"
	RangeLTE     RangeCondition = "lte"
)

var rangeConditions = []RangeCondition{
	RangePrefix, RangeBetween, RangeGT, RangeGTE, RangeLT, RangeLTE,
}

// Valid reports whether c is a member of the closed set.
func (c RangeCondition) Valid() bool {
	for _, v := range rangeConditions {
		if c == v {
			return true
		}
	}
	return false
}

// Operands returns the number of range values the condition consumes:
// 2 for between, 1 for everything else.
func (c RangeCondition) Operands() int {
	if c == RangeBetween {
		return 2
	}
	return 1
}

// String returns the condition name.
func (c RangeCondition) String() string { return string(c) }

// RangeConditions returns the valid range condition names in stable order.
func RangeConditions() []string { return names(rangeConditions) }

// Projection is the closed set of secondary index projections.
type Projection string

const (
	ProjectAll      Projection = "all"
	ProjectKeysOnly Projection = "keys_only"
	ProjectInclude  Projection = "include"
)

var projections = []Projection{ProjectAll, ProjectKeysOnly, ProjectInclude}

// Valid reports whether p is a member of the closed set.
func (p Projection) Valid() bool {
	for _, v := range projections {
		if p == v {
			return true
		}
	}
	return false
}

// String returns the projection name.
func (p Projection) String() string { return string(p) }

// Projections returns the valid projection names in stable order.
func Projections() []string { return names(projections) }

// ReturnShape is the closed set of access pattern response shapes.
type ReturnShape string

const (
	ShapeSingle        ReturnShape = "single"
	ShapeList          ReturnShape = "list"
	ShapeBoolean       ReturnShape = "boolean"
	ShapeHeterogeneous ReturnShape = "heterogeneous"
	ShapeNone          ReturnShape = "none"
)

var returnShapes = []ReturnShape{
	ShapeSingle, ShapeList, ShapeBoolean, ShapeHeterogeneous, ShapeNone,
}

// Valid reports whether s is a member of the closed set.
func (s ReturnShape) Valid() bool {
	for _, v := range returnShapes {
		if s == v {
			return true
		}
	}
	return false
}

// String returns the shape name.
func (s ReturnShape) String() string { return string(s) }

// ReturnShapes returns the valid return shape names in stable order.
func ReturnShapes() []string { return names(returnShapes) }

// ParticipantAction is the closed set of cross-table participant actions.
type ParticipantAction string

const (
	ActionPut            ParticipantAction = "put"
	ActionUpdate         ParticipantAction = "update"
	ActionDelete         ParticipantAction = "delete"
	ActionConditionCheck ParticipantAction = "condition_check"
	ActionGet            ParticipantAction = "get"
)

var writeActions = []ParticipantAction{ActionPut, ActionUpdate, ActionDelete, ActionConditionCheck}

// ValidFor reports whether the action is allowed under the given transaction
// operation: writes take put/update/delete/condition_check, gets take get.
func (a ParticipantAction) ValidFor(op Operation) bool {
	if op == OpTransactGet {
		return a == ActionGet
	}
	for _, v := range writeActions {
		if a == v {
			return true
		}
	}
	return false
}

// String returns the action name.
func (a ParticipantAction) String() string { return string(a) }

// ParticipantActions returns the valid action names for the given operation.
func ParticipantActions(op Operation) []string {
	if op == OpTransactGet {
		return []string{string(ActionGet)}
	}
	return names(writeActions)
}

// MaxCompositeKeyParts is the maximum number of attributes a multi-attribute
// index key may be composed of.
const MaxCompositeKeyParts = 4

// MaxTransactionParticipants is the maximum number of participants in a
// cross-table transaction.
const MaxTransactionParticipants = 100

func names[T ~string](vals []T) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = string(v)
	}
	return out
}
