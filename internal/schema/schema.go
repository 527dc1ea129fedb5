package schema

// Schema represents the complete GraphQL schema
type Schema struct {
	QueryType        string
	MutationType     string
	SubscriptionType string
	Types            map[string]*Type // All named types keyed by name
	Directives       map[string]*Directive
	Description      string
}

// GetQueryType returns the root query type (may be nil if absent)
func (s *Schema) GetQueryType() *Type { return s.Types[s.QueryType] }

// GetMutationType returns the root mutation type (may be nil if absent)
func (s *Schema) GetMutationType() *Type { return s.Types[s.MutationType] }

// GetSubscriptionType returns the root subscription type (may be nil if absent)
func (s *Schema) GetSubscriptionType() *Type { return s.Types[s.SubscriptionType] }

// Type is a named GraphQL type (object, interface, union, scalar, enum, input)
type Type struct {
	Name           string
	Kind           TypeKind
	Description    string
	Fields         []*Field      // For OBJECT and INTERFACE
	Interfaces     []string      // For OBJECT and INTERFACE (implemented/extended)
	PossibleTypes  []string      // For INTERFACE and UNION
	EnumValues     []*EnumValue  // For ENUM
	InputFields    []*InputValue // For INPUT_OBJECT
	SpecifiedByURL *string
	OneOf          bool
}

// Field represents a field on an object or interface
type Field struct {
	Name              string
	Description       string
	Type              *TypeRef
	Arguments         []*InputValue // formerly ArgumentDefinitionMap
	IsDeprecated      bool
	DeprecationReason string
}

// TypeKind represents the kind of GraphQL type
type TypeKind string

const (
	TypeKindScalar      TypeKind = "SCALAR"
	TypeKindObject      TypeKind = "OBJECT"
	TypeKindInterface   TypeKind = "INTERFACE"
	TypeKindUnion       TypeKind = "UNION"
	TypeKindEnum        TypeKind = "ENUM"
	TypeKindInputObject TypeKind = "INPUT_OBJECT"
)

// TypeRef represents a reference to a type (can be wrapped)
type TypeRef struct {
	Kind   TypeRefKind
	OfType *TypeRef // For List and NonNull
	Named  string   // For named types
}

type TypeRefKind string

const (
	TypeRefKindNamed   TypeRefKind = "NAMED"
	TypeRefKindList    TypeRefKind = "LIST"
	TypeRefKindNonNull TypeRefKind = "NON_NULL"
)

// Helper functions for TypeRef
func (t *TypeRef) IsNonNull() bool {
	return t != nil && t.Kind == TypeRefKindNonNull
}

func (t *TypeRef) IsList() bool {
	if t.Kind == TypeRefKindList {
		return true
	}
	if t.Kind == TypeRefKindNonNull && t.OfType != nil {
		return t.OfType.Kind == TypeRefKindList
	}
	return false
}

func (t *TypeRef) Unwrap() *TypeRef {
	if t.Kind == TypeRefKindNonNull || t.Kind == TypeRefKindList {
		return t.OfType
	}
	return t
}

func (t *TypeRef) GetNamedType() string {
	current := t
	for current != nil {
		if current.Named != "" {
			return current.Named
		}
		current = current.OfType
	}
	return ""
}

type EnumValue struct {
	Name              string
	Description       string
	IsDeprecated      bool
	DeprecationReason string
}

type InputValue struct {
	Name              string
	Description       string
	Type              *TypeRef
	DefaultValue      any
	IsDeprecated      bool
	DeprecationReason string
}

type Directive struct {
	Name         string
	Description  string
	Locations    []string
	Arguments    []*InputValue // formerly ArgumentDefinitionMap
	IsRepeatable bool
}

func NonNullType(t *TypeRef) *TypeRef { return &TypeRef{Kind: TypeRefKindNonNull, OfType: t} }
func ListType(t *TypeRef) *TypeRef    { return &TypeRef{Kind: TypeRefKindList, OfType: t} }
func NamedType(name string) *TypeRef  { return &TypeRef{Kind: TypeRefKindNamed, Named: name} }

// IsNonNull reports whether the type is wrapped with Non-Null.
func IsNonNull(t *TypeRef) bool { return t != nil && t.IsNonNull() }

// IsList reports whether the type is (or is wrapped by) a list type.
func IsList(t *TypeRef) bool { return t != nil && t.IsList() }

// Unwrap removes one layer of Non-Null or List wrapping and returns the inner type.
func Unwrap(t *TypeRef) *TypeRef { return t.Unwrap() }

// GetNamedType returns the innermost named type for the given reference.
func GetNamedType(t *TypeRef) string { return t.GetNamedType() }

// NewSchema returns an empty schema with its builtin scalars and directives
// registered.
func NewSchema() *Schema {
	s := &Schema{
		Types:      make(map[string]*Type),
		Directives: make(map[string]*Directive),
	}
	for _, t := range builtinScalars {
		s.Types[t.Name] = t
	}
	for _, d := range builtinDirectives {
		s.Directives[d.Name] = d
	}
	return s
}

// AddType registers t under its own name, overwriting any existing
// registration.
func (s *Schema) AddType(t *Type) *Type {
	s.Types[t.Name] = t
	return t
}

// SetQueryType designates name as the query root. The type must already be
// registered with AddType.
func (s *Schema) SetQueryType(name string) { s.QueryType = name }

// SetMutationType designates name as the mutation root.
func (s *Schema) SetMutationType(name string) { s.MutationType = name }

// SetSubscriptionType designates name as the subscription root.
func (s *Schema) SetSubscriptionType(name string) { s.SubscriptionType = name }

// NewType builds a named type of the given kind with no fields yet.
func NewType(name string, kind TypeKind) *Type {
	return &Type{Name: name, Kind: kind}
}

// NewField builds a field named name of type t with no arguments.
func NewField(name string, t *TypeRef) *Field {
	return &Field{Name: name, Type: t}
}

// AddField appends f to t's field list and returns f.
func (t *Type) AddField(f *Field) *Field {
	t.Fields = append(t.Fields, f)
	return f
}

// NewInputValue builds an argument or input field named name of type t.
func NewInputValue(name string, t *TypeRef) *InputValue {
	return &InputValue{Name: name, Type: t}
}

// AddArgument appends arg to f's argument list and returns arg.
func (f *Field) AddArgument(arg *InputValue) *InputValue {
	f.Arguments = append(f.Arguments, arg)
	return arg
}

// AddInputField appends f to t's input field list and returns f. It panics
// if t is not an INPUT_OBJECT type.
func (t *Type) AddInputField(f *InputValue) *InputValue {
	if t.Kind != TypeKindInputObject {
		panic("schema: AddInputField on non-input type " + t.Name)
	}
	t.InputFields = append(t.InputFields, f)
	return f
}

// AddEnumValue appends v to t's enum value list and returns v. It panics if
// t is not an ENUM type.
func (t *Type) AddEnumValue(v *EnumValue) *EnumValue {
	if t.Kind != TypeKindEnum {
		panic("schema: AddEnumValue on non-enum type " + t.Name)
	}
	t.EnumValues = append(t.EnumValues, v)
	return v
}

// AddPossibleType records name as an object type implementing or belonging
// to t (an INTERFACE or UNION).
func (t *Type) AddPossibleType(name string) {
	t.PossibleTypes = append(t.PossibleTypes, name)
}

// Implements records that t (an OBJECT) implements the named interface.
func (t *Type) Implements(interfaceName string) {
	t.Interfaces = append(t.Interfaces, interfaceName)
}
