package model

// RoutineParameter is a single routine argument.
type RoutineParameter struct {
	Name string
	Type string
	Mode string
}

// Routine is a stored procedure or function.
type Routine struct {
	Name               string
	Type               string
	ReturnType         string
	DefinitionLanguage string
	Definition         string
	Deterministic      bool
	DataAccess         string
	SecurityType       string
	Comment            string
	Parameters         []RoutineParameter
}

// Sequence is a database sequence.
type Sequence struct {
	Name       string
	StartValue int64
	Increment  int64
}

// Type is a user defined type.
type Type struct {
	TypeOfType  string
	Catalog     string
	Schema      string
	Name        string
	Description string
	Definition  string
}

// Trigger is a table trigger.
type Trigger struct {
	Name       string
	Table      string
	Event      string
	Timing     string
	Definition string
}
