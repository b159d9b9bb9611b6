package report

// Code identifies one kind of description-processing failure. The numeric
// values are stable: they appear in rendered diagnostics ("Error E23: ...")
// and tooling is allowed to match on them.
type Code int

const (
	SyntaxError Code = iota
	UsingFileNotFound
	RecurringUsing
	EmptyEntry
	TypeNotSpecifiedInFirstVariableUse
	VariableAlreadyDeclared
	TypeNotResolved
	AliasWithoutRegistration
	AliasWithNoneRegistration
	MissingReference
	NoUsableRegisterInterface
	AmbiguousRegistrationPointType
	AmbiguousRegistree
	NoCtorForRegistrationPoint
	AmbiguousCtorForRegistrationPoint
	CtorAttributesInNonCreatingEntry
	PropertyDoesNotExist
	PropertyNotWritable
	TypeMismatch
	EnumMismatch
	PropertyOrCtorNameUsedMoreThanOnce
	MoreThanOneInitAttribute
	InitSectionValidationError
	CreationOrderCycle
	RegistrationOrderCycle
	IrqDestinationDoesNotExist
	NotLocalGpioReceiver
	IrqSourceDoesNotExist
	AmbiguousDefaultIrqSource
	IrqSourceIsNotNumberedGpioOutput
	IrqDestinationIsNotIrqReceiver
	WrongIrqArity
	IrqSourceUsedMoreThanOnce
	IrqDestinationUsedMoreThanOnce
	UninitializedSourceIrqObject
	IrqSourcePinDoesNotExist
	ConstructionException
	PropertySettingException
	RegistrationException
	CastException
	NameSettingException
	InternalError
	NoCtor
	AmbiguousCtor
)

var codeNames = map[Code]string{
	SyntaxError:                        "SyntaxError",
	UsingFileNotFound:                  "UsingFileNotFound",
	RecurringUsing:                     "RecurringUsing",
	EmptyEntry:                         "EmptyEntry",
	TypeNotSpecifiedInFirstVariableUse: "TypeNotSpecifiedInFirstVariableUse",
	VariableAlreadyDeclared:            "VariableAlreadyDeclared",
	TypeNotResolved:                    "TypeNotResolved",
	AliasWithoutRegistration:           "AliasWithoutRegistration",
	AliasWithNoneRegistration:          "AliasWithNoneRegistration",
	MissingReference:                   "MissingReference",
	NoUsableRegisterInterface:          "NoUsableRegisterInterface",
	AmbiguousRegistrationPointType:     "AmbiguousRegistrationPointType",
	AmbiguousRegistree:                 "AmbiguousRegistree",
	NoCtorForRegistrationPoint:         "NoCtorForRegistrationPoint",
	AmbiguousCtorForRegistrationPoint:  "AmbiguousCtorForRegistrationPoint",
	CtorAttributesInNonCreatingEntry:   "CtorAttributesInNonCreatingEntry",
	PropertyDoesNotExist:               "PropertyDoesNotExist",
	PropertyNotWritable:                "PropertyNotWritable",
	TypeMismatch:                       "TypeMismatch",
	EnumMismatch:                       "EnumMismatch",
	PropertyOrCtorNameUsedMoreThanOnce: "PropertyOrCtorNameUsedMoreThanOnce",
	MoreThanOneInitAttribute:           "MoreThanOneInitAttribute",
	InitSectionValidationError:         "InitSectionValidationError",
	CreationOrderCycle:                 "CreationOrderCycle",
	RegistrationOrderCycle:             "RegistrationOrderCycle",
	IrqDestinationDoesNotExist:         "IrqDestinationDoesNotExist",
	NotLocalGpioReceiver:               "NotLocalGpioReceiver",
	IrqSourceDoesNotExist:              "IrqSourceDoesNotExist",
	AmbiguousDefaultIrqSource:          "AmbiguousDefaultIrqSource",
	IrqSourceIsNotNumberedGpioOutput:   "IrqSourceIsNotNumberedGpioOutput",
	IrqDestinationIsNotIrqReceiver:     "IrqDestinationIsNotIrqReceiver",
	WrongIrqArity:                      "WrongIrqArity",
	IrqSourceUsedMoreThanOnce:          "IrqSourceUsedMoreThanOnce",
	IrqDestinationUsedMoreThanOnce:     "IrqDestinationUsedMoreThanOnce",
	UninitializedSourceIrqObject:       "UninitializedSourceIrqObject",
	IrqSourcePinDoesNotExist:           "IrqSourcePinDoesNotExist",
	ConstructionException:              "ConstructionException",
	PropertySettingException:           "PropertySettingException",
	RegistrationException:              "RegistrationException",
	CastException:                      "CastException",
	NameSettingException:               "NameSettingException",
	InternalError:                      "InternalError",
	NoCtor:                             "NoCtor",
	AmbiguousCtor:                      "AmbiguousCtor",
}

// String returns the symbolic name of the code.
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "UnknownError"
}
