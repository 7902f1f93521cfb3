// Package types provides the reflected model shared by every phpdoc-mcp
// component.
//
// A File owns the structural elements declared in one PHP source: classes,
// interfaces and traits with their constants, properties and methods, plus
// top-level functions, constants and includes. Every element implements
// StructuralElement and is addressed by its FQSEN:
//
//	\App\Models\User            class-like
//	\App\Models\User::save()    method
//	\App\Models\User::$name     property
//	\App\Models\User::STATUS    class constant
//	\App\helpers\format()       function
//
// Problems found while reflecting are kept as Diagnostics on the file (parse
// errors) or on the element (docblock validation), ranked by Severity.
package types
