// Package multibind provides set, map and optional aggregate bindings on top
// of go.uber.org/dig using generic type parameters instead of hand-written
// dig.In/dig.Out structs with name and group tags. A module collects
// annotated provider constructors; applying it to a container scans each
// constructor, derives any map key from the annotations attached to it, and
// registers the provider under a rewritten binding key so that dig assembles
// the aggregate itself.
//
// All actual dependency resolution, scoping and lifecycle management stays
// with dig. This package only transforms call sites.
//
// The Module and Scanner types have comprehensive documentation about how
// this works.
package multibind
