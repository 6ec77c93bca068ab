// Package geometry implements the solid shapes used for point containment
// and line crossing queries. Every solid works in its own local frame:
// callers transform points and directions before querying.
//
// A query on a line p + t*v reports the parameters t ("ticks") at which
// the line crosses the solid's boundary, in ascending order. Each solid
// caches a bounding sphere radius and a bounding cylinder radius so that
// the cheap rejection tests can run before the exact computation.
package geometry
