// Package catalog holds placed solids. Each entry puts a geometry solid at
// a translation in a shared world frame and indexes its bounding box in an
// R-tree so point and line queries only reach solids they can touch.
package catalog
