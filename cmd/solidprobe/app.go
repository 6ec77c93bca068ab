package main

import (
	"time"

	"github.com/chazu/solidprobe/pkg/catalog"
	"github.com/chazu/solidprobe/pkg/engine"
	"github.com/chazu/solidprobe/pkg/kernel"
	"github.com/chazu/solidprobe/pkg/kernel/sdfx"
	"github.com/chazu/solidprobe/pkg/tessellate"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// colorPalette is a default palette used to assign distinct colors to entries.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// coverColor marks cover meshes.
const coverColor = "#95A5A6"

// App runs scripts through the engine and the meshing pipeline.
type App struct {
	engine *engine.Engine
	kernel kernel.Kernel
	log    *logrus.Logger
}

// MeshData is the JSON-serializable mesh format written by the mesh command.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	PartName string    `json:"partName"`
	EntryID  string    `json:"entryId"`
	Type     string    `json:"type"`
	Cover    bool      `json:"cover"`
	Color    string    `json:"color"`
}

// EvalErrorData is a JSON-serializable eval error or warning.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EntryData describes one placed solid.
type EntryData struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Type   string  `json:"type"`
	At     v3.Vec  `json:"at"`
	RMax   float64 `json:"rmax"`
	RhoMax float64 `json:"rhomax"`
}

// Report is the result of evaluating a script.
type Report struct {
	Entries  []EntryData     `json:"entries"`
	Probes   []catalog.Probe `json:"probes"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`
}

// MeshResult is the result of meshing a script.
type MeshResult struct {
	Meshes   []MeshData      `json:"meshes"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`
}

// NewApp creates a new App with an engine bounded by timeout and an sdfx
// kernel meshing at the given resolution.
func NewApp(log *logrus.Logger, meshCells int, timeout time.Duration) *App {
	return &App{
		engine: engine.NewEngine(engine.WithLogger(log), engine.WithTimeout(timeout)),
		kernel: sdfx.NewWithCells(meshCells),
		log:    log,
	}
}

// run evaluates and validates source. It returns a nil catalog when the
// script failed; the failure is then described by the returned errors.
func (a *App) run(source string) (*catalog.Catalog, []EvalErrorData, []EvalErrorData) {
	errs := []EvalErrorData{}
	warnings := []EvalErrorData{}

	res, err := a.engine.EvaluateAll(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		a.log.WithError(err).Error("evaluate failed")
		return nil, append(errs, EvalErrorData{Message: err.Error()}), warnings
	}

	for _, e := range res.Errors {
		errs = append(errs, EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
	}
	for _, w := range res.Warnings {
		a.log.WithField("entry", w.EntryID.String()).Warn(w.Message)
		warnings = append(warnings, EvalErrorData{Message: w.Message})
	}
	if res.Catalog == nil || len(errs) > 0 {
		return nil, errs, warnings
	}
	return res.Catalog, errs, warnings
}

// Evaluate runs source and reports the placed solids and probe results.
func (a *App) Evaluate(source string) Report {
	report := Report{Entries: []EntryData{}, Probes: []catalog.Probe{}}

	c, errs, warnings := a.run(source)
	report.Errors, report.Warnings = errs, warnings
	if c == nil {
		return report
	}

	report.Entries = lo.Map(c.Entries(), func(e *catalog.Entry, _ int) EntryData {
		return EntryData{
			ID:     e.ID.String(),
			Name:   e.Name,
			Type:   e.Solid.TypeName(),
			At:     e.At,
			RMax:   e.Solid.RMax(),
			RhoMax: e.Solid.RhoMax(),
		}
	})
	report.Probes = append(report.Probes, c.Probes()...)

	a.log.WithFields(logrus.Fields{
		"entries": len(report.Entries),
		"probes":  len(report.Probes),
	}).Info("evaluated script")
	return report
}

// Mesh runs source and tessellates every placed solid, and with covers
// set also the outermost cover of each.
func (a *App) Mesh(source string, covers bool) MeshResult {
	result := MeshResult{Meshes: []MeshData{}}

	c, errs, warnings := a.run(source)
	result.Errors, result.Warnings = errs, warnings
	if c == nil {
		return result
	}

	meshes, err := tessellate.Tessellate(c, a.kernel)
	if err != nil {
		a.log.WithError(err).Error("tessellate failed")
		result.Errors = append(result.Errors, EvalErrorData{Message: "tessellation failed: " + err.Error()})
		return result
	}
	for i, m := range meshes {
		result.Meshes = append(result.Meshes, meshData(m, colorPalette[i%len(colorPalette)]))
	}

	if covers {
		coverMeshes, err := tessellate.Covers(c, a.kernel)
		if err != nil {
			a.log.WithError(err).Error("tessellate covers failed")
			result.Errors = append(result.Errors, EvalErrorData{Message: "cover tessellation failed: " + err.Error()})
			return result
		}
		for _, m := range coverMeshes {
			result.Meshes = append(result.Meshes, meshData(m, coverColor))
		}
	}

	a.log.WithField("meshes", len(result.Meshes)).Info("meshed script")
	return result
}

func meshData(m *kernel.Mesh, color string) MeshData {
	return MeshData{
		Vertices: m.Vertices,
		Normals:  m.Normals,
		Indices:  m.Indices,
		PartName: m.PartName,
		EntryID:  m.EntryID,
		Type:     m.SolidType,
		Cover:    m.Cover,
		Color:    color,
	}
}
