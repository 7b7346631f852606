package main

import (
	"io"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/viewmap/internal/pipeline"
	"github.com/Faultbox/viewmap/internal/viewmap"
)

// Summary is the YAML document printed for a build.
type Summary struct {
	Scene     string        `yaml:"scene"`
	Stage     string        `yaml:"stage"`
	Canceled  bool          `yaml:"canceled,omitempty"`
	Warnings  []string      `yaml:"warnings,omitempty"`
	Stats     viewmap.Stats `yaml:"stats"`
	ViewEdges []EdgeSummary `yaml:"view_edges"`
}

// EdgeSummary describes one ViewEdge.
type EdgeSummary struct {
	ID        int      `yaml:"id"`
	Shape     string   `yaml:"shape"`
	Nature    string   `yaml:"nature"`
	QI        int      `yaml:"qi"`
	Occluders []string `yaml:"occluders,flow,omitempty"`
	Occludee  string   `yaml:"occludee,omitempty"`
	FEdges    int      `yaml:"fedges"`
	Length2D  float64  `yaml:"length_2d"`
	Closed    bool     `yaml:"closed,omitempty"`
	From      string   `yaml:"from,omitempty"`
	To        string   `yaml:"to,omitempty"`
}

func summarize(scenePath string, res *pipeline.Result) Summary {
	vm := res.ViewMap
	s := Summary{
		Scene:    scenePath,
		Stage:    res.Stage,
		Canceled: res.Canceled,
		Stats:    vm.Stats(),
	}
	for _, w := range multierr.Errors(res.Warnings) {
		s.Warnings = append(s.Warnings, w.Error())
	}
	for _, ve := range vm.ViewEdges {
		e := EdgeSummary{
			ID:       ve.ID,
			Shape:    shapeName(ve.Shape),
			Nature:   ve.Nature.String(),
			QI:       ve.QI,
			FEdges:   len(ve.FEdges()),
			Length2D: ve.Length2D(),
			Closed:   ve.Closed(),
		}
		for _, o := range ve.Occluders {
			e.Occluders = append(e.Occluders, shapeName(o))
		}
		if ve.Occludee != nil {
			e.Occludee = shapeName(ve.Occludee)
		}
		if ve.A != nil {
			e.From = ve.A.Nature().String()
		}
		if ve.B != nil {
			e.To = ve.B.Nature().String()
		}
		s.ViewEdges = append(s.ViewEdges, e)
	}
	return s
}

func shapeName(vs *viewmap.ViewShape) string {
	if vs == nil {
		return ""
	}
	return vs.Name
}

func writeSummary(w io.Writer, s Summary) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return err
	}
	return enc.Close()
}
