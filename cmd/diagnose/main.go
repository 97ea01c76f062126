// Command diagnose prints the object tree of a fast5 container.
package main

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/robert-malhotra/go-fast5/fast5"
	"github.com/robert-malhotra/go-fast5/internal/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		format   string
		maxDepth int
	)
	cmd := &cobra.Command{
		Use:          "diagnose <file.fast5>",
		Short:        "Print the groups, datasets and attributes of a fast5 file",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := store.Open(args[0], store.ReadOnly)
			if err != nil {
				return err
			}
			defer f.Close()

			rep := report{File: args[0], Stats: f.Stats()}
			if ft, err := fast5.DetectType(args[0]); err == nil {
				rep.Type = string(ft)
			} else {
				rep.Type = "unknown: " + err.Error()
			}
			rep.Root = describe(f.Root(), maxDepth)

			out := cmd.OutOrStdout()
			switch format {
			case "yaml":
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(rep); err != nil {
					return err
				}
				return enc.Close()
			case "text":
				printText(out, rep)
				return nil
			}
			return fmt.Errorf("unknown format %q, expected text or yaml", format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text or yaml")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 20, "deepest group level to descend into")
	return cmd
}

type report struct {
	File  string      `yaml:"file"`
	Type  string      `yaml:"type"`
	Stats store.Stats `yaml:"-"`
	Root  *node       `yaml:"root"`
}

type node struct {
	Path      string         `yaml:"path"`
	Kind      string         `yaml:"kind"`
	Shape     []uint64       `yaml:"shape,omitempty"`
	Datatype  string         `yaml:"datatype,omitempty"`
	Filters   []string       `yaml:"filters,omitempty"`
	Attrs     map[string]any `yaml:"attrs,omitempty"`
	Members   []*node        `yaml:"members,omitempty"`
	Truncated bool           `yaml:"truncated,omitempty"`
	Error     string         `yaml:"error,omitempty"`
}

func describe(g *store.Group, maxDepth int) *node {
	return describeGroup(g, 0, maxDepth)
}

func describeGroup(g *store.Group, depth, maxDepth int) *node {
	n := &node{Path: g.Path(), Kind: "group", Attrs: attrs(g)}
	if depth >= maxDepth {
		n.Truncated = true
		return n
	}
	members, err := g.Members()
	if err != nil {
		n.Error = err.Error()
		return n
	}
	for _, name := range members {
		obj, err := g.Object(name)
		if err != nil {
			n.Members = append(n.Members, &node{Path: name, Error: err.Error()})
			continue
		}
		switch o := obj.(type) {
		case *store.Group:
			n.Members = append(n.Members, describeGroup(o, depth+1, maxDepth))
		case *store.Dataset:
			d := &node{
				Path:     o.Path(),
				Kind:     "dataset",
				Shape:    o.Shape(),
				Datatype: o.Type().String(),
				Attrs:    attrs(o),
			}
			for _, fi := range o.Filters() {
				d.Filters = append(d.Filters, fi.String())
			}
			n.Members = append(n.Members, d)
		}
	}
	return n
}

type attributed interface {
	Attrs() []string
	AttrValue(name string) (any, error)
}

func attrs(obj attributed) map[string]any {
	names := obj.Attrs()
	if len(names) == 0 {
		return nil
	}
	out := make(map[string]any, len(names))
	for _, name := range names {
		v, err := obj.AttrValue(name)
		if err != nil {
			out[name] = "<" + err.Error() + ">"
			continue
		}
		out[name] = printable(v)
	}
	return out
}

func printable(v any) any {
	switch v := v.(type) {
	case []byte:
		return string(v)
	case string, bool, int8, int16, int32, int64, uint8, uint16, uint32, uint64, float32, float64:
		return v
	}
	return fmt.Sprint(v)
}

func printText(w io.Writer, rep report) {
	fmt.Fprintf(w, "=== %s (%s) ===\n", rep.File, rep.Type)
	fmt.Fprintf(w, "objects: %d, datasets: %d, chunks: %d, eof: %d\n\n",
		rep.Stats.Objects, rep.Stats.Datasets, rep.Stats.Chunks, rep.Stats.EOF)
	printNode(w, rep.Root, "")
}

func printNode(w io.Writer, n *node, indent string) {
	switch {
	case n.Error != "":
		fmt.Fprintf(w, "%s%q: ERROR %s\n", indent, n.Path, n.Error)
		return
	case n.Kind == "dataset":
		fmt.Fprintf(w, "%sDataset %q: shape %v, %s", indent, n.Path, n.Shape, n.Datatype)
		if len(n.Filters) > 0 {
			fmt.Fprintf(w, ", filters %v", n.Filters)
		}
		fmt.Fprintln(w)
	default:
		fmt.Fprintf(w, "%sGroup %q: %d members\n", indent, n.Path, len(n.Members))
	}
	keys := make([]string, 0, len(n.Attrs))
	for k := range n.Attrs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s  @%s = %v\n", indent, k, n.Attrs[k])
	}
	if n.Truncated {
		fmt.Fprintf(w, "%s  [MAX DEPTH REACHED]\n", indent)
	}
	for _, m := range n.Members {
		printNode(w, m, indent+"  ")
	}
}
