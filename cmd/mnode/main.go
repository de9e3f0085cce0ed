package main

import (
	"bufio"
	"bytes"
	"io"
	"os"

	"github.com/cppforlife/go-patch/patch"
	"github.com/geofffranks/simpleyaml"
	"github.com/gonvenience/ytbx"
	"github.com/homeport/dyff/pkg/dyff"
	"github.com/mattn/go-isatty"
	"github.com/starkandwayne/goutils/ansi"

	"github.com/voxelbrain/goptions"

	"github.com/n2a-go/mstore/internal/diagnostics"
	"github.com/n2a-go/mstore/internal/yamlconv"
	mlog "github.com/n2a-go/mstore/log"
	"github.com/n2a-go/mstore/pkg/mnode"
	"github.com/n2a-go/mstore/pkg/schema"
)

// Version holds the current version of the mnode CLI.
var Version = "(development)"

var printfStdOut = func(format string, args ...interface{}) {
	ansi.Fprintf(os.Stdout, format, args...)
}

var getopts = func(o interface{}) {
	if err := goptions.Parse(o); err != nil {
		usage()
	}
}

var exit = func(code int) { os.Exit(code) }

var usage = func() {
	goptions.PrintHelp()
	exit(1)
}

func envFlag(name string) bool {
	v := os.Getenv(name)
	return v != "" && v != "0" && v != "false"
}

type loadOpts struct {
	EnableGoPatch bool               `goptions:"--go-patch, description='Apply a go-patch document before printing'"`
	Patch         string             `goptions:"--patch, description='Path to a go-patch YAML definitions file'"`
	Help          bool               `goptions:"--help, -h"`
	Files         goptions.Remainder `goptions:"description='Schema-2 document to load and print as YAML'"`
}

type saveOpts struct {
	Help  bool               `goptions:"--help, -h"`
	Files goptions.Remainder `goptions:"description='Destination path; YAML is read from stdin'"`
}

type diffOpts struct {
	Help  bool               `goptions:"--help, -h"`
	Files goptions.Remainder `goptions:"description='Two schema-2 documents to compare'"`
}

func main() {
	var options struct {
		Debug   bool   `goptions:"-D, --debug, description='Enable debugging'"`
		Trace   bool   `goptions:"-T, --trace, description='Enable trace mode debugging (very verbose)'"`
		Version bool   `goptions:"-v, --version, description='Display version information'"`
		Color   string `goptions:"--color, description='Control color output (on/off/auto, default: auto)'"`
		Action  goptions.Verbs
		Load    loadOpts `goptions:"load"`
		Save    saveOpts `goptions:"save"`
		Diff    diffOpts `goptions:"diff"`
	}
	getopts(&options)

	if envFlag("DEBUG") || options.Debug {
		mlog.DebugOn = true
	}
	if envFlag("TRACE") || options.Trace {
		mlog.TraceOn = true
		mlog.DebugOn = true
	}

	if options.Load.Help || options.Save.Help || options.Diff.Help {
		usage()
		return
	}

	if options.Version {
		printfStdOut("%s - Version %s\n", os.Args[0], Version)
		exit(0)
		return
	}

	shouldEnableColor := false
	switch options.Color {
	case "on":
		shouldEnableColor = true
	case "off":
		shouldEnableColor = false
	case "auto", "":
		shouldEnableColor = isatty.IsTerminal(os.Stderr.Fd())
	default:
		mlog.PrintfStdErr("Invalid --color option: %s. Must be 'on', 'off', or 'auto'.\n", options.Color)
		exit(1)
		return
	}
	ansi.Color(shouldEnableColor)

	switch options.Action {
	case "load":
		if err := cmdLoad(options.Load); err != nil {
			mlog.PrintfStdErr("%s\n", err.Error())
			exit(2)
			return
		}
	case "save":
		if err := cmdSave(options.Save); err != nil {
			mlog.PrintfStdErr("%s\n", err.Error())
			exit(2)
			return
		}
	case "diff":
		if len(options.Diff.Files) != 2 {
			usage()
			return
		}
		output, differences, err := diffFiles(options.Diff.Files)
		if err != nil {
			mlog.PrintfStdErr("%s\n", err.Error())
			exit(2)
			return
		}
		printfStdOut("%s\n", output)
		if differences {
			exit(1)
		}
	default:
		usage()
		return
	}
	exit(0)
}

// cmdLoad reads a standalone schema-2 document, optionally applying a
// go-patch definitions file to it, and emits the result as YAML.
func cmdLoad(opts loadOpts) error {
	if len(opts.Files) != 1 {
		return ansi.Errorf("@R{load requires exactly one file}")
	}
	sink := diagnostics.LogSink
	doc := mnode.NewStandaloneDocument(opts.Files[0], schema.Default{}, sink)
	doc.Load()

	if opts.EnableGoPatch && opts.Patch != "" {
		if err := applyGoPatchToNode(doc, opts.Patch); err != nil {
			return err
		}
	}

	out, err := yamlconv.Marshal(doc)
	if err != nil {
		return ansi.Errorf("@R{converting document to YAML}: %s", err)
	}
	printfStdOut("%s\n", string(out))
	return nil
}

// cmdSave reads a YAML document from stdin and writes it as a
// standalone schema-2 document at the given path.
func cmdSave(opts saveOpts) error {
	if len(opts.Files) != 1 {
		return ansi.Errorf("@R{save requires exactly one destination path}")
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return ansi.Errorf("@R{reading stdin}: %s", err)
	}

	empty, err := checkYAML(data)
	if err != nil {
		return err
	}

	sink := diagnostics.LogSink
	doc := mnode.NewStandaloneDocument(opts.Files[0], schema.Default{}, sink)
	if empty {
		doc.MarkChanged()
	} else if err := yamlconv.Unmarshal(data, doc); err != nil {
		return err
	}
	doc.Save()
	return nil
}

// checkYAML vets raw YAML bytes before they are handed to yamlconv:
// it reports whether the document is empty, and errors when the root
// is not a hash/map.
func checkYAML(data []byte) (bool, error) {
	y, err := simpleyaml.NewYaml(data)
	if err != nil {
		return false, err
	}

	if empty_y, _ := simpleyaml.NewYaml([]byte{}); *y == *empty_y {
		mlog.DEBUG("YAML doc is empty, creating empty document")
		return true, nil
	}

	if _, err := y.Map(); err != nil {
		return false, ansi.Errorf("@R{Root of YAML document is not a hash/map}: %s", err.Error())
	}
	return false, nil
}

func applyGoPatchToNode(node mnode.Node, patchPath string) error {
	data, err := os.ReadFile(patchPath)
	if err != nil {
		return ansi.Errorf("@R{reading go-patch file}: %s", err)
	}
	ops, err := parseGoPatch(data)
	if err != nil {
		return err
	}

	raw, err := yamlconv.Marshal(node)
	if err != nil {
		return err
	}
	var decoded interface{}
	if err := yamlconv.UnmarshalValue(raw, &decoded); err != nil {
		return ansi.Errorf("@R{re-decoding document for patching}: %s", err)
	}
	applied, err := ops.Apply(decoded)
	if err != nil {
		return ansi.Errorf("@R{applying go-patch ops}: %s", err)
	}
	encoded, err := yamlconv.MarshalValue(applied)
	if err != nil {
		return err
	}
	return yamlconv.Unmarshal(encoded, node)
}

func parseGoPatch(data []byte) (patch.Ops, error) {
	var opdefs []patch.OpDefinition
	if err := yamlconv.UnmarshalValue(data, &opdefs); err != nil {
		return nil, ansi.Errorf("@R{go-patch document is not a valid op list}: %s", err)
	}
	ops, err := patch.NewOpsFromDefinitions(opdefs)
	if err != nil {
		return nil, ansi.Errorf("@R{unable to parse go-patch definitions}: %s", err)
	}
	return ops, nil
}

// schemaFileAsYAML loads path as a standalone schema-2 document and
// writes it out as a YAML temp file, so ytbx/dyff (which only speak
// YAML/JSON) can diff two mnode documents.
func schemaFileAsYAML(path string) (string, error) {
	doc := mnode.NewStandaloneDocument(path, schema.Default{}, diagnostics.LogSink)
	doc.Load()

	out, err := yamlconv.Marshal(doc)
	if err != nil {
		return "", ansi.Errorf("@R{converting %s to YAML}: %s", path, err)
	}

	tmp, err := os.CreateTemp("", "mnode-diff-*.yml")
	if err != nil {
		return "", ansi.Errorf("@R{creating temp file for %s}: %s", path, err)
	}
	defer tmp.Close()
	if _, err := tmp.Write(out); err != nil {
		return "", ansi.Errorf("@R{writing temp file for %s}: %s", path, err)
	}
	return tmp.Name(), nil
}

func diffFiles(paths []string) (string, bool, error) {
	if len(paths) != 2 {
		return "", false, ansi.Errorf("incorrect number of files given to diffFiles()")
	}

	leftYAML, err := schemaFileAsYAML(paths[0])
	if err != nil {
		return "", false, err
	}
	defer os.Remove(leftYAML)
	rightYAML, err := schemaFileAsYAML(paths[1])
	if err != nil {
		return "", false, err
	}
	defer os.Remove(rightYAML)

	from, to, err := ytbx.LoadFiles(leftYAML, rightYAML)
	if err != nil {
		return "", false, err
	}

	report, err := dyff.CompareInputFiles(from, to)
	if err != nil {
		return "", false, err
	}

	reportWriter := &dyff.HumanReport{
		Report:            report,
		DoNotInspectCerts: false,
		NoTableStyle:      false,
		OmitHeader:        true,
	}

	var buf bytes.Buffer
	out := bufio.NewWriter(&buf)
	reportWriter.WriteReport(out)
	out.Flush()

	return buf.String(), len(report.Diffs) > 0, nil
}
