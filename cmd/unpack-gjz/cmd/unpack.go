package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/spf13/cobra"

	"github.com/granular-oss/geostream"
)

const gjzExt = ".gjz"

// runUnpack expands the input globs and converts each readable .gjz file to
// a GeoJSON document. Unreadable or wrong-extension inputs are skipped with
// a message; invalid selection syntax or an unusable output path aborts the
// whole run.
func runUnpack(cmd *cobra.Command, args []string, opts *options) error {
	out, singleFile, err := resolveOutput(opts.out, args)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
		return err
	}

	var selection map[string]interface{}
	if opts.selectJSON != "" {
		if err := json.Unmarshal([]byte(opts.selectJSON), &selection); err != nil {
			err = fmt.Errorf("invalid select text, must be a valid JSON object: %s: %v", opts.selectJSON, err)
			fmt.Fprintln(cmd.ErrOrStderr(), err)
			return err
		}
	}

	for _, input := range expandInputs(args) {
		info, statErr := os.Stat(input)
		if statErr != nil || info.IsDir() {
			fmt.Fprintf(cmd.OutOrStdout(), "Skipped: %s, which is not a file or does not exist\n", input)
			continue
		}
		if filepath.Ext(input) != gjzExt {
			fmt.Fprintf(cmd.OutOrStdout(), "Skipped: %s, which does not have the name extension: %s\n", input, gjzExt)
			continue
		}

		output := outputPath(input, out, singleFile)
		if opts.verbose {
			fmt.Fprintf(cmd.OutOrStdout(), "Unpacking: %s into: %s\n", input, output)
		}

		if err := unpackFile(cmd, input, output, selection, opts); err != nil {
			return err
		}
	}
	return nil
}

func unpackFile(cmd *cobra.Command, input, output string, selection map[string]interface{}, opts *options) error {
	f, err := os.Open(input)
	if err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "...failed to open %s, error: %v\n", input, err)
		return nil
	}
	defer f.Close()

	reader, err := geostream.NewReader(f, &geostream.ReaderOptions{Reverse: opts.reverse})
	if err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "...failed to open %s, error: %v\n", input, err)
		return nil
	}

	collection := &geostream.FeatureCollection{
		Properties: reader.Attributes(),
		SRID:       reader.SRID(),
	}
	for reader.Next() {
		feature := reader.Feature()
		if selected(feature, selection) {
			collection.Features = append(collection.Features, feature)
		}
	}
	if err := reader.Err(); err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "...failed to read %s, error: %v\n", input, err)
		return nil
	}

	var doc []byte
	if opts.pretty {
		doc, err = json.MarshalIndent(collection, "", "    ")
	} else {
		doc, err = json.Marshal(collection)
	}
	if err != nil {
		return err
	}

	if err := os.WriteFile(output, doc, 0o644); err != nil {
		err = fmt.Errorf("bad out directory path, failed to open: %s, error: %v", output, err)
		fmt.Fprintln(cmd.ErrOrStderr(), err)
		return err
	}

	if opts.verbose {
		filtered := "selected all"
		if len(selection) > 0 {
			filtered = fmt.Sprintf("selected by: %v", selection)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "...unpacked %d Features, %s\n", len(collection.Features), filtered)
	}
	return nil
}

// resolveOutput interprets --out: a .json path means one named output file,
// valid only for a single input; anything else is an output directory,
// created if missing.
func resolveOutput(out string, inputs []string) (string, bool, error) {
	if out == "" {
		return "", false, nil
	}
	if strings.EqualFold(filepath.Ext(out), ".json") {
		if len(inputs) == 1 {
			if info, err := os.Stat(inputs[0]); err == nil && !info.IsDir() {
				return out, true, nil
			}
		}
		return "", false, fmt.Errorf("output path must be a directory for multiple input files, not: %s", out)
	}

	info, err := os.Stat(out)
	switch {
	case os.IsNotExist(err):
		if err := os.MkdirAll(out, 0o755); err != nil {
			return "", false, fmt.Errorf("un-writeable output path: %s, error: %v", out, err)
		}
	case err != nil:
		return "", false, err
	case !info.IsDir():
		return "", false, fmt.Errorf("existing output path must be a directory: %s", out)
	}
	return out, false, nil
}

// expandInputs glob-expands every argument, keeping literal arguments that
// match nothing so they are reported as skipped.
func expandInputs(args []string) []string {
	var inputs []string
	for _, arg := range args {
		matches, err := filepath.Glob(arg)
		if err != nil || len(matches) == 0 {
			inputs = append(inputs, arg)
			continue
		}
		inputs = append(inputs, matches...)
	}
	return inputs
}

func outputPath(input, out string, singleFile bool) string {
	if singleFile {
		return out
	}
	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	if out != "" {
		return filepath.Join(out, stem+".json")
	}
	return filepath.Join(filepath.Dir(input), stem+".json")
}

// selected reports whether every selection entry matches a feature property
// exactly. Numbers compare by value so a JSON selection matches properties
// decoded from either schema generation.
func selected(f *geostream.Feature, selection map[string]interface{}) bool {
	for key, want := range selection {
		got, ok := f.Properties[key]
		if !ok || !valueEqual(want, got) {
			return false
		}
	}
	return true
}

func valueEqual(a, b interface{}) bool {
	if af, aok := asFloat(a); aok {
		bf, bok := asFloat(b)
		return bok && af == bf
	}
	return reflect.DeepEqual(a, b)
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
