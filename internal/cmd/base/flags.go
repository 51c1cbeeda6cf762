package base

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// FlagSet wraps flag.FlagSet with help text suited for cli.Command.Help.
type FlagSet struct {
	*flag.FlagSet
}

// NewFlagSet silences the standard usage output; commands report parse
// errors through their UI instead.
func NewFlagSet(f *flag.FlagSet) *FlagSet {
	f.SetOutput(io.Discard)
	return &FlagSet{FlagSet: f}
}

// Help lists the flags with their usage and defaults.
func (f *FlagSet) Help() string {
	var buf bytes.Buffer
	buf.WriteString("\n\nOptions:\n")
	f.VisitAll(func(fl *flag.Flag) {
		fmt.Fprintf(&buf, "\n  -%s", fl.Name)
		if fl.DefValue != "" && fl.DefValue != "false" {
			fmt.Fprintf(&buf, "=%s", fl.DefValue)
		}
		fmt.Fprintf(&buf, "\n      %s\n", fl.Usage)
	})
	return strings.TrimRight(buf.String(), "\n")
}

// JSONFlag is a flag.Value that accepts a JSON document and keeps the
// decoded value. Numbers stay json.Number so large integers survive.
type JSONFlag struct {
	Value any
	raw   string
}

func (j *JSONFlag) String() string { return j.raw }

func (j *JSONFlag) Set(s string) error {
	var v any
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if dec.More() {
		return fmt.Errorf("invalid JSON: trailing data")
	}
	j.raw, j.Value = s, v
	return nil
}

// IsSet reports whether the flag was given.
func (j *JSONFlag) IsSet() bool { return j.raw != "" }

// OptionalBool is a flag.Value for a tri-state boolean: unset, true or false.
type OptionalBool struct {
	Value *bool
}

func (b *OptionalBool) String() string {
	if b.Value == nil {
		return ""
	}
	return fmt.Sprint(*b.Value)
}

func (b *OptionalBool) Set(s string) error {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	b.Value = &v
	return nil
}

// IsBoolFlag lets "-use-colpali" stand for "-use-colpali=true".
func (b *OptionalBool) IsBoolFlag() bool { return true }
