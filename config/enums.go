package config

import (
	"fmt"
	"strings"
)

// Specification of requested output format.
// ENUM(yaml, text)
type OutputFormat int

const (
	OutputFormatYaml OutputFormat = iota
	OutputFormatText
)

var outputFormatNames = []string{"yaml", "text"}

func (x OutputFormat) String() string {
	if int(x) >= 0 && int(x) < len(outputFormatNames) {
		return outputFormatNames[x]
	}
	return fmt.Sprintf("OutputFormat(%d)", int(x))
}

// IsValid reports whether x is one of the known formats.
func (x OutputFormat) IsValid() bool {
	return int(x) >= 0 && int(x) < len(outputFormatNames)
}

// ParseOutputFormat converts name into OutputFormat, case insensitively.
func ParseOutputFormat(name string) (OutputFormat, error) {
	for i, n := range outputFormatNames {
		if strings.EqualFold(n, name) {
			return OutputFormat(i), nil
		}
	}
	return OutputFormat(0), fmt.Errorf("%s is not a valid OutputFormat, try [%s]", name, strings.Join(outputFormatNames, ", "))
}

func (x OutputFormat) MarshalText() ([]byte, error) {
	if !x.IsValid() {
		return nil, fmt.Errorf("invalid OutputFormat %d", int(x))
	}
	return []byte(x.String()), nil
}

func (x *OutputFormat) UnmarshalText(text []byte) error {
	v, err := ParseOutputFormat(string(text))
	if err != nil {
		return err
	}
	*x = v
	return nil
}
