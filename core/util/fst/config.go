package fst

import (
	"io"
	"io/ioutil"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

/*
Compiler options as read from a yaml file. Zero values keep the
builder defaults, so an empty document is a valid configuration.
*/
type CompilerConfiguration struct {
	// byte1, byte2 or byte4
	InputType                           string                `yaml:"inputType"`
	SuffixRAMLimitMB                    *float64              `yaml:"suffixRAMLimitMB"`
	AllowFixedLengthArcs                *bool                 `yaml:"allowFixedLengthArcs"`
	DirectAddressingMaxOversizingFactor *float32              `yaml:"directAddressingMaxOversizingFactor"`
	FixedLengthArcs                     *FixedLengthArcConfig `yaml:"fixedLengthArcs"`
	Version                             int                   `yaml:"version"`
	BytesPageBits                       int                   `yaml:"bytesPageBits"`
}

type FixedLengthArcConfig struct {
	ShallowDepth   int `yaml:"shallowDepth"`
	ShallowNumArcs int `yaml:"shallowNumArcs"`
	DeepNumArcs    int `yaml:"deepNumArcs"`
}

/* Decodes a configuration, rejecting unknown keys. */
func ReadCompilerConfiguration(r io.Reader) (*CompilerConfiguration, error) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}
	conf := new(CompilerConfiguration)
	if err = yaml.UnmarshalStrict(data, conf); err != nil {
		return nil, errors.Wrap(err, "invalid FST compiler configuration")
	}
	return conf, nil
}

func ParseInputType(name string) (InputType, error) {
	switch strings.ToLower(name) {
	case "", "byte1":
		return INPUT_TYPE_BYTE1, nil
	case "byte2":
		return INPUT_TYPE_BYTE2, nil
	case "byte4":
		return INPUT_TYPE_BYTE4, nil
	}
	return 0, errors.Errorf("unknown input type %q; want byte1, byte2 or byte4", name)
}

/*
Applies the configuration to a new builder. Validation of the values
happens in FSTCompilerBuilder.Build().
*/
func NewFSTCompilerBuilderFromConfig[T any](conf *CompilerConfiguration, outputs Outputs[T]) (*FSTCompilerBuilder[T], error) {
	inputType, err := ParseInputType(conf.InputType)
	if err != nil {
		return nil, err
	}
	b := NewFSTCompilerBuilder(inputType, outputs)
	if conf.SuffixRAMLimitMB != nil {
		b.SuffixRAMLimitMB(*conf.SuffixRAMLimitMB)
	}
	if conf.AllowFixedLengthArcs != nil {
		b.AllowFixedLengthArcs(*conf.AllowFixedLengthArcs)
	}
	if conf.DirectAddressingMaxOversizingFactor != nil {
		b.DirectAddressingMaxOversizingFactor(*conf.DirectAddressingMaxOversizingFactor)
	}
	if t := conf.FixedLengthArcs; t != nil {
		b.FixedLengthArcThresholds(t.ShallowDepth, t.ShallowNumArcs, t.DeepNumArcs)
	}
	if conf.Version != 0 {
		b.Version(conf.Version)
	}
	if conf.BytesPageBits != 0 {
		b.BytesPageBits(conf.BytesPageBits)
	}
	return b, nil
}
